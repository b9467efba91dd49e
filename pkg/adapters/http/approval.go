package http

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/aretw0/gantry/pkg/domain"
)

// ApprovalServer implements ports.ApprovalGate behind a small HTTP
// surface: a gated stage suspends until an operator posts a decision
// for the run's environment.
//
//	GET  /runs/{runID}/approvals              -> pending environments
//	POST /runs/{runID}/approvals/{env}        -> {"approved": true|false}
type ApprovalServer struct {
	mu      sync.Mutex
	pending map[string]chan bool // key: runID "/" environment
}

// NewApprovalServer creates an approval gate with no pending waits.
func NewApprovalServer() *ApprovalServer {
	return &ApprovalServer{
		pending: make(map[string]chan bool),
	}
}

func (s *ApprovalServer) channel(runID, environment string) chan bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := runID + "/" + environment
	ch, ok := s.pending[key]
	if !ok {
		ch = make(chan bool, 1)
		s.pending[key] = ch
	}
	return ch
}

// Wait suspends until a decision is posted for the environment.
func (s *ApprovalServer) Wait(ctx context.Context, run domain.RunContext, environment string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case approved := <-s.channel(run.RunID, environment):
		if !approved {
			return domain.ErrApprovalDenied
		}
		return nil
	}
}

// Handler returns the HTTP surface for operators.
func (s *ApprovalServer) Handler() http.Handler {
	r := chi.NewRouter()

	r.Get("/runs/{runID}/approvals", func(w http.ResponseWriter, req *http.Request) {
		runID := chi.URLParam(req, "runID")

		s.mu.Lock()
		var envs []string
		for key := range s.pending {
			if len(key) > len(runID) && key[:len(runID)] == runID {
				envs = append(envs, key[len(runID)+1:])
			}
		}
		s.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"pending": envs})
	})

	r.Post("/runs/{runID}/approvals/{env}", func(w http.ResponseWriter, req *http.Request) {
		runID := chi.URLParam(req, "runID")
		env := chi.URLParam(req, "env")

		var body struct {
			Approved bool `json:"approved"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			http.Error(w, "invalid body", http.StatusBadRequest)
			return
		}

		select {
		case s.channel(runID, env) <- body.Approved:
			w.WriteHeader(http.StatusAccepted)
		default:
			// A decision is already queued; a second one is a conflict.
			http.Error(w, "decision already recorded", http.StatusConflict)
		}
	})

	return r
}
