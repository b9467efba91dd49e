package memory

import (
	"context"
	"sync"

	"github.com/aretw0/gantry/pkg/domain"
)

// Gate implements ports.ApprovalGate in memory. Each environment has a
// pending decision channel; Wait suspends until Approve or Deny is
// called for that environment, or the context is cancelled.
type Gate struct {
	mu        sync.Mutex
	decisions map[string]chan bool // buffered(1): true=approved
}

// NewGate creates an approval gate with no pre-recorded decisions.
func NewGate() *Gate {
	return &Gate{
		decisions: make(map[string]chan bool),
	}
}

func (g *Gate) channel(environment string) chan bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	ch, ok := g.decisions[environment]
	if !ok {
		ch = make(chan bool, 1)
		g.decisions[environment] = ch
	}
	return ch
}

// Approve records an approval for the environment.
func (g *Gate) Approve(environment string) {
	select {
	case g.channel(environment) <- true:
	default:
	}
}

// Deny records an explicit rejection for the environment.
func (g *Gate) Deny(environment string) {
	select {
	case g.channel(environment) <- false:
	default:
	}
}

// Wait suspends until the environment's decision arrives.
func (g *Gate) Wait(ctx context.Context, run domain.RunContext, environment string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case approved := <-g.channel(environment):
		if !approved {
			return domain.ErrApprovalDenied
		}
		return nil
	}
}

// AutoGate approves every environment immediately. Useful for
// non-interactive runs and tests.
type AutoGate struct{}

// Wait returns nil right away.
func (AutoGate) Wait(ctx context.Context, run domain.RunContext, environment string) error {
	return ctx.Err()
}
