package http_test

import (
	"context"
	"encoding/json"
	nethttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gantryhttp "github.com/aretw0/gantry/pkg/adapters/http"
	"github.com/aretw0/gantry/pkg/domain"
)

func issuerStub(t *testing.T, approvedEnv string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.Header.Get("Authorization") != "Bearer ambient-token" {
			w.WriteHeader(nethttp.StatusUnauthorized)
			return
		}
		var req struct {
			Environment string `json:"environment"`
			Audience    string `json:"audience"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		if req.Environment != approvedEnv {
			w.WriteHeader(nethttp.StatusForbidden)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"token":      "short-lived-" + req.Audience,
			"expires_at": time.Now().Add(5 * time.Minute),
		})
	}))
}

func TestTrustClient_IssueToken(t *testing.T) {
	srv := issuerStub(t, "pypi")
	defer srv.Close()

	client := gantryhttp.NewTrustClient(srv.URL, "ambient-token")

	t.Run("Approved Environment", func(t *testing.T) {
		token, err := client.IssueToken(context.Background(), "pypi", "registry")
		require.NoError(t, err)
		assert.Equal(t, "registry", token.Audience)

		value, err := token.Consume(time.Now())
		require.NoError(t, err)
		assert.Equal(t, "short-lived-registry", value)
	})

	t.Run("Unauthorized Environment", func(t *testing.T) {
		_, err := client.IssueToken(context.Background(), "staging", "registry")
		assert.ErrorIs(t, err, domain.ErrUnauthorizedEnvironment)
	})
}

func TestTrustClient_ExchangeUnavailable(t *testing.T) {
	t.Run("Unreachable Issuer", func(t *testing.T) {
		client := gantryhttp.NewTrustClient("http://127.0.0.1:1", "ambient-token")
		_, err := client.IssueToken(context.Background(), "pypi", "registry")
		assert.ErrorIs(t, err, domain.ErrExchangeUnavailable)
	})

	t.Run("Issuer 500", func(t *testing.T) {
		srv := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
			w.WriteHeader(nethttp.StatusInternalServerError)
		}))
		defer srv.Close()

		client := gantryhttp.NewTrustClient(srv.URL, "ambient-token")
		_, err := client.IssueToken(context.Background(), "pypi", "registry")
		assert.ErrorIs(t, err, domain.ErrExchangeUnavailable)
	})
}
