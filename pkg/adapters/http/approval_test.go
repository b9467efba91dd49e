package http_test

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	nethttp "net/http"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gantryhttp "github.com/aretw0/gantry/pkg/adapters/http"
	"github.com/aretw0/gantry/pkg/domain"
)

func TestApprovalServer_ApproveUnblocksWait(t *testing.T) {
	gate := gantryhttp.NewApprovalServer()
	srv := httptest.NewServer(gate.Handler())
	defer srv.Close()

	run := domain.RunContext{RunID: "run-1"}
	done := make(chan error, 1)
	go func() {
		done <- gate.Wait(context.Background(), run, "pypi")
	}()

	resp, err := nethttp.Post(srv.URL+"/runs/run-1/approvals/pypi", "application/json",
		strings.NewReader(`{"approved": true}`))
	require.NoError(t, err)
	assert.Equal(t, nethttp.StatusAccepted, resp.StatusCode)
	resp.Body.Close()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("wait did not unblock after approval")
	}
}

func TestApprovalServer_DenyFailsWait(t *testing.T) {
	gate := gantryhttp.NewApprovalServer()
	srv := httptest.NewServer(gate.Handler())
	defer srv.Close()

	run := domain.RunContext{RunID: "run-2"}
	done := make(chan error, 1)
	go func() {
		done <- gate.Wait(context.Background(), run, "pypi")
	}()

	resp, err := nethttp.Post(srv.URL+"/runs/run-2/approvals/pypi", "application/json",
		strings.NewReader(`{"approved": false}`))
	require.NoError(t, err)
	resp.Body.Close()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, domain.ErrApprovalDenied)
	case <-time.After(2 * time.Second):
		t.Fatal("wait did not unblock after denial")
	}
}

func TestApprovalServer_WaitIsSuspendedNotFailed(t *testing.T) {
	gate := gantryhttp.NewApprovalServer()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := gate.Wait(ctx, domain.RunContext{RunID: "run-3"}, "pypi")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
