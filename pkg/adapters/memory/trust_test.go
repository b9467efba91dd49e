package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/gantry/pkg/adapters/memory"
	"github.com/aretw0/gantry/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssuer_EnvironmentAllowList(t *testing.T) {
	iss := memory.NewIssuer([]string{"pypi"})
	ctx := context.Background()

	t.Run("Approved", func(t *testing.T) {
		token, err := iss.IssueToken(ctx, "pypi", "registry")
		require.NoError(t, err)
		assert.Equal(t, "registry", token.Audience)
		assert.Equal(t, "pypi", token.Environment)
	})

	t.Run("Unauthorized", func(t *testing.T) {
		_, err := iss.IssueToken(ctx, "staging", "registry")
		assert.ErrorIs(t, err, domain.ErrUnauthorizedEnvironment)
	})
}

func TestTrustToken_SingleUse(t *testing.T) {
	iss := memory.NewIssuer([]string{"pypi"})
	token, err := iss.IssueToken(context.Background(), "pypi", "registry")
	require.NoError(t, err)

	value, err := token.Consume(time.Now())
	require.NoError(t, err)
	assert.NotEmpty(t, value)

	// Second use is rejected as spent, even within the expiry window.
	_, err = token.Consume(time.Now())
	assert.ErrorIs(t, err, domain.ErrTokenSpent)
	assert.True(t, token.Spent())
}

func TestTrustToken_Expiry(t *testing.T) {
	frozen := time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)
	iss := memory.NewIssuer([]string{"pypi"},
		memory.WithTTL(time.Minute),
		memory.WithClock(func() time.Time { return frozen }),
	)
	token, err := iss.IssueToken(context.Background(), "pypi", "registry")
	require.NoError(t, err)

	_, err = token.Consume(frozen.Add(2 * time.Minute))
	assert.ErrorIs(t, err, domain.ErrTokenExpired)
}

func TestRegistry_AudienceScope(t *testing.T) {
	iss := memory.NewIssuer([]string{"pypi"})
	reg := memory.NewRegistry("registry")
	ctx := context.Background()

	art := domain.Artifact{Name: "wheel", Content: []byte("bytes"), Producer: "build"}

	t.Run("Wrong Audience Rejected", func(t *testing.T) {
		token, err := iss.IssueToken(ctx, "pypi", "other-registry")
		require.NoError(t, err)
		_, err = reg.Publish(ctx, token, []domain.Artifact{art})
		assert.ErrorIs(t, err, domain.ErrRegistryRejected)
	})

	t.Run("Spent Token Rejected", func(t *testing.T) {
		token, err := iss.IssueToken(ctx, "pypi", "registry")
		require.NoError(t, err)
		_, err = token.Consume(time.Now())
		require.NoError(t, err)

		_, err = reg.Publish(ctx, token, []domain.Artifact{art})
		assert.ErrorIs(t, err, domain.ErrRegistryRejected)
	})

	t.Run("Fresh Then Duplicate", func(t *testing.T) {
		token, err := iss.IssueToken(ctx, "pypi", "registry")
		require.NoError(t, err)
		receipt, err := reg.Publish(ctx, token, []domain.Artifact{art})
		require.NoError(t, err)
		assert.False(t, receipt.Duplicate)

		// Same version again: benign duplicate, fresh token required.
		token2, err := iss.IssueToken(ctx, "pypi", "registry")
		require.NoError(t, err)
		receipt, err = reg.Publish(ctx, token2, []domain.Artifact{art})
		require.NoError(t, err)
		assert.True(t, receipt.Duplicate)
	})
}

func TestGate_ApproveAndDeny(t *testing.T) {
	run := domain.RunContext{RunID: "run-1"}

	t.Run("Approval Unblocks Wait", func(t *testing.T) {
		gate := memory.NewGate()
		gate.Approve("pypi")
		err := gate.Wait(context.Background(), run, "pypi")
		assert.NoError(t, err)
	})

	t.Run("Denial Fails Wait", func(t *testing.T) {
		gate := memory.NewGate()
		gate.Deny("pypi")
		err := gate.Wait(context.Background(), run, "pypi")
		assert.ErrorIs(t, err, domain.ErrApprovalDenied)
	})

	t.Run("Cancelled While Suspended", func(t *testing.T) {
		gate := memory.NewGate()
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		err := gate.Wait(ctx, run, "pypi")
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}
