package observability_test

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/gantry/pkg/domain"
	"github.com/aretw0/gantry/pkg/observability"
)

func TestMetrics_CountsLifecycleEvents(t *testing.T) {
	m := observability.NewMetrics()
	hooks := m.Hooks()
	ctx := context.Background()

	hooks.OnStageFinish(ctx, &domain.StageEvent{Stage: "build", Status: domain.StageSuccess})
	hooks.OnStageFinish(ctx, &domain.StageEvent{Stage: "verify", Status: domain.StageFailed})
	hooks.OnPublishAttempt(ctx, &domain.PublishEvent{Audience: "registry"})
	hooks.OnRunFinish(ctx, &domain.RunEvent{Status: domain.RunFailed, Duration: 3 * time.Second})

	families, err := m.Registry().Gather()
	require.NoError(t, err)
	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["gantry_runs_total"])
	assert.True(t, names["gantry_stages_total"])

	count, err := testutil.GatherAndCount(m.Registry())
	require.NoError(t, err)
	assert.Greater(t, count, 0)
}
