package dsl_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/gantry/pkg/dsl"
	"github.com/aretw0/gantry/pkg/pipeline"
)

func TestBuilder_ReleasePipeline(t *testing.T) {
	b := dsl.New()

	b.Stage("format").
		Run("black", ".").
		Commit("apply formatting", "src/")

	b.Stage("build").
		Needs("format").
		Run("python", "-m", "build").
		Outputs("wheel", "sdist").
		Timeout(5 * time.Minute)

	b.Stage("verify").
		Needs("build").
		Inputs("wheel", "sdist").
		Run("twine", "check", "dist/wheel", "dist/sdist")

	b.Stage("publish").
		Needs("verify").
		Inputs("wheel", "sdist").
		Publish("registry", "pypi")

	stages, err := b.Build()
	require.NoError(t, err)
	require.Len(t, stages, 4)

	assert.Equal(t, "format", stages[0].Name)
	require.NotNil(t, stages[0].Commit)
	assert.Equal(t, []string{"src/"}, stages[0].Commit.Paths)

	assert.Equal(t, 5*time.Minute, stages[1].Timeout)
	assert.Equal(t, []string{"wheel", "sdist"}, stages[1].Outputs)

	publish := stages[3]
	require.NotNil(t, publish.Publish)
	assert.Equal(t, "registry", publish.Publish.Audience)
	assert.Equal(t, "pypi", publish.Environment)
	assert.True(t, publish.Gated())

	// The built stages register cleanly.
	p := pipeline.New()
	for _, stage := range stages {
		require.NoError(t, p.Register(stage))
	}
	plan, err := p.Plan()
	require.NoError(t, err)
	assert.Len(t, plan, 4)
}

func TestBuilder_StageIsIdempotent(t *testing.T) {
	b := dsl.New()
	first := b.Stage("build")
	second := b.Stage("build")
	assert.Same(t, first, second)
}

func TestBuilder_PublishWithCommandsIsRejected(t *testing.T) {
	b := dsl.New()
	b.Stage("publish").
		Run("twine", "upload").
		Publish("registry", "pypi")

	_, err := b.Build()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot run commands")
}
