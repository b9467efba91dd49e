package ports

import (
	"context"

	"github.com/aretw0/gantry/pkg/domain"
)

// ApprovalGate blocks a gated stage until its environment is approved.
//
// Wait returns nil once approval for the environment has been granted,
// domain.ErrApprovalDenied if it was explicitly rejected, or the
// context error if the run is cancelled while suspended. Absence of
// approval is a suspended wait, never a failure.
type ApprovalGate interface {
	Wait(ctx context.Context, run domain.RunContext, environment string) error
}
