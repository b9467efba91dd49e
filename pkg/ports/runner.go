package ports

import (
	"context"

	"github.com/aretw0/gantry/pkg/domain"
)

// StageRunner executes one stage's command-set as an isolated unit.
//
// Implementations must verify declared inputs before executing
// (domain.ErrMissingInput), verify declared outputs after a zero exit
// (domain.ErrMissingOutput), and upload produced outputs to the
// artifact store on success. A failed stage is reported through the
// StageResult, not the error return; the error is reserved for
// infrastructure faults that make the result itself meaningless.
type StageRunner interface {
	Run(ctx context.Context, stage domain.Stage, run domain.RunContext) (domain.StageResult, error)
}

// Committer pushes the self-modifying stage's changes back to the
// source of truth. CommitIfChanged must be idempotent: a clean tree
// produces no commit and reports committed=false.
type Committer interface {
	CommitIfChanged(ctx context.Context, run domain.RunContext, spec domain.CommitSpec) (committed bool, err error)
}
