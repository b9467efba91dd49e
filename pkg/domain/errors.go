package domain

import "errors"

// Configuration errors: detected before any stage runs.
var (
	// ErrCycle is returned when registering a stage (or planning) would
	// make the dependency graph cyclic.
	ErrCycle = errors.New("pipeline: dependency cycle")

	// ErrUnknownDependency is returned when a stage names a `needs`
	// stage that was never registered.
	ErrUnknownDependency = errors.New("pipeline: unknown dependency")

	// ErrUnboundInput is returned when a stage declares an input that no
	// upstream stage outputs.
	ErrUnboundInput = errors.New("pipeline: input not produced upstream")

	// ErrDuplicateStage is returned when registering a stage name twice.
	ErrDuplicateStage = errors.New("pipeline: duplicate stage")
)

// Stage execution errors.
var (
	// ErrMissingInput means a declared input artifact was absent from
	// the store; the command-set is not executed.
	ErrMissingInput = errors.New("stage: missing input artifact")

	// ErrMissingOutput means the command-set exited zero but a declared
	// output artifact was not produced.
	ErrMissingOutput = errors.New("stage: missing output artifact")

	// ErrStageTimeout means the stage exceeded its timeout.
	ErrStageTimeout = errors.New("stage: timeout")
)

// ErrArtifactNotFound is returned by artifact stores for absent names.
var ErrArtifactNotFound = errors.New("artifact not found")

// Trust errors: fatal to the publish stage only.
var (
	// ErrUnauthorizedEnvironment means the run's environment is not
	// approved for token issuance.
	ErrUnauthorizedEnvironment = errors.New("trust: unauthorized environment")

	// ErrExchangeUnavailable means the identity provider could not be
	// reached.
	ErrExchangeUnavailable = errors.New("trust: exchange unavailable")

	// ErrTokenSpent means a trust token was presented a second time.
	ErrTokenSpent = errors.New("trust: token already spent")

	// ErrTokenExpired means a trust token was presented past its expiry.
	ErrTokenExpired = errors.New("trust: token expired")
)

// Registry errors.
var (
	// ErrRegistryRejected means the registry refused the upload for a
	// non-benign reason (validation, auth, bad audience).
	ErrRegistryRejected = errors.New("registry: rejected")

	// ErrRegistryUnavailable means the registry could not be reached.
	ErrRegistryUnavailable = errors.New("registry: unavailable")
)

// ErrApprovalDenied is returned by approval gates when the environment
// approval is explicitly rejected rather than still pending.
var ErrApprovalDenied = errors.New("approval: denied")
