package domain

import (
	"context"
	"time"
)

// EventType defines the category of a lifecycle event.
type EventType string

const (
	EventStageStart     EventType = "stage_start"
	EventStageFinish    EventType = "stage_finish"
	EventPublishAttempt EventType = "publish_attempt"
	EventRunFinish      EventType = "run_finish"
)

// StageEvent describes a stage entering or leaving execution.
type StageEvent struct {
	Timestamp time.Time   `json:"timestamp"`
	Type      EventType   `json:"type"`
	RunID     string      `json:"run_id"`
	Stage     string      `json:"stage"`
	Status    StageStatus `json:"status"`
}

// PublishEvent describes one registry publish attempt.
type PublishEvent struct {
	Timestamp time.Time `json:"timestamp"`
	RunID     string    `json:"run_id"`
	Audience  string    `json:"audience"`
	Duplicate bool      `json:"duplicate,omitempty"`
	IsError   bool      `json:"is_error,omitempty"`
}

// RunEvent describes a run reaching a terminal state.
type RunEvent struct {
	Timestamp time.Time `json:"timestamp"`
	RunID     string    `json:"run_id"`
	Status    RunStatus `json:"status"`
	Duration  time.Duration
}

// LifecycleHooks defines callbacks for orchestrator observability.
// Nil callbacks are simply not invoked.
type LifecycleHooks struct {
	OnStageStart     func(context.Context, *StageEvent)
	OnStageFinish    func(context.Context, *StageEvent)
	OnPublishAttempt func(context.Context, *PublishEvent)
	OnRunFinish      func(context.Context, *RunEvent)
}
