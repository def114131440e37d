package service

import (
	"context"
	"errors"

	"github.com/grupoandino/portal-approvals/internal/application/directory"
	"github.com/grupoandino/portal-approvals/internal/application/workflow"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// DirectoryProvider owns the department/role snapshot the engines read.
// Controllers reload it after every successful transition.
type DirectoryProvider interface {
	Current() *directory.Directory
	Reload(ctx context.Context) error
}

var (
	// ErrNoDepartment is returned when a creator cannot be resolved to any
	// department in the directory snapshot
	ErrNoDepartment = errors.New("user belongs to no department")

	// ErrNotVisible is returned when the actor's visibility scope does not
	// include the requested record
	ErrNotVisible = errors.New("request not visible to actor")

	// ErrNotFound is returned when the request does not exist
	ErrNotFound = errors.New("request not found")
)

// Outcome is the result of a lifecycle action. Authorization and
// transition-validity failures land here as a typed denial with a nil
// error; only infrastructure failures surface as errors.
type Outcome struct {
	Denied   bool
	Reason   workflow.DenialReason
	Detail   string
	Decision workflow.Decision

	PreviousStatus string
	NewStatus      string
}

func deniedOutcome(d workflow.Decision) *Outcome {
	return &Outcome{Denied: true, Reason: d.Reason, Detail: d.Detail, Decision: d}
}

func denied(reason workflow.DenialReason, detail string) *Outcome {
	return &Outcome{Denied: true, Reason: reason, Detail: detail}
}
