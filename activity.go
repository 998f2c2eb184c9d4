package nexus

import (
	"context"
	"time"
)

// ActivityEventType enumerates supported activity categories.
type ActivityEventType string

const (
	ActivityEventSignInSuccess          ActivityEventType = "auth.signin.success"
	ActivityEventSignInFailure          ActivityEventType = "auth.signin.failure"
	ActivityEventSignOut                ActivityEventType = "auth.signout"
	ActivityEventSignOutFailure         ActivityEventType = "auth.signout.failure"
	ActivityEventSessionRestored        ActivityEventType = "auth.session.restored"
	ActivityEventRegistration           ActivityEventType = "auth.registration.success"
	ActivityEventRegistrationFailure    ActivityEventType = "auth.registration.failure"
	ActivityEventRegistrationIncomplete ActivityEventType = "auth.registration.incomplete"
	ActivityEventPasswordResetRequested ActivityEventType = "auth.password.reset_requested"
	ActivityEventPasswordResetSuccess   ActivityEventType = "auth.password.reset_success"
	ActivityEventProfileUpdated         ActivityEventType = "auth.profile.updated"
)

// ActivityEvent captures audit-friendly information about an action.
type ActivityEvent struct {
	EventType  ActivityEventType
	UserID     string
	Metadata   map[string]any
	OccurredAt time.Time
}

// ActivitySink consumes activity events for auditing/telemetry purposes.
// Sinks run best-effort: errors are logged, never propagated.
type ActivitySink interface {
	Record(ctx context.Context, event ActivityEvent) error
}

// ActivitySinkFunc adapts a function to the ActivitySink interface.
type ActivitySinkFunc func(ctx context.Context, event ActivityEvent) error

// Record implements ActivitySink.
func (f ActivitySinkFunc) Record(ctx context.Context, event ActivityEvent) error {
	if f == nil {
		return nil
	}
	return f(ctx, event)
}

type noopActivitySink struct{}

func (noopActivitySink) Record(context.Context, ActivityEvent) error {
	return nil
}

func normalizeActivitySink(s ActivitySink) ActivitySink {
	if s == nil {
		return noopActivitySink{}
	}
	return s
}
