package attendance

import "errors"

// ConflictKind names a rejected state transition
type ConflictKind string

const (
	KindAlreadyActive     ConflictKind = "already_active"
	KindNoActiveSession   ConflictKind = "no_active_session"
	KindBreakInProgress   ConflictKind = "break_in_progress"
	KindAlreadyOnBreak    ConflictKind = "already_on_break"
	KindNoBreakInProgress ConflictKind = "no_break_in_progress"
	KindSessionNotClosed  ConflictKind = "session_not_closed"
	KindNotOwner          ConflictKind = "not_owner"
)

// Sentinels for errors.Is; a *ConflictError matches the one of its kind.
var (
	ErrAlreadyActive     = &ConflictError{Kind: KindAlreadyActive, Message: "already clocked in"}
	ErrNoActiveSession   = &ConflictError{Kind: KindNoActiveSession, Message: "not clocked in"}
	ErrBreakInProgress   = &ConflictError{Kind: KindBreakInProgress, Message: "on break, end the break before clocking out"}
	ErrAlreadyOnBreak    = &ConflictError{Kind: KindAlreadyOnBreak, Message: "already on break"}
	ErrNoBreakInProgress = &ConflictError{Kind: KindNoBreakInProgress, Message: "no break in progress"}
	ErrSessionNotClosed  = &ConflictError{Kind: KindSessionNotClosed, Message: "clock out before submitting a work report"}
	ErrNotOwner          = &ConflictError{Kind: KindNotOwner, Message: "session belongs to someone else"}
)

// ConflictError rejects an operation that does not fit the subject's current
// state. It is expected, carries an actionable message and is never retried.
type ConflictError struct {
	Kind    ConflictKind
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

func (e *ConflictError) Is(target error) bool {
	t, ok := target.(*ConflictError)
	return ok && t.Kind == e.Kind
}

// IsConflict reports whether err is a state conflict rather than a store failure
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}
