package raceservice

import (
	"errors"
	"fmt"
)

var (
	ErrParticipantNotInRun  = errors.New("participant is not registered for this run")
	ErrUnknownParticipant   = errors.New("unknown participant")
	ErrDuplicateParticipant = errors.New("participant already registered")
	ErrAmbiguousStartNumber = errors.New("start number assigned more than once")
	ErrUnknownStartNumber   = errors.New("no participant with this start number")
	ErrUnknownRun           = errors.New("unknown run")
	ErrLoopStopped          = errors.New("model loop stopped")
	ErrEmptyManualEntry     = errors.New("manual entry carries no values")
)

// CommandPanicError is returned for a model command that panicked.
type CommandPanicError struct {
	Command string
	Value   any
}

func (e *CommandPanicError) Error() string {
	return fmt.Sprintf("panic in %s: %v", e.Command, e.Value)
}
