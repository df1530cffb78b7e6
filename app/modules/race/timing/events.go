package timing

import (
	"errors"
	"fmt"
	"time"
)

// Channel is the logical timing channel of an impulse.
type Channel int

const (
	ChannelStart Channel = iota
	ChannelFinish
	ChannelRunTime
)

func (c Channel) String() string {
	switch c {
	case ChannelStart:
		return "start"
	case ChannelFinish:
		return "finish"
	case ChannelRunTime:
		return "runtime"
	default:
		return fmt.Sprintf("channel(%d)", int(c))
	}
}

// Stamp is the payload shared by all timing events.
type Stamp struct {
	StartNumber uint
	// Time is a time of day for start and finish, the interval for run
	// times. Nil means the device cleared the value.
	Time   *time.Duration
	Manual bool
	Raw    string
}

// Header returns the stamp itself so that every event exposes it.
func (s Stamp) Header() Stamp { return s }

// Event is one of StartTimeEvent, FinishTimeEvent or RunTimeEvent.
type Event interface {
	Header() Stamp
}

type StartTimeEvent struct{ Stamp }

type FinishTimeEvent struct{ Stamp }

type RunTimeEvent struct{ Stamp }

// ChannelOf returns the channel an event was reported on.
func ChannelOf(ev Event) Channel {
	switch ev.(type) {
	case StartTimeEvent:
		return ChannelStart
	case FinishTimeEvent:
		return ChannelFinish
	default:
		return ChannelRunTime
	}
}

func newEvent(ch Channel, s Stamp) Event {
	switch ch {
	case ChannelStart:
		return StartTimeEvent{s}
	case ChannelFinish:
		return FinishTimeEvent{s}
	default:
		return RunTimeEvent{s}
	}
}

var (
	ErrMalformedFrame     = errors.New("malformed frame")
	ErrUnrecognizedFrame  = errors.New("unrecognized frame")
	ErrInvalidImpulse     = errors.New("impulse flagged invalid by device")
	ErrNoArmedStartNumber = errors.New("no start number armed for channel")
	ErrNotAnImpulse       = errors.New("frame carries no impulse")
	ErrFrameTooLong       = errors.New("frame exceeds maximum size")
)

// DecodeError reports a line that did not yield an event.
type DecodeError struct {
	Line string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %q: %v", e.Line, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// reason is the metric label for err.
func reason(err error) string {
	switch {
	case errors.Is(err, ErrMalformedFrame):
		return "malformed"
	case errors.Is(err, ErrInvalidImpulse):
		return "invalid"
	case errors.Is(err, ErrNoArmedStartNumber):
		return "unassigned"
	case errors.Is(err, ErrFrameTooLong):
		return "oversized"
	default:
		return "unrecognized"
	}
}
