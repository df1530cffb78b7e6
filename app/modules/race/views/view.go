// Package raceviews maintains ordered, grouped and ranked lists derived from
// the race model. Every provider lives in the model context: Init, change
// handling and observers run there. Snapshot is the only method safe to call
// from other goroutines.
package raceviews

import (
	"log/slog"
	"sync/atomic"
	"time"

	racedomain "github.com/Black-And-White-Club/slalom-timing/app/modules/race/domain"
	racemetrics "github.com/Black-And-White-Club/slalom-timing/internal/metrics/race"
)

// ChangeKind classifies a change of a view's source.
type ChangeKind int

const (
	ChangeAdded ChangeKind = iota
	ChangeRemoved
	ChangeUpdated
	ChangeResult
	// ChangeRegrouped forces a full rebuild.
	ChangeRegrouped
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeAdded:
		return "added"
	case ChangeRemoved:
		return "removed"
	case ChangeUpdated:
		return "updated"
	case ChangeResult:
		return "result"
	case ChangeRegrouped:
		return "regrouped"
	}
	return "unknown"
}

// DefaultHighlightDuration is how long an entry stays marked as just modified.
const DefaultHighlightDuration = 5 * time.Second

// Scheduler runs fn in the model context after d. raceservice.Loop
// implements it.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) (cancel func())
}

// Options are shared by all providers.
type Options struct {
	Grouping racedomain.Grouping
	// Scheduler clears just modified flags. Without one, entries are never
	// flagged.
	Scheduler         Scheduler
	HighlightDuration time.Duration
	Logger            *slog.Logger
	Metrics           racemetrics.RaceMetrics
}

func (o Options) withDefaults() Options {
	if o.HighlightDuration <= 0 {
		o.HighlightDuration = DefaultHighlightDuration
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Metrics == nil {
		o.Metrics = racemetrics.NoOpMetrics{}
	}
	return o
}

// StartListView is implemented by every start list provider.
type StartListView interface {
	ChangeGrouping(g racedomain.Grouping)
	GetViewList() []racedomain.StartListEntry
	OnSourceChanged(kind ChangeKind, participantID string)
	Observe(fn func([]racedomain.StartListEntry)) (cancel func())
	Snapshot() []racedomain.StartListEntry
	Close()
}

// observable keeps the last published list and the observers to notify.
type observable[T any] struct {
	snapshot  atomic.Pointer[[]T]
	observers []observer[T]
	nextID    int
}

type observer[T any] struct {
	id int
	fn func([]T)
}

// Observe registers fn to be called with every published list.
func (o *observable[T]) Observe(fn func([]T)) (cancel func()) {
	o.nextID++
	id := o.nextID
	o.observers = append(o.observers, observer[T]{id: id, fn: fn})
	return func() {
		for i, ob := range o.observers {
			if ob.id == id {
				o.observers = append(o.observers[:i:i], o.observers[i+1:]...)
				return
			}
		}
	}
}

// Snapshot returns the last published list. Callers must not modify it.
func (o *observable[T]) Snapshot() []T {
	if p := o.snapshot.Load(); p != nil {
		return *p
	}
	return nil
}

func (o *observable[T]) publish(list []T) {
	o.snapshot.Store(&list)
	for _, ob := range o.observers {
		ob.fn(list)
	}
}
