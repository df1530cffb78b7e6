package raceviews

import (
	raceservice "github.com/Black-And-White-Club/slalom-timing/app/modules/race/application"
	racedomain "github.com/Black-And-White-Club/slalom-timing/app/modules/race/domain"
)

// RemainingStartListViewProvider decorates a start list with whether each
// participant has started in the current run. The flag is sticky: once set it
// is dropped only when the run result is cleared completely.
type RemainingStartListViewProvider struct {
	observable[racedomain.StartListEntry]

	run     *raceservice.RaceRun
	source  StartListView
	entries []racedomain.StartListEntry
	started map[string]bool

	cancelSource func()
	sub          raceservice.SubscriptionID
}

func NewRemainingStartListViewProvider(run *raceservice.RaceRun) *RemainingStartListViewProvider {
	return &RemainingStartListViewProvider{run: run, started: map[string]bool{}}
}

// Init wraps source and follows the results of the current run.
func (p *RemainingStartListViewProvider) Init(source StartListView) {
	p.source = source
	p.cancelSource = source.Observe(p.sync)
	p.sub = subscribeResults(p.run, p.OnSourceChanged)
	p.sync(source.GetViewList())
}

func (p *RemainingStartListViewProvider) sync(list []racedomain.StartListEntry) {
	p.entries = make([]racedomain.StartListEntry, len(list))
	seen := make(map[string]bool, len(list))
	for i, e := range list {
		id := e.Participant.ID()
		seen[id] = true
		e = e.Copy()
		e.Started = startedAfter(p.started[id], p.run.Result(id))
		p.started[id] = e.Started
		p.entries[i] = e
	}
	for id := range p.started {
		if !seen[id] {
			delete(p.started, id)
		}
	}
	p.emit()
}

// startedAfter derives the flag from the current result and its last value.
func startedAfter(prev bool, r *racedomain.RunResult) bool {
	switch {
	case r == nil || r.IsEmpty():
		return false
	case r.HasStarted():
		return true
	}
	return prev
}

// OnSourceChanged refreshes the started flag on result changes. Everything
// else is taken from the wrapped list.
func (p *RemainingStartListViewProvider) OnSourceChanged(kind ChangeKind, participantID string) {
	if kind != ChangeResult {
		p.source.OnSourceChanged(kind, participantID)
		return
	}
	for i := range p.entries {
		if p.entries[i].Participant.ID() != participantID {
			continue
		}
		started := startedAfter(p.entries[i].Started, p.run.Result(participantID))
		if started == p.entries[i].Started {
			return
		}
		p.entries[i].Started = started
		p.started[participantID] = started
		p.emit()
		return
	}
}

func (p *RemainingStartListViewProvider) ChangeGrouping(g racedomain.Grouping) {
	p.source.ChangeGrouping(g)
}

// GetViewList returns every entry of the wrapped list with its flag.
func (p *RemainingStartListViewProvider) GetViewList() []racedomain.StartListEntry {
	return copyValues(p.entries)
}

// Remaining returns the entries that have not started yet.
func (p *RemainingStartListViewProvider) Remaining() []racedomain.StartListEntry {
	var out []racedomain.StartListEntry
	for _, e := range p.entries {
		if !e.Started {
			out = append(out, e.Copy())
		}
	}
	return out
}

func (p *RemainingStartListViewProvider) emit() {
	p.publish(copyValues(p.entries))
}

func (p *RemainingStartListViewProvider) Close() {
	if p.cancelSource != nil {
		p.cancelSource()
	}
	p.run.Race().Hub().Unsubscribe(p.sub)
}

func copyValues(entries []racedomain.StartListEntry) []racedomain.StartListEntry {
	out := make([]racedomain.StartListEntry, len(entries))
	for i := range entries {
		out[i] = entries[i].Copy()
	}
	return out
}

var _ StartListView = (*RemainingStartListViewProvider)(nil)
var _ StartListView = (*FirstRunStartListViewProvider)(nil)
