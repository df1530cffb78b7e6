package raceviews

import (
	"cmp"
	"context"
	"log/slog"
	"slices"
	"time"

	raceservice "github.com/Black-And-White-Club/slalom-timing/app/modules/race/application"
	racedomain "github.com/Black-And-White-Club/slalom-timing/app/modules/race/domain"
)

// startListView is the roster driven core shared by the start list
// providers. Providers differ in which participants they include, how an
// entry is built and how a group is ordered.
type startListView struct {
	observable[racedomain.StartListEntry]

	name     string
	opts     Options
	race     *raceservice.Race
	list     *grouped[*racedomain.StartListEntry]
	selector racedomain.GroupSelector
	markers  map[string]racedomain.MeasurementColor
	subs     []raceservice.SubscriptionID

	include func(*racedomain.RaceParticipant) bool
	build   func(*racedomain.RaceParticipant) *racedomain.StartListEntry
}

func newStartListView(name string, opts Options, arrange func([]*racedomain.StartListEntry)) *startListView {
	opts = opts.withDefaults()
	v := &startListView{
		name:     name,
		opts:     opts,
		selector: opts.Grouping.Selector(),
		markers:  map[string]racedomain.MeasurementColor{},
		include:  func(*racedomain.RaceParticipant) bool { return true },
		build: func(rp *racedomain.RaceParticipant) *racedomain.StartListEntry {
			return &racedomain.StartListEntry{Participant: rp}
		},
	}
	v.list = newGrouped(func(e *racedomain.StartListEntry) *racedomain.RaceParticipant { return e.Participant }, arrange)
	return v
}

func (v *startListView) init(race *raceservice.Race) {
	v.race = race
	v.subs = append(v.subs, subscribeRoster(race, v.OnSourceChanged)...)
	v.rebuild()
}

func (v *startListView) entry(rp *racedomain.RaceParticipant) *racedomain.StartListEntry {
	e := v.build(rp)
	e.Marker = v.markers[rp.ID()]
	return e
}

func (v *startListView) rebuild() {
	var entries []*racedomain.StartListEntry
	for _, rp := range v.race.Participants() {
		if v.include(rp) {
			entries = append(entries, v.entry(rp))
		}
	}
	v.list.reset(v.selector, entries)
	v.emit()
}

// ChangeGrouping re-partitions the list.
func (v *startListView) ChangeGrouping(g racedomain.Grouping) {
	v.SetGroupSelector(g.Selector())
}

// SetGroupSelector re-partitions the list by a custom criterion.
func (v *startListView) SetGroupSelector(sel racedomain.GroupSelector) {
	v.selector = sel
	v.list.reset(sel, v.list.all())
	v.emit()
}

// SetMarker colours the entry of a participant.
func (v *startListView) SetMarker(participantID string, c racedomain.MeasurementColor) {
	v.markers[participantID] = c
	if e, ok := v.list.get(participantID); ok {
		e.Marker = c
		v.emit()
	}
}

// OnSourceChanged updates the entry of participantID.
func (v *startListView) OnSourceChanged(kind ChangeKind, participantID string) {
	start := time.Now()
	switch kind {
	case ChangeRegrouped:
		v.list.reset(v.selector, v.list.all())
	case ChangeRemoved:
		v.list.remove(participantID)
		delete(v.markers, participantID)
	default:
		rp := v.race.ParticipantByID(participantID)
		if rp == nil || !v.include(rp) {
			v.list.remove(participantID)
		} else {
			v.list.put(v.entry(rp))
		}
		v.list.flush()
	}
	v.emit()

	v.opts.Metrics.RecordViewRecompute(context.Background(), v.name, time.Since(start))
	v.opts.Logger.Debug("Start list updated",
		slog.String("view", v.name),
		slog.String("change", kind.String()),
		slog.String("participant_id", participantID),
	)
}

// GetViewList returns a detached copy of the list in display order.
func (v *startListView) GetViewList() []racedomain.StartListEntry {
	return copyEntries(v.list.all())
}

func (v *startListView) emit() {
	v.publish(copyEntries(v.list.all()))
}

// Close detaches the view from the model.
func (v *startListView) Close() {
	if v.race != nil {
		v.race.Hub().Unsubscribe(v.subs...)
	}
	v.subs = nil
}

func copyEntries(items []*racedomain.StartListEntry) []racedomain.StartListEntry {
	out := make([]racedomain.StartListEntry, len(items))
	for i, e := range items {
		out[i] = e.Copy()
	}
	return out
}

// FirstRunStartListViewProvider lists the roster by start number.
type FirstRunStartListViewProvider struct {
	*startListView
}

func NewFirstRunStartListViewProvider(opts Options) *FirstRunStartListViewProvider {
	return &FirstRunStartListViewProvider{
		startListView: newStartListView("first_run_start_list", opts, func(items []*racedomain.StartListEntry) {
			slices.SortFunc(items, byStartNumber)
		}),
	}
}

// Init builds the list from the roster of race and follows its changes.
func (p *FirstRunStartListViewProvider) Init(race *raceservice.Race) {
	p.init(race)
}

// SeededFirstRunStartListViewProvider keeps the drawn top group first: the N
// lowest start numbers among participants with points, in start number order.
// Everyone else follows by points, late entries included.
type SeededFirstRunStartListViewProvider struct {
	*startListView
	seeded int
}

// DefaultSeededStarters is the size of the top group.
const DefaultSeededStarters = 15

func NewSeededFirstRunStartListViewProvider(seeded int, opts Options) *SeededFirstRunStartListViewProvider {
	if seeded <= 0 {
		seeded = DefaultSeededStarters
	}
	return &SeededFirstRunStartListViewProvider{
		startListView: newStartListView("seeded_start_list", opts, seededOrder(seeded)),
		seeded:        seeded,
	}
}

func (p *SeededFirstRunStartListViewProvider) Init(race *raceservice.Race) {
	p.init(race)
}

// Seeded returns the size of the top group.
func (p *SeededFirstRunStartListViewProvider) Seeded() int { return p.seeded }

func seededOrder(n int) func([]*racedomain.StartListEntry) {
	return func(items []*racedomain.StartListEntry) {
		slices.SortFunc(items, func(a, b *racedomain.StartListEntry) int {
			if a.Participant.HasPoints() != b.Participant.HasPoints() {
				if a.Participant.HasPoints() {
					return -1
				}
				return 1
			}
			return byStartNumber(a, b)
		})
		top := 0
		for top < len(items) && top < n && items[top].Participant.HasPoints() {
			top++
		}
		slices.SortFunc(items[top:], byPoints)
	}
}

// SimpleSecondRunStartListViewProvider orders by the result list of the
// previous run, reversed or as is.
type SimpleSecondRunStartListViewProvider struct {
	*startListView
	previous  *raceservice.RaceRun
	direction racedomain.SortDirection
	sorter    *racedomain.RuntimeSorter
}

func NewSimpleSecondRunStartListViewProvider(direction racedomain.SortDirection, opts Options) *SimpleSecondRunStartListViewProvider {
	p := &SimpleSecondRunStartListViewProvider{
		direction: direction,
		sorter:    racedomain.NewRuntimeSorter(),
	}
	p.startListView = newStartListView("second_run_start_list", opts, p.arrange)
	p.include = func(rp *racedomain.RaceParticipant) bool {
		return p.previous.Result(rp.ID()) != nil
	}
	p.build = func(rp *racedomain.RaceParticipant) *racedomain.StartListEntry {
		return &racedomain.StartListEntry{Participant: rp, PreviousRun: p.previous.Result(rp.ID()).Clone()}
	}
	return p
}

// Init orders the participants of previous and follows its results.
func (p *SimpleSecondRunStartListViewProvider) Init(previous *raceservice.RaceRun) {
	p.previous = previous
	p.subs = append(p.subs, subscribeResults(previous, p.OnSourceChanged))
	p.init(previous.Race())
}

func (p *SimpleSecondRunStartListViewProvider) arrange(items []*racedomain.StartListEntry) {
	slices.SortFunc(items, func(a, b *racedomain.StartListEntry) int {
		return p.sorter.Compare(a.PreviousRun, b.PreviousRun)
	})
	if p.direction == racedomain.Descending {
		slices.Reverse(items)
	}
}

func byStartNumber(a, b *racedomain.StartListEntry) int {
	return racedomain.CompareStartNumbers(a.Participant, b.Participant)
}

// byPoints puts participants with points first, lowest first.
func byPoints(a, b *racedomain.StartListEntry) int {
	pa, pb := a.Participant, b.Participant
	if pa.HasPoints() != pb.HasPoints() {
		if pa.HasPoints() {
			return -1
		}
		return 1
	}
	if pa.HasPoints() {
		if r := cmp.Compare(pa.Points, pb.Points); r != 0 {
			return r
		}
	}
	return racedomain.CompareStartNumbers(pa, pb)
}
