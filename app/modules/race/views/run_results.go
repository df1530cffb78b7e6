package raceviews

import (
	"context"
	"log/slog"
	"slices"
	"time"

	raceservice "github.com/Black-And-White-Club/slalom-timing/app/modules/race/application"
	racedomain "github.com/Black-And-White-Club/slalom-timing/app/modules/race/domain"
)

// runChangeListener learns which entries of a run view changed. full is set
// after a rebuild.
type runChangeListener func(ids []string, full bool)

// RaceRunResultViewProvider is the ranked result list of one run. It holds a
// clone of every result so readers never see the live objects.
type RaceRunResultViewProvider struct {
	observable[racedomain.RunResultWithPosition]

	opts      Options
	run       *raceservice.RaceRun
	sorter    *racedomain.RuntimeSorter
	list      *grouped[*racedomain.RunResultWithPosition]
	highlight *highlighter
	subs      []raceservice.SubscriptionID

	changed   map[string]struct{}
	listeners []runChangeListener
}

func NewRaceRunResultViewProvider(opts Options) *RaceRunResultViewProvider {
	opts = opts.withDefaults()
	v := &RaceRunResultViewProvider{
		opts:      opts,
		sorter:    racedomain.NewRuntimeSorter(),
		highlight: newHighlighter(opts.Scheduler, opts.HighlightDuration),
		changed:   map[string]struct{}{},
	}
	v.sorter.SetGrouping(opts.Grouping)
	v.list = newGrouped(func(e *racedomain.RunResultWithPosition) *racedomain.RaceParticipant {
		return e.Result.Participant()
	}, v.arrange)
	return v
}

// Init ranks the results of run and follows the run and its roster.
func (v *RaceRunResultViewProvider) Init(run *raceservice.RaceRun) {
	v.run = run
	v.subs = append(v.subs, subscribeRoster(run.Race(), v.OnSourceChanged)...)
	v.subs = append(v.subs, subscribeResults(run, v.OnSourceChanged))
	v.rebuild()
}

// Run returns the run the view ranks.
func (v *RaceRunResultViewProvider) Run() *raceservice.RaceRun { return v.run }

// Sorter exposes the comparator, e.g. to switch the NotSetLast policy before
// Init.
func (v *RaceRunResultViewProvider) Sorter() *racedomain.RuntimeSorter { return v.sorter }

func (v *RaceRunResultViewProvider) rebuild() {
	v.highlight.stop()
	results := v.run.Results()
	entries := make([]*racedomain.RunResultWithPosition, 0, len(results))
	for _, r := range results {
		entries = append(entries, &racedomain.RunResultWithPosition{Result: r.Clone()})
	}
	v.list.reset(v.sorter.GroupSelector(), entries)
	clear(v.changed)
	v.notify(nil, true)
	v.emit()
}

func (v *RaceRunResultViewProvider) arrange(items []*racedomain.RunResultWithPosition) {
	slices.SortFunc(items, func(a, b *racedomain.RunResultWithPosition) int {
		return v.sorter.Compare(a.Result, b.Result)
	})
	assignPositions(items,
		func(e *racedomain.RunResultWithPosition) *time.Duration { return e.Result.RunTime() },
		func(e *racedomain.RunResultWithPosition, rk racedomain.Ranking) {
			if !e.Ranking.Equal(rk) {
				e.Ranking = rk
				v.changed[e.Result.ParticipantID()] = struct{}{}
			}
		})
}

// ChangeGrouping re-partitions and re-ranks every entry.
func (v *RaceRunResultViewProvider) ChangeGrouping(g racedomain.Grouping) {
	v.SetGroupSelector(g.Selector())
}

// SetGroupSelector re-partitions by a custom criterion.
func (v *RaceRunResultViewProvider) SetGroupSelector(sel racedomain.GroupSelector) {
	v.sorter.SetGroupSelector(sel)
	if v.run != nil {
		v.rebuild()
	}
}

// OnSourceChanged reconciles the entry of participantID and re-ranks its
// group.
func (v *RaceRunResultViewProvider) OnSourceChanged(kind ChangeKind, participantID string) {
	start := time.Now()
	defer func() {
		v.opts.Metrics.RecordViewRecompute(context.Background(), "run_results", time.Since(start))
	}()

	switch kind {
	case ChangeRegrouped:
		v.rebuild()
		return
	case ChangeRemoved:
		v.drop(participantID)
	case ChangeResult:
		v.refresh(participantID, true)
	default:
		v.refresh(participantID, false)
	}

	v.list.flush()
	ids := make([]string, 0, len(v.changed))
	for id := range v.changed {
		ids = append(ids, id)
	}
	clear(v.changed)
	if len(ids) == 0 {
		return
	}
	slices.Sort(ids)
	v.notify(ids, false)
	v.emit()
}

func (v *RaceRunResultViewProvider) drop(id string) {
	if v.list.remove(id) {
		v.highlight.cancel(id)
		v.changed[id] = struct{}{}
	}
}

func (v *RaceRunResultViewProvider) refresh(id string, resultChange bool) {
	live := v.run.Result(id)
	if live == nil {
		v.drop(id)
		return
	}

	e, ok := v.list.get(id)
	if !ok {
		e = &racedomain.RunResultWithPosition{Result: live.Clone()}
		v.list.put(e)
		v.changed[id] = struct{}{}
		return
	}

	fields, err := e.Result.UpdateRunResult(live)
	if err != nil {
		// The participant behind the id was replaced; start over.
		e = &racedomain.RunResultWithPosition{Result: live.Clone()}
		fields = racedomain.FieldAll
	}
	if fields != racedomain.FieldNone {
		v.changed[id] = struct{}{}
		if resultChange {
			e.JustModified = v.highlight.mark(id, v.clearHighlight)
		}
	}
	if !resultChange {
		// Roster updates may move the entry to another group.
		v.changed[id] = struct{}{}
	}
	v.list.put(e)

	v.opts.Logger.Debug("Run result view updated",
		slog.Int("run", v.run.Number()),
		slog.String("participant_id", id),
		slog.String("fields", fields.String()),
	)
}

func (v *RaceRunResultViewProvider) clearHighlight(id string) {
	if e, ok := v.list.get(id); ok && e.JustModified {
		e.JustModified = false
		v.emit()
	}
}

// entry returns the view's entry for id, nil if absent.
func (v *RaceRunResultViewProvider) entry(id string) *racedomain.RunResultWithPosition {
	e, _ := v.list.get(id)
	return e
}

func (v *RaceRunResultViewProvider) addListener(fn runChangeListener) {
	v.listeners = append(v.listeners, fn)
}

func (v *RaceRunResultViewProvider) notify(ids []string, full bool) {
	for _, fn := range v.listeners {
		fn(ids, full)
	}
}

// GetViewList returns a detached copy in display order.
func (v *RaceRunResultViewProvider) GetViewList() []racedomain.RunResultWithPosition {
	items := v.list.all()
	out := make([]racedomain.RunResultWithPosition, len(items))
	for i, e := range items {
		out[i] = e.Copy()
	}
	return out
}

func (v *RaceRunResultViewProvider) emit() {
	v.publish(v.GetViewList())
}

// Close detaches the view and stops pending highlight timers.
func (v *RaceRunResultViewProvider) Close() {
	v.highlight.stop()
	if v.run != nil {
		v.run.Race().Hub().Unsubscribe(v.subs...)
	}
	v.subs = nil
}
