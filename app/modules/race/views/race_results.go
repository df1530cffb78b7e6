package raceviews

import (
	"context"
	"slices"
	"time"

	raceservice "github.com/Black-And-White-Club/slalom-timing/app/modules/race/application"
	racedomain "github.com/Black-And-White-Club/slalom-timing/app/modules/race/domain"
)

// RaceResultViewProvider is the overall result list. It composes one
// RaceRunResultViewProvider per run that counts and combines their entries
// with a TotalTimePolicy.
type RaceResultViewProvider struct {
	observable[racedomain.RaceResultItem]

	opts      Options
	race      *raceservice.Race
	policy    racedomain.TotalTimePolicy
	sorter    *racedomain.TotalTimeSorter
	list      *grouped[*racedomain.RaceResultItem]
	highlight *highlighter

	runViews   map[int]*RaceRunResultViewProvider
	runs       []int
	ready      bool
	regrouping bool
}

// NewRaceResultViewProvider combines runs with policy, SumOfRuns if nil.
func NewRaceResultViewProvider(policy racedomain.TotalTimePolicy, opts Options) *RaceResultViewProvider {
	opts = opts.withDefaults()
	if policy == nil {
		policy = racedomain.SumOfRuns
	}
	v := &RaceResultViewProvider{
		opts:      opts,
		policy:    policy,
		sorter:    racedomain.NewTotalTimeSorter(),
		highlight: newHighlighter(opts.Scheduler, opts.HighlightDuration),
		runViews:  map[int]*RaceRunResultViewProvider{},
	}
	v.sorter.SetGrouping(opts.Grouping)
	v.list = newGrouped(func(i *racedomain.RaceResultItem) *racedomain.RaceParticipant { return i.Participant }, v.arrange)
	return v
}

// Init builds run views for the given run numbers, all runs of race when
// none are given.
func (v *RaceResultViewProvider) Init(race *raceservice.Race, runs ...int) error {
	v.race = race
	if len(runs) == 0 {
		for _, run := range race.Runs() {
			runs = append(runs, run.Number())
		}
	}
	for _, n := range runs {
		run, err := race.Run(n)
		if err != nil {
			v.Close()
			return err
		}
		// Run views share the scheduler but do not flag; highlighting is
		// decided on the combined item.
		rv := NewRaceRunResultViewProvider(Options{
			Grouping: v.opts.Grouping,
			Logger:   v.opts.Logger,
			Metrics:  v.opts.Metrics,
		})
		rv.SetGroupSelector(v.sorter.GroupSelector())
		rv.addListener(v.onRunChanged(n))
		rv.Init(run)
		v.runViews[n] = rv
		v.runs = append(v.runs, n)
	}
	v.ready = true
	v.rebuild()
	return nil
}

// RunView returns the ranked list of run n that feeds this view.
func (v *RaceResultViewProvider) RunView(n int) *RaceRunResultViewProvider {
	return v.runViews[n]
}

func (v *RaceResultViewProvider) onRunChanged(run int) runChangeListener {
	return func(ids []string, full bool) {
		if v.regrouping || !v.ready {
			return
		}
		if full {
			v.rebuild()
			return
		}
		for _, id := range ids {
			v.update(id, run)
		}
		v.list.flush()
		v.emit()
	}
}

// OnSourceChanged recomputes the item of participantID from all runs.
func (v *RaceResultViewProvider) OnSourceChanged(kind ChangeKind, participantID string) {
	if !v.ready {
		return
	}
	if kind == ChangeRegrouped {
		v.rebuild()
		return
	}
	v.update(participantID, 0)
	v.list.flush()
	v.emit()
}

// update refreshes one item. run is the run that changed, 0 for all.
func (v *RaceResultViewProvider) update(id string, run int) {
	start := time.Now()
	defer func() {
		v.opts.Metrics.RecordViewRecompute(context.Background(), "race_results", time.Since(start))
	}()

	rp := v.race.ParticipantByID(id)
	if rp == nil {
		if v.list.remove(id) {
			v.highlight.cancel(id)
		}
		return
	}

	item, ok := v.list.get(id)
	if !ok {
		item = racedomain.NewRaceResultItem(rp)
	}
	item.Participant = rp

	significant := false
	for _, n := range v.runs {
		if run != 0 && n != run {
			continue
		}
		if item.SetRunResult(n, v.runViews[n].entry(id)) {
			significant = true
		}
	}
	v.total(item)
	if significant && ok {
		item.JustModified = v.highlight.mark(id, v.clearHighlight)
	}
	v.list.put(item)
}

func (v *RaceResultViewProvider) total(item *racedomain.RaceResultItem) {
	item.TotalTime, item.ResultCode, item.DisqualText = v.policy(item.SubResults, v.runs)
}

func (v *RaceResultViewProvider) rebuild() {
	v.highlight.stop()
	var items []*racedomain.RaceResultItem
	for _, rp := range v.race.Participants() {
		item := racedomain.NewRaceResultItem(rp)
		for _, n := range v.runs {
			item.SetRunResult(n, v.runViews[n].entry(rp.ID()))
		}
		v.total(item)
		items = append(items, item)
	}
	v.list.reset(v.sorter.GroupSelector(), items)
	v.emit()
}

func (v *RaceResultViewProvider) arrange(items []*racedomain.RaceResultItem) {
	slices.SortFunc(items, v.sorter.Compare)
	assignPositions(items,
		func(i *racedomain.RaceResultItem) *time.Duration { return i.TotalTime },
		func(i *racedomain.RaceResultItem, rk racedomain.Ranking) { i.Ranking = rk })
}

// ChangeGrouping regroups this view and every run view with it.
func (v *RaceResultViewProvider) ChangeGrouping(g racedomain.Grouping) {
	v.SetGroupSelector(g.Selector())
}

func (v *RaceResultViewProvider) SetGroupSelector(sel racedomain.GroupSelector) {
	v.sorter.SetGroupSelector(sel)
	v.regrouping = true
	for _, n := range v.runs {
		v.runViews[n].SetGroupSelector(sel)
	}
	v.regrouping = false
	if v.ready {
		v.rebuild()
	}
}

func (v *RaceResultViewProvider) clearHighlight(id string) {
	if item, ok := v.list.get(id); ok && item.JustModified {
		item.JustModified = false
		v.emit()
	}
}

// GetViewList returns a detached copy in display order.
func (v *RaceResultViewProvider) GetViewList() []racedomain.RaceResultItem {
	items := v.list.all()
	out := make([]racedomain.RaceResultItem, len(items))
	for i, item := range items {
		out[i] = item.Copy()
	}
	return out
}

func (v *RaceResultViewProvider) emit() {
	v.publish(v.GetViewList())
}

// Close detaches the view and its run views.
func (v *RaceResultViewProvider) Close() {
	v.highlight.stop()
	for _, rv := range v.runViews {
		rv.Close()
	}
}
