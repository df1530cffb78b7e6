package raceviews

import (
	"slices"

	racedomain "github.com/Black-And-White-Club/slalom-timing/app/modules/race/domain"
)

// grouped is a list partitioned by group key. Groups are kept in group order
// and only groups touched since the last flush are rearranged.
type grouped[T any] struct {
	selector    racedomain.GroupSelector
	participant func(T) *racedomain.RaceParticipant
	arrange     func([]T)

	parts []*partition[T]
	keys  map[string]racedomain.GroupKey
	dirty map[racedomain.GroupKey]struct{}
}

type partition[T any] struct {
	key   racedomain.GroupKey
	items []T
}

func newGrouped[T any](participant func(T) *racedomain.RaceParticipant, arrange func([]T)) *grouped[T] {
	return &grouped[T]{
		participant: participant,
		arrange:     arrange,
		keys:        map[string]racedomain.GroupKey{},
		dirty:       map[racedomain.GroupKey]struct{}{},
	}
}

func (g *grouped[T]) id(item T) string { return g.participant(item).ID() }

func (g *grouped[T]) find(key racedomain.GroupKey) (int, bool) {
	return slices.BinarySearchFunc(g.parts, key, func(p *partition[T], k racedomain.GroupKey) int {
		return racedomain.CompareGroupKeys(p.key, k)
	})
}

func (g *grouped[T]) get(id string) (T, bool) {
	var zero T
	key, ok := g.keys[id]
	if !ok {
		return zero, false
	}
	i, _ := g.find(key)
	for _, item := range g.parts[i].items {
		if g.id(item) == id {
			return item, true
		}
	}
	return zero, false
}

// put inserts item or, if an item with the same id exists, replaces it and
// moves it when its group changed.
func (g *grouped[T]) put(item T) {
	id := g.id(item)
	key := racedomain.KeyOf(g.selector, g.participant(item))
	if old, ok := g.keys[id]; ok {
		if old == key {
			p := g.parts[g.mustFind(old)]
			for i := range p.items {
				if g.id(p.items[i]) == id {
					p.items[i] = item
				}
			}
			g.dirty[key] = struct{}{}
			return
		}
		g.remove(id)
	}

	i, ok := g.find(key)
	if !ok {
		g.parts = slices.Insert(g.parts, i, &partition[T]{key: key})
	}
	g.parts[i].items = append(g.parts[i].items, item)
	g.keys[id] = key
	g.dirty[key] = struct{}{}
}

func (g *grouped[T]) remove(id string) bool {
	key, ok := g.keys[id]
	if !ok {
		return false
	}
	delete(g.keys, id)
	i := g.mustFind(key)
	p := g.parts[i]
	p.items = slices.DeleteFunc(p.items, func(item T) bool { return g.id(item) == id })
	if len(p.items) == 0 {
		g.parts = slices.Delete(g.parts, i, i+1)
		delete(g.dirty, key)
		return true
	}
	g.dirty[key] = struct{}{}
	return true
}

func (g *grouped[T]) mustFind(key racedomain.GroupKey) int {
	i, ok := g.find(key)
	if !ok {
		panic("raceviews: group index out of sync")
	}
	return i
}

// reset replaces the whole content, for grouping changes and rebuilds.
func (g *grouped[T]) reset(selector racedomain.GroupSelector, items []T) {
	g.selector = selector
	g.parts = nil
	clear(g.keys)
	clear(g.dirty)
	for _, item := range items {
		g.put(item)
	}
	g.flush()
}

// flush rearranges the touched groups and returns their keys.
func (g *grouped[T]) flush() []racedomain.GroupKey {
	touched := make([]racedomain.GroupKey, 0, len(g.dirty))
	for key := range g.dirty {
		if i, ok := g.find(key); ok {
			g.arrange(g.parts[i].items)
		}
		touched = append(touched, key)
	}
	clear(g.dirty)
	return touched
}

func (g *grouped[T]) len() int { return len(g.keys) }

// all returns the items in display order.
func (g *grouped[T]) all() []T {
	out := make([]T, 0, len(g.keys))
	for _, p := range g.parts {
		out = append(out, p.items...)
	}
	return out
}
