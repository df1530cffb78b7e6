package raceviews

import (
	"time"

	racedomain "github.com/Black-And-White-Club/slalom-timing/app/modules/race/domain"
)

// assignPositions ranks a sorted group. Equal times share a position and the
// next distinct time skips accordingly; entries without time get position 0.
func assignPositions[T any](items []T, timeOf func(T) *time.Duration, set func(T, racedomain.Ranking)) {
	var leader, prev *time.Duration
	var pos uint
	for i, item := range items {
		t := timeOf(item)
		if t == nil {
			set(item, racedomain.Ranking{})
			continue
		}
		if leader == nil {
			leader = t
		}
		if prev == nil || *t != *prev {
			pos = uint(i + 1)
		}
		prev = t
		set(item, racedomain.RankAgainst(pos, t, leader))
	}
}
