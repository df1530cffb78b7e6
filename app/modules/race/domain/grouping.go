package racedomain

import (
	"fmt"
	"strings"
)

// Grouping selects how lists are partitioned before ranking.
type Grouping int

const (
	GroupingNone Grouping = iota
	GroupingClass
	GroupingGroup
	GroupingCategory
)

func (g Grouping) String() string {
	switch g {
	case GroupingClass:
		return "Class"
	case GroupingGroup:
		return "Group"
	case GroupingCategory:
		return "Category"
	default:
		return "None"
	}
}

// ParseGrouping accepts the String forms and the legacy "Participant.*"
// identifiers.
func ParseGrouping(s string) (Grouping, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return GroupingNone, nil
	case "class", "participant.class":
		return GroupingClass, nil
	case "group", "participant.group":
		return GroupingGroup, nil
	case "category", "sex", "participant.sex", "participant.category":
		return GroupingCategory, nil
	}
	return GroupingNone, fmt.Errorf("%w: %q", ErrUnknownGrouping, s)
}

// GroupKey identifies the partition a participant falls into.
type GroupKey struct {
	ID      string
	Name    string
	SortPos uint
}

// NoGroup is the key of participants lacking the grouped attribute; it sorts
// after every real group.
var NoGroup = GroupKey{SortPos: UnsortedPosition}

// CompareGroupKeys orders groups by sort position, then name.
func CompareGroupKeys(a, b GroupKey) int {
	return compareNamed(a.SortPos, a.Name, a.ID, b.SortPos, b.Name, b.ID)
}

// GroupSelector maps a participant to its group key. A nil selector means the
// whole list is one group.
type GroupSelector func(*RaceParticipant) GroupKey

// Selector returns the selector for g, nil for GroupingNone.
func (g Grouping) Selector() GroupSelector {
	switch g {
	case GroupingClass:
		return classKey
	case GroupingGroup:
		return groupKey
	case GroupingCategory:
		return categoryKey
	default:
		return nil
	}
}

// ByAttribute groups by any string attribute; groups sort by value.
func ByAttribute(attr func(*Participant) string) GroupSelector {
	return func(rp *RaceParticipant) GroupKey {
		v := attr(rp.Participant)
		if v == "" {
			return NoGroup
		}
		return GroupKey{ID: v, Name: v}
	}
}

func classKey(rp *RaceParticipant) GroupKey {
	c := rp.Participant.Class
	if c == nil {
		return NoGroup
	}
	return GroupKey{ID: c.ID, Name: c.Name, SortPos: c.SortPos}
}

func groupKey(rp *RaceParticipant) GroupKey {
	g := rp.Participant.Group()
	if g == nil {
		return NoGroup
	}
	return GroupKey{ID: g.ID, Name: g.Name, SortPos: g.SortPos}
}

func categoryKey(rp *RaceParticipant) GroupKey {
	c := rp.Participant.Category
	if c == nil {
		return NoGroup
	}
	return GroupKey{ID: c.Code, Name: c.Code, SortPos: c.SortPos}
}

// KeyOf applies sel, treating nil as "no grouping".
func KeyOf(sel GroupSelector, rp *RaceParticipant) GroupKey {
	if sel == nil {
		return GroupKey{}
	}
	return sel(rp)
}
