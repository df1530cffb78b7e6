package racedomain

import (
	"cmp"
	"math"
	"strings"
)

// UnsortedPosition is the sort position of anything that was never placed.
const UnsortedPosition = math.MaxUint32

// Category groups participants, typically by sex ("M", "W").
type Category struct {
	Code       string
	PrettyName string
	SortPos    uint
}

// Group is a set of classes ranked together.
type Group struct {
	ID      string
	Name    string
	SortPos uint
}

// Class is an age or skill class, optionally belonging to a Group.
type Class struct {
	ID       string
	Name     string
	SortPos  uint
	Year     uint
	Group    *Group
	Category *Category
}

// Team is informational only.
type Team struct {
	ID   string
	Name string
}

// Participant is a person that can be entered into races.
type Participant struct {
	ID        string
	Name      string
	Firstname string
	Year      uint
	Club      string
	Nation    string
	Code      string
	SvID      string
	Category  *Category
	Class     *Class
	Team      *Team
}

// Fullname is "Name Firstname", the way start lists print it.
func (p *Participant) Fullname() string {
	return strings.TrimSpace(p.Name + " " + p.Firstname)
}

// Group returns the group of the participant's class, if any.
func (p *Participant) Group() *Group {
	if p.Class == nil {
		return nil
	}
	return p.Class.Group
}

// RaceParticipant binds a Participant to one race.
type RaceParticipant struct {
	Participant *Participant
	StartNumber uint
	Points      float64
}

// ID is the identity used everywhere a participant is referenced.
func (rp *RaceParticipant) ID() string {
	return rp.Participant.ID
}

// NoPoints marks a participant without pre-race points.
const NoPoints = -1.0

// HasPoints reports whether participant points are known.
func (rp *RaceParticipant) HasPoints() bool {
	return rp.Points >= 0
}

// compareNamed orders by sort position, then name, then id.
func compareNamed(posA uint, nameA, idA string, posB uint, nameB, idB string) int {
	return cmp.Or(
		cmp.Compare(posA, posB),
		cmp.Compare(nameA, nameB),
		cmp.Compare(idA, idB),
	)
}
