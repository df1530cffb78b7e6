// Package raceroster loads race participants from a YAML roster file.
package raceroster

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	raceservice "github.com/Black-And-White-Club/slalom-timing/app/modules/race/application"
	racedomain "github.com/Black-And-White-Club/slalom-timing/app/modules/race/domain"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

var (
	ErrUnknownClass    = errors.New("unknown class")
	ErrUnknownGroup    = errors.New("unknown group")
	ErrUnknownCategory = errors.New("unknown category")
	ErrDuplicateID     = errors.New("duplicate id")
)

// Roster is the file layout. Classes reference groups and categories by id,
// participants reference classes and categories the same way.
type Roster struct {
	Categories   []CategoryEntry    `yaml:"categories"`
	Groups       []GroupEntry       `yaml:"groups"`
	Classes      []ClassEntry       `yaml:"classes"`
	Participants []ParticipantEntry `yaml:"participants"`
}

type CategoryEntry struct {
	Code    string `yaml:"code"`
	Name    string `yaml:"name"`
	SortPos uint   `yaml:"sort_pos,omitempty"`
}

type GroupEntry struct {
	ID      string `yaml:"id"`
	Name    string `yaml:"name"`
	SortPos uint   `yaml:"sort_pos,omitempty"`
}

type ClassEntry struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	SortPos  uint   `yaml:"sort_pos,omitempty"`
	Year     uint   `yaml:"year,omitempty"`
	Group    string `yaml:"group,omitempty"`
	Category string `yaml:"category,omitempty"`
}

type ParticipantEntry struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name"`
	Firstname   string   `yaml:"firstname,omitempty"`
	Year        uint     `yaml:"year,omitempty"`
	Club        string   `yaml:"club,omitempty"`
	Nation      string   `yaml:"nation,omitempty"`
	Code        string   `yaml:"code,omitempty"`
	SvID        string   `yaml:"sv_id,omitempty"`
	Category    string   `yaml:"category,omitempty"`
	Class       string   `yaml:"class,omitempty"`
	Team        string   `yaml:"team,omitempty"`
	StartNumber uint     `yaml:"start_number"`
	Points      *float64 `yaml:"points,omitempty"`
}

// Load reads a roster file.
func Load(path string) (*Roster, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read roster: %w", err)
	}
	return Decode(bytes.NewReader(data))
}

// Decode parses a roster, rejecting unknown keys.
func Decode(r io.Reader) (*Roster, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var roster Roster
	if err := dec.Decode(&roster); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode roster: %w", err)
	}
	return &roster, nil
}

// Encode writes the roster as YAML.
func (r *Roster) Encode(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return err
	}
	return enc.Close()
}

// Resolve resolves the references and returns the race participants.
// Entries without an id get a random one.
func (r *Roster) Resolve() ([]*racedomain.RaceParticipant, error) {
	categories := make(map[string]*racedomain.Category, len(r.Categories))
	for _, c := range r.Categories {
		if _, ok := categories[c.Code]; ok {
			return nil, fmt.Errorf("%w: category %q", ErrDuplicateID, c.Code)
		}
		categories[c.Code] = &racedomain.Category{Code: c.Code, PrettyName: c.Name, SortPos: c.SortPos}
	}

	groups := make(map[string]*racedomain.Group, len(r.Groups))
	for _, g := range r.Groups {
		if _, ok := groups[g.ID]; ok {
			return nil, fmt.Errorf("%w: group %q", ErrDuplicateID, g.ID)
		}
		groups[g.ID] = &racedomain.Group{ID: g.ID, Name: g.Name, SortPos: g.SortPos}
	}

	classes := make(map[string]*racedomain.Class, len(r.Classes))
	for _, c := range r.Classes {
		if _, ok := classes[c.ID]; ok {
			return nil, fmt.Errorf("%w: class %q", ErrDuplicateID, c.ID)
		}
		class := &racedomain.Class{ID: c.ID, Name: c.Name, SortPos: c.SortPos, Year: c.Year}
		if c.Group != "" {
			if class.Group = groups[c.Group]; class.Group == nil {
				return nil, fmt.Errorf("%w %q in class %q", ErrUnknownGroup, c.Group, c.ID)
			}
		}
		if c.Category != "" {
			if class.Category = categories[c.Category]; class.Category == nil {
				return nil, fmt.Errorf("%w %q in class %q", ErrUnknownCategory, c.Category, c.ID)
			}
		}
		classes[c.ID] = class
	}

	teams := map[string]*racedomain.Team{}
	seen := make(map[string]bool, len(r.Participants))
	out := make([]*racedomain.RaceParticipant, 0, len(r.Participants))
	for _, e := range r.Participants {
		p := &racedomain.Participant{
			ID:        e.ID,
			Name:      e.Name,
			Firstname: e.Firstname,
			Year:      e.Year,
			Club:      e.Club,
			Nation:    e.Nation,
			Code:      e.Code,
			SvID:      e.SvID,
		}
		if p.ID == "" {
			p.ID = uuid.NewString()
		}
		if seen[p.ID] {
			return nil, fmt.Errorf("%w: participant %q", ErrDuplicateID, p.ID)
		}
		seen[p.ID] = true

		if e.Class != "" {
			if p.Class = classes[e.Class]; p.Class == nil {
				return nil, fmt.Errorf("%w %q for participant %q", ErrUnknownClass, e.Class, p.ID)
			}
		}
		switch {
		case e.Category != "":
			if p.Category = categories[e.Category]; p.Category == nil {
				return nil, fmt.Errorf("%w %q for participant %q", ErrUnknownCategory, e.Category, p.ID)
			}
		case p.Class != nil:
			p.Category = p.Class.Category
		}
		if e.Team != "" {
			if teams[e.Team] == nil {
				teams[e.Team] = &racedomain.Team{ID: e.Team, Name: e.Team}
			}
			p.Team = teams[e.Team]
		}

		points := racedomain.NoPoints
		if e.Points != nil {
			points = *e.Points
		}
		out = append(out, &racedomain.RaceParticipant{Participant: p, StartNumber: e.StartNumber, Points: points})
	}
	return out, nil
}

// Apply resolves the roster and adds every participant to race. Must run in
// the model context.
func (r *Roster) Apply(race *raceservice.Race) error {
	participants, err := r.Resolve()
	if err != nil {
		return err
	}
	for _, rp := range participants {
		if _, err := race.AddParticipant(rp.Participant, rp.StartNumber, rp.Points); err != nil {
			return fmt.Errorf("add %q: %w", rp.ID(), err)
		}
	}
	return nil
}
