package testutils

import (
	"fmt"
	"time"

	raceroster "github.com/Black-And-White-Club/slalom-timing/app/modules/race/infrastructure/roster"
	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
)

// TestDataGenerator provides methods to create rosters for tests
type TestDataGenerator struct {
	faker *gofakeit.Faker
	seed  int64
}

// NewTestDataGenerator creates a new test data generator with optional seed
func NewTestDataGenerator(seed ...int64) *TestDataGenerator {
	var s int64
	if len(seed) > 0 {
		s = seed[0]
	} else {
		s = time.Now().UnixNano()
	}

	faker := gofakeit.New(uint64(s))

	return &TestDataGenerator{
		faker: faker,
		seed:  s,
	}
}

// Seed returns the seed, for reproducing a failing test.
func (g *TestDataGenerator) Seed() int64 {
	return g.seed
}

// GenerateClasses creates one class per birth year, split by category.
func (g *TestDataGenerator) GenerateClasses(years ...uint) ([]raceroster.CategoryEntry, []raceroster.ClassEntry) {
	categories := []raceroster.CategoryEntry{
		{Code: "W", Name: "Damen", SortPos: 1},
		{Code: "M", Name: "Herren", SortPos: 2},
	}
	classes := make([]raceroster.ClassEntry, 0, len(years)*len(categories))
	pos := uint(1)
	for _, y := range years {
		for _, c := range categories {
			classes = append(classes, raceroster.ClassEntry{
				ID:       fmt.Sprintf("%s%d", c.Code, y),
				Name:     fmt.Sprintf("%s %d", c.Name, y),
				SortPos:  pos,
				Year:     y,
				Category: c.Code,
			})
			pos++
		}
	}
	return categories, classes
}

// GenerateParticipants creates count participants spread over classes with
// start numbers 1..count. Roughly half of them carry points.
func (g *TestDataGenerator) GenerateParticipants(count int, classes []raceroster.ClassEntry) []raceroster.ParticipantEntry {
	participants := make([]raceroster.ParticipantEntry, count)
	for i := 0; i < count; i++ {
		p := raceroster.ParticipantEntry{
			ID:          uuid.NewString(),
			Name:        g.faker.LastName(),
			Firstname:   g.faker.FirstName(),
			Club:        "SC " + g.faker.City(),
			Nation:      g.faker.CountryAbr(),
			StartNumber: uint(i + 1),
		}
		if len(classes) > 0 {
			c := classes[g.faker.Number(0, len(classes)-1)]
			p.Class = c.ID
			p.Year = c.Year
		}
		if g.faker.Bool() {
			points := g.faker.Float64Range(0, 300)
			p.Points = &points
		}
		participants[i] = p
	}
	return participants
}

// GenerateRoster creates a complete roster for the given birth years.
func (g *TestDataGenerator) GenerateRoster(count int, years ...uint) *raceroster.Roster {
	categories, classes := g.GenerateClasses(years...)
	return &raceroster.Roster{
		Categories:   categories,
		Classes:      classes,
		Participants: g.GenerateParticipants(count, classes),
	}
}
