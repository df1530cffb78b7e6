package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Black-And-White-Club/slalom-timing/app/modules/race"
	racedomain "github.com/Black-And-White-Club/slalom-timing/app/modules/race/domain"
	raceroster "github.com/Black-And-White-Club/slalom-timing/app/modules/race/infrastructure/roster"
	"github.com/Black-And-White-Club/slalom-timing/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const testRoster = `
participants:
  - {id: p1, name: Lehner, firstname: Anna, start_number: 1}
  - {id: p2, name: Huber, firstname: Lena, start_number: 2}
  - {id: p3, name: Moser, firstname: Eva, start_number: 3}
`

func newModule(t *testing.T) *race.Module {
	t.Helper()
	roster, err := raceroster.Decode(strings.NewReader(testRoster))
	require.NoError(t, err)
	cfg := config.Default()
	cfg.Race.Runs = 1
	m, err := race.NewRaceModule(context.Background(), &cfg, race.Dependencies{}, roster)
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })

	// The loop is not running; the test is the model context.
	run, err := m.Race.Run(1)
	require.NoError(t, err)
	t1, t2 := 61*time.Second, 60*time.Second
	require.NoError(t, run.SetRunTime(m.Race.ParticipantByID("p1"), &t1))
	require.NoError(t, run.SetRunTime(m.Race.ParticipantByID("p2"), &t2))
	require.NoError(t, run.SetResultCode(m.Race.ParticipantByID("p3"), racedomain.ResultCodeDisqualified, "Torfehler 4"))
	return m
}

func TestPrintLists(t *testing.T) {
	m := newModule(t)

	var buf bytes.Buffer
	printLists(&buf, m.Views, nil)
	out := buf.String()

	assert.Contains(t, out, "Run 1")
	lines := strings.Split(out, "\n")
	var rows []string
	for _, l := range lines {
		if strings.Contains(l, "Lehner") || strings.Contains(l, "Huber") || strings.Contains(l, "Moser") {
			rows = append(rows, strings.Join(strings.Fields(l), " "))
		}
	}
	require.Len(t, rows, 6)
	assert.Equal(t, "1. 2 Huber Lena 1:00.00", rows[0])
	assert.Equal(t, "2. 1 Lehner Anna 1:01.00 +1.00 (1.67%)", rows[1])
	assert.Equal(t, "3 Moser Eva DSQ Torfehler", rows[2])
}

func TestExportLists(t *testing.T) {
	m := newModule(t)
	path := filepath.Join(t.TempDir(), "race.xlsx")
	require.NoError(t, exportLists(path, m.Views, nil))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"Start list 1", "Run 1", "Results"}, f.GetSheetList())

	_, err = os.Stat(path)
	assert.NoError(t, err)
}
