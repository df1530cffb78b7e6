// Package raceexport writes start lists and result lists to xlsx workbooks.
package raceexport

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	racedomain "github.com/Black-And-White-Club/slalom-timing/app/modules/race/domain"
	"github.com/xuri/excelize/v2"
)

// Workbook collects sheets; each Add call creates one sheet.
type Workbook struct {
	file    *excelize.File
	styles  styles
	sheets  int
	trimmed bool
}

type styles struct {
	header   int
	group    int
	cell     int
	modified int
}

func NewWorkbook() (*Workbook, error) {
	f := excelize.NewFile()
	s, err := newStyles(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &Workbook{file: f, styles: s}, nil
}

func newStyles(f *excelize.File) (styles, error) {
	var s styles
	var err error
	if s.header, err = f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"1c399e"}},
		Alignment: &excelize.Alignment{Horizontal: "center"},
		Font:      &excelize.Font{Size: 12, Color: "ffffff", Bold: true},
	}); err != nil {
		return s, fmt.Errorf("header style: %w", err)
	}
	if s.group, err = f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"d9d9d9"}},
		Font: &excelize.Font{Bold: true, Italic: true},
	}); err != nil {
		return s, fmt.Errorf("group style: %w", err)
	}
	if s.cell, err = f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "left"},
	}); err != nil {
		return s, fmt.Errorf("cell style: %w", err)
	}
	if s.modified, err = f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"3cb03a"}},
	}); err != nil {
		return s, fmt.Errorf("modified style: %w", err)
	}
	return s, nil
}

// sheet writes rows top to bottom.
type sheet struct {
	wb   *Workbook
	name string
	row  int
	cols int
}

func (w *Workbook) newSheet(name string, header []string) (*sheet, error) {
	if _, err := w.file.NewSheet(name); err != nil {
		return nil, fmt.Errorf("create sheet %q: %w", name, err)
	}
	w.sheets++
	s := &sheet{wb: w, name: name, cols: len(header)}
	row := make([]any, len(header))
	for i, h := range header {
		row[i] = h
	}
	return s, s.write(row, w.styles.header)
}

func (s *sheet) write(values []any, style int) error {
	s.row++
	start, err := excelize.CoordinatesToCellName(1, s.row)
	if err != nil {
		return err
	}
	if err := s.wb.file.SetSheetRow(s.name, start, &values); err != nil {
		return fmt.Errorf("write row %d of %q: %w", s.row, s.name, err)
	}
	end, err := excelize.CoordinatesToCellName(s.cols, s.row)
	if err != nil {
		return err
	}
	return s.wb.file.SetCellStyle(s.name, start, end, style)
}

// heading starts a new group block when the key of rp differs from the last.
func (s *sheet) heading(sel racedomain.GroupSelector, rp *racedomain.RaceParticipant, last *racedomain.GroupKey, first bool) error {
	if sel == nil {
		return nil
	}
	key := sel(rp)
	if !first && key == *last {
		return nil
	}
	*last = key
	name := key.Name
	if key == racedomain.NoGroup {
		name = "-"
	}
	return s.write([]any{name}, s.wb.styles.group)
}

func (w *Workbook) rowStyle(modified bool) int {
	if modified {
		return w.styles.modified
	}
	return w.styles.cell
}

var participantHeader = []string{"StNr", "Name", "Year", "Club", "Class"}

func participantCells(rp *racedomain.RaceParticipant) []any {
	p := rp.Participant
	class := ""
	if p.Class != nil {
		class = p.Class.Name
	}
	return []any{rp.StartNumber, p.Fullname(), p.Year, p.Club, class}
}

// AddStartList writes a start list. sel adds a heading row per group and must
// be the selector the list was built with.
func (w *Workbook) AddStartList(name string, entries []racedomain.StartListEntry, sel racedomain.GroupSelector) error {
	header := append(append([]string{}, participantHeader...), "Previous", "Started")
	s, err := w.newSheet(name, header)
	if err != nil {
		return err
	}
	var last racedomain.GroupKey
	for i, e := range entries {
		if err := s.heading(sel, e.Participant, &last, i == 0); err != nil {
			return err
		}
		previous := ""
		if e.PreviousRun != nil {
			previous = resultText(e.PreviousRun.ResultCode(), e.PreviousRun.RunTime())
		}
		row := append(participantCells(e.Participant), previous, yesNo(e.Started))
		if err := s.write(row, w.styles.cell); err != nil {
			return err
		}
	}
	return nil
}

// AddRunResults writes one run's ranked list.
func (w *Workbook) AddRunResults(name string, entries []racedomain.RunResultWithPosition, sel racedomain.GroupSelector) error {
	header := append(append([]string{"Pos"}, participantHeader...), "Time", "Diff", "Diff %")
	s, err := w.newSheet(name, header)
	if err != nil {
		return err
	}
	var last racedomain.GroupKey
	for i, e := range entries {
		rp := e.Result.Participant()
		if err := s.heading(sel, rp, &last, i == 0); err != nil {
			return err
		}
		row := append([]any{position(e.Position)}, participantCells(rp)...)
		row = append(row, resultText(e.Result.ResultCode(), e.Result.RunTime()))
		row = append(row, diffCells(e.Ranking)...)
		if err := s.write(row, w.rowStyle(e.JustModified)); err != nil {
			return err
		}
	}
	return nil
}

// AddRaceResults writes the overall result with one column per run.
func (w *Workbook) AddRaceResults(name string, items []racedomain.RaceResultItem, sel racedomain.GroupSelector) error {
	runs := runNumbers(items)
	header := append([]string{"Pos"}, participantHeader...)
	for _, r := range runs {
		header = append(header, "Run "+strconv.Itoa(r))
	}
	header = append(header, "Total", "Diff", "Diff %")
	s, err := w.newSheet(name, header)
	if err != nil {
		return err
	}
	var last racedomain.GroupKey
	for i, it := range items {
		if err := s.heading(sel, it.Participant, &last, i == 0); err != nil {
			return err
		}
		row := append([]any{position(it.Position)}, participantCells(it.Participant)...)
		for _, r := range runs {
			sub, ok := it.SubResults[r]
			if !ok {
				row = append(row, "")
				continue
			}
			row = append(row, resultText(sub.ResultCode, sub.RunTime))
		}
		row = append(row, resultText(it.ResultCode, it.TotalTime))
		row = append(row, diffCells(it.Ranking)...)
		if err := s.write(row, w.rowStyle(it.JustModified)); err != nil {
			return err
		}
	}
	return nil
}

// WriteTo writes the workbook as xlsx.
func (w *Workbook) WriteTo(out io.Writer) (int64, error) {
	if err := w.trim(); err != nil {
		return 0, err
	}
	return w.file.WriteTo(out)
}

// SaveAs writes the workbook to path.
func (w *Workbook) SaveAs(path string) error {
	if err := w.trim(); err != nil {
		return err
	}
	return w.file.SaveAs(path)
}

// trim drops the default sheet once real sheets exist.
func (w *Workbook) trim() error {
	if w.trimmed || w.sheets == 0 {
		return nil
	}
	w.trimmed = true
	return w.file.DeleteSheet("Sheet1")
}

func (w *Workbook) Close() error {
	return w.file.Close()
}

func runNumbers(items []racedomain.RaceResultItem) []int {
	seen := map[int]bool{}
	var runs []int
	for _, it := range items {
		for r := range it.SubResults {
			if !seen[r] {
				seen[r] = true
				runs = append(runs, r)
			}
		}
	}
	sort.Ints(runs)
	return runs
}

func position(p uint) any {
	if p == 0 {
		return ""
	}
	return p
}

// resultText prints the time of a normal result and the code otherwise.
func resultText(code racedomain.ResultCode, t *time.Duration) string {
	switch code {
	case racedomain.ResultCodeNormal, racedomain.ResultCodeNotSet:
		return racedomain.FormatOptionalRaceTime(t)
	default:
		return code.String()
	}
}

func diffCells(rk racedomain.Ranking) []any {
	if rk.Position == 0 || rk.DiffToFirst == nil {
		return []any{"", ""}
	}
	if *rk.DiffToFirst == 0 {
		return []any{"", ""}
	}
	return []any{
		"+" + racedomain.FormatRaceTime(*rk.DiffToFirst),
		strconv.FormatFloat(rk.DiffToFirstPercentage, 'f', 2, 64),
	}
}

func yesNo(b bool) string {
	if b {
		return "x"
	}
	return ""
}
