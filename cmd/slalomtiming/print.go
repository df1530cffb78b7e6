package main

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/Black-And-White-Club/slalom-timing/app/modules/race"
	racedomain "github.com/Black-And-White-Club/slalom-timing/app/modules/race/domain"
)

// printLists writes every run result and the race result as aligned text.
func printLists(w io.Writer, views *race.Views, sel racedomain.GroupSelector) {
	for i, rv := range views.RunResults {
		fmt.Fprintf(w, "Run %d\n", i+1)
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "Pos\tStNr\tName\tTime\tDiff\t")
		var last racedomain.GroupKey
		for j, e := range rv.GetViewList() {
			rp := e.Result.Participant()
			last = groupLine(tw, sel, rp, last, j == 0)
			fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t\n",
				positionText(e.Position), rp.StartNumber, rp.Participant.Fullname(),
				resultText(e.Result.ResultCode(), e.Result.RunTime(), e.Result.DisqualifyReason()),
				diffText(e.Ranking))
		}
		tw.Flush()
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "Results")
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "Pos\tStNr\tName\tTotal\tDiff\t")
	var last racedomain.GroupKey
	for j, it := range views.Results.GetViewList() {
		last = groupLine(tw, sel, it.Participant, last, j == 0)
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t\n",
			positionText(it.Position), it.Participant.StartNumber, it.Participant.Participant.Fullname(),
			resultText(it.ResultCode, it.TotalTime, it.DisqualText), diffText(it.Ranking))
	}
	tw.Flush()
}

func groupLine(w io.Writer, sel racedomain.GroupSelector, rp *racedomain.RaceParticipant, last racedomain.GroupKey, first bool) racedomain.GroupKey {
	if sel == nil {
		return last
	}
	key := sel(rp)
	if first || key != last {
		name := key.Name
		if key == racedomain.NoGroup {
			name = "-"
		}
		fmt.Fprintf(w, "[%s]\t\t\t\t\t\n", name)
	}
	return key
}

func positionText(p uint) string {
	if p == 0 {
		return ""
	}
	return strconv.FormatUint(uint64(p), 10) + "."
}

func resultText(code racedomain.ResultCode, t *time.Duration, reason string) string {
	switch code {
	case racedomain.ResultCodeNormal, racedomain.ResultCodeNotSet:
		return racedomain.FormatOptionalRaceTime(t)
	case racedomain.ResultCodeDisqualified, racedomain.ResultCodeNotQualified:
		if reason != "" {
			return code.String() + " " + reason
		}
	}
	return code.String()
}

func diffText(rk racedomain.Ranking) string {
	if rk.Position == 0 || rk.DiffToFirst == nil || *rk.DiffToFirst == 0 {
		return ""
	}
	return fmt.Sprintf("+%s (%.2f%%)", racedomain.FormatRaceTime(*rk.DiffToFirst), rk.DiffToFirstPercentage)
}
