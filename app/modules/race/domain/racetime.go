package racedomain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Resolution is the smallest unit a race time is reported in.
const Resolution = 10 * time.Millisecond

// MaxRaceTime bounds parsed times; both times of day and run times stay below
// it.
const MaxRaceTime = 24 * time.Hour

// FloorToHundredths truncates d down to the next lower 1/100 s.
func FloorToHundredths(d time.Duration) time.Duration {
	q := d / Resolution
	if d%Resolution < 0 {
		q--
	}
	return q * Resolution
}

// ParseRaceTime parses manually entered times. Accepted forms are
// "hh:mm:ss.ff", "mm:ss.ff" and "ss.ff"; the fraction is optional, may use a
// comma, and may carry any number of digits. Minutes and seconds must stay
// below 60 when a larger unit is given. Times of MaxRaceTime or more are
// rejected.
func ParseRaceTime(text string) (time.Duration, error) {
	s := strings.TrimSpace(text)
	if s == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidTimeText)
	}
	s = strings.Replace(s, ",", ".", 1)

	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return 0, fmt.Errorf("%w: %q has too many fields", ErrInvalidTimeText, text)
	}

	secPart := parts[len(parts)-1]
	whole, frac, hasFrac := strings.Cut(secPart, ".")
	if whole == "" && !hasFrac {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeText, text)
	}

	seconds, err := parseUnit(whole, len(parts) > 1, time.Second)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: seconds: %v", ErrInvalidTimeText, text, err)
	}
	d := time.Duration(seconds) * time.Second

	if hasFrac {
		if frac == "" || !allDigits(frac) {
			return 0, fmt.Errorf("%w: %q: bad fraction", ErrInvalidTimeText, text)
		}
		if len(frac) > 9 {
			frac = frac[:9]
		}
		n, _ := strconv.Atoi(frac)
		for i := len(frac); i < 9; i++ {
			n *= 10
		}
		d += time.Duration(n)
	}

	if len(parts) >= 2 {
		minutes, err := parseUnit(parts[len(parts)-2], len(parts) > 2, time.Minute)
		if err != nil {
			return 0, fmt.Errorf("%w: %q: minutes: %v", ErrInvalidTimeText, text, err)
		}
		d += time.Duration(minutes) * time.Minute
	}
	if len(parts) == 3 {
		hours, err := parseUnit(parts[0], false, time.Hour)
		if err != nil {
			return 0, fmt.Errorf("%w: %q: hours: %v", ErrInvalidTimeText, text, err)
		}
		d += time.Duration(hours) * time.Hour
	}
	if d >= MaxRaceTime {
		return 0, fmt.Errorf("%w: %q exceeds %s", ErrInvalidTimeText, text, MaxRaceTime)
	}
	return d, nil
}

// parseUnit parses one field counting unit. Values that alone reach
// MaxRaceTime are rejected before they can overflow.
func parseUnit(s string, bounded bool, unit time.Duration) (int, error) {
	if s == "" {
		return 0, nil
	}
	if !allDigits(s) {
		return 0, fmt.Errorf("not a number: %q", s)
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if bounded && n >= 60 {
		return 0, fmt.Errorf("%d out of range", n)
	}
	if int64(n) >= int64(MaxRaceTime/unit) {
		return 0, fmt.Errorf("%d out of range", n)
	}
	return n, nil
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// FormatRaceTime renders d with 1/100 s precision, omitting leading zero units:
// "12.34", "1:02.34", "1:01:02.34".
func FormatRaceTime(d time.Duration) string {
	sign := ""
	if d < 0 {
		sign = "-"
		d = -d
	}
	d = FloorToHundredths(d)
	h := d / time.Hour
	m := (d % time.Hour) / time.Minute
	s := (d % time.Minute) / time.Second
	f := (d % time.Second) / Resolution
	switch {
	case h > 0:
		return fmt.Sprintf("%s%d:%02d:%02d.%02d", sign, h, m, s, f)
	case m > 0:
		return fmt.Sprintf("%s%d:%02d.%02d", sign, m, s, f)
	default:
		return fmt.Sprintf("%s%d.%02d", sign, s, f)
	}
}

// FormatOptionalRaceTime returns "" for nil.
func FormatOptionalRaceTime(d *time.Duration) string {
	if d == nil {
		return ""
	}
	return FormatRaceTime(*d)
}

func durationPtr(d time.Duration) *time.Duration {
	return &d
}

func copyDuration(d *time.Duration) *time.Duration {
	if d == nil {
		return nil
	}
	return durationPtr(*d)
}

func equalDuration(a, b *time.Duration) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
