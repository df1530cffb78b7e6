package racedomain

import (
	"fmt"
	"strings"
)

// ResultCode is the status of a run result.
type ResultCode int

const (
	ResultCodeNotSet ResultCode = iota - 1
	ResultCodeNormal
	ResultCodeNotStarted
	ResultCodeNotFinished
	ResultCodeDisqualified
	ResultCodeNotQualified
)

var resultCodeNames = map[ResultCode]string{
	ResultCodeNotSet:       "NotSet",
	ResultCodeNormal:       "Normal",
	ResultCodeNotStarted:   "DNS",
	ResultCodeNotFinished:  "DNF",
	ResultCodeDisqualified: "DSQ",
	ResultCodeNotQualified: "NQ",
}

func (c ResultCode) String() string {
	if name, ok := resultCodeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("ResultCode(%d)", int(c))
}

// IsValid reports whether c is one of the known codes.
func (c ResultCode) IsValid() bool {
	_, ok := resultCodeNames[c]
	return ok
}

// ParseResultCode accepts the String form of a code, case-insensitive, plus the
// usual German abbreviations found in exported start lists.
func ParseResultCode(s string) (ResultCode, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "NOTSET":
		return ResultCodeNotSet, nil
	case "NORMAL", "OK":
		return ResultCodeNormal, nil
	case "DNS", "NAS":
		return ResultCodeNotStarted, nil
	case "DNF", "NIZ":
		return ResultCodeNotFinished, nil
	case "DSQ", "DIS":
		return ResultCodeDisqualified, nil
	case "NQ", "NQA":
		return ResultCodeNotQualified, nil
	}
	return ResultCodeNotSet, fmt.Errorf("%w: %q", ErrUnknownResultCode, s)
}

// MarshalText implements encoding.TextMarshaler.
func (c ResultCode) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *ResultCode) UnmarshalText(b []byte) error {
	parsed, err := ParseResultCode(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
