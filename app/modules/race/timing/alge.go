package timing

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	racedomain "github.com/Black-And-White-Club/slalom-timing/app/modules/race/domain"
)

// FrameKind distinguishes impulses from informational frames.
type FrameKind int

const (
	FrameImpulse FrameKind = iota
	FrameAnnouncement
)

// Frame is a parsed device line.
type Frame struct {
	Kind        FrameKind
	StartNumber uint
	Channel     Channel
	Manual      bool
	Cleared     bool
	Time        *time.Duration
	Raw         string
}

// FrameParser turns device lines into frames and encodes device commands.
type FrameParser interface {
	Parse(line string) (Frame, error)
	// EncodeArm returns the command announcing the next starter on ch, false
	// if the device has no such command.
	EncodeArm(ch Channel, startNumber uint) (string, bool)
}

// AlgeTdC8001 parses the line protocol of ALGE TdC 8000/8001 timers:
//
//	 0035 C0M 21:46:36.3900 00
//	 0035 RTM 00:01:00.00   00
//	n0036
//
// Column 0 is a flag, 1-4 the start number (0000 if unknown), 6-8 the
// channel with an optional M for manual impulses, followed by the time.
type AlgeTdC8001 struct{}

const algeMinImpulseLen = 11

func (AlgeTdC8001) Parse(line string) (Frame, error) {
	raw := strings.TrimRight(line, "\r\n")
	f := Frame{Raw: raw}
	if strings.TrimSpace(raw) == "" {
		return f, ErrMalformedFrame
	}

	flag := raw[0]
	if flag == 'n' {
		sn, err := parseStartNumber(raw[1:])
		if err != nil {
			return f, err
		}
		f.Kind = FrameAnnouncement
		f.StartNumber = sn
		return f, nil
	}

	if len(raw) < algeMinImpulseLen {
		return f, fmt.Errorf("%w: too short", ErrMalformedFrame)
	}

	switch flag {
	case ' ':
	case 'c':
		f.Cleared = true
	case '?':
		return f, ErrInvalidImpulse
	default:
		return f, fmt.Errorf("%w: flag %q", ErrUnrecognizedFrame, flag)
	}

	sn, err := parseStartNumber(raw[1:5])
	if err != nil {
		return f, err
	}
	f.StartNumber = sn

	switch raw[6:8] {
	case "C0":
		f.Channel = ChannelStart
	case "C1":
		f.Channel = ChannelFinish
	case "RT":
		f.Channel = ChannelRunTime
	default:
		return f, fmt.Errorf("%w: channel %q", ErrUnrecognizedFrame, raw[6:8])
	}
	f.Manual = raw[8] == 'M'

	timeText := strings.Fields(raw[9:])
	if f.Cleared && len(timeText) == 0 {
		return f, nil
	}
	if len(timeText) == 0 {
		return f, fmt.Errorf("%w: missing time", ErrMalformedFrame)
	}
	t, err := racedomain.ParseRaceTime(timeText[0])
	if err != nil {
		return f, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	if !f.Cleared {
		f.Time = &t
	}
	return f, nil
}

func (AlgeTdC8001) EncodeArm(ch Channel, startNumber uint) (string, bool) {
	if ch != ChannelStart {
		return "", false
	}
	return fmt.Sprintf("n%04d", startNumber), true
}

func parseStartNumber(s string) (uint, error) {
	s = strings.TrimSpace(s)
	if len(s) == 0 || len(s) > 4 {
		return 0, fmt.Errorf("%w: start number %q", ErrMalformedFrame, s)
	}
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: start number %q", ErrMalformedFrame, s)
	}
	return uint(n), nil
}
