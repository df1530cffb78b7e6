package racedomain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRaceTime(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"59.99", 59*time.Second + 990*time.Millisecond},
		{"59,99", 59*time.Second + 990*time.Millisecond},
		{"1:02.5", time.Minute + 2*time.Second + 500*time.Millisecond},
		{"08:03:59.99", hms(8, 3, 59) + 990*time.Millisecond},
		{"8:03:59", hms(8, 3, 59)},
		{"12", 12 * time.Second},
		{"0.1234", 123400 * time.Microsecond},
		{" 1:00.00 ", time.Minute},
		{"23:59:59.99", hms(23, 59, 59) + 990*time.Millisecond},
		{"1439:59", 1439*time.Minute + 59*time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRaceTime(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseRaceTimeRejectsInvalidText(t *testing.T) {
	for _, in := range []string{"", "abc", "1:75.00", "1:60:00", "1:2:3:4", "12.", "-5", "1:", "1.2.3",
		"3000000:00:00", "24:00:00", "1440:00", "86400", "99999999999999999999"} {
		t.Run(in, func(t *testing.T) {
			_, err := ParseRaceTime(in)
			assert.ErrorIs(t, err, ErrInvalidTimeText)
		})
	}
}

func TestFloorToHundredths(t *testing.T) {
	assert.Equal(t, 990*time.Millisecond, FloorToHundredths(999*time.Millisecond))
	assert.Equal(t, time.Second, FloorToHundredths(time.Second))
	assert.Equal(t, -10*time.Millisecond, FloorToHundredths(-time.Millisecond))
}

func TestFormatRaceTime(t *testing.T) {
	assert.Equal(t, "59.99", FormatRaceTime(59*time.Second+999*time.Millisecond))
	assert.Equal(t, "1:02.50", FormatRaceTime(62500*time.Millisecond))
	assert.Equal(t, "8:03:59.00", FormatRaceTime(hms(8, 3, 59)))
	assert.Equal(t, "-1.00", FormatRaceTime(-time.Second))
	assert.Equal(t, "", FormatOptionalRaceTime(nil))
}

func TestFormatParseRoundTrip(t *testing.T) {
	for _, d := range []time.Duration{0, 10 * time.Millisecond, 59*time.Second + 990*time.Millisecond, hms(1, 0, 1)} {
		got, err := ParseRaceTime(FormatRaceTime(d))
		require.NoError(t, err)
		assert.Equal(t, d, got)
	}
}
