package model

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeString(t *testing.T) {
	tests := []struct {
		in   Seconds
		want string
	}{
		{0, "00:00"},
		{5.9, "00:05"},
		{90, "01:30"},
		{599.99, "09:59"},
		{3661, "01:01"},
		{-3, "00:00"},
		{Seconds(math.NaN()), "00:00"},
		{Seconds(math.Inf(1)), "00:00"},
		{1e300, "00:00"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, tc.in.TimeString(), "TimeString(%v)", float64(tc.in))
	}
}

func TestTimestampHHMMSS(t *testing.T) {
	assert.Equal(t, "00:01:05", Seconds(65).TimestampHHMMSS())
	assert.Equal(t, "01:01:01", Seconds(3661).TimestampHHMMSS())
}

func TestValid(t *testing.T) {
	assert.True(t, Seconds(0).Valid())
	assert.True(t, Seconds(-5).Valid())
	assert.True(t, MaxSeconds.Valid())
	assert.False(t, (MaxSeconds * 2).Valid())
	assert.False(t, Seconds(math.Inf(-1)).Valid())
	assert.False(t, Seconds(math.NaN()).Valid())

	assert.Equal(t, "00:00:00", Seconds(1e300).TimestampHHMMSS())
}

func TestMilliseconds(t *testing.T) {
	assert.Equal(t, int64(1500), Seconds(1.5).Milliseconds())
	assert.Equal(t, Seconds(2.25), SecondsFromMs(2250))
}

func TestParseClock(t *testing.T) {
	ok := map[string]Seconds{
		"42":       42,
		"1.5":      1.5,
		"01:30":    90,
		"1:02:03":  3723,
		" 00:10 ":  10,
		"00:00:00": 0,
	}
	for in, want := range ok {
		got, err := ParseClock(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, in := range []string{"", "abc", "1:2:3:4", "00:61", "-5", "1:xx", "NaN"} {
		_, err := ParseClock(in)
		assert.Error(t, err, in)
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{
		"yaml":     FormatYAML,
		"YML":      FormatYAML,
		".json":    FormatJSON,
		"toml":     FormatTOML,
		"markdown": FormatMARKDOWN,
		"vtt":      FormatVTT,
	} {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseFormat("docx")
	assert.Error(t, err)

	f, err := FormatFromPath("scripts/demo.cake.yaml")
	require.NoError(t, err)
	assert.True(t, f.IsScript())
	assert.Equal(t, ".yaml", f.Extension())

	_, err = FormatFromPath("README")
	assert.Error(t, err)
}

func TestStepTitleFallback(t *testing.T) {
	s := Script{Steps: []Step{{Title: "Intro"}, {Title: "  "}}}
	assert.Equal(t, "Intro", s.StepTitle(0))
	assert.Equal(t, "Step 2", s.StepTitle(1))
	assert.Equal(t, "", s.StepTitle(5))
}

func TestCaptionContainsIsHalfOpen(t *testing.T) {
	c := Caption{Start: 1, End: 2}
	assert.True(t, c.Contains(1))
	assert.True(t, c.Contains(1.5))
	assert.False(t, c.Contains(2))
	assert.False(t, c.Contains(0.5))
}
