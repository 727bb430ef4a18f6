package captions

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/patrickprogramme/cakeplayer/pkg/model"
)

func testTrack() Track {
	return Track{
		{
			{Start: 0, End: 2, Text: "hello"},
			{Start: 2, End: 4.5, Text: "world"},
		},
		nil,
		{
			{Start: 1, End: 3, Text: "overlap A"},
			{Start: 2, End: 5, Text: "overlap B"},
		},
	}
}

func TestActive(t *testing.T) {
	track := testTrack()

	tests := []struct {
		name   string
		step   int
		time   model.Seconds
		want   string
		wantOK bool
	}{
		{"start inclusive", 0, 0, "hello", true},
		{"inside", 0, 1.5, "hello", true},
		{"boundary goes to next caption", 0, 2, "world", true},
		{"end exclusive", 0, 4.5, "", false},
		{"after all captions", 0, 9, "", false},
		{"step without captions", 1, 1, "", false},
		{"step missing", 7, 1, "", false},
		{"negative step", -1, 1, "", false},
		{"first match wins on overlap", 2, 2.5, "overlap A", true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := Active(track, tc.step, tc.time)
			assert.Equal(t, tc.wantOK, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestTrackMethodAndCount(t *testing.T) {
	track := testTrack()

	got, ok := track.Active(0, 3)
	assert.True(t, ok)
	assert.Equal(t, "world", got)
	assert.Equal(t, 4, track.Count())

	_, ok = Track(nil).Active(0, 0)
	assert.False(t, ok)
}
