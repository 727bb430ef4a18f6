package timeline

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patrickprogramme/cakeplayer/pkg/model"
)

func newTestIndex(t *testing.T) *Index {
	t.Helper()
	// durées : 10, 20, 5
	x, err := New([]model.Seconds{0, 10, 30}, 5)
	require.NoError(t, err)
	return x
}

func TestNewDerivesDurationsFromStarts(t *testing.T) {
	x := newTestIndex(t)

	assert.Equal(t, 3, x.Len())
	assert.Equal(t, model.Seconds(10), x.Duration(0))
	assert.Equal(t, model.Seconds(20), x.Duration(1))
	assert.Equal(t, model.Seconds(5), x.Duration(2))
	assert.Equal(t, model.Seconds(35), x.TotalDuration())
	assert.Equal(t, model.Seconds(30), x.Offset(2))
}

func TestNewRejectsMalformedInput(t *testing.T) {
	tests := []struct {
		name   string
		starts []model.Seconds
		final  model.Seconds
		want   error
	}{
		{"empty", nil, 5, ErrNoSteps},
		{"decreasing", []model.Seconds{0, 10, 5}, 5, ErrNonMonotonic},
		{"duplicate start", []model.Seconds{0, 10, 10}, 5, ErrNonMonotonic},
		{"missing final duration", []model.Seconds{0, 10}, 0, ErrInvalidDuration},
		{"negative final duration", []model.Seconds{0}, -1, ErrInvalidDuration},
		{"nan start", []model.Seconds{0, model.Seconds(math.NaN())}, 1, ErrInvalidDuration},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.starts, tc.final)
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestToGlobal(t *testing.T) {
	x := newTestIndex(t)

	g, err := x.ToGlobal(1, 2.5)
	require.NoError(t, err)
	assert.Equal(t, model.Seconds(12.5), g)

	g, err = x.ToGlobal(0, 0)
	require.NoError(t, err)
	assert.Equal(t, model.Seconds(0), g)
}

func TestToGlobalOutOfRangeIsClampedAndReported(t *testing.T) {
	x := newTestIndex(t)

	g, err := x.ToGlobal(7, 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStepOutOfRange))
	assert.Equal(t, model.Seconds(31), g)

	var rerr *RangeError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, 7, rerr.Index)
	assert.Equal(t, 2, rerr.Clamped)

	_, err = x.ToGlobal(-1, 0)
	assert.ErrorIs(t, err, ErrStepOutOfRange)
}

func TestFromGlobal(t *testing.T) {
	x := newTestIndex(t)

	tests := []struct {
		name   string
		global model.Seconds
		want   Position
	}{
		{"start", 0, Position{0, 0}},
		{"inside first", 4, Position{0, 4}},
		{"boundary belongs to next step", 10, Position{1, 0}},
		{"inside second", 29.5, Position{1, 19.5}},
		{"inside last", 33, Position{2, 3}},
		{"exact total", 35, Position{2, 5}},
		{"past total", 99, Position{2, 5}},
		{"negative", -3, Position{0, 0}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, x.FromGlobal(tc.global))
		})
	}
}

func TestRoundTrip(t *testing.T) {
	x := newTestIndex(t)

	for i := 0; i < x.Len(); i++ {
		for _, local := range []model.Seconds{0, 0.5, 1, 2.25, x.Duration(i) - 0.5} {
			g, err := x.ToGlobal(i, local)
			require.NoError(t, err)
			assert.Equal(t, Position{StepIndex: i, LocalTime: local}, x.FromGlobal(g), "step %d local %v", i, local)
		}
	}
	// le dernier step accepte aussi t == durée
	g, _ := x.ToGlobal(2, 5)
	assert.Equal(t, Position{2, 5}, x.FromGlobal(g))
}

func TestRoundTripNonDyadicStarts(t *testing.T) {
	x, err := New([]model.Seconds{0, 0.1, 0.7}, 1)
	require.NoError(t, err)
	assert.Equal(t, model.Seconds(0.6), x.Duration(1))
	assert.Equal(t, model.Seconds(1.7), x.TotalDuration())

	g, err := x.ToGlobal(1, 0.006)
	require.NoError(t, err)
	assert.Equal(t, Position{StepIndex: 1, LocalTime: 0.006}, x.FromGlobal(g))

	// 60 steps de 0.84 s : chaque milliseconde d'un step revient sur ce step
	starts := make([]model.Seconds, 60)
	for i := range starts {
		starts[i] = model.Seconds(float64(i) * 0.84)
	}
	x, err = New(starts, 0.84)
	require.NoError(t, err)

	for i := 0; i < x.Len(); i++ {
		durMs := x.Duration(i).Milliseconds()
		require.Equal(t, int64(840), durMs, "step %d", i)
		for ms := int64(0); ms < durMs; ms++ {
			local := model.SecondsFromMs(ms)
			g, err := x.ToGlobal(i, local)
			require.NoError(t, err)
			require.Equal(t, Position{StepIndex: i, LocalTime: local}, x.FromGlobal(g), "step %d local %v", i, float64(local))
		}
	}
}

func TestDurationBelowOneMillisecondIsRejected(t *testing.T) {
	_, err := FromDurations([]model.Seconds{1, 0.0004})
	assert.ErrorIs(t, err, ErrInvalidDuration)
}

func TestClamp(t *testing.T) {
	x := newTestIndex(t)

	assert.Equal(t, Position{0, 0}, x.Clamp(Position{0, -2}))
	assert.Equal(t, Position{1, 20}, x.Clamp(Position{1, 200}))
	assert.Equal(t, Position{2, 5}, x.Clamp(Position{9, 7}))
	assert.Equal(t, Position{1, 3}, x.Clamp(Position{1, 3}))
}

func TestPercentage(t *testing.T) {
	x, err := FromDurations([]model.Seconds{30, 30})
	require.NoError(t, err)

	assert.InDelta(t, 50.0, x.Percentage(30), 1e-9)
	assert.InDelta(t, 0.0, x.Percentage(0), 1e-9)

	empty := &Index{offsets: []int64{0}}
	assert.Equal(t, 0.0, empty.Percentage(10))
}
