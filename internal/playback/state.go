// Package playback possède l'état de lecture (step, temps local, lecture/pause).
// Les transitions sont des évènements appliqués par un reducer pur ; le
// Controller sérialise les appels et pilote la source de temps.
package playback

import (
	"errors"
	"fmt"

	"github.com/patrickprogramme/cakeplayer/internal/timeline"
	"github.com/patrickprogramme/cakeplayer/pkg/model"
)

var ErrUnknownEvent = errors.New("playback: unknown event")

// State est la paire (step, temps local) faisant autorité, plus l'état lecture/pause.
type State struct {
	StepIndex int           `json:"stepIndex"`
	VideoTime model.Seconds `json:"videoTime"`
	Playing   bool          `json:"isPlaying"`
}

func (s State) String() string {
	mode := "paused"
	if s.Playing {
		mode = "playing"
	}
	return fmt.Sprintf("step %d @ %s (%s)", s.StepIndex, s.VideoTime.TimeString(), mode)
}

// Event est consommé par Reduce.
type Event interface {
	event()
}

// Seek place la lecture à un point précis sans toucher à lecture/pause.
type Seek struct {
	StepIndex int
	VideoTime model.Seconds
}

// Tick est émis par la source de temps à chaque avancée.
type Tick struct {
	NewTime model.Seconds
	OldTime model.Seconds
}

type Play struct{}

type Pause struct{}

// StepChange est émis par la source de temps quand elle passe au step suivant.
type StepChange struct {
	StepIndex int
	VideoTime model.Seconds
}

func (Seek) event()       {}
func (Tick) event()       {}
func (Play) event()       {}
func (Pause) event()      {}
func (StepChange) event() {}

// Initial retourne l'état de départ : step 0, temps start borné, en pause.
func Initial(idx *timeline.Index, start model.Seconds) State {
	p := idx.Clamp(timeline.Position{StepIndex: 0, LocalTime: start})
	return State{StepIndex: p.StepIndex, VideoTime: p.LocalTime}
}

// Reduce applique ev à s. Fonction pure.
// Pour un step hors limites, l'état borné est retourné avec une *timeline.RangeError.
func Reduce(idx *timeline.Index, s State, ev Event) (State, error) {
	switch e := ev.(type) {
	case Seek:
		return moveTo(idx, s, e.StepIndex, e.VideoTime)
	case StepChange:
		return moveTo(idx, s, e.StepIndex, e.VideoTime)
	case Tick:
		p := idx.Clamp(timeline.Position{StepIndex: s.StepIndex, LocalTime: e.NewTime})
		s.VideoTime = p.LocalTime
		return s, nil
	case Play:
		s.Playing = true
		return s, nil
	case Pause:
		s.Playing = false
		return s, nil
	}
	return s, fmt.Errorf("%w: %T", ErrUnknownEvent, ev)
}

func moveTo(idx *timeline.Index, s State, step int, t model.Seconds) (State, error) {
	_, err := idx.ClampStep(step)
	p := idx.Clamp(timeline.Position{StepIndex: step, LocalTime: t})
	s.StepIndex = p.StepIndex
	s.VideoTime = p.LocalTime
	return s, err
}
