// Package timeline convertit une position globale (secondes depuis le début) en
// couple (step, temps local) et inversement.
package timeline

import (
	"fmt"
	"sort"

	"github.com/patrickprogramme/cakeplayer/pkg/model"
)

// Position est un point de la timeline exprimé dans l'horloge locale d'un step.
type Position struct {
	StepIndex int           `json:"stepIndex"`
	LocalTime model.Seconds `json:"videoTime"`
}

// Index est immuable une fois construit ; il peut être partagé entre goroutines.
// Les durées et offsets sont tenus en millisecondes entières : la résolution de
// la timeline est la milliseconde, et ToGlobal/FromGlobal sont exactement inverses
// à cette résolution.
type Index struct {
	durations []int64 // ms
	offsets   []int64 // offsets[i] = somme des durées avant i ; len = n+1
}

// New construit l'index à partir des starts globaux triés.
// La durée du step i vaut starts[i+1]-starts[i] ; le dernier step utilise finalDuration.
func New(starts []model.Seconds, finalDuration model.Seconds) (*Index, error) {
	if len(starts) == 0 {
		return nil, ErrNoSteps
	}
	if !finalDuration.Valid() {
		return nil, fmt.Errorf("step %d: duration %v: %w", len(starts)-1, float64(finalDuration), ErrInvalidDuration)
	}
	durations := make([]int64, len(starts))
	for i, s := range starts {
		if !s.Valid() {
			return nil, fmt.Errorf("step %d: start %v: %w", i, float64(s), ErrInvalidDuration)
		}
		if i == len(starts)-1 {
			durations[i] = finalDuration.Milliseconds()
			continue
		}
		next := starts[i+1]
		if !next.Valid() {
			return nil, fmt.Errorf("step %d: start %v: %w", i+1, float64(next), ErrInvalidDuration)
		}
		if next <= s {
			return nil, fmt.Errorf("step %d: start %.3f <= %.3f: %w", i+1, float64(next), float64(s), ErrNonMonotonic)
		}
		durations[i] = next.Milliseconds() - s.Milliseconds()
	}
	return fromMs(durations)
}

// FromDurations construit l'index à partir de durées explicites.
func FromDurations(durations []model.Seconds) (*Index, error) {
	if len(durations) == 0 {
		return nil, ErrNoSteps
	}
	ms := make([]int64, len(durations))
	for i, d := range durations {
		if !d.Valid() {
			return nil, fmt.Errorf("step %d: duration %v: %w", i, float64(d), ErrInvalidDuration)
		}
		ms[i] = d.Milliseconds()
	}
	return fromMs(ms)
}

// fromMs refuse les durées nulles à la milliseconde près.
func fromMs(durations []int64) (*Index, error) {
	x := &Index{
		durations: durations,
		offsets:   make([]int64, len(durations)+1),
	}
	for i, d := range durations {
		if d <= 0 {
			return nil, fmt.Errorf("step %d: duration %v: %w", i, float64(model.SecondsFromMs(d)), ErrInvalidDuration)
		}
		x.offsets[i+1] = x.offsets[i] + d
	}
	return x, nil
}

func (x *Index) Len() int {
	return len(x.durations)
}

// TotalDuration est la somme des durées de tous les steps.
func (x *Index) TotalDuration() model.Seconds {
	return model.SecondsFromMs(x.offsets[len(x.offsets)-1])
}

// Duration retourne la durée du step i (index borné).
func (x *Index) Duration(i int) model.Seconds {
	i, _ = x.ClampStep(i)
	return model.SecondsFromMs(x.durations[i])
}

// Offset retourne le temps global où commence le step i (index borné).
func (x *Index) Offset(i int) model.Seconds {
	i, _ = x.ClampStep(i)
	return model.SecondsFromMs(x.offsets[i])
}

// ClampStep borne i dans [0, Len-1]. Un index hors limites retourne
// l'index borné ET une *RangeError.
func (x *Index) ClampStep(i int) (int, error) {
	n := len(x.durations)
	switch {
	case i < 0:
		return 0, &RangeError{Index: i, Len: n, Clamped: 0}
	case i >= n:
		return n - 1, &RangeError{Index: i, Len: n, Clamped: n - 1}
	}
	return i, nil
}

// Clamp normalise une position : step borné, temps local dans [0, durée].
func (x *Index) Clamp(p Position) Position {
	p.StepIndex, _ = x.ClampStep(p.StepIndex)
	d := model.SecondsFromMs(x.durations[p.StepIndex])
	switch {
	case !p.LocalTime.Valid() || p.LocalTime < 0:
		p.LocalTime = 0
	case p.LocalTime > d:
		p.LocalTime = d
	}
	return p
}

// ToGlobal additionne les durées des steps précédents et le temps local,
// arrondi à la milliseconde.
// Pour un index hors limites, le résultat est calculé sur l'index borné et
// l'erreur de range est retournée en plus.
func (x *Index) ToGlobal(stepIndex int, localTime model.Seconds) (model.Seconds, error) {
	i, err := x.ClampStep(stepIndex)
	if !localTime.Valid() {
		return model.SecondsFromMs(x.offsets[i]), err
	}
	return model.SecondsFromMs(x.offsets[i] + localTime.Milliseconds()), err
}

// FromGlobal retrouve le step qui contient global et le reste en temps local.
// Un temps exactement sur une frontière appartient au step qui commence là.
// Négatif -> {0, 0} ; au-delà du total -> {dernier, durée du dernier}.
func (x *Index) FromGlobal(global model.Seconds) Position {
	last := len(x.durations) - 1
	if !global.Valid() || global <= 0 {
		return Position{StepIndex: 0, LocalTime: 0}
	}
	g := global.Milliseconds()
	if g >= x.offsets[last+1] {
		return Position{StepIndex: last, LocalTime: model.SecondsFromMs(x.durations[last])}
	}
	// premier offset strictement supérieur à g, le step est juste avant
	i := sort.Search(len(x.offsets), func(k int) bool { return x.offsets[k] > g }) - 1
	return Position{StepIndex: i, LocalTime: model.SecondsFromMs(g - x.offsets[i])}
}

// Percentage retourne 100*global/total ; 0 si la timeline est vide.
func (x *Index) Percentage(global model.Seconds) float64 {
	total := x.offsets[len(x.offsets)-1]
	if total == 0 {
		return 0
	}
	return 100 * float64(global) * 1000 / float64(total)
}
