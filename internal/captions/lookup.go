package captions

import (
	"github.com/patrickprogramme/cakeplayer/pkg/model"
)

// Track contient les intervalles de captions de chaque step (index = step).
// Un step sans captions a une liste nil.
type Track [][]model.Caption

// Active retourne le texte du premier intervalle qui contient localTime
// (start <= t < end), dans l'ordre de la liste. Un step absent n'est pas une
// erreur : on retourne simplement ("", false).
func Active(captionSteps Track, stepIndex int, localTime model.Seconds) (string, bool) {
	if stepIndex < 0 || stepIndex >= len(captionSteps) {
		return "", false
	}
	for _, c := range captionSteps[stepIndex] {
		if c.Contains(localTime) {
			return c.Text, true
		}
	}
	return "", false
}

// Active est la forme méthode de la fonction Active.
func (t Track) Active(stepIndex int, localTime model.Seconds) (string, bool) {
	return Active(t, stepIndex, localTime)
}

// Count retourne le nombre total d'intervalles.
func (t Track) Count() int {
	n := 0
	for _, cs := range t {
		n += len(cs)
	}
	return n
}
