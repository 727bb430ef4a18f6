// Package clipboard enveloppe atotto/clipboard. Sur une machine sans
// presse-papier (CI, serveur), Available retourne false et les appels échouent
// avec ErrUnavailable.
package clipboard

import (
	"errors"

	"github.com/atotto/clipboard"
)

var ErrUnavailable = errors.New("presse-papier indisponible")

// Available indique si un presse-papier système est utilisable.
func Available() bool {
	return !clipboard.Unsupported
}

// WriteAll écrit text dans le presse-papier.
func WriteAll(text string) error {
	if text == "" {
		return errors.New("le texte à copier ne peut pas être vide")
	}
	if !Available() {
		return ErrUnavailable
	}
	return clipboard.WriteAll(text)
}
