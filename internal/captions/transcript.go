package captions

import (
	"strings"

	"github.com/patrickprogramme/cakeplayer/internal/timeline"
	"github.com/patrickprogramme/cakeplayer/pkg/model"
)

// Phrase est une caption replacée sur la timeline globale (en millisecondes).
type Phrase struct {
	TimestampMs int64  // début de la caption (ms depuis le début de la timeline)
	Text        string // texte normalisé
}

// Heading marque le début d'un step dans le transcript.
type Heading struct {
	StartMs int64
	Title   string
}

// Transcript est la vue "texte" d'un script : les captions de tous les steps,
// avec les titres des steps insérés comme intertitres.
type Transcript struct {
	Title    string
	Phrases  []Phrase
	Headings []Heading
}

// NewTranscript place chaque caption et chaque titre de step sur la timeline globale.
// - pure function, pas d'I/O.
func NewTranscript(title string, idx *timeline.Index, track Track, stepTitles []string) Transcript {
	tr := Transcript{Title: title}
	for i := 0; i < idx.Len(); i++ {
		offset := idx.Offset(i)
		if i < len(stepTitles) && strings.TrimSpace(stepTitles[i]) != "" {
			tr.Headings = append(tr.Headings, Heading{
				StartMs: offset.Milliseconds(),
				Title:   stepTitles[i],
			})
		}
		if i >= len(track) {
			continue
		}
		for _, c := range track[i] {
			text := normalizeWhitespace(c.Text)
			if text == "" {
				continue
			}
			tr.Phrases = append(tr.Phrases, Phrase{
				TimestampMs: (offset + c.Start).Milliseconds(),
				Text:        text,
			})
		}
	}
	return tr
}

// Plain retourne le transcript au format lisible (une caption par ligne),
// les titres de steps insérés comme "## Titre".
func (t Transcript) Plain() string {
	if len(t.Phrases) == 0 {
		return ""
	}
	if len(t.Headings) == 0 {
		return t.PlainNoHeadings()
	}
	return t.transcriptWithHeadings(0, asPlain)
}

// PlainNoHeadings : une caption par ligne, sans titres.
func (t Transcript) PlainNoHeadings() string {
	var b strings.Builder
	for _, p := range t.Phrases {
		b.WriteString(p.Text)
		b.WriteString("\n")
	}
	return b.String()
}

// Collapsed retourne le transcript en paragraphes (un par step).
func (t Transcript) Collapsed() string {
	if len(t.Phrases) == 0 {
		return ""
	}
	if len(t.Headings) == 0 {
		parts := make([]string, 0, len(t.Phrases))
		for _, p := range t.Phrases {
			parts = append(parts, p.Text)
		}
		return strings.Join(parts, " ") + "\n"
	}
	return t.transcriptWithHeadings(0, asCollapsed)
}

// normalizeWhitespace nettoie les espace : un seul espace entre mots, aucun en début/fin
func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Seconds convertit un timestamp en ms vers model.Seconds (pratique pour l'export).
func (p Phrase) Seconds() model.Seconds {
	return model.SecondsFromMs(p.TimestampMs)
}
