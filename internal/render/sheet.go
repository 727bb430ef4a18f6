// Package render produit la fiche Markdown d'un script et son transcript texte.
package render

import (
	"strings"

	"github.com/patrickprogramme/cakeplayer/internal/captions"
	"github.com/patrickprogramme/cakeplayer/internal/fsutil"
	"github.com/patrickprogramme/cakeplayer/internal/script"
	"github.com/patrickprogramme/cakeplayer/pkg/model"
)

var baseTags = []string{"cake", "script"}

// SheetStep est un step tel qu'affiché dans la fiche.
type SheetStep struct {
	Number   int // à partir de 1
	Title    string
	Offset   model.Seconds // début global
	Duration model.Seconds
	Actions  []model.Action
	Captions []model.Caption
}

// SheetData contient les données passées au template de la fiche.
type SheetData struct {
	Title      string
	Subtitle   string
	DateStr    string
	Total      model.Seconds
	Tags       []string
	Steps      []SheetStep
	Transcript string
	Warnings   []string
	Filename   string
}

// NewSheetData construit les données de la fiche à partir d'une timeline.
func NewSheetData(tl *script.Timeline) SheetData {
	s := tl.Script
	title := strings.TrimSpace(s.Title)
	if title == "" {
		title = "Untitled"
	}
	dateStr := s.Date
	if dateStr == "" {
		dateStr = "unknown"
	}

	steps := make([]SheetStep, 0, tl.Index.Len())
	for i := 0; i < tl.Index.Len(); i++ {
		steps = append(steps, SheetStep{
			Number:   i + 1,
			Title:    tl.Titles[i],
			Offset:   tl.Index.Offset(i),
			Duration: tl.Index.Duration(i),
			Actions:  tl.Actions[i],
			Captions: tl.Track[i],
		})
	}

	return SheetData{
		Title:      fsutil.CapitalizeFirst(title),
		Subtitle:   s.Subtitle,
		DateStr:    dateStr,
		Total:      tl.Index.TotalDuration(),
		Tags:       baseTags,
		Steps:      steps,
		Transcript: Transcript(tl).Plain(),
		Warnings:   tl.Warnings,
		Filename:   fsutil.SanitizeFilename(title),
	}
}

// Transcript assemble les captions de tous les steps sur la timeline globale.
func Transcript(tl *script.Timeline) captions.Transcript {
	return captions.NewTranscript(tl.Script.Title, tl.Index, tl.Track, tl.Titles)
}
