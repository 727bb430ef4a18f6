package app

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/kr/pretty"

	"github.com/patrickprogramme/cakeplayer/internal/clipboard"
	"github.com/patrickprogramme/cakeplayer/internal/fsutil"
	"github.com/patrickprogramme/cakeplayer/internal/playback"
	"github.com/patrickprogramme/cakeplayer/internal/render"
	"github.com/patrickprogramme/cakeplayer/internal/script"
	"github.com/patrickprogramme/cakeplayer/pkg/model"
)

var ErrExportFormat = errors.New("format d'export non supporté")

// Export écrit la timeline dans outDir au format demandé :
// md (fiche), txt (transcript), yaml/json/toml (script normalisé).
// Retourne le chemin du fichier écrit.
func (a *App) Export(tl *script.Timeline, format model.Format, outDir string, overwrite bool) (string, error) {
	content, err := a.exportContent(tl, format)
	if err != nil {
		return "", err
	}
	if outDir == "" {
		outDir = a.cfg.OutputDir
	}

	base := fsutil.SanitizeFilename(titleOf(tl))
	path, err := fsutil.SaveAtomic(outDir, base, format.Extension(), content, overwrite)
	if err != nil {
		return "", fmt.Errorf("écriture de l'export: %w", err)
	}
	return path, nil
}

func (a *App) exportContent(tl *script.Timeline, format model.Format) ([]byte, error) {
	switch {
	case format == model.FormatMARKDOWN:
		if a.renderer == nil {
			return nil, fmt.Errorf("export md: aucun renderer")
		}
		out, err := a.renderer.Render(render.SheetTemplate, render.NewSheetData(tl))
		if err != nil {
			return nil, fmt.Errorf("render error: %w", err)
		}
		return out, nil
	case format == model.FormatTXT:
		tr := render.Transcript(tl)
		if len(tr.Phrases) == 0 {
			return nil, fmt.Errorf("export txt: le script n'a aucune caption")
		}
		return []byte(tr.Plain()), nil
	case format.IsScript():
		return script.Encode(tl.Script, format)
	}
	return nil, fmt.Errorf("%w: %s", ErrExportFormat, format)
}

// inspection est le résumé affiché par Inspect.
type inspection struct {
	Title    string
	Steps    []inspectedStep
	Total    string
	Actions  int
	Warnings []string
}

type inspectedStep struct {
	Title    string
	Offset   string
	Duration model.Seconds
	Actions  []string
	Captions int
}

// Inspect affiche la timeline construite (offsets, actions triées, warnings).
func Inspect(w io.Writer, tl *script.Timeline) error {
	in := inspection{
		Title:    titleOf(tl),
		Total:    tl.Index.TotalDuration().TimeString(),
		Actions:  tl.ActionCount(),
		Warnings: tl.Warnings,
	}
	for i := 0; i < tl.Index.Len(); i++ {
		st := inspectedStep{
			Title:    tl.Titles[i],
			Offset:   tl.Index.Offset(i).TimeString(),
			Duration: tl.Index.Duration(i),
			Captions: len(tl.Track[i]),
		}
		for _, act := range tl.Actions[i] {
			st.Actions = append(st.Actions, act.String())
		}
		in.Steps = append(in.Steps, st)
	}
	_, err := pretty.Fprintf(w, "%# v\n", in)
	return err
}

// TimestampLabel formate "MM:SS Titre du step" pour la vue courante.
func TimestampLabel(v playback.View) string {
	return strings.TrimSpace(fmt.Sprintf("%s %s", v.Current.TimeString(), v.StepTitle))
}

// CopyTimestamp copie TimestampLabel(v) dans le presse-papier.
func CopyTimestamp(v playback.View) (string, error) {
	text := TimestampLabel(v)
	if err := clipboard.WriteAll(text); err != nil {
		return "", err
	}
	return text, nil
}
