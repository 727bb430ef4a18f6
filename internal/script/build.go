package script

import (
	"bytes"
	"cmp"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/patrickprogramme/cakeplayer/internal/captions"
	"github.com/patrickprogramme/cakeplayer/internal/fetch"
	"github.com/patrickprogramme/cakeplayer/internal/timeline"
	"github.com/patrickprogramme/cakeplayer/pkg/model"
)

// ValidationError désigne le step et le champ fautifs.
type ValidationError struct {
	Step  int
	Title string
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Step < 0 {
		return fmt.Sprintf("script: %s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("script: step %d (%s): %s: %v", e.Step, e.Title, e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Timeline est le résultat de Build : tout ce qu'il faut pour jouer le script.
type Timeline struct {
	Script   *model.Script
	Index    *timeline.Index
	Track    captions.Track
	Actions  [][]model.Action // par step, triées par On (tri stable)
	Titles   []string
	Start    model.Seconds // temps local initial (start du premier step)
	Warnings []string
}

// ActionCount retourne le nombre total d'actions.
func (t *Timeline) ActionCount() int {
	n := 0
	for _, as := range t.Actions {
		n += len(as)
	}
	return n
}

// Build valide le script et construit la timeline.
// Si tous les steps ont une durée, les durées font foi ; sinon les starts
// successifs + final_duration (ou la durée du dernier step).
// baseDir (dossier, ou URL du script) sert à résoudre captions_file.
func Build(s *model.Script, baseDir string) (*Timeline, error) {
	return BuildContext(context.Background(), s, baseDir)
}

// BuildContext est Build avec un contexte pour le téléchargement de captions_file.
func BuildContext(ctx context.Context, s *model.Script, baseDir string) (*Timeline, error) {
	if s == nil || len(s.Steps) == 0 {
		return nil, &ValidationError{Step: -1, Field: "steps", Err: timeline.ErrNoSteps}
	}

	idx, err := buildIndex(s)
	if err != nil {
		return nil, err
	}

	tl := &Timeline{
		Script:  s,
		Index:   idx,
		Track:   make(captions.Track, len(s.Steps)),
		Actions: make([][]model.Action, len(s.Steps)),
		Titles:  make([]string, len(s.Steps)),
		Start:   s.Steps[0].Start,
	}

	for i, st := range s.Steps {
		tl.Titles[i] = s.StepTitle(i)
		dur := idx.Duration(i)

		acts, warns, err := checkActions(i, tl.Titles[i], st.Actions, dur)
		if err != nil {
			return nil, err
		}
		tl.Actions[i] = acts
		tl.Warnings = append(tl.Warnings, warns...)

		caps, warns, err := checkCaptions(i, tl.Titles[i], st.Captions, dur)
		if err != nil {
			return nil, err
		}
		tl.Track[i] = caps
		tl.Warnings = append(tl.Warnings, warns...)
	}

	if s.CaptionsFile != "" {
		if err := tl.loadCaptionsFile(ctx, baseDir); err != nil {
			return nil, err
		}
	}
	return tl, nil
}

func buildIndex(s *model.Script) (*timeline.Index, error) {
	allDurations := true
	for _, st := range s.Steps {
		if st.Duration == 0 {
			allDurations = false
			break
		}
	}

	if allDurations {
		durations := make([]model.Seconds, len(s.Steps))
		for i, st := range s.Steps {
			if !st.Duration.Valid() || st.Duration <= 0 {
				return nil, &ValidationError{Step: i, Title: s.StepTitle(i), Field: "duration", Err: timeline.ErrInvalidDuration}
			}
			durations[i] = st.Duration
		}
		return timeline.FromDurations(durations)
	}

	last := len(s.Steps) - 1
	final := s.FinalDuration
	if final == 0 {
		final = s.Steps[last].Duration
	}
	if !final.Valid() || final <= 0 {
		return nil, &ValidationError{Step: -1, Field: "final_duration", Err: timeline.ErrInvalidDuration}
	}

	starts := make([]model.Seconds, len(s.Steps))
	for i, st := range s.Steps {
		if i > 0 && st.Start <= starts[i-1] {
			return nil, &ValidationError{Step: i, Title: s.StepTitle(i), Field: "start", Err: timeline.ErrNonMonotonic}
		}
		if !st.Start.Valid() || st.Start < 0 {
			return nil, &ValidationError{Step: i, Title: s.StepTitle(i), Field: "start", Err: timeline.ErrInvalidDuration}
		}
		starts[i] = st.Start
	}
	return timeline.New(starts, final)
}

func checkActions(step int, title string, in []model.Action, dur model.Seconds) ([]model.Action, []string, error) {
	var warns []string
	for j, a := range in {
		field := fmt.Sprintf("actions[%d]", j)
		if strings.TrimSpace(a.Type) == "" {
			return nil, nil, &ValidationError{Step: step, Title: title, Field: field + ".type", Err: fmt.Errorf("missing action type")}
		}
		if !a.On.Valid() || a.On < 0 || a.On > dur {
			return nil, nil, &ValidationError{Step: step, Title: title, Field: field + ".on",
				Err: fmt.Errorf("%v outside [0, %v]", float64(a.On), float64(dur))}
		}
		if a.On == 0 {
			warns = append(warns, fmt.Sprintf("step %d (%s): %s at 0s never fires (actions fire strictly after the previous tick)", step, title, a.Type))
		}
	}
	out := slices.Clone(in)
	slices.SortStableFunc(out, func(a, b model.Action) int { return cmp.Compare(a.On, b.On) })
	return out, warns, nil
}

func checkCaptions(step int, title string, in []model.Caption, dur model.Seconds) ([]model.Caption, []string, error) {
	var warns []string
	out := make([]model.Caption, 0, len(in))
	for j, c := range in {
		field := fmt.Sprintf("captions[%d]", j)
		if !c.Start.Valid() || !c.End.Valid() || c.Start < 0 || c.End <= c.Start {
			return nil, nil, &ValidationError{Step: step, Title: title, Field: field,
				Err: fmt.Errorf("invalid interval [%v, %v)", float64(c.Start), float64(c.End))}
		}
		if c.Start >= dur {
			warns = append(warns, fmt.Sprintf("step %d (%s): %s starts after the step, dropped", step, title, field))
			continue
		}
		if c.End > dur {
			warns = append(warns, fmt.Sprintf("step %d (%s): %s ends after the step, clipped", step, title, field))
			c.End = dur
		}
		if n := len(out); n > 0 && c.Start < out[n-1].End {
			warns = append(warns, fmt.Sprintf("step %d (%s): %s overlaps the previous caption", step, title, field))
		}
		out = append(out, c)
	}
	if len(out) == 0 {
		return nil, warns, nil
	}
	return out, warns, nil
}

// loadCaptionsFile répartit un fichier SRT/VTT (temps globaux) sur les steps,
// après les captions déclarées dans le script. Le fichier peut être distant.
func (t *Timeline) loadCaptionsFile(ctx context.Context, baseDir string) error {
	path := t.Script.CaptionsFile
	format, err := formatOf(path)
	if err != nil || !format.IsCaptions() {
		return &ValidationError{Step: -1, Field: "captions_file", Err: fmt.Errorf("%q: expected .srt or .vtt", path)}
	}

	r, err := openCaptions(ctx, path, baseDir)
	if err != nil {
		return &ValidationError{Step: -1, Field: "captions_file", Err: err}
	}
	defer r.Close()

	var cues []captions.Cue
	if format == model.FormatSRT {
		cues, err = captions.ParseSRT(r)
	} else {
		cues, err = captions.ParseVTT(r)
	}
	if err != nil {
		return &ValidationError{Step: -1, Field: "captions_file", Err: err}
	}

	for i, caps := range captions.Distribute(cues, t.Index) {
		t.Track[i] = append(t.Track[i], caps...)
	}
	return nil
}

func openCaptions(ctx context.Context, path, baseDir string) (io.ReadCloser, error) {
	switch {
	case fetch.IsURL(path):
	case fetch.IsURL(baseDir):
		resolved, err := fetch.Resolve(baseDir, path)
		if err != nil {
			return nil, err
		}
		path = resolved
	default:
		if !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, path)
		}
		return os.Open(path)
	}
	data, err := fetch.Bytes(ctx, path)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}
