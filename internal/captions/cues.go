package captions

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/asticode/go-astisub"

	"github.com/patrickprogramme/cakeplayer/internal/timeline"
	"github.com/patrickprogramme/cakeplayer/pkg/model"
)

var ErrBadCueTime = errors.New("captions: invalid cue time")

// Cue est une caption en temps global, telle que lue dans un fichier SRT/VTT.
type Cue struct {
	Start model.Seconds
	End   model.Seconds
	Text  string
}

// ParseSRT lit un fichier SubRip.
func ParseSRT(r io.Reader) ([]Cue, error) {
	subs, err := astisub.ReadFromSRT(r)
	if err != nil {
		return nil, fmt.Errorf("read srt: %w", err)
	}
	return cuesFrom(subs)
}

// ParseVTT lit un fichier WebVTT. Réglages de cue et blocs NOTE/STYLE/REGION
// sont ignorés.
func ParseVTT(r io.Reader) ([]Cue, error) {
	subs, err := astisub.ReadFromWebVTT(r)
	if err != nil {
		return nil, fmt.Errorf("read vtt: %w", err)
	}
	return cuesFrom(subs)
}

// cuesFrom convertit les items lus : une ligne de texte par ligne de la cue,
// cues vides sautées, temps négatifs ou fin avant début refusés.
func cuesFrom(subs *astisub.Subtitles) ([]Cue, error) {
	cues := make([]Cue, 0, len(subs.Items))
	for i, it := range subs.Items {
		if it.StartAt < 0 || it.EndAt < 0 {
			return nil, fmt.Errorf("%w: cue %d: negative time %s --> %s", ErrBadCueTime, i+1, it.StartAt, it.EndAt)
		}
		if it.EndAt < it.StartAt {
			return nil, fmt.Errorf("%w: cue %d: end before start (%s --> %s)", ErrBadCueTime, i+1, it.StartAt, it.EndAt)
		}
		text := itemText(it)
		if strings.TrimSpace(text) == "" {
			continue
		}
		cues = append(cues, Cue{
			Start: model.Seconds(it.StartAt.Seconds()),
			End:   model.Seconds(it.EndAt.Seconds()),
			Text:  text,
		})
	}
	return cues, nil
}

func itemText(it *astisub.Item) string {
	lines := make([]string, 0, len(it.Lines))
	for _, l := range it.Lines {
		parts := make([]string, 0, len(l.Items))
		for _, li := range l.Items {
			if t := strings.TrimSpace(li.Text); t != "" {
				parts = append(parts, t)
			}
		}
		if len(parts) > 0 {
			lines = append(lines, strings.Join(parts, " "))
		}
	}
	return strings.Join(lines, "\n")
}

// Distribute répartit des cues globales sur les steps de l'index : une cue
// appartient au step qui contient son début, et sa fin est coupée à la fin du step.
func Distribute(cues []Cue, idx *timeline.Index) Track {
	track := make(Track, idx.Len())
	for _, c := range cues {
		pos := idx.FromGlobal(c.Start)
		offset := idx.Offset(pos.StepIndex)
		end := c.End - offset
		if d := idx.Duration(pos.StepIndex); end > d {
			end = d
		}
		if end <= pos.LocalTime {
			continue
		}
		track[pos.StepIndex] = append(track[pos.StepIndex], model.Caption{
			Start: pos.LocalTime,
			End:   end,
			Text:  c.Text,
		})
	}
	return track
}
