package model

import (
	"fmt"
	"strings"
)

// Script regroupe tout ce qu'un fichier de script "cake" décrit.
type Script struct {
	Title         string  `json:"title" yaml:"title" toml:"title"`
	Subtitle      string  `json:"subtitle,omitempty" yaml:"subtitle,omitempty" toml:"subtitle,omitempty"`
	Date          string  `json:"date,omitempty" yaml:"date,omitempty" toml:"date,omitempty"`
	FinalDuration Seconds `json:"final_duration,omitempty" yaml:"final_duration,omitempty" toml:"final_duration,omitempty"`
	CaptionsFile  string  `json:"captions_file,omitempty" yaml:"captions_file,omitempty" toml:"captions_file,omitempty"`
	Steps         []Step  `json:"steps" yaml:"steps" toml:"steps"`
}

// Step est un segment de la timeline, avec son horloge locale.
// Start est global ; la fin implicite est le Start du step suivant.
type Step struct {
	Title    string    `json:"title,omitempty" yaml:"title,omitempty" toml:"title,omitempty"`
	Start    Seconds   `json:"start" yaml:"start" toml:"start"`
	Duration Seconds   `json:"duration,omitempty" yaml:"duration,omitempty" toml:"duration,omitempty"`
	Actions  []Action  `json:"actions,omitempty" yaml:"actions,omitempty" toml:"actions,omitempty"`
	Captions []Caption `json:"captions,omitempty" yaml:"captions,omitempty" toml:"captions,omitempty"`
}

// Action est une interaction utilisateur simulée, déclenchée à On (temps local au step).
// Type, Selector, Value et Params forment la commande opaque passée au simulateur.
type Action struct {
	On       Seconds           `json:"on" yaml:"on" toml:"on"`
	Type     string            `json:"type" yaml:"type" toml:"type"`
	Selector string            `json:"selector,omitempty" yaml:"selector,omitempty" toml:"selector,omitempty"`
	Value    string            `json:"value,omitempty" yaml:"value,omitempty" toml:"value,omitempty"`
	Params   map[string]string `json:"params,omitempty" yaml:"params,omitempty" toml:"params,omitempty"`
}

func (a Action) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s@%.2fs", a.Type, float64(a.On))
	if a.Selector != "" {
		fmt.Fprintf(&b, " %s", a.Selector)
	}
	if a.Value != "" {
		fmt.Fprintf(&b, " %q", a.Value)
	}
	return b.String()
}

// Caption est un intervalle de texte [Start, End) local au step.
type Caption struct {
	Start Seconds `json:"start" yaml:"start" toml:"start"`
	End   Seconds `json:"end" yaml:"end" toml:"end"`
	Text  string  `json:"text" yaml:"text" toml:"text"`
}

// Contains applique la sémantique semi-ouverte : Start inclus, End exclu.
func (c Caption) Contains(t Seconds) bool {
	return c.Start <= t && t < c.End
}

// StepTitle retourne le titre du step, ou "Step N" (N à partir de 1).
func (s Script) StepTitle(i int) string {
	if i < 0 || i >= len(s.Steps) {
		return ""
	}
	if t := strings.TrimSpace(s.Steps[i].Title); t != "" {
		return t
	}
	return fmt.Sprintf("Step %d", i+1)
}

func (s Script) String() string {
	actions, captions := 0, 0
	for _, st := range s.Steps {
		actions += len(st.Actions)
		captions += len(st.Captions)
	}
	return fmt.Sprintf("Script[Title=%q, Steps=%d, Actions=%d, Captions=%d]",
		s.Title, len(s.Steps), actions, captions)
}
