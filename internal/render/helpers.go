package render

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/patrickprogramme/cakeplayer/pkg/model"
)

// yamlListInline transforme {"a", "b"} -> ["a", "b"]
func yamlListInline(xs []string) string {
	if len(xs) == 0 {
		return "[]"
	}
	quoted := make([]string, 0, len(xs))
	for _, s := range xs {
		quoted = append(quoted, strconv.Quote(s))
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

// markdownListPure génère des lignes "- item" (avec saut final).
func markdownListPure(xs []string) string {
	var b strings.Builder
	for _, s := range xs {
		trim := strings.TrimSpace(s)
		if trim == "" {
			continue
		}
		b.WriteString("- ")
		b.WriteString(trim)
		b.WriteString("\n")
	}
	return b.String()
}

// quoteBlockPure : préfixe chaque ligne par "> ".
func quoteBlockPure(s string) string {
	if s == "" {
		return ""
	}
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i := range lines {
		lines[i] = "> " + lines[i]
	}
	return strings.Join(lines, "\n")
}

// buildCalloutBase construit l'en-tête "> [!KIND] titre".
func buildCalloutBase(kind, title string) string {
	var clean []rune
	for _, r := range strings.ToUpper(strings.TrimSpace(kind)) {
		if unicode.IsLetter(r) || r == '-' || r == '_' {
			clean = append(clean, r)
		}
	}
	if len(clean) == 0 {
		clean = []rune("NOTE")
	}
	header := fmt.Sprintf("> [!%s]", string(clean))
	if t := strings.TrimSpace(title); t != "" {
		header += " " + t
	}
	return header + "\n"
}

// warningFunc : {{ warning "Titre" .Warnings }} ; le contenu peut être une
// chaîne ou une liste (une ligne par élément).
func warningFunc(title string, content any) string {
	var body string
	switch v := content.(type) {
	case []string:
		body = markdownListPure(v)
	default:
		body = fmt.Sprint(v)
	}
	body = strings.TrimRight(body, "\n")
	if body == "" {
		return buildCalloutBase("warning", title) + "> \n"
	}
	return buildCalloutBase("warning", title) + quoteBlockPure(body) + "\n"
}

// formatStepsPure : une ligne "- HH:MM:SS - Titre" par step.
func formatStepsPure(steps []SheetStep) string {
	var b strings.Builder
	for _, s := range steps {
		title := strings.TrimSpace(strings.ReplaceAll(s.Title, "\n", " "))
		fmt.Fprintf(&b, "- %s - %s\n", s.Offset.TimestampHHMMSS(), title)
	}
	return b.String()
}

// formatActionPure : "`MM:SS` **type** `selector` → valeur"
func formatActionPure(a model.Action) string {
	var b strings.Builder
	fmt.Fprintf(&b, "`%s` **%s**", a.On.TimeString(), a.Type)
	if a.Selector != "" {
		fmt.Fprintf(&b, " `%s`", a.Selector)
	}
	if a.Value != "" {
		fmt.Fprintf(&b, " → %s", strconv.Quote(a.Value))
	}
	if len(a.Params) > 0 {
		keys := make([]string, 0, len(a.Params))
		for k := range a.Params {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, k+"="+a.Params[k])
		}
		fmt.Fprintf(&b, " (%s)", strings.Join(parts, ", "))
	}
	return b.String()
}

func hhmmss(s model.Seconds) string {
	return s.TimestampHHMMSS()
}

func clock(s model.Seconds) string {
	return s.TimeString()
}
