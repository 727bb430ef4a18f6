package captions

import (
	"slices"
	"sort"
	"strings"
)

// entry est un élément de la ligne de temps du transcript : une phrase ou un
// intertitre de step. order départage deux entrées au même timestamp.
type entry struct {
	ts        int64
	isHeading bool
	text      string
	order     int
}

type textLayout int

const (
	asPlain textLayout = iota
	asCollapsed
)

func absInt64(x int64) int64 {
	if x < 0 {
		return -x
	}
	return x
}

// nearestPhrase : recherche binaire de la phrase la plus proche de ts.
// Retourne (-1, maxInt64) si phrases est vide. En cas d'égalité de distance,
// le voisin de droite gagne.
func nearestPhrase(phrases []Phrase, ts int64) (int, int64) {
	const maxInt64 = int64(1<<62 - 1)
	n := len(phrases)
	if n == 0 {
		return -1, maxInt64
	}

	idx, found := slices.BinarySearchFunc(phrases, ts, func(p Phrase, key int64) int {
		switch {
		case p.TimestampMs < key:
			return -1
		case p.TimestampMs > key:
			return 1
		}
		return 0
	})
	if found {
		return idx, 0
	}

	best, dist := -1, maxInt64
	if idx < n {
		best, dist = idx, absInt64(phrases[idx].TimestampMs-ts)
	}
	if idx > 0 {
		if d := absInt64(ts - phrases[idx-1].TimestampMs); d < dist {
			best, dist = idx-1, d
		}
	}
	return best, dist
}

// transcriptWithHeadings fusionne phrases et intertitres.
// Les intertitres qui tombent au milieu des phrases sont recollés juste avant la
// phrase la plus proche si elle est à moins de thresholdMs (0 => toujours).
func (t Transcript) transcriptWithHeadings(thresholdMs int64, layout textLayout) string {
	phrases := slices.Clone(t.Phrases)
	headings := slices.Clone(t.Headings)
	sort.SliceStable(phrases, func(i, j int) bool { return phrases[i].TimestampMs < phrases[j].TimestampMs })
	sort.SliceStable(headings, func(i, j int) bool { return headings[i].StartMs < headings[j].StartMs })

	if len(phrases) == 0 {
		var b strings.Builder
		for _, h := range headings {
			b.WriteString(h.Title)
		}
		return b.String()
	}

	first := phrases[0].TimestampMs
	last := phrases[len(phrases)-1].TimestampMs

	entries := make([]entry, 0, len(phrases)+len(headings))
	order := 0
	for _, h := range headings {
		if h.StartMs <= first {
			entries = append(entries, entry{ts: h.StartMs, isHeading: true, text: h.Title, order: order})
			order++
		}
	}
	for _, p := range phrases {
		entries = append(entries, entry{ts: p.TimestampMs, text: p.Text, order: order})
		order++
	}
	for _, h := range headings {
		if h.StartMs <= first || h.StartMs > last {
			continue
		}
		ts := h.StartMs
		if i, dist := nearestPhrase(phrases, ts); i >= 0 && (thresholdMs == 0 || dist <= thresholdMs) {
			ts = max(phrases[i].TimestampMs-1, 0)
		}
		entries = append(entries, entry{ts: ts, isHeading: true, text: h.Title, order: order})
		order++
	}
	for _, h := range headings {
		if h.StartMs > last {
			entries = append(entries, entry{ts: h.StartMs, isHeading: true, text: h.Title, order: order})
			order++
		}
	}

	return render(entries, layout)
}

func render(entries []entry, layout textLayout) string {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.ts != b.ts {
			return a.ts < b.ts
		}
		if a.isHeading != b.isHeading {
			return a.isHeading
		}
		return a.order < b.order
	})

	sep, headingSep := "\n", "\n\n"
	if layout == asCollapsed {
		sep, headingSep = " ", "\n"
	}

	var b strings.Builder
	inContent := false
	for _, e := range entries {
		if e.isHeading {
			if inContent {
				b.WriteString(headingSep)
				inContent = false
			}
			b.WriteString("## ")
			b.WriteString(strings.TrimSpace(strings.TrimLeft(e.text, "# ")))
			b.WriteString(headingSep)
			continue
		}
		text := strings.TrimSpace(e.text)
		if text == "" {
			continue
		}
		if inContent {
			b.WriteString(sep)
		}
		b.WriteString(text)
		inContent = true
	}
	return strings.TrimRight(b.String(), " \t\r\n") + "\n"
}
