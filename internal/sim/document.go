// Package sim simule l'utilisateur : un document en mémoire (URL, éléments,
// focus, scroll) que l'Executor modifie au rythme des actions du script.
package sim

import (
	"fmt"
	"maps"
	"slices"
	"sync"
)

// Element est l'état d'un élément repéré par son sélecteur.
type Element struct {
	Selector string `json:"selector"`
	Value    string `json:"value,omitempty"`
	Clicks   int    `json:"clicks,omitempty"`
	Hovered  bool   `json:"hovered,omitempty"`
}

// Entry est une ligne du journal des actions appliquées.
type Entry struct {
	Seq      int    `json:"seq"`
	Kind     string `json:"kind"`
	Selector string `json:"selector,omitempty"`
	Detail   string `json:"detail,omitempty"`
}

func (e Entry) String() string {
	s := fmt.Sprintf("#%d %s", e.Seq, e.Kind)
	if e.Selector != "" {
		s += " " + e.Selector
	}
	if e.Detail != "" {
		s += " " + e.Detail
	}
	return s
}

// Snapshot est une copie figée du document, sérialisable en JSON.
type Snapshot struct {
	URL      string    `json:"url"`
	Focus    string    `json:"focus,omitempty"`
	ScrollX  float64   `json:"scrollX"`
	ScrollY  float64   `json:"scrollY"`
	Elements []Element `json:"elements"`
	Journal  []Entry   `json:"journal"`
}

// Document est la cible des actions. Sûr en concurrence.
type Document struct {
	mu       sync.RWMutex
	url      string
	focus    string
	scrollX  float64
	scrollY  float64
	elements map[string]*Element
	journal  []Entry
}

func NewDocument(url string) *Document {
	return &Document{url: url, elements: make(map[string]*Element)}
}

func (d *Document) URL() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.url
}

func (d *Document) Focus() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.focus
}

// Element retourne une copie de l'élément (false s'il n'a jamais été touché).
func (d *Document) Element(selector string) (Element, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	el, ok := d.elements[selector]
	if !ok {
		return Element{}, false
	}
	return *el, true
}

func (d *Document) Journal() []Entry {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return slices.Clone(d.journal)
}

func (d *Document) Snapshot() Snapshot {
	d.mu.RLock()
	defer d.mu.RUnlock()
	snap := Snapshot{
		URL:     d.url,
		Focus:   d.focus,
		ScrollX: d.scrollX,
		ScrollY: d.scrollY,
		Journal: slices.Clone(d.journal),
	}
	for _, sel := range slices.Sorted(maps.Keys(d.elements)) {
		snap.Elements = append(snap.Elements, *d.elements[sel])
	}
	return snap
}

// Reset vide le document et repart de url.
func (d *Document) Reset(url string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.url = url
	d.focus = ""
	d.scrollX, d.scrollY = 0, 0
	d.elements = make(map[string]*Element)
	d.journal = nil
}

// el retourne l'élément, créé à la volée. Appelé verrou tenu.
func (d *Document) el(selector string) *Element {
	e, ok := d.elements[selector]
	if !ok {
		e = &Element{Selector: selector}
		d.elements[selector] = e
	}
	return e
}

func (d *Document) record(kind, selector, detail string) {
	d.journal = append(d.journal, Entry{
		Seq:      len(d.journal) + 1,
		Kind:     kind,
		Selector: selector,
		Detail:   detail,
	})
}

func (d *Document) click(selector string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.el(selector).Clicks++
	d.focus = selector
	d.record("click", selector, "")
}

func (d *Document) input(selector, value string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.el(selector).Value = value
	d.focus = selector
	d.record("input", selector, fmt.Sprintf("%q", value))
}

func (d *Document) hover(selector string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, e := range d.elements {
		e.Hovered = false
	}
	d.el(selector).Hovered = true
	d.record("hover", selector, "")
}

func (d *Document) setFocus(selector string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.el(selector)
	d.focus = selector
	d.record("focus", selector, "")
}

func (d *Document) scroll(x, y float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.scrollX, d.scrollY = x, y
	d.record("scroll", "", fmt.Sprintf("%g,%g", x, y))
}

// navigate change d'URL : focus, scroll et survol sont remis à zéro,
// les valeurs saisies restent (même comportement qu'une SPA).
func (d *Document) navigate(url string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.url = url
	d.focus = ""
	d.scrollX, d.scrollY = 0, 0
	for _, e := range d.elements {
		e.Hovered = false
	}
	d.record("navigate", "", url)
}
