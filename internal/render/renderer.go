package render

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"text/template"
)

// SheetTemplate est le nom du template de la fiche de script.
const SheetTemplate = "script_sheet.md.tmpl"

// Renderer parse les templates au premier rendu (sync.Once) puis les exécute.
type Renderer struct {
	templates *template.Template
	fsys      fs.FS    // embed.FS ou os.DirFS
	patterns  []string // patterns relatifs au fsys, ex: "templates/*.tmpl"
	once      sync.Once
	err       error // erreur d'initialisation mémorisée
}

// NewRendererFromFS prépare un Renderer sans parser tout de suite.
func NewRendererFromFS(fsys fs.FS, patterns []string) (*Renderer, error) {
	if fsys == nil {
		return nil, fmt.Errorf("fsys est nil")
	}
	if len(patterns) == 0 {
		return nil, fmt.Errorf("aucun template fourni")
	}
	return &Renderer{
		fsys:     fsys,
		patterns: append([]string(nil), patterns...),
	}, nil
}

// NewRenderer utilise templatesDir s'il contient la fiche, sinon les templates embarqués.
func NewRenderer(templatesDir string, embedded fs.FS) (*Renderer, error) {
	if templatesDir != "" {
		if _, err := os.Stat(filepath.Join(templatesDir, SheetTemplate)); err == nil {
			r, err := NewRendererFromFS(os.DirFS(templatesDir), []string{"*.tmpl"})
			if err != nil {
				return nil, err
			}
			return r, r.ParseNow()
		}
	}
	r, err := NewRendererFromFS(embedded, []string{"templates/*.tmpl"})
	if err != nil {
		return nil, err
	}
	return r, r.ParseNow()
}

func (r *Renderer) parseTemplates() error {
	r.once.Do(func() {
		t := template.New("root").Funcs(baseFuncMap())
		for _, p := range r.patterns {
			var err error
			t, err = t.ParseFS(r.fsys, p)
			if err != nil {
				r.err = fmt.Errorf("parse pattern %q: %w", p, err)
				return
			}
		}
		r.templates = t
	})
	return r.err
}

// ParseNow force le parsing et retourne l'erreur éventuelle.
func (r *Renderer) ParseNow() error {
	if r == nil {
		return fmt.Errorf("nil renderer")
	}
	return r.parseTemplates()
}

// Render exécute le template tmplName (basename du .tmpl) avec data.
func (r *Renderer) Render(tmplName string, data SheetData) ([]byte, error) {
	if r == nil {
		return nil, fmt.Errorf("renderer is nil")
	}
	if err := r.parseTemplates(); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := r.templates.ExecuteTemplate(&buf, tmplName, data); err != nil {
		return nil, fmt.Errorf("execute template %s: %w", tmplName, err)
	}
	return buf.Bytes(), nil
}

// TemplateNames retourne les noms des templates parsés (les patterns si pas encore parsé).
func (r *Renderer) TemplateNames() []string {
	if r == nil {
		return nil
	}
	if r.templates == nil {
		return append([]string(nil), r.patterns...)
	}
	var names []string
	for _, t := range r.templates.Templates() {
		if n := t.Name(); n != "" && n != "root" {
			names = append(names, n)
		}
	}
	return names
}

func baseFuncMap() template.FuncMap {
	return template.FuncMap{
		"yamlListInline": yamlListInline,
		"markdownList":   markdownListPure,
		"quoteBlock":     quoteBlockPure,
		"warning":        warningFunc,
		"formatSteps":    formatStepsPure,
		"formatAction":   formatActionPure,
		"hhmmss":         hhmmss,
		"clock":          clock,
	}
}
