package bootstrap

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
)

// Assets décrit où trouver les ressources dans le FS embarqué.
type Assets struct {
	FS           fs.FS
	ConfigAsset  string   // ex: "cake.example.yaml"
	ConfigName   string   // nom sur disque, ex: "cake.yaml"
	Templates    []string // ex: "templates/script_sheet.md.tmpl"
	ScriptsDir   string   // ex: "scripts"
	TemplatesDir string   // nom du dossier de templates sur disque
}

// Report liste ce que InitProject a fait, fichier par fichier.
type Report struct {
	Lines []string
}

func (r *Report) add(status, p string) {
	r.Lines = append(r.Lines, fmt.Sprintf("%-20s %s", status, p))
}

// EnsureBesideBinary prépare binDir au premier lancement : config et templates.
func EnsureBesideBinary(binDir string, a Assets) (configPath string, created bool, err error) {
	configPath = filepath.Join(binDir, a.ConfigName)
	created, err = EnsureConfigPresent(configPath, a.FS, a.ConfigAsset)
	if err != nil {
		return configPath, false, err
	}
	if err := EnsureTemplatesPresent(filepath.Join(binDir, a.TemplatesDir), a.FS, a.Templates); err != nil {
		return configPath, created, fmt.Errorf("templates : %w", err)
	}
	return configPath, created, nil
}

// InitProject crée dans dir une config, les templates et le script de démo ("cake init").
func InitProject(dir string, a Assets, force bool) (*Report, error) {
	rep := &Report{}

	created, err := EnsureConfigPresent(filepath.Join(dir, a.ConfigName), a.FS, a.ConfigAsset)
	if err != nil {
		return rep, err
	}
	if created {
		rep.add(StatusWritten, a.ConfigName)
	} else {
		rep.add("kept", a.ConfigName)
	}

	for _, src := range []struct{ prefix, dest string }{
		{"templates", filepath.Join(dir, a.TemplatesDir)},
		{a.ScriptsDir, filepath.Join(dir, a.ScriptsDir)},
	} {
		status, err := ExportDefaults(a.FS, src.prefix, src.dest, force)
		if err != nil {
			return rep, err
		}
		keys := make([]string, 0, len(status))
		for k := range status {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			rep.add(status[k], k)
		}
	}
	return rep, nil
}
