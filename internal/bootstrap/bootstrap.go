// Package bootstrap copie sur disque les ressources embarquées (config,
// templates, script de démo) sans jamais écraser un fichier modifié par
// l'utilisateur, sauf demande explicite.
package bootstrap

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/patrickprogramme/cakeplayer/internal/fsutil"
)

// Statuts retournés par ExportDefaults, par fichier embarqué.
const (
	StatusWritten     = "written"
	StatusUnchanged   = "unchanged"
	StatusSkipped     = "skipped (different)"
	StatusOverwritten = "overwritten"
)

// ExportDefaults copie récursivement les fichiers sous srcPrefix (dans fsys)
// vers destDir en préservant la hiérarchie relative.
// force=true écrase les fichiers différents après une sauvegarde .bak.
func ExportDefaults(fsys fs.FS, srcPrefix, destDir string, force bool) (map[string]string, error) {
	status := make(map[string]string)

	err := fs.WalkDir(fsys, srcPrefix, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		rel := p
		if srcPrefix != "." {
			rel = path.Clean(p[len(srcPrefix):])
			if len(rel) > 0 && rel[0] == '/' {
				rel = rel[1:]
			}
		}
		if rel == "" || rel == "." {
			return nil
		}
		destPath := filepath.Join(destDir, filepath.FromSlash(rel))

		if d.IsDir() {
			return os.MkdirAll(destPath, 0o755)
		}

		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return fmt.Errorf("read embedded %s: %w", p, err)
		}

		existing, err := os.ReadFile(destPath)
		switch {
		case err != nil:
			if err := fsutil.WriteFileAtomic(destPath, data, 0o644); err != nil {
				return err
			}
			status[p] = StatusWritten
		case bytes.Equal(existing, data):
			status[p] = StatusUnchanged
		case !force:
			status[p] = StatusSkipped
		default:
			backup := destPath + ".bak." + time.Now().Format("20060102T150405")
			if err := fsutil.WriteFileAtomic(backup, existing, 0o644); err != nil {
				return fmt.Errorf("backup failed for %s: %w", destPath, err)
			}
			if err := fsutil.WriteFileAtomic(destPath, data, 0o644); err != nil {
				return err
			}
			status[p] = StatusOverwritten
		}
		return nil
	})
	return status, err
}

// EnsureTemplatesPresent s'assure que les templates listés existent dans tplDir.
// srcFiles sont des chemins DANS fsys (ex: "templates/script_sheet.md.tmpl").
// Crée tplDir si besoin, copie les fichiers manquants, ne remplace jamais un
// fichier existant.
func EnsureTemplatesPresent(tplDir string, fsys fs.FS, srcFiles []string) error {
	parent := filepath.Dir(tplDir)
	if st, err := os.Stat(parent); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("le répertoire parent n'existe pas : %s", parent)
		}
		return fmt.Errorf("échec lors du test du répertoire parent %s : %w", parent, err)
	} else if !st.IsDir() {
		return fmt.Errorf("le parent existe mais n'est pas un répertoire : %s", parent)
	}

	if err := os.MkdirAll(tplDir, 0o755); err != nil {
		return fmt.Errorf("échec de création du répertoire de templates %s : %w", tplDir, err)
	}

	for _, src := range srcFiles {
		dest := filepath.Join(tplDir, path.Base(src))
		if _, err := os.Stat(dest); err == nil {
			continue
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("échec lors du test du fichier %s : %w", dest, err)
		}
		if err := copyEmbedded(fsys, src, dest); err != nil {
			return err
		}
	}
	return nil
}

// EnsureConfigPresent copie assetPath (dans fsys) vers dstPath si dstPath
// n'existe pas encore. Retourne true si le fichier a été créé.
func EnsureConfigPresent(dstPath string, fsys fs.FS, assetPath string) (bool, error) {
	if _, err := os.Stat(dstPath); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("échec stat fichier cible %s: %w", dstPath, err)
	}
	if err := copyEmbedded(fsys, assetPath, dstPath); err != nil {
		return false, err
	}
	return true, nil
}

func copyEmbedded(fsys fs.FS, src, dest string) error {
	data, err := fs.ReadFile(fsys, src)
	if err != nil {
		return fmt.Errorf("lecture de la ressource embarquée %s : %w", src, err)
	}
	if err := fsutil.WriteFileAtomic(dest, data, 0o644); err != nil {
		return fmt.Errorf("échec d'écriture du fichier %s : %w", dest, err)
	}
	return nil
}
