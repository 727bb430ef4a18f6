package updater

import "github.com/patrickprogramme/cakeplayer/pkg/github"

// Dépôt des releases de cake.
const (
	Owner = "patrickprogramme"
	Repo  = "cakeplayer"
)

// UpdateCheck contient le résultat de la comparaison
type UpdateCheck struct {
	CurrentVersion string          // version du binaire
	LatestRelease  *github.Release // info complète de la release distante
	IsUpToDate     bool            // true si CurrentVersion == LatestRelease.TagName (préfixe v ignoré)
}
