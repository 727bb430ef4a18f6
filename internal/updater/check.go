package updater

import (
	"context"
	"fmt"
	"strings"

	"github.com/patrickprogramme/cakeplayer/pkg/github"
)

// Check compare la version locale et la dernière release GitHub.
func Check(ctx context.Context, gh *github.Client, localVer string) (*UpdateCheck, error) {
	latest, err := gh.LatestRelease(ctx, Owner, Repo)
	if err != nil {
		return nil, fmt.Errorf("impossible de récupérer la release GitHub : %w", err)
	}

	return &UpdateCheck{
		CurrentVersion: localVer,
		LatestRelease:  latest,
		IsUpToDate:     normalizeVersion(localVer) == normalizeVersion(latest.TagName),
	}, nil
}

func normalizeVersion(v string) string {
	return strings.TrimPrefix(strings.TrimSpace(v), "v")
}

// GetUpdateLink retourne l'asset correspondant au système (nom contenant goos et
// goarch), sinon la page de la release.
func (u UpdateCheck) GetUpdateLink(goos, goarch string) string {
	for _, a := range u.LatestRelease.Assets {
		name := strings.ToLower(a.Name)
		if strings.Contains(name, goos) && strings.Contains(name, goarch) {
			return a.BrowserDownloadURL
		}
	}
	return u.LatestRelease.HTMLURL
}
