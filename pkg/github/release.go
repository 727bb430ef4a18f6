// Package github interroge l'API des releases GitHub.
package github

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/patrickprogramme/cakeplayer/internal/fetch"
)

const DefaultBaseURL = "https://api.github.com"

type Asset struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
	ContentType        string `json:"content_type"`
}

type Release struct {
	TagName     string    `json:"tag_name"`
	Name        string    `json:"name"`
	PublishedAt time.Time `json:"published_at"`
	Body        string    `json:"body"`
	HTMLURL     string    `json:"html_url"`
	Assets      []Asset   `json:"assets"`
}

// Client : BaseURL vide = api.github.com, Fetch nil = fetch.Default.
type Client struct {
	BaseURL string
	Fetch   *fetch.Client
}

// LatestRelease retourne la dernière release publiée de owner/repo.
func (c *Client) LatestRelease(ctx context.Context, owner, repo string) (*Release, error) {
	base := strings.TrimRight(c.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	fc := c.Fetch
	if fc == nil {
		fc = fetch.Default
	}

	url := fmt.Sprintf("%s/repos/%s/%s/releases/latest", base, owner, repo)
	rel, err := fetch.JSON[Release](ctx, fc, url)
	if err != nil {
		return nil, fmt.Errorf("requête GitHub: %w", err)
	}
	if rel.TagName == "" {
		return nil, fmt.Errorf("release sans tag pour %s/%s", owner, repo)
	}
	return &rel, nil
}
