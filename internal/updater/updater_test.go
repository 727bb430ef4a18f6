package updater

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patrickprogramme/cakeplayer/pkg/github"
)

const releaseJSON = `{
  "tag_name": "v0.3.0",
  "name": "cake 0.3.0",
  "html_url": "https://github.com/patrickprogramme/cakeplayer/releases/tag/v0.3.0",
  "assets": [
    {"name": "cake_linux_amd64.tar.gz", "browser_download_url": "https://dl.example/linux"},
    {"name": "cake_windows_amd64.zip", "browser_download_url": "https://dl.example/windows"}
  ]
}`

func newGitHub(t *testing.T) *github.Client {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/patrickprogramme/cakeplayer/releases/latest" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(releaseJSON))
	}))
	t.Cleanup(ts.Close)
	return &github.Client{BaseURL: ts.URL}
}

func TestCheck(t *testing.T) {
	gh := newGitHub(t)

	check, err := Check(context.Background(), gh, "0.3.0")
	require.NoError(t, err)
	assert.True(t, check.IsUpToDate)
	assert.Equal(t, "cake 0.3.0", check.LatestRelease.Name)

	check, err = Check(context.Background(), gh, "v0.2.1")
	require.NoError(t, err)
	assert.False(t, check.IsUpToDate)

	assert.Equal(t, "https://dl.example/linux", check.GetUpdateLink("linux", "amd64"))
	assert.Equal(t, "https://dl.example/windows", check.GetUpdateLink("windows", "amd64"))
	assert.Equal(t, check.LatestRelease.HTMLURL, check.GetUpdateLink("darwin", "arm64"))
}

func TestCheckFailure(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	defer ts.Close()

	_, err := Check(context.Background(), &github.Client{BaseURL: ts.URL}, "dev")
	assert.Error(t, err)
}
