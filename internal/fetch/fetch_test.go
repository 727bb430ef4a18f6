package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/demo.cake.yaml", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, DefaultUserAgent, r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte("title: Demo\n"))
	})
	mux.HandleFunc("/big", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 64)))
	})
	mux.HandleFunc("/release", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		_, _ = w.Write([]byte(`{"tag_name":"v1.2.0"}`))
	})
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

func TestBytes(t *testing.T) {
	ts := newServer(t)
	ctx := context.Background()

	data, err := Bytes(ctx, ts.URL+"/demo.cake.yaml")
	require.NoError(t, err)
	assert.Equal(t, "title: Demo\n", string(data))

	_, err = Bytes(ctx, ts.URL+"/missing")
	assert.ErrorIs(t, err, ErrStatus)

	small := &Client{MaxBytes: 10}
	_, err = small.Bytes(ctx, ts.URL+"/big")
	assert.ErrorIs(t, err, ErrTooLarge)

	_, err = Bytes(ctx, "not a url")
	assert.Error(t, err)
}

func TestJSON(t *testing.T) {
	ts := newServer(t)

	type release struct {
		TagName string `json:"tag_name"`
	}
	got, err := JSON[release](context.Background(), Default, ts.URL+"/release")
	require.NoError(t, err)
	assert.Equal(t, "v1.2.0", got.TagName)

	_, err = JSON[release](context.Background(), Default, ts.URL+"/big")
	assert.Error(t, err)
}

func TestIsURLAndResolve(t *testing.T) {
	assert.True(t, IsURL("https://cake.example/demo.yaml"))
	assert.True(t, IsURL("http://localhost:8080/a"))
	assert.False(t, IsURL("scripts/demo.yaml"))
	assert.False(t, IsURL("C:/scripts/demo.yaml"))

	got, err := Resolve("https://cake.example/scripts/demo.yaml", "talk.srt")
	require.NoError(t, err)
	assert.Equal(t, "https://cake.example/scripts/talk.srt", got)

	got, err = Resolve("https://cake.example/scripts/demo.yaml", "/subs/talk.vtt")
	require.NoError(t, err)
	assert.Equal(t, "https://cake.example/subs/talk.vtt", got)
}
