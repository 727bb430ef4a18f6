// Package fetch fournit des utilitaires légers et testables pour télécharger
// des ressources HTTP : scripts et fichiers de sous-titres distants, API GitHub.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultTimeout   = 15 * time.Second
	DefaultMaxBytes  = 10_000_000
	DefaultUserAgent = "cake/1.0"
)

// Erreurs exportées
var (
	ErrStatus   = errors.New("unexpected HTTP status")
	ErrTooLarge = errors.New("response body too large")
)

// Client regroupe les réglages d'un téléchargement. La valeur zéro est utilisable.
type Client struct {
	HTTP      *http.Client // nil = http.DefaultClient
	Timeout   time.Duration
	MaxBytes  int64
	UserAgent string
}

// Default est le client utilisé par les fonctions du paquet.
var Default = &Client{}

// IsURL indique si s est une URL http(s) plutôt qu'un chemin local.
func IsURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// Resolve résout ref par rapport à base (URL d'un script), comme un lien HTML.
func Resolve(base, ref string) (string, error) {
	b, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("fetch: invalid base %q: %w", base, err)
	}
	r, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("fetch: invalid ref %q: %w", ref, err)
	}
	return b.ResolveReference(r).String(), nil
}

// Bytes télécharge rawURL avec Default.
func Bytes(ctx context.Context, rawURL string) ([]byte, error) {
	return Default.Bytes(ctx, rawURL)
}

func (c *Client) timeout() time.Duration {
	if c.Timeout <= 0 {
		return DefaultTimeout
	}
	return c.Timeout
}

func (c *Client) maxBytes() int64 {
	if c.MaxBytes <= 0 {
		return DefaultMaxBytes
	}
	return c.MaxBytes
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP == nil {
		return http.DefaultClient
	}
	return c.HTTP
}

// get ouvre la réponse ; l'appelant ferme le body et appelle cancel.
func (c *Client) get(ctx context.Context, rawURL string, header http.Header) (*http.Response, context.CancelFunc, error) {
	// valider l'URL tôt
	if _, err := url.ParseRequestURI(rawURL); err != nil {
		return nil, nil, fmt.Errorf("fetch: invalid url %q: %w", rawURL, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		cancel()
		return nil, nil, fmt.Errorf("fetch: new request: %w", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	ua := c.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	req.Header.Set("User-Agent", ua)

	resp, err := c.httpClient().Do(req)
	if err != nil {
		cancel()
		return nil, nil, fmt.Errorf("fetch: request failed: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		cancel()
		return nil, nil, fmt.Errorf("%w: %s (%s)", ErrStatus, resp.Status, rawURL)
	}
	// si Content-Length connu et supérieur à maxBytes -> échouer vite
	if limit := c.maxBytes(); resp.ContentLength > limit {
		resp.Body.Close()
		cancel()
		return nil, nil, fmt.Errorf("%w: content-length %d > %d", ErrTooLarge, resp.ContentLength, limit)
	}
	return resp, cancel, nil
}

// Bytes télécharge l'URL et retourne les octets (tout en mémoire).
func (c *Client) Bytes(ctx context.Context, rawURL string) ([]byte, error) {
	resp, cancel, err := c.get(ctx, rawURL, nil)
	if err != nil {
		return nil, err
	}
	defer cancel()
	defer resp.Body.Close()

	limit := c.maxBytes()
	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1)) // +1 pour détecter dépassement
	if err != nil {
		return nil, fmt.Errorf("fetch: read body: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: >%d bytes", ErrTooLarge, limit)
	}
	return data, nil
}
