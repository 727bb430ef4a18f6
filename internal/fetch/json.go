package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// countingReader compte le nombre d'octets lus via Read.
type countingReader struct {
	R io.Reader
	N int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.R.Read(p)
	if n > 0 {
		c.N += int64(n)
	}
	return n, err
}

// JSONInto télécharge rawURL et décode le JSON directement dans dst (pointeur).
// Le décodage se fait en streaming sur un reader limité à MaxBytes.
func (c *Client) JSONInto(ctx context.Context, rawURL string, dst any) error {
	header := http.Header{"Accept": []string{"application/json"}}
	resp, cancel, err := c.get(ctx, rawURL, header)
	if err != nil {
		return err
	}
	defer cancel()
	defer resp.Body.Close()

	limit := c.maxBytes()
	cr := &countingReader{R: io.LimitReader(resp.Body, limit+1)}
	if err := json.NewDecoder(cr).Decode(dst); err != nil {
		if cr.N > limit {
			return ErrTooLarge
		}
		return fmt.Errorf("fetch json: decode: %w", err)
	}
	// si on a lu plus que limit, le decode a consommé limit+1 => overflow
	if cr.N > limit {
		return ErrTooLarge
	}
	return nil
}

// JSON générique : fetch + decode dans une valeur typée.
func JSON[T any](ctx context.Context, c *Client, rawURL string) (T, error) {
	var v T
	if err := c.JSONInto(ctx, rawURL, &v); err != nil {
		var zero T
		return zero, err
	}
	return v, nil
}
