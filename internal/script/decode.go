// Package script lit un script cake (YAML, JSON ou TOML) et le transforme en
// timeline prête à être jouée.
package script

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/patrickprogramme/cakeplayer/internal/fetch"
	"github.com/patrickprogramme/cakeplayer/pkg/model"
)

var ErrUnsupportedFormat = errors.New("script: unsupported format")

// Load lit le fichier path ; le format est déduit de l'extension.
func Load(path string) (*model.Script, error) {
	return LoadContext(context.Background(), path)
}

// LoadContext accepte aussi une URL http(s).
func LoadContext(ctx context.Context, path string) (*model.Script, error) {
	format, err := formatOf(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}

	var r io.Reader
	if fetch.IsURL(path) {
		data, err := fetch.Bytes(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("download script: %w", err)
		}
		r = bytes.NewReader(data)
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open script: %w", err)
		}
		defer f.Close()
		r = f
	}

	s, err := Decode(r, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// formatOf lit l'extension du chemin, ou du chemin de l'URL (sans la query).
func formatOf(path string) (model.Format, error) {
	if fetch.IsURL(path) {
		u, err := url.Parse(path)
		if err != nil {
			return "", err
		}
		path = u.Path
	}
	return model.FormatFromPath(path)
}

// Decode lit un script depuis r. Les clés inconnues sont refusées.
func Decode(r io.Reader, format model.Format) (*model.Script, error) {
	var s model.Script
	switch format {
	case model.FormatYAML:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(&s); err != nil {
			if errors.Is(err, io.EOF) {
				return nil, errors.New("empty script")
			}
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
	case model.FormatJSON:
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&s); err != nil {
			return nil, fmt.Errorf("decode json: %w", err)
		}
	case model.FormatTOML:
		md, err := toml.NewDecoder(r).Decode(&s)
		if err != nil {
			return nil, fmt.Errorf("decode toml: %w", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("decode toml: unknown keys %v", undecoded)
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	return &s, nil
}

// Encode écrit le script dans le format demandé (utilisé par "cake export").
func Encode(s *model.Script, format model.Format) ([]byte, error) {
	switch format {
	case model.FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(s); err != nil {
			return nil, fmt.Errorf("encode yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("encode yaml: %w", err)
		}
		return buf.Bytes(), nil
	case model.FormatJSON:
		b, err := json.MarshalIndent(s, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode json: %w", err)
		}
		return append(b, '\n'), nil
	case model.FormatTOML:
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(s); err != nil {
			return nil, fmt.Errorf("encode toml: %w", err)
		}
		return buf.Bytes(), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
}
