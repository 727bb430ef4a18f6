package model

import (
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"
)

// Seconds représente une durée ou une position en secondes (fractions autorisées).
type Seconds float64

// TimeString formate Seconds en "MM:SS" comme un lecteur vidéo.
// Les secondes sont tronquées, les minutes reviennent à 00 après 59 (les heures
// ne sont pas affichées). Exemple : 90 -> "01:30", 3661 -> "01:01".
// Une valeur négative ou invalide (voir Valid) donne "00:00".
func (s Seconds) TimeString() string {
	total := s.wholeSeconds()
	m := (total / 60) % 60
	sec := total % 60
	return fmt.Sprintf("%02d:%02d", m, sec)
}

// TimestampHHMMSS formate Seconds en "HH:MM:SS" (toujours 2 chiffres par composant).
// Exemple : 65 -> "00:01:05", 3661 -> "01:01:01".
func (s Seconds) TimestampHHMMSS() string {
	total := s.wholeSeconds()
	h := total / 3600
	m := (total % 3600) / 60
	sec := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, sec)
}

func (s Seconds) Milliseconds() int64 {
	return int64(math.Round(float64(s) * 1000))
}

// MaxSeconds borne les valeurs acceptées (environ 31 700 ans) : au-delà, la
// conversion en millisecondes entières déborderait.
const MaxSeconds Seconds = 1e12

// Valid indique si la valeur est un nombre fini, dans [-MaxSeconds, MaxSeconds].
func (s Seconds) Valid() bool {
	f := float64(s)
	return !math.IsNaN(f) && math.Abs(f) <= float64(MaxSeconds)
}

func (s Seconds) wholeSeconds() int64 {
	if !s.Valid() || s < 0 {
		return 0
	}
	return int64(math.Floor(float64(s)))
}

// SecondsFromMs convertit des millisecondes en Seconds.
func SecondsFromMs(ms int64) Seconds {
	return Seconds(float64(ms) / 1000)
}

// ParseClock lit "SS", "SS.s", "MM:SS" ou "HH:MM:SS" et retourne la valeur en secondes.
func ParseClock(s string) (Seconds, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("temps vide")
	}
	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return 0, fmt.Errorf("format de temps inconnu: %q", s)
	}
	var total float64
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, fmt.Errorf("format de temps inconnu: %q", s)
		}
		if v < 0 || (i > 0 && v >= 60) {
			return 0, fmt.Errorf("composant hors limite dans %q", s)
		}
		total = total*60 + v
	}
	return Seconds(total), nil
}

// constantes pour les formats de fichiers
type Format string

const (
	FormatYAML     Format = "yaml"
	FormatJSON     Format = "json"
	FormatTOML     Format = "toml"
	FormatSRT      Format = "srt"
	FormatVTT      Format = "vtt"
	FormatTXT      Format = "txt"
	FormatMARKDOWN Format = "md"
)

// du format en chaine à la constante de type Format, return une erreur si format inconnu
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "yaml", "yml":
		return FormatYAML, nil
	case "json":
		return FormatJSON, nil
	case "toml":
		return FormatTOML, nil
	case "srt":
		return FormatSRT, nil
	case "vtt":
		return FormatVTT, nil
	case "txt":
		return FormatTXT, nil
	case "md", "markdown":
		return FormatMARKDOWN, nil
	default:
		return "", fmt.Errorf("format demandé inconnu: %s", s)
	}
}

// FormatFromPath déduit le format depuis l'extension du fichier.
func FormatFromPath(path string) (Format, error) {
	ext := filepath.Ext(path)
	if ext == "" {
		return "", fmt.Errorf("pas d'extension pour %q", path)
	}
	return ParseFormat(ext)
}

func (f Format) IsScript() bool {
	return f == FormatYAML || f == FormatJSON || f == FormatTOML
}

func (f Format) IsCaptions() bool {
	return f == FormatSRT || f == FormatVTT
}

func (f Format) Extension() string {
	return "." + string(f)
}

func (f Format) String() string {
	return string(f)
}
