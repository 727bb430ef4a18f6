package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/patrickprogramme/cakeplayer/internal/actions"
	"github.com/patrickprogramme/cakeplayer/pkg/model"
)

const maxRate = 16

// Validate vérifie la configuration après normalisation.
// Retourne warnings (non-fataux) et une erreur si c'est critique.
func (c *Config) Validate() (warnings []string, err error) {
	if c == nil {
		return nil, fmt.Errorf("config nil")
	}

	if c.tickErr != nil {
		return warnings, fmt.Errorf("playback.tick_interval invalide %q : %w", c.Playback.TickInterval, c.tickErr)
	}
	if _, perr := actions.ParsePolicy(c.Playback.SkipPolicy); perr != nil {
		return warnings, fmt.Errorf("playback.skip_policy : %w", perr)
	}
	if c.Playback.Rate > maxRate {
		return warnings, fmt.Errorf("playback.rate trop élevé : %g (max %d)", c.Playback.Rate, maxRate)
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		warnings = append(warnings, fmt.Sprintf("log.level inconnu %q, info utilisé", c.Log.Level))
	}

	if c.Script != "" {
		if _, ferr := model.FormatFromPath(c.Script); ferr != nil {
			warnings = append(warnings, fmt.Sprintf("script : %v", ferr))
		} else if _, serr := os.Stat(c.Script); serr != nil {
			warnings = append(warnings, fmt.Sprintf("script introuvable : %s", c.Script))
		}
	}

	if c.Server.Addr == "" {
		warnings = append(warnings, "server.addr vide : le serveur écoutera sur un port aléatoire")
	}
	for _, o := range c.Server.AllowedOrigins {
		if strings.TrimSpace(o) == "*" {
			warnings = append(warnings, "server.allowed_origins contient \"*\" : toutes les origines sont acceptées")
		}
	}

	if st, serr := os.Stat(c.OutputDir); serr == nil && !st.IsDir() {
		return warnings, fmt.Errorf("output_dir n'est pas un répertoire : %s", c.OutputDir)
	}
	return warnings, nil
}
