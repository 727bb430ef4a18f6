package config

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/patrickprogramme/cakeplayer/internal/assets"
	"github.com/patrickprogramme/cakeplayer/internal/fsutil"
)

const (
	CurrentConfigVersion = 2
	DefaultFileName      = "cake.yaml"

	defaultTick        = 100 * time.Millisecond
	defaultBroadcastHz = 10
)

// struct pour les paramètres de configuration
type Config struct {
	// Chemins
	Script       string `yaml:"script"`
	OutputDir    string `yaml:"output_dir"`
	TemplatesDir string `yaml:"templates_dir"`

	Playback struct {
		TickInterval      string  `yaml:"tick_interval"`
		Rate              float64 `yaml:"rate"`
		SkipPolicy        string  `yaml:"skip_policy"`
		Autoplay          bool    `yaml:"autoplay"`
		FinalStepDuration float64 `yaml:"final_step_duration"`

		// v1 : intervalle en millisecondes, remplacé par tick_interval
		TickMs int `yaml:"tick_ms,omitempty"`

		// Tick est TickInterval parsé par normalizeConfig
		Tick time.Duration `yaml:"-"`
	} `yaml:"playback"`

	Server struct {
		Addr           string   `yaml:"addr"`
		AllowedOrigins []string `yaml:"allowed_origins"`
		BroadcastHz    float64  `yaml:"broadcast_hz"`
	} `yaml:"server"`

	Log struct {
		Level string `yaml:"level"`
		Color bool   `yaml:"color"`
	} `yaml:"log"`

	// copie du timestamp courant dans le presse-papier (commande "c")
	Clipboard bool `yaml:"clipboard"`

	ConfigVersion int `yaml:"config_version"`

	configFilePath string
	tickErr        error
}

// Configuration par défaut (fallback si l'asset embarqué est manquant)
func defaultConfig() *Config {
	c := &Config{}

	c.Script = ""
	c.OutputDir = "."
	c.TemplatesDir = "templates"

	c.Playback.TickInterval = defaultTick.String()
	c.Playback.Rate = 1
	c.Playback.SkipPolicy = "replay_all"
	c.Playback.Autoplay = false
	c.Playback.FinalStepDuration = 0

	c.Server.Addr = "127.0.0.1:8765"
	c.Server.AllowedOrigins = []string{"http://localhost:*", "http://127.0.0.1:*"}
	c.Server.BroadcastHz = defaultBroadcastHz

	c.Log.Level = "info"
	c.Log.Color = true

	c.Clipboard = true

	c.ConfigVersion = CurrentConfigVersion
	return c
}

// Default retourne la configuration par défaut normalisée (utile sans fichier).
func Default() *Config {
	c := defaultConfig()
	c.normalizeConfig()
	return c
}

// Load lit la config ; si le fichier n'existe pas, on copie l'exemple embarqué.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultFileName
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := createDefaultConfigFromEmbedded(path); err != nil {
			return nil, fmt.Errorf("échec de création du fichier de configuration par défaut : %w", err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("lecture du fichier de configuration %s impossible : %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("analyse du fichier de configuration %s impossible : %w", path, err)
	}
	cfg.configFilePath = path

	// fichier plus ancien -> sauvegarde, migration, réécriture
	if cfg.ConfigVersion < CurrentConfigVersion {
		if err := orchestrateConfigUpgrade(cfg, cfg.ConfigVersion); err != nil {
			return nil, fmt.Errorf("échec de mise à niveau de la configuration : %w", err)
		}
		cfg.normalizeConfig()
	}
	return cfg, nil
}

// Parse applique le YAML par-dessus les valeurs par défaut.
func Parse(data []byte) (*Config, error) {
	cfg := defaultConfig()

	// corriger les chemins Windows avec des backslashes
	data = bytes.ReplaceAll(data, []byte(`\`), []byte(`/`))

	// les champs absents conservent les valeurs par défaut
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	cfg.normalizeConfig()
	return cfg, nil
}

// Path retourne le fichier d'où vient la config ("" si Default).
func (c *Config) Path() string {
	return c.configFilePath
}

func createDefaultConfigFromEmbedded(dstPath string) error {
	b, err := assets.Embedded.ReadFile(assets.DefaultConfigAsset)
	if err != nil {
		return fmt.Errorf("lecture du modèle de configuration embarqué impossible : %w", err)
	}
	if err := fsutil.WriteFileAtomic(dstPath, b, 0o644); err != nil {
		return fmt.Errorf("échec d'écriture du fichier de configuration %s : %w", dstPath, err)
	}
	slog.Info("fichier de configuration par défaut créé", "path", dstPath)
	return nil
}

func (c *Config) normalizeConfig() {
	// Nettoyage des chemins
	c.Script = strings.TrimSpace(c.Script)
	if c.Script != "" {
		c.Script = filepath.Clean(c.Script)
	}
	c.OutputDir = filepath.Clean(c.OutputDir)
	if strings.TrimSpace(c.TemplatesDir) != "" {
		c.TemplatesDir = filepath.Clean(c.TemplatesDir)
	}

	c.Playback.SkipPolicy = strings.TrimSpace(strings.ToLower(c.Playback.SkipPolicy))
	if c.Playback.SkipPolicy == "" {
		c.Playback.SkipPolicy = "replay_all"
	}
	if c.Playback.Rate <= 0 {
		c.Playback.Rate = 1
	}
	if c.Playback.FinalStepDuration < 0 {
		c.Playback.FinalStepDuration = 0
	}

	c.Playback.TickInterval = strings.TrimSpace(c.Playback.TickInterval)
	if c.Playback.TickInterval == "" {
		c.Playback.TickInterval = defaultTick.String()
	}
	c.tickErr = nil
	d, err := time.ParseDuration(c.Playback.TickInterval)
	switch {
	case err != nil:
		c.tickErr = err
		c.Playback.Tick = defaultTick
	case d <= 0:
		c.tickErr = fmt.Errorf("tick_interval doit être positif : %s", c.Playback.TickInterval)
		c.Playback.Tick = defaultTick
	default:
		c.Playback.Tick = d
	}

	c.Server.Addr = strings.TrimSpace(c.Server.Addr)
	if c.Server.BroadcastHz <= 0 {
		c.Server.BroadcastHz = defaultBroadcastHz
	}

	c.Log.Level = strings.TrimSpace(strings.ToLower(c.Log.Level))
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// LogLevel convertit log.level en slog.Level (info si inconnu).
func (c *Config) LogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}
