package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/charmbracelet/fang"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	"github.com/patrickprogramme/cakeplayer/internal/app"
	"github.com/patrickprogramme/cakeplayer/internal/assets"
	"github.com/patrickprogramme/cakeplayer/internal/bootstrap"
	"github.com/patrickprogramme/cakeplayer/internal/config"
	"github.com/patrickprogramme/cakeplayer/internal/render"
	"github.com/patrickprogramme/cakeplayer/internal/ui"
	"github.com/patrickprogramme/cakeplayer/internal/updater"
	"github.com/patrickprogramme/cakeplayer/pkg/github"
	"github.com/patrickprogramme/cakeplayer/pkg/model"
)

var version = "dev"

var cakeAssets = bootstrap.Assets{
	FS:           assets.Embedded,
	ConfigAsset:  assets.DefaultConfigAsset,
	ConfigName:   config.DefaultFileName,
	Templates:    assets.DefaultTemplatePaths,
	ScriptsDir:   "scripts",
	TemplatesDir: "templates",
}

func main() {
	flags := &app.CLIFlags{}
	root := newRootCmd(flags)

	// root context qui s'annule sur SIGINT / SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := fang.Execute(ctx, root,
		fang.WithVersion(version),
		fang.WithErrorHandler(func(w io.Writer, styles fang.Styles, err error) {
			_, _ = fmt.Fprintln(w, err.Error())
		}),
	); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(flags *app.CLIFlags) *cobra.Command {
	root := &cobra.Command{
		Use:   "cake",
		Short: "Joue un script cake : actions et sous-titres synchronisés sur une timeline",
		Example: `  # Jouer le script de démo au terminal
  cake init demo && cd demo
  cake play scripts/demo.cake.yaml --autoplay

  # Piloter la lecture en HTTP / WebSocket
  cake serve scripts/demo.cake.yaml

  # Générer la fiche Markdown du script
  cake export scripts/demo.cake.yaml --format md`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&flags.ConfigPath, "config", "c", "", "fichier de configuration (défaut : ./cake.yaml puis à côté du binaire)")
	root.PersistentFlags().BoolVarP(&flags.Debug, "debug", "d", false, "logs de debug")

	root.AddCommand(
		playCmd(flags),
		serveCmd(flags),
		exportCmd(flags),
		inspectCmd(flags),
		initCmd(),
		updateCheckCmd(),
	)
	return root
}

func playCmd(flags *app.CLIFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "play [script]",
		Short: "Joue le script au terminal (h pour l'aide en cours de lecture)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(flags, args)
			if err != nil {
				return err
			}
			return a.Play(cmd.Context())
		},
	}
	cmd.Flags().BoolVar(&flags.Autoplay, "autoplay", false, "démarre la lecture immédiatement")
	return cmd
}

func serveCmd(flags *app.CLIFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve [script]",
		Short: "Joue le script et expose l'API HTTP / WebSocket",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(flags, args)
			if err != nil {
				return err
			}
			return a.Serve(cmd.Context())
		},
	}
	cmd.Flags().BoolVar(&flags.Autoplay, "autoplay", false, "démarre la lecture immédiatement")
	cmd.Flags().StringVar(&flags.Addr, "addr", "", "adresse d'écoute (défaut : server.addr de la config)")
	return cmd
}

func exportCmd(flags *app.CLIFlags) *cobra.Command {
	var (
		format string
		outDir string
		force  bool
	)
	cmd := &cobra.Command{
		Use:   "export [script]",
		Short: "Exporte la fiche (md), le transcript (txt) ou le script normalisé (yaml, json, toml)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := model.ParseFormat(format)
			if err != nil {
				return err
			}
			a, err := setup(flags, args)
			if err != nil {
				return err
			}
			tl, err := a.LoadTimeline(cmd.Context())
			if err != nil {
				return err
			}
			path, err := a.Export(tl, f, outDir, force)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Fichier écrit :\n%s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "md", "md, txt, yaml, json ou toml")
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "dossier de sortie (défaut : output_dir de la config)")
	cmd.Flags().BoolVar(&force, "force", false, "écrase un fichier existant")
	return cmd
}

func inspectCmd(flags *app.CLIFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect [script]",
		Short: "Affiche la timeline construite : offsets, actions triées, warnings",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(flags, args)
			if err != nil {
				return err
			}
			tl, err := a.LoadTimeline(cmd.Context())
			if err != nil {
				return err
			}
			return app.Inspect(cmd.OutOrStdout(), tl)
		},
	}
}

func initCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Crée une config, les templates et un script de démo",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			rep, err := bootstrap.InitProject(dir, cakeAssets, force)
			if rep != nil {
				for _, l := range rep.Lines {
					fmt.Fprintln(cmd.OutOrStdout(), l)
				}
			}
			return err
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "écrase les templates et scripts existants")
	return cmd
}

func updateCheckCmd() *cobra.Command {
	var api string
	cmd := &cobra.Command{
		Use:   "update-check",
		Short: "Vérifie si une nouvelle version de cake est publiée",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			check, err := updater.Check(cmd.Context(), &github.Client{BaseURL: api}, version)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if check.IsUpToDate {
				fmt.Fprintf(out, "cake %s est à jour\n", version)
				return nil
			}
			fmt.Fprintf(out, "Nouvelle version %s (actuelle : %s)\n%s\n",
				check.LatestRelease.TagName, version, check.GetUpdateLink(runtime.GOOS, runtime.GOARCH))
			return nil
		},
	}
	cmd.Flags().StringVar(&api, "api", github.DefaultBaseURL, "URL de l'API GitHub")
	return cmd
}

// setup charge la config, installe le logger et construit l'App.
func setup(flags *app.CLIFlags, args []string) (*app.App, error) {
	if len(args) == 1 {
		flags.ScriptPath = args[0]
	}

	// déterminer exePath/binDir
	binDir := "."
	if exePath, err := os.Executable(); err == nil {
		binDir = filepath.Dir(exePath)
	}

	configPath := flags.ConfigPath
	if configPath == "" {
		if _, err := os.Stat(config.DefaultFileName); err == nil {
			configPath = config.DefaultFileName
		} else {
			p, _, err := bootstrap.EnsureBesideBinary(binDir, cakeAssets)
			if err != nil {
				slog.Warn("préparation à côté du binaire", "err", err)
			}
			configPath = p
		}
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}
	log := newLogger(cfg, flags.Debug)
	slog.SetDefault(log)

	warnings, err := cfg.Validate()
	for _, w := range warnings {
		log.Warn(w)
	}
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", cfg.Path(), err)
	}
	log.Debug("config chargée", "path", cfg.Path())

	renderer, err := render.NewRenderer(templatesDir(cfg.TemplatesDir, binDir), assets.Embedded)
	if err != nil {
		return nil, fmt.Errorf("impossible de construire le renderer: %w", err)
	}

	tui := ui.NewTerminal(cfg.Log.Color)
	return app.New(cfg, tui, flags, renderer, log), nil
}

func newLogger(cfg *config.Config, debug bool) *slog.Logger {
	level := cfg.LogLevel()
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.TimeOnly,
		NoColor:    !cfg.Log.Color,
	}))
}

// templatesDir : chemin relatif cherché dans le dossier courant, puis à côté du binaire.
func templatesDir(dir, binDir string) string {
	if dir == "" || filepath.IsAbs(dir) {
		return dir
	}
	if _, err := os.Stat(dir); err == nil {
		return dir
	}
	return filepath.Join(binDir, dir)
}
