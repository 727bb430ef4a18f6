package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/patrickprogramme/cakeplayer/internal/actions"
	"github.com/patrickprogramme/cakeplayer/internal/clock"
	"github.com/patrickprogramme/cakeplayer/internal/config"
	"github.com/patrickprogramme/cakeplayer/internal/fetch"
	"github.com/patrickprogramme/cakeplayer/internal/playback"
	"github.com/patrickprogramme/cakeplayer/internal/render"
	"github.com/patrickprogramme/cakeplayer/internal/script"
	"github.com/patrickprogramme/cakeplayer/internal/server"
	"github.com/patrickprogramme/cakeplayer/internal/sim"
	"github.com/patrickprogramme/cakeplayer/internal/timeline"
	"github.com/patrickprogramme/cakeplayer/internal/ui"
	"github.com/patrickprogramme/cakeplayer/pkg/model"
)

// ErrNoScript : ni argument ni "script" dans la config.
var ErrNoScript = errors.New("aucun script : passez un fichier ou renseignez \"script\" dans la config")

// errQuit arrête la boucle de commandes sans être une vraie erreur.
var errQuit = errors.New("quit")

const startURL = "about:blank"

// CLIFlags contient les information venant des flags de l'app
type CLIFlags struct {
	ConfigPath string
	ScriptPath string
	Debug      bool
	Autoplay   bool
	Addr       string
}

// App orchestre les différentes dépendances (UI, config, rendu...)
type App struct {
	cfg      *config.Config
	ui       ui.Interface
	flags    *CLIFlags
	renderer *render.Renderer
	log      *slog.Logger
}

// New construit l'application. Pour les tests, on injecte une fausse ui.
func New(cfg *config.Config, uiClient ui.Interface, flags *CLIFlags, renderer *render.Renderer, log *slog.Logger) *App {
	if flags == nil {
		flags = &CLIFlags{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &App{
		cfg:      cfg,
		ui:       uiClient,
		flags:    flags,
		renderer: renderer,
		log:      log,
	}
}

// Session relie une timeline au document simulé, au controller et à l'horloge.
type Session struct {
	Timeline   *script.Timeline
	Document   *sim.Document
	Controller *playback.Controller
	Player     *clock.Player
}

// scriptPath : flag > config.
func (a *App) scriptPath() (string, error) {
	if a.flags.ScriptPath != "" {
		return a.flags.ScriptPath, nil
	}
	if a.cfg.Script != "" {
		return a.cfg.Script, nil
	}
	return "", ErrNoScript
}

// LoadTimeline lit le script et construit la timeline. final_step_duration de la
// config s'applique quand le script ne précise pas final_duration.
// Le script peut être une URL http(s) ; captions_file est alors résolu par rapport à elle.
func (a *App) LoadTimeline(ctx context.Context) (*script.Timeline, error) {
	path, err := a.scriptPath()
	if err != nil {
		return nil, err
	}
	s, err := script.LoadContext(ctx, path)
	if err != nil {
		return nil, err
	}
	if s.FinalDuration == 0 && a.cfg.Playback.FinalStepDuration > 0 {
		s.FinalDuration = model.Seconds(a.cfg.Playback.FinalStepDuration)
	}
	baseDir := path
	if !fetch.IsURL(path) {
		baseDir = filepath.Dir(path)
	}
	tl, err := script.BuildContext(ctx, s, baseDir)
	if err != nil {
		return nil, err
	}
	for _, w := range tl.Warnings {
		a.log.Warn(w)
	}
	a.log.Debug("script chargé", "path", path, "steps", tl.Index.Len(), "actions", tl.ActionCount())
	return tl, nil
}

// NewSession branche le pipeline complet :
// horloge -> controller -> dispatcher -> executor -> document.
func (a *App) NewSession(tl *script.Timeline) (*Session, error) {
	policy, err := actions.ParsePolicy(a.cfg.Playback.SkipPolicy)
	if err != nil {
		return nil, err
	}

	doc := sim.NewDocument(startURL)
	exec := sim.NewExecutor(doc, a.log)
	disp := actions.NewDispatcher(exec, actions.WithPolicy(policy), actions.WithLogger(a.log))

	ctrl, err := playback.NewController(playback.Timeline{
		Index:    tl.Index,
		Actions:  tl.Actions,
		Captions: tl.Track,
		Titles:   tl.Titles,
		Start:    tl.Start,
	}, disp, playback.WithLogger(a.log))
	if err != nil {
		return nil, err
	}

	player := clock.New(tl.Index,
		clock.WithInterval(a.cfg.Playback.Tick),
		clock.WithRate(a.cfg.Playback.Rate),
		clock.WithLogger(a.log),
	)
	player.SetListener(ctrl)
	ctrl.Attach(player)

	return &Session{Timeline: tl, Document: doc, Controller: ctrl, Player: player}, nil
}

func (a *App) autoplay() bool {
	return a.flags.Autoplay || a.cfg.Playback.Autoplay
}

// Play joue le script au terminal jusqu'à "q" ou Ctrl+C.
func (a *App) Play(ctx context.Context) error {
	tl, err := a.LoadTimeline(ctx)
	if err != nil {
		return err
	}
	sess, err := a.NewSession(tl)
	if err != nil {
		return err
	}
	return a.run(ctx, sess, nil)
}

// Serve joue le script et expose le controller en HTTP/WebSocket.
func (a *App) Serve(ctx context.Context) error {
	tl, err := a.LoadTimeline(ctx)
	if err != nil {
		return err
	}
	sess, err := a.NewSession(tl)
	if err != nil {
		return err
	}

	addr := a.flags.Addr
	if addr == "" {
		addr = a.cfg.Server.Addr
	}
	srv := server.New(sess.Controller,
		server.WithLogger(a.log),
		server.WithDocument(sess.Document),
		server.WithAllowedOrigins(a.cfg.Server.AllowedOrigins),
		server.WithBroadcastHz(a.cfg.Server.BroadcastHz),
	)
	a.ui.PrintInfo(ctx, fmt.Sprintf("API disponible sur http://%s/api/state", addr))
	return a.run(ctx, sess, func(ctx context.Context) error { return srv.Serve(ctx, addr) })
}

// run fait tourner l'horloge, la boucle de commandes et extra sous un même errgroup.
func (a *App) run(ctx context.Context, sess *Session, extra func(context.Context) error) error {
	g, gctx := errgroup.WithContext(ctx)

	unsub := sess.Controller.Subscribe(a.viewPrinter(gctx))
	defer unsub()

	a.ui.PrintInfo(ctx, fmt.Sprintf("%s : %d steps, %s", titleOf(sess.Timeline), sess.Timeline.Index.Len(),
		sess.Timeline.Index.TotalDuration().TimeString()))
	a.ui.Render(ctx, sess.Controller.View())
	if a.autoplay() {
		sess.Controller.Play(ctx)
	}

	g.Go(func() error { return sess.Player.Run(gctx) })
	g.Go(func() error { return a.commandLoop(gctx, sess) })
	if extra != nil {
		g.Go(func() error { return extra(gctx) })
	}

	err := g.Wait()
	if errors.Is(err, errQuit) || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// viewPrinter n'affiche que les changements visibles : step, lecture/pause, caption.
// La progression seconde par seconde est disponible avec la commande "s".
func (a *App) viewPrinter(ctx context.Context) func(playback.View) {
	var (
		mu   sync.Mutex
		last viewKey
		seen bool
	)
	return func(v playback.View) {
		k := keyOf(v)
		mu.Lock()
		changed := !seen || k != last
		last, seen = k, true
		mu.Unlock()
		if changed {
			a.ui.Render(ctx, v)
		}
	}
}

type viewKey struct {
	step    int
	playing bool
	caption string
}

func keyOf(v playback.View) viewKey {
	return viewKey{step: v.StepIndex, playing: v.Playing, caption: v.Caption}
}

func (a *App) commandLoop(ctx context.Context, sess *Session) error {
	for {
		cmd, err := a.ui.ReadCommand(ctx)
		if errors.Is(err, io.EOF) {
			// entrée fermée (pipe) : on laisse jouer jusqu'à Ctrl+C
			return a.ui.WaitForExit(ctx)
		}
		if err != nil {
			return err
		}
		if err := a.Apply(ctx, sess, cmd); err != nil {
			if errors.Is(err, errQuit) {
				return err
			}
			a.ui.PrintError(ctx, err.Error())
		}
	}
}

// Apply exécute une commande sur la session. Une erreur de range est
// signalée mais la position bornée est conservée.
func (a *App) Apply(ctx context.Context, sess *Session, cmd ui.Command) error {
	ctrl := sess.Controller
	var err error
	switch cmd.Kind {
	case ui.CmdToggle:
		ctrl.Toggle(ctx)
	case ui.CmdPlay:
		ctrl.Play(ctx)
	case ui.CmdPause:
		ctrl.Pause(ctx)
	case ui.CmdNext:
		_, err = ctrl.Next(ctx)
	case ui.CmdPrev:
		_, err = ctrl.Prev(ctx)
	case ui.CmdSeek:
		target := cmd.Seconds
		if cmd.Relative {
			target += ctrl.View().Current
		}
		_, err = ctrl.SeekGlobal(ctx, target)
	case ui.CmdStep:
		_, err = ctrl.Seek(ctx, cmd.Step, 0)
		var rerr *timeline.RangeError
		if errors.As(err, &rerr) {
			err = fmt.Errorf("step %d inexistant, step %d utilisé", cmd.Step+1, rerr.Clamped+1)
		}
	case ui.CmdCopy:
		if !a.cfg.Clipboard {
			a.ui.PrintInfo(ctx, "copie désactivée (clipboard: false)")
			return nil
		}
		text, cerr := CopyTimestamp(ctrl.View())
		if cerr != nil {
			return fmt.Errorf("copie : %w", cerr)
		}
		a.ui.PrintInfo(ctx, "copié : "+text)
	case ui.CmdStatus:
		a.ui.PrintInfo(ctx, ui.StatusLine(ctrl.View(), a.cfg.Log.Color))
	case ui.CmdHelp:
		a.ui.PrintInfo(ctx, ui.Help)
	case ui.CmdQuit:
		return errQuit
	}
	return err
}

func titleOf(tl *script.Timeline) string {
	if tl.Script.Title != "" {
		return tl.Script.Title
	}
	return "Script"
}
