package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patrickprogramme/cakeplayer/internal/assets"
	"github.com/patrickprogramme/cakeplayer/internal/config"
	"github.com/patrickprogramme/cakeplayer/internal/playback"
	"github.com/patrickprogramme/cakeplayer/internal/render"
	"github.com/patrickprogramme/cakeplayer/internal/ui"
	"github.com/patrickprogramme/cakeplayer/pkg/model"
)

// fakeUI rejoue une liste de commandes puis quitte.
type fakeUI struct {
	mu      sync.Mutex
	cmds    []ui.Command
	infos   []string
	errs    []string
	renders []playback.View
}

func (f *fakeUI) ReadCommand(ctx context.Context) (ui.Command, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return ui.Command{}, err
	}
	if len(f.cmds) == 0 {
		return ui.Command{Kind: ui.CmdQuit}, nil
	}
	cmd := f.cmds[0]
	f.cmds = f.cmds[1:]
	return cmd, nil
}

func (f *fakeUI) Render(ctx context.Context, v playback.View) {
	f.mu.Lock()
	f.renders = append(f.renders, v)
	f.mu.Unlock()
}

func (f *fakeUI) WaitForExit(ctx context.Context) error {
	<-ctx.Done()
	return nil
}

func (f *fakeUI) PrintInfo(ctx context.Context, s string) {
	f.mu.Lock()
	f.infos = append(f.infos, s)
	f.mu.Unlock()
}

func (f *fakeUI) PrintError(ctx context.Context, s string) {
	f.mu.Lock()
	f.errs = append(f.errs, s)
	f.mu.Unlock()
}

func writeDemo(t *testing.T) string {
	t.Helper()
	data, err := assets.Embedded.ReadFile(assets.DemoScriptAsset)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "demo.cake.yaml")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func newTestApp(t *testing.T, u ui.Interface, scriptPath string) *App {
	t.Helper()
	cfg := config.Default()
	cfg.OutputDir = t.TempDir()
	r, err := render.NewRenderer("", assets.Embedded)
	require.NoError(t, err)
	return New(cfg, u, &CLIFlags{ScriptPath: scriptPath}, r, nil)
}

func TestLoadTimeline(t *testing.T) {
	a := newTestApp(t, &fakeUI{}, writeDemo(t))
	tl, err := a.LoadTimeline(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, tl.Index.Len())
	assert.Equal(t, model.Seconds(26), tl.Index.TotalDuration())
	assert.Equal(t, "Formulaire", tl.Titles[1])
}

func TestLoadTimelineWithoutScript(t *testing.T) {
	a := newTestApp(t, &fakeUI{}, "")
	_, err := a.LoadTimeline(context.Background())
	assert.ErrorIs(t, err, ErrNoScript)
}

func TestLoadTimelineUsesConfigFinalDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "short.yaml")
	require.NoError(t, os.WriteFile(path, []byte("steps:\n  - start: 0\n  - start: 4\n"), 0o644))

	a := newTestApp(t, &fakeUI{}, path)
	_, err := a.LoadTimeline(context.Background())
	require.Error(t, err, "no final duration anywhere")

	a.cfg.Playback.FinalStepDuration = 6
	tl, err := a.LoadTimeline(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.Seconds(10), tl.Index.TotalDuration())
}

func TestSessionDrivesDocument(t *testing.T) {
	a := newTestApp(t, &fakeUI{}, writeDemo(t))
	tl, err := a.LoadTimeline(context.Background())
	require.NoError(t, err)
	sess, err := a.NewSession(tl)
	require.NoError(t, err)
	ctx := context.Background()

	sess.Controller.Play(ctx)
	require.True(t, sess.Player.Playing())

	require.NoError(t, sess.Player.Advance(ctx, time.Second))
	assert.Equal(t, "https://demo.local/", sess.Document.URL())

	require.NoError(t, sess.Player.Advance(ctx, 4*time.Second))
	signup, ok := sess.Document.Element("#signup")
	require.True(t, ok)
	assert.True(t, signup.Hovered)
	assert.Equal(t, 1, signup.Clicks)
	assert.Len(t, sess.Document.Journal(), 3)

	// fin du step 0 : passage au step 1 à 0
	require.NoError(t, sess.Player.Advance(ctx, 3*time.Second))
	assert.Equal(t, playback.State{StepIndex: 1, VideoTime: 0, Playing: true}, sess.Controller.State())

	require.NoError(t, sess.Player.Advance(ctx, 2*time.Second))
	assert.Equal(t, "https://demo.local/signup", sess.Document.URL())
	email, _ := sess.Document.Element("#email")
	assert.Equal(t, "ada@example.com", email.Value)
}

func TestApply(t *testing.T) {
	u := &fakeUI{}
	a := newTestApp(t, u, writeDemo(t))
	a.cfg.Clipboard = false
	a.cfg.Log.Color = false
	tl, err := a.LoadTimeline(context.Background())
	require.NoError(t, err)
	sess, err := a.NewSession(tl)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, a.Apply(ctx, sess, ui.Command{Kind: ui.CmdSeek, Seconds: 10}))
	assert.Equal(t, playback.State{StepIndex: 1, VideoTime: 2}, sess.Controller.State())

	require.NoError(t, a.Apply(ctx, sess, ui.Command{Kind: ui.CmdSeek, Seconds: -3, Relative: true}))
	assert.Equal(t, playback.State{StepIndex: 0, VideoTime: 7}, sess.Controller.State())

	err = a.Apply(ctx, sess, ui.Command{Kind: ui.CmdStep, Step: 8})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "step 9 inexistant, step 3 utilisé")
	assert.Equal(t, 2, sess.Controller.State().StepIndex)

	require.NoError(t, a.Apply(ctx, sess, ui.Command{Kind: ui.CmdPrev}))
	assert.Equal(t, 1, sess.Controller.State().StepIndex)

	require.NoError(t, a.Apply(ctx, sess, ui.Command{Kind: ui.CmdToggle}))
	assert.True(t, sess.Controller.State().Playing)
	require.NoError(t, a.Apply(ctx, sess, ui.Command{Kind: ui.CmdPause}))
	assert.False(t, sess.Controller.State().Playing)

	require.NoError(t, a.Apply(ctx, sess, ui.Command{Kind: ui.CmdCopy}))
	require.NoError(t, a.Apply(ctx, sess, ui.Command{Kind: ui.CmdStatus}))
	assert.Contains(t, u.infos[0], "copie désactivée")
	assert.Contains(t, u.infos[1], "2/3 Formulaire")

	assert.ErrorIs(t, a.Apply(ctx, sess, ui.Command{Kind: ui.CmdQuit}), errQuit)
}

func TestPlayStopsOnQuit(t *testing.T) {
	u := &fakeUI{cmds: []ui.Command{{Kind: ui.CmdNext}, {Kind: ui.CmdPlay}}}
	a := newTestApp(t, u, writeDemo(t))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, a.Play(ctx))

	u.mu.Lock()
	defer u.mu.Unlock()
	require.NotEmpty(t, u.renders)
	assert.Equal(t, 0, u.renders[0].StepIndex)
	assert.Contains(t, u.infos[0], "Créer un compte : 3 steps, 00:26")
	assert.Empty(t, u.errs)
}

func TestExport(t *testing.T) {
	a := newTestApp(t, &fakeUI{}, writeDemo(t))
	tl, err := a.LoadTimeline(context.Background())
	require.NoError(t, err)
	outDir := t.TempDir()

	md, err := a.Export(tl, model.FormatMARKDOWN, outDir, false)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(outDir, "Créer un compte.md"), md)
	content, err := os.ReadFile(md)
	require.NoError(t, err)
	assert.Contains(t, string(content), "Formulaire")

	// pas d'écrasement : suffixe _1
	again, err := a.Export(tl, model.FormatMARKDOWN, outDir, false)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(outDir, "Créer un compte_1.md"), again)

	txt, err := a.Export(tl, model.FormatTXT, outDir, true)
	require.NoError(t, err)
	content, err = os.ReadFile(txt)
	require.NoError(t, err)
	assert.Contains(t, string(content), "Le compte est créé.")

	js, err := a.Export(tl, model.FormatJSON, outDir, true)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(js, ".json"))

	_, err = a.Export(tl, model.FormatSRT, outDir, true)
	assert.ErrorIs(t, err, ErrExportFormat)
}

func TestInspect(t *testing.T) {
	a := newTestApp(t, &fakeUI{}, writeDemo(t))
	tl, err := a.LoadTimeline(context.Background())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Inspect(&buf, tl))
	out := buf.String()
	assert.Contains(t, out, "Page d'accueil")
	assert.Contains(t, out, "click@5.00s #signup")
	assert.Contains(t, out, "Actions:")
}

func TestTimestampLabel(t *testing.T) {
	assert.Equal(t, "01:30 Formulaire", TimestampLabel(playback.View{Current: 90, StepTitle: "Formulaire"}))
	assert.Equal(t, "00:00", TimestampLabel(playback.View{}))
}
