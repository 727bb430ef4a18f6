package ui

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patrickprogramme/cakeplayer/internal/playback"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		line string
		want Command
	}{
		{"", Command{Kind: CmdToggle}},
		{"   ", Command{Kind: CmdToggle}},
		{"t", Command{Kind: CmdToggle}},
		{"PLAY", Command{Kind: CmdPlay}},
		{"pause", Command{Kind: CmdPause}},
		{"n", Command{Kind: CmdNext}},
		{"prev", Command{Kind: CmdPrev}},
		{"c", Command{Kind: CmdCopy}},
		{"quit", Command{Kind: CmdQuit}},
		{"seek 90", Command{Kind: CmdSeek, Seconds: 90}},
		{"seek 01:30", Command{Kind: CmdSeek, Seconds: 90}},
		{"seek +5", Command{Kind: CmdSeek, Seconds: 5, Relative: true}},
		{"seek -2.5", Command{Kind: CmdSeek, Seconds: -2.5, Relative: true}},
		{"step 2", Command{Kind: CmdStep, Step: 1}},
	}
	for _, tc := range tests {
		t.Run(tc.line, func(t *testing.T) {
			got, err := ParseCommand(tc.line)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseCommandErrors(t *testing.T) {
	_, err := ParseCommand("dance")
	assert.ErrorIs(t, err, ErrUnknownCommand)

	for _, line := range []string{"seek", "seek abc", "seek 1 2", "step 0", "step x", "play now"} {
		_, err := ParseCommand(line)
		assert.Error(t, err, line)
	}
}

func TestStatusLine(t *testing.T) {
	v := playback.View{
		StepIndex:  1,
		StepCount:  3,
		StepTitle:  "Formulaire",
		Playing:    true,
		Clock:      "00:12 / 00:26",
		Percentage: 46.2,
		Caption:    "Saisissez votre e-mail",
		HasCaption: true,
	}
	assert.Equal(t, "▶ 2/3 Formulaire  00:12 / 00:26  46%  « Saisissez votre e-mail »", StatusLine(v, false))

	v.Playing = false
	v.HasCaption = false
	assert.Equal(t, "⏸ 2/3 Formulaire  00:12 / 00:26  46%", StatusLine(v, false))

	assert.Contains(t, StatusLine(v, true), "Formulaire")
}

func TestTerminalReadCommand(t *testing.T) {
	var out, errOut bytes.Buffer
	term := newTerminal(strings.NewReader("dance\nseek 00:05\n\nq\n"), &out, &errOut, false)
	ctx := context.Background()

	cmd, err := term.ReadCommand(ctx)
	require.NoError(t, err)
	assert.Equal(t, Command{Kind: CmdSeek, Seconds: 5}, cmd)
	assert.Contains(t, errOut.String(), "commande inconnue")

	cmd, err = term.ReadCommand(ctx)
	require.NoError(t, err)
	assert.Equal(t, CmdToggle, cmd.Kind)

	cmd, err = term.ReadCommand(ctx)
	require.NoError(t, err)
	assert.Equal(t, CmdQuit, cmd.Kind)

	_, err = term.ReadCommand(ctx)
	assert.ErrorIs(t, err, io.EOF)
}

func TestTerminalReadCommandCancelled(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	term := newTerminal(pr, io.Discard, io.Discard, false)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := term.ReadCommand(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRenderSkipsDuplicates(t *testing.T) {
	var out bytes.Buffer
	term := newTerminal(strings.NewReader(""), &out, io.Discard, false)
	v := playback.View{StepCount: 1, StepTitle: "A", Clock: "00:00 / 00:10"}

	term.Render(context.Background(), v)
	term.Render(context.Background(), v)
	v.Clock = "00:01 / 00:10"
	term.Render(context.Background(), v)

	assert.Equal(t, 2, strings.Count(out.String(), "\n"))
}
