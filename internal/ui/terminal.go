package ui

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"charm.land/lipgloss/v2"

	"github.com/patrickprogramme/cakeplayer/internal/playback"
)

var (
	playStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	pauseStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	captionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Italic(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

type terminalUI struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer
	color  bool

	once  sync.Once
	lines chan lineResult

	mu       sync.Mutex
	lastLine string
}

type lineResult struct {
	line string
	err  error
}

func NewTerminal(color bool) Interface {
	return newTerminal(os.Stdin, os.Stdout, os.Stderr, color)
}

func newTerminal(in io.Reader, out, errOut io.Writer, color bool) *terminalUI {
	return &terminalUI{in: in, out: out, errOut: errOut, color: color}
}

// startReader lance l'unique goroutine de lecture de l'entrée.
// Elle survit aux annulations de ReadCommand pour ne perdre aucune ligne.
func (t *terminalUI) startReader() {
	t.lines = make(chan lineResult)
	go func() {
		sc := bufio.NewScanner(t.in)
		for sc.Scan() {
			t.lines <- lineResult{line: sc.Text()}
		}
		err := sc.Err()
		if err == nil {
			err = io.EOF
		}
		t.lines <- lineResult{err: err}
		close(t.lines)
	}()
}

func (t *terminalUI) ReadCommand(ctx context.Context) (Command, error) {
	t.once.Do(t.startReader)
	for {
		select {
		case <-ctx.Done():
			return Command{}, ctx.Err()
		case res, ok := <-t.lines:
			if !ok {
				return Command{}, io.EOF
			}
			if res.err != nil {
				return Command{}, res.err
			}
			cmd, err := ParseCommand(res.line)
			if err != nil {
				t.PrintError(ctx, err.Error())
				continue
			}
			return cmd, nil
		}
	}
}

// Render n'écrit que si la ligne d'état a changé.
func (t *terminalUI) Render(ctx context.Context, v playback.View) {
	line := StatusLine(v, t.color)
	t.mu.Lock()
	defer t.mu.Unlock()
	if line == t.lastLine {
		return
	}
	t.lastLine = line
	fmt.Fprintln(t.out, line)
}

func (t *terminalUI) WaitForExit(ctx context.Context) error {
	fmt.Fprintln(t.out, "\nAppuyez sur Ctrl+C pour quitter.")
	<-ctx.Done()
	return nil
}

func (t *terminalUI) PrintInfo(ctx context.Context, s string) {
	fmt.Fprintln(t.out, s)
}

func (t *terminalUI) PrintError(ctx context.Context, s string) {
	if t.color {
		s = errorStyle.Render(s)
	}
	fmt.Fprintln(t.errOut, s)
}

// StatusLine formate la vue : "▶ 2/3 Formulaire  00:12 / 00:26  46%" puis la
// caption active entre guillemets.
func StatusLine(v playback.View, color bool) string {
	style := func(s lipgloss.Style, text string) string {
		if !color {
			return text
		}
		return s.Render(text)
	}

	icon := style(pauseStyle, "⏸")
	if v.Playing {
		icon = style(playStyle, "▶")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %d/%d %s  %s  %s",
		icon,
		v.StepIndex+1, v.StepCount,
		style(titleStyle, v.StepTitle),
		v.Clock,
		style(dimStyle, fmt.Sprintf("%.0f%%", v.Percentage)),
	)
	if v.HasCaption {
		b.WriteString("  ")
		b.WriteString(style(captionStyle, fmt.Sprintf("« %s »", v.Caption)))
	}
	return b.String()
}
