package ui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/patrickprogramme/cakeplayer/pkg/model"
)

var ErrUnknownCommand = errors.New("commande inconnue")

type CommandKind int

const (
	CmdToggle CommandKind = iota
	CmdPlay
	CmdPause
	CmdSeek
	CmdStep
	CmdNext
	CmdPrev
	CmdCopy
	CmdStatus
	CmdHelp
	CmdQuit
)

// Command est une ligne saisie au terminal, déjà interprétée.
type Command struct {
	Kind CommandKind
	// CmdSeek : temps global, ou décalage si Relative
	Seconds  model.Seconds
	Relative bool
	// CmdStep : index 0-based (l'utilisateur tape 1-based)
	Step int
}

// Help est le texte affiché par la commande "h".
const Help = `Commandes :
  (Entrée) ou t   lecture / pause
  play, pause
  seek 01:30      aller au temps global (aussi "seek 90", "seek +5", "seek -5")
  step N          aller au début du step N
  n, b            step suivant / précédent
  s               afficher l'état
  c               copier le timestamp courant
  q               quitter`

// ParseCommand interprète une ligne de commande.
func ParseCommand(line string) (Command, error) {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) == 0 {
		return Command{Kind: CmdToggle}, nil
	}

	name, args := fields[0], fields[1:]
	switch name {
	case "t", "toggle":
		return noArgs(CmdToggle, name, args)
	case "p", "play":
		return noArgs(CmdPlay, name, args)
	case "pause":
		return noArgs(CmdPause, name, args)
	case "n", "next":
		return noArgs(CmdNext, name, args)
	case "b", "prev":
		return noArgs(CmdPrev, name, args)
	case "c", "copy":
		return noArgs(CmdCopy, name, args)
	case "s", "status":
		return noArgs(CmdStatus, name, args)
	case "h", "help", "?":
		return noArgs(CmdHelp, name, args)
	case "q", "quit", "exit":
		return noArgs(CmdQuit, name, args)
	case "seek":
		if len(args) != 1 {
			return Command{}, fmt.Errorf("usage: seek 01:30")
		}
		return parseSeek(args[0])
	case "step":
		if len(args) != 1 {
			return Command{}, fmt.Errorf("usage: step N")
		}
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 {
			return Command{}, fmt.Errorf("step %q: numéro attendu (à partir de 1)", args[0])
		}
		return Command{Kind: CmdStep, Step: n - 1}, nil
	}
	return Command{}, fmt.Errorf("%w: %q (h pour l'aide)", ErrUnknownCommand, name)
}

func noArgs(kind CommandKind, name string, args []string) (Command, error) {
	if len(args) > 0 {
		return Command{}, fmt.Errorf("%s: aucun argument attendu", name)
	}
	return Command{Kind: kind}, nil
}

func parseSeek(arg string) (Command, error) {
	cmd := Command{Kind: CmdSeek}
	sign := model.Seconds(1)
	switch {
	case strings.HasPrefix(arg, "+"):
		cmd.Relative = true
		arg = arg[1:]
	case strings.HasPrefix(arg, "-"):
		cmd.Relative = true
		sign = -1
		arg = arg[1:]
	}
	secs, err := model.ParseClock(arg)
	if err != nil {
		return Command{}, fmt.Errorf("seek: %w", err)
	}
	cmd.Seconds = sign * secs
	return cmd, nil
}
