// Package actions sélectionne les actions franchies entre deux instants d'un step
// et les confie au simulateur, dans l'ordre chronologique.
package actions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/patrickprogramme/cakeplayer/pkg/model"
)

var ErrUnknownPolicy = errors.New("actions: unknown skip policy")

// Executor est le "simulated user" : il applique une action à son document cible.
type Executor interface {
	Dispatch(ctx context.Context, a model.Action) error
}

// ExecutorFunc permet d'utiliser une simple fonction comme Executor.
type ExecutorFunc func(ctx context.Context, a model.Action) error

func (f ExecutorFunc) Dispatch(ctx context.Context, a model.Action) error {
	return f(ctx, a)
}

// Policy décide quoi faire quand un seul tick franchit plusieurs actions.
type Policy string

const (
	// ReplayAll rejoue toutes les actions franchies, dans l'ordre.
	ReplayAll Policy = "replay_all"
	// FirstOnly ne déclenche que la première action franchie.
	FirstOnly Policy = "first_only"
)

// ParsePolicy accepte "replay_all", "first_only" ; vide -> ReplayAll.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case "", ReplayAll:
		return ReplayAll, nil
	case FirstOnly:
		return FirstOnly, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
}

// Due retourne les actions telles que oldTime < on <= newTime, dans l'ordre de la liste.
// En arrière (newTime <= oldTime) rien n'est retourné : on ne rejoue ni n'annule.
func Due(stepActions []model.Action, oldTime, newTime model.Seconds) []model.Action {
	if newTime <= oldTime {
		return nil
	}
	var due []model.Action
	for _, a := range stepActions {
		if oldTime < a.On && a.On <= newTime {
			due = append(due, a)
		}
	}
	return due
}

// Dispatcher relie Due à un Executor.
type Dispatcher struct {
	exec   Executor
	policy Policy
	log    *slog.Logger
}

type Option func(*Dispatcher)

func WithPolicy(p Policy) Option {
	return func(d *Dispatcher) {
		if p != "" {
			d.policy = p
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.log = l
		}
	}
}

func NewDispatcher(exec Executor, opts ...Option) *Dispatcher {
	d := &Dispatcher{exec: exec, policy: ReplayAll, log: slog.Default()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Dispatcher) Policy() Policy {
	return d.policy
}

// Dispatch appelle l'executor une fois par action due. Un échec n'arrête pas les
// actions suivantes : les erreurs sont agrégées avec errors.Join.
// Un contexte annulé arrête la boucle avant l'action suivante.
func (d *Dispatcher) Dispatch(ctx context.Context, stepActions []model.Action, oldTime, newTime model.Seconds) (int, error) {
	due := Due(stepActions, oldTime, newTime)
	if len(due) == 0 {
		return 0, nil
	}
	if d.policy == FirstOnly && len(due) > 1 {
		d.log.Debug("actions skipped", "policy", d.policy, "skipped", len(due)-1)
		due = due[:1]
	}

	var errs []error
	fired := 0
	for _, a := range due {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		fired++
		if err := d.exec.Dispatch(ctx, a); err != nil {
			d.log.Warn("action failed", "action", a.String(), "err", err)
			errs = append(errs, fmt.Errorf("action %s: %w", a, err))
			continue
		}
		d.log.Debug("action fired", "action", a.String())
	}
	return fired, errors.Join(errs...)
}
