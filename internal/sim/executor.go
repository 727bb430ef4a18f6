package sim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cast"

	"github.com/patrickprogramme/cakeplayer/pkg/model"
)

var (
	ErrUnknownAction   = errors.New("sim: unknown action type")
	ErrMissingSelector = errors.New("sim: action needs a selector")
	ErrMissingURL      = errors.New("sim: navigate needs a url")
	ErrBadParam        = errors.New("sim: invalid action parameter")
)

// Kind est le type d'action normalisé.
type Kind string

const (
	KindClick    Kind = "click"
	KindInput    Kind = "input"
	KindScroll   Kind = "scroll"
	KindHover    Kind = "hover"
	KindNavigate Kind = "navigate"
	KindFocus    Kind = "focus"
)

// Normalize ramène les alias ("type", "route_change"...) au type canonique.
func Normalize(t string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(t)) {
	case "click":
		return KindClick, nil
	case "input", "type":
		return KindInput, nil
	case "scroll":
		return KindScroll, nil
	case "hover":
		return KindHover, nil
	case "navigate", "route_change", "goto":
		return KindNavigate, nil
	case "focus":
		return KindFocus, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAction, t)
}

// Executor applique les actions à son Document.
type Executor struct {
	doc *Document
	log *slog.Logger
}

func NewExecutor(doc *Document, log *slog.Logger) *Executor {
	if log == nil {
		log = slog.Default()
	}
	return &Executor{doc: doc, log: log}
}

// Dispatch valide puis applique a. Une action invalide ne touche pas au document.
func (e *Executor) Dispatch(ctx context.Context, a model.Action) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	kind, err := Normalize(a.Type)
	if err != nil {
		return err
	}
	sel := strings.TrimSpace(a.Selector)

	switch kind {
	case KindClick, KindInput, KindHover, KindFocus:
		if sel == "" {
			return fmt.Errorf("%w: %s", ErrMissingSelector, kind)
		}
	}

	switch kind {
	case KindClick:
		e.doc.click(sel)
	case KindInput:
		e.doc.input(sel, a.Value)
	case KindHover:
		e.doc.hover(sel)
	case KindFocus:
		e.doc.setFocus(sel)
	case KindScroll:
		x, y, err := scrollTarget(a)
		if err != nil {
			return err
		}
		e.doc.scroll(x, y)
	case KindNavigate:
		url := a.Value
		if url == "" {
			url = a.Params["url"]
		}
		if strings.TrimSpace(url) == "" {
			return ErrMissingURL
		}
		e.doc.navigate(url)
	}
	e.log.Debug("sim", "kind", kind, "selector", sel)
	return nil
}

// scrollTarget lit la position depuis params x/y, ou depuis Value ("y" ou "x,y").
func scrollTarget(a model.Action) (float64, float64, error) {
	if len(a.Params) > 0 {
		x, err := cast.ToFloat64E(orZero(a.Params["x"]))
		if err != nil {
			return 0, 0, fmt.Errorf("%w: x=%q", ErrBadParam, a.Params["x"])
		}
		y, err := cast.ToFloat64E(orZero(a.Params["y"]))
		if err != nil {
			return 0, 0, fmt.Errorf("%w: y=%q", ErrBadParam, a.Params["y"])
		}
		return x, y, nil
	}

	v := strings.TrimSpace(a.Value)
	if v == "" {
		return 0, 0, nil
	}
	xs, ys, found := strings.Cut(v, ",")
	if !found {
		xs, ys = "0", xs
	}
	x, err := cast.ToFloat64E(strings.TrimSpace(xs))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrBadParam, v)
	}
	y, err := cast.ToFloat64E(strings.TrimSpace(ys))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrBadParam, v)
	}
	return x, y, nil
}

func orZero(s string) string {
	if strings.TrimSpace(s) == "" {
		return "0"
	}
	return strings.TrimSpace(s)
}
