// Package clock fournit une source de temps réelle pour le controller de lecture :
// un ticker fait avancer le temps local du step courant tant que la lecture est active.
package clock

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/patrickprogramme/cakeplayer/internal/playback"
	"github.com/patrickprogramme/cakeplayer/internal/timeline"
	"github.com/patrickprogramme/cakeplayer/pkg/model"
)

const DefaultInterval = 100 * time.Millisecond

// Listener reçoit les évènements émis par le Player. Chaque évènement porte le
// Stamp (génération, step) pour lequel il a été calculé : un Seek arrivé entre
// le calcul et la livraison le rend périmé.
type Listener interface {
	TimeChanged(ctx context.Context, at playback.Stamp, newTime, oldTime model.Seconds) error
	StepChanged(ctx context.Context, at playback.Stamp, stepIndex int, t model.Seconds) error
	Ended(ctx context.Context, at playback.Stamp)
}

// Player avance le temps local et détecte les fins de step.
// Le verrou n'est jamais tenu pendant l'appel au Listener.
type Player struct {
	idx      *timeline.Index
	interval time.Duration
	rate     float64
	log      *slog.Logger

	mu       sync.Mutex
	listener Listener
	step     int
	local    model.Seconds
	playing  bool
	gen      uint64
}

type Option func(*Player)

func WithInterval(d time.Duration) Option {
	return func(p *Player) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithRate règle la vitesse de lecture (1 = temps réel).
func WithRate(r float64) Option {
	return func(p *Player) {
		if r > 0 {
			p.rate = r
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(p *Player) {
		if l != nil {
			p.log = l
		}
	}
}

func New(idx *timeline.Index, opts ...Option) *Player {
	p := &Player{
		idx:      idx,
		interval: DefaultInterval,
		rate:     1,
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Player) SetListener(l Listener) {
	p.mu.Lock()
	p.listener = l
	p.mu.Unlock()
}

// Seek repositionne le Player et retourne sa nouvelle génération.
func (p *Player) Seek(stepIndex int, t model.Seconds) uint64 {
	pos := p.idx.Clamp(timeline.Position{StepIndex: stepIndex, LocalTime: t})
	p.mu.Lock()
	defer p.mu.Unlock()
	p.step, p.local = pos.StepIndex, pos.LocalTime
	p.gen++
	return p.gen
}

func (p *Player) Play() {
	p.mu.Lock()
	p.playing = true
	p.mu.Unlock()
}

func (p *Player) Pause() {
	p.mu.Lock()
	p.playing = false
	p.mu.Unlock()
}

func (p *Player) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

func (p *Player) Position() timeline.Position {
	p.mu.Lock()
	defer p.mu.Unlock()
	return timeline.Position{StepIndex: p.step, LocalTime: p.local}
}

// Advance fait avancer la lecture de d (multiplié par le rate) et notifie le Listener.
// En fin de step, le temps s'arrête sur la durée du step puis passe au step
// suivant à 0 ; le reste du tick est ignoré. En fin du dernier step, la lecture se met en pause.
func (p *Player) Advance(ctx context.Context, d time.Duration) error {
	p.mu.Lock()
	if !p.playing || d <= 0 {
		p.mu.Unlock()
		return nil
	}
	l := p.listener
	step, old := p.step, p.local
	at := playback.Stamp{Gen: p.gen, Step: step}
	dur := p.idx.Duration(step)
	next := old + model.Seconds(d.Seconds()*p.rate)

	stepChanged, ended := false, false
	switch {
	case next < dur:
		p.local = next
	case step < p.idx.Len()-1:
		next = dur
		p.step, p.local = step+1, 0
		stepChanged = true
	default:
		next = dur
		p.local = dur
		p.playing = false
		ended = true
	}
	p.mu.Unlock()

	if l == nil {
		return nil
	}
	var errs []error
	if next != old {
		if err := l.TimeChanged(ctx, at, next, old); err != nil {
			errs = append(errs, err)
		}
	}
	if stepChanged {
		if err := l.StepChanged(ctx, at, step+1, 0); err != nil {
			errs = append(errs, err)
		}
	}
	if ended {
		l.Ended(ctx, at)
	}
	return errors.Join(errs...)
}

// Run fait tourner le ticker jusqu'à l'annulation du contexte.
// Les erreurs du Listener sont journalisées sans arrêter la lecture.
func (p *Player) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			elapsed := now.Sub(last)
			last = now
			if err := p.Advance(ctx, elapsed); err != nil {
				p.log.Warn("tick", "err", err)
			}
		}
	}
}
