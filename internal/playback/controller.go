package playback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/patrickprogramme/cakeplayer/internal/actions"
	"github.com/patrickprogramme/cakeplayer/internal/captions"
	"github.com/patrickprogramme/cakeplayer/internal/timeline"
	"github.com/patrickprogramme/cakeplayer/pkg/model"
)

var ErrNoTimeline = errors.New("playback: timeline is required")

// TimeSource est le lecteur qui fait avancer le temps (vidéo, horloge...).
// Il signale ensuite les changements via TimeChanged / StepChanged / Ended
// (ou les variantes sans Stamp). Seek retourne la nouvelle génération de la source.
type TimeSource interface {
	Seek(stepIndex int, t model.Seconds) uint64
	Play()
	Pause()
}

// Stamp identifie la position de la source au moment où un évènement a été
// calculé : Gen change à chaque Seek, Step est le step alors en cours.
type Stamp struct {
	Gen  uint64
	Step int
}

type nopSource struct{}

func (nopSource) Seek(int, model.Seconds) uint64 { return 0 }
func (nopSource) Play()                          {}
func (nopSource) Pause()                         {}

// Timeline regroupe les données immuables que le controller consulte.
type Timeline struct {
	Index    *timeline.Index
	Actions  [][]model.Action // par step, triées par On
	Captions captions.Track
	Titles   []string
	Start    model.Seconds // temps local initial du step 0
}

func (tl Timeline) title(i int) string {
	if i >= 0 && i < len(tl.Titles) && tl.Titles[i] != "" {
		return tl.Titles[i]
	}
	return fmt.Sprintf("Step %d", i+1)
}

func (tl Timeline) actions(i int) []model.Action {
	if i < 0 || i >= len(tl.Actions) {
		return nil
	}
	return tl.Actions[i]
}

// Controller est l'unique propriétaire de State. Toutes les méthodes sont sûres
// en concurrence.
type Controller struct {
	tl   Timeline
	disp *actions.Dispatcher
	log  *slog.Logger

	mu       sync.Mutex
	state    State
	backward bool
	src      TimeSource
	gen      uint64 // génération de src depuis le dernier Seek
	seq      uint64 // numéro du dernier changement d'état

	subMu  sync.Mutex
	subs   map[int]func(View)
	nextID int

	// pubMu ordonne les livraisons ; published est le Seq de la dernière vue livrée.
	pubMu     sync.Mutex
	published uint64
}

type Option func(*Controller)

func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.log = l
		}
	}
}

// WithSource branche la source de temps dès la construction (voir aussi Attach).
func WithSource(src TimeSource) Option {
	return func(c *Controller) {
		if src != nil {
			c.src = src
		}
	}
}

func NewController(tl Timeline, disp *actions.Dispatcher, opts ...Option) (*Controller, error) {
	if tl.Index == nil {
		return nil, ErrNoTimeline
	}
	if disp == nil {
		disp = actions.NewDispatcher(actions.ExecutorFunc(func(context.Context, model.Action) error { return nil }))
	}
	c := &Controller{
		tl:    tl,
		disp:  disp,
		log:   slog.Default(),
		src:   nopSource{},
		state: Initial(tl.Index, tl.Start),
		subs:  make(map[int]func(View)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Attach branche la source de temps et la positionne sur l'état courant.
func (c *Controller) Attach(src TimeSource) {
	if src == nil {
		src = nopSource{}
	}
	c.mu.Lock()
	c.src = src
	st := c.state
	c.gen = src.Seek(st.StepIndex, st.VideoTime)
	if st.Playing {
		src.Play()
	}
	c.mu.Unlock()
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}

// Seek place la lecture sur (stepIndex, t) et repositionne la source.
// Un step hors limites est borné : la vue bornée est retournée avec l'erreur.
func (c *Controller) Seek(ctx context.Context, stepIndex int, t model.Seconds) (View, error) {
	c.mu.Lock()
	prev := c.state
	next, err := Reduce(c.tl.Index, prev, Seek{StepIndex: stepIndex, VideoTime: t})
	c.commitLocked(prev, next)
	c.gen = c.src.Seek(next.StepIndex, next.VideoTime)
	v := c.changedLocked()
	c.mu.Unlock()

	if err != nil {
		c.log.Debug("seek clamped", "step", stepIndex, "err", err)
	}
	c.log.Debug("seek", "state", next.String())
	c.publish(v)
	return v, err
}

// SeekGlobal convertit un temps global en position puis appelle Seek.
func (c *Controller) SeekGlobal(ctx context.Context, global model.Seconds) (View, error) {
	p := c.tl.Index.FromGlobal(global)
	return c.Seek(ctx, p.StepIndex, p.LocalTime)
}

// Next va au début du step suivant (reste sur le dernier).
func (c *Controller) Next(ctx context.Context) (View, error) {
	step := c.State().StepIndex + 1
	if step >= c.tl.Index.Len() {
		step = c.tl.Index.Len() - 1
	}
	return c.Seek(ctx, step, 0)
}

// Prev revient au début du step précédent (ou du premier).
func (c *Controller) Prev(ctx context.Context) (View, error) {
	step := c.State().StepIndex - 1
	if step < 0 {
		step = 0
	}
	return c.Seek(ctx, step, 0)
}

// Play démarre la source. En fin de timeline, la lecture reprend au début.
func (c *Controller) Play(ctx context.Context) View {
	c.mu.Lock()
	prev := c.state
	if c.atEndLocked() {
		rewound, _ := Reduce(c.tl.Index, prev, Seek{})
		c.commitLocked(prev, rewound)
		c.gen = c.src.Seek(rewound.StepIndex, rewound.VideoTime)
	}
	next, _ := Reduce(c.tl.Index, c.state, Play{})
	c.state = next
	if !prev.Playing {
		c.src.Play()
	}
	v := c.changedLocked()
	c.mu.Unlock()

	c.publish(v)
	return v
}

func (c *Controller) Pause(ctx context.Context) View {
	c.mu.Lock()
	prev := c.state
	c.state, _ = Reduce(c.tl.Index, prev, Pause{})
	if prev.Playing {
		c.src.Pause()
	}
	v := c.changedLocked()
	c.mu.Unlock()

	c.publish(v)
	return v
}

func (c *Controller) Toggle(ctx context.Context) View {
	if c.State().Playing {
		return c.Pause(ctx)
	}
	return c.Play(ctx)
}

// OnTimeChange applique un tick au step courant : les actions franchies entre
// oldTime et newTime sont rejouées, puis VideoTime suit.
// Les erreurs de l'executor sont retournées mais n'empêchent pas la mise à jour.
func (c *Controller) OnTimeChange(ctx context.Context, newTime, oldTime model.Seconds) error {
	return c.timeChange(ctx, nil, newTime, oldTime)
}

// TimeChanged est OnTimeChange pour une source qui horodate ses évènements.
// Un tick calculé avant le dernier Seek, ou pour un autre step, est ignoré.
func (c *Controller) TimeChanged(ctx context.Context, at Stamp, newTime, oldTime model.Seconds) error {
	return c.timeChange(ctx, &at, newTime, oldTime)
}

func (c *Controller) timeChange(ctx context.Context, at *Stamp, newTime, oldTime model.Seconds) error {
	c.mu.Lock()
	if c.staleLocked(at) {
		c.mu.Unlock()
		c.log.Debug("tick périmé ignoré", "step", at.Step, "gen", at.Gen)
		return nil
	}
	prev := c.state
	_, dispErr := c.disp.Dispatch(ctx, c.tl.actions(prev.StepIndex), oldTime, newTime)
	c.state, _ = Reduce(c.tl.Index, prev, Tick{NewTime: newTime, OldTime: oldTime})
	v := c.changedLocked()
	c.mu.Unlock()

	c.publish(v)
	return dispErr
}

// OnStepChange est appelé par la source quand elle change de step.
func (c *Controller) OnStepChange(ctx context.Context, stepIndex int, t model.Seconds) error {
	return c.stepChange(ctx, nil, stepIndex, t)
}

// StepChanged est OnStepChange horodaté ; at.Step est le step que la source quitte.
func (c *Controller) StepChanged(ctx context.Context, at Stamp, stepIndex int, t model.Seconds) error {
	return c.stepChange(ctx, &at, stepIndex, t)
}

func (c *Controller) stepChange(ctx context.Context, at *Stamp, stepIndex int, t model.Seconds) error {
	c.mu.Lock()
	if c.staleLocked(at) {
		c.mu.Unlock()
		c.log.Debug("changement de step périmé ignoré", "step", stepIndex, "gen", at.Gen)
		return nil
	}
	prev := c.state
	next, err := Reduce(c.tl.Index, prev, StepChange{StepIndex: stepIndex, VideoTime: t})
	c.commitLocked(prev, next)
	v := c.changedLocked()
	c.mu.Unlock()

	c.log.Debug("step change", "step", next.StepIndex, "title", v.StepTitle)
	c.publish(v)
	return err
}

// OnEnd est appelé quand la source s'arrête en fin de timeline.
func (c *Controller) OnEnd(ctx context.Context) {
	c.end(nil)
}

// Ended est OnEnd horodaté.
func (c *Controller) Ended(ctx context.Context, at Stamp) {
	c.end(&at)
}

func (c *Controller) end(at *Stamp) {
	c.mu.Lock()
	if c.staleLocked(at) {
		c.mu.Unlock()
		return
	}
	c.state, _ = Reduce(c.tl.Index, c.state, Pause{})
	v := c.changedLocked()
	c.mu.Unlock()

	c.log.Debug("end of timeline")
	c.publish(v)
}

// staleLocked : l'évènement vient d'avant le dernier Seek ou d'un autre step.
func (c *Controller) staleLocked(at *Stamp) bool {
	return at != nil && (at.Gen != c.gen || at.Step != c.state.StepIndex)
}

// Subscribe enregistre fn, appelée après chaque changement d'état (hors verrou).
// Les vues arrivent dans l'ordre de Seq, une vue plus ancienne que la dernière
// livrée est sautée. fn ne doit pas modifier le controller de façon synchrone.
// La fonction retournée désinscrit fn.
func (c *Controller) Subscribe(fn func(View)) func() {
	c.subMu.Lock()
	id := c.nextID
	c.nextID++
	c.subs[id] = fn
	c.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.subMu.Lock()
			delete(c.subs, id)
			c.subMu.Unlock()
		})
	}
}

func (c *Controller) publish(v View) {
	c.pubMu.Lock()
	defer c.pubMu.Unlock()
	if v.Seq <= c.published {
		return
	}
	c.published = v.Seq

	c.subMu.Lock()
	fns := make([]func(View), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.subMu.Unlock()

	for _, fn := range fns {
		fn(v)
	}
}

func (c *Controller) commitLocked(prev, next State) {
	if next.StepIndex != prev.StepIndex {
		c.backward = next.StepIndex < prev.StepIndex
	}
	c.state = next
}

// changedLocked numérote le changement d'état et retourne la vue correspondante.
func (c *Controller) changedLocked() View {
	c.seq++
	return c.viewLocked()
}

func (c *Controller) atEndLocked() bool {
	last := c.tl.Index.Len() - 1
	return c.state.StepIndex == last && c.state.VideoTime >= c.tl.Index.Duration(last)
}
