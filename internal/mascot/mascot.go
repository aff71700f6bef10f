// Package mascot keeps the headless state of the desktop mascot: its current
// expression and screen position. A renderer polls State.
package mascot

import (
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/text/width"

	"github.com/i474232898/virtual-mascot/internal/common"
)

type Expression string

const (
	Normal Expression = "normal"
	Happy  Expression = "happy"
	Angry  Expression = "angry"
	Blink  Expression = "blink"
)

// Durations controls how long a temporary expression is held.
type Durations struct {
	Angry time.Duration
	Happy time.Duration
	Blink time.Duration
}

var DefaultDurations = Durations{
	Angry: 1500 * time.Millisecond,
	Happy: 1500 * time.Millisecond,
	Blink: 800 * time.Millisecond,
}

// Bounds describes the screen and the sprite placed on it, in pixels.
type Bounds struct {
	ScreenWidth  int
	ScreenHeight int
	SpriteWidth  int
	SpriteHeight int
}

var DefaultBounds = Bounds{ScreenWidth: 1920, ScreenHeight: 1080, SpriteWidth: 200, SpriteHeight: 200}

// State is a snapshot of the mascot.
type State struct {
	Expression Expression `json:"expression"`
	X          int        `json:"x"`
	Y          int        `json:"y"`
}

type Mascot struct {
	mu        sync.Mutex
	state     State
	bounds    Bounds
	durations Durations
	timer     *time.Timer
	gen       uint64
	closed    bool
	log       zerolog.Logger
}

func New(bounds Bounds, durations Durations, log zerolog.Logger) *Mascot {
	if bounds.ScreenWidth <= 0 || bounds.ScreenHeight <= 0 {
		bounds = DefaultBounds
	}
	if durations == (Durations{}) {
		durations = DefaultDurations
	}
	return &Mascot{
		state:     State{Expression: Normal},
		bounds:    bounds,
		durations: durations,
		log:       log,
	}
}

// Normalize folds half-width katakana and full-width ASCII to their
// canonical widths and trims surrounding space.
func Normalize(text string) string {
	return strings.TrimSpace(width.Fold.String(text))
}

// React picks an expression hint from the user's text. It returns the
// expression shown, or Normal when no keyword matched.
func (m *Mascot) React(text string) Expression {
	normalized := Normalize(text)

	switch {
	case strings.Contains(normalized, "怒"):
		m.show(Angry, m.durations.Angry)
		return Angry
	case common.HasAny(normalized, "笑", "楽"):
		m.show(Happy, m.durations.Happy)
		return Happy
	case common.HasAny(normalized, "驚", "びっくり"):
		m.show(Blink, m.durations.Blink)
		return Blink
	}
	return Normal
}

// Blink closes the eyes briefly. It only acts from the Normal expression.
func (m *Mascot) Blink() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed || m.state.Expression != Normal {
		return false
	}
	m.showLocked(Blink, m.durations.Blink)
	return true
}

// Wander moves the sprite to a random position fully on screen.
func (m *Mascot) Wander() (int, int) {
	maxX := m.bounds.ScreenWidth - m.bounds.SpriteWidth
	maxY := m.bounds.ScreenHeight - m.bounds.SpriteHeight
	x, y := 0, 0
	if maxX > 0 {
		x = rand.IntN(maxX + 1)
	}
	if maxY > 0 {
		y = rand.IntN(maxY + 1)
	}

	m.mu.Lock()
	m.state.X, m.state.Y = x, y
	m.mu.Unlock()

	m.log.Debug().Int("x", x).Int("y", y).Msg("mascot moved")
	return x, y
}

func (m *Mascot) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Close stops a pending expression reset.
func (m *Mascot) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

// show sets expr and schedules the return to Normal. A newer expression
// supersedes the pending reset of an older one.
func (m *Mascot) show(expr Expression, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.showLocked(expr, d)
}

func (m *Mascot) showLocked(expr Expression, d time.Duration) {
	m.state.Expression = expr
	m.gen++
	gen := m.gen
	if m.timer != nil {
		m.timer.Stop()
	}
	m.timer = time.AfterFunc(d, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if m.gen == gen {
			m.state.Expression = Normal
			m.timer = nil
		}
	})
	m.log.Debug().Str("expression", string(expr)).Dur("for", d).Msg("expression changed")
}
