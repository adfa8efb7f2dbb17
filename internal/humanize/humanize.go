// File: internal/humanize/humanize.go
//
// Package humanize synthesizes human-looking interaction timing and geometry:
// randomized delays, Bézier pointer paths, typing cadence, scroll jitter and
// idle cursor tremor. It performs no browser I/O of its own; callers hand it
// narrow capability interfaces (PointerMover, Scroller, CharTyper) and the
// engine drives them.
//
// All randomness flows through a single generator seeded once per process.
// Reproducible output across runs would be a fingerprint, so there is no
// per-call seeding; tests inject a fixed seed via NewWithSeed.
package humanize

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/aquilax/go-perlin"
	"go.uber.org/zap"
)

// Point is an integer screen coordinate.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// PointerMover moves the pointer to an absolute coordinate.
type PointerMover interface {
	MovePointer(ctx context.Context, x, y int) error
}

// Scroller scrolls the page vertically by a signed pixel delta.
type Scroller interface {
	ScrollBy(ctx context.Context, delta int) error
}

// CharTyper inputs a single character into the focused element.
type CharTyper interface {
	InputChar(ctx context.Context, c rune) error
}

// Engine holds the random source and timing knobs for a process.
type Engine struct {
	logger *zap.Logger

	mu  sync.Mutex
	rng *rand.Rand

	// sleep is swappable so unit tests can record durations instead of waiting.
	sleep func(ctx context.Context, d time.Duration) error

	// Perlin generators for the idle-tremor path (Hesitate).
	noiseX *perlin.Perlin
	noiseY *perlin.Perlin
}

// New creates an Engine seeded from the clock.
func New(logger *zap.Logger) *Engine {
	return NewWithSeed(logger, time.Now().UnixNano())
}

// NewWithSeed creates an Engine with a caller-controlled seed. Intended for
// tests; production code should use New.
func NewWithSeed(logger *zap.Logger, seed int64) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	// Standard Perlin parameters, offset seed for the Y axis.
	alpha, beta, n := 2.0, 2.0, int32(3)
	return &Engine{
		logger: logger.Named("humanize"),
		rng:    rand.New(rand.NewSource(seed)),
		sleep:  contextSleep,
		noiseX: perlin.NewPerlin(alpha, beta, n, seed),
		noiseY: perlin.NewPerlin(alpha, beta, n, seed+1),
	}
}

// contextSleep blocks for d or until the context is cancelled.
func contextSleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// intBetween returns a uniform integer in [min, max], both inclusive.
func (e *Engine) intBetween(min, max int) int {
	if max < min {
		min, max = max, min
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return min + e.rng.Intn(max-min+1)
}

// floatBetween returns a uniform float64 in [min, max).
func (e *Engine) floatBetween(min, max float64) float64 {
	if max < min {
		min, max = max, min
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return min + e.rng.Float64()*(max-min)
}

// chance returns true with probability p.
func (e *Engine) chance(p float64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rng.Float64() < p
}

// msBetween samples a duration uniformly from [minMs, maxMs] milliseconds.
func (e *Engine) msBetween(minMs, maxMs float64) time.Duration {
	return time.Duration(e.floatBetween(minMs, maxMs) * float64(time.Millisecond))
}
