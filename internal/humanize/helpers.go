// File: internal/humanize/helpers.go
package humanize

import "context"

// DefaultNoiseOffset bounds the per-axis jitter added to click coordinates.
const DefaultNoiseOffset = 3

// Delay blocks the caller for a uniformly sampled duration in
// [minMs, maxMs] milliseconds. Applied after every state-mutating browser
// action so command pacing never looks mechanical.
func (e *Engine) Delay(minMs, maxMs int) {
	e.DelayContext(context.Background(), minMs, maxMs)
}

// DelayContext is Delay with cancellation support.
func (e *Engine) DelayContext(ctx context.Context, minMs, maxMs int) {
	if maxMs < minMs {
		minMs, maxMs = maxMs, minMs
	}
	if maxMs <= 0 {
		return
	}
	_ = e.sleep(ctx, e.msBetween(float64(minMs), float64(maxMs)))
}

// ViewportPoint returns a plausible resting position for the pointer: a
// uniform point inside the central 80% band of the viewport on both axes.
func (e *Engine) ViewportPoint(width, height int) Point {
	return Point{
		X: e.intBetween(width/10, width*9/10),
		Y: e.intBetween(height/10, height*9/10),
	}
}

// NoisyPoint adds independent uniform integer noise in [-maxOffset, maxOffset]
// to each axis, clamped to non-negative coordinates. Pixel-perfect clicks on
// element centers are a giveaway.
func (e *Engine) NoisyPoint(x, y, maxOffset int) Point {
	if maxOffset <= 0 {
		maxOffset = DefaultNoiseOffset
	}
	nx := x + e.intBetween(-maxOffset, maxOffset)
	ny := y + e.intBetween(-maxOffset, maxOffset)
	if nx < 0 {
		nx = 0
	}
	if ny < 0 {
		ny = 0
	}
	return Point{X: nx, Y: ny}
}
