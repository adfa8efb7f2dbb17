// File: internal/humanize/typing.go
package humanize

import (
	"context"

	"go.uber.org/zap"
)

// Default per-character delay bounds in milliseconds.
const (
	DefaultMinCharDelayMs = 50
	DefaultMaxCharDelayMs = 200
)

// thinkingPauseChance is the per-character probability of a longer pause that
// stands in for a human stopping to think mid-sentence.
const thinkingPauseChance = 0.05

// TypeText inputs text one character at a time through typist, with a uniform
// [minMs, maxMs] delay after each character. Roughly one character in twenty
// gets a 300–800 ms thinking pause instead of the normal delay.
//
// An input failure aborts the remaining characters of this call. Nothing is
// retried and already-typed characters stay put; the caller's primary action
// still counts as performed.
func (e *Engine) TypeText(ctx context.Context, typist CharTyper, text string, minMs, maxMs int) {
	if maxMs <= 0 {
		minMs, maxMs = DefaultMinCharDelayMs, DefaultMaxCharDelayMs
	}

	for i, c := range []rune(text) {
		if ctx.Err() != nil {
			return
		}
		if err := typist.InputChar(ctx, c); err != nil {
			e.logger.Debug("character input failed, aborting remainder",
				zap.Int("index", i), zap.Error(err))
			return
		}

		var err error
		if e.chance(thinkingPauseChance) {
			err = e.sleep(ctx, e.msBetween(300, 800))
		} else {
			err = e.sleep(ctx, e.msBetween(float64(minMs), float64(maxMs)))
		}
		if err != nil {
			return
		}
	}
}
