// File: internal/humanize/scroll.go
package humanize

import (
	"context"

	"go.uber.org/zap"
)

// DefaultScrollJitterDelta bounds the magnitude of a jitter scroll.
const DefaultScrollJitterDelta = 100

// ScrollJitter performs a small random scroll in either direction, then
// settles with a 100–300 ms pause. The sampled delta is never zero: a zero
// draw is replaced with ±30 so a jitter always visibly happens. Scroll
// failures are swallowed; jitter is garnish, not the meal.
func (e *Engine) ScrollJitter(ctx context.Context, scroller Scroller, maxDelta int) {
	if maxDelta <= 0 {
		maxDelta = DefaultScrollJitterDelta
	}

	delta := e.intBetween(-maxDelta, maxDelta)
	if delta == 0 {
		if e.chance(0.5) {
			delta = 30
		} else {
			delta = -30
		}
	}

	if err := scroller.ScrollBy(ctx, delta); err != nil {
		e.logger.Debug("jitter scroll failed", zap.Int("delta", delta), zap.Error(err))
	}
	e.DelayContext(ctx, 100, 300)
}
