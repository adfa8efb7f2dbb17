// File: internal/humanize/hesitate.go
package humanize

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"
)

// hesitateAmplitude is the maximum tremor radius in pixels while idling.
const hesitateAmplitude = 4.0

// Hesitate parks the pointer near origin for roughly the given duration while
// dispatching small Perlin-driven micro-movements, the way a hand drifts while
// its owner reads the page. Used as a cognitive pause before clicks when
// natural movement is enabled. Entirely cosmetic: any failure ends the
// hesitation early and is not reported.
func (e *Engine) Hesitate(ctx context.Context, mover PointerMover, origin Point, d time.Duration) {
	start := time.Now()
	for time.Since(start) < d {
		if ctx.Err() != nil {
			return
		}

		t := time.Since(start).Seconds()
		dx := e.noiseX.Noise1D(t*0.8) * hesitateAmplitude
		dy := e.noiseY.Noise1D(t*0.8) * hesitateAmplitude

		x := origin.X + int(math.Round(dx))
		y := origin.Y + int(math.Round(dy))
		if err := mover.MovePointer(ctx, x, y); err != nil {
			e.logger.Debug("hesitation tremor failed", zap.Error(err))
			return
		}

		pause := e.msBetween(40, 90)
		if remaining := d - time.Since(start); pause > remaining {
			pause = remaining
		}
		if pause <= 0 {
			return
		}
		if err := e.sleep(ctx, pause); err != nil {
			return
		}
	}
}
