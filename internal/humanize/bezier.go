// File: internal/humanize/bezier.go
package humanize

import (
	"context"
	"math"

	"go.uber.org/zap"
)

// cubicBezier evaluates one axis of a cubic Bézier curve at parameter t.
func cubicBezier(t, p0, p1, p2, p3 float64) float64 {
	omt := 1.0 - t
	return omt*omt*omt*p0 +
		3*omt*omt*t*p1 +
		3*omt*t*t*p2 +
		t*t*t*p3
}

// CurvePoints generates numPoints+1 integer points along a cubic Bézier curve
// from start to end. The control points sit at randomized fractions of the
// displacement (20–40% and 60–80%) and are perturbed by uniform noise
// proportional to the travel distance, so two calls with identical endpoints
// produce different curves. Identical paths across sessions are a fingerprint.
func (e *Engine) CurvePoints(start, end Point, numPoints int) []Point {
	if numPoints < 1 {
		numPoints = 1
	}

	x0, y0 := float64(start.X), float64(start.Y)
	x3, y3 := float64(end.X), float64(end.Y)

	dx := x3 - x0
	dy := y3 - y0
	dist := math.Hypot(dx, dy)

	// Spread scales with distance but never collapses below 30px, so even
	// short hops wobble.
	spread := math.Max(dist*0.3, 30)
	x1 := x0 + dx*e.floatBetween(0.2, 0.4) + e.floatBetween(-spread, spread)
	y1 := y0 + dy*e.floatBetween(0.2, 0.4) + e.floatBetween(-spread, spread)
	x2 := x0 + dx*e.floatBetween(0.6, 0.8) + e.floatBetween(-spread, spread)
	y2 := y0 + dy*e.floatBetween(0.6, 0.8) + e.floatBetween(-spread, spread)

	points := make([]Point, 0, numPoints+1)
	for i := 0; i <= numPoints; i++ {
		t := float64(i) / float64(numPoints)
		points = append(points, Point{
			X: int(math.Round(cubicBezier(t, x0, x1, x2, x3))),
			Y: int(math.Round(cubicBezier(t, y0, y1, y2, y3))),
		})
	}
	return points
}

// MouseMove walks the pointer from start to end along a fresh Bézier path,
// pausing 5–25 ms between steps to mimic hand-speed variation. The whole move
// is cosmetic: a failed step abandons the remainder without reporting an
// error, and the caller proceeds with its primary action.
func (e *Engine) MouseMove(ctx context.Context, mover PointerMover, start, end Point) {
	numPoints := e.intBetween(15, 30)
	points := e.CurvePoints(start, end, numPoints)

	for _, p := range points {
		if ctx.Err() != nil {
			return
		}
		if err := mover.MovePointer(ctx, p.X, p.Y); err != nil {
			e.logger.Debug("pointer move step failed, abandoning path",
				zap.Int("x", p.X), zap.Int("y", p.Y), zap.Error(err))
			return
		}
		if err := e.sleep(ctx, e.msBetween(5, 25)); err != nil {
			return
		}
	}
}
