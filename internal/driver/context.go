// File: internal/driver/context.go
package driver

import "context"

// mergeContext derives a context from primary (which carries the CDP
// connection values) that is additionally canceled when secondary is. Chromedp
// actions must run against the browser context's value chain, but each request
// brings its own cancellation; this joins the two.
func mergeContext(primary, secondary context.Context) (context.Context, context.CancelFunc) {
	merged, cancel := context.WithCancel(primary)

	go func() {
		select {
		case <-secondary.Done():
			cancel()
		case <-merged.Done():
		}
	}()

	return merged, cancel
}
