// File: internal/driver/stealth.go
package driver

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

//go:embed evasions.js
var evasionsScript string

// stealthTasks builds the CDP actions that make the automated browser present
// as a user-operated one: a user-agent override when configured and an
// evasions script registered before any document runs.
func stealthTasks(cfg Config, logger *zap.Logger) chromedp.Tasks {
	tasks := chromedp.Tasks{}

	if cfg.UserAgent != "" {
		logger.Debug("Applying user-agent override", zap.String("userAgent", cfg.UserAgent))
		tasks = append(tasks, emulation.SetUserAgentOverride(cfg.UserAgent))
	}

	if cfg.DisableWebdriverFlag {
		// AddScriptToEvaluateOnNewDocument's Do returns two values, so it
		// needs the ActionFunc wrapper.
		tasks = append(tasks, chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(evasionsScript).Do(ctx)
			if err != nil {
				return fmt.Errorf("failed to inject evasions script: %w", err)
			}
			return nil
		}))
	}

	return tasks
}
