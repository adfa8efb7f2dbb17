// File: internal/driver/driver.go
//
// Package driver defines the browser capability surface the bridge depends on
// and provides the chromedp-backed production implementation. The bridge core
// never imports chromedp types directly; everything flows through Driver and
// Element so tests can substitute mocks.
package driver

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"
)

// ErrElementNotFound reports that a selector matched no element. Callers
// check it with errors.Is; the concrete error carries the selector.
var ErrElementNotFound = errors.New("element not found")

// Config carries the launch options for one browser session.
type Config struct {
	Headless             bool
	ExecutablePath       string
	Proxy                string
	WindowWidth          int
	WindowHeight         int
	DisableWebdriverFlag bool
	UserAgent            string
	ExtraArgs            []string
}

// Driver is one live browser/page instance. All methods take the operation
// context; the browser's own lifetime is managed internally and ends with
// Close.
type Driver interface {
	Navigate(ctx context.Context, url string) error
	CurrentURL(ctx context.Context) (string, error)
	Title(ctx context.Context) (string, error)

	// FindElement resolves a CSS selector to an Element reference. A selector
	// matching nothing returns an error wrapping ErrElementNotFound.
	FindElement(ctx context.Context, selector string) (Element, error)

	ClickAt(ctx context.Context, x, y int) error
	MovePointer(ctx context.Context, x, y int) error

	ScrollBy(ctx context.Context, delta int) error
	ScrollToTop(ctx context.Context) error
	ScrollToBottom(ctx context.Context) error

	// WaitVisible blocks until the selector is visible or the timeout lapses.
	// A timeout is not an error; it returns (false, nil).
	WaitVisible(ctx context.Context, selector string, timeout time.Duration) (bool, error)

	RunScript(ctx context.Context, code string) (json.RawMessage, error)
	Screenshot(ctx context.Context, format string, fullPage bool) ([]byte, error)

	Close(ctx context.Context) error
}

// Element is a resolved reference to a single DOM element.
type Element interface {
	Selector() string

	// Center returns the geometric center of the element's content box.
	Center(ctx context.Context) (x, y int, err error)

	Text(ctx context.Context) (string, error)
	Click(ctx context.Context) error
	Clear(ctx context.Context) error
	InputChar(ctx context.Context, c rune) error
	InputText(ctx context.Context, text string) error
}

// LaunchFunc creates a Driver from a Config. The production implementation is
// Launch; tests inject fakes.
type LaunchFunc func(ctx context.Context, cfg Config, logger *zap.Logger) (Driver, error)
