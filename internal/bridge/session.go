// File: internal/bridge/session.go
package bridge

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/x0rw4ng/ghostbridge/internal/config"
	"github.com/x0rw4ng/ghostbridge/internal/driver"
	"github.com/x0rw4ng/ghostbridge/internal/humanize"
)

// StealthOptions is the wire shape of the init command's stealth block.
// Pointer fields distinguish "omitted" from "explicitly false/zero" so
// true-by-default options survive the round trip; omitted fields fall back
// to the process-level config defaults.
type StealthOptions struct {
	Headless             *bool    `json:"headless"`
	ExecutablePath       string   `json:"executablePath"`
	Proxy                string   `json:"proxy"`
	WindowWidth          int      `json:"windowWidth"`
	WindowHeight         int      `json:"windowHeight"`
	DisableWebdriverFlag *bool    `json:"disableWebdriverFlag"`
	UserAgent            string   `json:"userAgent"`
	ExtraArgs            []string `json:"extraArgs"`
	MinDelayMs           *int     `json:"minDelayMs"`
	MaxDelayMs           *int     `json:"maxDelayMs"`
	NaturalMouseMovement *bool    `json:"naturalMouseMovement"`
}

// sessionConfig is the resolved, immutable-per-session view of the stealth
// options. Replaced wholesale by each init; never merged.
type sessionConfig struct {
	headless             bool
	executablePath       string
	proxy                string
	windowWidth          int
	windowHeight         int
	disableWebdriverFlag bool
	userAgent            string
	extraArgs            []string
	minDelayMs           int
	maxDelayMs           int
	naturalMouseMovement bool
}

// resolveStealth layers the caller's options over the configured defaults.
func resolveStealth(opts StealthOptions, defaults config.StealthConfig) sessionConfig {
	cfg := sessionConfig{
		headless:             defaults.Headless,
		executablePath:       defaults.ExecutablePath,
		proxy:                defaults.Proxy,
		windowWidth:          defaults.WindowWidth,
		windowHeight:         defaults.WindowHeight,
		disableWebdriverFlag: defaults.DisableWebdriverFlag,
		userAgent:            defaults.UserAgent,
		extraArgs:            defaults.ExtraArgs,
		minDelayMs:           defaults.MinDelayMs,
		maxDelayMs:           defaults.MaxDelayMs,
		naturalMouseMovement: defaults.NaturalMouseMovement,
	}
	if cfg.windowWidth <= 0 {
		cfg.windowWidth = 1920
	}
	if cfg.windowHeight <= 0 {
		cfg.windowHeight = 1080
	}
	if cfg.maxDelayMs <= 0 {
		cfg.minDelayMs, cfg.maxDelayMs = 200, 800
	}

	if opts.Headless != nil {
		cfg.headless = *opts.Headless
	}
	if opts.ExecutablePath != "" {
		cfg.executablePath = opts.ExecutablePath
	}
	if opts.Proxy != "" {
		cfg.proxy = opts.Proxy
	}
	if opts.WindowWidth > 0 {
		cfg.windowWidth = opts.WindowWidth
	}
	if opts.WindowHeight > 0 {
		cfg.windowHeight = opts.WindowHeight
	}
	if opts.DisableWebdriverFlag != nil {
		cfg.disableWebdriverFlag = *opts.DisableWebdriverFlag
	}
	if opts.UserAgent != "" {
		cfg.userAgent = opts.UserAgent
	}
	if len(opts.ExtraArgs) > 0 {
		cfg.extraArgs = opts.ExtraArgs
	}
	if opts.MinDelayMs != nil {
		cfg.minDelayMs = *opts.MinDelayMs
	}
	if opts.MaxDelayMs != nil {
		cfg.maxDelayMs = *opts.MaxDelayMs
	}
	if opts.NaturalMouseMovement != nil {
		cfg.naturalMouseMovement = *opts.NaturalMouseMovement
	}
	return cfg
}

// Session owns the at-most-one live browser handle of this process together
// with its resolved stealth configuration. It is an explicit object rather
// than package globals so tests can run isolated sessions side by side.
type Session struct {
	id       string
	logger   *zap.Logger
	human    *humanize.Engine
	launch   driver.LaunchFunc
	defaults config.StealthConfig

	// mu guards drv and cfg. Dispatch itself is single-threaded, but
	// Shutdown may arrive from the signal goroutine mid-request.
	mu  sync.Mutex
	drv driver.Driver
	cfg sessionConfig
}

// NewSession creates an uninitialized session.
func NewSession(defaults config.StealthConfig, engine *humanize.Engine, launch driver.LaunchFunc, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	id := uuid.New().String()
	return &Session{
		id:       id,
		logger:   logger.Named("session").With(zap.String("session_id", id)),
		human:    engine,
		launch:   launch,
		defaults: defaults,
	}
}

// Ready reports whether a browser handle is live.
func (s *Session) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.drv != nil
}

// Driver returns the live handle, or nil when uninitialized.
func (s *Session) Driver() driver.Driver {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.drv
}

// Config returns the resolved stealth configuration of the current session.
// Meaningful only while Ready.
func (s *Session) Config() sessionConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// Init launches a browser per the given options. A session that is already
// Ready is closed first; re-init must never leak the previous browser
// process.
func (s *Session) Init(ctx context.Context, opts StealthOptions) (sessionConfig, error) {
	s.closeDriver(ctx)

	cfg := resolveStealth(opts, s.defaults)
	drv, err := s.launch(ctx, driver.Config{
		Headless:             cfg.headless,
		ExecutablePath:       cfg.executablePath,
		Proxy:                cfg.proxy,
		WindowWidth:          cfg.windowWidth,
		WindowHeight:         cfg.windowHeight,
		DisableWebdriverFlag: cfg.disableWebdriverFlag,
		UserAgent:            cfg.userAgent,
		ExtraArgs:            cfg.extraArgs,
	}, s.logger)
	if err != nil {
		return sessionConfig{}, fmt.Errorf("browser launch failed: %w", err)
	}

	s.mu.Lock()
	s.drv = drv
	s.cfg = cfg
	s.mu.Unlock()

	s.logger.Info("Session initialized",
		zap.Int("width", cfg.windowWidth),
		zap.Int("height", cfg.windowHeight),
		zap.Bool("naturalMouseMovement", cfg.naturalMouseMovement),
	)
	return cfg, nil
}

// Close tears down the browser handle. Idempotent: closing an uninitialized
// session is a no-op success, and teardown errors are swallowed.
func (s *Session) Close(ctx context.Context) {
	s.closeDriver(ctx)
}

// Shutdown is Close for the process exit path.
func (s *Session) Shutdown(ctx context.Context) {
	s.closeDriver(ctx)
}

func (s *Session) closeDriver(ctx context.Context) {
	s.mu.Lock()
	drv := s.drv
	s.drv = nil
	s.mu.Unlock()

	if drv == nil {
		return
	}
	if err := drv.Close(ctx); err != nil {
		s.logger.Debug("browser teardown reported an error", zap.Error(err))
	}
	s.logger.Info("Session closed")
}

// applyHumanDelay pauses for the session's configured delay range. Called
// after every state-mutating browser action.
func (s *Session) applyHumanDelay(ctx context.Context) {
	cfg := s.Config()
	minMs, maxMs := cfg.minDelayMs, cfg.maxDelayMs
	if maxMs <= 0 {
		minMs, maxMs = 200, 800
	}
	s.human.DelayContext(ctx, minMs, maxMs)
}
