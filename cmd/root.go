// -- cmd/root.go --
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/x0rw4ng/ghostbridge/internal/bridge"
	"github.com/x0rw4ng/ghostbridge/internal/config"
	"github.com/x0rw4ng/ghostbridge/internal/driver"
	"github.com/x0rw4ng/ghostbridge/internal/humanize"
	"github.com/x0rw4ng/ghostbridge/internal/observability"
)

var (
	cfgFile string
)

// rootCmd runs the bridge itself: a JSON-RPC loop on stdin/stdout driving a
// stealth browser session. There are no positional arguments; the parent
// process owns the conversation.
var rootCmd = &cobra.Command{
	Use:   "ghostbridge",
	Short: "Ghostbridge is a stealth browser-automation bridge speaking JSON-RPC over stdio.",
	// Version is dynamically set at build time. See cmd/version.go.
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Initialize(cfgFile); err != nil {
			return err
		}

		var cfg config.Config
		if err := viper.Unmarshal(&cfg); err != nil {
			// Initialize a fallback logger if config unmarshal fails.
			observability.InitializeLogger(config.LoggerConfig{Level: "info", Format: "console", ServiceName: "ghostbridge"})
			return fmt.Errorf("failed to unmarshal config: %w", err)
		}

		observability.InitializeLogger(cfg.Logger)
		observability.GetLogger().Info("Starting ghostbridge", zap.String("version", Version))
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBridge()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		observability.GetLogger().Error("Command execution failed", zap.Error(err))
		observability.Sync()
		os.Exit(1)
	}
	observability.Sync()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./config.yaml)")
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}

// runBridge wires the session, dispatcher and transport loop together and runs
// until stdin reaches EOF or the process receives a termination signal.
func runBridge() error {
	logger := observability.GetLogger()

	var cfg config.Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine := humanize.New(logger)
	session := bridge.NewSession(cfg.Stealth, engine, driver.Launch, logger)
	dispatcher := bridge.NewDispatcher(session, logger)
	loop := bridge.NewLoop(os.Stdin, os.Stdout, dispatcher, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return loop.Run(gctx)
	})

	loopDone := make(chan error, 1)
	go func() { loopDone <- g.Wait() }()

	// The loop cannot be interrupted while blocked on a stdin read, so a
	// termination signal tears the browser down and exits without waiting
	// for the reader goroutine.
	select {
	case err := <-loopDone:
		session.Shutdown(context.Background())
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
		session.Shutdown(context.Background())
	}
	return nil
}
