// File: internal/config/config.go
package config

import (
	"fmt"
	"strings"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Config holds the entire application configuration.
type Config struct {
	Logger  LoggerConfig  `mapstructure:"logger" yaml:"logger"`
	Stealth StealthConfig `mapstructure:"stealth" yaml:"stealth"`
}

// LoggerConfig controls the zap logger setup.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// StealthConfig carries the process-level defaults for a browser session.
// Every field can be overridden per session by the init command's params;
// these values only fill the gaps the caller leaves.
type StealthConfig struct {
	Headless             bool     `mapstructure:"headless" yaml:"headless"`
	ExecutablePath       string   `mapstructure:"executable_path" yaml:"executable_path"`
	Proxy                string   `mapstructure:"proxy" yaml:"proxy"`
	WindowWidth          int      `mapstructure:"window_width" yaml:"window_width"`
	WindowHeight         int      `mapstructure:"window_height" yaml:"window_height"`
	DisableWebdriverFlag bool     `mapstructure:"disable_webdriver_flag" yaml:"disable_webdriver_flag"`
	UserAgent            string   `mapstructure:"user_agent" yaml:"user_agent"`
	ExtraArgs            []string `mapstructure:"extra_args" yaml:"extra_args"`
	MinDelayMs           int      `mapstructure:"min_delay_ms" yaml:"min_delay_ms"`
	MaxDelayMs           int      `mapstructure:"max_delay_ms" yaml:"max_delay_ms"`
	NaturalMouseMovement bool     `mapstructure:"natural_mouse_movement" yaml:"natural_mouse_movement"`
}

// setDefaults registers the baseline configuration values with viper.
func setDefaults() {
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.format", "console")
	viper.SetDefault("logger.service_name", "ghostbridge")
	viper.SetDefault("logger.max_size", 50)
	viper.SetDefault("logger.max_backups", 3)
	viper.SetDefault("logger.max_age", 14)
	viper.SetDefault("logger.colors.debug", "cyan")
	viper.SetDefault("logger.colors.info", "green")
	viper.SetDefault("logger.colors.warn", "yellow")
	viper.SetDefault("logger.colors.error", "red")
	viper.SetDefault("logger.colors.dpanic", "magenta")
	viper.SetDefault("logger.colors.panic", "magenta")
	viper.SetDefault("logger.colors.fatal", "magenta")

	viper.SetDefault("stealth.headless", false)
	viper.SetDefault("stealth.window_width", 1920)
	viper.SetDefault("stealth.window_height", 1080)
	viper.SetDefault("stealth.disable_webdriver_flag", true)
	viper.SetDefault("stealth.min_delay_ms", 200)
	viper.SetDefault("stealth.max_delay_ms", 800)
	viper.SetDefault("stealth.natural_mouse_movement", true)
}

// Initialize reads the config file and environment variables into viper.
// A missing config file is not an error; defaults and env vars carry the day.
func Initialize(cfgFile string) error {
	setDefaults()

	if cfgFile != "" {
		expanded, err := homedir.Expand(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to expand config path %q: %w", cfgFile, err)
		}
		viper.SetConfigFile(expanded)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("GHOSTBRIDGE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; proceed with defaults/env vars.
	}
	return nil
}

// Load is a convenience helper combining Initialize and Unmarshal.
func Load(cfgFile string) (*Config, error) {
	if err := Initialize(cfgFile); err != nil {
		return nil, err
	}
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}
