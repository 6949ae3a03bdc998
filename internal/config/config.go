// Package config loads chatpad settings from flags, environment and an
// optional config file, and keeps the long press / long move thresholds live.
package config

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	MinDurationMs = 50
	MaxDurationMs = 1000

	envPrefix = "CHATPAD"
)

// Keys shared by flags, env and the config file.
const (
	KeyListen         = "listen"
	KeyLongPressMs    = "long_press_ms"
	KeyLongMoveMs     = "long_move_ms"
	KeyRecoveryDelay  = "recovery_delay"
	KeySendTimeout    = "send_timeout"
	KeyDeadzone       = "deadzone"
	KeyStickThreshold = "stick_threshold"
	KeyGamepad        = "gamepad"
	KeyTUI            = "tui"
	KeyTray           = "tray"
	KeySound          = "sound"
	KeyVerbose        = "verbose"
	KeyTelemetryOut   = "telemetry_out"
	KeyTelemetrySize  = "telemetry_size"
)

// Config is the resolved configuration.
type Config struct {
	Listen         string        `mapstructure:"listen"`
	LongPressMs    int           `mapstructure:"long_press_ms"`
	LongMoveMs     int           `mapstructure:"long_move_ms"`
	RecoveryDelay  time.Duration `mapstructure:"recovery_delay"`
	SendTimeout    time.Duration `mapstructure:"send_timeout"`
	Deadzone       float64       `mapstructure:"deadzone"`
	StickThreshold float64       `mapstructure:"stick_threshold"`
	Gamepad        bool          `mapstructure:"gamepad"`
	TUI            bool          `mapstructure:"tui"`
	Tray           bool          `mapstructure:"tray"`
	Sound          bool          `mapstructure:"sound"`
	Verbose        bool          `mapstructure:"verbose"`
	TelemetryOut   string        `mapstructure:"telemetry_out"`
	TelemetrySize  int           `mapstructure:"telemetry_size"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyListen, "localhost:8080")
	v.SetDefault(KeyLongPressMs, 200)
	v.SetDefault(KeyLongMoveMs, 500)
	v.SetDefault(KeyRecoveryDelay, 300*time.Millisecond)
	v.SetDefault(KeySendTimeout, 2*time.Second)
	v.SetDefault(KeyDeadzone, 0.05)
	v.SetDefault(KeyStickThreshold, 0.5)
	v.SetDefault(KeyGamepad, true)
	v.SetDefault(KeyTUI, false)
	v.SetDefault(KeyTray, runtime.GOOS == "windows")
	v.SetDefault(KeySound, false)
	v.SetDefault(KeyVerbose, false)
	v.SetDefault(KeyTelemetryOut, "")
	v.SetDefault(KeyTelemetrySize, 500)
}

// Flags returns the command line flag set.
func Flags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("chatpad", pflag.ContinueOnError)
	fs.StringP("config", "c", "", "config file (yaml, toml or json)")
	fs.StringP("listen", "l", "localhost:8080", "HTTP listen address")
	fs.Int("long-press", 200, "long press threshold in ms (50-1000)")
	fs.Int("long-move", 500, "long move threshold in ms (50-1000)")
	fs.Duration("recovery-delay", 300*time.Millisecond, "delay before checking for a chat error after a send")
	fs.Duration("send-timeout", 2*time.Second, "timeout for a single chat operation")
	fs.Float64("deadzone", 0.05, "analog stick deadzone")
	fs.Float64("stick-threshold", 0.5, "stick travel needed to register a direction")
	fs.Bool("gamepad", true, "read the game controller")
	fs.Bool("tui", false, "show the terminal status panel")
	fs.Bool("tray", runtime.GOOS == "windows", "show the system tray icon")
	fs.Bool("sound", false, "play a click when a command is sent")
	fs.BoolP("verbose", "v", false, "log debug messages")
	fs.String("telemetry-out", "", "write telemetry as YAML to this file on exit")
	fs.Int("telemetry-size", 500, "number of recent commands kept in telemetry")
	return fs
}

var flagKeys = map[string]string{
	"listen":          KeyListen,
	"long-press":      KeyLongPressMs,
	"long-move":       KeyLongMoveMs,
	"recovery-delay":  KeyRecoveryDelay,
	"send-timeout":    KeySendTimeout,
	"deadzone":        KeyDeadzone,
	"stick-threshold": KeyStickThreshold,
	"gamepad":         KeyGamepad,
	"tui":             KeyTUI,
	"tray":            KeyTray,
	"sound":           KeySound,
	"verbose":         KeyVerbose,
	"telemetry-out":   KeyTelemetryOut,
	"telemetry-size":  KeyTelemetrySize,
}

// Load parses args and returns the configuration along with the viper
// instance backing it.
func Load(args []string) (*Config, *viper.Viper, error) {
	fs := Flags()
	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}

	v := viper.New()
	setDefaults(v)

	for name, key := range flagKeys {
		if err := v.BindPFlag(key, fs.Lookup(name)); err != nil {
			return nil, nil, fmt.Errorf("bind flag %s: %w", name, err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	explicit, _ := fs.GetString("config")
	if explicit != "" {
		v.SetConfigFile(explicit)
	} else {
		v.SetConfigName("chatpad")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if explicit != "" || !errors.As(err, &notFound) {
			return nil, nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.LongPressMs = ClampMs(cfg.LongPressMs)
	cfg.LongMoveMs = ClampMs(cfg.LongMoveMs)
	return &cfg, v, nil
}

// ClampMs bounds a threshold to [MinDurationMs, MaxDurationMs].
func ClampMs(ms int) int {
	return max(MinDurationMs, min(MaxDurationMs, ms))
}
