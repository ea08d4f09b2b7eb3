// Package config loads runner settings from flags, environment variables and
// an optional YAML file.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. WORKOUT_TICK_INTERVAL
const EnvPrefix = "WORKOUT"

var (
	ErrMissingPlan     = errors.New("plan path is required")
	ErrBadTickInterval = errors.New("tick interval must be positive")
)

type LogConfig struct {
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

type CompanionConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	ScanTimeout time.Duration `mapstructure:"scan_timeout"`
	// PreferencesFile stores the last sensor that streamed; empty uses the
	// default under the home directory
	PreferencesFile string `mapstructure:"preferences_file"`
}

type TrackerConfig struct {
	SimulatedSpeedMPS float64 `mapstructure:"simulated_speed_mps"`
}

type RecordConfig struct {
	Out string `mapstructure:"out"`
}

// Config is the complete runner configuration
type Config struct {
	Plan         string          `mapstructure:"plan"`
	TickInterval time.Duration   `mapstructure:"tick_interval"`
	Log          LogConfig       `mapstructure:"log"`
	Companion    CompanionConfig `mapstructure:"companion"`
	Tracker      TrackerConfig   `mapstructure:"tracker"`
	Record       RecordConfig    `mapstructure:"record"`
}

// flagKeys maps command line flags to config keys
var flagKeys = map[string]string{
	"plan":                  "plan",
	"tick-interval":         "tick_interval",
	"log-file":              "log.file",
	"log-max-size":          "log.max_size_mb",
	"log-max-backups":       "log.max_backups",
	"log-max-age":           "log.max_age_days",
	"log-compress":          "log.compress",
	"companion":             "companion.enabled",
	"companion-timeout":     "companion.scan_timeout",
	"companion-preferences": "companion.preferences_file",
	"simulated-speed":       "tracker.simulated_speed_mps",
	"record-out":            "record.out",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("plan", "")
	v.SetDefault("tick_interval", time.Second)
	v.SetDefault("log.file", "workout-runner.log")
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)
	v.SetDefault("log.compress", false)
	v.SetDefault("companion.enabled", false)
	v.SetDefault("companion.scan_timeout", 30*time.Second)
	v.SetDefault("companion.preferences_file", "")
	v.SetDefault("tracker.simulated_speed_mps", 3.0)
	v.SetDefault("record.out", "")
}

// NewFlagSet declares the runner's flags
func NewFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.String("config", "", "path to a YAML config file")
	fs.StringP("plan", "p", "", "path to the workout plan (YAML or JSON)")
	fs.Duration("tick-interval", time.Second, "how often the engine re-evaluates the clock")
	fs.String("log-file", "workout-runner.log", "log file path")
	fs.Int("log-max-size", 10, "maximum log file size in megabytes before rotation")
	fs.Int("log-max-backups", 3, "number of rotated log files to keep")
	fs.Int("log-max-age", 28, "days to keep rotated log files")
	fs.Bool("log-compress", false, "gzip rotated log files")
	fs.Bool("companion", false, "watch for a Bluetooth running sensor")
	fs.Duration("companion-timeout", 30*time.Second, "how long to scan for a running sensor")
	fs.String("companion-preferences", "", "file remembering the last running sensor")
	fs.Float64("simulated-speed", 3.0, "speed of the simulated location tracker in m/s")
	fs.StringP("record-out", "o", "", "write the finished workout record as JSON to this path")
	return fs
}

// Load parses args and merges, in increasing precedence: defaults, the
// config file, environment variables, explicitly set flags
func Load(args []string) (*Config, error) {
	fs := NewFlagSet("workout-runner")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return LoadFlags(fs)
}

// LoadFlags builds a Config from an already parsed flag set
func LoadFlags(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for flagName, key := range flagKeys {
		if f := fs.Lookup(flagName); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("bind flag %s: %w", flagName, err)
			}
		}
	}

	if f := fs.Lookup("config"); f != nil && f.Value.String() != "" {
		v.SetConfigFile(f.Value.String())
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", f.Value.String(), err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if len(fs.Args()) > 0 && c.Plan == "" {
		c.Plan = fs.Arg(0)
	}
	return &c, nil
}

// Validate rejects settings the runner cannot start with
func (c *Config) Validate() error {
	if c.Plan == "" {
		return ErrMissingPlan
	}
	if c.TickInterval <= 0 {
		return fmt.Errorf("%w: %v", ErrBadTickInterval, c.TickInterval)
	}
	if c.Tracker.SimulatedSpeedMPS < 0 {
		return fmt.Errorf("simulated speed cannot be negative: %v", c.Tracker.SimulatedSpeedMPS)
	}
	return nil
}
