package config

import (
	"os"
	"time"

	"codeberg.org/mutker/batterypanel/internal/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultLogLevel       = "info"
	DefaultHelperPath     = "/usr/sbin/xfpm-power-backlight-helper"
	DefaultPkexec         = "pkexec"
	DefaultDebounceMs     = 50
	DefaultPowerSupplyDir = "/sys/class/power_supply"
	DefaultIcon           = "battery-full-charged"
	DefaultConfigPath     = "/etc/batterypanel.toml"

	envConfig = "BATTERYPANEL_CONFIG"
)

type Config struct {
	LogLevel       string `mapstructure:"log_level"`
	HelperPath     string `mapstructure:"helper_path"`
	Pkexec         string `mapstructure:"pkexec"`
	DebounceMs     int    `mapstructure:"debounce_ms"`
	Popup          bool   `mapstructure:"popup"`
	RequireBattery bool   `mapstructure:"require_battery"`
	PowerSupplyDir string `mapstructure:"power_supply_dir"`
	DefaultIcon    string `mapstructure:"default_icon"`
}

// Debounce returns the brightness debounce delay.
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.DebounceMs) * time.Millisecond
}

// Load reads configuration from the config file and the given command
// line arguments (without the program name). Flags override file values.
func Load(args []string) (*Config, error) {
	errFactory := errors.New()

	v := viper.New()
	setDefaults(v)

	flags := pflag.NewFlagSet("batterypanel", pflag.ContinueOnError)
	configPath := flags.String("config", "", "Path to the configuration file")
	flags.String("log-level", DefaultLogLevel, "Log level (debug, info, warning, error)")
	flags.String("helper", DefaultHelperPath, "Path to the backlight helper")
	flags.String("pkexec", DefaultPkexec, "Privilege escalation command for brightness writes (empty to disable)")
	flags.Int("debounce", DefaultDebounceMs, "Brightness write debounce in milliseconds")
	flags.Bool("popup", false, "Run the interactive terminal popup")
	flags.Bool("require-battery", true, "Exit when no battery is present")
	flags.String("power-supply-dir", DefaultPowerSupplyDir, "Power supply sysfs directory")

	if err := flags.Parse(args); err != nil {
		return nil, errFactory.Wrap(errors.ErrBindFlags, err)
	}

	bindings := map[string]string{
		"log_level":        "log-level",
		"helper_path":      "helper",
		"pkexec":           "pkexec",
		"debounce_ms":      "debounce",
		"popup":            "popup",
		"require_battery":  "require-battery",
		"power_supply_dir": "power-supply-dir",
	}
	for key, flag := range bindings {
		if err := v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			return nil, errFactory.Wrap(errors.ErrBindFlags, err)
		}
	}

	path := *configPath
	if path == "" {
		path = os.Getenv(envConfig)
	}
	if err := readConfigFile(v, path); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errFactory.Wrap(errors.ErrInvalidConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("helper_path", DefaultHelperPath)
	v.SetDefault("pkexec", DefaultPkexec)
	v.SetDefault("debounce_ms", DefaultDebounceMs)
	v.SetDefault("popup", false)
	v.SetDefault("require_battery", true)
	v.SetDefault("power_supply_dir", DefaultPowerSupplyDir)
	v.SetDefault("default_icon", DefaultIcon)
}

func readConfigFile(v *viper.Viper, path string) error {
	errFactory := errors.New()

	v.SetConfigType("toml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigFile(DefaultConfigPath)
		if _, err := os.Stat(DefaultConfigPath); os.IsNotExist(err) {
			return nil
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return errFactory.Wrap(errors.ErrReadConfig, err)
	}

	return nil
}

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	errFactory := errors.New()

	level, ok := ParseLogLevel(c.LogLevel)
	if !ok {
		return errFactory.WithData(errors.ErrInvalidLogLevel, c.LogLevel)
	}
	c.LogLevel = level.String()

	if c.DebounceMs <= 0 {
		return errFactory.WithData(errors.ErrInvalidInterval, c.DebounceMs)
	}

	if c.DefaultIcon == "" {
		c.DefaultIcon = DefaultIcon
	}

	return nil
}
