// Package config loads autotab settings from a YAML file, AUTOTAB_*
// environment variables and built-in defaults, in that order of
// precedence after the environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

const (
	EnvPrefix  = "AUTOTAB"
	configName = "autotab"
)

type Config struct {
	Server   Server   `mapstructure:"server"`
	Storage  Storage  `mapstructure:"storage"`
	Log      Log      `mapstructure:"log"`
	Alarm    Alarm    `mapstructure:"alarm"`
	Browser  Browser  `mapstructure:"browser"`
	Pushover Pushover `mapstructure:"pushover"`
}

type Server struct {
	Port string `mapstructure:"port"`
}

type Storage struct {
	Driver      string        `mapstructure:"driver"`
	Path        string        `mapstructure:"path"`
	BusyTimeout time.Duration `mapstructure:"busy_timeout"`
}

type Log struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type Alarm struct {
	Name                string `mapstructure:"name"`
	PeriodMinutes       int    `mapstructure:"period_minutes"`
	InitialDelayMinutes int    `mapstructure:"initial_delay_minutes"`
}

type Browser struct {
	Enabled bool `mapstructure:"enabled"`
}

type Pushover struct {
	Token         string `mapstructure:"token"`
	User          string `mapstructure:"user"`
	RatePerMinute int    `mapstructure:"rate_per_minute"`
	RetryMax      int    `mapstructure:"retry_max"`
}

// Enabled reports whether both pushover credentials are set.
func (p Pushover) Enabled() bool {
	return p.Token != "" && p.User != ""
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", ":8080")
	v.SetDefault("storage.driver", "file")
	v.SetDefault("storage.path", "~/.autotab/data.json")
	v.SetDefault("storage.busy_timeout", 5*time.Second)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("alarm.name", "schedule-checker")
	v.SetDefault("alarm.period_minutes", 1)
	v.SetDefault("alarm.initial_delay_minutes", 0)
	v.SetDefault("browser.enabled", true)
	v.SetDefault("pushover.token", "")
	v.SetDefault("pushover.user", "")
	v.SetDefault("pushover.rate_per_minute", 30)
	v.SetDefault("pushover.retry_max", 3)
}

type Loader struct {
	v        *viper.Viper
	explicit bool
}

// NewLoader prepares a loader for path. An empty path searches $HOME and
// ./configs for autotab.yaml and falls back to defaults when none exists.
func NewLoader(path string) (*Loader, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		expanded, err := homedir.Expand(path)
		if err != nil {
			return nil, fmt.Errorf("failed to expand config path: %w", err)
		}
		v.SetConfigFile(expanded)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			return nil, fmt.Errorf("failed to find home directory: %w", err)
		}
		v.AddConfigPath(home)
		v.AddConfigPath("configs")
		v.SetConfigName(configName)
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &Loader{v: v, explicit: path != ""}, nil
}

func (l *Loader) Load() (*Config, error) {
	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if l.explicit || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}
	return l.decode()
}

// File returns the config file in use, or "" when running on defaults.
func (l *Loader) File() string {
	return l.v.ConfigFileUsed()
}

// Watch calls fn with the re-read configuration whenever the config file
// changes. It reports false when there is no file to watch.
func (l *Loader) Watch(fn func(*Config, error)) bool {
	if l.File() == "" {
		return false
	}
	l.v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		fn(l.decode())
	})
	l.v.WatchConfig()
	return true
}

func (l *Loader) decode() (*Config, error) {
	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalize() error {
	if c.Storage.Path != "" {
		p, err := homedir.Expand(c.Storage.Path)
		if err != nil {
			return fmt.Errorf("failed to expand storage.path: %w", err)
		}
		c.Storage.Path = p
	}
	if c.Alarm.PeriodMinutes < 1 {
		return fmt.Errorf("alarm.period_minutes must be at least 1, got %d", c.Alarm.PeriodMinutes)
	}
	if c.Alarm.InitialDelayMinutes < 0 {
		return fmt.Errorf("alarm.initial_delay_minutes must not be negative, got %d", c.Alarm.InitialDelayMinutes)
	}
	return nil
}

// LoadConfig reads the configuration once.
func LoadConfig(path string) (*Config, error) {
	l, err := NewLoader(path)
	if err != nil {
		return nil, err
	}
	return l.Load()
}
