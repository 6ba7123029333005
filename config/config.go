package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. PRODUCT_CONSOLE_API_HOST
const EnvPrefix = "PRODUCT_CONSOLE"

// DirName is the per-user directory holding config, session and log files
const DirName = ".product-console"

// APIConfig locates the product backend
type APIConfig struct {
	Host    string        `mapstructure:"host" yaml:"host"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// SessionConfig holds the session database path
type SessionConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// LogConfig sets the log level and an optional log file
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
	File  string `mapstructure:"file" yaml:"file"`
}

// ListConfig controls how the product list is fetched
type ListConfig struct {
	ServerPrefilter bool `mapstructure:"server_prefilter" yaml:"server_prefilter"`
}

// Config is the console configuration
type Config struct {
	API     APIConfig     `mapstructure:"api" yaml:"api"`
	Session SessionConfig `mapstructure:"session" yaml:"session"`
	Log     LogConfig     `mapstructure:"log" yaml:"log"`
	List    ListConfig    `mapstructure:"list" yaml:"list"`
}

// DefaultDir returns ~/.product-console, or the relative DirName when the
// home directory is unknown
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return DirName
	}
	return filepath.Join(home, DirName)
}

// DefaultPath is the config file used when none is given
func DefaultPath() string {
	return filepath.Join(DefaultDir(), "config.yaml")
}

// DefaultConfig returns the settings used when no file or env overrides them
func DefaultConfig() *Config {
	dir := DefaultDir()
	return &Config{
		API: APIConfig{
			Host:    "http://localhost:8080",
			Timeout: 10 * time.Second,
		},
		Session: SessionConfig{Path: filepath.Join(dir, "session.db")},
		Log: LogConfig{
			Level: "info",
			File:  filepath.Join(dir, "console.log"),
		},
	}
}

// Validate checks the values the console cannot run without
func (c *Config) Validate() error {
	if c.API.Host == "" {
		return errors.New("api.host is required")
	}
	u, err := url.Parse(c.API.Host)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("api.host must be an http(s) URL, got %q", c.API.Host)
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("api.timeout must be positive, got %s", c.API.Timeout)
	}
	if c.Session.Path == "" {
		return errors.New("session.path is required")
	}
	if _, err := zap.ParseAtomicLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	return nil
}

// Loader reads the config file and environment, and optionally follows
// changes to the file.
type Loader struct {
	v    *viper.Viper
	path string

	mu          sync.RWMutex
	config      *Config
	subscribers []func(*Config)
	logger      *zap.Logger
}

// Load reads path (the default path when empty) merged over the defaults.
// A missing file is not an error; an unreadable or invalid one is.
func Load(path string) (*Loader, error) {
	if path == "" {
		path = DefaultPath()
	}

	v := viper.New()
	setDefaults(v, DefaultConfig())
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigFile(path)
	v.SetConfigType(strings.TrimPrefix(filepath.Ext(path), "."))
	if err := v.ReadInConfig(); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}

	return &Loader{v: v, path: path, config: cfg, logger: zap.NewNop()}, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("api.host", d.API.Host)
	v.SetDefault("api.timeout", d.API.Timeout)
	v.SetDefault("session.path", d.Session.Path)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("list.server_prefilter", d.List.ServerPrefilter)
}

func decode(v *viper.Viper) (*Config, error) {
	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Session.Path = expandHome(cfg.Session.Path)
	cfg.Log.File = expandHome(cfg.Log.File)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// Path returns the config file path, which may not exist
func (l *Loader) Path() string {
	return l.path
}

// Config returns the current configuration
func (l *Loader) Config() *Config {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.config
}

// SetLogger sets the logger used for reload messages
func (l *Loader) SetLogger(logger *zap.Logger) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.logger = logger
}

// Subscribe registers fn to be called with each reloaded configuration
func (l *Loader) Subscribe(fn func(*Config)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.subscribers = append(l.subscribers, fn)
}

// Watch reloads the configuration whenever the file changes. Invalid
// versions are logged and ignored.
func (l *Loader) Watch() {
	l.v.OnConfigChange(func(e fsnotify.Event) {
		l.reload(e.Name)
	})
	l.v.WatchConfig()
}

func (l *Loader) reload(name string) {
	l.mu.RLock()
	logger := l.logger
	l.mu.RUnlock()

	logger.Info("Config file changed", zap.String("file", name))
	cfg, err := decode(l.v)
	if err != nil {
		logger.Error("Ignoring config change", zap.Error(err))
		return
	}

	l.mu.Lock()
	l.config = cfg
	subscribers := append(([]func(*Config))(nil), l.subscribers...)
	l.mu.Unlock()

	for _, fn := range subscribers {
		fn(cfg)
	}
}

// WriteDefault writes the default configuration as YAML. An existing file
// is only replaced when overwrite is set.
func WriteDefault(path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file %s already exists", path)
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	out, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(path, out, 0o644)
}
