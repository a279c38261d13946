package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/stuffbucket/slnpd/internal/server"
)

const (
	// Default values for CLI flags and config
	DefaultListenAddr    = ":9001"
	DefaultMaxFrameBytes = 1 << 20
	DefaultLogLevel      = "info"
	DefaultShutdownGrace = 10 * time.Second

	// Validation constraints
	MinFrameBytes = 1 << 10
)

// Duration is a time.Duration that decodes from strings like "90s".
type Duration struct {
	time.Duration
}

// UnmarshalText parses a duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText formats the duration as a string.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

type Config struct {
	StateDir string `toml:"state_dir"`

	Server  ServerConfig  `toml:"server"`
	Log     LogConfig     `toml:"log"`
	Schema  SchemaConfig  `toml:"schema"`
	Journal JournalConfig `toml:"journal"`
	Auth    AuthConfig    `toml:"auth"`
}

type ServerConfig struct {
	Listen            string   `toml:"listen"`
	Transport         string   `toml:"transport"`
	IdleTimeout       Duration `toml:"idle_timeout"` // zero disables
	MaxFrameBytes     int      `toml:"max_frame_bytes"`
	RequireLogin      bool     `toml:"require_login"`
	RejectUnspecified bool     `toml:"reject_unspecified"`
	ShutdownGrace     Duration `toml:"shutdown_grace"`
}

type LogConfig struct {
	Path  string `toml:"path"`
	Level string `toml:"level"`
}

type SchemaConfig struct {
	// Path to a YAML schema; empty uses the built-in ILL schema.
	Path string `toml:"path"`
}

type JournalConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

type AuthConfig struct {
	// Users maps login names to bcrypt hashes.
	Users map[string]string `toml:"users"`
}

func Default(baseDir string) *Config {
	if baseDir == "" {
		baseDir = DefaultStateDir()
	}
	return &Config{
		StateDir: baseDir,
		Server: ServerConfig{
			Listen:        DefaultListenAddr,
			Transport:     server.TransportTCP,
			MaxFrameBytes: DefaultMaxFrameBytes,
			ShutdownGrace: Duration{DefaultShutdownGrace},
		},
		Log: LogConfig{
			Path:  filepath.Join(baseDir, "slnpd.log"),
			Level: DefaultLogLevel,
		},
		Journal: JournalConfig{
			Enabled: true,
			Path:    filepath.Join(baseDir, "journal.db"),
		},
		Auth: AuthConfig{Users: map[string]string{}},
	}
}

// Load decodes a TOML file on top of Default(""). Paths in the file may use
// environment variables.
func Load(path string) (*Config, error) {
	path = os.ExpandEnv(path)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	cfg := Default("")
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown config key: %s", undecoded[0])
	}

	// A state_dir override moves the derived file paths along with it.
	if md.IsDefined("state_dir") {
		if !md.IsDefined("log", "path") {
			cfg.Log.Path = filepath.Join(cfg.StateDir, "slnpd.log")
		}
		if !md.IsDefined("journal", "path") {
			cfg.Journal.Path = filepath.Join(cfg.StateDir, "journal.db")
		}
	}
	cfg.expandEnv()
	return cfg, nil
}

func (c *Config) expandEnv() {
	c.StateDir = os.ExpandEnv(c.StateDir)
	c.Log.Path = os.ExpandEnv(c.Log.Path)
	c.Schema.Path = os.ExpandEnv(c.Schema.Path)
	c.Journal.Path = os.ExpandEnv(c.Journal.Path)
}

func (c *Config) Validate() error {
	if c.StateDir == "" {
		return errors.New("state directory is required")
	}
	if c.Server.Transport == "" {
		return errors.New("transport is required")
	}
	if _, err := server.TransportByName(c.Server.Transport); err != nil {
		return err
	}
	if c.Server.Listen == "" {
		return errors.New("listen address is required")
	}
	if c.Server.Transport == server.TransportTCP {
		if _, _, err := net.SplitHostPort(c.Server.Listen); err != nil {
			return fmt.Errorf("invalid listen address %q: %w", c.Server.Listen, err)
		}
	}
	if c.Server.MaxFrameBytes < MinFrameBytes {
		return fmt.Errorf("max frame bytes must be at least %d", MinFrameBytes)
	}
	if c.Server.IdleTimeout.Duration < 0 {
		return errors.New("idle timeout must not be negative")
	}
	if c.Log.Path == "" {
		return errors.New("log path is required")
	}
	if c.Journal.Enabled && c.Journal.Path == "" {
		return errors.New("journal path is required when the journal is enabled")
	}
	if c.Server.RequireLogin && len(c.Auth.Users) == 0 {
		return errors.New("require_login needs at least one user in [auth.users]")
	}
	for user, hash := range c.Auth.Users {
		if !strings.HasPrefix(hash, "$2") {
			return fmt.Errorf("auth user %s: password must be a bcrypt hash", user)
		}
	}
	return nil
}

// DefaultStateDir returns the XDG-compliant state directory for slnpd.
// Precedence: SLNPD_STATE_DIR > XDG_STATE_HOME/slnpd > ~/.local/state/slnpd
func DefaultStateDir() string {
	if d := os.Getenv("SLNPD_STATE_DIR"); d != "" {
		return d
	}
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, "slnpd")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".local", "state", "slnpd")
	}
	return filepath.Join(home, ".local", "state", "slnpd")
}
