// Package config provides configuration management for the Heimdex editor.
// Configuration is loaded from an optional TOML file and environment
// variables, with environment variables taking precedence.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/heimdex/heimdex-editor/internal/timeline"
)

//go:embed sample_config.toml
var sampleConfig string

const (
	// Default values
	DefaultPort          = 8788
	DefaultLogLevel      = "info"
	DefaultDataDir       = ".heimdex-editor"
	DefaultHistoryLimit  = 100
	DefaultFrameRate     = 30.0
	DefaultSnapThreshold = 0.1
	DefaultAutosaveSecs  = 30

	// Environment variable names
	EnvPort       = "HEIMDEX_EDITOR_PORT"
	EnvLogLevel   = "HEIMDEX_EDITOR_LOG_LEVEL"
	EnvDataDir    = "HEIMDEX_EDITOR_DATA_DIR"
	EnvConfigPath = "HEIMDEX_EDITOR_CONFIG"
	EnvMediaRoot  = "HEIMDEX_EDITOR_MEDIA_ROOT"
	EnvHeadless   = "HEIMDEX_EDITOR_HEADLESS"

	// Files inside the data directory
	DBFilename     = "editor.db"
	LockFilename   = "editor.lock"
	ConfigFilename = "config.toml"
)

// Config defines the application configuration interface
type Config interface {
	Port() int
	LogLevel() string
	DataDir() string
	DBPath() string
	LockPath() string
	ConfigPath() string
	MediaRoot() string
	Headless() bool
	AllowedOrigins() []string
	HistoryLimit() int
	NoOverlap() []timeline.TrackType
	FrameRate() float64
	SnapThreshold() float64
	AutosaveInterval() time.Duration
}

type fileConfig struct {
	Server serverSection `toml:"server"`
	Editor editorSection `toml:"editor"`
}

type serverSection struct {
	Headless       bool     `toml:"headless"`
	AllowedOrigins []string `toml:"allowed_origins"`
	MediaRoot      string   `toml:"media_root"`
}

type editorSection struct {
	HistoryLimit    int      `toml:"history_limit"`
	NoOverlap       []string `toml:"no_overlap"`
	FrameRate       float64  `toml:"frame_rate"`
	SnapThreshold   float64  `toml:"snap_threshold"`
	AutosaveSeconds int      `toml:"autosave_seconds"`
}

// EnvConfig reads configuration from the config file and environment
type EnvConfig struct {
	port       int
	logLevel   string
	dataDir    string
	configPath string
	loaded     bool
	file       fileConfig
}

// New creates a new EnvConfig with defaults, the config file and
// environment variable overrides
func New() (*EnvConfig, error) {
	return Load("", "")
}

// Load is New with command-line overrides for the data directory and the
// config file path. Empty values fall back to the environment.
func Load(dataDir, configPath string) (*EnvConfig, error) {
	cfg := &EnvConfig{
		port:     DefaultPort,
		logLevel: DefaultLogLevel,
		dataDir:  defaultDataDir(),
		file: fileConfig{
			Editor: editorSection{
				HistoryLimit:    DefaultHistoryLimit,
				FrameRate:       DefaultFrameRate,
				SnapThreshold:   DefaultSnapThreshold,
				AutosaveSeconds: DefaultAutosaveSecs,
			},
		},
	}

	// Override data directory from environment
	if dd := os.Getenv(EnvDataDir); dd != "" {
		cfg.dataDir = dd
	}
	if dataDir != "" {
		cfg.dataDir = dataDir
	}

	cfg.configPath = filepath.Join(cfg.dataDir, ConfigFilename)
	explicit := false
	if p := os.Getenv(EnvConfigPath); p != "" {
		cfg.configPath = p
		explicit = true
	}
	if configPath != "" {
		cfg.configPath = configPath
		explicit = true
	}
	if err := cfg.loadFile(explicit); err != nil {
		return nil, err
	}

	// Override port from environment
	if p := os.Getenv(EnvPort); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvPort, err)
		}
		if port < 1 || port > 65535 {
			return nil, fmt.Errorf("invalid %s: port must be between 1 and 65535", EnvPort)
		}
		cfg.port = port
	}

	// Override log level from environment
	if ll := os.Getenv(EnvLogLevel); ll != "" {
		cfg.logLevel = ll
	}

	if mr := os.Getenv(EnvMediaRoot); mr != "" {
		cfg.file.Server.MediaRoot = mr
	}

	if h := os.Getenv(EnvHeadless); h != "" {
		headless, err := strconv.ParseBool(h)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvHeadless, err)
		}
		cfg.file.Server.Headless = headless
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFile decodes the TOML config file. A missing file is only an error
// when its path was given explicitly.
func (c *EnvConfig) loadFile(explicit bool) error {
	f, err := os.Open(c.configPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !explicit {
			return nil
		}
		return fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	if err := toml.NewDecoder(f).DisallowUnknownFields().Decode(&c.file); err != nil {
		return fmt.Errorf("parse config %s: %w", c.configPath, err)
	}
	c.loaded = true
	return nil
}

func (c *EnvConfig) validate() error {
	e := c.file.Editor
	if e.HistoryLimit < 1 {
		return fmt.Errorf("editor.history_limit must be at least 1")
	}
	if e.FrameRate <= 0 {
		return fmt.Errorf("editor.frame_rate must be positive")
	}
	if e.SnapThreshold < 0 {
		return fmt.Errorf("editor.snap_threshold must not be negative")
	}
	if e.AutosaveSeconds < 1 {
		return fmt.Errorf("editor.autosave_seconds must be at least 1")
	}
	for _, t := range e.NoOverlap {
		if !timeline.TrackType(strings.ToLower(t)).Valid() {
			return fmt.Errorf("editor.no_overlap: %q: %w", t, timeline.ErrInvalidTrackType)
		}
	}
	return nil
}

// Port returns the HTTP server port
func (c *EnvConfig) Port() int {
	return c.port
}

// LogLevel returns the log level (debug, info, warn, error)
func (c *EnvConfig) LogLevel() string {
	return c.logLevel
}

// DataDir returns the data directory path
func (c *EnvConfig) DataDir() string {
	return c.dataDir
}

// DBPath returns the full path to the SQLite database file
func (c *EnvConfig) DBPath() string {
	return filepath.Join(c.dataDir, DBFilename)
}

// LockPath is the single-instance lock file of the data directory
func (c *EnvConfig) LockPath() string {
	return filepath.Join(c.dataDir, LockFilename)
}

// ConfigPath returns the config file path, whether or not it exists
func (c *EnvConfig) ConfigPath() string {
	return c.configPath
}

// ConfigLoaded reports whether a config file was read
func (c *EnvConfig) ConfigLoaded() bool {
	return c.loaded
}

func (c *EnvConfig) MediaRoot() string {
	return c.file.Server.MediaRoot
}

func (c *EnvConfig) Headless() bool {
	return c.file.Server.Headless
}

func (c *EnvConfig) AllowedOrigins() []string {
	return c.file.Server.AllowedOrigins
}

func (c *EnvConfig) HistoryLimit() int {
	return c.file.Editor.HistoryLimit
}

// NoOverlap returns nil when the file leaves it unset so the editor
// default applies. An explicit empty list allows overlap everywhere.
func (c *EnvConfig) NoOverlap() []timeline.TrackType {
	if c.file.Editor.NoOverlap == nil {
		return nil
	}
	out := make([]timeline.TrackType, 0, len(c.file.Editor.NoOverlap))
	for _, t := range c.file.Editor.NoOverlap {
		out = append(out, timeline.TrackType(strings.ToLower(t)))
	}
	return out
}

func (c *EnvConfig) FrameRate() float64 {
	return c.file.Editor.FrameRate
}

func (c *EnvConfig) SnapThreshold() float64 {
	return c.file.Editor.SnapThreshold
}

func (c *EnvConfig) AutosaveInterval() time.Duration {
	return time.Duration(c.file.Editor.AutosaveSeconds) * time.Second
}

// CreateSample writes the commented sample config to path.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// DefaultConfigPath is where Load looks for config.toml when no explicit
// path is given: inside dataDir, or the environment's or default data
// directory when dataDir is empty.
func DefaultConfigPath(dataDir string) string {
	if dataDir == "" {
		dataDir = os.Getenv(EnvDataDir)
	}
	if dataDir == "" {
		dataDir = defaultDataDir()
	}
	return filepath.Join(dataDir, ConfigFilename)
}

// defaultDataDir returns the default data directory path
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home is not available
		return DefaultDataDir
	}
	return filepath.Join(home, DefaultDataDir)
}

// Version information (set at build time via ldflags)
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)
