// Package config loads and validates pingmem's on-disk configuration:
// project paths, the graph store, the vector store, the event/diagnostics
// databases, session limits, and scanner inclusion rules.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/aman-cerp/pingmem/internal/session"
)

// PathsConfig describes where the indexed project lives and where
// pingmem keeps its own state for that project.
type PathsConfig struct {
	RootPath string `yaml:"root_path" json:"rootPath"`
	DataDir  string `yaml:"data_dir" json:"dataDir"`
}

// GraphConfig configures the Neo4j connection used by the temporal
// graph sink.
type GraphConfig struct {
	URI         string `yaml:"uri" json:"uri"`
	Username    string `yaml:"username" json:"username"`
	Password    string `yaml:"password" json:"password"`
	Database    string `yaml:"database" json:"database"`
	MaxPoolSize int    `yaml:"max_pool_size" json:"maxPoolSize"`
}

// VectorConfig configures the Qdrant connection used by the vector
// sink.
type VectorConfig struct {
	URL              string `yaml:"url" json:"url"`
	CollectionName   string `yaml:"collection_name" json:"collectionName"`
	APIKey           string `yaml:"api_key" json:"apiKey"`
	VectorDimensions int    `yaml:"vector_dimensions" json:"vectorDimensions"`
}

// EventStoreConfig configures the append-only event/checkpoint store.
type EventStoreConfig struct {
	DBPath string `yaml:"db_path" json:"dbPath"`
}

// DiagnosticsConfig configures the SARIF findings store.
type DiagnosticsConfig struct {
	DBPath string `yaml:"db_path" json:"dbPath"`
}

// SessionsConfig bounds how many sessions a project may keep active
// at once.
type SessionsConfig struct {
	MaxActiveSessions int `yaml:"max_active_sessions" json:"maxActiveSessions"`
}

// ScannerConfig controls which parts of a project tree are walked
// and hashed.
type ScannerConfig struct {
	IgnoreDirs         []string `yaml:"ignore_dirs" json:"ignoreDirs"`
	ExtensionAllowlist []string `yaml:"extension_allowlist" json:"extensionAllowlist"`
}

// Config is the full configuration for a pingmem project.
type Config struct {
	Paths       PathsConfig       `yaml:"paths" json:"paths"`
	Graph       GraphConfig       `yaml:"graph" json:"graph"`
	Vector      VectorConfig      `yaml:"vector" json:"vector"`
	EventStore  EventStoreConfig  `yaml:"event_store" json:"eventStore"`
	Diagnostics DiagnosticsConfig `yaml:"diagnostics" json:"diagnostics"`
	Sessions    SessionsConfig    `yaml:"sessions" json:"sessions"`
	Scanner     ScannerConfig     `yaml:"scanner" json:"scanner"`
}

var defaultIgnoreDirs = []string{
	".git", "node_modules", "vendor", "dist", "build", ".ping-mem",
	"__pycache__", ".venv", "target", ".next", ".cache",
}

var defaultExtensionAllowlist = []string{
	".go", ".ts", ".tsx", ".js", ".jsx", ".py", ".rs", ".java",
	".c", ".h", ".cc", ".cpp", ".hpp", ".rb", ".md", ".yaml", ".yml", ".json",
}

// NewConfig returns a Config populated with defaults suitable for a
// project rooted at the current directory.
func NewConfig() *Config {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	return &Config{
		Paths: PathsConfig{
			RootPath: cwd,
			DataDir:  defaultDataDir(cwd),
		},
		Graph: GraphConfig{
			URI:         "bolt://localhost:7687",
			Username:    "neo4j",
			Database:    "neo4j",
			MaxPoolSize: 50,
		},
		Vector: VectorConfig{
			URL:              "http://localhost:6334",
			CollectionName:   "pingmem_chunks",
			VectorDimensions: 768,
		},
		EventStore: EventStoreConfig{
			DBPath: filepath.Join(defaultDataDir(cwd), "events.db"),
		},
		Diagnostics: DiagnosticsConfig{
			DBPath: filepath.Join(defaultDataDir(cwd), "diagnostics.db"),
		},
		Sessions: SessionsConfig{
			MaxActiveSessions: session.DefaultMaxActiveSessions,
		},
		Scanner: ScannerConfig{
			IgnoreDirs:         append([]string(nil), defaultIgnoreDirs...),
			ExtensionAllowlist: append([]string(nil), defaultExtensionAllowlist...),
		},
	}
}

func defaultDataDir(projectRoot string) string {
	return filepath.Join(projectRoot, ".ping-mem")
}

// GetUserConfigDir returns the XDG config directory for pingmem
// (~/.config/pingmem), falling back to a temp directory if the home
// directory cannot be determined.
func GetUserConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "pingmem")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "pingmem")
	}
	return filepath.Join(home, ".config", "pingmem")
}

// GetUserConfigPath returns the path to the user-level config file.
func GetUserConfigPath() string {
	return filepath.Join(GetUserConfigDir(), "config.yaml")
}

// UserConfigExists reports whether a user-level config file exists.
func UserConfigExists() bool {
	return fileExists(GetUserConfigPath())
}

func loadUserConfig() (*Config, error) {
	path := GetUserConfigPath()
	if !fileExists(path) {
		return nil, nil
	}
	cfg := &Config{}
	if err := cfg.loadYAML(path); err != nil {
		return nil, fmt.Errorf("failed to load user config: %w", err)
	}
	return cfg, nil
}

// Load builds a Config for the project rooted at dir, applying
// (in increasing precedence): built-in defaults, the user-level
// config, a project-level .ping-mem.yaml/.ping-mem.yml, then
// environment overrides.
func Load(dir string) (*Config, error) {
	cfg := NewConfig()
	cfg.Paths.RootPath = dir
	cfg.Paths.DataDir = defaultDataDir(dir)
	cfg.EventStore.DBPath = filepath.Join(cfg.Paths.DataDir, "events.db")
	cfg.Diagnostics.DBPath = filepath.Join(cfg.Paths.DataDir, "diagnostics.db")

	if userCfg, err := loadUserConfig(); err != nil {
		return nil, err
	} else if userCfg != nil {
		cfg.mergeWith(userCfg)
	}

	if err := cfg.loadFromFile(dir); err != nil {
		return nil, err
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) loadFromFile(dir string) error {
	candidates := []string{
		filepath.Join(dir, ".ping-mem.yaml"),
		filepath.Join(dir, ".ping-mem.yml"),
	}
	for _, path := range candidates {
		if !fileExists(path) {
			continue
		}
		fileCfg := &Config{}
		if err := fileCfg.loadYAML(path); err != nil {
			return fmt.Errorf("failed to load project config %s: %w", path, err)
		}
		c.mergeWith(fileCfg)
		return nil
	}
	return nil
}

func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

// mergeWith overlays non-zero-valued fields from other onto c.
func (c *Config) mergeWith(other *Config) {
	if other.Paths.RootPath != "" {
		c.Paths.RootPath = other.Paths.RootPath
	}
	if other.Paths.DataDir != "" {
		c.Paths.DataDir = other.Paths.DataDir
	}

	if other.Graph.URI != "" {
		c.Graph.URI = other.Graph.URI
	}
	if other.Graph.Username != "" {
		c.Graph.Username = other.Graph.Username
	}
	if other.Graph.Password != "" {
		c.Graph.Password = other.Graph.Password
	}
	if other.Graph.Database != "" {
		c.Graph.Database = other.Graph.Database
	}
	if other.Graph.MaxPoolSize != 0 {
		c.Graph.MaxPoolSize = other.Graph.MaxPoolSize
	}

	if other.Vector.URL != "" {
		c.Vector.URL = other.Vector.URL
	}
	if other.Vector.CollectionName != "" {
		c.Vector.CollectionName = other.Vector.CollectionName
	}
	if other.Vector.APIKey != "" {
		c.Vector.APIKey = other.Vector.APIKey
	}
	if other.Vector.VectorDimensions != 0 {
		c.Vector.VectorDimensions = other.Vector.VectorDimensions
	}

	if other.EventStore.DBPath != "" {
		c.EventStore.DBPath = other.EventStore.DBPath
	}
	if other.Diagnostics.DBPath != "" {
		c.Diagnostics.DBPath = other.Diagnostics.DBPath
	}

	if other.Sessions.MaxActiveSessions != 0 {
		c.Sessions.MaxActiveSessions = other.Sessions.MaxActiveSessions
	}

	if len(other.Scanner.IgnoreDirs) > 0 {
		c.Scanner.IgnoreDirs = other.Scanner.IgnoreDirs
	}
	if len(other.Scanner.ExtensionAllowlist) > 0 {
		c.Scanner.ExtensionAllowlist = other.Scanner.ExtensionAllowlist
	}
}

// applyEnvOverrides lets deployment environments override store
// endpoints and credentials without editing a config file. It applies
// the string-valued variables EnvironmentLoader recognizes directly
// onto an already-loaded Config; the integer-valued ones
// (NEO4J_MAX_POOL_SIZE, QDRANT_VECTOR_DIMENSIONS) are applied only
// through EnvironmentLoader.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("NEO4J_URI"); v != "" {
		c.Graph.URI = v
	}
	if v := os.Getenv("NEO4J_USERNAME"); v != "" {
		c.Graph.Username = v
	}
	if v := os.Getenv("NEO4J_PASSWORD"); v != "" {
		c.Graph.Password = v
	}
	if v := os.Getenv("NEO4J_DATABASE"); v != "" {
		c.Graph.Database = v
	}
	if v := os.Getenv("QDRANT_URL"); v != "" {
		c.Vector.URL = v
	}
	if v := os.Getenv("QDRANT_COLLECTION_NAME"); v != "" {
		c.Vector.CollectionName = v
	}
	if v := os.Getenv("QDRANT_API_KEY"); v != "" {
		c.Vector.APIKey = v
	}
	if v := os.Getenv("PING_MEM_DB_PATH"); v != "" {
		c.EventStore.DBPath = v
	}
}

// Validate checks that a Config is internally consistent.
func (c *Config) Validate() error {
	if c.Paths.RootPath == "" {
		return fmt.Errorf("paths.root_path must not be empty")
	}
	if !dirExists(c.Paths.RootPath) {
		return fmt.Errorf("paths.root_path does not exist: %s", c.Paths.RootPath)
	}
	if c.Graph.URI == "" {
		return fmt.Errorf("graph.uri must not be empty")
	}
	if c.Graph.MaxPoolSize <= 0 {
		return fmt.Errorf("graph.max_pool_size must be positive, got %d", c.Graph.MaxPoolSize)
	}
	if c.Vector.URL == "" {
		return fmt.Errorf("vector.url must not be empty")
	}
	if c.Vector.VectorDimensions <= 0 {
		return fmt.Errorf("vector.vector_dimensions must be positive, got %d", c.Vector.VectorDimensions)
	}
	if c.Sessions.MaxActiveSessions <= 0 {
		return fmt.Errorf("sessions.max_active_sessions must be positive, got %d", c.Sessions.MaxActiveSessions)
	}
	if c.EventStore.DBPath == "" {
		return fmt.Errorf("event_store.db_path must not be empty")
	}
	if c.Diagnostics.DBPath == "" {
		return fmt.Errorf("diagnostics.db_path must not be empty")
	}
	for _, ext := range c.Scanner.ExtensionAllowlist {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("scanner.extension_allowlist entries must start with '.', got %q", ext)
		}
	}
	return nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// LoadUserConfig loads the user-level configuration file. It returns
// a nil config and nil error if no such file exists.
func LoadUserConfig() (*Config, error) {
	return loadUserConfig()
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
