package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/google/uuid"
)

const (
	// AppDirectoryName is the per-user application data directory name.
	AppDirectoryName = "chatdesk"
	// DefaultBaseURL is the message backend used when no user override exists.
	DefaultBaseURL = "http://localhost:5000"
	// DefaultDiscoveryService is browsed when BackendMode is mdns.
	DefaultDiscoveryService = "_chatdesk._tcp"
	// DefaultSelfSender marks messages rendered with the "sent" treatment.
	DefaultSelfSender = "me"
	// DefaultLogLevel is the zap level name used when none is configured.
	DefaultLogLevel = "info"
	// DefaultJournalRetentionHours bounds how long journal rows are kept.
	DefaultJournalRetentionHours = 24 * 7
	// BackendModeStatic uses BaseURL as configured.
	BackendModeStatic = "static"
	// BackendModeMDNS resolves the backend over mDNS at startup.
	BackendModeMDNS = "mdns"
	// configFileName is the persisted configuration file.
	configFileName = "config.json"
	// logFileName is the default log file under the data directory.
	logFileName = "chatdesk.log"
)

const (
	envDataDir  = "CHATDESK_DATA_DIR"
	envBaseURL  = "CHATDESK_BASE_URL"
	envLogLevel = "CHATDESK_LOG_LEVEL"
)

// ClientConfig contains persistent client settings.
type ClientConfig struct {
	ClientID              string `json:"client_id"`
	BaseURL               string `json:"base_url"`
	BackendMode           string `json:"backend_mode"`
	DiscoveryService      string `json:"discovery_service"`
	SelfSender            string `json:"self_sender"`
	LogLevel              string `json:"log_level"`
	LogPath               string `json:"log_path"`
	JournalEnabled        *bool  `json:"journal_enabled"`
	JournalRetentionHours int    `json:"journal_retention_hours"`
	MetricsAddr           string `json:"metrics_addr"`
	RenderMarkdown        bool   `json:"render_markdown"`
}

// Journaling reports whether writes should be recorded in the local journal.
func (c *ClientConfig) Journaling() bool {
	return c.JournalEnabled == nil || *c.JournalEnabled
}

// ResolveDataDir returns the OS-aware app data directory.
//
// If CHATDESK_DATA_DIR is set, its value is used as an explicit override.
func ResolveDataDir() (string, error) {
	if override := os.Getenv(envDataDir); override != "" {
		return override, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve user home: %w", err)
	}

	switch runtime.GOOS {
	case "windows":
		base := os.Getenv("APPDATA")
		if base == "" {
			base = filepath.Join(home, "AppData", "Roaming")
		}
		return filepath.Join(base, AppDirectoryName), nil
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", AppDirectoryName), nil
	default:
		base := os.Getenv("XDG_CONFIG_HOME")
		if base == "" {
			base = filepath.Join(home, ".config")
		}
		return filepath.Join(base, AppDirectoryName), nil
	}
}

// ConfigPath returns the full path to config.json for a data directory.
func ConfigPath(dataDir string) string {
	return filepath.Join(dataDir, configFileName)
}

// EnsureDataDirectories creates the app data directory if needed.
func EnsureDataDirectories(dataDir string) error {
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return fmt.Errorf("create directory %q: %w", dataDir, err)
	}
	return nil
}

// Load reads and unmarshals config.json from disk.
func Load(path string) (*ClientConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg ClientConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

// Save marshals and writes config.json to disk.
func Save(path string, cfg *ClientConfig) error {
	raw, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	raw = append(raw, '\n')
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	return nil
}

// LoadOrCreate ensures the data directory and config exist, then returns both.
// Environment overrides are applied after the file is persisted so they never
// leak into config.json.
func LoadOrCreate() (*ClientConfig, string, error) {
	dataDir, err := ResolveDataDir()
	if err != nil {
		return nil, "", err
	}
	if err := EnsureDataDirectories(dataDir); err != nil {
		return nil, "", err
	}

	cfgPath := ConfigPath(dataDir)
	cfg, err := Load(cfgPath)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, "", err
		}

		cfg = defaultConfig(dataDir)
		if err := Save(cfgPath, cfg); err != nil {
			return nil, "", err
		}

		ApplyEnv(cfg)
		return cfg, cfgPath, nil
	}

	if normalizeDefaults(cfg, dataDir) {
		if err := Save(cfgPath, cfg); err != nil {
			return nil, "", err
		}
	}

	ApplyEnv(cfg)
	return cfg, cfgPath, nil
}

// ApplyEnv overlays process environment overrides onto cfg.
func ApplyEnv(cfg *ClientConfig) {
	if base := strings.TrimSpace(os.Getenv(envBaseURL)); base != "" {
		cfg.BaseURL = base
		cfg.BackendMode = BackendModeStatic
	}
	if level := strings.TrimSpace(os.Getenv(envLogLevel)); level != "" {
		cfg.LogLevel = level
	}
}

func defaultConfig(dataDir string) *ClientConfig {
	enabled := true
	return &ClientConfig{
		ClientID:              uuid.NewString(),
		BaseURL:               DefaultBaseURL,
		BackendMode:           BackendModeStatic,
		DiscoveryService:      DefaultDiscoveryService,
		SelfSender:            DefaultSelfSender,
		LogLevel:              DefaultLogLevel,
		LogPath:               filepath.Join(dataDir, logFileName),
		JournalEnabled:        &enabled,
		JournalRetentionHours: DefaultJournalRetentionHours,
	}
}

func normalizeDefaults(cfg *ClientConfig, dataDir string) bool {
	updated := false

	if cfg.ClientID == "" {
		cfg.ClientID = uuid.NewString()
		updated = true
	}

	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = DefaultBaseURL
		updated = true
	}

	mode := normalizeBackendMode(cfg.BackendMode)
	if mode == "" {
		mode = BackendModeStatic
	}
	if cfg.BackendMode != mode {
		cfg.BackendMode = mode
		updated = true
	}

	if cfg.DiscoveryService == "" {
		cfg.DiscoveryService = DefaultDiscoveryService
		updated = true
	}

	if cfg.SelfSender == "" {
		cfg.SelfSender = DefaultSelfSender
		updated = true
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
		updated = true
	}

	if cfg.LogPath == "" {
		cfg.LogPath = filepath.Join(dataDir, logFileName)
		updated = true
	}

	if cfg.JournalEnabled == nil {
		enabled := true
		cfg.JournalEnabled = &enabled
		updated = true
	}

	if cfg.JournalRetentionHours <= 0 {
		cfg.JournalRetentionHours = DefaultJournalRetentionHours
		updated = true
	}

	return updated
}

func normalizeBackendMode(mode string) string {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case BackendModeStatic:
		return BackendModeStatic
	case BackendModeMDNS:
		return BackendModeMDNS
	default:
		return ""
	}
}
