package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Provider ProviderConfig `mapstructure:"provider"`
	Engine   EngineConfig   `mapstructure:"engine"`
	Export   ExportConfig   `mapstructure:"export"`
	UI       UIConfig       `mapstructure:"ui"`
	Media    MediaConfig    `mapstructure:"media"`
	Keys     KeyConfig      `mapstructure:"keys"`
	Log      LogConfig      `mapstructure:"log"`
}

type DatabaseConfig struct {
	Path    string        `mapstructure:"path"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type ProviderConfig struct {
	BaseURL     string        `mapstructure:"base_url"`
	APIKey      string        `mapstructure:"api_key"`
	HTTPTimeout time.Duration `mapstructure:"http_timeout"`
	UserAgent   string        `mapstructure:"user_agent"`
	Orientation string        `mapstructure:"orientation"`
	Locale      string        `mapstructure:"locale"`
	Breaker     BreakerConfig `mapstructure:"breaker"`
}

// BreakerConfig tunes the circuit breaker around provider calls.
type BreakerConfig struct {
	MaxRequests      uint32        `mapstructure:"max_requests"`
	Interval         time.Duration `mapstructure:"interval"`
	Timeout          time.Duration `mapstructure:"timeout"`
	FailureThreshold float64       `mapstructure:"failure_threshold"`
	MinRequests      uint32        `mapstructure:"min_requests"`
}

type EngineConfig struct {
	SlotCount         int `mapstructure:"slot_count"`
	Overfetch         int `mapstructure:"overfetch"`
	AcquireAttempts   int `mapstructure:"acquire_attempts"`
	ExclusionCapacity int `mapstructure:"exclusion_capacity"`
}

type ExportConfig struct {
	Directory string `mapstructure:"directory"`
	Preset    string `mapstructure:"preset"`
}

type UIConfig struct {
	Colors UIColors `mapstructure:"colors"`
}

type UIColors struct {
	Primary    string `mapstructure:"primary"`
	Secondary  string `mapstructure:"secondary"`
	Accent     string `mapstructure:"accent"`
	Background string `mapstructure:"background"`
	Surface    string `mapstructure:"surface"`
	Text       string `mapstructure:"text"`
	Muted      string `mapstructure:"muted"`
	Error      string `mapstructure:"error"`
	Success    string `mapstructure:"success"`
}

type MediaConfig struct {
	Darwin        []string `mapstructure:"darwin"`
	Linux         []string `mapstructure:"linux"`
	Windows       []string `mapstructure:"windows"`
	DefaultOpener string   `mapstructure:"default_opener"`
	// Editor is an external command invoked as `<editor> <input> <output>`
	// to crop or otherwise transform a slot image. Empty disables editing.
	Editor        []string `mapstructure:"editor"`
}

type KeyConfig struct {
	Bindings KeyBindings `mapstructure:"bindings"`
}

type KeyBindings struct {
	Quit        string `mapstructure:"quit"`
	Refresh     string `mapstructure:"refresh"`
	RefreshAll  string `mapstructure:"refresh_all"`
	Undo        string `mapstructure:"undo"`
	Lock        string `mapstructure:"lock"`
	Delete      string `mapstructure:"delete"`
	Restore     string `mapstructure:"restore"`
	Select      string `mapstructure:"select"`
	SelectAll   string `mapstructure:"select_all"`
	ChangeTopic string `mapstructure:"change_topic"`
	Open        string `mapstructure:"open"`
	Details     string `mapstructure:"details"`
	Export      string `mapstructure:"export"`
	Edit        string `mapstructure:"edit"`
	Back        string `mapstructure:"back"`
	Help        string `mapstructure:"help"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

func defaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()
	dbPath := filepath.Join(homeDir, ".polarstock.db")
	exportDir := filepath.Join(homeDir, "Downloads")

	return &Config{
		Database: DatabaseConfig{
			Path:    dbPath,
			Timeout: 1 * time.Second,
		},
		Provider: ProviderConfig{
			BaseURL:     "https://api.pexels.com/v1",
			HTTPTimeout: 15 * time.Second,
			UserAgent:   "polarstock/1.0 (https://github.com/pders01/polarstock)",
			Orientation: "landscape",
			Locale:      "en-US",
			Breaker: BreakerConfig{
				MaxRequests:      1,
				Interval:         30 * time.Second,
				Timeout:          30 * time.Second,
				FailureThreshold: 0.6,
				MinRequests:      5,
			},
		},
		Engine: EngineConfig{
			SlotCount:         6,
			Overfetch:         3,
			AcquireAttempts:   2,
			ExclusionCapacity: 1000,
		},
		Export: ExportConfig{
			Directory: exportDir,
			Preset:    "default",
		},
		UI: UIConfig{
			Colors: UIColors{
				Primary:    "#5B8DEF",
				Secondary:  "#4ECDC4",
				Accent:     "#95E1D3",
				Background: "#1A1A2E",
				Surface:    "#16213E",
				Text:       "#EAEAEA",
				Muted:      "#94A3B8",
				Error:      "#F87171",
				Success:    "#4ADE80",
			},
		},
		Media: MediaConfig{
			Darwin:        []string{"open"},
			Linux:         []string{"sxiv", "feh", "eog", "xdg-open"},
			Windows:       []string{"start"},
			DefaultOpener: getDefaultOpener(),
		},
		Keys: KeyConfig{
			Bindings: KeyBindings{
				Quit:        "q",
				Refresh:     "r",
				RefreshAll:  "R",
				Undo:        "u",
				Lock:        "l",
				Delete:      "x",
				Restore:     "X",
				Select:      " ",
				SelectAll:   "a",
				ChangeTopic: "t",
				Open:        "o",
				Details:     "enter",
				Export:      "e",
				Edit:        "E",
				Back:        "esc",
				Help:        "?",
			},
		},
		Log: LogConfig{
			Level: "off",
		},
	}
}

func getDefaultOpener() string {
	switch runtime.GOOS {
	case "darwin":
		return "open"
	case "linux":
		return "xdg-open"
	case "windows":
		return "start"
	default:
		return "open"
	}
}

func Load(configPath string) (*Config, error) {
	v := viper.New()

	cfg := defaultConfig()
	v.SetDefault("database", cfg.Database)
	v.SetDefault("provider", cfg.Provider)
	v.SetDefault("engine", cfg.Engine)
	v.SetDefault("export", cfg.Export)
	v.SetDefault("ui", cfg.UI)
	v.SetDefault("media", cfg.Media)
	v.SetDefault("keys", cfg.Keys)
	v.SetDefault("log", cfg.Log)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		homeDir, _ := os.UserHomeDir()
		configDir := filepath.Join(homeDir, ".config", "polarstock")

		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(configDir)
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("POLARSTOCK")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if config.Provider.APIKey == "" {
		config.Provider.APIKey = os.Getenv("PEXELS_API_KEY")
	}

	expandPaths(&config)
	normalize(&config)

	return &config, nil
}

// ExpandPath expands ~ to home directory and converts to absolute path
func ExpandPath(path string) string {
	if path == "" {
		return path
	}

	if len(path) >= 2 && path[:2] == "~/" {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path[2:])
	}

	if !filepath.IsAbs(path) {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
	}

	return path
}

func expandPaths(cfg *Config) {
	cfg.Database.Path = ExpandPath(cfg.Database.Path)
	cfg.Export.Directory = ExpandPath(cfg.Export.Directory)
	cfg.Log.File = ExpandPath(cfg.Log.File)
}

// normalize replaces out-of-range engine values with defaults.
func normalize(cfg *Config) {
	def := defaultConfig().Engine
	if cfg.Engine.SlotCount < 1 || cfg.Engine.SlotCount > 20 {
		cfg.Engine.SlotCount = def.SlotCount
	}
	if cfg.Engine.Overfetch < 1 {
		cfg.Engine.Overfetch = def.Overfetch
	}
	if cfg.Engine.AcquireAttempts < 1 {
		cfg.Engine.AcquireAttempts = def.AcquireAttempts
	}
	if cfg.Engine.ExclusionCapacity < 1 {
		cfg.Engine.ExclusionCapacity = def.ExclusionCapacity
	}
}

func Save(config *Config, path string) error {
	v := viper.New()

	// Convert durations to strings for TOML readability
	dbCfg := map[string]interface{}{
		"path":    config.Database.Path,
		"timeout": config.Database.Timeout.String(),
	}

	providerCfg := map[string]interface{}{
		"base_url":     config.Provider.BaseURL,
		"api_key":      config.Provider.APIKey,
		"http_timeout": config.Provider.HTTPTimeout.String(),
		"user_agent":   config.Provider.UserAgent,
		"orientation":  config.Provider.Orientation,
		"locale":       config.Provider.Locale,
		"breaker": map[string]interface{}{
			"max_requests":      config.Provider.Breaker.MaxRequests,
			"interval":          config.Provider.Breaker.Interval.String(),
			"timeout":           config.Provider.Breaker.Timeout.String(),
			"failure_threshold": config.Provider.Breaker.FailureThreshold,
			"min_requests":      config.Provider.Breaker.MinRequests,
		},
	}

	engineCfg := map[string]interface{}{
		"slot_count":         config.Engine.SlotCount,
		"overfetch":          config.Engine.Overfetch,
		"acquire_attempts":   config.Engine.AcquireAttempts,
		"exclusion_capacity": config.Engine.ExclusionCapacity,
	}

	v.Set("database", dbCfg)
	v.Set("provider", providerCfg)
	v.Set("engine", engineCfg)
	v.Set("export", map[string]interface{}{
		"directory": config.Export.Directory,
		"preset":    config.Export.Preset,
	})
	v.Set("ui", map[string]interface{}{
		"colors": map[string]interface{}{
			"primary":    config.UI.Colors.Primary,
			"secondary":  config.UI.Colors.Secondary,
			"accent":     config.UI.Colors.Accent,
			"background": config.UI.Colors.Background,
			"surface":    config.UI.Colors.Surface,
			"text":       config.UI.Colors.Text,
			"muted":      config.UI.Colors.Muted,
			"error":      config.UI.Colors.Error,
			"success":    config.UI.Colors.Success,
		},
	})
	v.Set("media", map[string]interface{}{
		"darwin":         config.Media.Darwin,
		"linux":          config.Media.Linux,
		"windows":        config.Media.Windows,
		"default_opener": config.Media.DefaultOpener,
		"editor":         config.Media.Editor,
	})
	b := config.Keys.Bindings
	v.Set("keys", map[string]interface{}{
		"bindings": map[string]interface{}{
			"quit":         b.Quit,
			"refresh":      b.Refresh,
			"refresh_all":  b.RefreshAll,
			"undo":         b.Undo,
			"lock":         b.Lock,
			"delete":       b.Delete,
			"restore":      b.Restore,
			"select":       b.Select,
			"select_all":   b.SelectAll,
			"change_topic": b.ChangeTopic,
			"open":         b.Open,
			"details":      b.Details,
			"export":       b.Export,
			"edit":         b.Edit,
			"back":         b.Back,
			"help":         b.Help,
		},
	})
	v.Set("log", map[string]interface{}{
		"level": config.Log.Level,
		"file":  config.Log.File,
	})

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	return v.WriteConfigAs(path)
}

func GenerateDefaultConfig(path string) error {
	return Save(defaultConfig(), path)
}

// DefaultConfigPath returns ~/.config/polarstock/config.toml.
func DefaultConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "polarstock", "config.toml")
}
