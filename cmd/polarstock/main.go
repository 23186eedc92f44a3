package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/pders01/polarstock/internal/config"
	"github.com/pders01/polarstock/internal/debuglog"
	"github.com/pders01/polarstock/internal/export"
	"github.com/pders01/polarstock/internal/media"
	"github.com/pders01/polarstock/internal/search"
	"github.com/pders01/polarstock/internal/tui"
)

// Version is the version of the application, set at build time
var Version = "dev"

var (
	dbPath     string
	configPath string
	logLevel   string
	quiet      bool
)

var rootCmd = &cobra.Command{
	Use:           "polarstock",
	Short:         "Non-repeating stock images for your projects",
	Long:          "polarstock fills a board of image slots from Pexels and never shows the same photo twice in a session.",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runTUI,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("polarstock %s\n", Version)
		fmt.Println("Non-repeating stock images")
		fmt.Println("github.com/pders01/polarstock")
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configGenCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate default config file",
	Run: func(cmd *cobra.Command, args []string) {
		path := configPath
		if path == "" {
			path = config.DefaultConfigPath()
		}
		if err := config.GenerateDefaultConfig(path); err != nil {
			exitErr("generate config", err)
		}
		fmt.Printf("Generated default configuration at: %s\n", path)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to database file (overrides config)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error, off (overrides config)")
	rootCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Skip startup banner")

	configCmd.AddCommand(configGenCmd)
	rootCmd.AddCommand(versionCmd, configCmd, fillCmd, exclusionsCmd, topicsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runTUI(cmd *cobra.Command, args []string) error {
	if !quiet {
		tui.ShowBanner(Version)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	level := debuglog.ParseLogLevel(cfg.Log.Level)
	if err := debuglog.Setup(level, cfg.Log.File); err != nil {
		return fmt.Errorf("setting up log: %w", err)
	}
	defer debuglog.Close()

	eng, err := openEngine(cfg)
	if err != nil {
		return err
	}
	defer eng.Close()

	catalog, err := search.DefaultCatalog()
	if err != nil {
		return fmt.Errorf("loading topic catalog: %w", err)
	}
	suggester := search.NewSuggester(catalog)
	if c, ok := suggester.(interface{ Close() error }); ok {
		defer c.Close()
	}

	deps := tui.Deps{
		Orchestrator: eng.orchestrator,
		Store:        eng.store,
		Suggester:    suggester,
		Launcher:     media.NewLauncher(cfg),
		Exporter:     export.NewZipExporter(cfg),
		Health:       eng.breaker,
	}
	// A nil *CommandEditor in the interface would look configured.
	if editor := media.NewCommandEditor(cfg.Media.Editor, os.TempDir()); editor != nil {
		deps.Editor = editor
	}

	app := tui.NewApp(cfg, deps)
	p := tea.NewProgram(app, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}

// loadConfig reads the config file and applies command-line overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if dbPath != "" {
		cfg.Database.Path = config.ExpandPath(dbPath)
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	return cfg, nil
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
