package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"anime/catalog/internal/config"

	log "github.com/sirupsen/logrus"
)

var (
	// Global flags
	configPath string
	namespace  string
	logLevel   string

	cfg     *config.Config
	logFile *os.File
)

var rootCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Browse the anime catalog with filters, sorting and paging that survive restarts",
	Long: `catalog pages through a remote anime catalog, ten records at a time.

Search text, score bounds, type filter, sort column and page are kept in the
configured preference store and restored on the next run. Every command prints
the canonical query string, which can be passed back to "catalog serve".`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if namespace != "" {
			loaded.Storage.Namespace = namespace
		}
		if logLevel != "" {
			loaded.Log.Level = logLevel
		}
		cfg = loaded

		return setupLogging(cfg.Log, cmd.Name() == "browse")
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logFile != nil {
			_ = logFile.Close()
			logFile = nil
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runShow(cmd, nil)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: ./config.yaml or $XDG_CONFIG_HOME/catalog/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&namespace, "namespace", "n", "", "Preference namespace (overrides storage.namespace)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")

	registerShowFlags(showCmd)

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(browseCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(sortCmd)
	rootCmd.AddCommand(nextCmd)
	rootCmd.AddCommand(prevCmd)
	rootCmd.AddCommand(resetCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setupLogging applies the log section. The interactive browser always logs
// to a file so diagnostics never paint over the screen.
func setupLogging(lc config.LogConfig, interactive bool) error {
	level, err := log.ParseLevel(lc.Level)
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	log.SetLevel(level)

	switch strings.ToLower(lc.Format) {
	case "json":
		log.SetFormatter(&log.JSONFormatter{})
	case "", "text":
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	default:
		return fmt.Errorf("unknown log format %q", lc.Format)
	}

	path := lc.File
	if path == "" && interactive {
		path = defaultLogPath()
	}
	if path == "" {
		log.SetOutput(os.Stderr)
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	logFile = f
	log.SetOutput(f)
	return nil
}

func defaultLogPath() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "catalog", "catalog.log")
	}
	return filepath.Join(os.TempDir(), "catalog.log")
}
