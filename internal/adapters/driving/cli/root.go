// Package cli implements the ragnote command line interface.
package cli

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragnote/internal/core/ports/driving"
	"github.com/custodia-labs/ragnote/internal/logger"
)

// version is set by the linker at build time.
var version = "dev"

// Global flags.
var (
	verbose   bool
	logFormat string
	dataDir   string
)

// Services used by the commands. Set by the bootstrapper, or directly in tests.
var (
	ingestionService driving.IngestionService
	searchService    driving.SearchService
	chatService      driving.ChatService
	documentService  driving.DocumentService
	settingsService  driving.SettingsService
	settingsWatcher  SettingsWatcher
)

// annotationNoServices marks commands that run without the data directory.
const annotationNoServices = "ragnote/no-services"

// Services holds the driving ports the commands are wired to.
type Services struct {
	Ingestion driving.IngestionService
	Search    driving.SearchService
	Chat      driving.ChatService
	Documents driving.DocumentService
	Settings  driving.SettingsService

	// Watcher reports edits to the settings files. Optional.
	Watcher SettingsWatcher

	// Closer releases the store and provider clients.
	Closer io.Closer
}

// SettingsWatcher reports edits to the settings on disk.
type SettingsWatcher interface {
	// Run calls onChange with the edited paths until ctx is cancelled.
	Run(ctx context.Context, onChange func(paths []string)) error
}

// Bootstrapper builds the services for a data directory.
type Bootstrapper func(dataDir string) (*Services, error)

var (
	bootstrap Bootstrapper
	closer    io.Closer
)

// SetBootstrapper registers the function that wires services before a command runs.
func SetBootstrapper(b Bootstrapper) {
	bootstrap = b
}

// SetServices wires the commands to already-built services.
func SetServices(s *Services) {
	ingestionService = s.Ingestion
	searchService = s.Search
	chatService = s.Chat
	documentService = s.Documents
	settingsService = s.Settings
	settingsWatcher = s.Watcher
	closer = s.Closer
}

// SetVersion sets the version reported by 'ragnote version'.
func SetVersion(v string) {
	version = v
}

var rootCmd = &cobra.Command{
	Use:   "ragnote",
	Short: "Chat with your own documents",
	Long: `ragnote ingests local documents into a vector store and answers
questions about them with a local or hosted language model.

  ragnote ingest notes.md report.pdf
  ragnote ask "when is the report due?"
  ragnote tui`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable diagnostic logging to stderr")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", logger.FormatText, "log format: text or json")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "data directory (default ~/.ragnote)")
}

func setup(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)
	if err := logger.SetFormat(logFormat); err != nil {
		return err
	}

	if bootstrap == nil || cmd.Annotations[annotationNoServices] == "true" {
		return nil
	}

	dir, err := resolveDataDir(dataDir)
	if err != nil {
		return err
	}
	logger.Debug("Using data directory %s", dir)

	services, err := bootstrap(dir)
	if err != nil {
		return err
	}
	SetServices(services)
	return nil
}

// DefaultDataDir returns ~/.ragnote.
func DefaultDataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".ragnote"), nil
}

func resolveDataDir(flagValue string) (string, error) {
	if flagValue != "" {
		return filepath.Abs(flagValue)
	}
	if env := os.Getenv("RAGNOTE_DATA_DIR"); env != "" {
		return filepath.Abs(env)
	}
	return DefaultDataDir()
}

// Execute runs the root command with ctx, which is cancelled on interrupt,
// and releases the services afterwards.
func Execute(ctx context.Context) error {
	defer func() {
		if closer != nil {
			if err := closer.Close(); err != nil {
				logger.Warn("Closing services: %v", err)
			}
			closer = nil
		}
	}()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil && errors.Is(ctx.Err(), context.Canceled) {
		return errInterrupted
	}
	return err
}
