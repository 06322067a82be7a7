// Package cli provides the ragdesk command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driving"
	"github.com/custodia-labs/ragdesk/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// annotationSkipBootstrap marks commands that run without services.
const annotationSkipBootstrap = "skip-bootstrap"

// Services holds the driving ports commands delegate to.
type Services struct {
	Documents driving.DocumentService
	Retrieval driving.RetrievalService
	Chat      driving.ChatService
	Settings  driving.SettingsService

	// AppSettings are the settings the services were built from.
	AppSettings *domain.AppSettings
}

// BootstrapFunc builds services from the config directory. The returned
// close function is called once the command finishes.
type BootstrapFunc func(configDir string) (*Services, func() error, error)

var (
	documentService  driving.DocumentService
	retrievalService driving.RetrievalService
	chatService      driving.ChatService
	settingsService  driving.SettingsService
	appSettings      *domain.AppSettings

	bootstrap BootstrapFunc
	closeApp  func() error
	configDir string
	verbose   bool
	envFile   string
)

var rootCmd = &cobra.Command{
	Use:   "ragdesk",
	Short: "Retrieval-augmented knowledge base and chat assistant",
	Long: `ragdesk ingests documents and web pages into a searchable knowledge base
and answers questions grounded in it.

Documents are split into overlapping chunks, embedded, and retrieved by
cosine similarity. Answers cite the documents they were drawn from.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "configuration directory (default ~/.ragdesk)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "file to load environment variables from")
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// SetBootstrap sets the function that builds services before a command runs.
func SetBootstrap(fn BootstrapFunc) {
	bootstrap = fn
}

// SetServices installs services directly.
func SetServices(s *Services) {
	if s == nil {
		s = &Services{}
	}
	documentService = s.Documents
	retrievalService = s.Retrieval
	chatService = s.Chat
	settingsService = s.Settings
	appSettings = s.AppSettings
}

// Execute runs the root command and releases services afterwards.
func Execute() error {
	err := rootCmd.Execute()
	if closeErr := teardown(); err == nil {
		err = closeErr
	}
	return err
}

func setup(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	if cmd.Annotations[annotationSkipBootstrap] == "true" || bootstrap == nil {
		return nil
	}

	services, closeFn, err := bootstrap(configDir)
	if err != nil {
		return err
	}
	SetServices(services)
	closeApp = closeFn
	return nil
}

func teardown() error {
	if closeApp == nil {
		return nil
	}
	err := closeApp()
	closeApp = nil
	return err
}

// requireDocuments returns the document service or a configuration error.
func requireDocuments() (driving.DocumentService, error) {
	if documentService == nil {
		return nil, errors.New("document service not configured")
	}
	return documentService, nil
}

// commandContext returns the command's context, or a background one when
// the command was executed without one.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
