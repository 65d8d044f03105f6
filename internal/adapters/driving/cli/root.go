// Package cli implements the codetutor command line interface.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/codetutor/internal/core/domain"
	"github.com/custodia-labs/codetutor/internal/core/ports/driving"
	"github.com/custodia-labs/codetutor/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// PromptAssets is the prompt template store managed by the prompts command.
type PromptAssets interface {
	Load(name string) (string, error)
	Path(name string) string
	Reset(name string) error
}

// Services holds the core services the commands drive.
// Nil services make the commands that need them fail with a clear error.
type Services struct {
	Index     driving.IndexService
	Retrieval driving.RetrievalService
	Answer    driving.AnswerService
	Settings  driving.SettingsService
	Prompts   PromptAssets

	// WatchPrompts starts hot reload of prompt templates. Optional.
	WatchPrompts func(onReload func(name string)) (io.Closer, error)
}

// BootstrapFunc wires services for the given home directory.
// The returned cleanup is called once the command finishes.
type BootstrapFunc func(home string) (*Services, func(), error)

var (
	indexService     driving.IndexService
	retrievalService driving.RetrievalService
	answerService    driving.AnswerService
	settingsService  driving.SettingsService
	promptAssets     PromptAssets
	watchPrompts     func(onReload func(name string)) (io.Closer, error)

	bootstrap BootstrapFunc
	cleanup   func()
)

var (
	verbose bool
	homeDir string
)

var rootCmd = &cobra.Command{
	Use:   "codetutor",
	Short: "Ask questions about your study notes",
	Long: `codetutor indexes a document (PDF, Markdown or plain text) into a
vector store and answers questions grounded in the indexed passages.

Get started:
  codetutor ingest notes.pdf
  codetutor ask "What is the difference between a list and a tuple?"
  codetutor serve`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: runBootstrap,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&homeDir, "home", "", "data directory (default ~/.codetutor)")
}

// SetServices installs the services used by all commands.
func SetServices(s *Services) {
	if s == nil {
		s = &Services{}
	}
	indexService = s.Index
	retrievalService = s.Retrieval
	answerService = s.Answer
	settingsService = s.Settings
	promptAssets = s.Prompts
	watchPrompts = s.WatchPrompts
}

// SetBootstrap registers the function that wires services once flags are parsed.
func SetBootstrap(fn BootstrapFunc) {
	bootstrap = fn
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

func runBootstrap(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)
	if bootstrap == nil || cmd == versionCmd {
		return nil
	}

	home := homeDir
	if home == "" {
		home = os.Getenv("CODETUTOR_HOME")
	}
	services, done, err := bootstrap(home)
	if err != nil {
		return fmt.Errorf("initialise: %w", err)
	}
	SetServices(services)
	cleanup = done
	return nil
}

// Execute runs the root command and renders any error to stderr.
func Execute() int {
	err := rootCmd.Execute()
	if cleanup != nil {
		cleanup()
		cleanup = nil
	}
	if err != nil {
		fmt.Fprintln(rootCmd.ErrOrStderr(), formatError(err))
		return 1
	}
	return 0
}

// formatError prefixes err with its kind so scripts can match on it.
func formatError(err error) string {
	kind := domain.KindOf(err)
	if kind == domain.KindInternal {
		return "Error: " + err.Error()
	}
	return fmt.Sprintf("Error [%s]: %s", kind, err)
}

func requireIndexService() error {
	if indexService == nil {
		return errors.New("index service not configured")
	}
	return nil
}
