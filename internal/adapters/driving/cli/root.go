// Package cli provides the doctag command line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/doctag/internal/core/domain"
	"github.com/custodia-labs/doctag/internal/core/ports/driving"
	"github.com/custodia-labs/doctag/internal/logger"
)

// version is set at build time via ldflags.
var version = "dev"

// Services holds the driving ports the commands run against.
type Services struct {
	Classifier driving.ClassifierService
	Ingest     driving.IngestService
	Corpus     driving.CorpusService
	Documents  driving.DocumentService
	Settings   driving.SettingsService

	// RemoteIngest is Ingest restricted to http(s) URLs. The HTTP API and
	// the MCP server use it so clients cannot read local files.
	RemoteIngest driving.IngestService

	// CheckLLM and CheckEmbedding verify that a configured provider answers.
	CheckLLM       func(ctx context.Context, settings *domain.LLMSettings) error
	CheckEmbedding func(ctx context.Context, settings *domain.EmbeddingSettings) error

	// ClassifierErr explains why Classifier, Ingest and RemoteIngest are nil.
	ClassifierErr error

	// CorpusErr explains why Corpus is nil.
	CorpusErr error
}

// Bootstrap builds the services for a config directory. The returned cleanup
// runs after the command finishes.
type Bootstrap func(ctx context.Context, configDir string) (*Services, func(), error)

var (
	classifierService driving.ClassifierService
	ingestService     driving.IngestService
	remoteIngest      driving.IngestService
	corpusService     driving.CorpusService
	documentService   driving.DocumentService
	settingsService   driving.SettingsService
	checkLLM          func(ctx context.Context, settings *domain.LLMSettings) error
	checkEmbedding    func(ctx context.Context, settings *domain.EmbeddingSettings) error

	classifierErr error
	corpusErr     error

	bootstrap Bootstrap
	cleanup   func()
)

// Global flags.
var (
	verbose   bool
	configDir string
)

var rootCmd = &cobra.Command{
	Use:   "doctag",
	Short: "Classify documents and answer questions about them",
	Long: `doctag classifies PDF, DOCX and plain text documents into a configurable
taxonomy and answers questions grounded on their content.

Documents are extracted, classified by a language model and stored locally.
Questions are answered from the most similar passages of the stored documents.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		if cleanup != nil {
			cleanup()
			cleanup = nil
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print pipeline stages to stderr")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "configuration directory (default ~/.doctag)")
}

// SetServices injects the services used by all commands.
func SetServices(s *Services) {
	classifierService = s.Classifier
	ingestService = s.Ingest
	remoteIngest = s.RemoteIngest
	corpusService = s.Corpus
	documentService = s.Documents
	settingsService = s.Settings
	checkLLM = s.CheckLLM
	checkEmbedding = s.CheckEmbedding
	classifierErr = s.ClassifierErr
	corpusErr = s.CorpusErr
}

// SetBootstrap registers the function that builds services once flags are parsed.
func SetBootstrap(b Bootstrap) {
	bootstrap = b
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// Execute runs the root command. Command output goes to stdout.
func Execute(ctx context.Context) error {
	rootCmd.SetOut(os.Stdout)
	return rootCmd.ExecuteContext(ctx)
}

func setup(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)
	if bootstrap == nil || cmd == versionCmd {
		return nil
	}

	services, done, err := bootstrap(cmd.Context(), configDir)
	if err != nil {
		return err
	}
	SetServices(services)
	cleanup = done
	return nil
}

// unavailable reports a missing service, with the reason it could not be built.
func unavailable(name string, reason error) error {
	if reason != nil {
		return fmt.Errorf("%s not available: %w", name, reason)
	}
	return errors.New(name + " not configured")
}
