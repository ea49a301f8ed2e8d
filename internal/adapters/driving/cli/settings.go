package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/doctag/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure AI providers, retrieval and storage settings.

API keys are read from the environment (or a .env file) and never stored.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsEmbeddingCmd = &cobra.Command{
	Use:   "embedding [provider] [model]",
	Short: "Configure embedding provider",
	Long: `Configure the embedding provider used for question answering.

Available providers: openai, ollama, google. The model defaults to the
provider's default embedding model.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runSettingsEmbedding,
}

var settingsLLMCmd = &cobra.Command{
	Use:   "llm [provider] [model]",
	Short: "Configure LLM provider",
	Long: `Configure the LLM provider used for classification, detail extraction and answers.

Available providers: openai, groq, ollama, anthropic, google. The model
defaults to the provider's default chat model.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runSettingsLLM,
}

var settingsCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Check that the configured providers answer",
	Long: `Makes a lightweight request to the configured LLM and embedding providers
and reports any that cannot be reached or reject the credentials.`,
	Args: cobra.NoArgs,
	RunE: runSettingsCheck,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsCheckCmd)
	settingsCmd.AddCommand(settingsEmbeddingCmd)
	settingsCmd.AddCommand(settingsLLMCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println(styled(cmd, headingStyle, "Current Settings"))
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Embedding]")
	cmd.Printf("  Provider: %s\n", settings.Embedding.Provider.Description())
	cmd.Printf("  Model: %s\n", settings.Embedding.Model)
	if settings.Embedding.BaseURL != "" {
		cmd.Printf("  Base URL: %s\n", settings.Embedding.BaseURL)
	}
	printAPIKey(cmd, settings.Embedding.Provider, settings.Embedding.APIKey)
	printStatus(cmd, settings.Embedding.IsConfigured())
	cmd.Println()

	cmd.Println("[LLM]")
	cmd.Printf("  Provider: %s\n", settings.LLM.Provider.Description())
	cmd.Printf("  Model: %s\n", settings.LLM.Model)
	if settings.LLM.BaseURL != "" {
		cmd.Printf("  Base URL: %s\n", settings.LLM.BaseURL)
	}
	printAPIKey(cmd, settings.LLM.Provider, settings.LLM.APIKey)
	printStatus(cmd, settings.LLM.IsConfigured())
	cmd.Println()

	cmd.Println("[Retrieval]")
	cmd.Printf("  Chunk size: %d\n", settings.Retrieval.ChunkSize)
	cmd.Printf("  Overlap: %d\n", settings.Retrieval.Overlap)
	cmd.Printf("  Top K: %d\n", settings.Retrieval.TopK)
	cmd.Printf("  Fan out: %d\n", settings.Retrieval.FanOut)
	cmd.Printf("  Request timeout: %s\n", settings.RequestTimeout)
	if settings.RateLimit.RequestsPerSecond > 0 {
		cmd.Printf("  Rate limit: %.2f req/s (burst %d)\n",
			settings.RateLimit.RequestsPerSecond, settings.RateLimit.Burst)
	}
	cmd.Println()

	cmd.Println("[Vector Index]")
	cmd.Printf("  Backend: %s\n", settings.Vector.Backend)
	if settings.Vector.Backend == domain.VectorBackendPGVector {
		cmd.Printf("  Collection: %s\n", settings.Vector.Collection)
	}
	cmd.Println()

	cmd.Println("[Taxonomy]")
	if settings.TaxonomyFile != "" {
		cmd.Printf("  File: %s\n", settings.TaxonomyFile)
	}
	for _, c := range settings.Taxonomy {
		cmd.Printf("  %s: %s\n", styled(cmd, categoryStyle, c.Name), strings.Join(c.Tags, ", "))
	}
	cmd.Println()

	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Run 'doctag settings llm' or 'doctag settings embedding' to fix configuration issues.")
	} else {
		cmd.Println("Configuration is valid.")
	}

	return nil
}

func runSettingsEmbedding(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	provider, model := providerArgs(args)
	if err := settingsService.SetEmbeddingProvider(provider, model); err != nil {
		return fmt.Errorf("failed to configure embedding provider: %w", err)
	}
	cmd.Printf("Embedding provider configured: %s\n", provider.Description())

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	if !settings.Embedding.IsConfigured() {
		if provider.RequiresAPIKey() {
			cmd.Printf("Set %s in the environment or a .env file.\n", provider.APIKeyEnv())
		}
		return nil
	}
	if checkEmbedding != nil {
		reportCheck(cmd, "Embedding provider", checkEmbedding(cmd.Context(), &settings.Embedding))
	}
	return nil
}

func runSettingsLLM(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	provider, model := providerArgs(args)
	if err := settingsService.SetLLMProvider(provider, model); err != nil {
		return fmt.Errorf("failed to configure LLM provider: %w", err)
	}
	cmd.Printf("LLM provider configured: %s\n", provider.Description())

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	if !settings.LLM.IsConfigured() {
		if provider.RequiresAPIKey() {
			cmd.Printf("Set %s in the environment or a .env file.\n", provider.APIKeyEnv())
		}
		return nil
	}
	if checkLLM != nil {
		reportCheck(cmd, "LLM provider", checkLLM(cmd.Context(), &settings.LLM))
	}
	return nil
}

func runSettingsCheck(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	if checkLLM == nil || checkEmbedding == nil {
		return errors.New("provider checks not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	llmErr := checkLLM(cmd.Context(), &settings.LLM)
	reportCheck(cmd, "LLM "+string(settings.LLM.Provider), llmErr)
	embedErr := checkEmbedding(cmd.Context(), &settings.Embedding)
	reportCheck(cmd, "Embedding "+string(settings.Embedding.Provider), embedErr)

	if err := errors.Join(llmErr, embedErr); err != nil {
		return fmt.Errorf("provider check failed: %w", err)
	}
	return nil
}

// reportCheck prints the outcome of a provider check. A failed check after a
// settings change is a warning; the setting is already saved.
func reportCheck(cmd *cobra.Command, name string, err error) {
	if err != nil {
		cmd.Printf("%s: %s %v\n", name, styled(cmd, errorStyle, "unreachable:"), err)
		return
	}
	cmd.Printf("%s: reachable\n", name)
}

func providerArgs(args []string) (domain.AIProvider, string) {
	provider := domain.AIProvider(strings.ToLower(args[0]))
	model := ""
	if len(args) > 1 {
		model = args[1]
	}
	return provider, model
}

func printAPIKey(cmd *cobra.Command, provider domain.AIProvider, key string) {
	if !provider.RequiresAPIKey() {
		return
	}
	if key != "" {
		cmd.Printf("  API Key: %s\n", maskAPIKey(key))
	} else {
		cmd.Printf("  API Key: (not set, export %s)\n", provider.APIKeyEnv())
	}
}

func printStatus(cmd *cobra.Command, configured bool) {
	status := "configured"
	if !configured {
		status = "not configured"
	}
	cmd.Printf("  Status: %s\n", status)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
