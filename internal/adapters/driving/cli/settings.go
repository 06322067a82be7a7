package cli

import (
	"bufio"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure the embedding provider, chat model and other options.

API keys are never written to disk. They are read from the environment
variable each provider names, which may be set in the --env-file.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsEmbeddingCmd = &cobra.Command{
	Use:   "embedding",
	Short: "Configure embedding provider",
	Long: `Configure the provider used to embed document chunks and queries.

Without --provider the choice is prompted for interactively.
Changing provider changes vector dimensions; re-upload documents afterwards.`,
	RunE: runSettingsEmbedding,
}

var settingsLLMCmd = &cobra.Command{
	Use:   "llm",
	Short: "Configure chat model",
	Long: `Configure the chat model used to answer questions.

Without --provider the choice is prompted for interactively.`,
	RunE: runSettingsLLM,
}

var (
	settingsProvider string
	settingsModel    string
)

func init() {
	for _, c := range []*cobra.Command{settingsEmbeddingCmd, settingsLLMCmd} {
		c.Flags().StringVar(&settingsProvider, "provider", "", "provider name")
		c.Flags().StringVar(&settingsModel, "model", "", "model name (default depends on provider)")
	}
	settingsCmd.AddCommand(settingsShowCmd)
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

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Embedding]")
	cmd.Printf("  Provider: %s\n", settings.Embedding.Provider.Description())
	if settings.Embedding.Model != "" {
		cmd.Printf("  Model: %s\n", settings.Embedding.Model)
	}
	if settings.Embedding.BaseURL != "" {
		cmd.Printf("  Base URL: %s\n", settings.Embedding.BaseURL)
	}
	if settings.Embedding.Provider.RequiresAPIKey() {
		printKeyStatus(cmd, settings.Embedding.APIKeyEnv, settings.Embedding.APIKey)
	}
	printConfigured(cmd, settings.Embedding.IsConfigured())
	cmd.Println()

	cmd.Println("[LLM]")
	cmd.Printf("  Provider: %s\n", settings.LLM.Provider.Description())
	if settings.LLM.Model != "" {
		cmd.Printf("  Model: %s\n", settings.LLM.Model)
	}
	if settings.LLM.BaseURL != "" {
		cmd.Printf("  Base URL: %s\n", settings.LLM.BaseURL)
	}
	if settings.LLM.Provider.RequiresAPIKey() {
		printKeyStatus(cmd, settings.LLM.APIKeyEnv, settings.LLM.APIKey)
	}
	printConfigured(cmd, settings.LLM.IsConfigured())
	cmd.Println()

	cmd.Println("[Pipeline]")
	cmd.Printf("  Chunk size: %d\n", settings.Pipeline.ChunkSize)
	cmd.Printf("  Chunk overlap: %d\n", settings.Pipeline.ChunkOverlap)
	cmd.Printf("  Batch size: %d\n", settings.Pipeline.BatchSize)
	cmd.Printf("  Results per query: %d\n", settings.Retrieval.Limit)
	cmd.Println()

	cmd.Println("[Storage]")
	cmd.Printf("  Backend: %s\n", settings.Storage.Backend)
	if settings.Storage.DataDir != "" {
		cmd.Printf("  Data dir: %s\n", settings.Storage.DataDir)
	}
	cmd.Println()

	cmd.Println("[Web Search]")
	cmd.Printf("  Provider: %s\n", settings.WebSearch.Provider)
	if settings.WebSearch.Provider != "none" {
		printKeyStatus(cmd, settings.WebSearch.APIKeyEnv, settings.WebSearch.APIKey)
	}
	cmd.Println()

	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Run 'ragdesk settings embedding' or 'ragdesk settings llm' to fix configuration issues.")
	} else {
		cmd.Println("Configuration is valid.")
	}

	return nil
}

func printKeyStatus(cmd *cobra.Command, envName, key string) {
	if key != "" {
		cmd.Printf("  API Key: %s (from $%s)\n", maskAPIKey(key), envName)
		return
	}
	cmd.Printf("  API Key: (not set, export $%s)\n", envName)
}

func printConfigured(cmd *cobra.Command, ok bool) {
	status := "configured"
	if !ok {
		status = "not configured"
	}
	cmd.Printf("  Status: %s\n", status)
}

func runSettingsEmbedding(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	providers := []domain.AIProvider{
		domain.AIProviderLocal, domain.AIProviderOllama, domain.AIProviderOpenAI, domain.AIProviderNone,
	}
	provider, model, err := chooseProvider(cmd, "Select Embedding Provider", providers, domain.DefaultEmbeddingModels())
	if err != nil {
		return err
	}

	if err := settingsService.SetEmbeddingProvider(provider, model); err != nil {
		return fmt.Errorf("failed to configure embedding provider: %w", err)
	}
	cmd.Printf("Embedding provider configured: %s", provider.Description())
	if model != "" {
		cmd.Printf(" (%s)", model)
	}
	cmd.Println()
	return warnMissingKey(cmd, provider, func(s *domain.AppSettings) (string, string) {
		return s.Embedding.APIKeyEnv, s.Embedding.APIKey
	})
}

func runSettingsLLM(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	providers := []domain.AIProvider{domain.AIProviderOllama, domain.AIProviderOpenAI, domain.AIProviderNone}
	provider, model, err := chooseProvider(cmd, "Select Chat Model Provider", providers, domain.DefaultLLMModels())
	if err != nil {
		return err
	}

	if err := settingsService.SetLLMProvider(provider, model); err != nil {
		return fmt.Errorf("failed to configure LLM provider: %w", err)
	}
	cmd.Printf("LLM provider configured: %s", provider.Description())
	if model != "" {
		cmd.Printf(" (%s)", model)
	}
	cmd.Println()
	return warnMissingKey(cmd, provider, func(s *domain.AppSettings) (string, string) {
		return s.LLM.APIKeyEnv, s.LLM.APIKey
	})
}

// chooseProvider resolves the provider and model from flags, prompting on
// the command's input for whatever was not given.
func chooseProvider(
	cmd *cobra.Command,
	title string,
	providers []domain.AIProvider,
	defaults map[domain.AIProvider]string,
) (domain.AIProvider, string, error) {
	reader := bufio.NewReader(cmd.InOrStdin())

	var provider domain.AIProvider
	if settingsProvider != "" {
		provider = domain.AIProvider(settingsProvider)
		if !containsProvider(providers, provider) {
			return "", "", fmt.Errorf("%w: unknown provider %q", domain.ErrInvalidInput, settingsProvider)
		}
	} else {
		cmd.Println(title)
		for i, p := range providers {
			cmd.Printf("  %d. %s\n", i+1, p.Description())
		}
		cmd.Print("\nEnter choice [1]: ")
		provider = providers[parseChoice(readLine(reader), len(providers), 1)-1]
	}

	if provider == domain.AIProviderNone {
		return provider, "", nil
	}

	model := settingsModel
	if model == "" {
		model = defaults[provider]
		if settingsProvider == "" {
			cmd.Printf("Enter model name [%s]: ", model)
			if input := readLine(reader); input != "" {
				model = input
			}
		}
	}
	return provider, model, nil
}

func containsProvider(providers []domain.AIProvider, p domain.AIProvider) bool {
	for _, candidate := range providers {
		if candidate == p {
			return true
		}
	}
	return false
}

func warnMissingKey(cmd *cobra.Command, provider domain.AIProvider, key func(*domain.AppSettings) (string, string)) error {
	if !provider.RequiresAPIKey() {
		return nil
	}
	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	envName, value := key(settings)
	if value == "" {
		cmd.Printf("Note: set $%s in your environment or env file before use.\n", envName)
	}
	return nil
}

// Helper functions.

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
