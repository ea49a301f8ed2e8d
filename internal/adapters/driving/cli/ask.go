package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/doctag/internal/core/ports/driving"
)

var (
	askDocument string
	askTopK     int
	askJSON     bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question about stored documents",
	Long: `Answers a question from the passages of stored documents most similar to it.
Use --document to restrict the answer to one document.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askDocument, "document", "d", "", "answer from this document ID only")
	askCmd.Flags().IntVarP(&askTopK, "top-k", "k", 0, "number of passages to retrieve (default from settings)")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if corpusService == nil {
		return unavailable("question answering", corpusErr)
	}

	result, err := corpusService.Ask(cmd.Context(), args[0], driving.AskOptions{
		DocumentID: askDocument,
		TopK:       askTopK,
	})
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	if askJSON {
		return outputAskJSON(cmd, result)
	}
	outputAskText(cmd, result)
	return nil
}

func outputAskJSON(cmd *cobra.Command, result *driving.AskResult) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal answer: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputAskText(cmd *cobra.Command, result *driving.AskResult) {
	cmd.Println(result.Answer)
	if len(result.Sources) == 0 {
		return
	}

	cmd.Println()
	cmd.Println(styled(cmd, headingStyle, "Sources:"))
	for i, src := range result.Sources {
		cmd.Printf("  [%d] %s (%.2f)\n", i+1, src.SourceURI, src.Score)
		cmd.Printf("      %s\n", styled(cmd, mutedStyle, excerpt(src.Excerpt, 120)))
	}
}
