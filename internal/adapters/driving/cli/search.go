package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/doctag/internal/core/ports/driving"
)

var (
	searchDocument string
	searchLimit    int
	searchJSON     bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Find stored documents similar to a query",
	Long: `Lists the stored documents whose passages are most similar to the query,
best match first. No language model is called.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringVarP(&searchDocument, "document", "d", "", "search this document ID only")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 5, "maximum number of documents")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if corpusService == nil {
		return unavailable("search", corpusErr)
	}

	results, err := corpusService.Search(cmd.Context(), args[0], driving.SearchOptions{
		DocumentID: searchDocument,
		Limit:      searchLimit,
	})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		data, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal results: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(results) == 0 {
		cmd.Println("No documents found.")
		return nil
	}
	for i, r := range results {
		cmd.Printf("%d. %s  %s (%.2f)\n", i+1, r.SourceURI, styled(cmd, categoryStyle, r.Category), r.Score)
		cmd.Printf("   %s\n", styled(cmd, mutedStyle, "ID: "+r.DocumentID))
		cmd.Printf("   %s\n", excerpt(r.Excerpt, 120))
	}
	return nil
}
