package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Manage the vector index",
}

var indexClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear the vector index",
	Long: `Removes every stored embedding. Documents stay stored and are embedded
again by the next ask or search, for example after changing the embedding model.`,
	Args: cobra.NoArgs,
	RunE: runIndexClear,
}

func init() {
	indexCmd.AddCommand(indexClearCmd)
	rootCmd.AddCommand(indexCmd)
}

func runIndexClear(cmd *cobra.Command, _ []string) error {
	if corpusService == nil {
		return unavailable("vector index", corpusErr)
	}
	if err := corpusService.Reindex(cmd.Context()); err != nil {
		return fmt.Errorf("failed to clear index: %w", err)
	}
	cmd.Println("Vector index cleared.")
	return nil
}
