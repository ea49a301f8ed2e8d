package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var classifyText bool

var classifyCmd = &cobra.Command{
	Use:   "classify [path|url]",
	Short: "Classify a document",
	Long: `Extracts the text of a local file or http(s) URL and classifies it into
exactly one category of the configured taxonomy. Nothing is stored.

With --text the argument is classified as raw text instead.`,
	Args: cobra.ExactArgs(1),
	RunE: runClassify,
}

func init() {
	classifyCmd.Flags().BoolVar(&classifyText, "text", false, "classify the argument as raw text")
	rootCmd.AddCommand(classifyCmd)
}

func runClassify(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if classifyText {
		if classifierService == nil {
			return unavailable("classifier", classifierErr)
		}
		category, err := classifierService.Classify(ctx, args[0], nil)
		if err != nil {
			return fmt.Errorf("classification failed: %w", err)
		}
		cmd.Println(styled(cmd, categoryStyle, category.Name))
		return nil
	}

	if ingestService == nil {
		return unavailable("classifier", classifierErr)
	}
	category, err := ingestService.ClassifyURI(ctx, args[0])
	if err != nil {
		return fmt.Errorf("classification failed: %w", err)
	}
	cmd.Println(styled(cmd, categoryStyle, category.Name))
	return nil
}
