package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/doctag/internal/core/domain"
)

var documentCmd = &cobra.Command{
	Use:   "document",
	Short: "Manage stored documents",
	Long:  `List, view, or delete ingested documents.`,
}

var documentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored documents",
	Args:  cobra.NoArgs,
	RunE:  runDocumentList,
}

var documentGetCmd = &cobra.Command{
	Use:   "get [doc-id]",
	Short: "Show document info",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentGet,
}

var documentDeleteCmd = &cobra.Command{
	Use:   "delete [doc-id]",
	Short: "Delete a stored document",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentDelete,
}

// showText is a flag for the get command.
var showText bool

func init() {
	documentGetCmd.Flags().BoolVar(&showText, "text", false, "print the extracted text")

	documentCmd.AddCommand(documentListCmd)
	documentCmd.AddCommand(documentGetCmd)
	documentCmd.AddCommand(documentDeleteCmd)
	rootCmd.AddCommand(documentCmd)
}

func runDocumentList(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return unavailable("document service", nil)
	}

	docs, err := documentService.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	if len(docs) == 0 {
		cmd.Println("No documents stored.")
		return nil
	}

	for i := range docs {
		printRecordLine(cmd, &docs[i])
	}
	cmd.Printf("\nTotal: %d documents\n", len(docs))
	return nil
}

func runDocumentGet(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return unavailable("document service", nil)
	}

	doc, err := documentService.Get(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}

	cmd.Printf("Document: %s\n\n", doc.ID)
	cmd.Printf("  Source:   %s\n", doc.SourceURI)
	cmd.Printf("  Format:   %s\n", doc.Format)
	cmd.Printf("  Category: %s\n", styled(cmd, categoryStyle, doc.Category))
	cmd.Printf("  Created:  %s\n", doc.CreatedAt.Format("2006-01-02 15:04:05"))

	if doc.Details != nil {
		printDetails(cmd, doc.Details)
	}
	if doc.Semantics != nil {
		printSemantics(cmd, doc.Semantics)
	}
	if showText {
		cmd.Println()
		cmd.Println(doc.Text)
	}
	return nil
}

func runDocumentDelete(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return unavailable("document service", nil)
	}

	if err := documentService.Delete(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	cmd.Printf("Deleted document: %s\n", args[0])
	return nil
}

func printDetails(cmd *cobra.Command, details *domain.DocumentDetails) {
	cmd.Println("\n  Details:")
	cmd.Printf("    Dates:   %s\n", joinOrNone(details.Dates))
	cmd.Printf("    Amounts: %s\n", joinOrNone(details.Amounts))
	cmd.Printf("    Names:   %s\n", joinOrNone(details.Names))
}

func printSemantics(cmd *cobra.Command, semantics *domain.DocumentSemantics) {
	cmd.Println("\n  Semantics:")
	cmd.Printf("    Topics:    %s\n", joinOrNone(semantics.Topics))
	cmd.Printf("    Entities:  %s\n", joinOrNone(semantics.Entities))
	cmd.Printf("    Sentiment: %s\n", semantics.Sentiment)
	for _, rel := range semantics.Relationships {
		cmd.Printf("    - %s\n", rel)
	}
}

func joinOrNone(values []string) string {
	if len(values) == 0 {
		return "(none)"
	}
	return strings.Join(values, ", ")
}
