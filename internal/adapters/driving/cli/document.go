package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
)

var documentCmd = &cobra.Command{
	Use:   "document",
	Short: "Manage knowledge base documents",
	Long:  `List, view, inspect chunks of, or delete documents in the knowledge base.`,
}

var documentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List documents",
	Args:  cobra.NoArgs,
	RunE:  runDocumentList,
}

var documentGetCmd = &cobra.Command{
	Use:   "get [doc-id]",
	Short: "Show document info",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentGet,
}

var documentContentCmd = &cobra.Command{
	Use:   "content [doc-id]",
	Short: "Print document content",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentContent,
}

var documentChunksCmd = &cobra.Command{
	Use:   "chunks [doc-id]",
	Short: "Show the chunks stored for a document",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentChunks,
}

var documentDeleteCmd = &cobra.Command{
	Use:   "delete [doc-id]",
	Short: "Delete a document and its chunks",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentDelete,
}

// documentStatus filters the list command.
var documentStatus string

func init() {
	documentListCmd.Flags().StringVarP(&documentStatus, "status", "s", "",
		"only show documents with this status (processing, processed, failed)")

	documentCmd.AddCommand(documentListCmd)
	documentCmd.AddCommand(documentGetCmd)
	documentCmd.AddCommand(documentContentCmd)
	documentCmd.AddCommand(documentChunksCmd)
	documentCmd.AddCommand(documentDeleteCmd)
	rootCmd.AddCommand(documentCmd)
}

func runDocumentList(cmd *cobra.Command, _ []string) error {
	docs, err := requireDocuments()
	if err != nil {
		return err
	}

	if documentStatus != "" && !domain.DocumentStatus(documentStatus).IsValid() {
		return fmt.Errorf("unknown status %q", documentStatus)
	}

	list, err := docs.List(commandContext(cmd))
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	shown := 0
	for i := range list {
		if documentStatus != "" && string(list[i].Status) != documentStatus {
			continue
		}
		if shown == 0 {
			cmd.Println("Documents:")
			cmd.Println()
		}
		shown++
		printDocumentSummary(cmd, &list[i])
	}

	if shown == 0 {
		cmd.Println("No documents found.")
		return nil
	}
	cmd.Printf("Total: %d documents\n", shown)
	return nil
}

func printDocumentSummary(cmd *cobra.Command, doc *domain.Document) {
	cmd.Printf("  %s\n", doc.ID)
	cmd.Printf("    Name:   %s\n", doc.Filename)
	cmd.Printf("    Status: %s", doc.Status)
	if doc.Status == domain.StatusProcessed && !doc.Grounded() {
		cmd.Print(" (not searchable)")
	}
	cmd.Println()
	if doc.URL != "" {
		cmd.Printf("    URL:    %s\n", doc.URL)
	}
	cmd.Println()
}

func runDocumentGet(cmd *cobra.Command, args []string) error {
	docs, err := requireDocuments()
	if err != nil {
		return err
	}

	doc, err := docs.Get(commandContext(cmd), args[0])
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}

	cmd.Printf("Document: %s\n\n", doc.ID)
	cmd.Printf("  Name:      %s\n", doc.Filename)
	cmd.Printf("  Type:      %s\n", doc.FileType)
	cmd.Printf("  Source:    %s\n", doc.Source)
	if doc.URL != "" {
		cmd.Printf("  URL:       %s\n", doc.URL)
	}
	cmd.Printf("  Size:      %d bytes\n", doc.Size)
	cmd.Printf("  Status:    %s\n", doc.Status)
	cmd.Printf("  Chunks:    %d (%d embedded)\n", doc.ChunkCount, doc.EmbeddedCount)
	cmd.Printf("  Created:   %s\n", doc.CreatedAt.Format("2006-01-02 15:04:05"))
	if doc.ProcessedAt != nil {
		cmd.Printf("  Processed: %s\n", doc.ProcessedAt.Format("2006-01-02 15:04:05"))
	}
	if doc.LastError != "" {
		cmd.Printf("  Error:     %s\n", doc.LastError)
	}
	return nil
}

func runDocumentContent(cmd *cobra.Command, args []string) error {
	docs, err := requireDocuments()
	if err != nil {
		return err
	}

	doc, err := docs.Get(commandContext(cmd), args[0])
	if err != nil {
		return fmt.Errorf("failed to get document content: %w", err)
	}

	cmd.Println(doc.Content)
	return nil
}

func runDocumentChunks(cmd *cobra.Command, args []string) error {
	docs, err := requireDocuments()
	if err != nil {
		return err
	}

	chunks, err := docs.Chunks(commandContext(cmd), args[0])
	if err != nil {
		return fmt.Errorf("failed to get chunks: %w", err)
	}

	if len(chunks) == 0 {
		cmd.Println("No chunks stored for this document.")
		return nil
	}

	for i := range chunks {
		embedded := "embedded"
		if !domain.Rankable(chunks[i].Embedding) {
			embedded = "not embedded"
		}
		cmd.Printf("  [%d] %d-%d (%s)\n", chunks[i].Position, chunks[i].StartIndex, chunks[i].EndIndex, embedded)
		cmd.Printf("      %s\n\n", truncateText(chunks[i].Content, 120))
	}
	cmd.Printf("Total: %d chunks\n", len(chunks))
	return nil
}

func runDocumentDelete(cmd *cobra.Command, args []string) error {
	docs, err := requireDocuments()
	if err != nil {
		return err
	}

	if err := docs.Delete(commandContext(cmd), args[0]); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	cmd.Printf("Document %s deleted.\n", args[0])
	return nil
}

// truncateText shortens s to at most n runes on a single line.
func truncateText(s string, n int) string {
	runes := []rune(s)
	for i, r := range runes {
		if r == '\n' || r == '\r' {
			runes[i] = ' '
		}
	}
	if len(runes) <= n {
		return string(runes)
	}
	return string(runes[:n]) + "..."
}
