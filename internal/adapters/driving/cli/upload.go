package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
)

var uploadWait bool

var uploadCmd = &cobra.Command{
	Use:   "upload [file...]",
	Short: "Add files to the knowledge base",
	Long: `Extracts text from each file and adds it to the knowledge base.

Supported formats: plain text, markdown, HTML, PDF and Word (.docx).
Embedding runs in the background; use --wait to block until it finishes.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runUpload,
}

func init() {
	uploadCmd.Flags().BoolVarP(&uploadWait, "wait", "w", true, "wait for embedding to finish")
	rootCmd.AddCommand(uploadCmd)
}

func runUpload(cmd *cobra.Command, args []string) error {
	docs, err := requireDocuments()
	if err != nil {
		return err
	}

	ctx := commandContext(cmd)
	ids := make([]string, 0, len(args))
	failed := 0
	for _, path := range args {
		doc, err := docs.IngestFile(ctx, path)
		if err != nil {
			cmd.PrintErrf("  %s: %v\n", path, err)
			failed++
			continue
		}
		cmd.Printf("  %s -> %s\n", path, doc.ID)
		ids = append(ids, doc.ID)
	}

	if uploadWait && len(ids) > 0 {
		cmd.Println("Embedding...")
		docs.Wait()
		reportDocuments(cmd, ids)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files could not be added", failed, len(args))
	}
	return nil
}

// reportDocuments prints the final status of each document.
func reportDocuments(cmd *cobra.Command, ids []string) {
	for _, id := range ids {
		doc, err := documentService.Get(commandContext(cmd), id)
		if err != nil {
			cmd.Printf("  %s: %v\n", id, err)
			continue
		}
		switch {
		case doc.Status == domain.StatusFailed:
			cmd.Printf("  %s: failed: %s\n", doc.Filename, doc.LastError)
		case doc.Grounded():
			cmd.Printf("  %s: %d/%d chunks embedded\n", doc.Filename, doc.EmbeddedCount, doc.ChunkCount)
		default:
			cmd.Printf("  %s: stored, but no chunks could be embedded\n", doc.Filename)
		}
	}
}
