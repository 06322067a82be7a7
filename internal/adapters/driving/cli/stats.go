package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show knowledge base statistics",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, _ []string) error {
	docs, err := requireDocuments()
	if err != nil {
		return err
	}

	stats, err := docs.Stats(commandContext(cmd))
	if err != nil {
		return fmt.Errorf("failed to get stats: %w", err)
	}

	cmd.Println("Knowledge Base")
	cmd.Println("==============")
	cmd.Printf("  Documents:  %d\n", stats.Documents)
	cmd.Printf("  Processed:  %d\n", stats.Processed)
	cmd.Printf("  Processing: %d\n", stats.Processing)
	cmd.Printf("  Failed:     %d\n", stats.Failed)
	cmd.Printf("  Chunks:     %d\n", stats.Chunks)
	cmd.Printf("  Size:       %.1f MB\n", stats.TotalSizeMB())
	return nil
}
