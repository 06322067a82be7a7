package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
)

var (
	searchLimit int
	searchJSON  bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the knowledge base",
	Long: `Embeds the query and ranks stored chunks by cosine similarity.
At most one chunk is returned per document.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 5, "maximum number of results")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := args[0]

	if retrievalService == nil {
		return errors.New("retrieval service not configured")
	}

	results, err := retrievalService.Retrieve(commandContext(cmd), query, searchLimit)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputSearchJSON(cmd, results)
	}

	return outputSearchTable(cmd, results)
}

// searchResultJSON is the --json output shape.
type searchResultJSON struct {
	DocumentID string  `json:"document_id"`
	Filename   string  `json:"filename"`
	URL        string  `json:"url,omitempty"`
	Similarity float64 `json:"similarity"`
	Relevance  int     `json:"relevance"`
	Content    string  `json:"content"`
}

func outputSearchJSON(cmd *cobra.Command, results []domain.SearchResult) error {
	out := make([]searchResultJSON, len(results))
	for i := range results {
		out[i] = searchResultJSON{
			DocumentID: results[i].Document.ID,
			Filename:   results[i].Document.Filename,
			URL:        results[i].Document.URL,
			Similarity: results[i].Similarity,
			Relevance:  domain.Relevance(results[i].Similarity),
			Content:    results[i].Chunk.Content,
		}
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchTable(cmd *cobra.Command, results []domain.SearchResult) error {
	if len(results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println("Results:")
	cmd.Println()
	for i := range results {
		// Format: [N] Filename (relevance%)
		cmd.Printf("  [%d] %s (%d%%)\n", i+1, results[i].Document.Filename, domain.Relevance(results[i].Similarity))
		if results[i].Document.URL != "" {
			cmd.Printf("      %s\n", results[i].Document.URL)
		}
		cmd.Printf("      %s\n", truncateText(results[i].Chunk.Content, 160))
		cmd.Println()
	}
	return nil
}
