package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var acquireWait bool

var acquireCmd = &cobra.Command{
	Use:   "acquire [query]",
	Short: "Search the web and add the results",
	Long: `Runs a web search for the query and adds each result page to the
knowledge base. Pages are fetched and embedded in the background.

Requires search.provider = "serper" and SERPER_API_KEY to be set.`,
	Args: cobra.ExactArgs(1),
	RunE: runAcquire,
}

func init() {
	acquireCmd.Flags().BoolVarP(&acquireWait, "wait", "w", true, "wait for pages to be fetched and embedded")
	rootCmd.AddCommand(acquireCmd)
}

func runAcquire(cmd *cobra.Command, args []string) error {
	docs, err := requireDocuments()
	if err != nil {
		return err
	}

	acquired, err := docs.AcquireFromWeb(commandContext(cmd), args[0])
	if err != nil {
		return fmt.Errorf("acquire failed: %w", err)
	}

	if len(acquired) == 0 {
		cmd.Println("No web results found.")
		return nil
	}

	ids := make([]string, len(acquired))
	for i := range acquired {
		ids[i] = acquired[i].ID
		cmd.Printf("  %s\n      %s\n", acquired[i].Filename, acquired[i].URL)
	}

	if acquireWait {
		cmd.Println("Fetching pages...")
		docs.Wait()
		reportDocuments(cmd, ids)
	}
	return nil
}
