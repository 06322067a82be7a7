package cli

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragdesk/internal/connectors/filesystem"
)

var (
	watchScan     bool
	watchDebounce time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch [directory]",
	Short: "Keep a directory in sync with the knowledge base",
	Long: `Ingests files under the directory as they are created or changed and
deletes their documents when the files are removed. Hidden files and
directories are ignored. Runs until interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&watchScan, "scan", true, "ingest existing files before watching")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", filesystem.DefaultDebounce, "quiet period before a changed file is processed")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	docs, err := requireDocuments()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w := filesystem.New(args[0], docs).WithDebounce(watchDebounce)
	defer w.Close()

	if watchScan {
		events, err := w.Scan(ctx)
		if err != nil {
			return err
		}
		for _, ev := range events {
			printWatchEvent(cmd, ev)
		}
	}

	ch, err := w.Watch(ctx)
	if err != nil {
		return err
	}
	cmd.Printf("Watching %s (Ctrl+C to stop)\n", w.Root())

	for ev := range ch {
		printWatchEvent(cmd, ev)
	}
	return nil
}

func printWatchEvent(cmd *cobra.Command, ev filesystem.Event) {
	switch {
	case ev.Err != nil:
		cmd.Printf("  skipped  %s: %v\n", ev.Path, ev.Err)
	case ev.Op == filesystem.OpRemoved:
		cmd.Printf("  removed  %s\n", ev.Path)
	default:
		cmd.Printf("  ingested %s (%s)\n", ev.Path, ev.Document.ID)
	}
}
