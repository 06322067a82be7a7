package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragdesk/internal/adapters/driving/httpapi"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Serves the knowledge base over HTTP under /api: document upload, listing
and deletion, web acquisition, search, chat and statistics.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from settings, :5000)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	addr := serveAddr
	var maxUpload int64
	if appSettings != nil {
		if addr == "" {
			addr = appSettings.Server.Addr
		}
		maxUpload = appSettings.Server.MaxUploadBytes
	}
	if addr == "" {
		addr = ":5000"
	}

	server, err := httpapi.NewServer(&httpapi.Ports{
		Document:  documentService,
		Retrieval: retrievalService,
		Chat:      chatService,
	}, maxUpload)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(cmd.OutOrStdout(), "HTTP API listening on %s\n", addr)
	return server.Run(ctx, addr)
}
