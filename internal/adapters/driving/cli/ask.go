package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question answered from the knowledge base",
	Long: `Retrieves relevant passages and asks the configured chat model to answer
using them. Sources are listed after the answer.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if chatService == nil {
		return errors.New("chat service not configured")
	}
	if !chatService.Available() {
		return fmt.Errorf("%w: run 'ragdesk settings llm' to configure a chat model", domain.ErrLLMUnavailable)
	}

	reply, err := chatService.Ask(commandContext(cmd), nil, strings.Join(args, " "))
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	printReply(cmd, reply)
	return nil
}

func printReply(cmd *cobra.Command, reply *domain.ChatReply) {
	cmd.Println(reply.Content)
	if !reply.Grounded {
		cmd.Println()
		cmd.Println("(no matching documents; answered from general knowledge)")
		return
	}
	cmd.Println()
	cmd.Println("Sources:")
	for i, src := range reply.Sources {
		cmd.Printf("  [%d] %s (%d%%)\n", i+1, src.Filename, src.Relevance)
	}
}
