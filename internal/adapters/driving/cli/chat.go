package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/ragdesk/internal/adapters/driving/tui"
	"github.com/custodia-labs/ragdesk/internal/core/domain"
)

var chatPlain bool

// isTerminal reports whether the chat command can start the full-screen UI.
var isTerminal = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with your documents",
	Long: `Starts a conversation grounded in the knowledge base.

On a terminal this opens the interactive UI with chat, search and document
views. When input is piped, or with --plain, questions are read line by line
and answers written to stdout.

Line mode commands:
  /clear  - start a new conversation
  /exit   - leave`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().BoolVar(&chatPlain, "plain", false, "use line mode even on a terminal")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	if chatService == nil || retrievalService == nil {
		return errors.New("chat service not configured")
	}

	if !chatPlain && isTerminal() {
		app, err := tui.NewApp(&tui.Ports{
			Chat:      chatService,
			Retrieval: retrievalService,
			Document:  documentService,
		})
		if err != nil {
			return fmt.Errorf("failed to create TUI: %w", err)
		}
		if err := app.WithContext(commandContext(cmd)).Run(); err != nil {
			return fmt.Errorf("TUI error: %w", err)
		}
		return nil
	}

	return runLineChat(cmd)
}

// runLineChat answers one question per input line, keeping the conversation
// as history for the next question.
func runLineChat(cmd *cobra.Command) error {
	if !chatService.Available() {
		return fmt.Errorf("%w: run 'ragdesk settings llm' to configure a chat model", domain.ErrLLMUnavailable)
	}

	ctx := commandContext(cmd)
	scanner := bufio.NewScanner(cmd.InOrStdin())
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var history []domain.ChatMessage
	for {
		cmd.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())

		switch line {
		case "":
			continue
		case "/exit", "/quit":
			return nil
		case "/clear":
			history = nil
			cmd.Println("(new conversation)")
			continue
		}

		reply, err := chatService.Ask(ctx, history, line)
		if err != nil {
			cmd.Printf("Error: %v\n", err)
			continue
		}
		printReply(cmd, reply)
		cmd.Println()

		history = append(history,
			domain.ChatMessage{Role: domain.RoleUser, Content: line},
			domain.ChatMessage{Role: domain.RoleAssistant, Content: reply.Content},
		)
	}
	cmd.Println()
	return scanner.Err()
}
