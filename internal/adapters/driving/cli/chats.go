package cli

import (
	"github.com/spf13/cobra"
)

var chatsLimit int

var chatsCmd = &cobra.Command{
	Use:   "chats",
	Short: "Show recent chat history",
	Args:  cobra.NoArgs,
	RunE:  runChats,
}

func init() {
	chatsCmd.Flags().IntVarP(&chatsLimit, "limit", "n", 10, "number of most recent exchanges to show")
	rootCmd.AddCommand(chatsCmd)
}

func runChats(cmd *cobra.Command, _ []string) error {
	if chatService == nil {
		return errNotConfigured("chat")
	}

	turns, err := chatService.History(cmd.Context(), chatsLimit)
	if err != nil {
		return err
	}

	if len(turns) == 0 {
		cmd.Println("No chat history yet.")
		return nil
	}

	for _, t := range turns {
		cmd.Printf("[%s]\n", t.Timestamp.Local().Format(timeLayout))
		cmd.Printf("  You: %s\n", t.UserInput)
		cmd.Printf("  Bot: %s\n", t.BotOutput)
		cmd.Println()
	}
	return nil
}
