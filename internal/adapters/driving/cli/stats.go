package cli

import (
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
	if documentService == nil {
		return errNotConfigured("document")
	}

	stats, err := documentService.Stats(cmd.Context())
	if err != nil {
		return err
	}

	cmd.Printf("Documents:  %d\n", stats.Documents)
	cmd.Printf("Chunks:     %d\n", stats.Chunks)
	cmd.Printf("Chat turns: %d\n", stats.ChatTurns)
	if stats.Dimensions > 0 {
		cmd.Printf("Dimensions: %d\n", stats.Dimensions)
	} else {
		cmd.Println("Dimensions: (none stored yet)")
	}
	return nil
}
