package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/ragnote/internal/core/domain"
)

var (
	askNoRAG         bool
	askNoStream      bool
	askTopK          int
	askMinSimilarity float64
	askShowSources   bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question about your documents",
	Long: `Retrieves the chunks most similar to the question, passes them to the
chat model as context and prints the answer. The exchange is saved to the
chat history.

When writing to a terminal the answer is streamed as it is generated.
Use --no-rag to ask the model directly without retrieval.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().BoolVar(&askNoRAG, "no-rag", false, "answer without retrieving document context")
	askCmd.Flags().BoolVar(&askNoStream, "no-stream", false, "print the answer only once it is complete")
	askCmd.Flags().IntVarP(&askTopK, "top-k", "k", 0, "number of chunks to retrieve (default from settings)")
	askCmd.Flags().Float64Var(&askMinSimilarity, "min-similarity", 0, "minimum similarity in [-1, 1] (default from settings)")
	askCmd.Flags().BoolVar(&askShowSources, "sources", true, "list the chunks the answer was based on")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if chatService == nil {
		return errNotConfigured("chat")
	}

	req := domain.AskRequest{
		Question: strings.Join(args, " "),
		Search:   searchOptions(cmd, askTopK, askMinSimilarity),
	}
	if askNoRAG {
		useRAG := false
		req.UseRAG = &useRAG
	}

	out := cmd.OutOrStdout()
	var answer *domain.Answer
	var err error

	if !askNoStream && isTerminal(out) {
		answer, err = chatService.AskStream(cmd.Context(), req, func(fragment string) error {
			_, werr := io.WriteString(out, fragment)
			return werr
		})
		if answer != nil || err != nil {
			fmt.Fprintln(out)
		}
	} else {
		answer, err = chatService.Ask(cmd.Context(), req)
		if err == nil {
			fmt.Fprintln(out, answer.Turn.BotOutput)
		}
	}
	if err != nil {
		return err
	}

	if askShowSources && len(answer.Sources) > 0 {
		cmd.Println()
		cmd.Println("Sources:")
		for i, src := range answer.Sources {
			cmd.Printf("  [%d] %s #%d (%.2f)\n", i+1, src.FileName, src.Chunk.Position, src.Score)
		}
	}
	return nil
}

// searchOptions builds options from flags, leaving unset flags to settings.
func searchOptions(cmd *cobra.Command, topK int, minSimilarity float64) domain.SearchOptions {
	opts := domain.SearchOptions{TopK: topK}
	if cmd.Flags().Changed("min-similarity") {
		v := minSimilarity
		opts.MinSimilarity = &v
	}
	return opts
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
