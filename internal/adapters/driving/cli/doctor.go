package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check provider connectivity",
	Long: `Validates settings and pings the embedding and chat providers, checking
that the configured models are available. No inference is run.`,
	Args: cobra.NoArgs,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errNotConfigured("settings")
	}

	failed := false
	report := func(name, model string, err error) {
		if err != nil {
			failed = true
			cmd.Printf("  ✗ %-10s %s: %v\n", name, model, err)
			if hint := Hint(err); hint != "" {
				cmd.Printf("    %s\n", hint)
			}
			return
		}
		cmd.Printf("  ✓ %-10s %s\n", name, model)
	}

	cmd.Println("Checking providers...")
	status := settingsService.CheckProviders(cmd.Context())
	report("embedding", status.EmbeddingModel, status.EmbeddingErr)
	report("chat", status.LLMModel, status.LLMErr)

	if err := settingsService.Validate(); err != nil {
		failed = true
		cmd.Printf("  ✗ settings   %v\n", err)
	} else {
		cmd.Println("  ✓ settings")
	}

	if failed {
		return errors.New("some checks failed")
	}
	cmd.Println("All checks passed.")
	return nil
}
