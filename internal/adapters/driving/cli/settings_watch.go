package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragnote/internal/logger"
)

// watchSettings checks the settings each time they are edited on disk while
// a long-running command is up. The returned stop func ends the watch and
// waits for it.
func watchSettings(cmd *cobra.Command) (stop func()) {
	if settingsWatcher == nil || settingsService == nil {
		return func() {}
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	done := make(chan struct{})
	out := cmd.ErrOrStderr()

	go func() {
		defer close(done)
		err := settingsWatcher.Run(ctx, func(paths []string) {
			logger.Info("Settings changed: %s", strings.Join(paths, ", "))
			if err := settingsService.Validate(); err != nil {
				fmt.Fprintf(out, "Warning: edited settings are invalid and will fail the next request: %v\n", err)
				return
			}
			logger.Debug("Edited settings are valid")
		})
		if err != nil {
			logger.Warn("Settings watcher stopped: %v", err)
		}
	}()

	return func() {
		cancel()
		<-done
	}
}
