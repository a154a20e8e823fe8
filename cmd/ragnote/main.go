// Command ragnote ingests local documents and answers questions about them.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/custodia-labs/ragnote/internal/adapters/driven/ai"
	"github.com/custodia-labs/ragnote/internal/adapters/driven/config/env"
	"github.com/custodia-labs/ragnote/internal/adapters/driven/config/file"
	"github.com/custodia-labs/ragnote/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/ragnote/internal/adapters/driving/cli"
	"github.com/custodia-labs/ragnote/internal/core/services"
	"github.com/custodia-labs/ragnote/internal/extractors"
)

// version is set by the linker: -ldflags "-X main.version=v1.2.3".
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli.SetVersion(version)
	cli.SetBootstrapper(bootstrap)

	if err := cli.Execute(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if hint := cli.Hint(err); hint != "" {
			fmt.Fprintln(os.Stderr, hint)
		}
		return 1
	}
	return 0
}

// bootstrap wires the services for dataDir.
func bootstrap(dataDir string) (*cli.Services, error) {
	store, err := sqlite.NewStore(dataDir)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	svcs, factory, err := wire(dataDir, store)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	svcs.Closer = closers{factory, store}
	return svcs, nil
}

// wire builds the service graph on top of an open store.
func wire(dataDir string, store *sqlite.Store) (*cli.Services, *ai.Factory, error) {
	fileConfig, err := file.NewConfigStore(dataDir)
	if err != nil {
		return nil, nil, fmt.Errorf("opening config: %w", err)
	}
	config, err := env.NewOverlay(fileConfig, ".env")
	if err != nil {
		return nil, nil, fmt.Errorf("reading environment: %w", err)
	}
	promptDir := filepath.Join(dataDir, "prompts")
	prompts, err := file.NewPromptStore(promptDir)
	if err != nil {
		return nil, nil, fmt.Errorf("opening prompts: %w", err)
	}

	factory := ai.NewFactory(ai.Options{})
	docStore := store.DocumentStore()
	chatStore := store.ChatStore()

	settings := services.NewSettingsService(config, ai.NewConfigValidator(), prompts)
	embedder := services.NewEmbedder(settings, factory, docStore)
	search := services.NewSearchService(settings, embedder, services.NewRetriever(docStore), docStore)

	return &cli.Services{
		Ingestion: services.NewIngestionService(settings, extractors.NewDefaultRegistry(), embedder, docStore),
		Search:    search,
		Chat:      services.NewChatService(settings, factory, search, chatStore, prompts),
		Documents: services.NewDocumentService(docStore, chatStore),
		Settings:  settings,
		Watcher:   file.NewWatcher(fileConfig.Path(), promptDir, 0),
	}, factory, nil
}

// closers closes each element in order and joins the errors.
type closers []interface{ Close() error }

func (c closers) Close() error {
	var errs []error
	for _, cl := range c {
		if err := cl.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
