package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragnote/internal/core/domain"
)

var ingestRecursive bool

var ingestCmd = &cobra.Command{
	Use:   "ingest [files...]",
	Short: "Add documents to the knowledge base",
	Long: `Extracts text from each file, splits it into chunks, embeds the chunks
and stores them. Each file is processed on its own: a file that fails is
reported and the rest are still ingested.

Directories are walked with --recursive, picking up supported file types.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().BoolVarP(&ingestRecursive, "recursive", "r", false, "ingest supported files found in directories")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestionService == nil {
		return errNotConfigured("ingestion")
	}

	paths, err := collectPaths(args, ingestRecursive, ingestionService.SupportedExtensions())
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return errors.New("no supported files found")
	}

	// Files that cannot be read are reported alongside ingestion results.
	var files []domain.UploadedFile
	var readFailures []domain.IngestResult
	for _, p := range paths {
		content, err := os.ReadFile(p)
		if err != nil {
			readFailures = append(readFailures, domain.IngestResult{FileName: filepath.Base(p), Err: err})
			continue
		}
		files = append(files, domain.UploadedFile{Name: filepath.Base(p), Content: content})
	}

	var results []domain.IngestResult
	if len(files) > 0 {
		results = ingestionService.IngestFiles(cmd.Context(), files)
	}
	results = append(results, readFailures...)

	failed := 0
	chunks := 0
	for _, r := range results {
		if r.OK() {
			chunks += r.ChunkCount
			cmd.Printf("  ✓ %s: %d chunks (%s)\n", r.FileName, r.ChunkCount, r.DocumentID)
			continue
		}
		failed++
		cmd.Printf("  ✗ %s: %v\n", r.FileName, r.Err)
	}

	cmd.Println()
	cmd.Printf("Ingested %d of %d files, %d chunks.\n", len(results)-failed, len(results), chunks)

	if err := cmd.Context().Err(); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(results))
	}
	return nil
}

// collectPaths expands directory arguments when recursive is set. Explicit
// file arguments are always kept so unsupported types are reported.
func collectPaths(args []string, recursive bool, extensions []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			// Reported per file by the read step.
			paths = append(paths, arg)
			continue
		}
		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}
		if !recursive {
			return nil, fmt.Errorf("%s is a directory (use --recursive)", arg)
		}

		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != arg && strings.HasPrefix(d.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if slices.Contains(extensions, strings.ToLower(filepath.Ext(path))) {
				paths = append(paths, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking %s: %w", arg, err)
		}
	}
	return paths, nil
}
