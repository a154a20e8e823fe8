package cli

import (
	"net"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragnote/internal/adapters/driving/httpapi"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start a JSON HTTP API over the knowledge base.

Routes:
  GET    /health
  POST   /documents            multipart upload, field "files"
  GET    /documents
  GET    /documents/{id}
  GET    /documents/{id}/chunks
  DELETE /documents/{id}
  POST   /search
  POST   /ask                  set "stream": true for server-sent events
  GET    /chats?limit=N
  GET    /stats

The server stops gracefully on interrupt.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "127.0.0.1:8080", "listen address")
	serveCmd.Flags().Int64("max-upload-mb", httpapi.DefaultMaxUploadBytes>>20, "maximum upload request size in MiB")
	serveCmd.Flags().Duration("request-timeout", 2*time.Minute, "timeout for non-streaming requests")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if ingestionService == nil || searchService == nil || chatService == nil || documentService == nil {
		return errNotConfigured("knowledge base")
	}

	addr, _ := cmd.Flags().GetString("addr")
	maxMB, _ := cmd.Flags().GetInt64("max-upload-mb")
	timeout, _ := cmd.Flags().GetDuration("request-timeout")

	router := httpapi.NewRouter(&httpapi.Ports{
		Ingestion: ingestionService,
		Search:    searchService,
		Chat:      chatService,
		Documents: documentService,
	}, httpapi.Options{
		MaxUploadBytes: maxMB << 20,
		RequestTimeout: timeout,
	})

	stop := watchSettings(cmd)
	defer stop()

	return httpapi.Serve(cmd.Context(), addr, router, func(a net.Addr) {
		cmd.Printf("Listening on http://%s\n", a)
	})
}
