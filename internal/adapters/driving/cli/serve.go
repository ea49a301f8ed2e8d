package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/doctag/internal/adapters/driving/httpapi"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start the HTTP API server.

Request bodies must be sent as application/json. URLs must be http(s);
local paths are rejected.

Endpoints:
  POST   /classify        {"url": ...} or {"text": ...}
  POST   /deepsearch      {"question": ..., "document_id": ...}
  GET    /search?q=...&limit=5
  POST   /search          {"query": ..., "document_id": ..., "limit": 5}
  POST   /documents       {"url": ..., "details": true, "semantics": true}
  GET    /documents
  GET    /documents/{id}
  DELETE /documents/{id}
  GET    /healthz`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "127.0.0.1:8000", "listen address")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	server, err := httpapi.NewServer(&httpapi.Ports{
		Classifier:    classifierService,
		Ingest:        remoteIngest,
		Corpus:        corpusService,
		Documents:     documentService,
		ClassifierErr: classifierErr,
		CorpusErr:     corpusErr,
	})
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if err := server.Start(serveAddr); err != nil {
		return err
	}
	cmd.Printf("HTTP API listening on http://%s\n", server.Addr())

	<-ctx.Done()
	return server.Stop()
}
