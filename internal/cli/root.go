// Package cli implements ingestctl, which runs the ingestion pipeline from a
// workstation against local files or Cloud Storage.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/Lllllllleong/documentingestion/internal/gcp"
	"github.com/Lllllllleong/documentingestion/internal/models"
	"github.com/Lllllllleong/documentingestion/internal/pipeline"
	"github.com/Lllllllleong/documentingestion/internal/sqlindex"
)

const (
	backendSQLite    = "sqlite"
	backendFirestore = "firestore"
)

var (
	indexBackend string
	sqlitePath   string
	indexName    string
	projectID    string
	verbose      bool
)

var rootCmd = &cobra.Command{
	Use:           "ingestctl",
	Short:         "Extract text from stored documents and index it",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
}

func init() {
	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	rootCmd.PersistentFlags().StringVar(&indexBackend, "index", backendSQLite, "Index backend: sqlite or firestore")
	rootCmd.PersistentFlags().StringVar(&sqlitePath, "sqlite-path", gcp.GetEnv("SQLITE_PATH", "ingest.db"), "SQLite database file for the sqlite backend")
	rootCmd.PersistentFlags().StringVar(&indexName, "index-name", gcp.GetEnv("INDEX_NAME", pipeline.DefaultIndexName), "Index (collection) name")
	rootCmd.PersistentFlags().StringVar(&projectID, "project", gcp.GetEnv("PROJECT_ID", ""), "Google Cloud project ID")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

// Execute runs the root command. SIGINT or SIGTERM cancels the running batch.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

// documentIndex is an index the CLI can both write and read back.
type documentIndex interface {
	pipeline.Index
	Get(ctx context.Context, index, id string) (models.DocumentRecord, bool, error)
	Count(ctx context.Context, index string) (int, error)
}

// openIndex returns the selected backend and a function releasing it.
func openIndex(ctx context.Context) (documentIndex, func() error, error) {
	switch indexBackend {
	case backendSQLite:
		idx, err := sqlindex.Open(sqlitePath)
		if err != nil {
			return nil, nil, err
		}
		return idx, idx.Close, nil
	case backendFirestore:
		if projectID == "" {
			return nil, nil, fmt.Errorf("--project (or PROJECT_ID) is required for the firestore backend")
		}
		client, err := gcp.NewFirestoreClient(ctx, projectID)
		if err != nil {
			return nil, nil, err
		}
		return gcp.NewFirestoreIndex(client), client.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown index backend %q", indexBackend)
	}
}
