package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shophub/supportflow/internal/ingest"
	"github.com/shophub/supportflow/internal/kb"
	"github.com/shophub/supportflow/internal/logging"
)

var (
	ingestDir   string
	ingestPurge bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Load policy documents into the knowledge base",
	Long: `Scans a directory for .txt and .md documents, splits them into
overlapping chunks, embeds each chunk, and stores the result in the
knowledge base. Re-ingesting a document replaces its previous chunks.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		database, err := openDatabase(cfg)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer database.Close()

		embedder, err := buildEmbedder(cfg)
		if err != nil {
			return err
		}

		pipeline := ingest.NewPipeline(embedder, kb.NewStore(database), logging.NewLogger("ingest"))
		pipeline.Progress = true
		pipeline.Splitter = ingest.NewSplitter(cfg.Ingest.ChunkSize, cfg.Ingest.Overlap)

		stats, err := pipeline.Run(cmd.Context(), ingestDir, cfg.Ingest.Include, cfg.Ingest.Exclude, ingestPurge)
		if err != nil {
			return err
		}

		fmt.Printf("Ingested %d documents (%d chunks)", stats.Documents, stats.Chunks)
		if stats.Purged > 0 {
			fmt.Printf(", purged %d stale chunks", stats.Purged)
		}
		fmt.Println()
		return nil
	},
}

func init() {
	ingestCmd.Flags().StringVarP(&ingestDir, "dir", "d", "knowledge", "directory containing policy documents")
	ingestCmd.Flags().BoolVar(&ingestPurge, "purge", false, "empty the knowledge base before ingesting")
	rootCmd.AddCommand(ingestCmd)
}
