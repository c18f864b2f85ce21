package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shophub/supportflow/internal/kb"
	"github.com/shophub/supportflow/internal/memory"
	"github.com/shophub/supportflow/internal/mcp"
	"github.com/shophub/supportflow/internal/shop"
	"github.com/shophub/supportflow/internal/tools"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server on stdio",
	Long: `Exposes knowledge base search and the store tools over the Model
Context Protocol so external AI assistants can use them. Communicates
over stdin/stdout; all logging goes to stderr.`,
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
		kbStore := kb.NewStore(database)
		index, err := buildIndex(cmd.Context(), cfg, kbStore)
		if err != nil {
			return fmt.Errorf("building similarity index: %w", err)
		}
		retriever := kb.NewRetriever(embedder, index)

		registry := tools.NewEcommerceRegistry(tools.Deps{
			Shop:      shop.NewStore(database),
			Retriever: retriever,
			Memory:    memory.NewStore(database),
		})

		return mcp.NewServer(retriever, registry).Serve()
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
