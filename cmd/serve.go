package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/shophub/supportflow/internal/config"
	"github.com/shophub/supportflow/internal/kb"
	"github.com/shophub/supportflow/internal/logging"
	"github.com/shophub/supportflow/internal/memory"
	"github.com/shophub/supportflow/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the support agent HTTP server",
	Long:  `Starts the supportflow server with the SSE chat stream, WebSocket chat, knowledge search, and thread inspection APIs.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if servePort > 0 {
			cfg.Server.Port = servePort
		}

		database, err := openDatabase(cfg)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer database.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		ag, retriever, memStore, err := buildAgent(ctx, cfg, database)
		if err != nil {
			return err
		}

		srv := server.New(server.Config{
			Port:         cfg.Server.Port,
			AllowAll:     cfg.Server.AllowAll,
			HistoryLimit: cfg.Memory.HistoryLimit,
		}, ag, memStore, retriever, kb.NewStore(database), logging.NewLogger("server"))

		if cfg.Memory.ThreadTTLHours > 0 {
			go runCleanupSweep(ctx, cfg, memStore)
		}

		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				fmt.Fprintf(os.Stderr, "shutdown: %v\n", err)
			}
		}()

		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	},
}

// runCleanupSweep periodically removes threads idle longer than the
// configured TTL.
func runCleanupSweep(ctx context.Context, cfg *config.Config, store *memory.Store) {
	log := logging.NewLogger("cleanup")
	interval := time.Duration(cfg.Memory.CleanupIntervalMinutes) * time.Minute
	if interval <= 0 {
		interval = time.Hour
	}
	ttl := time.Duration(cfg.Memory.ThreadTTLHours) * time.Hour

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := store.CleanupOlderThan(ctx, ttl)
			if err != nil {
				log.Error().Err(err).Msg("thread cleanup failed")
				continue
			}
			if removed > 0 {
				log.Info().Int64("removed", removed).Msg("expired threads removed")
			}
		}
	}
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "override the configured HTTP port")
	rootCmd.AddCommand(serveCmd)
}
