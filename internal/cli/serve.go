package cli

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/dinesync/dinesync/internal/simserver"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the development realtime server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		addr := fmt.Sprintf(":%d", cfg.ServePort)
		srv := &http.Server{
			Addr:    addr,
			Handler: simserver.New(cfg).Handler(),
		}

		go func() {
			log.Info().Str("module", "serve").Str("addr", addr).Msg("dev realtime server started")
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error().Err(err).Str("module", "serve").Msg("server error")
			}
		}()

		<-ctx.Done()
		log.Info().Str("module", "serve").Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("forced shutdown: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
