package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/hgilabs/vibestudio/internal/config"
	"github.com/hgilabs/vibestudio/internal/log"
	"github.com/hgilabs/vibestudio/internal/peer"
)

// Relay server timeouts. Read/write timeouts stay unset: websocket
// connections are long-lived by design.
const (
	relayReadHeaderTimeout = 10 * time.Second
	relayIdleTimeout       = 5 * time.Minute
	relayShutdownTimeout   = 10 * time.Second
)

var relayCmd = &cobra.Command{
	Use:   "relay",
	Short: "Run the peer relay server",
	Long: `Relay runs the websocket server hosts and guests connect through. It
allocates peer ids and forwards frames; it never inspects session
payloads.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRelay(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(relayCmd)
}

func runRelay(parent context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx, cancel := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := log.New(log.Config{Level: log.ParseLevel(cfg.LogLevel), JSON: cfg.LogJSON})

	mux := http.NewServeMux()
	mux.Handle("/relay", peer.NewRelay(logger))

	srv := &http.Server{
		Addr:              cfg.RelayAddr,
		Handler:           mux,
		ReadHeaderTimeout: relayReadHeaderTimeout,
		IdleTimeout:       relayIdleTimeout,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("relay listening", "addr", cfg.RelayAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("relay server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), relayShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("relay shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}
