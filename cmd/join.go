package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hgilabs/vibestudio/internal/collab"
	"github.com/hgilabs/vibestudio/internal/config"
	"github.com/hgilabs/vibestudio/internal/log"
	"github.com/hgilabs/vibestudio/internal/peer"
	"github.com/hgilabs/vibestudio/internal/studio"
)

var joinCmd = &cobra.Command{
	Use:   "join <host-peer-id>",
	Short: "Join a hosted session as a guest",
	Long: `Join connects to a running host through the relay and mirrors its
workspace. Prompts you type are run by the host's model; everything
else is read-only on your side.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runJoin(cmd.Context(), args[0])
	},
}

func init() {
	rootCmd.AddCommand(joinCmd)
}

// runJoin starts a guest session: a mirror of the host's workspace
// with prompts forwarded across the wire. No model, no database.
func runJoin(parent context.Context, hostPeerID string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx, cancel := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := log.New(log.Config{Level: log.ParseLevel(cfg.LogLevel), JSON: cfg.LogJSON})

	s := studio.New(studio.Config{
		Role:      collab.RoleGuest,
		Transport: peer.NewTransport(cfg.RelayURL, logger),
		Logger:    logger,
	})
	defer func() {
		if err := s.Close(); err != nil {
			logger.Warn("shutdown error", "error", err)
		}
	}()

	peerID, err := s.Connect(ctx, hostPeerID)
	if err != nil {
		return fmt.Errorf("connecting to relay: %w", err)
	}
	fmt.Printf("Joined as %s. Waiting for the host's state...\n\n", peerID)

	return runREPL(ctx, s)
}
