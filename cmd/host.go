package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/hgilabs/vibestudio/internal/collab"
	"github.com/hgilabs/vibestudio/internal/config"
	"github.com/hgilabs/vibestudio/internal/generate"
	"github.com/hgilabs/vibestudio/internal/log"
	"github.com/hgilabs/vibestudio/internal/peer"
	"github.com/hgilabs/vibestudio/internal/persist"
	"github.com/hgilabs/vibestudio/internal/studio"
)

// defaultProjectName groups sessions created from the command line.
const defaultProjectName = "default"

// runHost starts a hosting session: full workspace, generation, and
// persistence, accepting guest connections through the relay.
func runHost(parent context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.RequireAPIKey(); err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := log.New(log.Config{Level: log.ParseLevel(cfg.LogLevel), JSON: cfg.LogJSON})

	db, err := persist.Open(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()
	if err := persist.Migrate(db); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}

	store := persist.NewStore(db, logger)
	sess, err := openSession(ctx, store)
	if err != nil {
		return err
	}
	history, err := store.Messages(ctx, sess.ID)
	if err != nil {
		return fmt.Errorf("loading chat history: %w", err)
	}

	gen, err := generate.NewGemini(ctx, generate.GeminiConfig{
		APIKey:      cfg.APIKey,
		Model:       cfg.ModelName,
		Temperature: cfg.Temperature,
	}, logger)
	if err != nil {
		return fmt.Errorf("creating generator: %w", err)
	}

	transport := peer.NewTransport(cfg.RelayURL, logger)

	s := studio.New(studio.Config{
		Role:         collab.RoleHost,
		Transport:    transport,
		Generator:    gen,
		Mirror:       persist.NewMirror(store, sess.ID, cfg.PersistDebounce, logger),
		Persist:      store,
		SessionID:    sess.ID,
		SnapshotPath: cfg.SnapshotPath,
		Logger:       logger,
	})
	defer func() {
		if err := s.Close(); err != nil {
			logger.Warn("shutdown error", "error", err)
		}
	}()

	s.Resume(sess.Artifact, history)

	peerID, err := s.Connect(ctx, "")
	if err != nil {
		// The relay being down only disables collaboration; the
		// workspace still works.
		logger.Warn("relay unreachable, running solo", "error", err)
	} else {
		fmt.Printf("Hosting session. Guests join with: vibestudio join %s\n\n", peerID)
	}

	go s.StartAutosave(ctx, cfg.AutosaveInterval)

	return runREPL(ctx, s)
}

// openSession resumes the default project's latest session, creating
// the project and a fresh session on first run.
func openSession(ctx context.Context, store *persist.Store) (persist.Session, error) {
	projects, err := store.ListProjects(ctx)
	if err != nil {
		return persist.Session{}, fmt.Errorf("listing projects: %w", err)
	}

	var project persist.Project
	for _, p := range projects {
		if p.Name == defaultProjectName {
			project = p
			break
		}
	}
	if project.ID == "" {
		if project, err = store.CreateProject(ctx, defaultProjectName); err != nil {
			return persist.Session{}, fmt.Errorf("creating project: %w", err)
		}
	}

	sess, err := store.CreateOrGetSession(ctx, project.ID, artifactSeed())
	if err != nil {
		return persist.Session{}, fmt.Errorf("opening session: %w", err)
	}
	return sess, nil
}
