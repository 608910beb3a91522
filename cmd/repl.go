package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/hgilabs/vibestudio/internal/artifact"
	"github.com/hgilabs/vibestudio/internal/chat"
	"github.com/hgilabs/vibestudio/internal/studio"
)

// artifactSeed is the stored starting point of a fresh session.
func artifactSeed() artifact.Artifact {
	return artifact.New(artifact.DefaultTitle)
}

// runREPL reads user input until EOF, /quit, or ctx cancellation.
// Chat messages print as they enter the log, local or remote.
func runREPL(ctx context.Context, s *studio.Studio) error {
	s.OnMessage(printMessage)
	s.OnHistory(func(messages []chat.Message) {
		fmt.Println("  -- synced with host --")
		for _, m := range messages {
			printMessage(m)
		}
	})
	s.OnArtifact(func(a artifact.Artifact) {
		fmt.Printf("  -- %s is now v%d (%d bytes) --\n", a.Title, a.Version, len(a.Code))
	})

	for _, m := range s.Messages() {
		printMessage(m)
	}

	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(os.Stdin)
		sc.Buffer(make([]byte, 64*1024), 1024*1024)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- sc.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					if err != nil {
						return fmt.Errorf("reading input: %w", err)
					}
				default:
				}
				return nil
			}
			if strings.TrimSpace(line) == "/quit" {
				return nil
			}
			out, err := s.HandleInput(ctx, line)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return nil
				}
				fmt.Printf("  !! %v\n", err)
				continue
			}
			if out != "" {
				fmt.Println(out)
			}
		}
	}
}

func printMessage(m chat.Message) {
	tag := m.Role
	if m.Role == chat.RoleModel {
		tag = "studio"
	}
	fmt.Printf("[%s] %s\n", tag, m.Content)
}
