package studio

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/hgilabs/vibestudio/internal/collab"
)

// ErrUnknownCommand indicates a slash command the studio does not know.
var ErrUnknownCommand = errors.New("unknown command")

// errHostOnly is the feedback for guests invoking host-side commands.
const errHostOnly = "Only the host can do that."

const helpText = `Commands:
  /undo              step back one version
  /redo              reapply an undone version
  /history           list generated versions
  /restore <n>       adopt version n from the history
  /title <text>      rename the app
  /audit             run an ethics and accessibility review
  /publish           publish a read-only copy
  /save              snapshot the current app to disk
  /load              restore the app from the snapshot
  /new               reset the workspace to a blank app
  /peers             show peer id and open connections
  /help              this text
Anything else is sent to the model as a prompt.`

// HandleInput runs one line of user input: slash commands act on the
// session, everything else becomes a prompt. The returned string is
// local feedback; results that matter to both peers arrive as chat
// messages instead.
func (s *Studio) HandleInput(ctx context.Context, line string) (string, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return "", nil
	}
	if !strings.HasPrefix(line, "/") {
		return "", s.SubmitPrompt(ctx, line, "")
	}

	cmd, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	switch cmd {
	case "/help":
		return helpText, nil

	case "/peers":
		return fmt.Sprintf("peer id: %s, open connections: %d", s.PeerID(), s.PeerCount()), nil
	}

	// Everything below mutates the workspace or reads the host's
	// private state; guests hold a mirror, not the workspace itself.
	if s.role == collab.RoleGuest {
		return errHostOnly, nil
	}

	switch cmd {
	case "/undo":
		a, ok := s.Undo()
		if !ok {
			return "Nothing to undo.", nil
		}
		return fmt.Sprintf("Back to v%d.", a.Version), nil

	case "/redo":
		a, ok := s.Redo()
		if !ok {
			return "Nothing to redo.", nil
		}
		return fmt.Sprintf("Forward to v%d.", a.Version), nil

	case "/history":
		history := s.History()
		if len(history) == 0 {
			return "No versions yet.", nil
		}
		var b strings.Builder
		for _, a := range history {
			fmt.Fprintf(&b, "v%d\t%s\t%s\n", a.Version, a.Title, a.Timestamp.Format("15:04:05"))
		}
		return strings.TrimRight(b.String(), "\n"), nil

	case "/restore":
		n, err := strconv.Atoi(rest)
		if err != nil {
			return "", fmt.Errorf("restore: %q is not a version number", rest)
		}
		for _, a := range s.History() {
			if a.Version == n {
				s.RestoreVersion(a)
				return "", nil
			}
		}
		return "", fmt.Errorf("restore: no version %d in history", n)

	case "/title":
		if rest == "" {
			return "", errors.New("title: missing new title")
		}
		a := s.Rename(rest)
		return fmt.Sprintf("Title set to %q.", a.Title), nil

	case "/audit":
		if err := s.Audit(ctx); err != nil {
			return "", err
		}
		return "", nil

	case "/publish":
		slug, err := s.Publish(ctx)
		if err != nil {
			return "", err
		}
		return "Published: " + slug, nil

	case "/save":
		if err := s.SaveSnapshot(); err != nil {
			return "", err
		}
		return "Snapshot saved.", nil

	case "/load":
		if _, err := s.RestoreSnapshot(); err != nil {
			return "", err
		}
		return "", nil

	case "/new":
		s.ResetWorkspace()
		return "Workspace reset.", nil

	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownCommand, cmd)
	}
}
