// queuectl inspects and manages the local offline action queue. It reads
// the same SQLite store the daemon uses, so it works while the daemon is
// running or stopped.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/hoorayapp/hooray-sync/internal/config"
	"github.com/hoorayapp/hooray-sync/internal/models"
	"github.com/hoorayapp/hooray-sync/internal/queue"
	"github.com/hoorayapp/hooray-sync/internal/store"
	"github.com/hoorayapp/hooray-sync/pkg/infra"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cfg := config.Load()
	logger := infra.SetupLogger(cfg)
	slog.SetDefault(logger)

	ctx := context.Background()

	st, err := store.Open(cfg.StorePath(), logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, "cannot open local store:", err)
		os.Exit(1)
	}
	defer st.Close()

	q := queue.New(st, logger)

	switch os.Args[1] {
	case "list":
		actions := q.GetAll(ctx)
		if len(actions) == 0 {
			fmt.Println("queue is empty")
			return
		}
		for i, a := range actions {
			fmt.Printf("%2d. %s\n", i+1, describe(a))
		}

	case "depth":
		fmt.Println(q.Depth(ctx))

	case "clear":
		if err := q.Clear(ctx); err != nil {
			fmt.Fprintln(os.Stderr, "clear failed:", err)
			os.Exit(1)
		}
		fmt.Println("queue cleared")

	case "remove":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "usage: queuectl remove <action-id>")
			os.Exit(2)
		}
		if err := q.Remove(ctx, os.Args[2]); err != nil {
			fmt.Fprintln(os.Stderr, "remove failed:", err)
			os.Exit(1)
		}
		fmt.Println("removed (if present)")

	case "grant-consent":
		if err := st.GrantStorageConsent(ctx); err != nil {
			fmt.Fprintln(os.Stderr, "grant failed:", err)
			os.Exit(1)
		}
		fmt.Println("storage consent granted")

	case "revoke-consent":
		if err := st.RevokeStorageConsent(ctx); err != nil {
			fmt.Fprintln(os.Stderr, "revoke failed:", err)
			os.Exit(1)
		}
		fmt.Println("storage consent revoked")

	default:
		usage()
		os.Exit(2)
	}
}

func describe(a models.OfflineAction) string {
	switch a.Kind {
	case models.ActionComment:
		return fmt.Sprintf("[comment] %s  celebration=%d  by=%s  %q",
			a.ID, a.Comment.CelebrationID, a.Comment.User.ID, truncate(a.Comment.Text, 40))
	case models.ActionCelebration:
		return fmt.Sprintf("[celebration] %s  by=%s  %q",
			a.ID, a.Celebration.UserID, truncate(a.Celebration.Draft.Title, 40))
	default:
		return fmt.Sprintf("[unknown] %s", a.ID)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: queuectl <command>

commands:
  list            show queued offline actions in replay order
  depth           print the number of queued actions
  remove <id>     drop a single action from the queue
  clear           empty the queue unconditionally
  grant-consent   record storage consent for this device
  revoke-consent  clear the storage consent marker`)
}
