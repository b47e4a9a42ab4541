package mcp

import (
	"context"
	"os"
	"time"

	"procreport/internal/logging"
)

// ParentPollInterval is how often WatchParent checks the parent pid.
var ParentPollInterval = 2 * time.Second

// WatchParent calls cancelFn once the process that spawned the stdio server
// goes away, so an orphaned server does not linger after its client exits.
//
// It must not read stdin: the SDK's StdioTransport owns it.
func WatchParent(ctx context.Context, cancelFn context.CancelFunc) {
	ppid := os.Getppid()
	go func() {
		ticker := time.NewTicker(ParentPollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if os.Getppid() != ppid {
					logging.New("mcp").Warn("parent process exited, shutting down", "parent_pid", ppid)
					cancelFn()
					return
				}
			}
		}
	}()
}
