package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"skipintro/internal/config"
	"skipintro/internal/deps"
	"skipintro/internal/episodes"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckDatabase opens the episode database, evolving its schema if needed,
// and reports how many shows it holds.
func CheckDatabase(ctx context.Context, path string) Result {
	const name = "Episode database"

	store, err := episodes.OpenPath(ctx, path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	defer store.Close()
	titles, err := store.Titles(ctx)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d shows)", path, len(titles))}
}

// CheckPlayerSocket verifies that something accepts connections on the mpv
// IPC socket.
func CheckPlayerSocket(ctx context.Context, path string, timeout time.Duration) Result {
	const name = "Player socket"

	path = strings.TrimSpace(path)
	if path == "" {
		return Result{Name: name, Detail: "socket path not configured"}
	}
	if timeout <= 0 {
		timeout = time.Second
	}
	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(dialCtx, "unix", path)
	if err != nil {
		detail := fmt.Sprintf("%s (not reachable: %v)", path, err)
		if errors.Is(err, os.ErrNotExist) {
			detail = fmt.Sprintf("%s (missing; start mpv with --input-ipc-server=%s)", path, path)
		}
		return Result{Name: name, Detail: detail, Advisory: true}
	}
	_ = conn.Close()
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (listening)", path)}
}

// CheckSystemDeps evaluates the external programs the configuration uses.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	return deps.CheckBinaries(deps.Requirements(cfg))
}
