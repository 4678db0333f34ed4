package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"animelists/internal/mapping"
	"animelists/internal/season"
	"animelists/internal/services"
	"animelists/internal/services/mal"
)

const checkTimeout = 30 * time.Second

// CheckCredential reports whether a MAL client id is configured.
func CheckCredential(clientID string) Result {
	const name = "MAL client id"
	if strings.TrimSpace(clientID) == "" {
		return Result{Name: name, Detail: "missing (set mal.client_id or MAL_CLIENT_ID)"}
	}
	return Result{Name: name, Passed: true, Detail: "configured"}
}

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

// CheckWritableDirectory passes when path is a usable directory or when it
// is missing but its nearest existing ancestor is writable, since writers
// create missing directories.
func CheckWritableDirectory(name, path string) Result {
	if _, err := os.Stat(path); err == nil || !os.IsNotExist(err) {
		return CheckDirectoryAccess(name, path)
	}
	ancestor := path
	for {
		next := filepath.Dir(ancestor)
		if next == ancestor {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: no existing ancestor)", path)}
		}
		ancestor = next
		if _, err := os.Stat(ancestor); err == nil {
			break
		}
	}
	res := CheckDirectoryAccess(name, ancestor)
	if !res.Passed {
		res.Detail = fmt.Sprintf("%s (error: cannot create under %s)", path, ancestor)
		return res
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (will be created)", path)}
}

// CheckCatalog requests a single entry for the current season.
func CheckCatalog(ctx context.Context, catalog mal.Fetcher, now time.Time) Result {
	const name = "MAL catalog"
	if catalog == nil {
		return Result{Name: name, Detail: "skipped (no client id)"}
	}
	checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	key := season.Back(now, 0)
	start := time.Now()
	entries, err := catalog.FetchSeason(checkCtx, key, 1)
	if err != nil {
		return Result{Name: name, Detail: summarizeError(err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s reachable (%d entry, %v)", key, len(entries), time.Since(start).Round(time.Millisecond))}
}

// CheckMappingFeed loads the cross-reference feed and reports its size.
func CheckMappingFeed(ctx context.Context, feed mapping.Loader) Result {
	const name = "Mapping feed"
	if feed == nil {
		return Result{Name: name, Detail: "not configured"}
	}
	checkCtx, cancel := context.WithTimeout(ctx, 2*checkTimeout)
	defer cancel()

	table, err := feed.Load(checkCtx)
	if err != nil {
		return Result{Name: name, Detail: summarizeError(err)}
	}
	if table.Len() == 0 {
		return Result{Name: name, Detail: "feed loaded but contains no usable records"}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%d records", table.Len())}
}

func summarizeError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "timed out (endpoint unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "timed out (endpoint unreachable)"
	}
	if kind := services.Kind(err); kind != "unknown" {
		return fmt.Sprintf("%s: %v", kind, err)
	}
	return err.Error()
}

func parentDir(path string) string {
	return filepath.Dir(path)
}
