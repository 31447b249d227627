package history

import (
	"context"
	"os"
	"path/filepath"
	"runtime"

	"retrace/internal/infrastructure/errors"
)

// DefaultPath returns the Chromium history database to read. The
// RETRACE_HISTORY_DB environment variable overrides the per-platform Chrome
// default profile location.
func DefaultPath() string {
	if path := os.Getenv("RETRACE_HISTORY_DB"); path != "" {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	switch runtime.GOOS {
	case "windows":
		base := os.Getenv("LOCALAPPDATA")
		if base == "" {
			base = filepath.Join(home, "AppData", "Local")
		}
		return filepath.Join(base, "Google", "Chrome", "User Data", "Default", "History")
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "Google", "Chrome", "Default", "History")
	default:
		return filepath.Join(home, ".config", "google-chrome", "Default", "History")
	}
}

// UnavailableService is the Service used when no history database could be
// opened. Every call fails with an unavailable classification so callers
// surface "history not connected" instead of empty analytics.
type UnavailableService struct{}

func (UnavailableService) Search(ctx context.Context, query Query) ([]Item, error) {
	return nil, errors.HandleUnavailable("Search", "history database")
}

func (UnavailableService) GetVisits(ctx context.Context, url string) ([]Visit, error) {
	return nil, errors.HandleUnavailable("GetVisits", "history database")
}

func (UnavailableService) DeleteRange(ctx context.Context, startTime, endTime int64) error {
	return errors.HandleUnavailable("DeleteRange", "history database")
}

func (UnavailableService) DeleteURL(ctx context.Context, url string) error {
	return errors.HandleUnavailable("DeleteURL", "history database")
}
