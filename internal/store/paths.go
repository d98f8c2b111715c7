package store

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/afero"

	"github.com/bazarr-bulk/bb/internal/apperrors"
	"github.com/bazarr-bulk/bb/internal/config"
)

// DataDirEnv overrides the data directory.
const DataDirEnv = "BB_DATA_DIR"

// FileName returns the default ledger name for a provider.
func FileName(provider string) string {
	if provider == "badger" {
		return "database.badger"
	}
	return "database.db"
}

// Resolver locates the ledger on disk.
type Resolver struct {
	Fs     afero.Fs
	Getenv func(string) string
	GOOS   string
	Home   func() (string, error)
}

// NewResolver returns a Resolver backed by the real filesystem and environment.
func NewResolver() *Resolver {
	return &Resolver{
		Fs:     afero.NewOsFs(),
		Getenv: os.Getenv,
		GOOS:   runtime.GOOS,
		Home:   os.UserHomeDir,
	}
}

// ResolvePath picks the ledger location, in order: explicit, $BB_DATA_DIR/<file>,
// then the per-user data directory. Parent directories are created.
// Any failure wraps apperrors.ErrNoDataDir.
func (r *Resolver) ResolvePath(explicit, provider string) (string, error) {
	var path string
	switch {
	case explicit != "":
		path = explicit
	case r.Getenv(DataDirEnv) != "":
		path = filepath.Join(r.Getenv(DataDirEnv), FileName(provider))
	default:
		dir, err := r.userDataDir()
		if err != nil {
			return "", fmt.Errorf("%w: %v", apperrors.ErrNoDataDir, err)
		}
		path = filepath.Join(dir, config.AppName, FileName(provider))
	}

	if err := r.Fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("%w: create %s: %v", apperrors.ErrNoDataDir, filepath.Dir(path), err)
	}
	return path, nil
}

// userDataDir follows XDG on Unix, Application Support on macOS and LocalAppData on Windows.
func (r *Resolver) userDataDir() (string, error) {
	switch r.GOOS {
	case "windows":
		if dir := r.Getenv("LocalAppData"); dir != "" {
			return dir, nil
		}
		if dir := r.Getenv("AppData"); dir != "" {
			return dir, nil
		}
		return "", fmt.Errorf("neither %%LocalAppData%% nor %%AppData%% is set")
	case "darwin", "ios":
		home, err := r.Home()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, "Library", "Application Support"), nil
	default:
		if dir := r.Getenv("XDG_DATA_HOME"); dir != "" {
			if !filepath.IsAbs(dir) {
				return "", fmt.Errorf("path in $XDG_DATA_HOME is relative")
			}
			return dir, nil
		}
		home, err := r.Home()
		if err != nil {
			return "", err
		}
		if home == "" {
			return "", fmt.Errorf("neither $XDG_DATA_HOME nor $HOME is defined")
		}
		return filepath.Join(home, ".local", "share"), nil
	}
}
