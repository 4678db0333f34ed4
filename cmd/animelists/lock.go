package main

import (
	"fmt"
	"os"

	"github.com/gofrs/flock"

	"animelists/internal/config"
	"animelists/internal/services"
)

// acquireRunLock takes the advisory lock guarding the output directory. The
// returned function releases it.
func acquireRunLock(cfg *config.Config) (func() error, error) {
	if err := os.MkdirAll(cfg.Output.Dir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrOutput, "output", "create directory", cfg.Output.Dir, err)
	}
	lock := flock.New(cfg.LockPath())
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, services.Wrap(services.ErrOutput, "output", "acquire lock",
			fmt.Sprintf("another animelists run holds %s", cfg.LockPath()), nil)
	}
	return lock.Unlock, nil
}
