package cook

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

const lockFileName = ".actorflow.lock"

// ErrLocked reports that another cook run holds the output directory.
var ErrLocked = errors.New("output directory is locked by another cook run")

// OutputLock is an exclusive advisory lock on an output directory.
type OutputLock struct {
	path string
	lock *flock.Flock
}

// Lock acquires the output directory lock without waiting.
func Lock(outputDir string) (*OutputLock, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	path := filepath.Join(outputDir, lockFileName)
	fl := flock.New(path)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocked, path)
	}
	return &OutputLock{path: path, lock: fl}, nil
}

// Path returns the lock file location.
func (l *OutputLock) Path() string { return l.path }

// Unlock releases the lock. It is safe to call more than once.
func (l *OutputLock) Unlock() error {
	if l == nil || l.lock == nil {
		return nil
	}
	return l.lock.Unlock()
}
