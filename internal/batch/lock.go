package batch

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
)

// ErrBatchActive is returned when another run holds the directory.
var ErrBatchActive = errors.New("a batch run is already active for this directory")

var lockNamespace = uuid.MustParse("7d0b5c9e-2f43-4a57-9c1e-6a3f0e8b2d41")

// lockPath maps a directory onto a lock file outside it, so an empty
// directory stays free of files the run did not produce.
func lockPath(dir string) string {
	id := uuid.NewSHA1(lockNamespace, []byte(dir))
	return filepath.Join(os.TempDir(), "audio-normalizer-"+id.String()+".lock")
}

// acquireDirLock takes the advisory lock for dir without waiting.
func acquireDirLock(dir string) (*flock.Flock, error) {
	lock := flock.New(lockPath(dir))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", dir, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBatchActive, dir)
	}
	return lock, nil
}
