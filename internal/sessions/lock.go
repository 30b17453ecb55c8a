package sessions

import (
	"os"
	"path/filepath"

	"trunkline/internal/common"
	"trunkline/pkg/errors"
)

// Lock acquires the repository-wide write lock. It serializes callers within
// the process and, where supported, across processes sharing the same root.
// Every successful Lock must be paired with Unlock, normally via defer.
func (r *Repository) Lock() error {
	r.mu.Lock()

	path := filepath.Join(r.root, lockFileName)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, common.FilePermissionSecure) // #nosec G304 - path is under the session root
	if err != nil {
		r.mu.Unlock()
		return errors.LockError(path, err)
	}
	if err := lockFile(f); err != nil {
		f.Close()
		r.mu.Unlock()
		return errors.LockError(path, err)
	}

	r.file = f
	return nil
}

// Unlock releases the lock taken by Lock. The in-process lock is always
// released, even when dropping the file lock fails.
func (r *Repository) Unlock() error {
	defer r.mu.Unlock()

	f := r.file
	r.file = nil
	if f == nil {
		return nil
	}

	unlockErr := unlockFile(f)
	closeErr := f.Close()
	if unlockErr != nil {
		return errors.LockError(f.Name(), unlockErr)
	}
	if closeErr != nil {
		return errors.LockError(f.Name(), closeErr)
	}
	return nil
}
