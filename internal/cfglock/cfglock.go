// Package cfglock provides a non-blocking, process-exclusive advisory
// lock on a config file path, adapted from the teacher's
// internal/fs.Locker (trimmed to the single non-blocking exclusive path
// cmd/dbdctl's "watch" command needs, dropping the polling/timeout/
// fault-injection machinery that package carries for slotcache's
// on-disk durability contract, which DBD has no equivalent of).
//
// It exists because publishing a [pkg/dbdflags.Document] into a
// [pkg/dbd.Container] is only as consistent as the file it was read
// from. TryLock excludes every other process that takes the same lock on
// the same path; dbdctl takes it around each reload. It does not exclude
// writers that do not take it: dbdflags.SaveDocument (used by dbdseed)
// writes without it and relies on an atomic file replace instead.
package cfglock

import (
	"errors"
	"fmt"
	"os"
	"syscall"
)

// ErrBusy indicates the lock is currently held by another process.
var ErrBusy = errors.New("cfglock: busy")

// Lock is a held advisory lock. Call [Lock.Close] to release it.
type Lock struct {
	file *os.File
}

// TryLock acquires a non-blocking exclusive lock on path+".lock",
// creating the lock file if necessary. Returns [ErrBusy] if another
// process currently holds it.
func TryLock(path string) (*Lock, error) {
	lockPath := path + ".lock"

	file, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}

	err = syscall.Flock(int(file.Fd()), syscall.LOCK_EX|syscall.LOCK_NB)
	if err != nil {
		_ = file.Close()

		if errors.Is(err, syscall.EWOULDBLOCK) || errors.Is(err, syscall.EAGAIN) {
			return nil, ErrBusy
		}

		return nil, fmt.Errorf("flock: %w", err)
	}

	return &Lock{file: file}, nil
}

// Close releases the lock. Safe to call on a nil *Lock. Does not delete
// the lock file, matching the teacher's writer_lock.go convention of
// leaving lock files in place.
func (l *Lock) Close() error {
	if l == nil || l.file == nil {
		return nil
	}

	_ = syscall.Flock(int(l.file.Fd()), syscall.LOCK_UN)
	err := l.file.Close()
	l.file = nil

	return err
}
