package storage

import (
	"fmt"
	"os"
	"sync"
	"syscall"
)

// RecordLock guards a single on-disk JSON record — one document or one
// session state file — against concurrent writers within this process and
// across processes sharing the same base directory. FileBackend keeps one
// RecordLock per record path (see getLock) rather than one global lock, so
// writes to unrelated documents never contend with each other.
type RecordLock struct {
	recordPath string
	lockFile   *os.File
	mu         sync.Mutex
}

// NewRecordLock builds a lock for the record at recordPath. The lock itself
// is not held until Lock or TryLock succeeds.
func NewRecordLock(recordPath string) *RecordLock {
	return &RecordLock{recordPath: recordPath}
}

func (l *RecordLock) sidecarPath() string { return l.recordPath + ".lock" }

// Lock blocks until it holds both the in-process mutex and an exclusive
// flock on the record's .lock sidecar file, so a concurrent writeJSONAtomic
// call in another goroutine or process waits its turn instead of racing the
// tmp-file-then-rename sequence.
func (l *RecordLock) Lock() error {
	l.mu.Lock()

	f, err := os.OpenFile(l.sidecarPath(), os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		l.mu.Unlock()
		return fmt.Errorf("open lock file for %s: %w", l.recordPath, err)
	}

	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX); err != nil {
		f.Close()
		l.mu.Unlock()
		return fmt.Errorf("flock %s: %w", l.recordPath, err)
	}
	l.lockFile = f
	return nil
}

// TryLock attempts to acquire the lock without blocking, returning false
// immediately if another holder (in-process or cross-process) already has
// it.
func (l *RecordLock) TryLock() bool {
	if !l.mu.TryLock() {
		return false
	}

	f, err := os.OpenFile(l.sidecarPath(), os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		l.mu.Unlock()
		return false
	}

	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		f.Close()
		l.mu.Unlock()
		return false
	}
	l.lockFile = f
	return true
}

// Unlock releases the flock, removes the sidecar file, and releases the
// in-process mutex. Safe to call on a lock that was never acquired.
func (l *RecordLock) Unlock() error {
	if l.lockFile == nil {
		return nil
	}

	syscall.Flock(int(l.lockFile.Fd()), syscall.LOCK_UN)
	l.lockFile.Close()
	os.Remove(l.sidecarPath())

	l.lockFile = nil
	l.mu.Unlock()
	return nil
}
