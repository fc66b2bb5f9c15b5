package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
)

// RunLock is the lock file format used to guarantee at-most-one audit run in
// flight per deployment. An external cron-style trigger may fire while a
// previous run is still working; the lock makes the overlap visible instead
// of letting two runs interleave snapshot writes.
type RunLock struct {
	Holder    string    `json:"holder"`
	RunID     string    `json:"run_id"`
	PID       int       `json:"pid"`
	Hostname  string    `json:"hostname"`
	StartedAt time.Time `json:"started_at"`
}

// AcquireRunLock creates an exclusive lock file in the directory containing
// the database. Returns the lock path for release on shutdown. A lock whose
// holder process is no longer alive on this host is treated as stale and
// taken over.
func AcquireRunLock(dbPath string) (lockPath string, err error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating lock directory: %w", err)
	}
	lockPath = filepath.Join(dir, ".audit-run-lock")

	if data, err := os.ReadFile(lockPath); err == nil {
		var existing RunLock
		if json.Unmarshal(data, &existing) == nil {
			if isProcessAlive(existing.PID, existing.Hostname) {
				return "", fmt.Errorf("another audit run is in flight (PID %d on %s, started %s)",
					existing.PID, existing.Hostname, existing.StartedAt.Format(time.RFC3339))
			}
			// Stale lock, overwrite below.
		}
	}

	hostname, err := os.Hostname()
	if err != nil {
		return "", fmt.Errorf("resolving hostname: %w", err)
	}

	lock := RunLock{
		Holder:    "govaudit",
		RunID:     uuid.New().String(),
		PID:       os.Getpid(),
		Hostname:  hostname,
		StartedAt: time.Now(),
	}

	data, err := json.MarshalIndent(lock, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling run lock: %w", err)
	}
	if err := os.WriteFile(lockPath, data, 0644); err != nil {
		return "", fmt.Errorf("creating run lock: %w", err)
	}
	return lockPath, nil
}

// ReleaseRunLock removes the lock file. Safe to call with an empty path.
func ReleaseRunLock(lockPath string) error {
	if lockPath == "" {
		return nil
	}
	if err := os.Remove(lockPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("releasing run lock: %w", err)
	}
	return nil
}

// isProcessAlive checks whether the lock holder still exists. Locks created
// on another host cannot be verified, so they are assumed live.
func isProcessAlive(pid int, hostname string) bool {
	current, err := os.Hostname()
	if err != nil || current != hostname {
		return true
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(syscall.Signal(0)) == nil
}
