package persist

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gofrs/flock"
	"gopkg.in/yaml.v3"
)

// lockRetryInterval is how often TryLockContext/TryRLockContext re-polls
// the lock file while waiting for ctx to expire or the lock to free up.
const lockRetryInterval = 25 * time.Millisecond

// WriteFile marshals snap as YAML and writes it to path, holding an
// exclusive gofrs/flock lock for the duration so two processes exporting
// the same lineage concurrently cannot interleave writes.
func WriteFile(ctx context.Context, path string, snap *Snapshot) error {
	lock := flock.New(path + ".lock")
	locked, err := lock.TryLockContext(ctx, lockRetryInterval)
	if err != nil {
		return fmt.Errorf("persist: acquiring write lock on %s: %w", path, err)
	}
	if !locked {
		return fmt.Errorf("persist: could not acquire write lock on %s", path)
	}
	defer lock.Unlock()

	data, err := yaml.Marshal(snap)
	if err != nil {
		return fmt.Errorf("persist: marshaling snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("persist: writing %s: %w", path, err)
	}
	return nil
}

// ReadFile reads and unmarshals the snapshot at path, holding a shared
// gofrs/flock lock so a concurrent WriteFile cannot be observed mid-write.
func ReadFile(ctx context.Context, path string) (*Snapshot, error) {
	lock := flock.New(path + ".lock")
	locked, err := lock.TryRLockContext(ctx, lockRetryInterval)
	if err != nil {
		return nil, fmt.Errorf("persist: acquiring read lock on %s: %w", path, err)
	}
	if !locked {
		return nil, fmt.Errorf("persist: could not acquire read lock on %s", path)
	}
	defer lock.Unlock()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("persist: reading %s: %w", path, err)
	}
	var snap Snapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("persist: unmarshaling %s: %w", path, err)
	}
	return &snap, nil
}
