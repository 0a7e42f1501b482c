package adapters

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"gopkg.in/yaml.v3"

	"docset-deps/internal/core"
	"docset-deps/internal/ports"
	"docset-deps/internal/types"
)

// LockFileName is the persisted lock record written beside docset.yml.
const LockFileName = "docset.lock"

// guardFileName is the on-disk exclusion marker held while a docset is
// being restored, guarding against two independent runs restoring the
// same docset concurrently.
const guardFileName = ".docset.lock.guard"

const lockRetryInterval = 50 * time.Millisecond
const defaultAcquireTimeout = 30 * time.Second

// staleGuardAge is how old an abandoned guard file must be before another
// run steals it.
const staleGuardAge = 10 * time.Minute

// staleSuffix names the parking spot a stale guard is renamed to while
// being stolen.
const staleSuffix = ".stale"

// LockStoreAdapter provides the per-docset lock scope: an in-process keyed
// mutex plus an exclusive on-disk guard file, with the computed lock
// record persisted atomically (temp file + rename) before release. On
// compute failure nothing is written; a previously persisted record stays
// untouched.
type LockStoreAdapter struct {
	Clock          func() time.Time
	AcquireTimeout time.Duration

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewLockStoreAdapter() *LockStoreAdapter {
	return &LockStoreAdapter{
		Clock:          time.Now,
		AcquireTimeout: defaultAcquireTimeout,
		locks:          make(map[string]*sync.Mutex),
	}
}

func (a *LockStoreAdapter) WithLock(ctx context.Context, dir string, compute func() (types.LockRecord, error)) (types.LockRecord, error) {
	lock := a.lockFor(core.NormalizePath(dir))
	lock.Lock()
	defer lock.Unlock()

	release, err := a.acquireGuard(ctx, dir)
	if err != nil {
		return types.LockRecord{}, err
	}
	defer release()

	record, err := compute()
	if err != nil {
		return types.LockRecord{}, err
	}
	record.Version = types.LockRecordVersion
	record.GeneratedAt = a.now().UTC().Format(time.RFC3339)
	if err := a.persist(dir, record); err != nil {
		return types.LockRecord{}, err
	}
	return record, nil
}

func (a *LockStoreAdapter) Read(dir string) (types.LockRecord, bool, error) {
	data, err := os.ReadFile(filepath.Join(dir, LockFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return types.LockRecord{}, false, nil
		}
		return types.LockRecord{}, false, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to read lock record").
			WithCause(err)
	}
	var record types.LockRecord
	if err := yaml.Unmarshal(data, &record); err != nil {
		return types.LockRecord{}, false, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("failed to parse lock record").
			WithCause(err)
	}
	return record, true, nil
}

func (a *LockStoreAdapter) acquireGuard(ctx context.Context, dir string) (func(), error) {
	guard := filepath.Join(dir, guardFileName)
	deadline := a.now().Add(a.acquireTimeout())
	for {
		file, err := os.OpenFile(guard, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
		if err == nil {
			_ = file.Close()
			return func() { _ = os.Remove(guard) }, nil
		}
		if !os.IsExist(err) {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("failed to create docset lock guard").
				WithCause(err)
		}
		if info, statErr := os.Stat(guard); statErr == nil && a.now().Sub(info.ModTime()) > staleGuardAge {
			// Rename before removing so two waiters cannot both steal
			// the stale guard: the rename succeeds for exactly one of
			// them, and the loser retries against whatever guard exists
			// next time around. A bare Remove here could take out the
			// guard the first winner just created.
			stale := guard + staleSuffix
			if renameErr := os.Rename(guard, stale); renameErr == nil {
				_ = os.Remove(stale)
			}
			continue
		}
		if a.now().After(deadline) {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeUnavailable).
				WithMsg("docset is locked by another process: " + dir)
		}
		select {
		case <-ctx.Done():
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeUnavailable).
				WithMsg("interrupted while waiting for docset lock: " + dir).
				WithCause(ctx.Err())
		case <-time.After(lockRetryInterval):
		}
	}
}

func (a *LockStoreAdapter) persist(dir string, record types.LockRecord) error {
	data, err := yaml.Marshal(record)
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to serialize lock record").
			WithCause(err)
	}
	tmp, err := os.CreateTemp(dir, ".lock-")
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to stage lock record").
			WithCause(err)
	}
	name := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(name)
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to write lock record").
			WithCause(err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(name)
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to write lock record").
			WithCause(err)
	}
	if err := os.Rename(name, filepath.Join(dir, LockFileName)); err != nil {
		_ = os.Remove(name)
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to publish lock record").
			WithCause(err)
	}
	return nil
}

func (a *LockStoreAdapter) lockFor(dir string) *sync.Mutex {
	a.mu.Lock()
	defer a.mu.Unlock()
	lock, ok := a.locks[dir]
	if !ok {
		lock = &sync.Mutex{}
		a.locks[dir] = lock
	}
	return lock
}

func (a *LockStoreAdapter) acquireTimeout() time.Duration {
	if a.AcquireTimeout > 0 {
		return a.AcquireTimeout
	}
	return defaultAcquireTimeout
}

func (a *LockStoreAdapter) now() time.Time {
	if a.Clock == nil {
		return time.Now()
	}
	return a.Clock()
}

var _ ports.LockPort = (*LockStoreAdapter)(nil)
