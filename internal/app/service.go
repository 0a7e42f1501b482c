package app

import (
	"path/filepath"
	"time"

	"docset-deps/internal/adapters"
	"docset-deps/internal/ports"
	"docset-deps/internal/types"
)

// Service wires the restore/GC engine to its collaborators. Git and URL
// are normally nil and built per request from the cache directory; tests
// inject fakes through them.
type Service struct {
	Config ports.ConfigPort
	Locks  ports.LockPort
	Git    ports.GitPort
	URL    ports.URLPort
	Clock  func() time.Time
}

func NewService() Service {
	return Service{
		Config: adapters.NewConfigFileAdapter(),
		Locks:  adapters.NewLockStoreAdapter(),
		Clock:  time.Now,
	}
}

func (s Service) buildGitPort(cacheDir string, dryRun bool) ports.GitPort {
	if s.Git != nil {
		return s.Git
	}
	adapter := adapters.NewGitRestoreAdapter(filepath.Join(cacheDir, "git"))
	adapter.DryRun = dryRun
	return adapter
}

func (s Service) buildURLPort(cacheDir string, timeoutSec int, retention types.RetentionPolicy, dryRun bool) ports.URLPort {
	if s.URL != nil {
		return s.URL
	}
	adapter := adapters.NewURLRestoreAdapter(filepath.Join(cacheDir, "url"), timeoutSec)
	if retention.KeepLast > 0 || retention.KeepDays > 0 {
		adapter.Retention = retention
	}
	adapter.DryRun = dryRun
	if s.Clock != nil {
		adapter.Clock = s.Clock
	}
	return adapter
}
