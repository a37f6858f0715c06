package file

import (
	"context"
	"errors"
	"log/slog"
	"path"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"filevault/internal/events"
	"filevault/internal/pkg/pathpolicy"
)

// SyncResult lists the root-relative paths acted upon by one run.
type SyncResult struct {
	FilesToAdd    []string `json:"files_to_add"`
	FilesToDelete []string `json:"files_to_delete"`
}

// Syncer reconciles the record store with what is actually on disk. It
// works on the store and the disk directly, never through Service.
//
// Paths are compared as plain strings: no case folding, no content or size
// comparison. A run is not transactional; each add or delete commits on its
// own, and the first failure aborts the run. Running again is always safe.
type Syncer struct {
	repo     Repository
	storage  Storage
	notifier Notifier
	logger   *slog.Logger
	now      func() time.Time

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewSyncer(repo Repository, storage Storage, logger *slog.Logger) *Syncer {
	return &Syncer{
		repo:    repo,
		storage: storage,
		logger:  logger.With(slog.String("component", "sync")),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *Syncer) SetNotifier(n Notifier) {
	s.notifier = n
}

// Sync runs one reconciliation. A concurrent call gets ErrSyncInProgress.
// On failure the result still reports the full diff that was computed.
func (s *Syncer) Sync(ctx context.Context) (*SyncResult, error) {
	if !s.mu.TryLock() {
		s.logger.Warn("sync already running, skipped")
		return nil, ErrSyncInProgress
	}
	defer s.mu.Unlock()

	started := time.Now()
	s.logger.Info("sync started")

	result, err := s.reconcile(ctx)

	syncDurationSeconds.Observe(time.Since(started).Seconds())
	if err != nil {
		_, code := Classify(err)
		syncRunsTotal.WithLabelValues(code).Inc()
		s.logger.Error("sync aborted", slog.String("error", err.Error()))
		return result, err
	}
	syncRunsTotal.WithLabelValues("ok").Inc()

	s.logger.Info("sync finished",
		slog.Int("added", len(result.FilesToAdd)),
		slog.Int("deleted", len(result.FilesToDelete)),
		slog.Duration("duration", time.Since(started)),
	)
	if s.notifier != nil && (len(result.FilesToAdd) > 0 || len(result.FilesToDelete) > 0) {
		s.notifier.Broadcast(events.Event{Type: events.TypeSynced, At: s.now()})
	}
	return result, nil
}

func (s *Syncer) reconcile(ctx context.Context) (*SyncResult, error) {
	storageSet := make(map[string]struct{})
	for rel, err := range s.storage.Walk() {
		if err != nil {
			return nil, err
		}
		storageSet[rel] = struct{}{}
	}

	records, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	dbSet := make(map[string]*Record, len(records))
	for _, rec := range records {
		dbSet[rec.RelativePath()] = rec
	}

	result := &SyncResult{FilesToAdd: []string{}, FilesToDelete: []string{}}
	for rel := range dbSet {
		if _, ok := storageSet[rel]; !ok {
			result.FilesToDelete = append(result.FilesToDelete, rel)
		}
	}
	for rel := range storageSet {
		if _, ok := dbSet[rel]; !ok {
			result.FilesToAdd = append(result.FilesToAdd, rel)
		}
	}
	slices.Sort(result.FilesToDelete)
	slices.Sort(result.FilesToAdd)

	for _, rel := range result.FilesToDelete {
		rec := dbSet[rel]
		if err := s.repo.DeleteByID(ctx, rec.ID); err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return result, ensureKind(ErrDatabaseDelete, err)
		}
		syncChangesTotal.WithLabelValues("delete").Inc()
		s.logger.Debug("record without file removed", slog.String("file_id", rec.ID), slog.String("path", rel))
	}

	for _, rel := range result.FilesToAdd {
		rec, err := s.recordFor(rel)
		if err != nil {
			return result, err
		}
		if err := s.repo.Insert(ctx, rec); err != nil {
			return result, ensureKind(ErrDatabaseAdd, err)
		}
		syncChangesTotal.WithLabelValues("add").Inc()
		s.logger.Debug("untracked file recorded", slog.String("file_id", rec.ID), slog.String("path", rel))
	}

	return result, nil
}

// recordFor builds a fresh record for an untracked file at rel.
func (s *Syncer) recordFor(rel string) (*Record, error) {
	folder := path.Dir(rel)
	if folder != "/" {
		folder += "/"
	}
	stem, ext := pathpolicy.SplitName(path.Base(rel))

	info, err := s.storage.Stat(s.storage.Abs(rel))
	if err != nil {
		return nil, err
	}

	return &Record{
		ID:        uuid.NewString(),
		Filename:  stem,
		Extension: ext,
		Size:      info.Size,
		Filepath:  folder,
		CreatedAt: info.CreatedAt,
	}, nil
}

// Start runs Sync every interval until ctx is cancelled or Stop is called.
func (s *Syncer) Start(ctx context.Context, interval time.Duration) {
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				if _, err := s.Sync(runCtx); err != nil && !errors.Is(err, ErrSyncInProgress) {
					s.logger.Warn("periodic sync failed", slog.String("error", err.Error()))
				}
			}
		}
	}()

	s.logger.Info("periodic sync started", slog.Duration("interval", interval))
}

// Stop halts the periodic loop and waits for it to exit.
func (s *Syncer) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.logger.Info("periodic sync stopped")
}
