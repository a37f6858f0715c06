package file

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"filevault/internal/database"
	"filevault/internal/events"
	"filevault/internal/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:files_%s?mode=memory&cache=shared", name)
	db, err := database.Connect(dsn, logger.Discard())
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db, &Record{}))
	return db
}

type testEnv struct {
	db      *gorm.DB
	repo    Repository
	disk    *Disk
	service *Service
	syncer  *Syncer
	events  *recordingNotifier
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := setupTestDB(t)
	disk, err := NewDisk(t.TempDir())
	require.NoError(t, err)

	repo := NewRepository(db)
	notifier := &recordingNotifier{}

	service := NewService(repo, disk, logger.Discard())
	service.SetNotifier(notifier)
	syncer := NewSyncer(repo, disk, logger.Discard())
	syncer.SetNotifier(notifier)

	return &testEnv{db: db, repo: repo, disk: disk, service: service, syncer: syncer, events: notifier}
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []events.Event
}

func (n *recordingNotifier) Broadcast(e events.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, e)
}

func (n *recordingNotifier) types() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.events))
	for _, e := range n.events {
		out = append(out, e.Type)
	}
	return out
}

// recordingStorage wraps a Storage, counts the calls that change the disk
// and optionally fails some of them.
type recordingStorage struct {
	Storage
	mutations []string
	writeErr  error
	renameErr error
	moveErr   error
	removeErr error
}

func (s *recordingStorage) has(op string) bool {
	for _, m := range s.mutations {
		if m == op {
			return true
		}
	}
	return false
}

func (s *recordingStorage) Write(abs string, data []byte) error {
	s.mutations = append(s.mutations, "write")
	if s.writeErr != nil {
		return s.writeErr
	}
	return s.Storage.Write(abs, data)
}

func (s *recordingStorage) Rename(oldAbs, newAbs string) error {
	s.mutations = append(s.mutations, "rename")
	if s.renameErr != nil {
		return s.renameErr
	}
	return s.Storage.Rename(oldAbs, newAbs)
}

func (s *recordingStorage) Move(oldAbs, newAbs string) error {
	s.mutations = append(s.mutations, "move")
	if s.moveErr != nil {
		return s.moveErr
	}
	return s.Storage.Move(oldAbs, newAbs)
}

func (s *recordingStorage) EnsureDir(absDir string) error {
	s.mutations = append(s.mutations, "mkdir")
	return s.Storage.EnsureDir(absDir)
}

func (s *recordingStorage) Remove(abs string) error {
	s.mutations = append(s.mutations, "remove")
	if s.removeErr != nil {
		return s.removeErr
	}
	return s.Storage.Remove(abs)
}

func strPtr(s string) *string { return &s }
