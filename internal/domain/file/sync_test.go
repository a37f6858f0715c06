package file

import (
	"context"
	"errors"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"filevault/internal/events"
	"filevault/internal/logger"
)

/* ==================== MOCKS ==================== */

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) GetByID(ctx context.Context, id string) (*Record, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Record), args.Error(1)
}

func (m *MockRepository) ListByFolderPrefix(ctx context.Context, prefix string) ([]*Record, error) {
	args := m.Called(ctx, prefix)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*Record), args.Error(1)
}

func (m *MockRepository) ListAll(ctx context.Context) ([]*Record, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*Record), args.Error(1)
}

func (m *MockRepository) Insert(ctx context.Context, r *Record) error {
	return m.Called(ctx, r).Error(0)
}

func (m *MockRepository) UpdateFields(ctx context.Context, id string, changes Changes) (*Record, error) {
	args := m.Called(ctx, id, changes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Record), args.Error(1)
}

func (m *MockRepository) DeleteByID(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

/* ==================== TESTS ==================== */

func TestSync_Converges(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	tracked := upload(t, env, "/", "kept.txt", "k")
	ghost := upload(t, env, "/gone/", "ghost.txt", "g")
	require.NoError(t, os.Remove(env.disk.Abs(ghost.RelativePath())))

	require.NoError(t, env.disk.Write(env.disk.Abs("/new/one.txt"), []byte("12345")))
	require.NoError(t, env.disk.Write(env.disk.Abs("/.bashrc"), []byte("x")))

	result, err := env.syncer.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"/.bashrc", "/new/one.txt"}, result.FilesToAdd)
	assert.Equal(t, []string{"/gone/ghost.txt"}, result.FilesToDelete)

	all, err := env.repo.ListAll(ctx)
	require.NoError(t, err)
	paths := map[string]*Record{}
	for _, r := range all {
		paths[r.RelativePath()] = r
	}
	assert.Len(t, paths, 3)
	assert.Equal(t, tracked.ID, paths["/kept.txt"].ID)

	added := paths["/new/one.txt"]
	require.NotNil(t, added)
	assert.Equal(t, "/new/", added.Filepath)
	assert.Equal(t, "one", added.Filename)
	assert.Equal(t, ".txt", added.Extension)
	assert.Equal(t, int64(5), added.Size)
	assert.Empty(t, added.Comment)
	assert.Nil(t, added.ModifiedAt)

	dotfile := paths["/.bashrc"]
	require.NotNil(t, dotfile)
	assert.Equal(t, ".bashrc", dotfile.Filename)
	assert.Empty(t, dotfile.Extension)

	assert.Contains(t, env.events.types(), events.TypeSynced)
}

func TestSync_IsIdempotent(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	require.NoError(t, env.disk.Write(env.disk.Abs("/a.txt"), nil))

	_, err := env.syncer.Sync(ctx)
	require.NoError(t, err)

	result, err := env.syncer.Sync(ctx)
	require.NoError(t, err)
	assert.Empty(t, result.FilesToAdd)
	assert.Empty(t, result.FilesToDelete)
	assert.NotNil(t, result.FilesToAdd)
	assert.NotNil(t, result.FilesToDelete)
}

func TestSync_EmptyStorageAndStore(t *testing.T) {
	env := setupTestEnv(t)

	result, err := env.syncer.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &SyncResult{FilesToAdd: []string{}, FilesToDelete: []string{}}, result)
	assert.Empty(t, env.events.types())
}

func TestSync_AbortsOnFirstDeleteFailure(t *testing.T) {
	disk, err := NewDisk(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, disk.Write(disk.Abs("/untracked.txt"), nil))

	repo := new(MockRepository)
	repo.On("ListAll", mock.Anything).Return([]*Record{
		{ID: "1", Filepath: "/", Filename: "a", Extension: ".txt"},
		{ID: "2", Filepath: "/", Filename: "b", Extension: ".txt"},
	}, nil)
	repo.On("DeleteByID", mock.Anything, "1").Return(errors.New("connection reset"))

	result, err := NewSyncer(repo, disk, logger.Discard()).Sync(context.Background())
	require.ErrorIs(t, err, ErrDatabaseDelete)

	status, code := Classify(err)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "DATABASE_DELETE_ERROR", code)

	require.NotNil(t, result)
	assert.Equal(t, []string{"/untracked.txt"}, result.FilesToAdd)
	assert.Equal(t, []string{"/a.txt", "/b.txt"}, result.FilesToDelete)

	repo.AssertNumberOfCalls(t, "DeleteByID", 1)
	repo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestSync_InsertFailure(t *testing.T) {
	disk, err := NewDisk(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, disk.Write(disk.Abs("/a.txt"), nil))
	require.NoError(t, disk.Write(disk.Abs("/b.txt"), nil))

	repo := new(MockRepository)
	repo.On("ListAll", mock.Anything).Return([]*Record{}, nil)
	repo.On("Insert", mock.Anything, mock.Anything).Return(errors.New("disk full")).Once()

	_, err = NewSyncer(repo, disk, logger.Discard()).Sync(context.Background())
	require.ErrorIs(t, err, ErrDatabaseAdd)
	repo.AssertNumberOfCalls(t, "Insert", 1)
}

func TestSync_SkipsRecordAlreadyGone(t *testing.T) {
	disk, err := NewDisk(t.TempDir())
	require.NoError(t, err)

	repo := new(MockRepository)
	repo.On("ListAll", mock.Anything).Return([]*Record{{ID: "1", Filepath: "/", Filename: "a", Extension: ".txt"}}, nil)
	repo.On("DeleteByID", mock.Anything, "1").Return(ErrNotFound)

	result, err := NewSyncer(repo, disk, logger.Discard()).Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"/a.txt"}, result.FilesToDelete)
}

func TestSync_RejectsConcurrentRun(t *testing.T) {
	env := setupTestEnv(t)

	env.syncer.mu.Lock()
	_, err := env.syncer.Sync(context.Background())
	env.syncer.mu.Unlock()

	require.ErrorIs(t, err, ErrSyncInProgress)
	status, code := Classify(err)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "SYNC_IN_PROGRESS", code)
}

func TestSync_PeriodicLoop(t *testing.T) {
	env := setupTestEnv(t)
	require.NoError(t, env.disk.Write(env.disk.Abs("/late.txt"), nil))

	env.syncer.Start(context.Background(), 10*time.Millisecond)
	defer env.syncer.Stop()

	assert.Eventually(t, func() bool {
		all, err := env.repo.ListAll(context.Background())
		return err == nil && len(all) == 1
	}, 2*time.Second, 10*time.Millisecond)
}
