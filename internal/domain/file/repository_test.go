package file

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRecord(folder, stem, ext string) *Record {
	return &Record{
		ID:        uuid.NewString(),
		Filename:  stem,
		Extension: ext,
		Size:      10,
		Filepath:  folder,
		CreatedAt: time.Now().UTC(),
	}
}

func TestRepository_InsertAndGet(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	ctx := context.Background()

	rec := newRecord("/docs/", "report", ".pdf")
	rec.Comment = "q3"
	require.NoError(t, repo.Insert(ctx, rec))

	got, err := repo.GetByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "report", got.Filename)
	assert.Equal(t, ".pdf", got.Extension)
	assert.Equal(t, "/docs/", got.Filepath)
	assert.Equal(t, "q3", got.Comment)
	assert.Nil(t, got.ModifiedAt)
}

func TestRepository_GetUnknownID(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	_, err := repo.GetByID(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRepository_InsertDuplicateLocation(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, newRecord("/", "a", ".txt")))

	err := repo.Insert(ctx, newRecord("/", "a", ".txt"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDatabaseAdd)
	assert.ErrorIs(t, err, ErrFileExists)

	status, code := Classify(err)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "FILE_EXISTS", code)
}

func TestRepository_ListByFolderPrefix(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	ctx := context.Background()

	for _, r := range []*Record{
		newRecord("/", "root", ".txt"),
		newRecord("/a/", "one", ".txt"),
		newRecord("/a/b/", "two", ".txt"),
		newRecord("/ab/", "three", ".txt"),
	} {
		require.NoError(t, repo.Insert(ctx, r))
	}

	cases := []struct {
		prefix string
		want   []string
	}{
		{prefix: "/", want: []string{"/root.txt", "/a/one.txt", "/a/b/two.txt", "/ab/three.txt"}},
		{prefix: "/a/", want: []string{"/a/one.txt", "/a/b/two.txt"}},
		{prefix: "/a/b/", want: []string{"/a/b/two.txt"}},
		{prefix: "/A/", want: []string{}},
	}

	for _, tc := range cases {
		t.Run(tc.prefix, func(t *testing.T) {
			records, err := repo.ListByFolderPrefix(ctx, tc.prefix)
			require.NoError(t, err)

			got := []string{}
			for _, r := range records {
				got = append(got, r.RelativePath())
			}
			assert.ElementsMatch(t, tc.want, got)
		})
	}
}

func TestRepository_UpdateFields(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	ctx := context.Background()

	rec := newRecord("/", "a", ".txt")
	require.NoError(t, repo.Insert(ctx, rec))

	now := time.Now().UTC()
	got, err := repo.UpdateFields(ctx, rec.ID, Changes{Comment: strPtr("hello"), ModifiedAt: now})
	require.NoError(t, err)
	assert.Equal(t, "hello", got.Comment)
	require.NotNil(t, got.ModifiedAt)
	assert.WithinDuration(t, now, *got.ModifiedAt, time.Second)

	_, err = repo.UpdateFields(ctx, uuid.NewString(), Changes{Comment: strPtr("x"), ModifiedAt: now})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRepository_UpdateIntoTakenLocation(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	ctx := context.Background()

	a := newRecord("/", "a", ".txt")
	b := newRecord("/", "b", ".txt")
	require.NoError(t, repo.Insert(ctx, a))
	require.NoError(t, repo.Insert(ctx, b))

	_, err := repo.UpdateFields(ctx, b.ID, Changes{Filename: strPtr("a"), ModifiedAt: time.Now()})
	assert.ErrorIs(t, err, ErrDatabaseUpdate)
	assert.ErrorIs(t, err, ErrFileExists)
}

func TestRepository_DeleteByID(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	ctx := context.Background()

	rec := newRecord("/", "a", ".txt")
	require.NoError(t, repo.Insert(ctx, rec))

	require.NoError(t, repo.DeleteByID(ctx, rec.ID))
	assert.ErrorIs(t, repo.DeleteByID(ctx, rec.ID), ErrNotFound)

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}
