package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"filevault/internal/logger"
)

type probe struct {
	ID   string `gorm:"primaryKey"`
	Name string
}

func TestConnect_SQLiteInMemory(t *testing.T) {
	db, err := Connect("file:database_test_connect?mode=memory&cache=shared", logger.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })

	require.NoError(t, Migrate(db, &probe{}))
	require.NoError(t, db.Create(&probe{ID: "1", Name: "a"}).Error)

	var got probe
	require.NoError(t, db.First(&got, "id = ?", "1").Error)
	assert.Equal(t, "a", got.Name)

	assert.NoError(t, Ping(context.Background(), db))
}
