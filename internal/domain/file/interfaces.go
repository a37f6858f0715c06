package file

import (
	"context"
	"iter"
	"os"

	"filevault/internal/events"
)

// Repository is the record store. Every mutating call is its own atomic
// transaction.
type Repository interface {
	GetByID(ctx context.Context, id string) (*Record, error)
	ListByFolderPrefix(ctx context.Context, prefix string) ([]*Record, error)
	ListAll(ctx context.Context) ([]*Record, error)
	Insert(ctx context.Context, r *Record) error
	UpdateFields(ctx context.Context, id string, changes Changes) (*Record, error)
	DeleteByID(ctx context.Context, id string) error
}

// Storage performs the physical side effects under the storage root.
type Storage interface {
	Abs(rel string) string
	Exists(abs string) bool
	Write(abs string, data []byte) error
	Rename(oldAbs, newAbs string) error
	Move(oldAbs, newAbs string) error
	EnsureDir(absDir string) error
	Remove(abs string) error
	Open(abs string) (*os.File, error)
	Stat(abs string) (Info, error)
	Walk() iter.Seq2[string, error]
}

// Notifier receives lifecycle events after a successful operation.
type Notifier interface {
	Broadcast(event events.Event)
}
