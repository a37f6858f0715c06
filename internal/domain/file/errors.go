package file

import (
	"errors"
	"fmt"
	"net/http"

	"filevault/internal/pkg/pathpolicy"
)

var (
	ErrInvalidPath    = pathpolicy.ErrInvalidPath
	ErrFileExists     = errors.New("file already exists")
	ErrNotFound       = errors.New("file not found")
	ErrFileMissing    = errors.New("file is missing on disk")
	ErrSyncInProgress = errors.New("sync already in progress")

	// Physical I/O failures. Raised after the matching database step has
	// already been committed, so the two resources may disagree until the
	// next sync.
	ErrFileSave    = errors.New("file save error")
	ErrFileRename  = errors.New("file rename error")
	ErrFileMove    = errors.New("file move error")
	ErrFileDelete  = errors.New("file delete error")
	ErrFileStat    = errors.New("file stat error")
	ErrStorageWalk = errors.New("storage walk error")

	// Record store failures. The transaction is always rolled back in full.
	ErrDatabaseAdd    = errors.New("database add error")
	ErrDatabaseUpdate = errors.New("database update error")
	ErrDatabaseDelete = errors.New("database delete error")
	ErrDatabaseRead   = errors.New("database read error")
)

// Classify maps an error to the HTTP status and stable code reported to
// clients. Order matters: a record-store failure caused by the location
// index is reported as a conflict, not as a database error.
func Classify(err error) (int, string) {
	switch {
	case errors.Is(err, ErrInvalidPath):
		return http.StatusConflict, "INVALID_PATH"
	case errors.Is(err, ErrFileExists):
		return http.StatusConflict, "FILE_EXISTS"
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, ErrFileMissing):
		return http.StatusNotFound, "FILE_MISSING"
	case errors.Is(err, ErrSyncInProgress):
		return http.StatusConflict, "SYNC_IN_PROGRESS"
	case errors.Is(err, ErrFileSave):
		return http.StatusInternalServerError, "FILE_SAVE_ERROR"
	case errors.Is(err, ErrFileRename):
		return http.StatusInternalServerError, "FILE_RENAME_ERROR"
	case errors.Is(err, ErrFileMove):
		return http.StatusInternalServerError, "FILE_MOVE_ERROR"
	case errors.Is(err, ErrFileDelete):
		return http.StatusInternalServerError, "FILE_DELETE_ERROR"
	case errors.Is(err, ErrDatabaseAdd):
		return http.StatusInternalServerError, "DATABASE_ADD_ERROR"
	case errors.Is(err, ErrDatabaseUpdate):
		return http.StatusInternalServerError, "DATABASE_UPDATE_ERROR"
	case errors.Is(err, ErrDatabaseDelete):
		return http.StatusInternalServerError, "DATABASE_DELETE_ERROR"
	case errors.Is(err, ErrFileStat), errors.Is(err, ErrStorageWalk):
		return http.StatusInternalServerError, "SYNC_FAILED"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}

func wrap(kind, cause error) error {
	return fmt.Errorf("%w: %w", kind, cause)
}

func ensureKind(kind, err error) error {
	if errors.Is(err, kind) {
		return err
	}
	return wrap(kind, err)
}
