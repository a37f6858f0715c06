package file

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Changes lists the fields an update touches. Nil pointers are left alone;
// ModifiedAt is always written.
type Changes struct {
	Filename   *string
	Filepath   *string
	Comment    *string
	ModifiedAt time.Time
}

func (c Changes) columns() map[string]any {
	cols := map[string]any{"modified_at": c.ModifiedAt}
	if c.Filename != nil {
		cols["filename"] = *c.Filename
	}
	if c.Filepath != nil {
		cols["filepath"] = *c.Filepath
	}
	if c.Comment != nil {
		cols["comment"] = *c.Comment
	}
	return cols
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetByID(ctx context.Context, id string) (*Record, error) {
	var rec Record
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDatabaseRead, err)
	}
	return &rec, nil
}

// ListByFolderPrefix matches every record whose folder starts with prefix,
// so "/a/" also returns records in "/a/b/". The comparison is
// case-sensitive on every backend.
func (r *repository) ListByFolderPrefix(ctx context.Context, prefix string) ([]*Record, error) {
	var records []*Record
	err := r.db.WithContext(ctx).
		Where("substr(filepath, 1, ?) = ?", utf8.RuneCountInString(prefix), prefix).
		Order("filepath, filename, extension").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDatabaseRead, err)
	}
	return records, nil
}

func (r *repository) ListAll(ctx context.Context) ([]*Record, error) {
	var records []*Record
	err := r.db.WithContext(ctx).Order("filepath, filename, extension").Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDatabaseRead, err)
	}
	return records, nil
}

func (r *repository) Insert(ctx context.Context, rec *Record) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(rec).Error
	})
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %w", ErrDatabaseAdd, ErrFileExists)
		}
		return fmt.Errorf("%w: %w", ErrDatabaseAdd, err)
	}
	return nil
}

// UpdateFields applies all changes in one transaction and returns the row
// as stored afterwards.
func (r *repository) UpdateFields(ctx context.Context, id string, changes Changes) (*Record, error) {
	var updated Record
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&Record{}).Where("id = ?", id).Updates(changes.columns())
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.Where("id = ?", id).First(&updated).Error
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return nil, ErrNotFound
		case isUniqueViolation(err):
			return nil, fmt.Errorf("%w: %w", ErrDatabaseUpdate, ErrFileExists)
		default:
			return nil, fmt.Errorf("%w: %w", ErrDatabaseUpdate, err)
		}
	}
	return &updated, nil
}

func (r *repository) DeleteByID(ctx context.Context, id string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ?", id).Delete(&Record{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("%w: %w", ErrDatabaseDelete, err)
	}
	return nil
}

// isUniqueViolation recognises the location index on PostgreSQL (23505)
// and SQLite, whose drivers report it only in the message.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
