package file

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"filevault/internal/events"
	"filevault/internal/pkg/pathpolicy"
)

// UploadInput carries one uploaded file. Filepath is the logical folder.
type UploadInput struct {
	Name     string
	Filepath string
	Comment  string
	Data     []byte
}

// UpdateInput lists optional changes; nil fields are left untouched.
type UpdateInput struct {
	Filename *string `json:"filename" validate:"omitempty,max=255"`
	Filepath *string `json:"filepath" validate:"omitempty,max=1024"`
	Comment  *string `json:"comment" validate:"omitempty,max=255"`
}

// Service keeps the record store and the disk in step for every mutating
// operation.
//
// Ordering is fixed: the record store is committed first and the disk
// change follows. If the disk step fails the committed row stays as it is
// and the disk error is returned; Sync repairs the drift later.
type Service struct {
	repo     Repository
	storage  Storage
	notifier Notifier
	logger   *slog.Logger
	now      func() time.Time
}

func NewService(repo Repository, storage Storage, logger *slog.Logger) *Service {
	return &Service{
		repo:    repo,
		storage: storage,
		logger:  logger.With(slog.String("component", "files")),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// SetNotifier enables lifecycle events. Passing nil disables them.
func (s *Service) SetNotifier(n Notifier) {
	s.notifier = n
}

func (s *Service) Upload(ctx context.Context, in UploadInput) (rec *Record, err error) {
	defer func() { observe("upload", err) }()

	folder, err := pathpolicy.Normalize(in.Filepath)
	if err != nil {
		s.logger.Warn("upload rejected: invalid path", slog.String("filepath", in.Filepath))
		return nil, err
	}
	if err := pathpolicy.ValidateName(in.Name); err != nil {
		s.logger.Warn("upload rejected: invalid name", slog.String("name", in.Name))
		return nil, err
	}

	stem, ext := pathpolicy.SplitName(in.Name)
	abs := s.storage.Abs(folder + in.Name)
	if s.storage.Exists(abs) {
		s.logger.Warn("upload rejected: file exists", slog.String("path", folder+in.Name))
		return nil, ErrFileExists
	}

	rec = &Record{
		ID:        uuid.NewString(),
		Filename:  stem,
		Extension: ext,
		Size:      int64(len(in.Data)),
		Filepath:  folder,
		CreatedAt: s.now(),
		Comment:   in.Comment,
	}
	if err := s.repo.Insert(ctx, rec); err != nil {
		s.logger.Error("upload: insert record failed", slog.String("error", err.Error()))
		return nil, err
	}

	if err := s.storage.Write(abs, in.Data); err != nil {
		s.logger.Error("upload: record committed but file not written",
			slog.String("file_id", rec.ID),
			slog.String("path", rec.RelativePath()),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	s.logger.Info("file uploaded",
		slog.String("file_id", rec.ID),
		slog.String("path", rec.RelativePath()),
		slog.Int64("size", rec.Size),
	)
	s.notify(events.TypeUploaded, rec)
	return rec, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Record, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns every record whose folder starts with path.
func (s *Service) List(ctx context.Context, path string) ([]*Record, error) {
	return s.repo.ListByFolderPrefix(ctx, pathpolicy.Canonical(path))
}

// Update applies a folder change, then a rename, then a comment change.
// The folder move keeps the original name; the rename happens in the
// (possibly new) folder.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (rec *Record, err error) {
	defer func() { observe("update", err) }()

	rec, err = s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	changed := false

	if in.Filepath != nil {
		folder, err := pathpolicy.Normalize(*in.Filepath)
		if err != nil {
			return nil, err
		}
		if folder != rec.Filepath {
			if rec, err = s.move(ctx, rec, folder); err != nil {
				return nil, err
			}
			changed = true
		}
	}

	if in.Filename != nil && *in.Filename != rec.Filename {
		if rec, err = s.rename(ctx, rec, *in.Filename); err != nil {
			return nil, err
		}
		changed = true
	}

	if in.Comment != nil && *in.Comment != rec.Comment {
		rec, err = s.repo.UpdateFields(ctx, rec.ID, Changes{Comment: in.Comment, ModifiedAt: s.now()})
		if err != nil {
			s.logger.Error("update: comment not saved", slog.String("file_id", id), slog.String("error", err.Error()))
			return nil, err
		}
		changed = true
	}

	if changed {
		s.logger.Info("file updated", slog.String("file_id", rec.ID), slog.String("path", rec.RelativePath()))
		s.notify(events.TypeUpdated, rec)
	}
	return rec, nil
}

func (s *Service) move(ctx context.Context, rec *Record, folder string) (*Record, error) {
	oldAbs := s.storage.Abs(rec.RelativePath())
	newAbs := s.storage.Abs(folder + rec.Name())

	if err := s.storage.EnsureDir(filepath.Dir(newAbs)); err != nil {
		return nil, wrap(ErrFileMove, err)
	}
	if s.storage.Exists(newAbs) {
		return nil, ErrFileExists
	}

	updated, err := s.repo.UpdateFields(ctx, rec.ID, Changes{Filepath: &folder, ModifiedAt: s.now()})
	if err != nil {
		s.logger.Error("update: folder change not saved", slog.String("file_id", rec.ID), slog.String("error", err.Error()))
		return nil, err
	}

	if err := s.storage.Move(oldAbs, newAbs); err != nil {
		s.logger.Error("update: record moved but file not",
			slog.String("file_id", rec.ID),
			slog.String("from", rec.RelativePath()),
			slog.String("to", updated.RelativePath()),
			slog.String("error", err.Error()),
		)
		return nil, err
	}
	return updated, nil
}

func (s *Service) rename(ctx context.Context, rec *Record, filename string) (*Record, error) {
	if err := pathpolicy.ValidateName(filename); err != nil {
		return nil, err
	}
	oldAbs := s.storage.Abs(rec.RelativePath())
	newAbs := s.storage.Abs(rec.Filepath + filename + rec.Extension)
	if s.storage.Exists(newAbs) {
		return nil, ErrFileExists
	}

	updated, err := s.repo.UpdateFields(ctx, rec.ID, Changes{Filename: &filename, ModifiedAt: s.now()})
	if err != nil {
		s.logger.Error("update: rename not saved", slog.String("file_id", rec.ID), slog.String("error", err.Error()))
		return nil, err
	}

	if err := s.storage.Rename(oldAbs, newAbs); err != nil {
		s.logger.Error("update: record renamed but file not",
			slog.String("file_id", rec.ID),
			slog.String("from", rec.RelativePath()),
			slog.String("to", updated.RelativePath()),
			slog.String("error", err.Error()),
		)
		return nil, err
	}
	return updated, nil
}

// Delete removes the row first and the file second. It returns the last
// known state of the record.
func (s *Service) Delete(ctx context.Context, id string) (rec *Record, err error) {
	defer func() { observe("delete", err) }()

	rec, err = s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.repo.DeleteByID(ctx, id); err != nil {
		s.logger.Error("delete: record not removed", slog.String("file_id", id), slog.String("error", err.Error()))
		return nil, err
	}

	if err := s.storage.Remove(s.storage.Abs(rec.RelativePath())); err != nil {
		s.logger.Error("delete: record removed but file left on disk",
			slog.String("file_id", id),
			slog.String("path", rec.RelativePath()),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	s.logger.Info("file deleted", slog.String("file_id", id), slog.String("path", rec.RelativePath()))
	s.notify(events.TypeDeleted, rec)
	return rec, nil
}

// Download opens the physical file of a record. The caller closes it.
func (s *Service) Download(ctx context.Context, id string) (*Record, *os.File, error) {
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	f, err := s.storage.Open(s.storage.Abs(rec.RelativePath()))
	if err != nil {
		return nil, nil, err
	}
	return rec, f, nil
}

// ResolvePath returns the absolute physical path of a record.
func (s *Service) ResolvePath(ctx context.Context, id string) (string, error) {
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	return s.storage.Abs(rec.RelativePath()), nil
}

func (s *Service) notify(kind string, rec *Record) {
	if s.notifier == nil {
		return
	}
	s.notifier.Broadcast(events.Event{Type: kind, FileID: rec.ID, Path: rec.RelativePath(), At: s.now()})
}
