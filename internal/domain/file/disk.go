package file

import (
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Info is the subset of file metadata reconciliation needs.
type Info struct {
	Size      int64
	CreatedAt time.Time
}

// Disk is the local-filesystem Storage rooted at one folder. It maps OS
// errors to the package's error kinds and never follows a record outside
// the root on its own; callers validate paths first.
type Disk struct {
	root string
}

// NewDisk creates the root folder when it does not exist yet.
func NewDisk(root string) (*Disk, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve storage root %s: %w", root, err)
	}
	if err := os.MkdirAll(abs, 0o750); err != nil {
		return nil, fmt.Errorf("create storage root %s: %w", abs, err)
	}
	return &Disk{root: strings.TrimSuffix(abs, string(filepath.Separator))}, nil
}

func (d *Disk) Root() string { return d.root }

// Abs joins a root-relative path ("/a/b/c.txt") onto the root by plain
// concatenation.
func (d *Disk) Abs(rel string) string {
	return d.root + filepath.FromSlash(rel)
}

// Exists reports whether anything occupies abs.
func (d *Disk) Exists(abs string) bool {
	_, err := os.Lstat(abs)
	return err == nil
}

// Write creates abs with data. Parent folders are created as needed and an
// existing entry is never overwritten.
func (d *Disk) Write(abs string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(abs), 0o750); err != nil {
		return fmt.Errorf("%w: %w", ErrFileSave, err)
	}

	f, err := os.OpenFile(abs, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return ErrFileExists
		}
		return fmt.Errorf("%w: %w", ErrFileSave, err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(abs)
		return fmt.Errorf("%w: %w", ErrFileSave, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(abs)
		return fmt.Errorf("%w: %w", ErrFileSave, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(abs)
		return fmt.Errorf("%w: %w", ErrFileSave, err)
	}
	return nil
}

// Rename changes the name of a file inside its folder. The caller checks
// that newAbs is free.
func (d *Disk) Rename(oldAbs, newAbs string) error {
	if err := os.Rename(oldAbs, newAbs); err != nil {
		return fmt.Errorf("%w: %w", ErrFileRename, err)
	}
	return nil
}

// Move relocates a file, replacing the destination when the OS allows it.
func (d *Disk) Move(oldAbs, newAbs string) error {
	if err := os.MkdirAll(filepath.Dir(newAbs), 0o750); err != nil {
		return fmt.Errorf("%w: %w", ErrFileMove, err)
	}
	if err := os.Rename(oldAbs, newAbs); err != nil {
		return fmt.Errorf("%w: %w", ErrFileMove, err)
	}
	return nil
}

func (d *Disk) EnsureDir(absDir string) error {
	return os.MkdirAll(absDir, 0o750)
}

// Remove deletes abs. A missing file is an error too.
func (d *Disk) Remove(abs string) error {
	if err := os.Remove(abs); err != nil {
		return fmt.Errorf("%w: %w", ErrFileDelete, err)
	}
	return nil
}

// Open returns the file for streaming. The caller closes it.
func (d *Disk) Open(abs string) (*os.File, error) {
	f, err := os.Open(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrFileMissing
		}
		return nil, fmt.Errorf("open %s: %w", abs, err)
	}
	return f, nil
}

// Stat reads size and creation time. Creation time is the inode change
// time on Linux and the modification time elsewhere.
func (d *Disk) Stat(abs string) (Info, error) {
	info, err := os.Stat(abs)
	if err != nil {
		return Info{}, fmt.Errorf("%w: %w", ErrFileStat, err)
	}
	return Info{Size: info.Size(), CreatedAt: changeTime(info)}, nil
}

// Walk yields the root-relative path ("/a/b.txt") of every regular file
// below the root, depth first. Directories are descended, not yielded.
// A traversal error is yielded once as the last element.
func (d *Disk) Walk() iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		root := d.root
		if root == "" {
			root = string(filepath.Separator)
		}
		err := filepath.WalkDir(root, func(p string, entry fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !entry.Type().IsRegular() {
				return nil
			}
			rel, err := filepath.Rel(root, p)
			if err != nil {
				return err
			}
			if !yield("/"+filepath.ToSlash(rel), nil) {
				return filepath.SkipAll
			}
			return nil
		})
		if err != nil {
			yield("", fmt.Errorf("%w: %w", ErrStorageWalk, err))
		}
	}
}
