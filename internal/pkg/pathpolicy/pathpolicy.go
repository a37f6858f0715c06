// Package pathpolicy validates logical folder paths and file names before
// they are joined onto the storage root.
//
// It is a narrow traversal guard, not a canonicalizer: symlinks are not
// resolved and redundant separators are left as the caller wrote them.
package pathpolicy

import (
	"errors"
	"strings"
)

var ErrInvalidPath = errors.New("invalid path")

// Normalize rejects folder paths that contain a segment made only of dots
// or equal to "~", and returns the canonical form: leading and trailing "/".
func Normalize(path string) (string, error) {
	for _, segment := range strings.Split(path, "/") {
		if isForbidden(segment) {
			return "", ErrInvalidPath
		}
	}
	return Canonical(path), nil
}

// Canonical only fixes the separators. Used for read-only prefix queries
// where nothing touches the disk.
func Canonical(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if !strings.HasSuffix(path, "/") {
		path += "/"
	}
	return path
}

// ValidateName checks a single file name (with or without extension).
func ValidateName(name string) error {
	if name == "" || strings.ContainsAny(name, "/\x00") || isForbidden(name) {
		return ErrInvalidPath
	}
	return nil
}

// SplitName splits a file name into stem and extension. Leading dots belong
// to the stem, so ".bashrc" has no extension and "archive.tar.gz" yields
// ("archive.tar", ".gz").
func SplitName(name string) (stem, ext string) {
	dot := strings.LastIndex(name, ".")
	if dot <= 0 {
		return name, ""
	}
	if strings.Trim(name[:dot], ".") == "" {
		return name, ""
	}
	return name[:dot], name[dot:]
}

func isForbidden(segment string) bool {
	if segment == "~" {
		return true
	}
	return segment != "" && strings.Trim(segment, ".") == ""
}
