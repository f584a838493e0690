package ioutils

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"golang.org/x/text/unicode/norm"
)

// ErrInvalidFileName is returned for names that cannot be used as a single
// path element.
var ErrInvalidFileName = errors.New("invalid file name")

const maxFileNameBytes = 255

// ValidateFileName checks that a client supplied name is a single, plain
// file name and returns it in Unicode NFC form.
//
// Names are rejected, not rewritten, when they:
//   - are empty, "." or ".."
//   - contain a path separator (/ or \)
//   - contain NUL or other control characters
//   - are longer than 255 bytes
//
// Example:
//
//	name, err := ValidateFileName("Song.mp3")         // "Song.mp3", nil
//	_, err = ValidateFileName("../../etc/passwd")     // ErrInvalidFileName
func ValidateFileName(name string) (string, error) {
	name = norm.NFC.String(name)

	switch {
	case strings.TrimSpace(name) == "":
		return "", fmt.Errorf("%w: empty", ErrInvalidFileName)
	case name == "." || name == "..":
		return "", fmt.Errorf("%w: %q", ErrInvalidFileName, name)
	case strings.ContainsAny(name, `/\`):
		return "", fmt.Errorf("%w: %q contains a path separator", ErrInvalidFileName, name)
	case len(name) > maxFileNameBytes:
		return "", fmt.Errorf("%w: longer than %d bytes", ErrInvalidFileName, maxFileNameBytes)
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return "", fmt.Errorf("%w: %q contains a control character", ErrInvalidFileName, name)
		}
	}
	return name, nil
}

// TempPath returns a hidden, unique path in dir for staging a write that is
// later renamed into place. Its length does not depend on the final name, so
// any name that fits the filesystem can be staged.
func TempPath(dir string) string {
	return filepath.Join(dir, "."+uuid.NewString()+".tmp")
}

// WriteStream copies r into path through a temporary file in the same
// directory and renames it into place, so readers never observe a partly
// written file. An existing file at path is replaced.
//
// Returns the number of bytes written.
func WriteStream(ctx context.Context, path string, r io.Reader) (n int64, err error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".stream-*.part")
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			err = multierr.Append(err, RemoveIfExists(tmp.Name()))
		}
	}()

	n, err = io.Copy(tmp, r)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return n, err
	}
	if err = ctx.Err(); err != nil {
		return n, err
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return n, err
	}
	return n, nil
}

// WriteFile writes data to a file, creating it if necessary.
func WriteFile(path string, data []byte) error {
	return os.WriteFile(path, data, 0644)
}

// RemoveIfExists removes path, ignoring a missing file.
func RemoveIfExists(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// EnsureDir creates a directory and all parent directories if they don't exist.
//
// Directories are created with mode 0755 (rwxr-xr-x).
// If the directory already exists, no error is returned.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}
