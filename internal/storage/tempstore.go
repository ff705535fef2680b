package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/cnvrt/gemini-edit-image/internal/infra"
)

// TempFile is a request-scoped temporary file holding uploaded bytes. It must
// be released with Remove before the owning request finishes.
type TempFile struct {
	Path     string
	MIMEType string
}

// TempStore writes uploaded bytes into a scratch directory. Each file gets a
// fresh UUID prefix so concurrent requests, and the two files of a dual-image
// request, never collide.
type TempStore struct {
	dir    string
	logger infra.Logger
}

// NewTempStore initializes a TempStore rooted at dir. An empty dir falls back
// to the system temp directory.
func NewTempStore(dir string, logger infra.Logger) (*TempStore, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: ensure temp dir: %w", err)
	}
	return &TempStore{dir: dir, logger: logger}, nil
}

// Dir returns the scratch directory the store writes into.
func (s *TempStore) Dir() string {
	if s == nil {
		return ""
	}
	return s.dir
}

// Save streams the upload into a uniquely named file and returns its handle.
func (s *TempStore) Save(ctx context.Context, originalName, mimeType string, r io.Reader) (*TempFile, error) {
	if s == nil {
		return nil, errors.New("storage: no store configured")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name := uuid.NewString() + "-" + sanitizeName(originalName)
	path := filepath.Join(s.dir, name)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return nil, fmt.Errorf("storage: create temp file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		s.Remove(&TempFile{Path: path})
		return nil, fmt.Errorf("storage: write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		s.Remove(&TempFile{Path: path})
		return nil, fmt.Errorf("storage: close temp file: %w", err)
	}

	s.logger.Debug().Str("path", path).Str("mime", mimeType).Msg("storage: temp file saved")
	return &TempFile{Path: path, MIMEType: mimeType}, nil
}

// Remove deletes the temp file. It is idempotent best-effort: an already
// deleted file is not an error, and other failures are logged but never
// surfaced so they cannot mask the primary response.
func (s *TempStore) Remove(file *TempFile) {
	if s == nil || file == nil || file.Path == "" {
		return
	}
	if err := os.Remove(file.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		s.logger.Warn().Err(err).Str("path", file.Path).Msg("storage: failed to delete temp file")
		return
	}
	s.logger.Debug().Str("path", file.Path).Msg("storage: temp file deleted")
}

// sanitizeName keeps only the base name of the upload so a crafted filename
// cannot escape the scratch directory.
func sanitizeName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(name)
	if name == "." || name == "/" || name == "" {
		return "upload"
	}
	return name
}
