// Package media copies screenshots and videos into application storage and
// attaches them to score records.
package media

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrOutsideStore is returned when a path does not belong to the store.
var ErrOutsideStore = errors.New("path outside media store")

// Store is a directory of copied media files.
type Store struct {
	base  string
	now   func() time.Time
	newID func() uuid.UUID
}

// NewStore creates the directory if needed.
func NewStore(base string) (*Store, error) {
	if base == "" {
		return nil, errors.New("empty media directory")
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("resolve media dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create media dir: %w", err)
	}
	return &Store{base: abs, now: time.Now, newID: uuid.New}, nil
}

// Dir returns the absolute storage directory.
func (s *Store) Dir() string {
	return s.base
}

// FileName builds the stored name for a media file.
func FileName(t time.Time, id uuid.UUID, ext string) string {
	return fmt.Sprintf("media_%s_%s.%s", t.Format("20060102_150405"), id, strings.TrimPrefix(ext, "."))
}

// Put copies r into the store and returns the new file's path. The
// extension is taken from name; when name has none it is sniffed from the
// content, falling back to "jpg" for images and "mp4" for everything else.
func (s *Store) Put(name string, r io.Reader) (string, error) {
	br := bufio.NewReader(r)
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	if ext == "" {
		head, _ := br.Peek(512)
		ext = "mp4"
		if strings.HasPrefix(http.DetectContentType(head), "image/") {
			ext = "jpg"
		}
	}

	dst := filepath.Join(s.base, FileName(s.now(), s.newID(), ext))
	f, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("create media file: %w", err)
	}
	if _, err := io.Copy(f, br); err != nil {
		f.Close()
		os.Remove(dst)
		return "", fmt.Errorf("copy media: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(dst)
		return "", fmt.Errorf("close media file: %w", err)
	}
	return dst, nil
}

// Import copies the file at src into the store.
func (s *Store) Import(src string) (string, error) {
	f, err := os.Open(src)
	if err != nil {
		return "", fmt.Errorf("open media: %w", err)
	}
	defer f.Close()
	return s.Put(src, f)
}

// Open returns a reader for a stored file.
func (s *Store) Open(path string) (io.ReadCloser, error) {
	if err := s.owns(path); err != nil {
		return nil, err
	}
	return os.Open(path)
}

// Remove deletes a stored file. A file that is already gone is not an
// error.
func (s *Store) Remove(path string) error {
	if err := s.owns(path); err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove media: %w", err)
	}
	return nil
}

// URL returns a file:// URL for a stored file.
func (s *Store) URL(path string) string {
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(path)}
	return u.String()
}

func (s *Store) owns(path string) error {
	rel, err := filepath.Rel(s.base, filepath.Clean(path))
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") || filepath.IsAbs(rel) {
		return fmt.Errorf("%s: %w", path, ErrOutsideStore)
	}
	return nil
}
