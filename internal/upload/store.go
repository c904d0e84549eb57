package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/khdigital94/hdforms/internal/parser"
	"github.com/khdigital94/hdforms/pkg/models"
)

const (
	// MaxSize is the largest accepted upload
	MaxSize = 3 << 20
	// URLPath is the public path stored files are served under
	URLPath = "/uploads/form-submissions/"

	suffixAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	suffixLength   = 8
	maxNameRetries = 5
)

var allowedExtensions = map[string]bool{
	"pdf":  true,
	"doc":  true,
	"docx": true,
	"jpg":  true,
	"jpeg": true,
	"png":  true,
	"gif":  true,
}

var (
	ErrTransport      = errors.New("upload transport failed")
	ErrTooLarge       = errors.New("file too large")
	ErrTypeNotAllowed = errors.New("file type not allowed")
	ErrStoreFailed    = errors.New("file could not be stored")
)

// Incoming is one file as received from the client
type Incoming struct {
	Name string
	Size int64
	Body io.Reader
	Err  error // transport error reported by the HTTP layer
}

// Store saves uploads into a single flat directory
type Store struct {
	dir     string
	baseURL string
	logger  *slog.Logger

	dirMu sync.Mutex
	dirOK bool
}

// NewStore creates a store writing to dir; URLs are rooted at publicBaseURL
func NewStore(dir, publicBaseURL string, logger *slog.Logger) *Store {
	return &Store{
		dir:     dir,
		baseURL: strings.TrimRight(publicBaseURL, "/"),
		logger:  logger.With("component", "upload"),
	}
}

// Dir returns the upload directory
func (s *Store) Dir() string {
	return s.dir
}

// URL returns the public URL of a stored file
func (s *Store) URL(name string) string {
	return s.baseURL + URLPath + name
}

// Allowed reports whether the file name carries an accepted extension
func Allowed(name string) bool {
	return allowedExtensions[extension(name)]
}

func extension(name string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(baseName(name)), "."))
}

// baseName strips any client-side directory, including Windows style paths
func baseName(name string) string {
	name = strings.ReplaceAll(name, `\`, "/")
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	return name
}

// EnsureDir creates the upload directory with its listing guards
func (s *Store) EnsureDir() error {
	s.dirMu.Lock()
	defer s.dirMu.Unlock()

	if s.dirOK {
		return nil
	}

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create upload directory: %w", err)
	}

	guards := map[string]string{
		".htaccess":  "Options -Indexes",
		"index.html": "",
	}
	for name, content := range guards {
		path := filepath.Join(s.dir, name)
		if _, err := os.Stat(path); err == nil {
			continue
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
	}

	s.dirOK = true
	return nil
}

// Save validates and stores one uploaded file
func (s *Store) Save(ctx context.Context, in Incoming) (*models.FileDescriptor, error) {
	if in.Err != nil || in.Body == nil {
		return nil, ErrTransport
	}
	if in.Size > MaxSize {
		return nil, ErrTooLarge
	}

	original := baseName(in.Name)
	ext := extension(original)
	if !allowedExtensions[ext] {
		return nil, ErrTypeNotAllowed
	}

	if err := s.EnsureDir(); err != nil {
		s.logger.Error("Upload directory unavailable", "error", err)
		return nil, ErrStoreFailed
	}

	f, name, err := s.create(original, ext)
	if err != nil {
		s.logger.Error("Failed to create upload file", "error", err)
		return nil, ErrStoreFailed
	}

	path := filepath.Join(s.dir, name)
	written, err := io.Copy(f, io.LimitReader(in.Body, MaxSize+1))
	closeErr := f.Close()

	switch {
	case err != nil || closeErr != nil:
		_ = os.Remove(path)
		s.logger.Error("Failed to write upload", "file", name, "error", errors.Join(err, closeErr))
		return nil, ErrStoreFailed
	case written > MaxSize:
		_ = os.Remove(path)
		return nil, ErrTooLarge
	case ctx.Err() != nil:
		_ = os.Remove(path)
		return nil, ctx.Err()
	}

	s.logger.Info("File uploaded", "file", name, "size", written)

	return &models.FileDescriptor{
		Filename:     name,
		OriginalName: in.Name,
		Size:         written,
		URL:          s.URL(name),
	}, nil
}

// create opens a new file with a random suffix; existing files are never overwritten
func (s *Store) create(original, ext string) (*os.File, string, error) {
	stem := parser.Slug(strings.TrimSuffix(original, filepath.Ext(original)))
	if stem == "" {
		stem = "datei"
	}

	for i := 0; i < maxNameRetries; i++ {
		suffix, err := gonanoid.Generate(suffixAlphabet, suffixLength)
		if err != nil {
			return nil, "", fmt.Errorf("failed to generate file name: %w", err)
		}

		name := stem + "-" + suffix + "." + ext
		f, err := os.OpenFile(filepath.Join(s.dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return nil, "", err
		}
		return f, name, nil
	}

	return nil, "", fmt.Errorf("no free file name after %d attempts", maxNameRetries)
}

// Remove deletes stored files by name and returns how many were removed.
// Only the base name of each entry is used.
func (s *Store) Remove(names []string) (int, error) {
	var (
		removed int
		errs    []error
	)

	for _, name := range names {
		base := filepath.Base(baseName(name))
		if base == "" || base == "." || base == ".." || strings.HasPrefix(base, ".") || base == "index.html" {
			continue
		}

		err := os.Remove(filepath.Join(s.dir, base))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to remove %s: %w", base, err))
			continue
		}
		removed++
	}

	return removed, errors.Join(errs...)
}
