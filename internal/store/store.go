// Package store persists a directory to the filesystem through a codec.
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/smileynet/addressbook/internal/codec"
	"github.com/smileynet/addressbook/internal/directory"
)

// ErrInvalidName indicates a store name is empty or contains path traversal components.
var ErrInvalidName = errors.New("store: invalid name")

// FileStore saves and loads a directory under a base directory, one file per
// format, named <name><extension>.
type FileStore struct {
	baseDir  string
	name     string
	registry *codec.Registry
	logger   *zap.Logger
}

// Option configures a FileStore.
type Option func(*FileStore)

// WithLogger sets the logger used for save and load events.
func WithLogger(l *zap.Logger) Option {
	return func(s *FileStore) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewFileStore creates a FileStore that keeps files named name under baseDir,
// resolving formats through reg.
func NewFileStore(baseDir, name string, reg *codec.Registry, opts ...Option) *FileStore {
	s := &FileStore{
		baseDir:  baseDir,
		name:     name,
		registry: reg,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the file path used for format.
func (s *FileStore) Path(format string) (string, error) {
	c, err := s.registry.New(format)
	if err != nil {
		return "", err
	}
	return s.path(c)
}

// Save writes the directory's current state in format and returns the path written.
func (s *FileStore) Save(d *directory.Directory, format string) (string, error) {
	c, err := s.registry.New(format)
	if err != nil {
		return "", fmt.Errorf("store: %w", err)
	}
	p, err := s.path(c)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.baseDir, 0o755); err != nil {
		return "", fmt.Errorf("store: creating directory: %w", err)
	}
	if err := s.save(c, p, d); err != nil {
		return "", err
	}
	return p, nil
}

// Load replaces the directory's state with the file saved in format.
// Returns (true, nil) if loaded, (false, nil) if no file exists yet.
// On any error the directory is unchanged.
func (s *FileStore) Load(d *directory.Directory, format string) (bool, error) {
	c, err := s.registry.New(format)
	if err != nil {
		return false, fmt.Errorf("store: %w", err)
	}
	p, err := s.path(c)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(p); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("store: reading %s: %w", p, err)
	}
	if err := s.load(c, p, d); err != nil {
		return false, err
	}
	return true, nil
}

// Export writes the directory to an explicit path, choosing the codec by extension.
func (s *FileStore) Export(d *directory.Directory, path string) error {
	c, err := s.registry.ForPath(path)
	if err != nil {
		return fmt.Errorf("store: %w", err)
	}
	return s.save(c, path, d)
}

// Import replaces the directory's state from an explicit path, choosing the
// codec by extension. A missing file is an error.
func (s *FileStore) Import(d *directory.Directory, path string) error {
	c, err := s.registry.ForPath(path)
	if err != nil {
		return fmt.Errorf("store: %w", err)
	}
	return s.load(c, path, d)
}

func (s *FileStore) save(c codec.Codec, p string, d *directory.Directory) error {
	snap := d.Snapshot()
	if err := c.Save(p, snap); err != nil {
		s.logger.Error("save failed", zap.String("format", c.Name()), zap.String("path", p), zap.Error(err))
		return fmt.Errorf("store: saving: %w", err)
	}
	s.logger.Info("directory saved",
		zap.String("format", c.Name()),
		zap.String("path", p),
		zap.Int("books", len(snap.Books)),
		zap.Int("contacts", snap.ContactCount()))
	return nil
}

// load decodes the whole file before touching d; Restore then validates
// before swapping state in. Bad records in a decodable file are load failures
// too.
func (s *FileStore) load(c codec.Codec, p string, d *directory.Directory) error {
	snap, err := c.Load(p)
	if err != nil {
		s.logger.Error("load failed", zap.String("format", c.Name()), zap.String("path", p), zap.Error(err))
		return fmt.Errorf("store: loading: %w", err)
	}
	if err := d.Restore(snap); err != nil {
		s.logger.Error("restore failed", zap.String("format", c.Name()), zap.String("path", p), zap.Error(err))
		return fmt.Errorf("store: loading: %w", &codec.PersistenceError{Codec: c.Name(), Op: "load", Path: p, Err: err})
	}
	s.logger.Info("directory loaded",
		zap.String("format", c.Name()),
		zap.String("path", p),
		zap.Int("books", len(snap.Books)),
		zap.Int("contacts", snap.ContactCount()))
	return nil
}

// path returns the filesystem path for a codec's file.
// It rejects names that are empty, dot-segments, or contain path separators.
func (s *FileStore) path(c codec.Codec) (string, error) {
	if s.name == "" || s.name == "." || s.name == ".." || s.name != filepath.Base(s.name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, s.name)
	}
	return filepath.Join(s.baseDir, s.name+c.Extension()), nil
}
