// Package codec encodes and decodes a directory snapshot to and from its
// supported on-disk representations.
package codec

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/smileynet/addressbook/internal/directory"
)

// Sentinel errors for caller-checkable conditions.
var (
	// ErrFormatMismatch is returned when a file does not carry the header
	// or version the codec expects.
	ErrFormatMismatch = errors.New("codec: format mismatch")

	// ErrMalformed is returned when a file's structure cannot be decoded.
	ErrMalformed = errors.New("codec: malformed data")

	// ErrUnrepresentable is returned by Save when a value cannot be written
	// in the format without reading back differently.
	ErrUnrepresentable = errors.New("codec: value not representable")
)

// Codec saves and loads a whole directory snapshot at a path.
// Load never partially applies anything: it returns a complete Snapshot or
// an error.
type Codec interface {
	Name() string
	Extension() string
	Save(path string, snap directory.Snapshot) error
	Load(path string) (directory.Snapshot, error)
}

// Stream is implemented by codecs whose representation is a single byte stream.
type Stream interface {
	Codec
	Encode(w io.Writer, snap directory.Snapshot) error
	Decode(r io.Reader) (directory.Snapshot, error)
}

// PersistenceError reports a failed save or load.
type PersistenceError struct {
	Codec string // Codec name, e.g. "json".
	Op    string // "save" or "load".
	Path  string
	Err   error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s %s %s: %s", e.Codec, e.Op, e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Is reports every PersistenceError as directory.ErrPersistence.
func (e *PersistenceError) Is(target error) bool {
	return target == directory.ErrPersistence
}

func wrap(codec, op, path string, err error) error {
	if err == nil {
		return nil
	}
	return &PersistenceError{Codec: codec, Op: op, Path: path, Err: err}
}

// saveStream encodes snap into a temporary file beside path and renames it
// into place, so path only ever holds a complete encoding.
func saveStream(c Stream, path string, snap directory.Snapshot) error {
	return wrap(c.Name(), "save", path, atomicWrite(path, func(w io.Writer) error {
		return c.Encode(w, snap)
	}))
}

// loadStream opens path and decodes it with c.
func loadStream(c Stream, path string) (directory.Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return directory.Snapshot{}, wrap(c.Name(), "load", path, err)
	}
	defer f.Close()

	snap, err := c.Decode(bufio.NewReader(f))
	if err != nil {
		return directory.Snapshot{}, wrap(c.Name(), "load", path, err)
	}
	return snap, nil
}

// atomicWrite runs write against a temp file in path's directory and renames
// it over path on success. The temp file is removed on every failure path.
func atomicWrite(path string, write func(io.Writer) error) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	bw := bufio.NewWriter(tmp)
	if err = write(bw); err != nil {
		return err
	}
	if err = bw.Flush(); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
