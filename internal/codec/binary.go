package codec

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"io"

	"github.com/smileynet/addressbook/internal/directory"
)

// binaryMagic prefixes every snapshot; the byte after it is the version.
const (
	binaryMagic   = "ABKSNAP"
	binaryVersion = byte(1)
)

// Binary stores the whole snapshot as an opaque gob stream behind a magic
// header. A header or version mismatch fails the load outright.
type Binary struct{}

var _ Stream = Binary{}

func (Binary) Name() string      { return "binary" }
func (Binary) Extension() string { return ".bin" }

func (c Binary) Save(path string, snap directory.Snapshot) error { return saveStream(c, path, snap) }

func (c Binary) Load(path string) (directory.Snapshot, error) { return loadStream(c, path) }

// Encode writes the header and the gob-encoded snapshot.
func (Binary) Encode(w io.Writer, snap directory.Snapshot) error {
	if _, err := io.WriteString(w, binaryMagic); err != nil {
		return err
	}
	if _, err := w.Write([]byte{binaryVersion}); err != nil {
		return err
	}
	return gob.NewEncoder(w).Encode(snap)
}

// Decode checks the header and decodes the snapshot.
func (Binary) Decode(r io.Reader) (directory.Snapshot, error) {
	head := make([]byte, len(binaryMagic)+1)
	if _, err := io.ReadFull(r, head); err != nil {
		return directory.Snapshot{}, fmt.Errorf("%w: short header: %v", ErrFormatMismatch, err)
	}
	if !bytes.Equal(head[:len(binaryMagic)], []byte(binaryMagic)) {
		return directory.Snapshot{}, fmt.Errorf("%w: not a binary snapshot", ErrFormatMismatch)
	}
	if v := head[len(binaryMagic)]; v != binaryVersion {
		return directory.Snapshot{}, fmt.Errorf("%w: snapshot version %d, want %d", ErrFormatMismatch, v, binaryVersion)
	}

	var snap directory.Snapshot
	if err := gob.NewDecoder(r).Decode(&snap); err != nil {
		return directory.Snapshot{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return snap, nil
}
