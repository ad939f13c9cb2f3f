package codec

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/smileynet/addressbook/internal/directory"
)

// YAML stores the directory as a flat YAML sequence with the same keys as JSON.
type YAML struct{}

var _ Stream = YAML{}

func (YAML) Name() string      { return "yaml" }
func (YAML) Extension() string { return ".yaml" }

func (c YAML) Save(path string, snap directory.Snapshot) error { return saveStream(c, path, snap) }

func (c YAML) Load(path string) (directory.Snapshot, error) { return loadStream(c, path) }

// Encode writes snap as a YAML sequence.
func (YAML) Encode(w io.Writer, snap directory.Snapshot) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(flatten(snap)); err != nil {
		return err
	}
	return enc.Close()
}

// Decode reads a YAML sequence written by Encode. An empty document is an
// empty directory; unknown keys are rejected.
func (YAML) Decode(r io.Reader) (directory.Snapshot, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var recs []record
	if err := dec.Decode(&recs); err != nil {
		if errors.Is(err, io.EOF) {
			return directory.Snapshot{}, nil
		}
		return directory.Snapshot{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return unflatten(recs)
}
