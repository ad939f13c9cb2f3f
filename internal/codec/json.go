package codec

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/smileynet/addressbook/internal/directory"
)

// JSON stores the directory as a flat JSON array of contact objects, each
// tagged with its addressBook.
type JSON struct{}

var _ Stream = JSON{}

func (JSON) Name() string      { return "json" }
func (JSON) Extension() string { return ".json" }

func (c JSON) Save(path string, snap directory.Snapshot) error { return saveStream(c, path, snap) }

func (c JSON) Load(path string) (directory.Snapshot, error) { return loadStream(c, path) }

// Encode writes snap as an indented JSON array.
func (JSON) Encode(w io.Writer, snap directory.Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(flatten(snap))
}

// Decode reads a JSON array written by Encode. Unknown keys are rejected.
func (JSON) Decode(r io.Reader) (directory.Snapshot, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	var recs []record
	if err := dec.Decode(&recs); err != nil {
		return directory.Snapshot{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return unflatten(recs)
}
