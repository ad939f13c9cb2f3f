package codec

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/smileynet/addressbook/internal/contact"
	"github.com/smileynet/addressbook/internal/directory"
)

// Header is the column header shared by the tabular layouts.
var Header = []string{"First Name", "Last Name", "Address", "City", "State", "Zip", "Phone", "Email"}

const bookColumn = "Address Book"

// CSV stores the directory as a single table with a leading book column.
// A row that carries only the book column marks a book with no contacts.
type CSV struct{}

var _ Stream = CSV{}

func (CSV) Name() string      { return "csv" }
func (CSV) Extension() string { return ".csv" }

func (c CSV) Save(path string, snap directory.Snapshot) error { return saveStream(c, path, snap) }

func (c CSV) Load(path string) (directory.Snapshot, error) { return loadStream(c, path) }

// Encode writes the header followed by one row per contact.
func (CSV) Encode(w io.Writer, snap directory.Snapshot) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(append([]string{bookColumn}, Header...)); err != nil {
		return err
	}
	for _, r := range flatten(snap) {
		f := r.fields()
		if err := cw.Write(append([]string{r.AddressBook}, f.Values()...)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Decode reads a table written by Encode. A header mismatch or a row with
// the wrong column count fails the whole load.
func (CSV) Decode(r io.Reader) (directory.Snapshot, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(Header) + 1

	head, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return directory.Snapshot{}, nil
		}
		return directory.Snapshot{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if !slices.Equal(head, append([]string{bookColumn}, Header...)) {
		return directory.Snapshot{}, fmt.Errorf("%w: unexpected header %q", ErrMalformed, head)
	}

	var recs []record
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return directory.Snapshot{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		f, err := contact.FromValues(row[1:])
		if err != nil {
			return directory.Snapshot{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		recs = append(recs, newRecord(row[0], f))
	}
	return unflatten(recs)
}
