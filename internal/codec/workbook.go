package codec

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/smileynet/addressbook/internal/contact"
	"github.com/smileynet/addressbook/internal/directory"
)

// maxSheetName is the spreadsheet limit on sheet name length.
const maxSheetName = 31

// Workbook stores the directory as an XLSX workbook with one sheet per book,
// named after the book. Each sheet starts with Header.
type Workbook struct{}

var _ Stream = Workbook{}

func (Workbook) Name() string      { return "xlsx" }
func (Workbook) Extension() string { return ".xlsx" }

func (c Workbook) Save(path string, snap directory.Snapshot) error { return saveStream(c, path, snap) }

func (c Workbook) Load(path string) (directory.Snapshot, error) { return loadStream(c, path) }

// Encode writes one sheet per book. A directory with no books produces a
// workbook with a single blank sheet, which Decode ignores.
func (Workbook) Encode(w io.Writer, snap directory.Snapshot) error {
	f := excelize.NewFile()
	defer f.Close()

	seen := make(map[string]bool, len(snap.Books))
	for i, b := range snap.Books {
		if len([]rune(b.Name)) > maxSheetName {
			return fmt.Errorf("%w: book %q: sheet names are limited to %d characters", ErrUnrepresentable, b.Name, maxSheetName)
		}
		// Sheet names are unique regardless of case.
		key := strings.ToLower(b.Name)
		if seen[key] {
			return fmt.Errorf("%w: book %q: sheet name collides with another book", ErrUnrepresentable, b.Name)
		}
		seen[key] = true

		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), b.Name); err != nil {
				return fmt.Errorf("book %q: %w", b.Name, err)
			}
		} else if _, err := f.NewSheet(b.Name); err != nil {
			return fmt.Errorf("book %q: %w", b.Name, err)
		}

		if err := writeSheetRow(f, b.Name, 1, Header); err != nil {
			return err
		}
		for j, ct := range b.Contacts {
			if err := writeSheetRow(f, b.Name, j+2, ct.Values()); err != nil {
				return err
			}
		}
	}
	return f.Write(w)
}

func writeSheetRow(f *excelize.File, sheet string, row int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
		return fmt.Errorf("book %q row %d: %w", sheet, row, err)
	}
	return nil
}

// Decode reads every sheet as a book. Blank sheets are skipped; a sheet whose
// first row is not Header, or a row wider than Header, fails the load.
func (Workbook) Decode(r io.Reader) (directory.Snapshot, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return directory.Snapshot{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	defer f.Close()

	var snap directory.Snapshot
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return directory.Snapshot{}, fmt.Errorf("sheet %q: %w", sheet, err)
		}
		if len(rows) == 0 {
			continue
		}
		if !slices.Equal(rows[0], Header) {
			return directory.Snapshot{}, fmt.Errorf("%w: sheet %q has unexpected header %q", ErrMalformed, sheet, rows[0])
		}

		b := directory.BookSnapshot{Name: sheet}
		for i, row := range rows[1:] {
			if len(row) == 0 {
				continue
			}
			if len(row) > len(Header) {
				return directory.Snapshot{}, fmt.Errorf("%w: sheet %q row %d has %d columns", ErrMalformed, sheet, i+2, len(row))
			}
			// Trailing empty cells are trimmed by the reader.
			padded := make([]string, len(Header))
			copy(padded, row)
			ct, err := contact.FromValues(padded)
			if err != nil {
				return directory.Snapshot{}, fmt.Errorf("%w: %v", ErrMalformed, err)
			}
			b.Contacts = append(b.Contacts, ct)
		}
		snap.Books = append(snap.Books, b)
	}
	return snap, nil
}
