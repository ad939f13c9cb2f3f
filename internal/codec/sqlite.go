package codec

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"

	_ "modernc.org/sqlite"

	"github.com/smileynet/addressbook/internal/contact"
	"github.com/smileynet/addressbook/internal/directory"
)

//go:embed schema.sql
var schemaSQL string

// sqliteVersion is stored in PRAGMA user_version and checked on load.
const sqliteVersion = 1

// SQLite stores the directory as an SQLite database with a books table and a
// contacts table, both ordered by an explicit position column.
type SQLite struct{}

var _ Codec = SQLite{}

func (SQLite) Name() string      { return "sqlite" }
func (SQLite) Extension() string { return ".db" }

// Save writes a fresh database beside path and renames it into place.
func (c SQLite) Save(path string, snap directory.Snapshot) error {
	tmp := path + ".tmp"
	_ = os.Remove(tmp)
	if err := writeDatabase(tmp, snap); err != nil {
		_ = os.Remove(tmp)
		return wrap(c.Name(), "save", path, err)
	}
	return wrap(c.Name(), "save", path, os.Rename(tmp, path))
}

// Load reads a database written by Save. A missing file is an error rather
// than an empty directory, since opening would otherwise create it.
func (c SQLite) Load(path string) (directory.Snapshot, error) {
	if _, err := os.Stat(path); err != nil {
		return directory.Snapshot{}, wrap(c.Name(), "load", path, err)
	}
	snap, err := readDatabase(path)
	if err != nil {
		return directory.Snapshot{}, wrap(c.Name(), "load", path, err)
	}
	return snap, nil
}

func openDatabase(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	// One connection keeps pragmas and the transaction on the same handle.
	db.SetMaxOpenConns(1)
	return db, nil
}

func writeDatabase(path string, snap directory.Snapshot) (err error) {
	db, err := openDatabase(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := db.Close(); err == nil {
			err = cerr
		}
	}()

	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", sqliteVersion)); err != nil {
		return fmt.Errorf("failed to set version: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for bi, b := range snap.Books {
		if _, err = tx.Exec(`INSERT INTO books (position, name) VALUES (?, ?)`, bi, b.Name); err != nil {
			return fmt.Errorf("book %q: %w", b.Name, err)
		}
		for ci, f := range b.Contacts {
			_, err = tx.Exec(`INSERT INTO contacts
				(book_position, position, first_name, last_name, address, city, state, zip, phone, email)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				bi, ci, f.FirstName, f.LastName, f.Address, f.City, f.State, f.Zip, f.Phone, f.Email)
			if err != nil {
				return fmt.Errorf("book %q contact %d: %w", b.Name, ci+1, err)
			}
		}
	}
	return tx.Commit()
}

func readDatabase(path string) (directory.Snapshot, error) {
	db, err := openDatabase(path)
	if err != nil {
		return directory.Snapshot{}, err
	}
	defer db.Close()

	var version int
	if err := db.QueryRow(`PRAGMA user_version`).Scan(&version); err != nil {
		return directory.Snapshot{}, fmt.Errorf("%w: %v", ErrFormatMismatch, err)
	}
	if version != sqliteVersion {
		return directory.Snapshot{}, fmt.Errorf("%w: database version %d, want %d", ErrFormatMismatch, version, sqliteVersion)
	}

	var snap directory.Snapshot
	positions := make(map[int]int)

	rows, err := db.Query(`SELECT position, name FROM books ORDER BY position`)
	if err != nil {
		return directory.Snapshot{}, fmt.Errorf("%w: %v", ErrFormatMismatch, err)
	}
	for rows.Next() {
		var pos int
		var name string
		if err := rows.Scan(&pos, &name); err != nil {
			rows.Close()
			return directory.Snapshot{}, err
		}
		positions[pos] = len(snap.Books)
		snap.Books = append(snap.Books, directory.BookSnapshot{Name: name})
	}
	if err := errors.Join(rows.Err(), rows.Close()); err != nil {
		return directory.Snapshot{}, err
	}

	rows, err = db.Query(`SELECT book_position, first_name, last_name, address, city, state, zip, phone, email
		FROM contacts ORDER BY book_position, position`)
	if err != nil {
		return directory.Snapshot{}, fmt.Errorf("%w: %v", ErrFormatMismatch, err)
	}
	defer rows.Close()
	for rows.Next() {
		var pos int
		var f contact.Fields
		if err := rows.Scan(&pos, &f.FirstName, &f.LastName, &f.Address, &f.City, &f.State, &f.Zip, &f.Phone, &f.Email); err != nil {
			return directory.Snapshot{}, err
		}
		bi, ok := positions[pos]
		if !ok {
			return directory.Snapshot{}, fmt.Errorf("%w: contact refers to missing book %d", ErrMalformed, pos)
		}
		snap.Books[bi].Contacts = append(snap.Books[bi].Contacts, f)
	}
	return snap, rows.Err()
}
