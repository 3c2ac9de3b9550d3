package service

import (
	"archive/zip"
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	_ "github.com/mattn/go-sqlite3" // registers the sqlite3 driver
	"golang.org/x/net/html"
)

const (
	// defaultAnkiDeckName names the deck when the package declares none.
	defaultAnkiDeckName = "Imported Deck"

	// maxAnkiCollectionBytes caps the decompressed collection database.
	maxAnkiCollectionBytes = 256 << 20

	ankiFieldSeparator = "\x1f"
)

// ankiCollectionNames are the collection entries an .apkg may carry, newest
// format first.
var ankiCollectionNames = []string{"collection.anki21", "collection.anki2"}

// ankiPackage is what an import keeps from an .apkg file.
type ankiPackage struct {
	DeckName string
	Notes    []notePair
	Skipped  int
}

// readAnkiPackage unpacks an .apkg archive and reads its notes. The first two
// fields of each note become the front and back, with HTML stripped.
func readAnkiPackage(ctx context.Context, data []byte) (*ankiPackage, error) {
	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: not a valid .apkg archive: %w", ErrInvalidImport, err)
	}

	entry := findAnkiCollection(archive)
	if entry == nil {
		return nil, fmt.Errorf("%w: no collection.anki21 or collection.anki2 in package", ErrInvalidImport)
	}

	path, err := extractToTemp(entry)
	if err != nil {
		return nil, err
	}
	defer os.Remove(path)

	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("failed to open anki collection: %w", err)
	}
	defer db.Close()

	pkg := &ankiPackage{DeckName: ankiDeckName(ctx, db)}

	rows, err := db.QueryContext(ctx, "SELECT flds FROM notes ORDER BY id LIMIT ?", MaxImportCards+1)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query notes: %w", ErrInvalidImport, err)
	}
	defer rows.Close()

	for rows.Next() {
		var flds string
		if err := rows.Scan(&flds); err != nil {
			return nil, fmt.Errorf("%w: failed to read note: %w", ErrInvalidImport, err)
		}
		if len(pkg.Notes) >= MaxImportCards {
			pkg.Skipped++
			continue
		}

		fields := strings.SplitN(flds, ankiFieldSeparator, 3)
		if len(fields) < 2 {
			pkg.Skipped++
			continue
		}
		front, back := stripHTML(fields[0]), stripHTML(fields[1])
		if front == "" || back == "" {
			pkg.Skipped++
			continue
		}
		pkg.Notes = append(pkg.Notes, notePair{Front: front, Back: back})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: failed to read notes: %w", ErrInvalidImport, err)
	}
	return pkg, nil
}

func findAnkiCollection(archive *zip.Reader) *zip.File {
	for _, name := range ankiCollectionNames {
		for _, f := range archive.File {
			if f.Name == name {
				return f
			}
		}
	}
	return nil
}

// extractToTemp copies a zip entry into a temporary file and returns its
// path. The caller removes the file.
func extractToTemp(entry *zip.File) (string, error) {
	src, err := entry.Open()
	if err != nil {
		return "", fmt.Errorf("%w: failed to open %s: %w", ErrInvalidImport, entry.Name, err)
	}
	defer src.Close()

	tmp, err := os.CreateTemp("", "anki-*.db")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	path := tmp.Name()

	n, err := io.Copy(tmp, io.LimitReader(src, maxAnkiCollectionBytes+1))
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err == nil && n > maxAnkiCollectionBytes {
		err = fmt.Errorf("%w: collection database is larger than %d bytes", ErrImportTooLarge, maxAnkiCollectionBytes)
	}
	if err != nil {
		_ = os.Remove(path)
		if errors.Is(err, ErrImportTooLarge) {
			return "", err
		}
		return "", fmt.Errorf("%w: failed to extract collection: %w", ErrInvalidImport, err)
	}
	return path, nil
}

// ankiDeckName returns the first deck named something other than "Default",
// then any deck name, then defaultAnkiDeckName. Decks are visited in id order.
func ankiDeckName(ctx context.Context, db *sql.DB) string {
	var raw string
	if err := db.QueryRowContext(ctx, "SELECT decks FROM col LIMIT 1").Scan(&raw); err != nil {
		return defaultAnkiDeckName
	}

	var decks map[string]struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal([]byte(raw), &decks); err != nil {
		return defaultAnkiDeckName
	}

	ids := make([]string, 0, len(decks))
	for id := range decks {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	first := ""
	for _, id := range ids {
		name := strings.TrimSpace(decks[id].Name)
		if name == "" {
			continue
		}
		if first == "" {
			first = name
		}
		if name != "Default" {
			return name
		}
	}
	if first != "" {
		return first
	}
	return defaultAnkiDeckName
}

// stripHTML returns the text content of an Anki field with tags removed,
// entities decoded and whitespace collapsed. Script and style bodies are
// dropped.
func stripHTML(field string) string {
	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(field))
	skip := 0
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			return strings.Join(strings.Fields(b.String()), " ")
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			switch string(name) {
			case "script", "style":
				if tt == html.StartTagToken {
					skip++
				}
			case "br", "div", "p", "li", "tr":
				b.WriteByte(' ')
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			switch string(name) {
			case "script", "style":
				if skip > 0 {
					skip--
				}
			case "div", "p", "li", "td", "tr":
				b.WriteByte(' ')
			}
		}
	}
}
