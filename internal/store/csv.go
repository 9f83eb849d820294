package store

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const utf8BOM = "\ufeff"

// ErrNoFile is returned when the persisted table does not exist yet
var ErrNoFile = errors.New("roster file not found")

// Snapshot is a persisted table read back from storage, before normalization
type Snapshot struct {
	Layout  Layout
	Columns []string // header columns found, in file order
	Rows    []RawPlayer
}

// HasColumn reports whether the snapshot header carried the column
func (s *Snapshot) HasColumn(column string) bool {
	for _, c := range s.Columns {
		if c == column {
			return true
		}
	}
	return false
}

// FileIdentity identifies one version of a persisted file
type FileIdentity struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// String renders the identity as a memo key
func (f FileIdentity) String() string {
	return fmt.Sprintf("%s:%d:%d", f.Path, f.Size, f.ModTime.UnixNano())
}

// StatFile returns the identity of the file at path, ErrNoFile when it is missing
func StatFile(path string) (FileIdentity, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return FileIdentity{}, fmt.Errorf("%w: %s", ErrNoFile, path)
		}
		return FileIdentity{}, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	return FileIdentity{Path: path, Size: info.Size(), ModTime: info.ModTime()}, nil
}

// WriteCSV persists the table, replacing any previous file at path.
// The enriched layout is written with a UTF-8 BOM so spreadsheet tools pick up the encoding.
func WriteCSV(path string, table *Table) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := EncodeCSV(tmp, table.RawRows(), table.Layout.Columns(), table.Layout == LayoutEnriched); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

// EncodeCSV writes the header and one line per row for the given columns
func EncodeCSV(w io.Writer, rows []RawPlayer, columns []string, withBOM bool) error {
	if withBOM {
		if _, err := io.WriteString(w, utf8BOM); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	record := make([]string, len(columns))
	for _, raw := range rows {
		for i, col := range columns {
			record[i] = raw.Field(col)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write row %q: %w", raw.Name, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// ReadCSV loads a persisted table. Either layout is accepted, with or without BOM;
// columns are matched by header name.
func ReadCSV(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNoFile, path)
		}
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	return DecodeCSV(f)
}

// IsColumn reports whether column is a persisted column name
func IsColumn(column string) bool {
	for _, c := range LayoutEnriched.Columns() {
		if c == column {
			return true
		}
	}
	return false
}

// DecodeCSV parses CSV content as written by EncodeCSV or by a pandas export
func DecodeCSV(r io.Reader) (*Snapshot, error) {
	// BOMOverride strips a leading BOM and otherwise passes UTF-8 through
	decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	cr := csv.NewReader(transform.NewReader(r, decoder))
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty roster file")
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	columns := make([]string, len(header))
	for i, h := range header {
		columns[i] = strings.ToLower(strings.TrimSpace(h))
	}

	snap := &Snapshot{Layout: LayoutBasic, Columns: columns}
	for _, c := range columns {
		if c == "height" || c == "foot" || c == "debut" || c == "goals" || c == "assists" {
			snap.Layout = LayoutEnriched
			break
		}
	}

	for line := 2; ; line++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read line %d: %w", line, err)
		}

		var raw RawPlayer
		for i, value := range record {
			if i < len(columns) {
				raw.SetField(columns[i], value)
			}
		}
		snap.Rows = append(snap.Rows, raw)
	}

	return snap, nil
}
