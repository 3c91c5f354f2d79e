package dataset

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// File is a discovered CSV data file and the table it feeds.
type File struct {
	Path  string
	Name  string
	Table string
}

// Discover lists the CSV files directly inside dir, resolving each file name
// to its destination table. The table is the file-name prefix before the
// first underscore; "user" maps to the users table because "user" is a
// reserved word in Postgres.
func Discover(dir string) ([]File, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dataset dir: %w", err)
	}

	var files []File
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".csv") {
			continue
		}
		table, err := tableFor(e.Name())
		if err != nil {
			return nil, err
		}
		files = append(files, File{
			Path:  filepath.Join(dir, e.Name()),
			Name:  e.Name(),
			Table: table,
		})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

func tableFor(name string) (string, error) {
	prefix, _, _ := strings.Cut(name, "_")
	switch prefix {
	case "user":
		return "users", nil
	case "marketing":
		return "marketing", nil
	default:
		return "", fmt.Errorf("file %q: no table for prefix %q", name, prefix)
	}
}

// ReadRecords parses a preprocessed CSV file, returning the header and the
// data rows. Rows may be ragged only if Preprocess was skipped.
func ReadRecords(path string) (header []string, rows [][]string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("%s: missing header row", path)
	}
	return records[0], records[1:], nil
}
