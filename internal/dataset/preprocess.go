package dataset

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"log"
	"os"
)

// Summary reports what Preprocess changed in one file.
type Summary struct {
	ScrubbedNULs bool
	Malformed    int
	Merged       int
	Dropped      int
}

// Preprocess repairs the two kinds of corruption observed in the raw dataset:
//
//  1. NUL (0x00) bytes embedded in lines
//  2. a row spilling over onto the next line, leaving two fragments that
//     together hold one row's fields
//
// A data row is malformed when it has at least one non-empty field but fewer
// non-empty fields than the header has columns. Two consecutive malformed
// rows whose raw field counts sum to the column count are merged back into
// one row; a malformed row with no such partner is dropped. The file is
// rewritten atomically.
func Preprocess(path string, logger *log.Logger) (Summary, error) {
	var sum Summary

	raw, err := os.ReadFile(path)
	if err != nil {
		return sum, fmt.Errorf("read %s: %w", path, err)
	}

	if bytes.ContainsRune(raw, 0) {
		raw = bytes.ReplaceAll(raw, []byte{0}, nil)
		sum.ScrubbedNULs = true
		logger.Printf("scrubbed NUL bytes from %s", path)
	}

	r := csv.NewReader(bytes.NewReader(raw))
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return sum, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(records) == 0 {
		return sum, fmt.Errorf("%s: missing header row", path)
	}

	width := len(records[0])
	repaired := make([][]string, 0, len(records))
	repaired = append(repaired, records[0])

	rows := records[1:]
	for i := 0; i < len(rows); i++ {
		row := rows[i]
		if !malformed(row, width) {
			repaired = append(repaired, row)
			continue
		}

		sum.Malformed++
		logger.Printf("line %d in %s is malformed", i+2, path)

		if i+1 < len(rows) && malformed(rows[i+1], width) && len(row)+len(rows[i+1]) == width {
			merged := append(append([]string{}, row...), rows[i+1]...)
			repaired = append(repaired, merged)
			sum.Malformed++
			sum.Merged++
			logger.Printf("combined lines %d and %d in %s", i+2, i+3, path)
			i++
			continue
		}

		sum.Dropped++
		logger.Printf("dropped unrepairable line %d in %s", i+2, path)
	}

	if err := writeAtomic(path, repaired); err != nil {
		return sum, err
	}
	return sum, nil
}

// malformed reports whether row is a partial record: some fields present,
// but fewer non-empty fields than the header width.
func malformed(row []string, width int) bool {
	filled := 0
	for _, f := range row {
		if f != "" {
			filled++
		}
	}
	return filled > 0 && filled < width
}

func writeAtomic(path string, records [][]string) error {
	tmp := path + "_tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create %s: %w", tmp, err)
	}

	w := csv.NewWriter(f)
	if err := w.WriteAll(records); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}
