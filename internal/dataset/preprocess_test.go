package dataset

import (
	"encoding/csv"
	"io"
	"log"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return records
}

func discardLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func TestPreprocess_CleanFileUnchanged(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "marketing_1.csv",
		"event_id,phone_id,ad_id\ne1,p1,a1\ne2,p2,a2\n")

	sum, err := Preprocess(path, discardLogger())
	if err != nil {
		t.Fatalf("preprocess: %v", err)
	}
	if sum.Malformed != 0 || sum.Merged != 0 || sum.Dropped != 0 || sum.ScrubbedNULs {
		t.Fatalf("unexpected summary: %+v", sum)
	}

	want := [][]string{
		{"event_id", "phone_id", "ad_id"},
		{"e1", "p1", "a1"},
		{"e2", "p2", "a2"},
	}
	if got := readCSV(t, path); !reflect.DeepEqual(got, want) {
		t.Fatalf("records mismatch\ngot  %v\nwant %v", got, want)
	}
}

func TestPreprocess_ScrubsNULBytes(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "user_1.csv",
		"event_id,user_id\ne1,u\x001\n")

	sum, err := Preprocess(path, discardLogger())
	if err != nil {
		t.Fatalf("preprocess: %v", err)
	}
	if !sum.ScrubbedNULs {
		t.Fatalf("expected NUL scrub, got %+v", sum)
	}

	want := [][]string{{"event_id", "user_id"}, {"e1", "u1"}}
	if got := readCSV(t, path); !reflect.DeepEqual(got, want) {
		t.Fatalf("records mismatch\ngot  %v\nwant %v", got, want)
	}
}

func TestPreprocess_MergesSpilloverPair(t *testing.T) {
	dir := t.TempDir()
	// Row e2 spilled over: two fragments that together hold four fields.
	path := writeFile(t, dir, "marketing_1.csv",
		"event_id,phone_id,ad_id,provider\n"+
			"e1,p1,a1,Snapchat\n"+
			"e2,p2\n"+
			"a2,Facebook\n"+
			"e3,p3,a3,Google\n")

	sum, err := Preprocess(path, discardLogger())
	if err != nil {
		t.Fatalf("preprocess: %v", err)
	}
	if sum.Merged != 1 || sum.Dropped != 0 {
		t.Fatalf("unexpected summary: %+v", sum)
	}

	want := [][]string{
		{"event_id", "phone_id", "ad_id", "provider"},
		{"e1", "p1", "a1", "Snapchat"},
		{"e2", "p2", "a2", "Facebook"},
		{"e3", "p3", "a3", "Google"},
	}
	if got := readCSV(t, path); !reflect.DeepEqual(got, want) {
		t.Fatalf("records mismatch\ngot  %v\nwant %v", got, want)
	}
}

func TestPreprocess_DropsUnrepairableRow(t *testing.T) {
	dir := t.TempDir()
	// e2 is short and its neighbor is complete, so there is nothing to merge.
	path := writeFile(t, dir, "marketing_1.csv",
		"event_id,phone_id,ad_id\n"+
			"e1,p1,a1\n"+
			"e2,p2\n"+
			"e3,p3,a3\n")

	sum, err := Preprocess(path, discardLogger())
	if err != nil {
		t.Fatalf("preprocess: %v", err)
	}
	if sum.Dropped != 1 || sum.Merged != 0 {
		t.Fatalf("unexpected summary: %+v", sum)
	}

	want := [][]string{
		{"event_id", "phone_id", "ad_id"},
		{"e1", "p1", "a1"},
		{"e3", "p3", "a3"},
	}
	if got := readCSV(t, path); !reflect.DeepEqual(got, want) {
		t.Fatalf("records mismatch\ngot  %v\nwant %v", got, want)
	}
}

func TestPreprocess_HeaderOnly(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "user_1.csv", "event_id,user_id\n")

	sum, err := Preprocess(path, discardLogger())
	if err != nil {
		t.Fatalf("preprocess: %v", err)
	}
	if sum.Malformed != 0 {
		t.Fatalf("unexpected summary: %+v", sum)
	}
	if got := readCSV(t, path); len(got) != 1 {
		t.Fatalf("expected header only, got %v", got)
	}
}

func TestPreprocess_EmptyFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "user_1.csv", "")

	if _, err := Preprocess(path, discardLogger()); err == nil {
		t.Fatal("expected error for empty file")
	}
}
