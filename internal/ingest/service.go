package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/dpx190/data-eng-hw/internal/dataset"
)

// nullLiteral is the dataset's textual representation of SQL NULL.
const nullLiteral = "NULL"

// FileResult describes what happened to one dataset file during a run.
type FileResult struct {
	Name    string `json:"name"`
	Table   string `json:"table"`
	Rows    int64  `json:"rows"`
	Skipped bool   `json:"skipped"`
	Merged  int    `json:"merged"`
	Dropped int    `json:"dropped"`
}

// RunSummary aggregates one load invocation.
type RunSummary struct {
	RunID        string       `json:"runId"`
	StartedAt    time.Time    `json:"startedAt"`
	Files        []FileResult `json:"files"`
	FilesLoaded  int          `json:"filesLoaded"`
	FilesSkipped int          `json:"filesSkipped"`
	RowsLoaded   int64        `json:"rowsLoaded"`
	RowsDropped  int64        `json:"rowsDropped"`
}

// Publisher announces a finished load run. Implemented by events.Publisher;
// nil disables publishing.
type Publisher interface {
	PublishDatasetLoaded(ctx context.Context, partitionKey string, run RunSummary) error
}

// Service runs the preprocess + load pipeline over a dataset directory.
type Service struct {
	repo   Repository
	pub    Publisher
	logger *log.Logger
}

func NewService(repo Repository, pub Publisher, logger *log.Logger) *Service {
	return &Service{repo: repo, pub: pub, logger: logger}
}

// Run preprocesses every CSV file in dir and loads it into its table. Files
// whose content is unchanged since the last run are skipped unless force is
// set; force also empties the data tables first.
func (s *Service) Run(ctx context.Context, dir string, force bool) (RunSummary, error) {
	sum := RunSummary{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
	}

	files, err := dataset.Discover(dir)
	if err != nil {
		return sum, err
	}
	if len(files) == 0 {
		return sum, fmt.Errorf("no csv files in %s", dir)
	}

	if force {
		if err := s.repo.Reset(ctx); err != nil {
			return sum, err
		}
		s.logger.Printf("reset data tables before reload")
	}

	for _, f := range files {
		res, err := s.loadFile(ctx, f, force)
		if err != nil {
			return sum, fmt.Errorf("load %s: %w", f.Name, err)
		}
		sum.Files = append(sum.Files, res)
		sum.RowsDropped += int64(res.Dropped)
		if res.Skipped {
			sum.FilesSkipped++
			continue
		}
		sum.FilesLoaded++
		sum.RowsLoaded += res.Rows
	}

	if err := s.repo.RecordRun(ctx, Run{
		ID:          sum.RunID,
		StartedAt:   sum.StartedAt,
		FilesLoaded: sum.FilesLoaded,
		RowsLoaded:  sum.RowsLoaded,
		RowsDropped: sum.RowsDropped,
	}); err != nil {
		return sum, err
	}

	s.logger.Printf("run %s: %d files loaded, %d skipped, %d rows", sum.RunID, sum.FilesLoaded, sum.FilesSkipped, sum.RowsLoaded)

	if s.pub != nil && sum.FilesLoaded > 0 {
		if err := s.pub.PublishDatasetLoaded(ctx, dir, sum); err != nil {
			// Publishing is best-effort; the load itself already committed.
			s.logger.Printf("publish DatasetLoaded: %v", err)
		}
	}

	return sum, nil
}

func (s *Service) loadFile(ctx context.Context, f dataset.File, force bool) (FileResult, error) {
	res := FileResult{Name: f.Name, Table: f.Table}

	cols, ok := Columns(f.Table)
	if !ok {
		return res, fmt.Errorf("no column mapping for table %s", f.Table)
	}

	pre, err := dataset.Preprocess(f.Path, s.logger)
	if err != nil {
		return res, err
	}
	res.Merged = pre.Merged
	res.Dropped = pre.Dropped

	checksum, err := fileChecksum(f.Path)
	if err != nil {
		return res, err
	}

	if !force {
		prev, exists, err := s.repo.LastChecksum(ctx, f.Table, f.Name)
		if err != nil {
			return res, err
		}
		if exists && prev == checksum {
			s.logger.Printf("%s unchanged since last load, skipping", f.Name)
			res.Skipped = true
			return res, nil
		}
	}

	header, records, err := dataset.ReadRecords(f.Path)
	if err != nil {
		return res, err
	}
	if len(header) != len(cols) {
		return res, fmt.Errorf("%s: header has %d columns, table %s has %d", f.Name, len(header), f.Table, len(cols))
	}

	rows := make([][]any, 0, len(records))
	for i, rec := range records {
		if len(rec) != len(cols) {
			return res, fmt.Errorf("%s: row %d has %d fields, want %d", f.Name, i+2, len(rec), len(cols))
		}
		row := make([]any, len(rec))
		for j, field := range rec {
			if field == nullLiteral {
				row[j] = nil
			} else {
				row[j] = field
			}
		}
		rows = append(rows, row)
	}

	n, err := s.repo.LoadFile(ctx, f.Table, f.Name, checksum, cols, rows)
	if err != nil {
		return res, err
	}
	res.Rows = n

	s.logger.Printf("loaded %d rows from %s into %s", n, f.Name, f.Table)
	return res, nil
}

func fileChecksum(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:]), nil
}
