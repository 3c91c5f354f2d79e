package events

import (
	"fmt"
	"time"
)

const (
	EventTypeDatasetLoaded = "DatasetLoaded"
	datasetLoadedSchema    = "dataeng.dataset-loaded.v1"
)

// DatasetLoadedPayload describes one completed load run.
type DatasetLoadedPayload struct {
	RunID       string       `json:"runId"`
	Dataset     string       `json:"dataset"`
	Files       []LoadedFile `json:"files"`
	RowsLoaded  int64        `json:"rowsLoaded"`
	RowsDropped int64        `json:"rowsDropped"`
	Timestamp   time.Time    `json:"timestamp"`
}

type LoadedFile struct {
	Name  string `json:"name"`
	Table string `json:"table"`
	Rows  int64  `json:"rows"`
}

type DatasetLoadedEvent struct {
	EventEnvelope
	DecodedPayload DatasetLoadedPayload `json:"-"`
}

func validateDatasetLoaded(ev DatasetLoadedEvent) error {
	if err := ev.Validate(EventTypeDatasetLoaded, 1); err != nil {
		return err
	}
	if ev.DecodedPayload.RunID == "" {
		return fmt.Errorf("missing runId")
	}
	return nil
}
