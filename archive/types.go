package archive

import (
	"context"
	"encoding/json"
	"time"
)

// Record is one terminally-resolved job, flattened for cold storage.
// Unlike the live backend's ReadMessage, a Record carries no handle back
// to the queue: it is write-only history.
type Record struct {
	JobID      string          `json:"job_id"`
	Queue      string          `json:"queue"`
	WorkerName string          `json:"worker_name"`
	Outcome    string          `json:"outcome"`
	Reason     string          `json:"reason,omitempty"`
	Attempt    uint32          `json:"attempt"`
	Args       json.RawMessage `json:"args,omitempty"`
	ArchivedAt time.Time       `json:"archived_at"`
}

// Batch is a group of Records handed to an Exporter in a single call.
type Batch struct {
	ID      string
	Records []Record
}

// Exporter ships one Batch to cold storage.
type Exporter interface {
	Export(ctx context.Context, batch Batch) error
}
