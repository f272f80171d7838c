package redisqueue

import (
	"encoding/json"
	"time"

	"github.com/dmitrymomot/taskforge/job"
)

// envelope is the Sidekiq-standard wire format: class, args, retry, queue,
// jid, created_at, and an optional at (delayed-fire unix time). The single
// args element is the taskforge Job itself, keeping producers and
// consumers on either side of this package interoperable with the same
// fields a real Sidekiq deployment expects.
type envelope struct {
	Class      string            `json:"class"`
	Args       [1]job.Job        `json:"args"`
	Retry      bool              `json:"retry"`
	Queue      string            `json:"queue"`
	JID        string            `json:"jid"`
	CreatedAt  float64           `json:"created_at"`
	At         *float64          `json:"at,omitempty"`
	RetryCount uint32            `json:"retry_count,omitempty"`
	Tags       []string          `json:"tags,omitempty"`
}

func newEnvelope(j job.Job, queue string, retry bool, tags []string) envelope {
	return envelope{
		Class:     j.Metadata.WorkerName,
		Args:      [1]job.Job{j},
		Retry:     retry,
		Queue:     queue,
		JID:       j.Metadata.ID,
		CreatedAt: float64(time.Now().UnixNano()) / 1e9,
		Tags:      tags,
	}
}

func (e envelope) marshal() ([]byte, error) {
	return json.Marshal(e)
}

func parseEnvelope(raw []byte) (envelope, error) {
	var e envelope
	if err := json.Unmarshal(raw, &e); err != nil {
		return envelope{}, err
	}
	return e, nil
}
