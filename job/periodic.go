package job

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
)

// PeriodicEntry is a single registered (worker, schedule, args) triple,
// fingerprinted for fleet-wide deduplication. It is distinct from the wire
// Job: it lives only in the in-memory registry and the backend's periodic
// store, never on a queue directly.
type PeriodicEntry struct {
	WorkerName string
	Schedule   cron.Schedule
	CronExpr   string          // canonical form
	Args       json.RawMessage // canonical JSON
	Fingerprint uint64
}

// PeriodicRegistry deduplicates periodic registrations by fingerprint at
// insert time. Two entries with the same worker name and schedule but
// different args produce distinct fingerprints and are both allowed; exact
// duplicates are rejected.
type PeriodicRegistry struct {
	mu      sync.RWMutex
	entries map[uint64]PeriodicEntry
	order   []uint64
}

// NewPeriodicRegistry creates an empty registry.
func NewPeriodicRegistry() *PeriodicRegistry {
	return &PeriodicRegistry{entries: make(map[uint64]PeriodicEntry)}
}

// Register adds a periodic entry. workerName and cronExpr are hashed
// together with the canonical form of args.
func (r *PeriodicRegistry) Register(workerName, cronExpr string, args any) (PeriodicEntry, error) {
	schedule, canonicalExpr, err := ParseSchedule(cronExpr)
	if err != nil {
		return PeriodicEntry{}, err
	}

	canonicalArgs, err := canonicalJSON(args)
	if err != nil {
		return PeriodicEntry{}, fmt.Errorf("%w: %w", ErrSerde, err)
	}

	fp, err := Fingerprint(workerName, canonicalExpr, args)
	if err != nil {
		return PeriodicEntry{}, fmt.Errorf("%w: %w", ErrSerde, err)
	}

	entry := PeriodicEntry{
		WorkerName:  workerName,
		Schedule:    schedule,
		CronExpr:    canonicalExpr,
		Args:        canonicalArgs,
		Fingerprint: fp,
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[fp]; exists {
		return PeriodicEntry{}, fmt.Errorf("%w: worker=%s schedule=%s", ErrAlreadyRegisteredPeriodic, workerName, canonicalExpr)
	}
	r.entries[fp] = entry
	r.order = append(r.order, fp)
	return entry, nil
}

// Entries returns all registered periodic entries in registration order.
func (r *PeriodicRegistry) Entries() []PeriodicEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]PeriodicEntry, 0, len(r.order))
	for _, fp := range r.order {
		out = append(out, r.entries[fp])
	}
	return out
}

// Fingerprints returns the set of fingerprints currently registered
// in-memory, for reconciling against a backend's persisted set.
func (r *PeriodicRegistry) Fingerprints() map[uint64]struct{} {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[uint64]struct{}, len(r.entries))
	for fp := range r.entries {
		out[fp] = struct{}{}
	}
	return out
}
