package processor

import (
	"fmt"
	"sync"

	"github.com/dmitrymomot/taskforge/job"
)

// BalanceStrategy decides, for one polling sweep, the order in which a
// fetcher attempts its assigned queues. A sweep tries each name in the
// returned order and stops at the first queue that yields a message,
// falling through to the next queue otherwise.
type BalanceStrategy interface {
	Order() []string
}

// NewBalanceStrategy builds the strategy named by ProcessorConfig's
// BalanceStrategy field ("strict-priority", "round-robin", or "weighted").
func NewBalanceStrategy(name string, queues []job.QueueDescriptor) (BalanceStrategy, error) {
	if len(queues) == 0 {
		return nil, ErrNoQueues
	}
	switch name {
	case "", "round-robin":
		return NewRoundRobin(queueNames(queues)), nil
	case "strict-priority":
		return NewStrictPriority(queueNames(queues)), nil
	case "weighted":
		return NewWeighted(queues), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownStrategy, name)
	}
}

func queueNames(queues []job.QueueDescriptor) []string {
	names := make([]string, len(queues))
	for i, q := range queues {
		names[i] = q.Name
	}
	return names
}

// StrictPriority always attempts queues in the exact order they were
// declared: the first queue is tried on every sweep, starving lower-
// priority queues only for as long as the top queue keeps yielding work.
type StrictPriority struct {
	names []string
}

func NewStrictPriority(names []string) *StrictPriority {
	return &StrictPriority{names: names}
}

func (s *StrictPriority) Order() []string { return s.names }

// RoundRobin rotates its starting point by one queue on every sweep, so
// each queue gets the "first attempted" slot in turn.
type RoundRobin struct {
	mu     sync.Mutex
	names  []string
	cursor int
}

func NewRoundRobin(names []string) *RoundRobin {
	return &RoundRobin{names: names}
}

func (r *RoundRobin) Order() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := len(r.names)
	out := make([]string, n)
	for i := range out {
		out[i] = r.names[(r.cursor+i)%n]
	}
	r.cursor = (r.cursor + 1) % n
	return out
}

// Weighted orders queues each sweep using a smooth weighted round-robin
// (the same scheme nginx/LVS use for upstream selection): each queue
// accumulates its weight every sweep, the highest accumulator goes first
// and is then discounted by the total weight, so over many sweeps a queue
// leads proportionally to its configured weight rather than in bursts.
type Weighted struct {
	mu      sync.Mutex
	entries []*weightedEntry
	total   int
}

type weightedEntry struct {
	name    string
	weight  int
	current int
}

// NewWeighted builds a Weighted strategy from queue descriptors. A
// descriptor's NumWorkers doubles as its weight when non-zero; queues with
// NumWorkers == 0 get weight 1, so an all-zero configuration degrades to
// plain round-robin behavior.
func NewWeighted(queues []job.QueueDescriptor) *Weighted {
	w := &Weighted{}
	for _, q := range queues {
		weight := q.NumWorkers
		if weight <= 0 {
			weight = 1
		}
		w.entries = append(w.entries, &weightedEntry{name: q.Name, weight: weight})
		w.total += weight
	}
	return w
}

func (w *Weighted) Order() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := make([]string, 0, len(w.entries))
	picked := make([]bool, len(w.entries))

	for _, e := range w.entries {
		e.current += e.weight
	}

	for i := range w.entries {
		best := -1
		for j, e := range w.entries {
			if picked[j] {
				continue
			}
			if best == -1 || e.current > w.entries[best].current {
				best = j
			}
		}

		if i == 0 {
			w.entries[best].current -= w.total
		}
		picked[best] = true
		out = append(out, w.entries[best].name)
	}
	return out
}
