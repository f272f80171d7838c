package job

// enqueueOptions holds the resolved per-call overrides accepted by both
// backends' Enqueuer implementations.
type enqueueOptions struct {
	queue    string
	priority int
	tags     []string
	periodic *PeriodicConfig
}

// EnqueueOption configures a single Enqueuer call.
type EnqueueOption func(*enqueueOptions)

// ResolveEnqueueOptions applies opts over the worker's registered defaults.
func ResolveEnqueueOptions(defaultQueue string, opts ...EnqueueOption) (queue string, priority int, tags []string) {
	o := &enqueueOptions{queue: defaultQueue}
	for _, opt := range opts {
		opt(o)
	}
	return o.queue, o.priority, o.tags
}

// ResolvePeriodic applies opts and additionally returns the periodic
// tagging, if any, carried by WithPeriodicConfig. Only processor.PeriodicDriver
// is expected to set this option; ordinary Enqueuer callers never do.
func ResolvePeriodic(defaultQueue string, opts ...EnqueueOption) (queue string, priority int, tags []string, periodic *PeriodicConfig) {
	o := &enqueueOptions{queue: defaultQueue}
	for _, opt := range opts {
		opt(o)
	}
	return o.queue, o.priority, o.tags, o.periodic
}

// WithPeriodicConfig tags the framed Job with periodic metadata, marking it
// as produced by a scheduled fire rather than an ad hoc enqueue. Used
// internally by processor.PeriodicDriver.
func WithPeriodicConfig(cfg PeriodicConfig) EnqueueOption {
	return func(o *enqueueOptions) {
		o.periodic = &cfg
	}
}

// InQueue sets the queue for a single enqueue call. The Enqueuer
// implementations in job/pgqueue and job/redisqueue do not look up the
// worker's registered queue, so a call to them without InQueue returns
// ErrNoQueue.
func InQueue(name string) EnqueueOption {
	return func(o *enqueueOptions) {
		if name != "" {
			o.queue = name
		}
	}
}

// Priority sets a job priority. Neither backend in this module uses it:
// job/pgqueue (pgmq has no native priority field) and job/redisqueue both
// discard the value when framing the job.
func Priority(p int) EnqueueOption {
	return func(o *enqueueOptions) {
		o.priority = p
	}
}

// Tags attaches metadata tags understood by backends that support them.
func Tags(tags ...string) EnqueueOption {
	return func(o *enqueueOptions) {
		o.tags = append(o.tags, tags...)
	}
}
