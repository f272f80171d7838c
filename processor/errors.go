package processor

import "errors"

// ErrNoQueues is returned by NewScheduler when the processor config names
// no queues to poll.
var ErrNoQueues = errors.New("processor: no queues configured")

// ErrUnknownStrategy is returned when ProcessorConfig.BalanceStrategy names
// a strategy this package does not implement.
var ErrUnknownStrategy = errors.New("processor: unknown balance strategy")
