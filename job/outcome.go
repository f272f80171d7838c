package job

// Outcome classifies the result of a single dispatch attempt.
type Outcome int

const (
	// OutcomeSuccess means the handler returned nil; the job should be
	// acked/archived with outcome success.
	OutcomeSuccess Outcome = iota

	// OutcomeRetry means the handler returned an error; the dispatcher
	// consults RetryPolicy to decide between a delayed re-delivery and a
	// permanent archive.
	OutcomeRetry

	// OutcomePermanent means the job must be archived immediately
	// regardless of attempt count (deserialize failure, unknown worker,
	// or a panic under default policy).
	OutcomePermanent
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeRetry:
		return "retry"
	case OutcomePermanent:
		return "permanent"
	default:
		return "unknown"
	}
}

// DispatchOutcome is the result of handing one job to a WorkerWrapper.
type DispatchOutcome struct {
	Outcome Outcome

	// Reason is set on OutcomeRetry and OutcomePermanent: "timeout",
	// "panic", "handler_error: {msg}", "deserialize", or "unknown_worker".
	Reason string

	// Err is the underlying error, if any, preserved for logging/telemetry.
	Err error
}

// Permanent archive reasons, as literal strings per spec.
const (
	ReasonTimeout             = "timeout"
	ReasonPanic               = "panic"
	ReasonDeserialize         = "deserialize"
	ReasonUnknownWorker       = "unknown_worker"
	ReasonMaxRetriesExceeded  = "max_retries_exceeded"
	handlerErrorReasonPrefix  = "handler_error: "
)

func handlerErrorReason(msg string) string {
	return handlerErrorReasonPrefix + msg
}
