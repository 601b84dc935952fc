package sparql

import "time"

// Outcome labels for Observer.
const (
	OutcomeOK        = "ok"
	OutcomeStatus    = "status_error"
	OutcomeMalformed = "malformed"
	OutcomeTransport = "transport_error"
)

// Observer receives one call per HTTP attempt.
type Observer interface {
	ObserveQuery(outcome string, attempt int, elapsed time.Duration)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(outcome string, attempt int, elapsed time.Duration)

// ObserveQuery calls fn when non-nil.
func (fn ObserverFunc) ObserveQuery(outcome string, attempt int, elapsed time.Duration) {
	if fn == nil {
		return
	}
	fn(outcome, attempt, elapsed)
}

type nopObserver struct{}

func (nopObserver) ObserveQuery(string, int, time.Duration) {}
