// Package upstream proxies third-party mention analytics providers and
// reports whether the data served is live or a fallback.
package upstream

// Status tells the boundary layer which path produced a result
type Status string

const (
	StatusOK       Status = "live"
	StatusFallback Status = "fallback"
	StatusFailed   Status = "failed"
)

// Result carries upstream data together with how it was obtained
type Result[T any] struct {
	Status   Status
	Data     T
	Provider string // provider that served live data
	Reason   string // why live data was not served
}

// Ok wraps live data from the named provider
func Ok[T any](data T, provider string) Result[T] {
	return Result[T]{Status: StatusOK, Data: data, Provider: provider}
}

// Fallback wraps substitute data served because every provider failed
func Fallback[T any](data T, reason string) Result[T] {
	return Result[T]{Status: StatusFallback, Data: data, Reason: reason}
}

// Failed reports that neither live nor substitute data is available
func Failed[T any](reason string) Result[T] {
	return Result[T]{Status: StatusFailed, Reason: reason}
}

// Degraded reports whether the caller is not receiving live data
func (r Result[T]) Degraded() bool {
	return r.Status != StatusOK
}
