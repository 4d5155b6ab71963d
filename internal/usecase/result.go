package usecase

// LoadStatus is the outcome of loading one source table
type LoadStatus int

const (
	StatusLoaded LoadStatus = iota
	StatusEmpty
	StatusFailed
)

func (s LoadStatus) String() string {
	switch s {
	case StatusLoaded:
		return "loaded"
	case StatusEmpty:
		return "empty"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result carries a loader's value together with how it was obtained.
// Value is always usable: Empty and Failed results hold the zero-content value.
type Result[T any] struct {
	Value  T
	Status LoadStatus
	Err    error
}

// OK reports whether the value was loaded from real data
func (r Result[T]) OK() bool {
	return r.Status == StatusLoaded
}

func loaded[T any](v T) Result[T] {
	return Result[T]{Value: v, Status: StatusLoaded}
}

func emptyResult[T any](v T, reason error) Result[T] {
	return Result[T]{Value: v, Status: StatusEmpty, Err: reason}
}

func failedResult[T any](v T, err error) Result[T] {
	return Result[T]{Value: v, Status: StatusFailed, Err: err}
}
