package digest

// Outcome is the result of one stage. When Err is set the collaborator failed
// and Value already holds the stage fallback, so callers never branch on
// failure to keep going; tests use Err to tell a fallback from an empty answer.
type Outcome[T any] struct {
	Value T
	Err   error
}

// Succeeded wraps a collaborator answer.
func Succeeded[T any](value T) Outcome[T] {
	return Outcome[T]{Value: value}
}

// Fallback wraps a substituted value together with the failure that caused it.
func Fallback[T any](value T, err error) Outcome[T] {
	return Outcome[T]{Value: value, Err: err}
}

// Degraded reports whether the fallback was used.
func (o Outcome[T]) Degraded() bool {
	return o.Err != nil
}
