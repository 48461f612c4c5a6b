package model

// ValidationError marks input that failed a model-level invariant.
// Handlers map it to a 400 response.
type ValidationError struct {
	Reason string
}

func (e ValidationError) Error() string { return e.Reason }

func errInvalid(reason string) error {
	return ValidationError{Reason: reason}
}
