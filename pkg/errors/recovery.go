package errors

import (
	"fmt"
)

// RecoverPanic converts a panic in the calling goroutine into an internal
// AppError stored in *errp. Use it deferred at the outermost call:
//
//	defer errors.RecoverPanic(&err)
//
// Panics signal defects such as impossible commit timestamps; the stack is
// kept so the report is actionable.
func RecoverPanic(errp *error) {
	r := recover()
	if r == nil {
		return
	}

	var cause error
	switch v := r.(type) {
	case error:
		cause = v
	default:
		cause = fmt.Errorf("%v", v)
	}

	*errp = Wrap(cause, ErrCodeInternal, "Unexpected internal failure").
		WithSeverity(SeverityCritical).
		WithSuggestions("This is a bug; please report it with the output of --log-level debug")
}
