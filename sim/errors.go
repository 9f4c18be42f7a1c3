package sim

import (
	"errors"
	"fmt"
)

// UsageError reports a misuse of the kernel: scheduling into the past,
// rescheduling a fixed process, a non-positive sampled duration, or
// unbinding an observer twice. Continuing after one would only produce
// meaningless statistics, so the current run is aborted.
type UsageError struct {
	Op  string
	Msg string
}

func (e *UsageError) Error() string {
	return fmt.Sprintf("sim: %s: %s", e.Op, e.Msg)
}

// usagePanic raises a UsageError. Engine.Run and Engine.Step recover it
// and return it to the caller.
func usagePanic(op, format string, args ...any) {
	panic(&UsageError{Op: op, Msg: fmt.Sprintf(format, args...)})
}

// IsUsageError reports whether err is, or wraps, a *UsageError.
func IsUsageError(err error) bool {
	var ue *UsageError
	return errors.As(err, &ue)
}
