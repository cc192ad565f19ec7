package behavior

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/fxsml/mediator"
)

// RecoveryError wraps a panic value with the stack trace.
// This allows panics to be converted to regular errors and handled gracefully.
type RecoveryError struct {
	// PanicValue is the original value that was passed to panic().
	PanicValue any
	// StackTrace contains the full stack trace at the point of panic.
	StackTrace string
}

func (e *RecoveryError) Error() string {
	return fmt.Sprintf("panic recovered: %v", e.PanicValue)
}

// Unwrap returns the panic value if it is an error.
func (e *RecoveryError) Unwrap() error {
	err, _ := e.PanicValue.(error)
	return err
}

// recoveryError captures the stack of the panic in progress. Behaviors that
// observe a panic re-panic with the returned error, so an outer Recover
// reports the stack of the original panic.
func recoveryError(r any) *RecoveryError {
	if re, ok := r.(*RecoveryError); ok {
		return re
	}
	return &RecoveryError{
		PanicValue: r,
		StackTrace: string(debug.Stack()),
	}
}

// Recover converts any panic raised inward into a RecoveryError
// with the stack trace captured.
func Recover() mediator.Behavior {
	return mediator.BehaviorFunc(func(ctx context.Context, req any, next mediator.Next) (res any, err error) {
		defer func() {
			if r := recover(); r != nil {
				res, err = nil, recoveryError(r)
			}
		}()
		return next(ctx)
	})
}
