package demo

import (
	"errors"

	"github.com/shopify/function-wasm-api-go/provider"
)

// ErrTrapped is the sentinel error RunRecovering propagates to its caller
// after a handler panics, standing in for the sandbox trap spec.md §5
// describes for fuel exhaustion: "Partial writer state is discarded on
// trap (the context is not finalized)."
var ErrTrapped = errors.New("demo: handler panicked, trapping")

// RunRecovering invokes handler, recovering any panic (the Go analogue of
// api/examples/panic.rs's guest that panics mid-execution) and logging a
// final diagnostic line to ctx's log ring before returning ErrTrapped,
// mirroring spec.md §5's "host reports the trap plus any log ring
// contents" contract.
func RunRecovering(ctx *provider.Context, handler func(*provider.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			ctx.Logs().Appendf("panic: %v", r)
			err = ErrTrapped
		}
	}()
	return handler(ctx)
}
