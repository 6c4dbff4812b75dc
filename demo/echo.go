// Package demo implements the end-to-end scenario handlers from spec.md
// §8, exercised against a provider.Context without an actual wasm
// sandbox — the guest-side ergonomic facade that would normally drive
// these calls is out of core scope (spec.md §1), so these handlers play
// the guest's part directly in Go. Grounded on
// original_source/api/src/local.rs and api/examples/*.rs.
package demo

import (
	"fmt"
	"math"

	"github.com/shopify/function-wasm-api-go/nanbox"
	"github.com/shopify/function-wasm-api-go/output"
	"github.com/shopify/function-wasm-api-go/provider"
)

// knownKeys mirrors echo.rs's KNOWN_KEYS: the echo handler does not
// enumerate an object's keys (the InputReader only supports queries by a
// known key, not key enumeration, per spec.md §4.2) — it walks the set of
// keys the guest's schema already knows about, exactly as a real guest
// would.
var knownKeys = []string{"foo", "bar"}

// Echo reads the top-level input value and writes an identical value to
// the Context's output, recursing into objects (by knownKeys) and arrays.
// Grounded on api/examples/echo.rs's serialize_value.
func Echo(ctx *provider.Context) output.WriteResult {
	return echoValue(ctx, ctx.InputGet())
}

func echoValue(ctx *provider.Context, v nanbox.Box) output.WriteResult {
	d := v.Decode()
	switch d.Tag {
	case nanbox.TagBool:
		return ctx.OutputNewBool(d.Bool)
	case nanbox.TagNull:
		return ctx.OutputNewNull()
	case nanbox.TagNumber:
		if d.Number == math.Trunc(d.Number) && d.Number >= math.MinInt32 && d.Number <= math.MaxInt32 {
			return ctx.OutputNewI32(int32(d.Number))
		}
		return ctx.OutputNewF64(d.Number)
	case nanbox.TagString:
		return echoString(ctx, v)
	case nanbox.TagObject:
		return echoObject(ctx, v)
	case nanbox.TagArray:
		return echoArray(ctx, v)
	default:
		return output.IoError
	}
}

func echoString(ctx *provider.Context, v nanbox.Box) output.WriteResult {
	length := int(ctx.InputGetValLen(v))
	src := make([]byte, length)
	if err := ctx.InputReadUtf8Str(v, src); err != nil {
		return output.IoError
	}
	r, dst := ctx.OutputNewUtf8Str(length)
	if r != output.Ok {
		return r
	}
	copy(dst, src)
	return output.Ok
}

func echoObject(ctx *provider.Context, v nanbox.Box) output.WriteResult {
	if r := ctx.OutputNewObject(len(knownKeys)); r != output.Ok {
		return r
	}
	for _, key := range knownKeys {
		r, dst := ctx.OutputNewUtf8Str(len(key))
		if r != output.Ok {
			return r
		}
		copy(dst, key)
		prop := ctx.InputGetObjProp(v, []byte(key))
		if r := echoValue(ctx, prop); r != output.Ok {
			return r
		}
	}
	return ctx.OutputFinishObject()
}

func echoArray(ctx *provider.Context, v nanbox.Box) output.WriteResult {
	length := int(ctx.InputGetValLen(v))
	if r := ctx.OutputNewArray(length); r != output.Ok {
		return r
	}
	for i := 0; i < length; i++ {
		elem := ctx.InputGetAtIndex(v, uint32(i))
		if r := echoValue(ctx, elem); r != output.Ok {
			return r
		}
	}
	return ctx.OutputFinishArray()
}

// ErrWriterFailed wraps a non-Ok WriteResult encountered while running a
// demo handler, for callers (cmd/functionrun) that want a Go error rather
// than a bare status code.
type ErrWriterFailed struct {
	Result output.WriteResult
}

func (e ErrWriterFailed) Error() string {
	return fmt.Sprintf("demo: writer returned %s", e.Result)
}
