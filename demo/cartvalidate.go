package demo

import (
	"github.com/shopify/function-wasm-api-go/nanbox"
	"github.com/shopify/function-wasm-api-go/output"
	"github.com/shopify/function-wasm-api-go/provider"
)

// CartValidate implements the cart-checkout validation scenario from
// spec.md §8, grounded on
// original_source/api/examples/cart-checkout-validation-wasm-api.rs: it
// walks cart.lines, and if any line has quantity > 1, emits a single
// error; otherwise the errors array is empty.
func CartValidate(ctx *provider.Context) output.WriteResult {
	top := ctx.InputGet()
	cart := ctx.InputGetObjProp(top, []byte("cart"))

	errs := collectCartErrors(ctx, cart)

	if r := ctx.OutputNewObject(1); r != output.Ok {
		return r
	}
	r, dst := ctx.OutputNewUtf8Str(len("errors"))
	if r != output.Ok {
		return r
	}
	copy(dst, "errors")

	if r := ctx.OutputNewArray(len(errs)); r != output.Ok {
		return r
	}
	for _, msg := range errs {
		if r := writeCartError(ctx, msg); r != output.Ok {
			return r
		}
	}
	if r := ctx.OutputFinishArray(); r != output.Ok {
		return r
	}
	return ctx.OutputFinishObject()
}

func writeCartError(ctx *provider.Context, msg string) output.WriteResult {
	if r := ctx.OutputNewObject(2); r != output.Ok {
		return r
	}
	for _, kv := range [][2]string{{"localizedMessage", msg}, {"target", "$.cart"}} {
		r, dst := ctx.OutputNewUtf8Str(len(kv[0]))
		if r != output.Ok {
			return r
		}
		copy(dst, kv[0])
		r, dst = ctx.OutputNewUtf8Str(len(kv[1]))
		if r != output.Ok {
			return r
		}
		copy(dst, kv[1])
	}
	return ctx.OutputFinishObject()
}

// collectCartErrors mirrors collect_errors in cart-checkout-validation-wasm-api.rs:
// the first line with quantity > 1 produces one error message, then the
// scan stops.
func collectCartErrors(ctx *provider.Context, cart nanbox.Box) []string {
	var errs []string
	if cart.Decode().Tag != nanbox.TagObject {
		return errs
	}
	lines := ctx.InputGetObjProp(cart, []byte("lines"))
	if lines.Decode().Tag != nanbox.TagArray {
		return errs
	}
	length := int(ctx.InputGetValLen(lines))
	for i := 0; i < length; i++ {
		line := ctx.InputGetAtIndex(lines, uint32(i))
		if line.Decode().Tag != nanbox.TagObject {
			continue
		}
		quantity := ctx.InputGetObjProp(line, []byte("quantity"))
		qd := quantity.Decode()
		if qd.Tag == nanbox.TagNumber && qd.Number > 1.0 {
			errs = append(errs, "Not possible to order more than one of each")
			break
		}
	}
	return errs
}
