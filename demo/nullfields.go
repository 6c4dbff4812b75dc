package demo

import (
	"github.com/shopify/function-wasm-api-go/output"
	"github.com/shopify/function-wasm-api-go/provider"
)

// CartLine is the merchandise line used by the null-field omission demo,
// grounded on original_source/examples/null_fields.rs.
type CartLine struct {
	MerchandiseID string
	Quantity      int32
	Attributes    *string
	Image         *string
	Price         *float64
}

// NullFieldsNaive writes every field, including explicit `null`s for
// absent optional ones — the "before" side of null_fields.rs's
// comparison, matching spec.md §8's "Null-field omission" scenario input
// shape (2 known fields, 3 null optional fields).
func NullFieldsNaive(ctx *provider.Context, line CartLine) output.WriteResult {
	if r := ctx.OutputNewObject(5); r != output.Ok {
		return r
	}
	fields := []struct {
		key   string
		write func() output.WriteResult
	}{
		{"merchandiseId", func() output.WriteResult { return writeStr(ctx, line.MerchandiseID) }},
		{"quantity", func() output.WriteResult { return ctx.OutputNewI32(line.Quantity) }},
		{"attributes", func() output.WriteResult { return writeOptionalStr(ctx, line.Attributes) }},
		{"image", func() output.WriteResult { return writeOptionalStr(ctx, line.Image) }},
		{"price", func() output.WriteResult { return writeOptionalFloat(ctx, line.Price) }},
	}
	for _, f := range fields {
		r, dst := ctx.OutputNewUtf8Str(len(f.key))
		if r != output.Ok {
			return r
		}
		copy(dst, f.key)
		if r := f.write(); r != output.Ok {
			return r
		}
	}
	return ctx.OutputFinishObject()
}

// NullFieldsConditional writes only the present fields, omitting absent
// optional ones entirely and declaring the object's true length up
// front — the "after" side of null_fields.rs's comparison. It produces
// spec.md §8's expected output: "object containing only the 2 known
// fields".
func NullFieldsConditional(ctx *provider.Context, line CartLine) output.WriteResult {
	fields := []output.Field{
		{Key: "merchandiseId", Present: true, Write: func(w *output.Writer) output.WriteResult {
			r, dst := w.AllocateUTF8Str(len(line.MerchandiseID))
			if r != output.Ok {
				return r
			}
			copy(dst, line.MerchandiseID)
			return output.Ok
		}},
		{Key: "quantity", Present: true, Write: func(w *output.Writer) output.WriteResult {
			return w.NewI32(line.Quantity)
		}},
		{Key: "attributes", Present: line.Attributes != nil, Write: func(w *output.Writer) output.WriteResult {
			r, dst := w.AllocateUTF8Str(len(*line.Attributes))
			if r != output.Ok {
				return r
			}
			copy(dst, *line.Attributes)
			return output.Ok
		}},
		{Key: "image", Present: line.Image != nil, Write: func(w *output.Writer) output.WriteResult {
			r, dst := w.AllocateUTF8Str(len(*line.Image))
			if r != output.Ok {
				return r
			}
			copy(dst, *line.Image)
			return output.Ok
		}},
		{Key: "price", Present: line.Price != nil, Write: func(w *output.Writer) output.WriteResult {
			return w.NewF64(*line.Price)
		}},
	}
	return output.WriteConditionalObject(ctx.Writer(), fields)
}

func writeStr(ctx *provider.Context, s string) output.WriteResult {
	r, dst := ctx.OutputNewUtf8Str(len(s))
	if r != output.Ok {
		return r
	}
	copy(dst, s)
	return output.Ok
}

func writeOptionalStr(ctx *provider.Context, s *string) output.WriteResult {
	if s == nil {
		return ctx.OutputNewNull()
	}
	return writeStr(ctx, *s)
}

func writeOptionalFloat(ctx *provider.Context, f *float64) output.WriteResult {
	if f == nil {
		return ctx.OutputNewNull()
	}
	return ctx.OutputNewF64(*f)
}
