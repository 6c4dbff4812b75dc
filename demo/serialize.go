package demo

import (
	"sort"

	"github.com/shopify/function-wasm-api-go/output"
	"github.com/shopify/function-wasm-api-go/provider"
)

// MyData is the Go analogue of serialization.rs's MyData: one field of
// each scalar/composite shape write_object can carry, including an
// optional field that may be absent.
type MyData struct {
	MyString  string
	MyI32     int32
	MyF64     float64
	MyBool    bool
	MyVec     []int32
	MyHashMap map[string]int32
	MyOption  *string
}

// Serialize writes data as a single 7-field object, grounded on
// serialization.rs's Serialize impl for MyData: my_string, my_i32,
// my_f64, my_bool, my_vec (an array of i32), my_hash_map (an object
// whose keys are the map's, sorted for a deterministic wire encoding),
// and my_option (the string if present, else null).
func Serialize(ctx *provider.Context, data MyData) output.WriteResult {
	if r := ctx.OutputNewObject(7); r != output.Ok {
		return r
	}
	if r := writeStr(ctx, "my_string"); r != output.Ok {
		return r
	}
	if r := writeStr(ctx, data.MyString); r != output.Ok {
		return r
	}
	if r := writeStr(ctx, "my_i32"); r != output.Ok {
		return r
	}
	if r := ctx.OutputNewI32(data.MyI32); r != output.Ok {
		return r
	}
	if r := writeStr(ctx, "my_f64"); r != output.Ok {
		return r
	}
	if r := ctx.OutputNewF64(data.MyF64); r != output.Ok {
		return r
	}
	if r := writeStr(ctx, "my_bool"); r != output.Ok {
		return r
	}
	if r := ctx.OutputNewBool(data.MyBool); r != output.Ok {
		return r
	}
	if r := writeStr(ctx, "my_vec"); r != output.Ok {
		return r
	}
	if r := writeI32Vec(ctx, data.MyVec); r != output.Ok {
		return r
	}
	if r := writeStr(ctx, "my_hash_map"); r != output.Ok {
		return r
	}
	if r := writeI32Map(ctx, data.MyHashMap); r != output.Ok {
		return r
	}
	if r := writeStr(ctx, "my_option"); r != output.Ok {
		return r
	}
	if r := writeOptionalStr(ctx, data.MyOption); r != output.Ok {
		return r
	}
	return ctx.OutputFinishObject()
}

func writeI32Vec(ctx *provider.Context, vec []int32) output.WriteResult {
	if r := ctx.OutputNewArray(len(vec)); r != output.Ok {
		return r
	}
	for _, v := range vec {
		if r := ctx.OutputNewI32(v); r != output.Ok {
			return r
		}
	}
	return ctx.OutputFinishArray()
}

func writeI32Map(ctx *provider.Context, m map[string]int32) output.WriteResult {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	if r := ctx.OutputNewObject(len(keys)); r != output.Ok {
		return r
	}
	for _, k := range keys {
		if r := writeStr(ctx, k); r != output.Ok {
			return r
		}
		if r := ctx.OutputNewI32(m[k]); r != output.Ok {
			return r
		}
	}
	return ctx.OutputFinishObject()
}
