// Command functionrun is a small end-to-end driver: it reads input bytes,
// runs a named demo handler against a fresh provider.Context, and prints
// the finalized output plus any log ring contents. It is not the
// sandbox-rewriting trampoline CLI spec.md §6 describes (that remains a
// pure module-linking concern, out of scope per spec.md §1); it reuses
// that CLI's exit-code contract (0 on success, nonzero with a stderr
// message on failure) for this driver instead.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/shopify/function-wasm-api-go/demo"
	"github.com/shopify/function-wasm-api-go/ingest"
	"github.com/shopify/function-wasm-api-go/output"
	"github.com/shopify/function-wasm-api-go/provider"

	"v.io/x/lib/vlog"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "functionrun:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("functionrun", flag.ContinueOnError)
	input := fs.String("input", "", "path to the input file (default: stdin)")
	outputPath := fs.String("output", "", "path to write the output (default: stdout)")
	handlerName := fs.String("handler", "echo", "demo handler to run: echo, cart-validate, null-fields, serialize")
	gz := fs.Bool("gzip", false, "gzip-decompress the input before decoding")
	raw := fs.Bool("raw", false, "print the output as raw wire bytes instead of a human-readable dump")
	if err := fs.Parse(args); err != nil {
		return err
	}
	vlog.ConfigureLibraryLoggerFromFlags()

	inputBytes, err := ingest.ReadAll(ingest.Options{Path: *input, Gzip: *gz})
	if err != nil {
		return err
	}

	ctx := provider.New(inputBytes)
	handler, ok := handlers[*handlerName]
	if !ok {
		return fmt.Errorf("unknown handler %q", *handlerName)
	}

	if err := demo.RunRecovering(ctx, handler); err != nil {
		reportTrap(ctx, err)
		return err
	}

	result, rec := ctx.Finalize()
	if result != output.Ok {
		return fmt.Errorf("finalize: %s", result)
	}

	if err := writeOutput(*outputPath, rec.Output, *raw); err != nil {
		return err
	}
	if logs := ctx.Logs().Bytes(); len(logs) > 0 {
		fmt.Fprintf(os.Stderr, "logs:\n%s", logs)
	}
	return nil
}

var handlers = map[string]func(*provider.Context) error{
	"echo": func(ctx *provider.Context) error {
		if r := demo.Echo(ctx); r != output.Ok {
			return demo.ErrWriterFailed{Result: r}
		}
		return nil
	},
	"cart-validate": func(ctx *provider.Context) error {
		if r := demo.CartValidate(ctx); r != output.Ok {
			return demo.ErrWriterFailed{Result: r}
		}
		return nil
	},
	"null-fields": func(ctx *provider.Context) error {
		line := demo.CartLine{MerchandiseID: "gid://shopify/ProductVariant/456", Quantity: 1}
		if r := demo.NullFieldsConditional(ctx, line); r != output.Ok {
			return demo.ErrWriterFailed{Result: r}
		}
		return nil
	},
	"serialize": func(ctx *provider.Context) error {
		data := demo.MyData{
			MyString:  "Hello, world!",
			MyI32:     42,
			MyF64:     1.23,
			MyBool:    true,
			MyVec:     []int32{1, 2, 3},
			MyHashMap: map[string]int32{"foo": 1, "bar": 2},
		}
		if r := demo.Serialize(ctx, data); r != output.Ok {
			return demo.ErrWriterFailed{Result: r}
		}
		return nil
	},
}

func reportTrap(ctx *provider.Context, err error) {
	fmt.Fprintln(os.Stderr, "functionrun: trapped:", err)
	if logs := ctx.Logs().Bytes(); len(logs) > 0 {
		fmt.Fprintf(os.Stderr, "logs:\n%s", logs)
	}
}

func writeOutput(path string, bytes []byte, raw bool) error {
	var w *os.File
	if path == "" {
		w = os.Stdout
	} else {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("opening output: %w", err)
		}
		defer f.Close()
		w = f
	}
	if raw {
		_, err := w.Write(bytes)
		return err
	}
	_, err := fmt.Fprintf(w, "% x\n", bytes)
	return err
}
