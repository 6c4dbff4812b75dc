// Package ingest handles the ambient concern of getting raw input bytes
// into the provider: reading from a file or stdin, with an optional gzip
// decompression step. spec.md §1 explicitly treats "standard-input
// ingestion of the raw input bytes" as out of core scope — the core is
// specified over "a byte buffer" — so this package is the thin framing
// layer that produces that buffer, kept separate from provider.Context.
package ingest

import (
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
)

// Options configures how ReadAll locates and decodes the input bytes.
type Options struct {
	// Path is the input file to read. Empty means read from stdin.
	Path string
	// Gzip decompresses the input stream before returning it, the same
	// "decompress a block-compressed byte source before decoding its
	// structured payload" shape bam/reader.go uses for bgzf blocks,
	// repurposed here for the msgpack-style input buffer.
	Gzip bool
}

// ReadAll reads the configured input source to completion and returns the
// raw (optionally decompressed) bytes, ready to hand to provider.New.
func ReadAll(opts Options) ([]byte, error) {
	r, closer, err := open(opts.Path)
	if err != nil {
		return nil, err
	}
	if closer != nil {
		defer closer.Close()
	}

	if opts.Gzip {
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("ingest: opening gzip stream: %w", err)
		}
		defer gz.Close()
		r = gz
	}

	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("ingest: reading input: %w", err)
	}
	return b, nil
}

func open(path string) (io.Reader, io.Closer, error) {
	if path == "" {
		return os.Stdin, nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("ingest: opening %s: %w", path, err)
	}
	return f, f, nil
}
