package provider

import "context"

// Provider is the interface to the language model.
type Provider interface {
	// Stream opens a streaming generation. The returned stream must be
	// closed by the caller. Transport-level retry happens inside the
	// provider; an error here means retries were exhausted or the request
	// is not retryable.
	Stream(ctx context.Context, req *Request) (Stream, error)
}

// Stream yields generation chunks in model order.
type Stream interface {
	// Next returns the next chunk, or io.EOF after the ChunkDone chunk
	// has been delivered.
	Next() (*Chunk, error)

	// Close releases resources. Safe to call more than once.
	Close() error
}
