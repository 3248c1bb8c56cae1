package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
)

const chunkSize = 4096

// ChunkWriter receives upstream bytes in arrival order. Implementations must
// not retain p after WriteChunk returns.
type ChunkWriter interface {
	WriteChunk(p []byte) error
}

// Relay copies src to dst chunk by chunk until src is drained or ctx ends.
// It returns the number of bytes forwarded.
func Relay(ctx context.Context, dst ChunkWriter, src io.Reader) (int64, error) {
	buf := make([]byte, chunkSize)
	var total int64

	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		n, readErr := src.Read(buf)
		if n > 0 {
			if err := dst.WriteChunk(buf[:n]); err != nil {
				return total, fmt.Errorf("write chunk: %w", err)
			}
			total += int64(n)
		}

		if errors.Is(readErr, io.EOF) {
			return total, nil
		}
		if readErr != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return total, ctxErr
			}
			return total, fmt.Errorf("read upstream: %w", readErr)
		}
	}
}

// FlushWriter writes each chunk to an http.ResponseWriter and flushes it immediately.
type FlushWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

// NewFlushWriter wraps w, failing when the writer cannot flush.
func NewFlushWriter(w http.ResponseWriter) (*FlushWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("streaming unsupported")
	}
	return &FlushWriter{w: w, flusher: flusher}, nil
}

// WriteChunk implements ChunkWriter.
func (f *FlushWriter) WriteChunk(p []byte) error {
	if _, err := f.w.Write(p); err != nil {
		return err
	}
	f.flusher.Flush()
	return nil
}
