package stream

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/iotest"
)

type recordingWriter struct {
	chunks [][]byte
	fail   error
}

func (r *recordingWriter) WriteChunk(p []byte) error {
	if r.fail != nil {
		return r.fail
	}
	r.chunks = append(r.chunks, append([]byte(nil), p...))
	return nil
}

func TestRelayPreservesBytesAndOrder(t *testing.T) {
	payload := strings.Repeat("data: {\"choices\":[{\"delta\":{\"content\":\"字\"}}]}\n\n", 500)
	dst := &recordingWriter{}

	// OneByteReader forces many small reads, splitting multi-byte runes across chunks.
	n, err := Relay(context.Background(), dst, iotest.OneByteReader(strings.NewReader(payload)))
	if err != nil {
		t.Fatalf("Relay err: %v", err)
	}
	if n != int64(len(payload)) {
		t.Fatalf("expected %d bytes, got %d", len(payload), n)
	}
	if got := string(bytes.Join(dst.chunks, nil)); got != payload {
		t.Fatal("relayed bytes differ from source")
	}
}

func TestRelayStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	dst := &recordingWriter{}
	n, err := Relay(ctx, dst, strings.NewReader("data: x\n\n"))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if n != 0 || len(dst.chunks) != 0 {
		t.Fatal("no bytes should be forwarded after cancellation")
	}
}

func TestRelayReportsWriteFailure(t *testing.T) {
	dst := &recordingWriter{fail: io.ErrClosedPipe}
	if _, err := Relay(context.Background(), dst, strings.NewReader("abc")); !errors.Is(err, io.ErrClosedPipe) {
		t.Fatalf("expected write failure, got %v", err)
	}
}

func TestRelayReportsReadFailure(t *testing.T) {
	dst := &recordingWriter{}
	src := io.MultiReader(strings.NewReader("partial"), iotest.ErrReader(io.ErrUnexpectedEOF))

	n, err := Relay(context.Background(), dst, src)
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("expected read failure, got %v", err)
	}
	if n != int64(len("partial")) {
		t.Fatalf("expected partial bytes to be forwarded, got %d", n)
	}
}

func TestFlushWriterFlushesEachChunk(t *testing.T) {
	rec := httptest.NewRecorder()
	fw, err := NewFlushWriter(rec)
	if err != nil {
		t.Fatalf("NewFlushWriter err: %v", err)
	}

	if err := fw.WriteChunk([]byte("data: a\n\n")); err != nil {
		t.Fatalf("WriteChunk err: %v", err)
	}
	if !rec.Flushed {
		t.Fatal("expected recorder to be flushed")
	}
	if rec.Body.String() != "data: a\n\n" {
		t.Fatalf("unexpected body %q", rec.Body.String())
	}
}
