package http

import (
	"context"
	"io"
	"net/http"
	"sync"

	"github.com/legichat/legichat/pkg/transport"
)

// deltaStreamWriter implements transport.DeltaWriter over an HTTP
// response. Headers are written lazily on the first delta so handler
// errors before any output can still produce a proper JSON error
// response.
type deltaStreamWriter struct {
	w  http.ResponseWriter
	rc *http.ResponseController

	mu      sync.Mutex
	started bool
}

var _ transport.DeltaWriter = (*deltaStreamWriter)(nil)

func newDeltaStreamWriter(w http.ResponseWriter) *deltaStreamWriter {
	return &deltaStreamWriter{
		w:  w,
		rc: http.NewResponseController(w),
	}
}

// WriteDelta writes one text fragment. The first call commits the
// response headers.
func (d *deltaStreamWriter) WriteDelta(ctx context.Context, delta string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.started {
		d.w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		d.w.Header().Set("Cache-Control", "no-cache")
		d.w.WriteHeader(http.StatusOK)
		d.started = true
	}

	if delta == "" {
		return nil
	}
	_, err := io.WriteString(d.w, delta)
	return err
}

// Flush pushes buffered data to the client.
func (d *deltaStreamWriter) Flush() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.started {
		return nil
	}
	return d.rc.Flush()
}

// hasStartedStreaming reports whether response headers have been
// committed. Once true, errors can no longer be reported as JSON; the
// connection is simply terminated.
func (d *deltaStreamWriter) hasStartedStreaming() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.started
}
