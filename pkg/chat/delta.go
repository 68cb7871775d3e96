package chat

import (
	"context"
	"log/slog"
	"strings"

	"github.com/legichat/legichat/pkg/transport"
)

// DeltaEmitter converts full-text frame snapshots into incremental
// deltas. Frames are expected to grow by appending: each frame should
// extend the previous one as a prefix. The emitter tracks what it has
// already written and sends only the new suffix, flushing after each
// delta so clients see progress immediately.
type DeltaEmitter struct {
	w      transport.DeltaWriter
	logger *slog.Logger
	prev   string
}

// NewDeltaEmitter creates an emitter writing to w.
func NewDeltaEmitter(w transport.DeltaWriter, logger *slog.Logger) *DeltaEmitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &DeltaEmitter{w: w, logger: logger}
}

// Emit processes one frame snapshot. Empty frames, frames shorter than
// the emitted text, and frames equal to it are skipped. A frame that is
// longer but does not extend the emitted text is a protocol violation:
// the emitter logs it, writes the whole frame once as a replacement
// delta, and resynchronizes on it.
func (d *DeltaEmitter) Emit(ctx context.Context, text string) error {
	if text == "" || len(text) < len(d.prev) || text == d.prev {
		return nil
	}

	if !strings.HasPrefix(text, d.prev) {
		d.logger.Warn("frame does not extend emitted text, resynchronizing",
			"emitted_len", len(d.prev),
			"frame_len", len(text),
		)
		if err := d.w.WriteDelta(ctx, text); err != nil {
			return err
		}
		d.prev = text
		return d.w.Flush()
	}

	if err := d.w.WriteDelta(ctx, text[len(d.prev):]); err != nil {
		return err
	}
	d.prev = text
	return d.w.Flush()
}

// Text returns the total text emitted so far.
func (d *DeltaEmitter) Text() string {
	return d.prev
}
