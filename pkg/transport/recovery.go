package transport

import (
	"context"
	"fmt"

	"github.com/legichat/legichat/pkg/api"
)

// Recovery returns middleware that catches panics in the handler and
// converts them to server error responses. The server continues to
// accept new requests after a panic is recovered.
func Recovery() Middleware {
	return func(next TurnStreamer) TurnStreamer {
		return TurnStreamerFunc(func(ctx context.Context, threadID, message string, w DeltaWriter) (retErr error) {
			defer func() {
				if r := recover(); r != nil {
					retErr = api.NewServerError(fmt.Sprintf("internal server error: %v", r))
				}
			}()
			return next.StreamTurn(ctx, threadID, message, w)
		})
	}
}
