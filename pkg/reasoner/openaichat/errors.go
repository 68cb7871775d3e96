package openaichat

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/legichat/legichat/pkg/api"
)

// mapHTTPError converts an HTTP response with a non-2xx status code into
// an APIError. It attempts to parse the response body as a backend error
// payload to extract a descriptive message.
func mapHTTPError(resp *http.Response) *api.APIError {
	message := extractErrorMessage(resp.Body)

	switch {
	case resp.StatusCode == http.StatusBadRequest:
		if message == "" {
			message = "invalid request to reasoning backend"
		}
		return api.NewModelError(message)

	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		if message == "" {
			message = "reasoning backend authentication failed"
		}
		return api.NewModelError(message)

	case resp.StatusCode == http.StatusTooManyRequests:
		if message == "" {
			message = "reasoning backend rate limit exceeded"
		}
		return api.NewModelError(message)

	case resp.StatusCode >= http.StatusInternalServerError:
		if message == "" {
			message = fmt.Sprintf("reasoning backend server error (HTTP %d)", resp.StatusCode)
		}
		return api.NewModelError(message)

	default:
		if message == "" {
			message = fmt.Sprintf("unexpected reasoning backend error (HTTP %d)", resp.StatusCode)
		}
		return api.NewModelError(message)
	}
}

// mapNetworkError converts a network-level error (connection refused,
// timeout, DNS resolution failure) into an APIError.
func mapNetworkError(err error) *api.APIError {
	return api.NewModelError(fmt.Sprintf("reasoning backend connection error: %s", err.Error()))
}

// extractErrorMessage tries to parse the response body as a backend error
// payload and returns the message if found.
func extractErrorMessage(body io.Reader) string {
	if body == nil {
		return ""
	}

	data, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil || len(data) == 0 {
		return ""
	}

	var errResp chatErrorResponse
	if err := json.Unmarshal(data, &errResp); err == nil && errResp.Error.Message != "" {
		return errResp.Error.Message
	}

	return ""
}
