package apierr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// serverError is the shape the backend uses for error bodies. Either field
// may be present; "error" wins when both are set.
type serverError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// FromStatus builds an Error for a non-2xx HTTP response. The server-supplied
// error/message fields are preferred over a generated description.
//
// Status mapping follows standard retry semantics:
//   - 4xx client errors (except 408/429) are irrecoverable
//   - 5xx server errors are recoverable
func FromStatus(status int, body []byte, operation string) *Error {
	msg := fmt.Sprintf("%s failed: HTTP %d", operation, status)
	var se serverError
	if err := json.Unmarshal(body, &se); err == nil {
		switch {
		case se.Error != "":
			msg = se.Error
		case se.Message != "":
			msg = se.Message
		}
	}
	code := CodeAPIError
	if status == 401 || status == 403 {
		code = CodeAuthError
	}
	return &Error{
		Code:       code,
		Category:   httpCategory(status),
		StatusCode: status,
		Message:    msg,
	}
}

func httpCategory(status int) Category {
	switch {
	case status >= 400 && status < 500:
		switch status {
		case 408, 429: // timeout / throttled, worth retrying
			return Recoverable
		default:
			return Irrecoverable
		}
	default:
		return Recoverable
	}
}

// FromTransport classifies a transport-level failure. Context deadline
// exhaustion becomes TIMEOUT; everything else is treated as a connectivity
// loss, which the queue may retry later.
func FromTransport(operation string, err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{
			Code:       CodeTimeout,
			Category:   Recoverable,
			Message:    fmt.Sprintf("%s timed out", operation),
			Underlying: err,
		}
	}
	return &Error{
		Code:       CodeOffline,
		Category:   Recoverable,
		Message:    fmt.Sprintf("%s network error: %v", operation, err),
		Underlying: err,
	}
}
