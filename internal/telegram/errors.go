package telegram

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
)

// RequestError is a non-2xx (or ok=false) reply from the Bot API. The bot
// token travels in the request URL, so errors are built from status and
// description only, never from the URL.
type RequestError struct {
	StatusCode  int
	ErrorCode   int
	Description string
}

func (e *RequestError) Error() string {
	desc := strings.TrimSpace(e.Description)
	if desc != "" {
		if e.StatusCode > 0 {
			return fmt.Sprintf("telegram http %d: %s", e.StatusCode, desc)
		}
		return "telegram: " + desc
	}
	if e.StatusCode > 0 {
		return fmt.Sprintf("telegram http %d", e.StatusCode)
	}
	return "telegram request failed"
}

// IsAuthError reports whether the Bot API rejected our credentials.
// This is the only non-recoverable polling failure.
func IsAuthError(err error) bool {
	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		return false
	}
	return reqErr.StatusCode == 401 || reqErr.StatusCode == 403
}

// IsTimeout reports whether a call ended on a timeout. A timeout on the
// long-poll fetch is routine (the poll window simply elapsed).
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "context deadline exceeded") ||
		strings.Contains(msg, "client.timeout exceeded")
}

// redactURLError strips the request URL out of transport-level errors.
// url.Error renders the full URL, which embeds the bot token.
func redactURLError(op string, err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return fmt.Errorf("telegram %s: %w", op, uerr.Err)
	}
	return err
}
