package inference

import (
	"context"
	"errors"
)

// Codes classifying provider failures.
const (
	CodeUnauthorized = "unauthorized"
	CodeQuota        = "quota_exceeded"
	CodeBusy         = "model_loading"
	CodeTimeout      = "timeout"
	CodeNetwork      = "network"
	CodeServer       = "server_error"
)

// Error is a classified failure from the inference provider. Message may
// carry provider detail and is for logs only, never for chat replies.
type Error struct {
	Status  int
	Code    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return "inference: " + e.Message
	}
	if e.Code != "" {
		return "inference: " + e.Code
	}
	return "inference: error"
}

func (e *Error) Unwrap() error { return e.Cause }

func IsAuth(err error) bool {
	var e *Error
	return errors.As(err, &e) && (e.Status == 401 || e.Status == 403 || e.Code == CodeUnauthorized)
}

func IsQuota(err error) bool {
	var e *Error
	return errors.As(err, &e) && (e.Status == 402 || e.Status == 429 || e.Code == CodeQuota)
}

func IsBusy(err error) bool {
	var e *Error
	return errors.As(err, &e) && (e.Status == 503 || e.Code == CodeBusy)
}

func IsTimeout(err error) bool {
	var e *Error
	if errors.As(err, &e) && e.Code == CodeTimeout {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}
