package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client calls the Hugging Face Inference API for text-to-image generation.
// A successful call returns the raw image bytes; failures come back as *Error
// classified by HTTP status and the provider's error body.
type Client struct {
	http    *http.Client
	baseURL string
	token   string
	model   string
}

func NewClient(baseURL, token, model string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Client{
		http: &http.Client{
			Timeout: timeout,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		model:   model,
	}
}

type generateRequest struct {
	Inputs string `json:"inputs"`
}

type apiError struct {
	Error         string  `json:"error"`
	EstimatedTime float64 `json:"estimated_time,omitempty"`
}

func (c *Client) Generate(ctx context.Context, prompt string) ([]byte, error) {
	body, err := json.Marshal(generateRequest{Inputs: prompt})
	if err != nil {
		return nil, &Error{Code: CodeServer, Message: "failed to encode request", Cause: err}
	}

	endpoint := fmt.Sprintf("%s/models/%s", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &Error{Code: CodeServer, Message: "failed to build request", Cause: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "image/png")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, transportError(err)
	}
	raw, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		return nil, transportError(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, statusError(resp.StatusCode, raw)
	}
	if len(raw) == 0 {
		return nil, &Error{Code: CodeServer, Message: "provider returned an empty result"}
	}
	return raw, nil
}

// transportError folds connection-level failures into *Error. The request
// headers carry the API token, so the original error is kept as cause but
// its URL is never echoed into the message.
func transportError(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		err = uerr.Err
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Code: CodeTimeout, Message: "request timed out", Cause: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &Error{Code: CodeTimeout, Message: "request timed out", Cause: err}
	}
	return &Error{Code: CodeNetwork, Message: "failed to reach provider", Cause: err}
}

func statusError(status int, raw []byte) error {
	var ae apiError
	_ = json.Unmarshal(raw, &ae)
	msg := strings.TrimSpace(ae.Error)

	code := CodeServer
	switch {
	case status == 401 || status == 403:
		code = CodeUnauthorized
	case status == 402 || status == 429:
		code = CodeQuota
	case status == 503 || strings.Contains(strings.ToLower(msg), "loading"):
		code = CodeBusy
	}

	if msg == "" {
		msg = fmt.Sprintf("provider returned http %d", status)
	}
	return &Error{Status: status, Code: code, Message: msg}
}
