package inference

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

const testToken = "hf_test_token"

func TestClient_Generate_Success(t *testing.T) {
	t.Parallel()

	image := []byte{0x89, 'P', 'N', 'G', 1, 2, 3}

	type gotReq struct {
		Path          string
		Authorization string
		ContentType   string
		Body          []byte
	}
	var captured gotReq

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.Path = r.URL.Path
		captured.Authorization = r.Header.Get("Authorization")
		captured.ContentType = r.Header.Get("Content-Type")
		b, _ := io.ReadAll(r.Body)
		captured.Body = b

		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(image)
	}))
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL, testToken, "stabilityai/stable-diffusion-xl-base-1.0", 5*time.Second)

	got, err := c.Generate(context.Background(), "a red fox")
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if string(got) != string(image) {
		t.Fatalf("image bytes mismatch: expected %d bytes, got %d", len(image), len(got))
	}

	if captured.Path != "/models/stabilityai/stable-diffusion-xl-base-1.0" {
		t.Fatalf("unexpected path: %q", captured.Path)
	}
	if captured.Authorization != "Bearer "+testToken {
		t.Fatalf("unexpected Authorization header: %q", captured.Authorization)
	}
	if captured.ContentType != "application/json" {
		t.Fatalf("expected Content-Type application/json, got %q", captured.ContentType)
	}

	var req generateRequest
	if err := json.Unmarshal(captured.Body, &req); err != nil {
		t.Fatalf("failed to decode request json: %v body=%q", err, string(captured.Body))
	}
	if req.Inputs != "a red fox" {
		t.Fatalf("expected inputs %q, got %q", "a red fox", req.Inputs)
	}
}

func TestClient_Generate_StatusClassification(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		status int
		body   string
		check  func(error) bool
		label  string
	}{
		{"401 unauthorized", http.StatusUnauthorized, `{"error": "Invalid credentials"}`, IsAuth, "IsAuth"},
		{"403 forbidden", http.StatusForbidden, `{"error": "Forbidden"}`, IsAuth, "IsAuth"},
		{"429 rate limited", http.StatusTooManyRequests, `{"error": "Rate limit reached"}`, IsQuota, "IsQuota"},
		{"402 payment required", http.StatusPaymentRequired, `{"error": "Credit balance depleted"}`, IsQuota, "IsQuota"},
		{"503 model loading", http.StatusServiceUnavailable, `{"error": "Model is currently loading", "estimated_time": 30}`, IsBusy, "IsBusy"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			t.Cleanup(srv.Close)

			c := NewClient(srv.URL, testToken, "some/model", 5*time.Second)

			_, err := c.Generate(context.Background(), "prompt")
			if err == nil {
				t.Fatalf("expected error, got nil")
			}
			if !tc.check(err) {
				t.Fatalf("expected %s true, got: %v", tc.label, err)
			}
		})
	}
}

func TestClient_Generate_ServerErrorKeepsDetailInternally(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("not json at all"))
	}))
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL, testToken, "some/model", 5*time.Second)

	_, err := c.Generate(context.Background(), "prompt")
	if err == nil {
		t.Fatalf("expected error, got nil")
	}
	if IsAuth(err) || IsQuota(err) || IsBusy(err) {
		t.Fatalf("expected plain server error classification, got: %v", err)
	}
	if !strings.Contains(err.Error(), "http 500") {
		t.Fatalf("expected status in message, got: %v", err)
	}
}

func TestClient_Generate_Timeout(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		_, _ = w.Write([]byte("late"))
	}))
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL, testToken, "some/model", 5*time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := c.Generate(ctx, "prompt")
	if err == nil {
		t.Fatalf("expected error, got nil")
	}
	if !IsTimeout(err) {
		t.Fatalf("expected IsTimeout true, got: %v", err)
	}
}

func TestClient_Generate_EmptyBody(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL, testToken, "some/model", 5*time.Second)

	_, err := c.Generate(context.Background(), "prompt")
	if err == nil {
		t.Fatalf("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "empty result") {
		t.Fatalf("expected empty result error, got: %v", err)
	}
}

func TestClient_Generate_ConnectionErrorOmitsToken(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := NewClient(srv.URL, testToken, "some/model", 5*time.Second)

	_, err := c.Generate(context.Background(), "prompt")
	if err == nil {
		t.Fatalf("expected error, got nil")
	}
	if strings.Contains(err.Error(), testToken) {
		t.Fatalf("error leaks API token: %v", err)
	}
}
