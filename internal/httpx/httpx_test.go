package httpx

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

const exampleURL = "https://example.com/course.opi"

type mockRoundTripper struct {
	responses []*http.Response
	errors    []error
	index     int
	mux       sync.Mutex
}

func (m *mockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	m.mux.Lock()
	defer m.mux.Unlock()

	if m.index >= len(m.responses) {
		return nil, errors.New("no more responses")
	}
	resp := m.responses[m.index]
	err := m.errors[m.index]
	m.index++
	return resp, err
}

func newMockClient(responses []*http.Response, errs []error) (*http.Client, *mockRoundTripper) {
	for len(errs) < len(responses) {
		errs = append(errs, nil)
	}
	rt := &mockRoundTripper{responses: responses, errors: errs}
	return &http.Client{Transport: rt}, rt
}

func newMockResponse(statusCode int, body string, headers map[string]string) *http.Response {
	header := http.Header{}
	for k, v := range headers {
		header.Set(k, v)
	}
	return &http.Response{
		StatusCode: statusCode,
		Body:       io.NopCloser(bytes.NewBufferString(body)),
		Header:     header,
	}
}

func fastRetry(attempts int) RetryConfig {
	cfg := DefaultRetryConfig()
	cfg.MaxAttempts = attempts
	cfg.BaseDelay = time.Millisecond
	cfg.MaxDelay = 5 * time.Millisecond
	return cfg
}

func TestSnippet(t *testing.T) {
	testCases := []struct {
		input    string
		max      int
		expected string
	}{
		{"short text", 100, "short text"},
		{"", 100, ""},
		{"  trimmed  ", 100, "trimmed"},
		{"long text that should be truncated", 10, "long text ..."},
	}

	for _, tc := range testCases {
		result := snippet([]byte(tc.input), tc.max)
		if result != tc.expected {
			t.Errorf("snippet(%q, %d) = %q, want %q", tc.input, tc.max, result, tc.expected)
		}
	}
}

func TestHTTPError(t *testing.T) {
	err := &HTTPError{Method: "GET", URL: exampleURL, StatusCode: 404, Body: []byte("Not Found")}

	expected := "http error: GET " + exampleURL + " status=404 body=Not Found"
	if err.Error() != expected {
		t.Errorf("HTTPError.Error() = %q, want %q", err.Error(), expected)
	}
}

func TestIsRetryableStatus(t *testing.T) {
	cfg := DefaultRetryConfig()

	for _, status := range []int{429, 408, 425, 500, 502, 503, 504} {
		if !isRetryableStatus(status, cfg) {
			t.Errorf("Expected status %d to be retryable", status)
		}
	}
	for _, status := range []int{400, 401, 403, 404, 422} {
		if isRetryableStatus(status, cfg) {
			t.Errorf("Expected status %d to not be retryable", status)
		}
	}

	cfg.Retry5xx = false
	if isRetryableStatus(500, cfg) {
		t.Error("Expected status 500 to not be retryable when Retry5xx is false")
	}
	if !isRetryableStatus(429, cfg) {
		t.Error("Expected status 429 to be retryable regardless of Retry5xx")
	}
}

func TestIsRetryableNetErr(t *testing.T) {
	if isRetryableNetErr(context.Canceled) {
		t.Error("Expected context.Canceled to not be retryable")
	}
	if !isRetryableNetErr(context.DeadlineExceeded) {
		t.Error("Expected context.DeadlineExceeded to be retryable")
	}
	if !isRetryableNetErr(&timeoutError{}) {
		t.Error("Expected timeout error to be retryable")
	}
	for _, msg := range []string{"connection reset by peer", "write: broken pipe", "unexpected EOF"} {
		if !isRetryableNetErr(errors.New(msg)) {
			t.Errorf("Expected %q to be retryable", msg)
		}
	}
	if isRetryableNetErr(errors.New("some other error")) {
		t.Error("Expected 'some other error' to not be retryable")
	}
}

func TestParseRetryAfter(t *testing.T) {
	resp := &http.Response{Header: http.Header{}}
	resp.Header.Set("Retry-After", "30")
	if d := ParseRetryAfter(resp); d != 30*time.Second {
		t.Errorf("Expected 30s, got %v", d)
	}

	resp.Header.Set("Retry-After", time.Now().Add(-time.Minute).UTC().Format(http.TimeFormat))
	if d := ParseRetryAfter(resp); d != 0 {
		t.Errorf("Expected 0 for past date, got %v", d)
	}

	resp.Header.Set("Retry-After", "invalid")
	if d := ParseRetryAfter(resp); d != 0 {
		t.Errorf("Expected 0 for invalid format, got %v", d)
	}

	resp.Header.Del("Retry-After")
	if d := ParseRetryAfter(resp); d != 0 {
		t.Errorf("Expected 0 for empty header, got %v", d)
	}
}

func TestDownloadFile(t *testing.T) {
	client, _ := newMockClient([]*http.Response{newMockResponse(200, "PK-archive", nil)}, nil)
	dest := filepath.Join(t.TempDir(), "in", "course.opi")

	n, err := DownloadFile(context.Background(), client, exampleURL, dest, DefaultRetryConfig())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if n != int64(len("PK-archive")) {
		t.Errorf("Expected %d bytes, got %d", len("PK-archive"), n)
	}
	got, err := os.ReadFile(dest)
	if err != nil || string(got) != "PK-archive" {
		t.Errorf("Unexpected file content %q (err=%v)", got, err)
	}
}

func TestDownloadFileRetriesStatus(t *testing.T) {
	client, rt := newMockClient([]*http.Response{
		newMockResponse(429, "slow down", map[string]string{"Retry-After": "0"}),
		newMockResponse(503, "busy", nil),
		newMockResponse(200, "ok", nil),
	}, nil)
	dest := filepath.Join(t.TempDir(), "course.opi")

	if _, err := DownloadFile(context.Background(), client, exampleURL, dest, fastRetry(3)); err != nil {
		t.Fatalf("Expected no error after retry, got %v", err)
	}
	if rt.index != 3 {
		t.Errorf("Expected 3 attempts, got %d", rt.index)
	}
}

func TestDownloadFileRetriesNetworkError(t *testing.T) {
	client, _ := newMockClient(
		[]*http.Response{nil, newMockResponse(200, "ok", nil)},
		[]error{errors.New("connection reset by peer"), nil},
	)
	dest := filepath.Join(t.TempDir(), "course.opi")

	if _, err := DownloadFile(context.Background(), client, exampleURL, dest, fastRetry(2)); err != nil {
		t.Fatalf("Expected no error after retry, got %v", err)
	}
}

func TestDownloadFileMaxAttemptsExceeded(t *testing.T) {
	client, _ := newMockClient([]*http.Response{
		newMockResponse(500, "server error", nil),
		newMockResponse(500, "server error", nil),
	}, nil)
	dest := filepath.Join(t.TempDir(), "course.opi")

	_, err := DownloadFile(context.Background(), client, exampleURL, dest, fastRetry(2))
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("Expected HTTPError, got %T (%v)", err, err)
	}
	if httpErr.StatusCode != 500 {
		t.Errorf("Expected status code 500, got %d", httpErr.StatusCode)
	}
	if _, statErr := os.Stat(dest); !os.IsNotExist(statErr) {
		t.Errorf("Expected no file at %s after failure", dest)
	}
}

func TestDownloadFileNotFoundIsNotRetried(t *testing.T) {
	client, rt := newMockClient([]*http.Response{
		newMockResponse(404, "missing", nil),
		newMockResponse(200, "ok", nil),
	}, nil)

	_, err := DownloadFile(context.Background(), client, exampleURL, filepath.Join(t.TempDir(), "x"), fastRetry(3))
	if err == nil || !strings.Contains(err.Error(), "status=404") {
		t.Errorf("Expected 404 error, got %v", err)
	}
	if rt.index != 1 {
		t.Errorf("Expected a single attempt, got %d", rt.index)
	}
}

func TestDownloadFileNonRetryableError(t *testing.T) {
	client, _ := newMockClient([]*http.Response{nil}, []error{errors.New("tls: bad certificate")})

	_, err := DownloadFile(context.Background(), client, exampleURL, filepath.Join(t.TempDir(), "x"), DefaultRetryConfig())
	if err == nil || !strings.Contains(err.Error(), "bad certificate") {
		t.Errorf("Expected certificate error, got %v", err)
	}
}

func TestSleepBackoff(t *testing.T) {
	ctx := context.Background()
	start := time.Now()
	if err := sleepBackoff(ctx, 1, 5*time.Millisecond, 50*time.Millisecond, 0); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if d := time.Since(start); d < 5*time.Millisecond {
		t.Errorf("Expected sleep of at least 5ms, got %v", d)
	}

	start = time.Now()
	if err := sleepBackoff(ctx, 1, 50*time.Millisecond, 100*time.Millisecond, 10*time.Millisecond); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if d := time.Since(start); d < 10*time.Millisecond {
		t.Errorf("Expected sleep of at least 10ms, got %v", d)
	}

	cctx, cancel := context.WithCancel(ctx)
	cancel()
	if err := sleepBackoff(cctx, 1, time.Second, 2*time.Second, 0); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled error, got %v", err)
	}
}

type timeoutError struct{}

func (e *timeoutError) Error() string   { return "timeout error" }
func (e *timeoutError) Timeout() bool   { return true }
func (e *timeoutError) Temporary() bool { return true }
