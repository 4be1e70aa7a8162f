package httpx

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
)

// DefaultTimeout bounds every request made by the management API clients.
const DefaultTimeout = 30 * time.Second

// AcceptEncoding is advertised on every request built through Do.
// Setting it by hand disables net/http's transparent gzip, so decodeBody handles both.
const AcceptEncoding = "br, gzip"

// HTTPError carries status/body for non-2xx responses.
type HTTPError struct {
	Method     string
	URL        string
	StatusCode int
	Header     http.Header
	Body       []byte
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http error: %s %s status=%d body=%s", e.Method, e.URL, e.StatusCode, snippet(e.Body, 900))
}

func snippet(b []byte, max int) string {
	s := strings.TrimSpace(string(b))
	if len(s) <= max {
		return s
	}
	return s[:max] + "…"
}

// NewClient returns an http.Client with the fixed per-request timeout.
func NewClient() *http.Client {
	return &http.Client{Timeout: DefaultTimeout}
}

// Do executes a single request built by buildReq. There are no retries:
// a transport error or a non-2xx status is returned to the caller as is.
// The body is always read fully so the connection can be reused.
func Do(
	ctx context.Context,
	client *http.Client,
	buildReq func(context.Context) (*http.Request, error),
) (*http.Response, []byte, error) {
	req, err := buildReq(ctx)
	if err != nil {
		return nil, nil, err
	}
	if req.Header.Get("Accept-Encoding") == "" {
		req.Header.Set("Accept-Encoding", AcceptEncoding)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, nil, err
	}

	body, err := readAndClose(resp)
	if err != nil {
		return resp, body, err
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, body, nil
	}

	return resp, body, &HTTPError{
		Method:     req.Method,
		URL:        req.URL.String(),
		StatusCode: resp.StatusCode,
		Header:     resp.Header.Clone(),
		Body:       body,
	}
}

func readAndClose(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	r, err := decodeBody(resp.Header.Get("Content-Encoding"), resp.Body)
	if err != nil {
		return nil, err
	}
	return io.ReadAll(r)
}

func decodeBody(encoding string, r io.Reader) (io.Reader, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "br":
		return brotli.NewReader(r), nil
	case "gzip":
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("httpx: gzip body: %w", err)
		}
		return zr, nil
	default:
		return r, nil
	}
}

// DoJSON is a convenience wrapper over Do that unmarshals JSON.
func DoJSON(
	ctx context.Context,
	client *http.Client,
	buildReq func(context.Context) (*http.Request, error),
	out any,
) error {
	_, body, err := Do(ctx, client, buildReq)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("json parse error: %w body=%s", err, snippet(body, 900))
	}
	return nil
}

// StatusCode extracts the HTTP status from an error returned by Do, or 0.
func StatusCode(err error) int {
	var herr *HTTPError
	if errors.As(err, &herr) {
		return herr.StatusCode
	}
	return 0
}
