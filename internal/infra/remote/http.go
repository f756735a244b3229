package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/bryanwahyu/comms-analyzer/internal/common"
)

// maxErrorBody caps how much of a failed response is kept for diagnostics.
const maxErrorBody = 4 << 10

// NewHTTPClient returns the client shared by the remote document calls.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &http.Client{Timeout: timeout}
}

// do sends req and returns the response body. Non-2xx responses come back
// as *common.HTTPStatusError carrying the body text.
func do(client *http.Client, req *http.Request, log logrus.FieldLogger) ([]byte, error) {
	reqID := uuid.NewString()
	start := time.Now()
	entry := log.WithFields(logrus.Fields{
		"req_id": reqID,
		"method": req.Method,
		"host":   req.URL.Host,
	})

	resp, err := client.Do(req)
	if err != nil {
		entry.WithError(err).WithField("elapsed_ms", time.Since(start).Milliseconds()).Error("remote.http.send_error")
		return nil, err
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			entry.WithError(err).Warn("remote.http.response_body_close_error")
		}
	}(resp.Body)

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	entry.WithFields(logrus.Fields{
		"status":     resp.StatusCode,
		"bytes":      len(raw),
		"elapsed_ms": time.Since(start).Milliseconds(),
	}).Info("remote.http.response")

	if resp.StatusCode/100 != 2 {
		if len(raw) > maxErrorBody {
			raw = raw[:maxErrorBody]
		}
		return nil, &common.HTTPStatusError{StatusCode: resp.StatusCode, Status: resp.Status, Body: string(raw)}
	}
	return raw, nil
}

// postJSON marshals body, POSTs it to url and decodes the reply into out.
func postJSON(ctx context.Context, client *http.Client, url string, body, out any, log logrus.FieldLogger) error {
	bs, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bs))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	raw, err := do(client, req, log)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
