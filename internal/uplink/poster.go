package uplink

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultTimeout bounds one delivery attempt.
const DefaultTimeout = 1500 * time.Millisecond

// Poster delivers one job. A nil error means the remote answered.
type Poster interface {
	Post(ctx context.Context, j Job) error
}

// HTTPPoster sends jobs as JSON POSTs. Any HTTP response, whatever its status,
// counts as delivered; only transport errors are failures.
type HTTPPoster struct {
	base   string
	client *http.Client
}

func NewHTTPPoster(baseURL string, timeout time.Duration) *HTTPPoster {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPPoster{
		base:   strings.TrimRight(baseURL, "/"),
		client: &http.Client{Timeout: timeout},
	}
}

func (p *HTTPPoster) Post(ctx context.Context, j Job) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.base+j.Endpoint, bytes.NewReader(j.Payload))
	if err != nil {
		return fmt.Errorf("build request %s: %w", j.Endpoint, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("post %s: %w", j.Endpoint, err)
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
	_ = resp.Body.Close()
	return nil
}
