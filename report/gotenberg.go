package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"
)

// ErrUnavailable wraps transport level failures talking to Gotenberg.
var ErrUnavailable = errors.New("report: gotenberg unavailable")

// Paper sizes in inches as expected by the Chromium route.
const (
	A4Width  = 8.27
	A4Height = 11.7
)

// Options tune a single conversion.
type Options struct {
	Landscape bool
	// Margin in inches applied to every side. Zero keeps Gotenberg's default.
	Margin float64
}

// Client wraps interactions with the Gotenberg API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient constructs a new client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Ping checks if the remote Gotenberg service is available.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/health", c.baseURL), nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("gotenberg returned status %d", resp.StatusCode)
	}
	return nil
}

// RenderHTML converts an HTML document into an A4 PDF.
func (c *Client) RenderHTML(ctx context.Context, html []byte, opts Options) ([]byte, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("files", "index.html")
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, bytes.NewReader(html)); err != nil {
		return nil, err
	}
	fields := map[string]string{
		"paperWidth":      formatInches(A4Width),
		"paperHeight":     formatInches(A4Height),
		"printBackground": "true",
		"landscape":       strconv.FormatBool(opts.Landscape),
	}
	if opts.Margin > 0 {
		for _, side := range []string{"marginTop", "marginBottom", "marginLeft", "marginRight"} {
			fields[side] = formatInches(opts.Margin)
		}
	}
	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			return nil, err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s/forms/chromium/convert/html", c.baseURL), body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("render failed with status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func formatInches(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
