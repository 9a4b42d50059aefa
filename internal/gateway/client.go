package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	apperrors "github.com/patientlink/web/pkg/errors"
)

// Client is the shared HTTP plumbing for the registry and document-store
// gateways. Every request carries the caller's bearer token; the backend
// owns all data, this client only consumes it.
type Client struct {
	baseURL string
	http    *http.Client
	log     zerolog.Logger
}

func NewClient(baseURL string, timeout time.Duration, log zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		log:     log.With().Str("component", "gateway").Logger(),
	}
}

func (c *Client) do(ctx context.Context, method, path, token string, body io.Reader, contentType string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, apperrors.NewTransport("failed to build request", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apperrors.NewTransport(fmt.Sprintf("request to %s failed", path), err)
	}
	return resp, nil
}

func (c *Client) getJSON(ctx context.Context, path, token string, out interface{}) error {
	resp, err := c.do(ctx, http.MethodGet, path, token, nil, "")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.apiError(resp)
	}
	return decode(resp.Body, out)
}

// apiError derives a failure message from the JSON detail field when
// present, else from the status text.
func (c *Client) apiError(resp *http.Response) error {
	message := http.StatusText(resp.StatusCode)

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err == nil && len(body) > 0 {
		var payload struct {
			Detail string `json:"detail"`
		}
		if jsonErr := json.Unmarshal(body, &payload); jsonErr == nil && payload.Detail != "" {
			message = payload.Detail
		}
	}

	c.log.Warn().
		Int("status", resp.StatusCode).
		Str("path", resp.Request.URL.Path).
		Msg("backend request failed")

	return apperrors.NewTransport(message, nil)
}

func decode(r io.Reader, out interface{}) error {
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(r).Decode(out); err != nil {
		return apperrors.NewTransport("failed to decode backend response", err)
	}
	return nil
}
