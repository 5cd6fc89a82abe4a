package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/dmitrijs2005/pixelstudio/internal/client/models"
)

const refreshKey = "refresh"

// call describes one API request. Bodies are marshalled per attempt so a
// retried request never reuses a drained reader.
type call struct {
	method string
	path   string
	body   any
	out    any
	// protected calls refresh and retry once on 401.
	protected bool
}

func (c *Client) do(ctx context.Context, rc call) error {
	if rc.protected && c.SignedOut() {
		return ErrSignedOut
	}

	seen := c.currentGeneration()
	err := c.send(ctx, rc)
	if err == nil || !rc.protected || !errors.Is(err, ErrUnauthorized) {
		return err
	}

	if err := c.refreshAfter(ctx, seen); err != nil {
		return err
	}
	return c.send(ctx, rc)
}

// refreshAfter makes sure a session newer than seen exists. If another
// caller already refreshed, nothing goes over the wire.
func (c *Client) refreshAfter(ctx context.Context, seen uint64) error {
	_, err, shared := c.refreshes.Do(refreshKey, func() (any, error) {
		if c.SignedOut() {
			return nil, ErrSignedOut
		}
		if c.currentGeneration() != seen {
			return nil, nil
		}
		return c.refresh(context.WithoutCancel(ctx))
	})
	if shared {
		c.logger.Debug(ctx, "joined in-flight refresh")
	}
	return err
}

// refresh performs the refresh round-trip. A rejection ends the session;
// transport failures and 5xx leave it alone so the caller may try again.
func (c *Client) refresh(ctx context.Context) (*models.User, error) {
	var resp userEnvelope
	err := c.send(ctx, call{method: http.MethodPost, path: "/api/auth/refresh", out: &resp})
	if err != nil {
		if errors.Is(err, ErrUnauthorized) {
			c.sessionEnded()
			c.logger.Info(ctx, "refresh rejected, signed out")
			return nil, fmt.Errorf("%w: %w", ErrSignedOut, err)
		}
		c.logger.Warn(ctx, "refresh failed", "error", err)
		return nil, err
	}

	c.sessionStarted()
	c.logger.Debug(ctx, "session refreshed")
	return &resp.User, nil
}

func (c *Client) send(ctx context.Context, rc call) error {
	var body io.Reader
	if rc.body != nil {
		b, err := json.Marshal(rc.body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, rc.method, c.baseURL.JoinPath(rc.path).String(), body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp)
	}

	if rc.out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(rc.out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	var body struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&body); err == nil {
		apiErr.Message = body.Error
	}
	return apiErr
}
