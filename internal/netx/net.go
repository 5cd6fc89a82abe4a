// Package netx holds HTTP helpers that sit outside the API client.
package netx

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
)

const defaultContentType = "application/octet-stream"

// UploadToPresignedURL PUTs body to a presigned object-store URL. A nil hc
// means http.DefaultClient. Any non-2xx answer is an error carrying the
// start of the response body.
func UploadToPresignedURL(ctx context.Context, hc *http.Client, url, contentType string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	if contentType == "" {
		contentType = defaultContentType
	}
	req.Header.Set("Content-Type", contentType)

	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return fmt.Errorf("upload failed: %s; body: %s", resp.Status, string(b))
	}
	return nil
}
