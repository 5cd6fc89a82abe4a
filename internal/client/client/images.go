package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/dmitrijs2005/pixelstudio/internal/client/models"
	"github.com/dmitrijs2005/pixelstudio/internal/netx"
)

type presignRequest struct {
	ContentType string `json:"contentType,omitempty"`
}

type createImageRequest struct {
	Key string `json:"key"`
}

// uploadFn is a test seam for the object-store PUT.
var uploadFn = netx.UploadToPresignedURL

// PresignUpload asks for a presigned PUT target under the caller's prefix.
func (c *Client) PresignUpload(ctx context.Context, contentType string) (*models.Upload, error) {
	var resp models.Upload
	err := c.do(ctx, call{
		method:    http.MethodPost,
		path:      "/api/uploads/presign",
		body:      presignRequest{ContentType: contentType},
		out:       &resp,
		protected: true,
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// CreateImage records an uploaded object as one of the caller's images.
func (c *Client) CreateImage(ctx context.Context, key string) (*models.Image, error) {
	var img models.Image
	err := c.do(ctx, call{
		method:    http.MethodPost,
		path:      "/api/images",
		body:      createImageRequest{Key: key},
		out:       &img,
		protected: true,
	})
	if err != nil {
		return nil, err
	}
	return &img, nil
}

// ListImages returns the caller's images, newest first.
func (c *Client) ListImages(ctx context.Context) ([]models.Image, error) {
	var imgs []models.Image
	if err := c.do(ctx, call{method: http.MethodGet, path: "/api/images/my-images", out: &imgs, protected: true}); err != nil {
		return nil, err
	}
	return imgs, nil
}

func (c *Client) DeleteImage(ctx context.Context, id string) error {
	return c.do(ctx, call{method: http.MethodDelete, path: "/api/images/" + url.PathEscape(id), protected: true})
}

// Upload presigns, PUTs data to the object store, and records the image.
func (c *Client) Upload(ctx context.Context, contentType string, data []byte) (*models.Image, error) {
	target, err := c.PresignUpload(ctx, contentType)
	if err != nil {
		return nil, err
	}
	if err := uploadFn(ctx, c.upload, target.URL, contentType, data); err != nil {
		return nil, fmt.Errorf("uploading object: %w", err)
	}
	return c.CreateImage(ctx, target.Key)
}
