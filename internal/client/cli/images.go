package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/dmitrijs2005/pixelstudio/internal/client/gate"
)

// readFile is a test seam for os.ReadFile.
var readFile = os.ReadFile

// Open reports what the web app would do on route for the current identity.
func (a *App) Open(ctx context.Context, route string) error {
	d, err := a.gate.Await(ctx, route)
	if err != nil {
		a.report("Open failed", err)
		return err
	}

	if d.Action == gate.Redirect {
		printlnFn(fmt.Sprintf("%s → redirect to %s", route, d.Location))
		return nil
	}
	printlnFn(fmt.Sprintf("%s → %s (%s)", route, d.Action, a.gate.Access(route)))
	return nil
}

// Images lists the caller's images, newest first.
func (a *App) Images(ctx context.Context) error {
	imgs, err := a.api.ListImages(ctx)
	if err != nil {
		a.report("Listing images failed", err)
		return err
	}
	if len(imgs) == 0 {
		printlnFn("No images yet")
		return nil
	}

	for _, img := range imgs {
		printlnFn(img.ID, img.CreatedAt.Local().Format("2006-01-02 15:04"), img.URL)
	}
	return nil
}

// Upload sends a local file to the media store and records it.
func (a *App) Upload(ctx context.Context, path string) error {
	data, err := readFile(path)
	if err != nil {
		printlnFn("Cannot read file:", err)
		return err
	}

	img, err := a.api.Upload(ctx, http.DetectContentType(data), data)
	if err != nil {
		a.report("Upload failed", err)
		return err
	}

	printlnFn("Uploaded", img.ID)
	return nil
}

func (a *App) Delete(ctx context.Context, id string) error {
	if err := a.api.DeleteImage(ctx, id); err != nil {
		a.report("Delete failed", err)
		return err
	}

	printlnFn("Deleted", id)
	return nil
}
