package coloring

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/jeana-hines/coloring-app-aws/utils"
)

// Loader fetches the line-art source of an artwork.
type Loader interface {
	Load(ctx context.Context, artworkID string) (image.Image, error)
}

// LoaderFunc adapts a function to the Loader interface.
type LoaderFunc func(ctx context.Context, artworkID string) (image.Image, error)

// Load calls f(ctx, artworkID).
func (f LoaderFunc) Load(ctx context.Context, artworkID string) (image.Image, error) {
	return f(ctx, artworkID)
}

// ResourceLoader resolves artwork identifiers under a base location, which
// is either an http(s) URL prefix or a local directory.
type ResourceLoader struct {
	Base   string
	Client *http.Client
}

// Resolve returns the location of the artwork's image.
func (l ResourceLoader) Resolve(artworkID string) string {
	if utils.IsValidUrl(l.Base) {
		return strings.TrimRight(l.Base, "/") + "/" + url.PathEscape(artworkID)
	}
	return filepath.Join(l.Base, filepath.FromSlash(artworkID))
}

// Load fetches and decodes the artwork's image.
func (l ResourceLoader) Load(ctx context.Context, artworkID string) (image.Image, error) {
	if artworkID == "" {
		return nil, errors.New("empty artwork identifier")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	src := l.Resolve(artworkID)
	var (
		data []byte
		err  error
	)
	if utils.IsValidUrl(src) {
		data, err = utils.FetchImage(ctx, l.Client, src)
	} else {
		data, err = utils.ReadImageFile(src)
	}
	if err != nil {
		return nil, fmt.Errorf("could not load %s: %w", src, err)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("could not decode %s: %w", src, err)
	}
	return img, nil
}
