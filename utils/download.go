package utils

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/h2non/filetype"
)

// maxImageSize caps the number of bytes read from a single image resource.
const maxImageSize = 32 << 20

// ErrNotImage is returned when the fetched resource is not recognized as an image.
var ErrNotImage = errors.New("the resource is not a valid image type")

// FetchImage downloads the image located at url and returns its raw bytes.
// A nil client falls back to http.DefaultClient.
func FetchImage(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("unable to create request for %s: %w", url, err)
	}

	res, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("unable to download image file from URI: %s: %w", url, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unable to download image file from URI: %s, status %v", url, res.Status)
	}

	data, err := io.ReadAll(io.LimitReader(res.Body, maxImageSize))
	if err != nil {
		return nil, fmt.Errorf("unable to read response body: %w", err)
	}
	if !IsImage(data) {
		return nil, ErrNotImage
	}

	return data, nil
}

// ReadImageFile reads a local image file and verifies its content type.
func ReadImageFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if !IsImage(data) {
		return nil, ErrNotImage
	}
	return data, nil
}

// IsImage detects the file type by reading the magic numbers of the content.
func IsImage(data []byte) bool {
	// Only the first 262 bytes are needed to sniff the content type.
	head := data
	if len(head) > 262 {
		head = head[:262]
	}
	return filetype.IsImage(head)
}

// FetchText retrieves a small text resource, be it an url or a local file.
func FetchText(ctx context.Context, client *http.Client, src string) ([]byte, error) {
	if !IsValidUrl(src) {
		return os.ReadFile(src)
	}
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, fmt.Errorf("unable to create request for %s: %w", src, err)
	}
	res, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", src, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to load %s. Status: %v", src, res.Status)
	}
	return io.ReadAll(io.LimitReader(res.Body, maxImageSize))
}
