package images

import (
	"context"
	"net/url"
	"path"
	"strings"

	"github.com/maauso/sportsreel-api/internal/apiclient"
)

// userAgent is sent with image downloads; some hosts reject empty agents.
const userAgent = "Mozilla/5.0 (compatible; sportsreel/1.0)"

// HTTPDownloader fetches images over HTTP.
type HTTPDownloader struct {
	client *apiclient.Client
}

// NewHTTPDownloader creates a downloader. Extra options are passed to the
// underlying client, e.g. a timeout.
func NewHTTPDownloader(opts ...apiclient.Option) *HTTPDownloader {
	opts = append([]apiclient.Option{apiclient.WithHeader("User-Agent", userAgent)}, opts...)
	// The base URL is unused: downloads take absolute URLs.
	client, _ := apiclient.New("image-download", "http://localhost", opts...)
	return &HTTPDownloader{client: client}
}

// Download writes the image at rawURL to destPath.
func (d *HTTPDownloader) Download(ctx context.Context, rawURL, destPath string) error {
	return d.client.Download(ctx, rawURL, destPath)
}

// Extension guesses a file extension from an image URL, defaulting to ".jpg".
func Extension(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ".jpg"
	}
	switch ext := strings.ToLower(path.Ext(u.Path)); ext {
	case ".jpg", ".jpeg", ".png", ".webp", ".gif", ".bmp":
		return ext
	default:
		return ".jpg"
	}
}
