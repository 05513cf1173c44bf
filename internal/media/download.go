package media

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultDownloadTimeout = 120 * time.Second

// Downloader streams remote assets to a writer.
type Downloader struct {
	client  *http.Client
	timeout time.Duration
}

// NewDownloader returns a downloader using client (http.DefaultClient when
// nil). Each fetch is bounded by timeout, 120s when zero.
func NewDownloader(client *http.Client, timeout time.Duration) *Downloader {
	if client == nil {
		client = http.DefaultClient
	}
	if timeout <= 0 {
		timeout = defaultDownloadTimeout
	}
	return &Downloader{client: client, timeout: timeout}
}

// Fetch copies the body at url into w and returns its declared content type
// and the number of bytes written.
func (d *Downloader) Fetch(ctx context.Context, url string, w io.Writer) (string, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", 0, fmt.Errorf("media: build download request: %w", err)
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("media: download %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", 0, fmt.Errorf("media: download %s: http %d", url, resp.StatusCode)
	}
	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return "", n, fmt.Errorf("media: download %s: %w", url, err)
	}
	return resp.Header.Get("Content-Type"), n, nil
}
