package object_storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// HTTPFetcher Download assets from plain URLs, retrying transient failures
type HTTPFetcher struct {
	// Destination path for all downloads
	assetsPath string
	client     *retryablehttp.Client
}

// NewHTTPFetcher Fetcher writing into assetsPath, retrying a request up to retryMax times
func NewHTTPFetcher(assetsPath string, retryMax int) *HTTPFetcher {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = retryMax
	retryClient.RetryWaitMin = 500 * time.Millisecond
	retryClient.RetryWaitMax = 5 * time.Second
	// Silence default debug logger
	retryClient.Logger = nil
	return &HTTPFetcher{assetsPath: assetsPath, client: retryClient}
}

// Fetch Download the content at rawURL, returning its local path. The file is named after the last URL segment
func (hf *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return "", fmt.Errorf("invalid asset url %q", rawURL)
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := hf.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("cannot fetch %s : %w", rawURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("cannot fetch %s : status %d", rawURL, resp.StatusCode)
	}

	writePath := LocalPath(hf.assetsPath, path.Base(u.Path))
	output, err := os.Create(writePath)
	if err != nil {
		return "", err
	}
	defer output.Close()
	if _, err = io.Copy(output, resp.Body); err != nil {
		return "", fmt.Errorf("cannot write %s : %w", writePath, err)
	}
	return writePath, nil
}
