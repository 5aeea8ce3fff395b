package ml

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
)

// BlobFetcher downloads a model artifact from a remote blob location into a
// local path. Fetch failures surface as resolution-tier failures; they never
// crash the serving process.
type BlobFetcher struct {
	url  string
	rest *resty.Client
}

// NewBlobFetcher builds a fetcher for the given blob URL.
func NewBlobFetcher(url string, timeout time.Duration) *BlobFetcher {
	r := resty.New()
	if timeout > 0 {
		r.SetTimeout(timeout)
	} else {
		r.SetTimeout(30 * time.Second)
	}
	return &BlobFetcher{url: url, rest: r}
}

// Fetch downloads the blob and writes it atomically to destPath, so a
// concurrent local load never observes a partial artifact.
func (f *BlobFetcher) Fetch(ctx context.Context, destPath string) error {
	resp, err := f.rest.R().SetContext(ctx).Get(f.url)
	if err != nil {
		return fmt.Errorf("fetch artifact blob: %w", err)
	}
	if resp.StatusCode() != 200 {
		return fmt.Errorf("fetch artifact blob: unexpected status %d from %s", resp.StatusCode(), f.url)
	}
	if err := writeFileAtomic(destPath, resp.Body()); err != nil {
		return fmt.Errorf("write fetched artifact: %w", err)
	}

	log.Info().
		Str("url", f.url).
		Str("dest", destPath).
		Int("bytes", len(resp.Body())).
		Msg("model artifact fetched from remote blob")
	return nil
}
