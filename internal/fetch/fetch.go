// Package fetch downloads the resolved release asset to a local path with
// bounded retries. There is no resume support: every attempt restarts the
// transfer from byte zero.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/codexget/codexget/internal/httputil"
	"github.com/codexget/codexget/internal/log"
	"github.com/codexget/codexget/internal/progress"
)

const (
	// attemptTimeout bounds a single download attempt.
	attemptTimeout = 15 * time.Minute

	// maxAttempts is the number of tries before giving up.
	maxAttempts = 3

	// retryDelay is the initial backoff, doubling per retry.
	retryDelay = 2 * time.Second
)

// DownloadError reports a download that failed after exhausting retries.
type DownloadError struct {
	URL      string
	Status   int // last HTTP status, 0 when the transport failed
	Attempts int
	Err      error
}

func (e *DownloadError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("download failed after %d attempts (HTTP %d): %s", e.Attempts, e.Status, e.URL)
	}
	return fmt.Sprintf("download failed after %d attempts: %s", e.Attempts, e.URL)
}

func (e *DownloadError) Unwrap() error {
	return e.Err
}

// Fetcher downloads assets over a hardened HTTP client.
type Fetcher struct {
	client   *http.Client
	log      log.Logger
	attempts int
	delay    time.Duration
}

// New builds a Fetcher. A nil client gets the hardened download client;
// a nil logger gets the package default.
func New(client *http.Client, logger log.Logger) *Fetcher {
	if client == nil {
		client = httputil.NewSecureClient(httputil.DownloadOptions())
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Fetcher{
		client:   client,
		log:      logger,
		attempts: maxAttempts,
		delay:    retryDelay,
	}
}

// Download fetches url into destPath, retrying transient failures with
// exponential backoff. expectedSize feeds the progress display when the
// response carries no Content-Length; pass 0 when unknown.
func (f *Fetcher) Download(ctx context.Context, url, destPath string, expectedSize int64) error {
	var lastErr error
	lastStatus := 0

	for attempt := 1; attempt <= f.attempts; attempt++ {
		if attempt > 1 {
			delay := f.delay * time.Duration(1<<(attempt-2))
			f.log.Warn("download failed, retrying",
				"attempt", attempt, "of", f.attempts, "delay", delay, "error", lastErr)

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		var status int
		status, lastErr = f.downloadOnce(ctx, url, destPath, expectedSize)
		if lastErr == nil {
			return nil
		}
		if status != 0 {
			lastStatus = status
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}

	return &DownloadError{URL: url, Status: lastStatus, Attempts: f.attempts, Err: lastErr}
}

// downloadOnce performs a single attempt. It returns the HTTP status when
// a response arrived, 0 otherwise.
func (f *Fetcher) downloadOnce(ctx context.Context, url, destPath string, expectedSize int64) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, attemptTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	out, err := os.Create(destPath)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("failed to create file: %w", err)
	}
	defer out.Close()

	total := resp.ContentLength
	if total <= 0 {
		total = expectedSize
	}

	if progress.Enabled() && total > 0 {
		pw := progress.NewWriter(out, total, os.Stderr)
		defer pw.Finish()
		_, err = io.Copy(pw, resp.Body)
	} else {
		_, err = io.Copy(out, resp.Body)
	}
	if err != nil {
		return resp.StatusCode, fmt.Errorf("failed to write file: %w", err)
	}

	return resp.StatusCode, out.Close()
}
