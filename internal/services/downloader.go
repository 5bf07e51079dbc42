package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/Thagi/paper-scope/internal/platform/logger"
)

// Downloader fetches PDF assets to local storage.
type Downloader struct {
	client *http.Client
	log    *logger.Logger
}

func NewDownloader(log *logger.Logger) *Downloader {
	return &Downloader{
		client: &http.Client{Timeout: 60 * time.Second},
		log:    log.With("service", "Downloader"),
	}
}

// Download writes the remote file to destination, creating parent
// directories as needed. Redirects are followed; a non-2xx status is an
// error and leaves no partial file behind.
func (d *Downloader) Download(ctx context.Context, url, destination string) error {
	if err := os.MkdirAll(filepath.Dir(destination), 0o755); err != nil {
		return fmt.Errorf("downloader: create directory: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("downloader: build request: %w", err)
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("downloader: fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("downloader: fetch %s: unexpected status %d", url, resp.StatusCode)
	}

	tmp := destination + ".partial"
	file, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("downloader: create file: %w", err)
	}
	if _, err := io.Copy(file, resp.Body); err != nil {
		file.Close()
		os.Remove(tmp)
		return fmt.Errorf("downloader: write %s: %w", destination, err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("downloader: close file: %w", err)
	}
	if err := os.Rename(tmp, destination); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("downloader: finalize %s: %w", destination, err)
	}
	return nil
}
