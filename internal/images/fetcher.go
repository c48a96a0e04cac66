package images

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/openshelf/reportgen/internal/config"
)

const prefetchWorkers = 4

// Fetcher downloads product thumbnails into a per-run temp directory.
// Downloads may run concurrently but results are handed out from local
// files, so sheet writers stay strictly sequential.
type Fetcher struct {
	baseURL string
	client  *http.Client
	tempDir string

	mu    sync.Mutex
	paths map[string]string
}

// NewFetcher creates a Fetcher rooted at a fresh per-run directory under the
// configured temp dir.
func NewFetcher(cfg config.ImagesConfig, runID string) (*Fetcher, error) {
	dir := filepath.Join(cfg.TempDir, runID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create image temp dir %s: %w", dir, err)
	}

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &Fetcher{
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: timeout},
		tempDir: dir,
		paths:   make(map[string]string),
	}, nil
}

// ThumbnailURL builds the conventional thumbnail location for a product.
func (f *Fetcher) ThumbnailURL(projectID, productID string) string {
	return fmt.Sprintf("%s/images/%s/%s-1_tn.jpg", f.baseURL, projectID, productID)
}

// Prefetch downloads thumbnails for all product IDs with a bounded worker
// pool. A failed download is logged and skipped; it never fails the batch.
func (f *Fetcher) Prefetch(ctx context.Context, projectID string, productIDs []string) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(prefetchWorkers)

	for _, id := range productIDs {
		g.Go(func() error {
			if _, err := f.Fetch(ctx, projectID, id); err != nil {
				log.Warn().
					Str("project_id", projectID).
					Str("product_id", id).
					Err(err).
					Msg("thumbnail fetch failed, row will have no image")
			}
			return nil
		})
	}

	_ = g.Wait()
}

// Fetch downloads a single thumbnail and returns the local file path. The
// result is cached, so a Prefetch followed by per-row Fetch calls does not
// re-download.
func (f *Fetcher) Fetch(ctx context.Context, projectID, productID string) (string, error) {
	f.mu.Lock()
	if path, ok := f.paths[productID]; ok {
		f.mu.Unlock()
		return path, nil
	}
	f.mu.Unlock()

	url := f.ThumbnailURL(projectID, productID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build thumbnail request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("thumbnail fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("thumbnail fetch %s: status %d", url, resp.StatusCode)
	}

	localPath := filepath.Join(f.tempDir, fmt.Sprintf("%s-1_tn.jpg", productID))
	out, err := os.Create(localPath)
	if err != nil {
		return "", fmt.Errorf("create thumbnail file %s: %w", localPath, err)
	}

	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		os.Remove(localPath)
		return "", fmt.Errorf("write thumbnail %s: %w", localPath, err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("close thumbnail %s: %w", localPath, err)
	}

	f.mu.Lock()
	f.paths[productID] = localPath
	f.mu.Unlock()

	return localPath, nil
}

// Purge removes the per-run temp directory. Called on every run exit,
// success or failure.
func (f *Fetcher) Purge() {
	if err := os.RemoveAll(f.tempDir); err != nil {
		log.Warn().Str("dir", f.tempDir).Err(err).Msg("failed to purge image temp dir")
	}
}
