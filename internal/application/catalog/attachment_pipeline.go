package catalog

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// maxAssetSize bounds a single downloaded attachment (20MB).
const maxAssetSize = 20 * 1024 * 1024

// AssetStorage places a fetched binary asset and returns its durable
// URL. Implemented by the infrastructure layer (local directory or
// S3-compatible host); the mode is a deployment decision, never per
// call.
type AssetStorage interface {
	Store(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// attachmentIDPattern matches the embedded attachment identifier in
// known provider URL shapes, e.g. .../attXYZ123.../download.
var attachmentIDPattern = regexp.MustCompile(`att[A-Za-z0-9]{10,}`)

// AttachmentPipeline fetches remote image attachments and re-hosts
// them as durably served assets. Descriptors are processed in
// fixed-size concurrent batches; batches run sequentially relative to
// each other.
type AttachmentPipeline struct {
	storage        AssetStorage
	httpClient     *http.Client
	batchSize      int
	maxRetries     int
	fetchTimeout   time.Duration
	placeholderURL string
	logger         *zap.Logger
}

// NewAttachmentPipeline creates a pipeline from sync configuration.
func NewAttachmentPipeline(cfg *config.SyncConfig, storage AssetStorage, log *zap.Logger) *AttachmentPipeline {
	return &AttachmentPipeline{
		storage:        storage,
		httpClient:     &http.Client{Timeout: cfg.FetchTimeout},
		batchSize:      cfg.BatchSize,
		maxRetries:     cfg.MaxRetries,
		fetchTimeout:   cfg.FetchTimeout,
		placeholderURL: cfg.PlaceholderImageURL,
		logger:         log.Named("attachments"),
	}
}

// Resolve re-hosts every descriptor for one product and returns a URL
// list positionally aligned with the input. A descriptor that exhausts
// its retries yields the placeholder URL and a recovered SyncError; it
// never fails the batch.
func (p *AttachmentPipeline) Resolve(ctx context.Context, env catalog.Environment, descs []catalog.AttachmentDescriptor) ([]string, []catalog.SyncError) {
	urls := make([]string, len(descs))
	failures := make([]error, len(descs))

	for start := 0; start < len(descs); start += p.batchSize {
		end := start + p.batchSize
		if end > len(descs) {
			end = len(descs)
		}

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				urls[i], failures[i] = p.resolveOne(ctx, fmt.Sprintf("products/%s", env), descs[i])
			}(i)
		}
		wg.Wait()
	}

	var errs []catalog.SyncError
	for i, err := range failures {
		if err != nil {
			errs = append(errs, catalog.SyncError{
				Code:    "ATTACHMENT_ERROR",
				Message: fmt.Sprintf("attachment %s: %v", descs[i].URL, err),
			})
		}
	}
	return urls, errs
}

// ResolveNamedAsset re-hosts a single named asset (site logos, web
// photos) under its own asset-class namespace.
func (p *AttachmentPipeline) ResolveNamedAsset(ctx context.Context, env catalog.Environment, name string, desc catalog.AttachmentDescriptor) (string, error) {
	return p.resolveOne(ctx, fmt.Sprintf("webphotos/%s/%s", env, name), desc)
}

// resolveOne fetches one descriptor with bounded retries and stores it
// under the given namespace, substituting the placeholder on total
// failure. The computed filename is reused across attempts so repeat
// syncs against an unchanged source never create duplicate assets.
func (p *AttachmentPipeline) resolveOne(ctx context.Context, namespace string, desc catalog.AttachmentDescriptor) (string, error) {
	filename := StableFilename(desc)
	key := namespace + "/" + filename

	var lastErr error
	for attempt := 1; attempt <= p.maxRetries; attempt++ {
		data, contentType, err := p.fetch(ctx, desc.URL)
		if err != nil {
			lastErr = err
			continue
		}
		hosted, err := p.storage.Store(ctx, key, data, contentType)
		if err != nil {
			lastErr = err
			continue
		}
		return hosted, nil
	}

	p.logger.Warn("attachment exhausted retries, substituting placeholder",
		zap.String("url", desc.URL),
		zap.Int("attempts", p.maxRetries),
		zap.Error(lastErr))
	return p.placeholderURL, lastErr
}

// fetch downloads one binary payload with a bounded timeout.
func (p *AttachmentPipeline) fetch(ctx context.Context, rawURL string) ([]byte, string, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, p.fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(fetchCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to build request: %w", err)
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch attachment: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("attachment fetch returned status %d", resp.StatusCode)
	}
	// Read one byte past the limit so an oversize body is detected
	// rather than silently truncated and stored corrupt.
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxAssetSize+1))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read attachment body: %w", err)
	}
	if len(data) > maxAssetSize {
		return nil, "", fmt.Errorf("attachment exceeds %d byte limit", maxAssetSize)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return data, contentType, nil
}

// StableFilename derives a deterministic asset filename for a
// descriptor. The descriptor's original filename wins; otherwise an
// embedded attachment identifier is extracted from known URL shapes,
// falling back to a content hash of the URL. The original extension is
// preserved.
func StableFilename(desc catalog.AttachmentDescriptor) string {
	if desc.Filename != "" {
		return sanitizeFilename(desc.Filename)
	}

	ext := extensionFromURL(desc.URL)
	if id := attachmentIDPattern.FindString(desc.URL); id != "" {
		return id + ext
	}

	sum := sha256.Sum256([]byte(desc.URL))
	return hex.EncodeToString(sum[:8]) + ext
}

// extensionFromURL extracts the file extension from a URL path.
func extensionFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	ext := path.Ext(u.Path)
	if len(ext) > 8 {
		// Not a real extension, just a dotted path segment
		return ""
	}
	return strings.ToLower(ext)
}

// sanitizeFilename strips path separators from descriptor-provided
// names so they cannot escape the asset namespace.
func sanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	return path.Base(name)
}
