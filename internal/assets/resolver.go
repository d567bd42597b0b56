// Package assets resolves image references from Markdown sources to local
// files. Remote URLs are downloaded once into a content-addressed cache;
// local references are resolved against the source document's directory.
package assets

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// userAgent mimics a browser; several image hosts reject generic Go client
// identifiers.
const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

const defaultExt = ".jpg"

// imageExts are the extensions trusted when found in a URL path.
var imageExts = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true,
	".gif": true, ".webp": true, ".bmp": true, ".svg": true,
}

// wxFormatExts maps the wx_fmt query hint used by WeChat image URLs to a
// file extension.
var wxFormatExts = map[string]string{
	"jpeg": ".jpg",
	"jpg":  ".jpg",
	"png":  ".png",
	"gif":  ".gif",
	"webp": ".webp",
	"bmp":  ".bmp",
}

// Resolver turns image references into local file paths.
type Resolver struct {
	cacheDir string
	http     *http.Client
	logger   *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithHTTPClient overrides the download client.
func WithHTTPClient(h *http.Client) Option {
	return func(r *Resolver) { r.http = h }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) { r.logger = l }
}

// NewResolver creates a resolver caching downloads under cacheDir, which is
// created if missing.
func NewResolver(cacheDir string, opts ...Option) (*Resolver, error) {
	if cacheDir == "" {
		cacheDir = filepath.Join(os.TempDir(), "larkpub-images")
	}
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("assets: create cache dir: %w", err)
	}
	r := &Resolver{
		cacheDir: cacheDir,
		http:     &http.Client{Timeout: 30 * time.Second},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// CacheDir returns the directory holding downloaded images.
func (r *Resolver) CacheDir() string { return r.cacheDir }

// Resolve returns a local path for ref. Remote references are downloaded
// into the cache (or reused when already present); local references are
// resolved relative to baseDir when not absolute.
func (r *Resolver) Resolve(ctx context.Context, ref, baseDir string) (string, error) {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return r.download(ctx, ref)
	}

	path := ref
	if !filepath.IsAbs(path) {
		path = filepath.Join(baseDir, ref)
	}
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("assets: local image %s: %w", ref, err)
	}
	return path, nil
}

// download fetches a remote image into the cache. The cache filename is
// derived from the URL alone, so resolving the same URL twice performs one
// network fetch.
func (r *Resolver) download(ctx context.Context, rawURL string) (string, error) {
	local := filepath.Join(r.cacheDir, cacheFilename(rawURL))
	if _, err := os.Stat(local); err == nil {
		return local, nil
	}

	r.logger.Info("assets: downloading image", slog.String("url", truncate(rawURL, 60)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("assets: build download request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := r.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("assets: download %s: %w", truncate(rawURL, 60), err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("assets: download %s: HTTP %d", truncate(rawURL, 60), resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("assets: read image body: %w", err)
	}
	if err := os.WriteFile(local, data, 0o644); err != nil {
		return "", fmt.Errorf("assets: cache image: %w", err)
	}
	return local, nil
}

// cacheFilename derives a stable name from the URL hash and the inferred
// extension.
func cacheFilename(rawURL string) string {
	sum := md5.Sum([]byte(rawURL))
	return "img_" + hex.EncodeToString(sum[:])[:12] + inferExt(rawURL)
}

// inferExt picks an extension from the URL path, then the wx_fmt query
// hint, then the default.
func inferExt(rawURL string) string {
	if u, err := url.Parse(rawURL); err == nil {
		if ext := strings.ToLower(filepath.Ext(u.Path)); imageExts[ext] {
			return ext
		}
		if fmt := u.Query().Get("wx_fmt"); fmt != "" {
			if ext, ok := wxFormatExts[fmt]; ok {
				return ext
			}
			return defaultExt
		}
	}
	return defaultExt
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
