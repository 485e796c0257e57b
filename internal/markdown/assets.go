package markdown

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/zeebo/xxh3"
)

// Fetcher retrieves the bytes behind an asset URL. notion.Client.Download
// satisfies it; tests inject fakes.
type Fetcher func(ctx context.Context, url string) (io.ReadCloser, error)

var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
	".svg":  true,
}

// AssetResolver downloads referenced assets into a target directory,
// memoized by the existence of the content-derived target path.
type AssetResolver struct {
	fetch Fetcher
	log   *slog.Logger
}

// NewAssetResolver returns a resolver backed by the given fetch capability.
func NewAssetResolver(fetch Fetcher, logger *slog.Logger) *AssetResolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &AssetResolver{fetch: fetch, log: logger}
}

// Resolve downloads rawURL into targetDir and returns the local path. When
// filename is empty it is derived from a hash of the URL, so the same URL
// always lands on the same file; an existing target short-circuits the
// fetch. Errors are returned for the caller to fall back on the URL itself.
func (r *AssetResolver) Resolve(ctx context.Context, rawURL, targetDir, filename string) (string, error) {
	if filename == "" {
		filename = assetFilename(rawURL)
	}
	targetPath := filepath.Join(targetDir, filename)

	if _, err := os.Stat(targetPath); err == nil {
		return targetPath, nil
	}

	body, err := r.fetch(ctx, rawURL)
	if err != nil {
		return "", fmt.Errorf("fetch asset: %w", err)
	}
	defer body.Close()

	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return "", fmt.Errorf("create asset dir: %w", err)
	}
	out, err := os.Create(targetPath)
	if err != nil {
		return "", fmt.Errorf("create asset file: %w", err)
	}
	if _, err := io.Copy(out, body); err != nil {
		out.Close()
		os.Remove(targetPath)
		return "", fmt.Errorf("write asset file: %w", err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("close asset file: %w", err)
	}
	return targetPath, nil
}

// assetFilename derives a deterministic name from the URL: a short xxh3
// digest plus the extension found in the URL path, defaulting to .png.
func assetFilename(rawURL string) string {
	digest := fmt.Sprintf("%x", xxh3.Hash128([]byte(rawURL)).Bytes())[:12]

	ext := ".png"
	if parsed, err := url.Parse(rawURL); err == nil {
		if candidate := strings.ToLower(path.Ext(parsed.Path)); imageExtensions[candidate] {
			ext = candidate
		}
	}
	return "image-" + digest + ext
}
