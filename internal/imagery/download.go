package imagery

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"slidecraft/pkg/httputil"
)

const (
	browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	maxImageBytes    = 20 << 20
)

// Downloader fetches candidate image bytes, validates them and persists them
// under a fingerprint-keyed cache directory. The disk cache is advisory:
// clearing it at any time only costs re-downloads.
type Downloader struct {
	client   *httputil.RetryClient
	cacheDir string
	minBytes int
}

func NewDownloader(client *http.Client, cacheDir string, minBytes int) *Downloader {
	return &Downloader{
		client:   httputil.NewRetryClient(client, httputil.DefaultRetryConfig()),
		cacheDir: cacheDir,
		minBytes: minBytes,
	}
}

// Fetch downloads the candidate URL for (source, signature) and returns a
// local file path. A cached file under the same fingerprint short-circuits
// the network entirely.
func (d *Downloader) Fetch(ctx context.Context, source, signature, imageURL string) (string, error) {
	key := Fingerprint(source, signature)
	ext := extensionFor(imageURL)
	path := filepath.Join(d.cacheDir, key+ext)

	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	data, err := d.download(ctx, imageURL)
	if err != nil {
		return "", err
	}

	if !isValidImage(data) {
		return "", fmt.Errorf("not a decodable image (%d bytes)", len(data))
	}
	if len(data) < d.minBytes {
		return "", fmt.Errorf("image too small: %d bytes", len(data))
	}

	if err := os.MkdirAll(d.cacheDir, 0o755); err != nil {
		return "", fmt.Errorf("create cache dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write image: %w", err)
	}

	return path, nil
}

func (d *Downloader) download(ctx context.Context, imageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", browserUserAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download image: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download image: %s", resp.Status)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType != "" && !isImageContentType(contentType) {
		return nil, fmt.Errorf("invalid content type: %s", contentType)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, fmt.Errorf("read image data: %w", err)
	}
	return data, nil
}

// Fingerprint derives the stable disk cache key for a (source, signature)
// pair.
func Fingerprint(source, signature string) string {
	sum := sha256.Sum256([]byte(source + "|" + signature))
	return hex.EncodeToString(sum[:16])
}

func extensionFor(imageURL string) string {
	lower := strings.ToLower(imageURL)
	switch {
	case strings.Contains(lower, ".png"):
		return ".png"
	case strings.Contains(lower, ".gif"):
		return ".gif"
	default:
		return ".jpg"
	}
}

func isValidImage(data []byte) bool {
	if len(data) < 100 {
		return false
	}
	if bytes.HasPrefix(data, []byte{0xFF, 0xD8, 0xFF}) {
		return true
	}
	if bytes.HasPrefix(data, []byte{0x89, 0x50, 0x4E, 0x47}) {
		return true
	}
	_, _, err := image.Decode(bytes.NewReader(data))
	return err == nil
}

func isImageContentType(contentType string) bool {
	return strings.HasPrefix(strings.ToLower(contentType), "image/")
}
