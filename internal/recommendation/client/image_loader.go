package client

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/tair/cosmetics-recommender/internal/recommendation/domain"
)

const (
	defaultImageMIME = "image/jpeg"
	maxImageBytes    = 10 << 20
)

var supportedImageMIME = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

// ImageLoader resolves data URIs, http(s) URLs and bare base64 payloads.
type ImageLoader struct {
	httpClient *http.Client
}

func NewImageLoader(timeout time.Duration) *ImageLoader {
	return NewImageLoaderWithHTTP(&http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	})
}

func NewImageLoaderWithHTTP(httpClient *http.Client) *ImageLoader {
	return &ImageLoader{httpClient: httpClient}
}

// Load returns ErrInvalidRequest for payloads that cannot be decoded. Fetch
// failures are returned as plain errors.
func (l *ImageLoader) Load(ctx context.Context, ref string) ([]byte, string, error) {
	ref = strings.TrimSpace(ref)
	switch {
	case strings.HasPrefix(ref, "data:image"):
		return decodeDataURI(ref)
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		return l.fetch(ctx, ref)
	default:
		data, err := base64.StdEncoding.DecodeString(ref)
		if err != nil {
			return nil, "", fmt.Errorf("%w: image is not valid base64", domain.ErrInvalidRequest)
		}
		return data, defaultImageMIME, nil
	}
}

// decodeDataURI handles data:image/png;base64,<payload>.
func decodeDataURI(ref string) ([]byte, string, error) {
	header, payload, ok := strings.Cut(ref, ",")
	if !ok {
		return nil, "", fmt.Errorf("%w: malformed data URI", domain.ErrInvalidRequest)
	}
	mimeType, _, _ := strings.Cut(strings.TrimPrefix(header, "data:"), ";")
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("%w: data URI payload is not valid base64", domain.ErrInvalidRequest)
	}
	return data, supportedMIME(mimeType), nil
}

func (l *ImageLoader) fetch(ctx context.Context, ref string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return nil, "", fmt.Errorf("%w: invalid image URL", domain.ErrInvalidRequest)
	}
	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("failed to fetch image: status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read image: %w", err)
	}

	mimeType, _, _ := strings.Cut(resp.Header.Get("Content-Type"), ";")
	return data, supportedMIME(strings.TrimSpace(mimeType)), nil
}

func supportedMIME(mimeType string) string {
	mimeType = strings.ToLower(mimeType)
	if slices.Contains(supportedImageMIME, mimeType) {
		return mimeType
	}
	return defaultImageMIME
}
