package render

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"posterstudio/internal/domain"
)

// ImageLoader fetches an embedded image.
type ImageLoader interface {
	Load(ctx context.Context, ref string) (image.Image, error)
}

// HTTPLoader loads http(s) URLs with resty and decodes data: URIs inline.
type HTTPLoader struct {
	client *resty.Client
}

func NewHTTPLoader(timeout time.Duration) *HTTPLoader {
	return &HTTPLoader{client: resty.New().SetTimeout(timeout)}
}

func (l *HTTPLoader) Load(ctx context.Context, ref string) (image.Image, error) {
	if strings.HasPrefix(ref, "data:") {
		data, err := DecodeDataURI(ref)
		if err != nil {
			return nil, err
		}
		return decodeImage(data)
	}
	u, err := url.Parse(ref)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, fmt.Errorf("image %q: unsupported location", ref)
	}

	resp, err := l.client.R().SetContext(ctx).Get(ref)
	if err != nil {
		return nil, &domain.TransportError{Op: "fetch image", Err: err}
	}
	if resp.IsError() {
		return nil, &domain.TransportError{Op: "fetch image", Status: resp.StatusCode(), Message: resp.Status()}
	}
	return decodeImage(resp.Body())
}

func decodeImage(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

// DecodeDataURI returns the payload of a base64 data: URI.
func DecodeDataURI(uri string) ([]byte, error) {
	meta, payload, ok := strings.Cut(strings.TrimPrefix(uri, "data:"), ",")
	if !ok {
		return nil, fmt.Errorf("data uri: missing payload")
	}
	if !strings.HasSuffix(meta, ";base64") {
		return nil, fmt.Errorf("data uri: only base64 payloads are supported")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("data uri: %w", err)
	}
	return data, nil
}

// DataURI encodes data as a base64 data: URI.
func DataURI(contentType string, data []byte) string {
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
