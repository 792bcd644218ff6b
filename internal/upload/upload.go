// Package upload writes rendered artifacts to object storage through a
// presigned-URL broker.
package upload

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"posterstudio/internal/domain"
	"posterstudio/internal/metrics"
)

const suffixAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// Uploader stores a payload under a generated name and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, prefix, contentType string, body []byte) (string, error)
}

type Config struct {
	BrokerURL     string
	Bucket        string
	PublicBaseURL string
	Timeout       time.Duration
}

// Client implements the two-step broker contract: ask the broker for a
// presigned URL, then PUT the body to it. Failures are returned as-is;
// callers own any retry policy.
type Client struct {
	broker *resty.Client
	store  *resty.Client
	cfg    Config
	now    func() time.Time
}

func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		broker: resty.New().
			SetHeader("Content-Type", "application/json").
			SetTimeout(cfg.Timeout),
		store: resty.New().SetTimeout(cfg.Timeout),
		cfg:   cfg,
		now:   time.Now,
	}
}

type presignRequest struct {
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
	Bucket      string `json:"bucket"`
}

type presignResponse struct {
	PresignedURL string `json:"presignedUrl"`
}

func (c *Client) Upload(ctx context.Context, prefix, contentType string, body []byte) (url string, err error) {
	defer func() { metrics.Uploads.WithLabelValues(metrics.Outcome(err)).Inc() }()

	name, err := FileName(prefix, extensionFor(contentType), c.now())
	if err != nil {
		return "", err
	}
	target, err := c.presign(ctx, name, contentType)
	if err != nil {
		return "", err
	}
	if err := c.put(ctx, target, contentType, body); err != nil {
		return "", err
	}
	return PublicURL(c.cfg.PublicBaseURL, name), nil
}

func (c *Client) presign(ctx context.Context, name, contentType string) (string, error) {
	var out presignResponse
	resp, err := c.broker.R().
		SetContext(ctx).
		SetBody(presignRequest{FileName: name, ContentType: contentType, Bucket: c.cfg.Bucket}).
		SetResult(&out).
		Post(c.cfg.BrokerURL)
	if err != nil {
		return "", &domain.TransportError{Op: "presign upload", Err: err}
	}
	if resp.IsError() {
		return "", &domain.TransportError{Op: "presign upload", Status: resp.StatusCode(), Message: resp.String()}
	}
	if out.PresignedURL == "" {
		return "", &domain.TransportError{Op: "presign upload", Status: resp.StatusCode(), Message: "broker returned no presigned url"}
	}
	return out.PresignedURL, nil
}

func (c *Client) put(ctx context.Context, target, contentType string, body []byte) error {
	resp, err := c.store.R().
		SetContext(ctx).
		SetHeader("Content-Type", contentType).
		SetBody(body).
		Put(target)
	if err != nil {
		return &domain.TransportError{Op: "put object", Err: err}
	}
	if resp.IsError() {
		return &domain.TransportError{Op: "put object", Status: resp.StatusCode(), Message: resp.String()}
	}
	return nil
}

// FileName builds "{prefix}-{unixMillis}-{6 random [a-z0-9]}.{ext}".
func FileName(prefix, ext string, now time.Time) (string, error) {
	suffix := make([]byte, 6)
	limit := big.NewInt(int64(len(suffixAlphabet)))
	for i := range suffix {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("random suffix: %w", err)
		}
		suffix[i] = suffixAlphabet[n.Int64()]
	}
	return fmt.Sprintf("%s-%d-%s.%s", prefix, now.UnixMilli(), suffix, ext), nil
}

// extensionFor maps the content types we upload to file extensions. Images
// are always stored as png names.
func extensionFor(contentType string) string {
	switch contentType {
	case "application/json":
		return "json"
	default:
		return "png"
	}
}

// PublicURL joins the bucket's public base URL and an object name.
func PublicURL(base, name string) string {
	if base == "" {
		return name
	}
	return strings.TrimSuffix(base, "/") + "/" + name
}
