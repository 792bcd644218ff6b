package orderrender

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"posterstudio/internal/domain"
)

// RenderAttempts bounds calls to the headless render service.
const RenderAttempts = 3

// DesignConfig is the document stored behind a line item's _config URL.
type DesignConfig struct {
	Format     string                   `json:"format"`
	State      *domain.BirthPosterState `json:"state,omitempty"`
	PreviewURL string                   `json:"previewUrl,omitempty"`
}

// HTTPClient fetches design configs and calls the headless render service.
type HTTPClient struct {
	http       *resty.Client
	renderURL  string
	logger     zerolog.Logger
	newBackOff func() backoff.BackOff
}

func NewHTTPClient(renderURL string, timeout time.Duration, logger zerolog.Logger) *HTTPClient {
	return &HTTPClient{
		http:      resty.New().SetTimeout(timeout),
		renderURL: renderURL,
		logger:    logger,
		newBackOff: func() backoff.BackOff {
			exp := backoff.NewExponentialBackOff()
			exp.InitialInterval = 500 * time.Millisecond
			exp.MaxInterval = 5 * time.Second
			return exp
		},
	}
}

// FetchConfig downloads and decodes a design config. The raw document is
// returned alongside so it can be forwarded unchanged.
func (c *HTTPClient) FetchConfig(ctx context.Context, url string) (DesignConfig, json.RawMessage, error) {
	resp, err := c.http.R().SetContext(ctx).Get(url)
	if err != nil {
		return DesignConfig{}, nil, &domain.TransportError{Op: "fetch config", Err: err}
	}
	if resp.IsError() {
		return DesignConfig{}, nil, &domain.TransportError{Op: "fetch config", Status: resp.StatusCode(), Message: resp.Status()}
	}
	raw := json.RawMessage(resp.Body())
	var cfg DesignConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return DesignConfig{}, nil, fmt.Errorf("decode config: %w", err)
	}
	return cfg, raw, nil
}

type renderRequest struct {
	Config json.RawMessage `json:"config"`
	Width  int             `json:"width"`
	Height int             `json:"height"`
}

// Render asks the render service for an image of config at width x height.
// Transport failures are retried with exponential backoff; anything else
// fails at once.
func (c *HTTPClient) Render(ctx context.Context, config json.RawMessage, width, height int) ([]byte, error) {
	var image []byte
	op := func() error {
		resp, err := c.http.R().
			SetContext(ctx).
			SetHeader("Content-Type", "application/json").
			SetBody(renderRequest{Config: config, Width: width, Height: height}).
			Post(c.renderURL)
		if err != nil {
			return &domain.TransportError{Op: "render", Err: err}
		}
		if resp.StatusCode() >= 500 {
			return &domain.TransportError{Op: "render", Status: resp.StatusCode(), Message: resp.String()}
		}
		if resp.IsError() {
			return backoff.Permanent(&domain.TransportError{Op: "render", Status: resp.StatusCode(), Message: resp.String()})
		}
		if len(resp.Body()) == 0 {
			return backoff.Permanent(fmt.Errorf("render: empty image"))
		}
		image = resp.Body()
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(c.newBackOff(), RenderAttempts-1), ctx)
	notify := func(err error, wait time.Duration) {
		c.logger.Warn().Err(err).Dur("retry_in", wait).Msg("render service call failed, retrying")
	}
	if err := backoff.RetryNotify(op, policy, notify); err != nil {
		return nil, err
	}
	return image, nil
}
