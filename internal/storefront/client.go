package storefront

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"posterstudio/internal/domain"
)

type Config struct {
	URL     string
	Token   string
	Timeout time.Duration
}

// Client is a storefront GraphQL client.
type Client struct {
	http *resty.Client
	url  string
}

func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &Client{
		http: resty.New().
			SetHeader("Content-Type", "application/json").
			SetHeader("X-Shopify-Storefront-Access-Token", cfg.Token).
			SetTimeout(cfg.Timeout),
		url: cfg.URL,
	}
}

type gqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type gqlError struct {
	Message string `json:"message"`
}

type gqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []gqlError      `json:"errors"`
}

// do posts a GraphQL document and decodes the data member into out.
func (c *Client) do(ctx context.Context, op, query string, vars map[string]any, out any) error {
	var body gqlResponse
	resp, err := c.http.R().
		SetContext(ctx).
		// Decode bodies as JSON whatever Content-Type the API sends back.
		ForceContentType("application/json").
		SetBody(gqlRequest{Query: query, Variables: vars}).
		SetResult(&body).
		Post(c.url)
	if err != nil {
		return &domain.TransportError{Op: op, Err: err}
	}
	if resp.IsError() {
		return &domain.TransportError{Op: op, Status: resp.StatusCode(), Message: resp.String()}
	}
	if len(body.Errors) > 0 {
		return &RemoteError{Code: CodeGraphQL, Message: body.Errors[0].Message}
	}
	if len(body.Data) == 0 || string(body.Data) == "null" {
		return &RemoteError{Code: CodeGraphQL, Message: op + ": empty response"}
	}
	if err := json.Unmarshal(body.Data, out); err != nil {
		return fmt.Errorf("%s: decode: %w", op, err)
	}
	return nil
}

type money struct {
	Amount       string `json:"amount"`
	CurrencyCode string `json:"currencyCode"`
}

// cents converts a decimal amount string to integer cents.
func (m money) cents() int64 {
	f, err := strconv.ParseFloat(m.Amount, 64)
	if err != nil {
		return 0
	}
	return int64(math.Round(f * 100))
}
