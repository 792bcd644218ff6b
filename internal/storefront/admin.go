package storefront

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"posterstudio/internal/domain"
)

type AdminConfig struct {
	// URL is the admin REST base, e.g. https://shop.example/admin/api/2024-01/
	URL     string
	Token   string
	Timeout time.Duration
}

// AdminClient reads and writes order notes through the admin REST API.
type AdminClient struct {
	http *resty.Client
}

func NewAdmin(cfg AdminConfig) *AdminClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &AdminClient{
		http: resty.New().
			SetBaseURL(strings.TrimSuffix(cfg.URL, "/")).
			SetHeader("Content-Type", "application/json").
			SetHeader("X-Shopify-Access-Token", cfg.Token).
			SetTimeout(cfg.Timeout),
	}
}

type orderEnvelope struct {
	Order struct {
		ID   int64   `json:"id"`
		Note *string `json:"note"`
	} `json:"order"`
}

// OrderNote returns an order's current note, empty when unset.
func (a *AdminClient) OrderNote(ctx context.Context, orderID int64) Result[string] {
	var out orderEnvelope
	resp, err := a.http.R().
		SetContext(ctx).
		// Decode bodies as JSON whatever Content-Type the API sends back.
		ForceContentType("application/json").
		SetQueryParam("fields", "id,note").
		SetResult(&out).
		Get(fmt.Sprintf("/orders/%d.json", orderID))
	if err != nil {
		return failErr[string](&domain.TransportError{Op: "get order note", Err: err})
	}
	if resp.StatusCode() == http.StatusNotFound {
		return fail[string](CodeNotFound, fmt.Sprintf("order %d not found", orderID))
	}
	if resp.IsError() {
		return failErr[string](&domain.TransportError{Op: "get order note", Status: resp.StatusCode(), Message: resp.String()})
	}
	if out.Order.Note == nil {
		return ok("")
	}
	return ok(*out.Order.Note)
}

// UpdateOrderNote overwrites an order's note.
func (a *AdminClient) UpdateOrderNote(ctx context.Context, orderID int64, note string) Result[struct{}] {
	var body orderEnvelope
	body.Order.ID = orderID
	body.Order.Note = &note
	resp, err := a.http.R().
		SetContext(ctx).
		// Decode bodies as JSON whatever Content-Type the API sends back.
		ForceContentType("application/json").
		SetBody(body).
		Put(fmt.Sprintf("/orders/%d.json", orderID))
	if err != nil {
		return failErr[struct{}](&domain.TransportError{Op: "update order note", Err: err})
	}
	if resp.IsError() {
		return failErr[struct{}](&domain.TransportError{Op: "update order note", Status: resp.StatusCode(), Message: resp.String()})
	}
	return ok(struct{}{})
}
