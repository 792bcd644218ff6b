// Package orderrender re-renders custom poster line items of a paid order
// at print resolution and appends the image URLs to the order note.
package orderrender

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"posterstudio/internal/domain"
	"posterstudio/internal/metrics"
	"posterstudio/internal/storefront"
	"posterstudio/internal/upload"
)

// ConfigProperty is the line item property holding the design config URL.
const ConfigProperty = "_config"

// NoteHeader starts the block appended to the order note.
const NoteHeader = "Imágenes en alta resolución:"

type Viewport struct {
	Width, Height int
}

var viewports = map[string]Viewport{
	"square":     {Width: 2400, Height: 2400},
	"horizontal": {Width: 3508, Height: 2480},
	"vertical":   {Width: 2480, Height: 3508},
}

// ViewportFor maps a config format to the render viewport. Unknown formats
// render vertically.
func ViewportFor(format string) Viewport {
	if v, ok := viewports[strings.ToLower(strings.TrimSpace(format))]; ok {
		return v
	}
	return viewports["vertical"]
}

type configClient interface {
	FetchConfig(ctx context.Context, url string) (DesignConfig, json.RawMessage, error)
	Render(ctx context.Context, config json.RawMessage, width, height int) ([]byte, error)
}

type noteAPI interface {
	OrderNote(ctx context.Context, orderID int64) storefront.Result[string]
	UpdateOrderNote(ctx context.Context, orderID int64, note string) storefront.Result[struct{}]
}

type Service struct {
	client   configClient
	uploader upload.Uploader
	notes    noteAPI
	logger   zerolog.Logger
}

func New(client configClient, uploader upload.Uploader, notes noteAPI, logger zerolog.Logger) *Service {
	return &Service{client: client, uploader: uploader, notes: notes, logger: logger}
}

// ItemResult is the outcome for one line item.
type ItemResult struct {
	LineItemID int64  `json:"lineItemId"`
	ImageURL   string `json:"imageUrl,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Report summarizes a processed order.
type Report struct {
	OrderID     int64        `json:"orderId"`
	Processed   int          `json:"processed"`
	Succeeded   int          `json:"succeeded"`
	Failed      int          `json:"failed"`
	NoteUpdated bool         `json:"noteUpdated"`
	Results     []ItemResult `json:"results"`
}

// ProcessOrder renders every line item carrying a config URL. One item's
// failure never stops the others, and a failed note update is reported but
// not returned as an error since the images are already uploaded.
func (s *Service) ProcessOrder(ctx context.Context, order domain.Order) (Report, error) {
	report := Report{OrderID: order.ID, Results: []ItemResult{}}
	if order.ID == 0 {
		return report, fmt.Errorf("%w: order id required", domain.ErrInvalidInput)
	}
	log := s.logger.With().Int64("order_id", order.ID).Int64("order_number", order.OrderNumber).Logger()

	var urls []string
	for _, item := range order.LineItems {
		configURL, ok := item.Property(ConfigProperty)
		if !ok || strings.TrimSpace(configURL) == "" {
			continue
		}
		report.Processed++

		url, err := s.renderItem(ctx, order, item, configURL)
		res := ItemResult{LineItemID: item.ID}
		if err != nil {
			report.Failed++
			res.Error = err.Error()
			metrics.OrderItemsRendered.WithLabelValues("error").Inc()
			log.Error().Err(err).Int64("line_item_id", item.ID).Msg("render order item")
		} else {
			report.Succeeded++
			res.ImageURL = url
			urls = append(urls, url)
			metrics.OrderItemsRendered.WithLabelValues("ok").Inc()
		}
		report.Results = append(report.Results, res)
	}

	if len(urls) == 0 {
		return report, nil
	}
	if err := s.appendNote(ctx, order, urls); err != nil {
		log.Error().Err(err).Msg("update order note")
		return report, nil
	}
	report.NoteUpdated = true
	return report, nil
}

func (s *Service) renderItem(ctx context.Context, order domain.Order, item domain.OrderLineItem, configURL string) (string, error) {
	cfg, raw, err := s.client.FetchConfig(ctx, configURL)
	if err != nil {
		return "", err
	}
	vp := ViewportFor(cfg.Format)
	image, err := s.client.Render(ctx, raw, vp.Width, vp.Height)
	if err != nil {
		return "", err
	}
	prefix := "order-" + strconv.FormatInt(order.OrderNumber, 10) + "-" + strconv.FormatInt(item.ID, 10)
	return s.uploader.Upload(ctx, prefix, "image/png", image)
}

func (s *Service) appendNote(ctx context.Context, order domain.Order, urls []string) error {
	current := order.Note
	if s.notes == nil {
		return errors.New("admin api not configured")
	}
	if res := s.notes.OrderNote(ctx, order.ID); res.OK() {
		current = res.Value
	} else {
		s.logger.Warn().Err(res.Err).Int64("order_id", order.ID).Msg("read order note, using webhook copy")
	}
	if res := s.notes.UpdateOrderNote(ctx, order.ID, AppendNote(current, urls)); !res.OK() {
		return fmt.Errorf("update note: %w", res.Err)
	}
	return nil
}

// AppendNote adds the numbered image block after the existing note,
// separated by a blank line.
func AppendNote(existing string, urls []string) string {
	var b strings.Builder
	b.WriteString(NoteHeader)
	for i, u := range urls {
		fmt.Fprintf(&b, "\n%d. %s", i+1, u)
	}
	existing = strings.TrimRight(existing, "\n")
	if existing == "" {
		return b.String()
	}
	return existing + "\n\n" + b.String()
}
