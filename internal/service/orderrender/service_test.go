package orderrender

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"posterstudio/internal/domain"
	"posterstudio/internal/logger"
	"posterstudio/internal/storefront"
)

type stubClient struct {
	configs  map[string]DesignConfig
	renderOK map[string]bool
	sizes    []Viewport
}

func (s *stubClient) FetchConfig(_ context.Context, url string) (DesignConfig, json.RawMessage, error) {
	cfg, ok := s.configs[url]
	if !ok {
		return DesignConfig{}, nil, &domain.TransportError{Op: "fetch config", Status: 404}
	}
	raw, _ := json.Marshal(cfg)
	return cfg, raw, nil
}

func (s *stubClient) Render(_ context.Context, config json.RawMessage, width, height int) ([]byte, error) {
	s.sizes = append(s.sizes, Viewport{Width: width, Height: height})
	var cfg DesignConfig
	_ = json.Unmarshal(config, &cfg)
	if !s.renderOK[cfg.PreviewURL] {
		return nil, errors.New("render crashed")
	}
	return []byte("PNG:" + cfg.PreviewURL), nil
}

type stubUploader struct {
	prefixes []string
}

func (s *stubUploader) Upload(_ context.Context, prefix, contentType string, body []byte) (string, error) {
	s.prefixes = append(s.prefixes, prefix)
	return fmt.Sprintf("https://cdn.example/%s.png", prefix), nil
}

type stubNotes struct {
	current   string
	readErr   bool
	updateErr bool
	written   string
}

func (s *stubNotes) OrderNote(context.Context, int64) storefront.Result[string] {
	if s.readErr {
		return storefront.Result[string]{Err: &storefront.RemoteError{Code: "X", Message: "down"}}
	}
	return storefront.Result[string]{Value: s.current}
}

func (s *stubNotes) UpdateOrderNote(_ context.Context, _ int64, note string) storefront.Result[struct{}] {
	if s.updateErr {
		return storefront.Result[struct{}]{Err: &storefront.RemoteError{Code: "X", Message: "down"}}
	}
	s.written = note
	return storefront.Result[struct{}]{}
}

func item(id int64, configURL string) domain.OrderLineItem {
	li := domain.OrderLineItem{ID: id, Title: "Póster", Quantity: 1}
	if configURL != "" {
		li.Properties = []domain.OrderProperty{{Name: "Tamaño", Value: "30x40"}, {Name: ConfigProperty, Value: configURL}}
	}
	return li
}

func TestProcessOrderPartialFailure(t *testing.T) {
	client := &stubClient{
		configs: map[string]DesignConfig{
			"c1": {Format: "square", PreviewURL: "a"},
			"c2": {Format: "horizontal", PreviewURL: "b"},
			"c3": {PreviewURL: "c"},
		},
		renderOK: map[string]bool{"a": true, "c": true},
	}
	uploader := &stubUploader{}
	notes := &stubNotes{current: "Regalo"}
	svc := New(client, uploader, notes, logger.Nop())

	order := domain.Order{
		ID: 9, OrderNumber: 1001,
		LineItems: []domain.OrderLineItem{item(1, "c1"), item(2, ""), item(3, "c2"), item(4, "c3"), item(5, "missing")},
	}
	report, err := svc.ProcessOrder(context.Background(), order)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report.Processed != 4 || report.Succeeded != 2 || report.Failed != 2 {
		t.Fatalf("unexpected counts %+v", report)
	}
	if !report.NoteUpdated {
		t.Fatal("note should be updated")
	}
	if report.Results[1].Error == "" || report.Results[3].Error == "" {
		t.Fatalf("failures not recorded per item: %+v", report.Results)
	}

	wantSizes := []Viewport{{2400, 2400}, {3508, 2480}, {2480, 3508}}
	for i, want := range wantSizes {
		if client.sizes[i] != want {
			t.Fatalf("render %d: got %+v want %+v", i, client.sizes[i], want)
		}
	}
	if uploader.prefixes[0] != "order-1001-1" || uploader.prefixes[1] != "order-1001-4" {
		t.Fatalf("unexpected upload prefixes %v", uploader.prefixes)
	}

	want := "Regalo\n\nImágenes en alta resolución:\n1. https://cdn.example/order-1001-1.png\n2. https://cdn.example/order-1001-4.png"
	if notes.written != want {
		t.Fatalf("unexpected note:\n%s", notes.written)
	}
}

func TestProcessOrderNoteFailureIsNotFatal(t *testing.T) {
	client := &stubClient{configs: map[string]DesignConfig{"c1": {PreviewURL: "a"}}, renderOK: map[string]bool{"a": true}}
	notes := &stubNotes{updateErr: true}
	svc := New(client, &stubUploader{}, notes, logger.Nop())

	report, err := svc.ProcessOrder(context.Background(), domain.Order{ID: 1, OrderNumber: 7, LineItems: []domain.OrderLineItem{item(1, "c1")}})
	if err != nil {
		t.Fatalf("note failure must not fail the webhook: %v", err)
	}
	if report.NoteUpdated || report.Succeeded != 1 {
		t.Fatalf("unexpected report %+v", report)
	}
}

func TestProcessOrderFallsBackToWebhookNote(t *testing.T) {
	client := &stubClient{configs: map[string]DesignConfig{"c1": {PreviewURL: "a"}}, renderOK: map[string]bool{"a": true}}
	notes := &stubNotes{readErr: true}
	svc := New(client, &stubUploader{}, notes, logger.Nop())

	_, err := svc.ProcessOrder(context.Background(), domain.Order{ID: 1, OrderNumber: 7, Note: "Nota original", LineItems: []domain.OrderLineItem{item(1, "c1")}})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(notes.written, "Nota original\n\n") {
		t.Fatalf("existing note must be preserved, got %q", notes.written)
	}
}

func TestProcessOrderWithoutDesigns(t *testing.T) {
	notes := &stubNotes{}
	svc := New(&stubClient{}, &stubUploader{}, notes, logger.Nop())
	report, err := svc.ProcessOrder(context.Background(), domain.Order{ID: 3, LineItems: []domain.OrderLineItem{item(1, "")}})
	if err != nil {
		t.Fatal(err)
	}
	if report.Processed != 0 || report.NoteUpdated || notes.written != "" {
		t.Fatalf("nothing should happen: %+v", report)
	}

	if _, err := svc.ProcessOrder(context.Background(), domain.Order{}); err == nil {
		t.Fatal("expected error for missing order id")
	}
}

func TestAppendNote(t *testing.T) {
	if got := AppendNote("", []string{"u1"}); got != "Imágenes en alta resolución:\n1. u1" {
		t.Fatalf("unexpected note %q", got)
	}
	if got := AppendNote("a\n", []string{"u1", "u2"}); got != "a\n\nImágenes en alta resolución:\n1. u1\n2. u2" {
		t.Fatalf("unexpected note %q", got)
	}
}

func TestViewportFor(t *testing.T) {
	if ViewportFor("Square") != (Viewport{2400, 2400}) {
		t.Fatal("square")
	}
	if ViewportFor("panoramic") != (Viewport{2480, 3508}) {
		t.Fatal("unknown formats render vertically")
	}
}
