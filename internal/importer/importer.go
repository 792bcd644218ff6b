// Package importer loads exported saved-design histories into a profile.
package importer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"posterstudio/internal/domain"
	"posterstudio/internal/poster"
	"posterstudio/internal/repository/kv"
	"posterstudio/internal/service/history"
)

// JSONImporter reads a flat JSON array of saved designs, possibly mixing
// tools, and merges each tool's designs into a profile's history.
type JSONImporter struct {
	dec    *json.Decoder
	repo   kv.Repository
	logger zerolog.Logger
}

// Summary counts what one Run did.
type Summary struct {
	Imported map[domain.Tool]int `json:"imported"`
	Skipped  int                 `json:"skipped"`
}

// Total is the number of designs imported across tools.
func (s Summary) Total() int {
	n := 0
	for _, c := range s.Imported {
		n += c
	}
	return n
}

// NewJSONImporter writes into repo, which should already be scoped to the
// target profile.
func NewJSONImporter(r io.Reader, repo kv.Repository, logger zerolog.Logger) *JSONImporter {
	return &JSONImporter{dec: json.NewDecoder(r), repo: repo, logger: logger}
}

// Run streams the array. Malformed entries are skipped and counted; a
// malformed document is an error.
func (i *JSONImporter) Run(ctx context.Context) (Summary, error) {
	sum := Summary{Imported: map[domain.Tool]int{}}

	tok, err := i.dec.Token()
	if err != nil {
		return sum, fmt.Errorf("read opening token: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '[' {
		return sum, errors.New("expected a JSON array of designs")
	}

	var (
		order  []domain.Tool
		byTool = map[domain.Tool][]domain.SavedDesign{}
	)
	for i.dec.More() {
		var raw json.RawMessage
		if err := i.dec.Decode(&raw); err != nil {
			return sum, fmt.Errorf("read entry: %w", err)
		}
		d, ok := parseDesign(raw)
		if !ok {
			sum.Skipped++
			continue
		}
		if _, seen := byTool[d.Tool]; !seen {
			order = append(order, d.Tool)
		}
		byTool[d.Tool] = append(byTool[d.Tool], d)
	}
	if _, err := i.dec.Token(); err != nil {
		return sum, fmt.Errorf("read closing token: %w", err)
	}

	for _, tool := range order {
		store := history.New(i.repo, tool, i.logger)
		store.Load(ctx)
		if err := store.Import(ctx, byTool[tool]); err != nil {
			return sum, fmt.Errorf("import %s: %w", tool, err)
		}
		sum.Imported[tool] = len(byTool[tool])
		i.logger.Info().Str("tool", string(tool)).Int("designs", len(byTool[tool])).Msg("imported designs")
	}
	return sum, nil
}

func parseDesign(raw json.RawMessage) (domain.SavedDesign, bool) {
	var d domain.SavedDesign
	if err := json.Unmarshal(raw, &d); err != nil {
		return domain.SavedDesign{}, false
	}
	if d.ID == "" || !d.Tool.Known() {
		return domain.SavedDesign{}, false
	}
	if d.UpdatedAt.IsZero() {
		d.UpdatedAt = d.CreatedAt
	}
	d.State = poster.Normalize(d.State)
	return d, true
}
