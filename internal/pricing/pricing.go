// Package pricing maps a poster configuration to its catalogue price.
package pricing

import (
	"fmt"

	"posterstudio/internal/domain"
	"posterstudio/internal/metrics"
)

// Price is a sale price and the pre-discount price shown struck through.
type Price struct {
	SaleCents      int64 `json:"saleCents"`
	CompareAtCents int64 `json:"compareAtCents"`
}

// Zero reports whether no table matched.
func (p Price) Zero() bool {
	return p.SaleCents == 0 && p.CompareAtCents == 0
}

var sizePrices = map[domain.PosterSize]Price{
	"30x40":  {SaleCents: 69900, CompareAtCents: 89900},
	"40x50":  {SaleCents: 89900, CompareAtCents: 114900},
	"50x70":  {SaleCents: 119900, CompareAtCents: 149900},
	"70x100": {SaleCents: 159900, CompareAtCents: 199900},
	"40x30":  {SaleCents: 69900, CompareAtCents: 89900},
	"50x40":  {SaleCents: 89900, CompareAtCents: 114900},
	"70x50":  {SaleCents: 119900, CompareAtCents: 149900},
	"100x70": {SaleCents: 159900, CompareAtCents: 199900},
}

var frames = []domain.FrameStyle{
	{ID: "black-wood", DisplayName: "Marco negro", UnitPriceCents: 35000},
	{ID: "white-wood", DisplayName: "Marco blanco", UnitPriceCents: 35000},
	{ID: "natural-oak", DisplayName: "Roble natural", UnitPriceCents: 45000},
}

// Frames lists the purchasable frames.
func Frames() []domain.FrameStyle {
	return append([]domain.FrameStyle(nil), frames...)
}

// FrameByID returns the catalogue frame with id.
func FrameByID(id string) (domain.FrameStyle, bool) {
	for _, f := range frames {
		if f.ID == id {
			return f, true
		}
	}
	return domain.FrameStyle{}, false
}

// SizePrice looks up the base price of a size. Unknown sizes cost zero.
func SizePrice(size domain.PosterSize) Price {
	p, ok := sizePrices[size]
	if !ok {
		metrics.UnknownPriceKeys.WithLabelValues("size").Inc()
	}
	return p
}

// FramePrice looks up a frame surcharge by id. Unknown ids cost zero; the
// price carried on the state is not trusted.
func FramePrice(frame *domain.FrameStyle) int64 {
	if frame == nil {
		return 0
	}
	f, ok := FrameByID(frame.ID)
	if !ok {
		metrics.UnknownPriceKeys.WithLabelValues("frame").Inc()
		return 0
	}
	return f.UnitPriceCents
}

// PriceFor prices a configuration: the size's price plus the flat frame
// surcharge on both sale and compare-at.
func PriceFor(state domain.BirthPosterState) Price {
	p := SizePrice(state.PosterSize)
	surcharge := FramePrice(state.FrameStyle)
	p.SaleCents += surcharge
	p.CompareAtCents += surcharge
	return p
}

// Quote prices a configuration that is about to be sold. Unlike PriceFor it
// refuses sizes missing from the table instead of charging only the frame.
func Quote(state domain.BirthPosterState) (Price, error) {
	if _, ok := sizePrices[state.PosterSize]; !ok {
		metrics.UnknownPriceKeys.WithLabelValues("size").Inc()
		return Price{}, fmt.Errorf("size %q: %w", state.PosterSize, domain.ErrUnpriced)
	}
	return PriceFor(state), nil
}
