package httpserver

import (
	"time"

	"posterstudio/internal/domain"
	"posterstudio/internal/pricing"
)

type moneyValue struct {
	Type           string `json:"type"`
	CurrencyCode   string `json:"currencyCode"`
	CentAmount     int64  `json:"centAmount"`
	FractionDigits int    `json:"fractionDigits"`
}

func money(currency string, cents int64) moneyValue {
	return moneyValue{Type: "centPrecision", CurrencyCode: currency, CentAmount: cents, FractionDigits: 2}
}

type priceResponse struct {
	Sale      moneyValue  `json:"sale"`
	CompareAt *moneyValue `json:"compareAt,omitempty"`
}

func toPrice(currency string, p pricing.Price) priceResponse {
	out := priceResponse{Sale: money(currency, p.SaleCents)}
	if p.CompareAtCents > p.SaleCents {
		cmp := money(currency, p.CompareAtCents)
		out.CompareAt = &cmp
	}
	return out
}

type cartLineResponse struct {
	ID               string                   `json:"id"`
	VariantID        string                   `json:"variantId"`
	Title            string                   `json:"title"`
	Quantity         int                      `json:"quantity"`
	Price            moneyValue               `json:"price"`
	TotalPrice       moneyValue               `json:"totalPrice"`
	PreviewImage     string                   `json:"previewImage,omitempty"`
	Custom           bool                     `json:"custom"`
	DesignConfig     *domain.BirthPosterState `json:"designConfig,omitempty"`
	CustomAttributes map[string]string        `json:"customAttributes,omitempty"`
	AddedAt          time.Time                `json:"addedAt"`
}

type cartResponse struct {
	ID                    *string            `json:"id"`
	CheckoutURL           string             `json:"checkoutUrl,omitempty"`
	LineItems             []cartLineResponse `json:"lineItems"`
	DiscountCodes         []string           `json:"discountCodes"`
	Subtotal              moneyValue         `json:"subtotal"`
	TotalPrice            moneyValue         `json:"totalPrice"`
	TotalDiscount         moneyValue         `json:"totalDiscount"`
	TotalLineItemQuantity int                `json:"totalLineItemQuantity"`
	Loading               bool               `json:"loading"`
	Error                 string             `json:"error,omitempty"`
}

func toCartResponse(c domain.Cart) cartResponse {
	lines := make([]cartLineResponse, 0, len(c.Lines))
	for _, l := range c.Lines {
		lines = append(lines, cartLineResponse{
			ID:               l.ID,
			VariantID:        l.VariantID,
			Title:            l.Title,
			Quantity:         l.Quantity,
			Price:            money(c.Currency, l.UnitPriceCents),
			TotalPrice:       money(c.Currency, l.UnitPriceCents*int64(l.Quantity)),
			PreviewImage:     l.PreviewImage,
			Custom:           l.IsCustom(),
			DesignConfig:     l.DesignConfig,
			CustomAttributes: l.CustomAttributes,
			AddedAt:          l.AddedAt,
		})
	}
	codes := c.DiscountCodes
	if codes == nil {
		codes = []string{}
	}
	return cartResponse{
		ID:                    c.CartID,
		CheckoutURL:           c.CheckoutURL,
		LineItems:             lines,
		DiscountCodes:         codes,
		Subtotal:              money(c.Currency, c.SubtotalCents),
		TotalPrice:            money(c.Currency, c.TotalCents),
		TotalDiscount:         money(c.Currency, c.TotalDiscountCents),
		TotalLineItemQuantity: c.TotalQuantity(),
		Loading:               c.Loading,
		Error:                 c.Error,
	}
}
