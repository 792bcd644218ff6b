package domain

import "time"

// CartLineItem is one line in the cart.
type CartLineItem struct {
	ID               string            `json:"id"`
	RemoteLineID     string            `json:"remoteLineId,omitempty"`
	VariantID        string            `json:"variantId"`
	Quantity         int               `json:"quantity"`
	UnitPriceCents   int64             `json:"unitPriceCents"`
	Title            string            `json:"title"`
	PreviewImage     string            `json:"previewImage,omitempty"`
	DesignConfig     *BirthPosterState `json:"designConfig,omitempty"`
	CustomAttributes map[string]string `json:"customAttributes,omitempty"`
	AddedAt          time.Time         `json:"addedAt"`
}

// IsCustom reports whether the line carries a one-of-a-kind design.
func (l CartLineItem) IsCustom() bool {
	return l.DesignConfig != nil
}

// Clone returns a copy of l sharing no mutable state with it.
func (l CartLineItem) Clone() CartLineItem {
	out := l
	if l.DesignConfig != nil {
		cfg := l.DesignConfig.Clone()
		out.DesignConfig = &cfg
	}
	if l.CustomAttributes != nil {
		out.CustomAttributes = make(map[string]string, len(l.CustomAttributes))
		for k, v := range l.CustomAttributes {
			out.CustomAttributes[k] = v
		}
	}
	return out
}

// Cart is a profile's cart. Line order is display order.
type Cart struct {
	CartID             *string        `json:"cartId"`
	CheckoutURL        string         `json:"checkoutUrl,omitempty"`
	Currency           string         `json:"currency"`
	Lines              []CartLineItem `json:"lines"`
	DiscountCodes      []string       `json:"discountCodes,omitempty"`
	SubtotalCents      int64          `json:"subtotalCents"`
	TotalCents         int64          `json:"totalCents"`
	TotalDiscountCents int64          `json:"totalDiscountCents"`
	Loading            bool           `json:"loading"`
	Error              string         `json:"error,omitempty"`
}

// TotalQuantity sums quantities across lines.
func (c Cart) TotalQuantity() int {
	total := 0
	for _, l := range c.Lines {
		total += l.Quantity
	}
	return total
}

// Clone returns a deep copy of c.
func (c Cart) Clone() Cart {
	out := c
	if c.CartID != nil {
		id := *c.CartID
		out.CartID = &id
	}
	if c.Lines != nil {
		out.Lines = make([]CartLineItem, len(c.Lines))
		for i, l := range c.Lines {
			out.Lines[i] = l.Clone()
		}
	}
	if c.DiscountCodes != nil {
		out.DiscountCodes = append([]string(nil), c.DiscountCodes...)
	}
	return out
}
