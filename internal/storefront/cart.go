package storefront

import (
	"context"
	"fmt"
)

// Attribute is a key/value pair shown with a cart line.
type Attribute struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// LineInput adds a variant to a cart.
type LineInput struct {
	MerchandiseID string      `json:"merchandiseId"`
	Quantity      int         `json:"quantity"`
	Attributes    []Attribute `json:"attributes,omitempty"`
}

// LineUpdate changes the quantity of an existing remote line.
type LineUpdate struct {
	ID       string `json:"id"`
	Quantity int    `json:"quantity"`
}

type RemoteLine struct {
	ID            string
	MerchandiseID string
	Quantity      int
	Attributes    []Attribute
}

type DiscountCode struct {
	Code       string `json:"code"`
	Applicable bool   `json:"applicable"`
}

// CartSnapshot is the remote cart after a call.
type CartSnapshot struct {
	ID                 string
	CheckoutURL        string
	TotalQuantity      int
	Currency           string
	SubtotalCents      int64
	TotalCents         int64
	TotalDiscountCents int64
	Lines              []RemoteLine
	DiscountCodes      []DiscountCode
	AutomaticDiscounts []string
}

// CartAPI is the set of cart RPCs. Every call returns a typed result; a
// remote userError short-circuits with the first error's message.
type CartAPI interface {
	CreateCart(ctx context.Context, lines []LineInput) Result[CartSnapshot]
	AddLines(ctx context.Context, cartID string, lines []LineInput) Result[CartSnapshot]
	UpdateLines(ctx context.Context, cartID string, lines []LineUpdate) Result[CartSnapshot]
	RemoveLines(ctx context.Context, cartID string, lineIDs []string) Result[CartSnapshot]
	UpdateDiscountCodes(ctx context.Context, cartID string, codes []string) Result[CartSnapshot]
	FetchCart(ctx context.Context, cartID string) Result[CartSnapshot]
}

var _ CartAPI = (*Client)(nil)

const cartFields = `
fragment CartFields on Cart {
  id
  checkoutUrl
  totalQuantity
  cost {
    subtotalAmount { amount currencyCode }
    totalAmount { amount currencyCode }
  }
  discountCodes { code applicable }
  discountAllocations {
    discountedAmount { amount currencyCode }
    ... on CartAutomaticDiscountAllocation { title }
  }
  lines(first: 100) {
    edges {
      node {
        id
        quantity
        merchandise { ... on ProductVariant { id } }
        attributes { key value }
      }
    }
  }
}
`

const (
	cartCreateMutation = `mutation cartCreate($input: CartInput!) {
  cartCreate(input: $input) { cart { ...CartFields } userErrors { code field message } }
}` + cartFields

	cartLinesAddMutation = `mutation cartLinesAdd($cartId: ID!, $lines: [CartLineInput!]!) {
  cartLinesAdd(cartId: $cartId, lines: $lines) { cart { ...CartFields } userErrors { code field message } }
}` + cartFields

	cartLinesUpdateMutation = `mutation cartLinesUpdate($cartId: ID!, $lines: [CartLineUpdateInput!]!) {
  cartLinesUpdate(cartId: $cartId, lines: $lines) { cart { ...CartFields } userErrors { code field message } }
}` + cartFields

	cartLinesRemoveMutation = `mutation cartLinesRemove($cartId: ID!, $lineIds: [ID!]!) {
  cartLinesRemove(cartId: $cartId, lineIds: $lineIds) { cart { ...CartFields } userErrors { code field message } }
}` + cartFields

	cartDiscountCodesUpdateMutation = `mutation cartDiscountCodesUpdate($cartId: ID!, $discountCodes: [String!]) {
  cartDiscountCodesUpdate(cartId: $cartId, discountCodes: $discountCodes) { cart { ...CartFields } userErrors { code field message } }
}` + cartFields

	cartQuery = `query cart($id: ID!) { cart(id: $id) { ...CartFields } }` + cartFields
)

type userError struct {
	Code    string   `json:"code"`
	Field   []string `json:"field"`
	Message string   `json:"message"`
}

type cartNode struct {
	ID            string `json:"id"`
	CheckoutURL   string `json:"checkoutUrl"`
	TotalQuantity int    `json:"totalQuantity"`
	Cost          struct {
		SubtotalAmount money `json:"subtotalAmount"`
		TotalAmount    money `json:"totalAmount"`
	} `json:"cost"`
	DiscountCodes       []DiscountCode `json:"discountCodes"`
	DiscountAllocations []struct {
		DiscountedAmount money  `json:"discountedAmount"`
		Title            string `json:"title"`
	} `json:"discountAllocations"`
	Lines struct {
		Edges []struct {
			Node struct {
				ID          string `json:"id"`
				Quantity    int    `json:"quantity"`
				Merchandise struct {
					ID string `json:"id"`
				} `json:"merchandise"`
				Attributes []Attribute `json:"attributes"`
			} `json:"node"`
		} `json:"edges"`
	} `json:"lines"`
}

type cartPayload struct {
	Cart       *cartNode   `json:"cart"`
	UserErrors []userError `json:"userErrors"`
}

func (n *cartNode) snapshot() CartSnapshot {
	s := CartSnapshot{
		ID:            n.ID,
		CheckoutURL:   n.CheckoutURL,
		TotalQuantity: n.TotalQuantity,
		Currency:      n.Cost.TotalAmount.CurrencyCode,
		SubtotalCents: n.Cost.SubtotalAmount.cents(),
		TotalCents:    n.Cost.TotalAmount.cents(),
		DiscountCodes: n.DiscountCodes,
	}
	for _, a := range n.DiscountAllocations {
		s.TotalDiscountCents += a.DiscountedAmount.cents()
		if a.Title != "" {
			s.AutomaticDiscounts = append(s.AutomaticDiscounts, a.Title)
		}
	}
	for _, e := range n.Lines.Edges {
		s.Lines = append(s.Lines, RemoteLine{
			ID:            e.Node.ID,
			MerchandiseID: e.Node.Merchandise.ID,
			Quantity:      e.Node.Quantity,
			Attributes:    e.Node.Attributes,
		})
	}
	return s
}

// mutate runs a cart mutation whose payload lives under data[field].
func (c *Client) mutate(ctx context.Context, field, query string, vars map[string]any) Result[CartSnapshot] {
	var data map[string]cartPayload
	if err := c.do(ctx, field, query, vars, &data); err != nil {
		return failErr[CartSnapshot](err)
	}
	payload, found := data[field]
	if !found {
		return fail[CartSnapshot](CodeGraphQL, fmt.Sprintf("%s: missing payload", field))
	}
	if len(payload.UserErrors) > 0 {
		ue := payload.UserErrors[0]
		return fail[CartSnapshot](ue.Code, ue.Message)
	}
	if payload.Cart == nil {
		return fail[CartSnapshot](CodeNotFound, field+": no cart returned")
	}
	return ok(payload.Cart.snapshot())
}

func (c *Client) CreateCart(ctx context.Context, lines []LineInput) Result[CartSnapshot] {
	input := map[string]any{}
	if len(lines) > 0 {
		input["lines"] = lines
	}
	return c.mutate(ctx, "cartCreate", cartCreateMutation, map[string]any{"input": input})
}

func (c *Client) AddLines(ctx context.Context, cartID string, lines []LineInput) Result[CartSnapshot] {
	return c.mutate(ctx, "cartLinesAdd", cartLinesAddMutation, map[string]any{"cartId": cartID, "lines": lines})
}

func (c *Client) UpdateLines(ctx context.Context, cartID string, lines []LineUpdate) Result[CartSnapshot] {
	return c.mutate(ctx, "cartLinesUpdate", cartLinesUpdateMutation, map[string]any{"cartId": cartID, "lines": lines})
}

func (c *Client) RemoveLines(ctx context.Context, cartID string, lineIDs []string) Result[CartSnapshot] {
	return c.mutate(ctx, "cartLinesRemove", cartLinesRemoveMutation, map[string]any{"cartId": cartID, "lineIds": lineIDs})
}

func (c *Client) UpdateDiscountCodes(ctx context.Context, cartID string, codes []string) Result[CartSnapshot] {
	if codes == nil {
		codes = []string{}
	}
	return c.mutate(ctx, "cartDiscountCodesUpdate", cartDiscountCodesUpdateMutation, map[string]any{"cartId": cartID, "discountCodes": codes})
}

func (c *Client) FetchCart(ctx context.Context, cartID string) Result[CartSnapshot] {
	var data struct {
		Cart *cartNode `json:"cart"`
	}
	if err := c.do(ctx, "cart", cartQuery, map[string]any{"id": cartID}, &data); err != nil {
		return failErr[CartSnapshot](err)
	}
	if data.Cart == nil {
		return fail[CartSnapshot](CodeNotFound, "cart not found")
	}
	return ok(data.Cart.snapshot())
}
