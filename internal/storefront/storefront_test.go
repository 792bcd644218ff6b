package storefront

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"posterstudio/internal/domain"
)

const cartJSON = `{
  "id": "gid://shopify/Cart/c1",
  "checkoutUrl": "https://shop.example/checkout/c1",
  "totalQuantity": 3,
  "cost": {
    "subtotalAmount": {"amount": "2097.00", "currencyCode": "MXN"},
    "totalAmount": {"amount": "1887.30", "currencyCode": "MXN"}
  },
  "discountCodes": [{"code": "BEBE10", "applicable": true}],
  "discountAllocations": [
    {"discountedAmount": {"amount": "209.70", "currencyCode": "MXN"}},
    {"discountedAmount": {"amount": "0.00", "currencyCode": "MXN"}, "title": "Envío gratis"}
  ],
  "lines": {"edges": [
    {"node": {"id": "gid://shopify/CartLine/l1", "quantity": 3,
      "merchandise": {"id": "gid://shopify/ProductVariant/v1"},
      "attributes": [{"key": "Tamaño", "value": "30x40"}]}}
  ]}
}`

type gqlCall struct {
	Query     string
	Variables map[string]any
}

func newGraphQLServer(t *testing.T, respond func(call gqlCall) (int, string)) (*Client, *[]gqlCall) {
	t.Helper()
	var calls []gqlCall
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "tok", r.Header.Get("X-Shopify-Storefront-Access-Token"))
		var call gqlCall
		require.NoError(t, json.NewDecoder(r.Body).Decode(&call))
		calls = append(calls, call)
		status, body := respond(call)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return New(Config{URL: srv.URL, Token: "tok", Timeout: time.Second}), &calls
}

func TestCreateCartParsesSnapshot(t *testing.T) {
	c, calls := newGraphQLServer(t, func(gqlCall) (int, string) {
		return http.StatusOK, `{"data":{"cartCreate":{"cart":` + cartJSON + `,"userErrors":[]}}}`
	})

	res := c.CreateCart(context.Background(), []LineInput{{MerchandiseID: "gid://shopify/ProductVariant/v1", Quantity: 3}})
	require.True(t, res.OK(), "unexpected error %v", res.Err)

	snap := res.Value
	assert.Equal(t, "gid://shopify/Cart/c1", snap.ID)
	assert.Equal(t, "https://shop.example/checkout/c1", snap.CheckoutURL)
	assert.Equal(t, 3, snap.TotalQuantity)
	assert.Equal(t, "MXN", snap.Currency)
	assert.EqualValues(t, 209700, snap.SubtotalCents)
	assert.EqualValues(t, 188730, snap.TotalCents)
	assert.EqualValues(t, 20970, snap.TotalDiscountCents)
	assert.Equal(t, []string{"Envío gratis"}, snap.AutomaticDiscounts)
	assert.Equal(t, []DiscountCode{{Code: "BEBE10", Applicable: true}}, snap.DiscountCodes)
	require.Len(t, snap.Lines, 1)
	assert.Equal(t, "gid://shopify/CartLine/l1", snap.Lines[0].ID)
	assert.Equal(t, "gid://shopify/ProductVariant/v1", snap.Lines[0].MerchandiseID)

	require.Len(t, *calls, 1)
	call := (*calls)[0]
	assert.True(t, strings.HasPrefix(call.Query, "mutation cartCreate"))
	input := call.Variables["input"].(map[string]any)
	assert.Len(t, input["lines"], 1)
}

func TestUserErrorShortCircuitsWithFirstMessage(t *testing.T) {
	c, _ := newGraphQLServer(t, func(gqlCall) (int, string) {
		return http.StatusOK, `{"data":{"cartLinesAdd":{"cart":` + cartJSON + `,"userErrors":[
			{"code":"INVALID","field":["lines"],"message":"Variant not available"},
			{"code":"OTHER","message":"second"}]}}}`
	})

	res := c.AddLines(context.Background(), "c1", []LineInput{{MerchandiseID: "v", Quantity: 1}})
	require.False(t, res.OK())
	assert.Equal(t, "INVALID", res.Err.Code)
	assert.Equal(t, "Variant not available", res.Err.Message)
	assert.Empty(t, res.Value.ID, "no partial snapshot on user error")
}

func TestTransportFailure(t *testing.T) {
	c, _ := newGraphQLServer(t, func(gqlCall) (int, string) {
		return http.StatusBadGateway, `upstream down`
	})

	res := c.RemoveLines(context.Background(), "c1", []string{"l1"})
	require.False(t, res.OK())
	assert.Equal(t, CodeTransport, res.Err.Code)
	assert.True(t, domain.IsTransport(res.Err))

	_, err := res.Unwrap()
	var te *domain.TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, http.StatusBadGateway, te.Status)
}

func TestGraphQLErrors(t *testing.T) {
	c, _ := newGraphQLServer(t, func(gqlCall) (int, string) {
		return http.StatusOK, `{"errors":[{"message":"Field 'x' doesn't exist"}]}`
	})
	res := c.UpdateLines(context.Background(), "c1", []LineUpdate{{ID: "l1", Quantity: 2}})
	require.False(t, res.OK())
	assert.Equal(t, CodeGraphQL, res.Err.Code)
	assert.Contains(t, res.Err.Message, "doesn't exist")
}

func TestFetchCartNotFound(t *testing.T) {
	c, calls := newGraphQLServer(t, func(gqlCall) (int, string) {
		return http.StatusOK, `{"data":{"cart":null}}`
	})
	res := c.FetchCart(context.Background(), "gone")
	require.False(t, res.OK())
	assert.Equal(t, CodeNotFound, res.Err.Code)
	assert.Equal(t, "gone", (*calls)[0].Variables["id"])
}

func TestUpdateDiscountCodesSendsEmptyList(t *testing.T) {
	c, calls := newGraphQLServer(t, func(gqlCall) (int, string) {
		return http.StatusOK, `{"data":{"cartDiscountCodesUpdate":{"cart":` + cartJSON + `,"userErrors":[]}}}`
	})
	res := c.UpdateDiscountCodes(context.Background(), "c1", nil)
	require.True(t, res.OK())
	assert.Equal(t, []any{}, (*calls)[0].Variables["discountCodes"])
}

func TestAdminOrderNoteWithoutJSONContentType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte(`{"order":{"id":44,"note":"Regalo"}}`))
	}))
	defer srv.Close()

	a := NewAdmin(AdminConfig{URL: srv.URL, Token: "admintok", Timeout: time.Second})
	note := a.OrderNote(context.Background(), 44)
	require.True(t, note.OK())
	assert.Equal(t, "Regalo", note.Value)
}

func TestAdminOrderNote(t *testing.T) {
	var saved string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "admintok", r.Header.Get("X-Shopify-Access-Token"))
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/orders/42.json":
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			_, _ = w.Write([]byte(`{"order":{"id":42,"note":"Entregar en recepción"}}`))
		case r.Method == http.MethodGet && r.URL.Path == "/orders/43.json":
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			_, _ = w.Write([]byte(`{"order":{"id":43,"note":null}}`))
		case r.Method == http.MethodPut && r.URL.Path == "/orders/42.json":
			var body orderEnvelope
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			saved = *body.Order.Note
			_, _ = w.Write([]byte(`{"order":{"id":42}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	a := NewAdmin(AdminConfig{URL: srv.URL + "/", Token: "admintok", Timeout: time.Second})
	ctx := context.Background()

	note := a.OrderNote(ctx, 42)
	require.True(t, note.OK())
	assert.Equal(t, "Entregar en recepción", note.Value)

	empty := a.OrderNote(ctx, 43)
	require.True(t, empty.OK())
	assert.Equal(t, "", empty.Value)

	missing := a.OrderNote(ctx, 99)
	require.False(t, missing.OK())
	assert.Equal(t, CodeNotFound, missing.Err.Code)

	require.True(t, a.UpdateOrderNote(ctx, 42, "nueva nota").OK())
	assert.Equal(t, "nueva nota", saved)

	assert.False(t, a.UpdateOrderNote(ctx, 99, "x").OK())
}
