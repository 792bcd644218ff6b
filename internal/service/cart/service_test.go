package cart

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"golang.org/x/text/language"

	"posterstudio/internal/domain"
	"posterstudio/internal/logger"
	"posterstudio/internal/poster"
	"posterstudio/internal/pricing"
	"posterstudio/internal/repository/kv"
	"posterstudio/internal/storefront"
)

// stubRemote keeps an in-memory remote cart and records calls.
type stubRemote struct {
	cartID  string
	lines   []storefront.RemoteLine
	nextID  int
	fail    *storefront.RemoteError
	calls   []string
	codes   []string
	missing bool
}

func (s *stubRemote) snapshot() storefront.Result[storefront.CartSnapshot] {
	if s.fail != nil {
		return storefront.Result[storefront.CartSnapshot]{Err: s.fail}
	}
	snap := storefront.CartSnapshot{
		ID:          s.cartID,
		CheckoutURL: "https://shop.example/checkout/" + s.cartID,
		Currency:    "MXN",
		Lines:       append([]storefront.RemoteLine(nil), s.lines...),
	}
	for _, l := range s.lines {
		snap.TotalQuantity += l.Quantity
	}
	for _, c := range s.codes {
		snap.DiscountCodes = append(snap.DiscountCodes, storefront.DiscountCode{Code: c, Applicable: c != "BAD"})
	}
	return storefront.Result[storefront.CartSnapshot]{Value: snap}
}

func (s *stubRemote) add(lines []storefront.LineInput) {
	for _, in := range lines {
		s.nextID++
		s.lines = append(s.lines, storefront.RemoteLine{
			ID:            fmt.Sprintf("remote-%d", s.nextID),
			MerchandiseID: in.MerchandiseID,
			Quantity:      in.Quantity,
			Attributes:    in.Attributes,
		})
	}
}

func (s *stubRemote) CreateCart(_ context.Context, lines []storefront.LineInput) storefront.Result[storefront.CartSnapshot] {
	s.calls = append(s.calls, "create")
	if s.fail == nil {
		s.cartID = "cart-1"
		s.add(lines)
	}
	return s.snapshot()
}

func (s *stubRemote) AddLines(_ context.Context, _ string, lines []storefront.LineInput) storefront.Result[storefront.CartSnapshot] {
	s.calls = append(s.calls, "add")
	if s.fail == nil {
		s.add(lines)
	}
	return s.snapshot()
}

func (s *stubRemote) UpdateLines(_ context.Context, _ string, lines []storefront.LineUpdate) storefront.Result[storefront.CartSnapshot] {
	s.calls = append(s.calls, "update")
	if s.fail == nil {
		for _, u := range lines {
			for i := range s.lines {
				if s.lines[i].ID == u.ID {
					s.lines[i].Quantity = u.Quantity
				}
			}
		}
	}
	return s.snapshot()
}

func (s *stubRemote) RemoveLines(_ context.Context, _ string, ids []string) storefront.Result[storefront.CartSnapshot] {
	s.calls = append(s.calls, "remove")
	if s.fail == nil {
		for _, id := range ids {
			for i := range s.lines {
				if s.lines[i].ID == id {
					s.lines = append(s.lines[:i], s.lines[i+1:]...)
					break
				}
			}
		}
	}
	return s.snapshot()
}

func (s *stubRemote) UpdateDiscountCodes(_ context.Context, _ string, codes []string) storefront.Result[storefront.CartSnapshot] {
	s.calls = append(s.calls, "discount")
	if s.fail == nil {
		s.codes = codes
	}
	return s.snapshot()
}

func (s *stubRemote) FetchCart(_ context.Context, _ string) storefront.Result[storefront.CartSnapshot] {
	s.calls = append(s.calls, "fetch")
	if s.missing {
		return storefront.Result[storefront.CartSnapshot]{Err: &storefront.RemoteError{Code: storefront.CodeNotFound, Message: "cart not found"}}
	}
	return s.snapshot()
}

func newTestService(remote storefront.CartAPI, opts ...Option) (*Service, kv.Repository) {
	repo := kv.NewMemory()
	seq := 0
	opts = append([]Option{
		WithClock(func() time.Time { return time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC) }),
		WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("line-%d", seq)
		}),
	}, opts...)
	return New(repo, remote, logger.Nop(), opts...), repo
}

func TestAddOrMergeLineCreatesCartLazily(t *testing.T) {
	remote := &stubRemote{}
	svc, _ := newTestService(remote)

	cart, err := svc.AddOrMergeLine(context.Background(), "p1", ItemInput{VariantID: "v1", Quantity: 1, UnitPriceCents: 100})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cart.CartID == nil || *cart.CartID != "cart-1" {
		t.Fatalf("expected lazily created cart, got %+v", cart.CartID)
	}
	if len(remote.calls) != 1 || remote.calls[0] != "create" {
		t.Fatalf("unexpected remote calls %v", remote.calls)
	}
	if cart.Lines[0].RemoteLineID != "remote-1" {
		t.Fatalf("remote line id not recorded: %+v", cart.Lines[0])
	}
	if cart.CheckoutURL == "" || cart.Loading {
		t.Fatalf("unexpected cart flags %+v", cart)
	}
}

func TestCommodityLinesMerge(t *testing.T) {
	remote := &stubRemote{}
	svc, _ := newTestService(remote)
	ctx := context.Background()

	if _, err := svc.AddOrMergeLine(ctx, "p1", ItemInput{VariantID: "v1", Quantity: 1}); err != nil {
		t.Fatal(err)
	}
	cart, err := svc.AddOrMergeLine(ctx, "p1", ItemInput{VariantID: "v1", Quantity: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(cart.Lines) != 1 || cart.Lines[0].Quantity != 3 {
		t.Fatalf("expected one merged line of 3, got %+v", cart.Lines)
	}
	if remote.calls[1] != "update" || remote.lines[0].Quantity != 3 {
		t.Fatalf("remote not updated: %v %+v", remote.calls, remote.lines)
	}
}

func TestCustomLinesNeverMerge(t *testing.T) {
	remote := &stubRemote{}
	svc, _ := newTestService(remote)
	ctx := context.Background()
	design := CustomDesignInput{State: poster.DefaultState(), VariantID: "v1", Price: pricing.PriceFor(poster.DefaultState())}

	if _, err := svc.AddOrMergeLine(ctx, "p1", ItemInput{VariantID: "v1", Quantity: 1}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.AddCustomLine(ctx, "p1", design); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.AddCustomLine(ctx, "p1", design); err != nil {
		t.Fatal(err)
	}
	cart, err := svc.AddOrMergeLine(ctx, "p1", ItemInput{VariantID: "v1", Quantity: 1})
	if err != nil {
		t.Fatal(err)
	}

	if len(cart.Lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(cart.Lines))
	}
	if cart.Lines[0].IsCustom() || cart.Lines[0].Quantity != 2 {
		t.Fatalf("commodity line should have absorbed the second add: %+v", cart.Lines[0])
	}
	if !cart.Lines[1].IsCustom() || !cart.Lines[2].IsCustom() {
		t.Fatalf("custom lines must stay separate")
	}
	if cart.Lines[1].UnitPriceCents != 69900 {
		t.Fatalf("unexpected custom price %d", cart.Lines[1].UnitPriceCents)
	}
}

func TestCustomLineFreezesDesign(t *testing.T) {
	svc, _ := newTestService(&stubRemote{})
	state := poster.DefaultState()
	state.Babies[0].Name = "Ana"

	cart, err := svc.AddCustomLine(context.Background(), "p1", CustomDesignInput{
		State: state, VariantID: "v9", PreviewImage: "https://cdn/p.png", ConfigURL: "https://cdn/c.json",
	})
	if err != nil {
		t.Fatal(err)
	}
	state.Babies[0].Name = "changed"

	line := cart.Lines[0]
	if line.DesignConfig.Babies[0].Name != "Ana" {
		t.Fatalf("design not frozen: %+v", line.DesignConfig.Babies[0])
	}
	want := map[string]string{
		"Bebés": "1", "Tamaño": "30x40", "Nombres": "Ana",
		"_preview": "https://cdn/p.png", "_config": "https://cdn/c.json",
	}
	for k, v := range want {
		if line.CustomAttributes[k] != v {
			t.Fatalf("attribute %s = %q, want %q", k, line.CustomAttributes[k], v)
		}
	}
	if line.Title != "Póster de nacimiento 30x40" {
		t.Fatalf("unexpected title %q", line.Title)
	}
}

func TestCustomAttributesNames(t *testing.T) {
	m := poster.NewModel()
	m.SetBabyCount(3)
	state := m.Snapshot()
	state.Babies[1].Name = "Luis"

	attrs := CustomAttributes(state, "data:image/png;base64,xx", "")
	if attrs["Nombres"] != "Baby 1, Luis, Baby 3" || attrs["Bebés"] != "3" || attrs["Tamaño"] != "40x30" {
		t.Fatalf("unexpected attributes %v", attrs)
	}
	if _, ok := attrs["_preview"]; ok {
		t.Fatalf("inline previews must not be sent as attributes")
	}
}

func TestSetQuantityZeroRemoves(t *testing.T) {
	remote := &stubRemote{}
	svc, _ := newTestService(remote)
	ctx := context.Background()

	cart, err := svc.AddOrMergeLine(ctx, "p1", ItemInput{VariantID: "v1", Quantity: 2})
	if err != nil {
		t.Fatal(err)
	}
	cart, err = svc.SetQuantity(ctx, "p1", cart.Lines[0].ID, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(cart.Lines) != 0 || len(remote.lines) != 0 {
		t.Fatalf("line not removed: local %+v remote %+v", cart.Lines, remote.lines)
	}
	if remote.calls[len(remote.calls)-1] != "remove" {
		t.Fatalf("expected remove call, got %v", remote.calls)
	}
}

func TestSetQuantityUpdates(t *testing.T) {
	remote := &stubRemote{}
	svc, _ := newTestService(remote)
	ctx := context.Background()

	cart, _ := svc.AddOrMergeLine(ctx, "p1", ItemInput{VariantID: "v1", Quantity: 1, UnitPriceCents: 500})
	cart, err := svc.SetQuantity(ctx, "p1", cart.Lines[0].ID, 4)
	if err != nil {
		t.Fatal(err)
	}
	if cart.Lines[0].Quantity != 4 || remote.lines[0].Quantity != 4 {
		t.Fatalf("quantity not applied")
	}

	if _, err := svc.SetQuantity(ctx, "p1", "missing", 2); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRemoteFailureKeepsOptimisticChange(t *testing.T) {
	remote := &stubRemote{fail: &storefront.RemoteError{Code: storefront.CodeTransport, Message: "timeout"}}
	svc, _ := newTestService(remote)
	ctx := context.Background()

	cart, err := svc.AddOrMergeLine(ctx, "p1", ItemInput{VariantID: "v1", Quantity: 1})
	if err == nil {
		t.Fatal("expected error")
	}
	var re *storefront.RemoteError
	if !errors.As(err, &re) || re.Message != "timeout" {
		t.Fatalf("remote error not propagated: %v", err)
	}
	if len(cart.Lines) != 1 || cart.CartID != nil {
		t.Fatalf("optimistic line should stay: %+v", cart)
	}
	if cart.Error != "No se pudo agregar al carrito" || cart.Loading {
		t.Fatalf("unexpected status %q loading=%v", cart.Error, cart.Loading)
	}

	stored := svc.Get(ctx, "p1")
	if stored.Error == "" || len(stored.Lines) != 1 {
		t.Fatalf("failure state not persisted: %+v", stored)
	}

	remote.fail = nil
	cart, err = svc.SetQuantity(ctx, "p1", cart.Lines[0].ID, 2)
	if err != nil {
		t.Fatal(err)
	}
	if cart.Error != "" {
		t.Fatalf("error should clear on next attempt, got %q", cart.Error)
	}
	if cart.CartID == nil || cart.Lines[0].RemoteLineID == "" {
		t.Fatalf("retry should create the cart and line: %+v", cart)
	}
}

func TestErrorMessagesFollowLocale(t *testing.T) {
	remote := &stubRemote{fail: &storefront.RemoteError{Code: "X", Message: "boom"}}
	svc, _ := newTestService(remote, WithLocale(language.English))
	cart, _ := svc.AddOrMergeLine(context.Background(), "p1", ItemInput{VariantID: "v1", Quantity: 1})
	if cart.Error != "Could not add to cart" {
		t.Fatalf("unexpected message %q", cart.Error)
	}
}

func TestAddValidation(t *testing.T) {
	svc, _ := newTestService(&stubRemote{})
	ctx := context.Background()
	if _, err := svc.AddOrMergeLine(ctx, "p1", ItemInput{VariantID: "v1", Quantity: 0}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected quantity error, got %v", err)
	}
	if _, err := svc.AddOrMergeLine(ctx, "p1", ItemInput{Quantity: 1}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected variant error, got %v", err)
	}
	bad := poster.DefaultState()
	bad.PosterSize = "40x30"
	if _, err := svc.AddCustomLine(ctx, "p1", CustomDesignInput{State: bad, VariantID: "v"}); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("expected invalid state, got %v", err)
	}
}

func TestCartsArePerProfileAndPersisted(t *testing.T) {
	remote := &stubRemote{}
	svc, repo := newTestService(remote)
	ctx := context.Background()

	if _, err := svc.AddOrMergeLine(ctx, "p1", ItemInput{VariantID: "v1", Quantity: 1, UnitPriceCents: 250}); err != nil {
		t.Fatal(err)
	}
	if got := svc.Get(ctx, "p2"); len(got.Lines) != 0 || got.Currency != "MXN" {
		t.Fatalf("profiles must not share carts: %+v", got)
	}

	restarted := New(repo, remote, logger.Nop())
	got := restarted.Get(ctx, "p1")
	if len(got.Lines) != 1 || got.CartID == nil || *got.CartID != "cart-1" {
		t.Fatalf("cart not restored: %+v", got)
	}
}

func TestApplyDiscountCodes(t *testing.T) {
	remote := &stubRemote{}
	svc, _ := newTestService(remote)
	ctx := context.Background()

	if _, err := svc.ApplyDiscountCodes(ctx, "p1", []string{"BEBE10"}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found without cart, got %v", err)
	}
	if _, err := svc.AddOrMergeLine(ctx, "p1", ItemInput{VariantID: "v1", Quantity: 1}); err != nil {
		t.Fatal(err)
	}
	cart, err := svc.ApplyDiscountCodes(ctx, "p1", []string{" BEBE10 ", "BAD", ""})
	if err != nil {
		t.Fatal(err)
	}
	if len(cart.DiscountCodes) != 1 || cart.DiscountCodes[0] != "BEBE10" {
		t.Fatalf("only applicable codes should remain: %v", cart.DiscountCodes)
	}
	if len(remote.codes) != 2 {
		t.Fatalf("remote should receive cleaned codes, got %v", remote.codes)
	}
}

func TestRefreshReconciles(t *testing.T) {
	remote := &stubRemote{}
	svc, _ := newTestService(remote)
	ctx := context.Background()

	if _, err := svc.AddOrMergeLine(ctx, "p1", ItemInput{VariantID: "v1", Quantity: 1}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.AddOrMergeLine(ctx, "p1", ItemInput{VariantID: "v2", Quantity: 1}); err != nil {
		t.Fatal(err)
	}
	remote.lines[0].Quantity = 5
	remote.lines = remote.lines[:1]

	cart, err := svc.Refresh(ctx, "p1")
	if err != nil {
		t.Fatal(err)
	}
	if len(cart.Lines) != 1 || cart.Lines[0].VariantID != "v1" || cart.Lines[0].Quantity != 5 {
		t.Fatalf("unexpected lines after refresh %+v", cart.Lines)
	}

	remote.missing = true
	cart, err = svc.Refresh(ctx, "p1")
	if err != nil {
		t.Fatal(err)
	}
	if cart.CartID != nil || len(cart.Lines) != 0 {
		t.Fatalf("expired cart should reset: %+v", cart)
	}
}

func TestRecomputeTotals(t *testing.T) {
	svc, _ := newTestService(&stubRemote{fail: &storefront.RemoteError{Message: "down"}})
	cart, _ := svc.AddOrMergeLine(context.Background(), "p1", ItemInput{VariantID: "v1", Quantity: 3, UnitPriceCents: 1000})
	if cart.SubtotalCents != 3000 || cart.TotalCents != 3000 {
		t.Fatalf("optimistic totals wrong: %+v", cart)
	}
	if cart.TotalQuantity() != 3 {
		t.Fatalf("unexpected total quantity %d", cart.TotalQuantity())
	}
}
