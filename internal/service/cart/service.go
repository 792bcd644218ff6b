package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/text/language"

	"posterstudio/internal/domain"
	"posterstudio/internal/metrics"
	"posterstudio/internal/poster"
	"posterstudio/internal/pricing"
	"posterstudio/internal/repository/kv"
	"posterstudio/internal/storefront"
)

// StorageKey is the per-profile key holding the persisted cart.
const StorageKey = "cart"

// lineIDAttribute tags remote lines with the local line id so snapshots can
// be matched back to local lines.
const lineIDAttribute = "_lineId"

// Service keeps one cart per profile. Mutations are optimistic: the local
// line list changes first, then the remote cart is called. A remote failure
// leaves the local change in place, records a short user-facing message on
// the cart and returns the error.
type Service struct {
	repo     kv.Repository
	remote   storefront.CartAPI
	logger   zerolog.Logger
	currency string
	locale   language.Tag
	now      func() time.Time
	newID    func() string
	locks    sync.Map
}

type Option func(*Service)

func WithCurrency(currency string) Option {
	return func(s *Service) { s.currency = currency }
}

// WithLocale selects the language of user-facing error messages.
func WithLocale(tag language.Tag) Option {
	return func(s *Service) { s.locale = tag }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithIDGenerator(fn func() string) Option {
	return func(s *Service) { s.newID = fn }
}

func New(repo kv.Repository, remote storefront.CartAPI, logger zerolog.Logger, opts ...Option) *Service {
	s := &Service{
		repo:     repo,
		remote:   remote,
		logger:   logger,
		currency: "MXN",
		locale:   language.Spanish,
		now:      func() time.Time { return time.Now().UTC() },
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ItemInput is a commodity product added to the cart.
type ItemInput struct {
	VariantID      string `json:"variantId"`
	Quantity       int    `json:"quantity"`
	UnitPriceCents int64  `json:"unitPriceCents"`
	Title          string `json:"title"`
	PreviewImage   string `json:"previewImage,omitempty"`
}

// CustomDesignInput is a one-of-a-kind poster added to the cart.
type CustomDesignInput struct {
	State        domain.BirthPosterState
	PreviewImage string
	// ConfigURL points at the uploaded design configuration.
	ConfigURL string
	VariantID string
	Price     pricing.Price
	Title     string
}

// Get returns the profile's cart.
func (s *Service) Get(ctx context.Context, profileID string) domain.Cart {
	lock := s.lockFor(profileID)
	lock.Lock()
	defer lock.Unlock()
	return s.load(ctx, profileID)
}

// AddOrMergeLine adds a commodity line. An existing line with the same
// variant absorbs the quantity unless either line carries a design.
func (s *Service) AddOrMergeLine(ctx context.Context, profileID string, in ItemInput) (domain.Cart, error) {
	if strings.TrimSpace(in.VariantID) == "" {
		return domain.Cart{}, fmt.Errorf("%w: variantId required", domain.ErrInvalidInput)
	}
	if in.Quantity <= 0 {
		return domain.Cart{}, fmt.Errorf("%w: quantity must be positive", domain.ErrInvalidInput)
	}

	var target string
	return s.mutate(ctx, profileID, opAdd,
		func(c *domain.Cart) error {
			if i := mergeTarget(c.Lines, in.VariantID); i >= 0 {
				c.Lines[i].Quantity += in.Quantity
				target = c.Lines[i].ID
				return nil
			}
			line := domain.CartLineItem{
				ID:             s.newID(),
				VariantID:      in.VariantID,
				Quantity:       in.Quantity,
				UnitPriceCents: in.UnitPriceCents,
				Title:          in.Title,
				PreviewImage:   in.PreviewImage,
				AddedAt:        s.now(),
			}
			c.Lines = append(c.Lines, line)
			target = line.ID
			return nil
		},
		func(ctx context.Context, c *domain.Cart) error {
			return s.syncLine(ctx, c, target)
		},
	)
}

// AddCustomLine always appends a new line holding a frozen copy of the
// design and its display attributes.
func (s *Service) AddCustomLine(ctx context.Context, profileID string, in CustomDesignInput) (domain.Cart, error) {
	if strings.TrimSpace(in.VariantID) == "" {
		return domain.Cart{}, fmt.Errorf("%w: variantId required", domain.ErrInvalidInput)
	}
	if err := poster.Validate(in.State); err != nil {
		return domain.Cart{}, err
	}
	title := in.Title
	if title == "" {
		title = "Póster de nacimiento " + string(in.State.PosterSize)
	}

	var target string
	return s.mutate(ctx, profileID, opAdd,
		func(c *domain.Cart) error {
			state := in.State.Clone()
			line := domain.CartLineItem{
				ID:               s.newID(),
				VariantID:        in.VariantID,
				Quantity:         1,
				UnitPriceCents:   in.Price.SaleCents,
				Title:            title,
				PreviewImage:     in.PreviewImage,
				DesignConfig:     &state,
				CustomAttributes: CustomAttributes(in.State, in.PreviewImage, in.ConfigURL),
				AddedAt:          s.now(),
			}
			c.Lines = append(c.Lines, line)
			target = line.ID
			return nil
		},
		func(ctx context.Context, c *domain.Cart) error {
			return s.syncLine(ctx, c, target)
		},
	)
}

// SetQuantity changes a line's quantity. A quantity of zero or less removes
// the line.
func (s *Service) SetQuantity(ctx context.Context, profileID, lineID string, qty int) (domain.Cart, error) {
	if qty <= 0 {
		return s.RemoveLine(ctx, profileID, lineID)
	}
	return s.mutate(ctx, profileID, opUpdate,
		func(c *domain.Cart) error {
			i := indexOf(c.Lines, lineID)
			if i < 0 {
				return domain.ErrNotFound
			}
			c.Lines[i].Quantity = qty
			return nil
		},
		func(ctx context.Context, c *domain.Cart) error {
			return s.syncLine(ctx, c, lineID)
		},
	)
}

// RemoveLine drops a line locally and remotely.
func (s *Service) RemoveLine(ctx context.Context, profileID, lineID string) (domain.Cart, error) {
	var remoteID string
	return s.mutate(ctx, profileID, opRemove,
		func(c *domain.Cart) error {
			i := indexOf(c.Lines, lineID)
			if i < 0 {
				return domain.ErrNotFound
			}
			remoteID = c.Lines[i].RemoteLineID
			c.Lines = append(c.Lines[:i:i], c.Lines[i+1:]...)
			return nil
		},
		func(ctx context.Context, c *domain.Cart) error {
			if c.CartID == nil || remoteID == "" {
				return nil
			}
			return s.apply(c, s.remote.RemoveLines(ctx, *c.CartID, []string{remoteID}))
		},
	)
}

// ApplyDiscountCodes replaces the cart's discount codes.
func (s *Service) ApplyDiscountCodes(ctx context.Context, profileID string, codes []string) (domain.Cart, error) {
	cleaned := make([]string, 0, len(codes))
	for _, code := range codes {
		if code = strings.TrimSpace(code); code != "" {
			cleaned = append(cleaned, code)
		}
	}
	return s.mutate(ctx, profileID, opDiscount,
		func(c *domain.Cart) error {
			if c.CartID == nil {
				return fmt.Errorf("no cart to discount: %w", domain.ErrNotFound)
			}
			c.DiscountCodes = cleaned
			return nil
		},
		func(ctx context.Context, c *domain.Cart) error {
			return s.apply(c, s.remote.UpdateDiscountCodes(ctx, *c.CartID, cleaned))
		},
	)
}

// Refresh reloads the remote cart. Lines that disappeared remotely are
// dropped and quantities follow the remote. A cart the remote no longer
// knows is reset to empty.
func (s *Service) Refresh(ctx context.Context, profileID string) (domain.Cart, error) {
	return s.mutate(ctx, profileID, opRefresh,
		func(*domain.Cart) error { return nil },
		func(ctx context.Context, c *domain.Cart) error {
			if c.CartID == nil {
				return nil
			}
			res := s.remote.FetchCart(ctx, *c.CartID)
			if !res.OK() && res.Err.Code == storefront.CodeNotFound {
				*c = domain.Cart{Currency: c.Currency}
				return nil
			}
			if err := s.apply(c, res); err != nil {
				return err
			}
			reconcile(c, res.Value)
			return nil
		},
	)
}

// mutate runs local then remote against the profile's persisted cart. The
// optimistic state is saved with Loading set before the remote call.
func (s *Service) mutate(ctx context.Context, profileID string, op operation, local func(*domain.Cart) error, remote func(context.Context, *domain.Cart) error) (out domain.Cart, err error) {
	defer func() { metrics.CartOperations.WithLabelValues(string(op), metrics.Outcome(err)).Inc() }()

	lock := s.lockFor(profileID)
	lock.Lock()
	defer lock.Unlock()

	c := s.load(ctx, profileID)
	c.Error = ""
	if err := local(&c); err != nil {
		return c, err
	}
	recompute(&c)

	c.Loading = true
	if err := s.save(ctx, profileID, c); err != nil {
		return c, err
	}

	remoteErr := remote(ctx, &c)
	c.Loading = false
	if remoteErr != nil {
		c.Error = s.message(op)
		s.logger.Error().Err(remoteErr).Str("profile_id", profileID).Str("op", string(op)).Msg("cart remote call failed")
	}
	if err := s.save(ctx, profileID, c); err != nil && remoteErr == nil {
		return c.Clone(), err
	}
	if remoteErr != nil {
		return c.Clone(), fmt.Errorf("cart %s: %w", op, remoteErr)
	}
	return c.Clone(), nil
}

// syncLine pushes one local line to the remote cart, creating the cart on
// first use.
func (s *Service) syncLine(ctx context.Context, c *domain.Cart, lineID string) error {
	i := indexOf(c.Lines, lineID)
	if i < 0 {
		return nil
	}
	line := c.Lines[i]
	if c.CartID == nil {
		return s.apply(c, s.remote.CreateCart(ctx, []storefront.LineInput{lineInput(line)}))
	}
	if line.RemoteLineID == "" {
		return s.apply(c, s.remote.AddLines(ctx, *c.CartID, []storefront.LineInput{lineInput(line)}))
	}
	return s.apply(c, s.remote.UpdateLines(ctx, *c.CartID, []storefront.LineUpdate{{ID: line.RemoteLineID, Quantity: line.Quantity}}))
}

// apply copies a successful snapshot's identity and totals onto the cart.
func (s *Service) apply(c *domain.Cart, res storefront.Result[storefront.CartSnapshot]) error {
	snap, err := res.Unwrap()
	if err != nil {
		return err
	}
	id := snap.ID
	c.CartID = &id
	if snap.CheckoutURL != "" {
		c.CheckoutURL = snap.CheckoutURL
	}
	if snap.Currency != "" {
		c.Currency = snap.Currency
	}
	c.SubtotalCents = snap.SubtotalCents
	c.TotalCents = snap.TotalCents
	c.TotalDiscountCents = snap.TotalDiscountCents
	if snap.DiscountCodes != nil {
		c.DiscountCodes = c.DiscountCodes[:0:0]
		for _, dc := range snap.DiscountCodes {
			if dc.Applicable {
				c.DiscountCodes = append(c.DiscountCodes, dc.Code)
			}
		}
	}

	remoteIDs := make(map[string]string, len(snap.Lines))
	for _, rl := range snap.Lines {
		for _, a := range rl.Attributes {
			if a.Key == lineIDAttribute {
				remoteIDs[a.Value] = rl.ID
			}
		}
	}
	for i := range c.Lines {
		if id, ok := remoteIDs[c.Lines[i].ID]; ok {
			c.Lines[i].RemoteLineID = id
		}
	}
	return nil
}

// reconcile makes local lines follow a fetched snapshot.
func reconcile(c *domain.Cart, snap storefront.CartSnapshot) {
	qty := make(map[string]int, len(snap.Lines))
	for _, rl := range snap.Lines {
		qty[rl.ID] = rl.Quantity
	}
	kept := c.Lines[:0:0]
	for _, l := range c.Lines {
		if l.RemoteLineID != "" {
			q, ok := qty[l.RemoteLineID]
			if !ok {
				continue
			}
			l.Quantity = q
		}
		kept = append(kept, l)
	}
	c.Lines = kept
}

func (s *Service) load(ctx context.Context, profileID string) domain.Cart {
	empty := domain.Cart{Currency: s.currency}
	data, err := kv.Scoped(s.repo, profileID).Load(ctx, StorageKey)
	if errors.Is(err, domain.ErrNotFound) {
		return empty
	}
	if err != nil {
		s.logger.Error().Err(err).Str("profile_id", profileID).Msg("load cart")
		return empty
	}
	var c domain.Cart
	if err := json.Unmarshal(data, &c); err != nil {
		s.logger.Warn().Err(err).Str("profile_id", profileID).Msg("stored cart unreadable, starting empty")
		return empty
	}
	if c.Currency == "" {
		c.Currency = s.currency
	}
	return c
}

func (s *Service) save(ctx context.Context, profileID string, c domain.Cart) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	if err := kv.Scoped(s.repo, profileID).Save(ctx, StorageKey, data); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

func (s *Service) lockFor(profileID string) *sync.Mutex {
	l, _ := s.locks.LoadOrStore(profileID, &sync.Mutex{})
	return l.(*sync.Mutex)
}

// mergeTarget finds the commodity line a new commodity item of variantID
// should merge into.
func mergeTarget(lines []domain.CartLineItem, variantID string) int {
	for i, l := range lines {
		if l.VariantID == variantID && !l.IsCustom() {
			return i
		}
	}
	return -1
}

func indexOf(lines []domain.CartLineItem, id string) int {
	for i, l := range lines {
		if l.ID == id {
			return i
		}
	}
	return -1
}

// recompute sets local totals until the remote reports its own.
func recompute(c *domain.Cart) {
	var subtotal int64
	for _, l := range c.Lines {
		subtotal += int64(l.Quantity) * l.UnitPriceCents
	}
	c.SubtotalCents = subtotal
	c.TotalCents = subtotal - c.TotalDiscountCents
	if c.TotalCents < 0 {
		c.TotalCents = 0
	}
}

// CustomAttributes flattens a design for display in the remote cart.
func CustomAttributes(state domain.BirthPosterState, previewURL, configURL string) map[string]string {
	names := make([]string, len(state.Babies))
	for i, b := range state.Babies {
		names[i] = poster.DisplayName(b, i)
	}
	attrs := map[string]string{
		"Bebés":   strconv.Itoa(state.BabyCount),
		"Tamaño":  string(state.PosterSize),
		"Nombres": strings.Join(names, ", "),
	}
	if previewURL != "" && !strings.HasPrefix(previewURL, "data:") {
		attrs["_preview"] = previewURL
	}
	if configURL != "" {
		attrs["_config"] = configURL
	}
	return attrs
}

func lineInput(l domain.CartLineItem) storefront.LineInput {
	keys := make([]string, 0, len(l.CustomAttributes))
	for k := range l.CustomAttributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	attrs := make([]storefront.Attribute, 0, len(keys)+1)
	for _, k := range keys {
		attrs = append(attrs, storefront.Attribute{Key: k, Value: l.CustomAttributes[k]})
	}
	attrs = append(attrs, storefront.Attribute{Key: lineIDAttribute, Value: l.ID})
	return storefront.LineInput{MerchandiseID: l.VariantID, Quantity: l.Quantity, Attributes: attrs}
}
