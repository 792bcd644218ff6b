package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"posterstudio/internal/domain"
	"posterstudio/internal/poster"
	"posterstudio/internal/pricing"
	cartsvc "posterstudio/internal/service/cart"
	"posterstudio/internal/service/orderrender"
)

type cartHandlers struct {
	deps   Deps
	poster *posterHandlers
}

type addDesignRequest struct {
	State     *domain.BirthPosterState `json:"state"`
	VariantID string                   `json:"variantId"`
	Title     string                   `json:"title"`
}

type quantityRequest struct {
	Quantity *int `json:"quantity"`
}

type discountRequest struct {
	Codes []string `json:"codes"`
}

// cartErrorResponse carries the cart alongside an upstream failure so the
// client can show the optimistic state and the message together.
type cartErrorResponse struct {
	errorResponse
	Cart cartResponse `json:"cart"`
}

func (h *cartHandlers) get(c *gin.Context) {
	c.JSON(http.StatusOK, toCartResponse(h.deps.Cart.Get(c.Request.Context(), profileFrom(c))))
}

func (h *cartHandlers) addItem(c *gin.Context) {
	var in cartsvc.ItemInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid json body")
		return
	}
	cart, err := h.deps.Cart.AddOrMergeLine(c.Request.Context(), profileFrom(c), in)
	writeCart(c, http.StatusCreated, cart, err)
}

// addDesign prices the design, renders and uploads its print file and
// configuration, then adds it as a custom line.
func (h *cartHandlers) addDesign(c *gin.Context) {
	var req addDesignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json body")
		return
	}
	if req.State == nil {
		badRequest(c, "state required")
		return
	}
	state := *req.State
	if err := poster.Validate(state); err != nil {
		writeError(c, err)
		return
	}
	price, err := pricing.Quote(state)
	if err != nil {
		writeError(c, err)
		return
	}
	variantID := req.VariantID
	if variantID == "" {
		variantID = h.deps.CustomVariantID
	}
	if h.deps.Uploader == nil {
		writeError(c, errors.New("uploader not configured"))
		return
	}

	ctx := c.Request.Context()
	res, err := h.poster.print(c, state)
	if err != nil {
		writeError(c, err)
		return
	}
	previewURL, err := h.deps.Uploader.Upload(ctx, "poster", res.ContentType, res.Blob)
	if err != nil {
		writeError(c, err)
		return
	}
	format := "vertical"
	if poster.IsHorizontal(state.BabyCount) {
		format = "horizontal"
	}
	cfg, err := json.Marshal(orderrender.DesignConfig{Format: format, State: &state, PreviewURL: previewURL})
	if err != nil {
		writeError(c, fmt.Errorf("encode design config: %w", err))
		return
	}
	configURL, err := h.deps.Uploader.Upload(ctx, "config", "application/json", cfg)
	if err != nil {
		writeError(c, err)
		return
	}

	cart, err := h.deps.Cart.AddCustomLine(ctx, profileFrom(c), cartsvc.CustomDesignInput{
		State:        state,
		PreviewImage: previewURL,
		ConfigURL:    configURL,
		VariantID:    variantID,
		Price:        price,
		Title:        req.Title,
	})
	writeCart(c, http.StatusCreated, cart, err)
}

func (h *cartHandlers) setQuantity(c *gin.Context) {
	var req quantityRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Quantity == nil {
		badRequest(c, "quantity required")
		return
	}
	cart, err := h.deps.Cart.SetQuantity(c.Request.Context(), profileFrom(c), c.Param("id"), *req.Quantity)
	writeCart(c, http.StatusOK, cart, err)
}

func (h *cartHandlers) removeLine(c *gin.Context) {
	cart, err := h.deps.Cart.RemoveLine(c.Request.Context(), profileFrom(c), c.Param("id"))
	writeCart(c, http.StatusOK, cart, err)
}

func (h *cartHandlers) applyDiscounts(c *gin.Context) {
	var req discountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json body")
		return
	}
	cart, err := h.deps.Cart.ApplyDiscountCodes(c.Request.Context(), profileFrom(c), req.Codes)
	writeCart(c, http.StatusOK, cart, err)
}

func (h *cartHandlers) refresh(c *gin.Context) {
	cart, err := h.deps.Cart.Refresh(c.Request.Context(), profileFrom(c))
	writeCart(c, http.StatusOK, cart, err)
}

func writeCart(c *gin.Context, status int, cart domain.Cart, err error) {
	if err == nil {
		c.JSON(status, toCartResponse(cart))
		return
	}
	code, errCode := classify(err)
	if code != http.StatusBadGateway {
		writeError(c, err)
		return
	}
	msg := cart.Error
	if msg == "" {
		msg = publicMessage(c, code, err)
	} else {
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(code, cartErrorResponse{
		errorResponse: newErrorResponse(code, errCode, msg),
		Cart:          toCartResponse(cart),
	})
}
