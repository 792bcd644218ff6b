package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"posterstudio/internal/domain"
	"posterstudio/internal/render"
	"posterstudio/internal/repository/kv"
	cartsvc "posterstudio/internal/service/cart"
	"posterstudio/internal/service/orderrender"
	"posterstudio/internal/upload"
)

type profileService interface {
	Issue(ctx context.Context) (token, profileID string, err error)
	LookupByToken(ctx context.Context, token string) (string, error)
}

type cartService interface {
	Get(ctx context.Context, profileID string) domain.Cart
	AddOrMergeLine(ctx context.Context, profileID string, in cartsvc.ItemInput) (domain.Cart, error)
	AddCustomLine(ctx context.Context, profileID string, in cartsvc.CustomDesignInput) (domain.Cart, error)
	SetQuantity(ctx context.Context, profileID, lineID string, qty int) (domain.Cart, error)
	RemoveLine(ctx context.Context, profileID, lineID string) (domain.Cart, error)
	ApplyDiscountCodes(ctx context.Context, profileID string, codes []string) (domain.Cart, error)
	Refresh(ctx context.Context, profileID string) (domain.Cart, error)
}

type orderProcessor interface {
	ProcessOrder(ctx context.Context, order domain.Order) (orderrender.Report, error)
}

type rasterizer interface {
	Thumbnail(ctx context.Context, root *render.Node, maxSize int) (render.Result, error)
	PosterRender(ctx context.Context, root *render.Node, widthCm, heightCm float64) (render.Result, error)
}

// Deps carries the services behind the routes.
type Deps struct {
	// Store backs saved-design history; it is scoped per profile.
	Store      kv.Repository
	Profiles   profileService
	Cart       cartService
	Orders     orderProcessor
	Rasterizer rasterizer
	Uploader   upload.Uploader

	IllustrationBaseURL string
	CustomVariantID     string
	Currency            string
	Locale              string
	WebhookSecret       string
	CORSOrigins         []string
}

// buildRouter wires routes for the API.
func buildRouter(logger zerolog.Logger, deps Deps) (*gin.Engine, error) {
	if deps.Profiles == nil {
		return nil, errors.New("profile service required")
	}
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(requestLogger(logger), gin.Recovery())
	if len(deps.CORSOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     deps.CORSOrigins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
			AllowHeaders:     []string{"Authorization", "Content-Type", "Accept-Language"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(deps.Store))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.POST("/api/profiles", createProfileHandler(deps.Profiles))
	router.POST("/webhooks/orders/create", orderCreatedHandler(deps.Orders, deps.WebhookSecret, logger))

	api := router.Group("/api", profileMiddleware(deps.Profiles))

	poster := &posterHandlers{deps: deps, logger: logger}
	api.GET("/poster/default", poster.defaultState)
	api.GET("/poster/frames", poster.frames)
	api.POST("/poster/actions", poster.actions)
	api.POST("/poster/price", poster.price)
	api.POST("/poster/preview", poster.preview)
	api.POST("/poster/render", poster.render)

	designs := newDesignHandlers(deps, logger, poster)
	api.GET("/designs/:tool", designs.list)
	api.POST("/designs/:tool", designs.save)
	api.DELETE("/designs/:tool", designs.clear)
	api.PUT("/designs/:tool/:id", designs.update)
	api.PATCH("/designs/:tool/:id", designs.rename)
	api.DELETE("/designs/:tool/:id", designs.remove)

	carts := &cartHandlers{deps: deps, poster: poster}
	api.GET("/cart", carts.get)
	api.POST("/cart/items", carts.addItem)
	api.POST("/cart/designs", carts.addDesign)
	api.PATCH("/cart/lines/:id", carts.setQuantity)
	api.DELETE("/cart/lines/:id", carts.removeLine)
	api.POST("/cart/discounts", carts.applyDiscounts)
	api.POST("/cart/refresh", carts.refresh)

	return router, nil
}
