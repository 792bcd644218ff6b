package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/text/language"

	"posterstudio/internal/domain"
	"posterstudio/internal/poster"
	"posterstudio/internal/pricing"
	"posterstudio/internal/render"
)

// thumbnailSize bounds the longest side of saved-design thumbnails.
const thumbnailSize = 240

type posterHandlers struct {
	deps   Deps
	logger zerolog.Logger
}

type posterAction struct {
	Action  string                     `json:"action"`
	Count   int                        `json:"count"`
	Patch   map[string]json.RawMessage `json:"patch"`
	Index   int                        `json:"index"`
	Size    domain.PosterSize          `json:"size"`
	FrameID *string                    `json:"frameId"`
	Color   string                     `json:"color"`
	Panel   domain.Panel               `json:"panel"`
	State   *domain.BirthPosterState   `json:"state"`
}

type actionsRequest struct {
	State   *domain.BirthPosterState `json:"state"`
	Actions []posterAction           `json:"actions"`
}

type stateRequest struct {
	State *domain.BirthPosterState `json:"state"`
}

type posterResponse struct {
	State             domain.BirthPosterState `json:"state"`
	TextLines         []string                `json:"textLines"`
	PermittedSizes    []domain.PosterSize     `json:"permittedSizes"`
	Price             priceResponse           `json:"price"`
	HasUnsavedChanges bool                    `json:"hasUnsavedChanges"`
	// Ignored lists the indexes of actions that were rejected without effect.
	Ignored []int `json:"ignored"`
}

type framesResponse struct {
	Frames []domain.FrameStyle `json:"frames"`
}

type renderResponse struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type previewResponse struct {
	DataURL string `json:"dataUrl"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
}

// locale follows Accept-Language, falling back to the configured default.
func (h *posterHandlers) locale(c *gin.Context) language.Tag {
	if accept := c.GetHeader("Accept-Language"); accept != "" {
		return poster.MatchLocale(accept)
	}
	return poster.MatchLocale(h.deps.Locale)
}

func (h *posterHandlers) respond(c *gin.Context, m *poster.Model, ignored []int) {
	state := m.Snapshot()
	if ignored == nil {
		ignored = []int{}
	}
	c.JSON(http.StatusOK, posterResponse{
		State:             state,
		TextLines:         m.TextLines(),
		PermittedSizes:    poster.PermittedSizes(state.BabyCount),
		Price:             toPrice(h.deps.Currency, pricing.PriceFor(state)),
		HasUnsavedChanges: m.HasUnsavedChanges(),
		Ignored:           ignored,
	})
}

func (h *posterHandlers) defaultState(c *gin.Context) {
	h.respond(c, poster.NewModel(poster.WithLocale(h.locale(c))), nil)
}

func (h *posterHandlers) frames(c *gin.Context) {
	c.JSON(http.StatusOK, framesResponse{Frames: pricing.Frames()})
}

// actions replays a batch of edits on top of the supplied state. Edits that
// would break an invariant are skipped and reported by index.
func (h *posterHandlers) actions(c *gin.Context) {
	var req actionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json body")
		return
	}
	opts := []poster.Option{poster.WithLocale(h.locale(c))}
	if req.State != nil {
		opts = append(opts, poster.WithState(*req.State))
	}
	m := poster.NewModel(opts...)

	var ignored []int
	for i, a := range req.Actions {
		applied, err := applyAction(m, a)
		if err != nil {
			badRequest(c, fmt.Sprintf("action %d: %v", i, err))
			return
		}
		if !applied {
			ignored = append(ignored, i)
		}
	}
	h.respond(c, m, ignored)
}

func applyAction(m *poster.Model, a posterAction) (bool, error) {
	switch a.Action {
	case "setBabyCount":
		m.SetBabyCount(a.Count)
	case "updateActiveBaby":
		patch, err := poster.ParseBabyPatch(a.Patch)
		if err != nil {
			return false, err
		}
		return m.UpdateActiveBaby(patch), nil
	case "setActiveBabyTab":
		return m.SetActiveBabyTab(a.Index), nil
	case "setPosterSize":
		return m.SetPosterSize(a.Size), nil
	case "setFrameStyle":
		if a.FrameID == nil || *a.FrameID == "" {
			m.SetFrameStyle(nil)
			return true, nil
		}
		frame, ok := pricing.FrameByID(*a.FrameID)
		if !ok {
			return false, nil
		}
		m.SetFrameStyle(&frame)
	case "setBackgroundColor":
		if _, err := render.ParseColor(a.Color); err != nil {
			return false, nil
		}
		m.SetBackgroundColor(a.Color)
	case "setActivePanel":
		m.SetActivePanel(a.Panel)
	case "replace":
		if a.State == nil {
			return false, fmt.Errorf("replace needs a state")
		}
		m.Replace(*a.State)
	case "reset":
		m.Reset()
	default:
		return false, fmt.Errorf("unknown action %q", a.Action)
	}
	return true, nil
}

func (h *posterHandlers) price(c *gin.Context) {
	state, ok := bindState(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, toPrice(h.deps.Currency, pricing.PriceFor(state)))
}

// preview returns a small JPEG of the design as a data URL.
func (h *posterHandlers) preview(c *gin.Context) {
	state, ok := bindState(c)
	if !ok {
		return
	}
	res, err := h.thumbnail(c, state)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, previewResponse{DataURL: res.DataURL, Width: res.Width, Height: res.Height})
}

// render uploads the print-resolution PNG and returns its public URL.
func (h *posterHandlers) render(c *gin.Context) {
	state, ok := bindState(c)
	if !ok {
		return
	}
	if err := poster.Validate(state); err != nil {
		writeError(c, err)
		return
	}
	if h.deps.Uploader == nil {
		writeError(c, errors.New("uploader not configured"))
		return
	}
	res, err := h.print(c, state)
	if err != nil {
		writeError(c, err)
		return
	}
	url, err := h.deps.Uploader.Upload(c.Request.Context(), "poster", res.ContentType, res.Blob)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, renderResponse{URL: url, Width: res.Width, Height: res.Height})
}

func (h *posterHandlers) scene(c *gin.Context, state domain.BirthPosterState) *render.Node {
	return render.Layout(state, render.LayoutOptions{
		IllustrationBaseURL: h.deps.IllustrationBaseURL,
		Locale:              h.locale(c),
	})
}

func (h *posterHandlers) thumbnail(c *gin.Context, state domain.BirthPosterState) (render.Result, error) {
	if h.deps.Rasterizer == nil {
		return render.Result{}, fmt.Errorf("rasterizer not configured")
	}
	return h.deps.Rasterizer.Thumbnail(c.Request.Context(), h.scene(c, state), thumbnailSize)
}

func (h *posterHandlers) print(c *gin.Context, state domain.BirthPosterState) (render.Result, error) {
	if h.deps.Rasterizer == nil {
		return render.Result{}, fmt.Errorf("rasterizer not configured")
	}
	w, hCm, ok := poster.Dimensions(state.PosterSize)
	if !ok {
		return render.Result{}, fmt.Errorf("%w: unknown size %q", domain.ErrInvalidState, state.PosterSize)
	}
	return h.deps.Rasterizer.PosterRender(c.Request.Context(), h.scene(c, state), w, hCm)
}

// bindState decodes {"state": ...} and normalizes it.
func bindState(c *gin.Context) (domain.BirthPosterState, bool) {
	var req stateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json body")
		return domain.BirthPosterState{}, false
	}
	if req.State == nil {
		badRequest(c, "state required")
		return domain.BirthPosterState{}, false
	}
	return poster.Normalize(*req.State), true
}
