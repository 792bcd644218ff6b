package httpserver

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"posterstudio/internal/domain"
	"posterstudio/internal/poster"
	"posterstudio/internal/repository/kv"
	"posterstudio/internal/service/history"
)

type designHandlers struct {
	deps   Deps
	logger zerolog.Logger
	poster *posterHandlers
	// locks serializes history read-modify-write per profile.
	locks sync.Map
}

func newDesignHandlers(deps Deps, logger zerolog.Logger, ph *posterHandlers) *designHandlers {
	return &designHandlers{deps: deps, logger: logger, poster: ph}
}

type saveDesignRequest struct {
	State     *domain.BirthPosterState `json:"state"`
	Thumbnail string                   `json:"thumbnail"`
	Name      *string                  `json:"name"`
}

type renameRequest struct {
	Name string `json:"name"`
}

type designsResponse struct {
	Tool    domain.Tool          `json:"tool"`
	Results []domain.SavedDesign `json:"results"`
	Total   int                  `json:"total"`
}

// withStore loads the caller's history for the :tool param and runs fn
// under the profile lock.
func (h *designHandlers) withStore(c *gin.Context, fn func(*history.Store)) {
	tool := domain.Tool(c.Param("tool"))
	if !tool.Known() {
		abortError(c, http.StatusNotFound, "ResourceNotFound", "unknown tool "+string(tool))
		return
	}
	if h.deps.Store == nil {
		writeError(c, errStorageUnavailable)
		return
	}
	profileID := profileFrom(c)
	lock, _ := h.locks.LoadOrStore(profileID, &sync.Mutex{})
	mu := lock.(*sync.Mutex)
	mu.Lock()
	defer mu.Unlock()

	store := history.New(kv.Scoped(h.deps.Store, profileID), tool, h.logger)
	store.Load(c.Request.Context())
	fn(store)
}

func (h *designHandlers) list(c *gin.Context) {
	h.withStore(c, func(s *history.Store) {
		designs := s.Designs()
		c.JSON(http.StatusOK, designsResponse{Tool: s.Tool(), Results: designs, Total: len(designs)})
	})
}

func (h *designHandlers) save(c *gin.Context) {
	var req saveDesignRequest
	if !h.bindDesign(c, &req) {
		return
	}
	state := poster.Normalize(*req.State)
	thumb := h.thumbnailFor(c, state, req.Thumbnail)
	name := ""
	if req.Name != nil {
		name = *req.Name
	}
	h.withStore(c, func(s *history.Store) {
		d, err := s.Save(c.Request.Context(), state, thumb, name)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, d)
	})
}

func (h *designHandlers) update(c *gin.Context) {
	var req saveDesignRequest
	if !h.bindDesign(c, &req) {
		return
	}
	state := poster.Normalize(*req.State)
	thumb := h.thumbnailFor(c, state, req.Thumbnail)
	h.withStore(c, func(s *history.Store) {
		d, err := s.Update(c.Request.Context(), c.Param("id"), state, thumb, req.Name)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, d)
	})
}

func (h *designHandlers) rename(c *gin.Context) {
	var req renameRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Name == "" {
		badRequest(c, "name required")
		return
	}
	h.withStore(c, func(s *history.Store) {
		if err := s.Rename(c.Request.Context(), c.Param("id"), req.Name); err != nil {
			writeError(c, err)
			return
		}
		d, _ := s.Get(c.Param("id"))
		c.JSON(http.StatusOK, d)
	})
}

func (h *designHandlers) remove(c *gin.Context) {
	h.withStore(c, func(s *history.Store) {
		if err := s.Delete(c.Request.Context(), c.Param("id")); err != nil {
			writeError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	})
}

func (h *designHandlers) clear(c *gin.Context) {
	h.withStore(c, func(s *history.Store) {
		if err := s.Clear(c.Request.Context()); err != nil {
			writeError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	})
}

func (h *designHandlers) bindDesign(c *gin.Context, req *saveDesignRequest) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		badRequest(c, "invalid json body")
		return false
	}
	if req.State == nil {
		badRequest(c, "state required")
		return false
	}
	return true
}

// thumbnailFor keeps a client-supplied thumbnail or renders one. A failed
// render saves the design without a thumbnail.
func (h *designHandlers) thumbnailFor(c *gin.Context, state domain.BirthPosterState, supplied string) string {
	if supplied != "" || h.deps.Rasterizer == nil {
		return supplied
	}
	res, err := h.poster.thumbnail(c, state)
	if err != nil {
		h.logger.Warn().Err(err).Msg("thumbnail render failed")
		return ""
	}
	return res.DataURL
}
