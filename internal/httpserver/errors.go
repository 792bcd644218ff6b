package httpserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"posterstudio/internal/domain"
	"posterstudio/internal/service/profile"
	"posterstudio/internal/storefront"
)

type errorItem struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	StatusCode int         `json:"statusCode"`
	Message    string      `json:"message"`
	Errors     []errorItem `json:"errors"`
}

func newErrorResponse(status int, code, message string) errorResponse {
	return errorResponse{
		StatusCode: status,
		Message:    message,
		Errors:     []errorItem{{Code: code, Message: message}},
	}
}

// abortError writes a single-error response and stops the handler chain.
func abortError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, newErrorResponse(status, code, message))
}

// classify maps service errors onto a status and an error code.
func classify(err error) (int, string) {
	var remote *storefront.RemoteError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "ResourceNotFound"
	case errors.Is(err, profile.ErrInvalidToken):
		return http.StatusUnauthorized, "invalid_token"
	case errors.Is(err, domain.ErrInvalidState), errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, "InvalidInput"
	case errors.Is(err, domain.ErrUnpriced):
		return http.StatusUnprocessableEntity, "Unpriced"
	case errors.As(err, &remote):
		return http.StatusBadGateway, remote.Code
	case domain.IsTransport(err):
		return http.StatusBadGateway, "UpstreamUnavailable"
	default:
		return http.StatusInternalServerError, "General"
	}
}

func writeError(c *gin.Context, err error) {
	status, code := classify(err)
	abortError(c, status, code, publicMessage(c, status, err))
}

// publicMessage is the message a client sees for err. Internal and transport
// failures get a fixed text; their detail goes to the request log.
func publicMessage(c *gin.Context, status int, err error) string {
	var remote *storefront.RemoteError
	switch {
	case status == http.StatusInternalServerError:
		_ = c.Error(err)
		return "internal error"
	case status == http.StatusBadGateway && !errors.As(err, &remote):
		_ = c.Error(err)
		return "upstream service unavailable"
	default:
		return err.Error()
	}
}

func badRequest(c *gin.Context, message string) {
	abortError(c, http.StatusBadRequest, "InvalidInput", message)
}

var errStorageUnavailable = errors.New("storage not configured")
