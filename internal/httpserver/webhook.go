package httpserver

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"posterstudio/internal/domain"
)

// hmacHeader carries the base64 HMAC-SHA256 of the raw webhook body.
const hmacHeader = "X-Shopify-Hmac-Sha256"

// maxWebhookBody caps the order payload read into memory.
const maxWebhookBody = 5 << 20

// orderCreatedHandler renders print files for every custom line of a paid
// order and links them from the order note.
func orderCreatedHandler(orders orderProcessor, secret string, logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if orders == nil {
			abortError(c, http.StatusServiceUnavailable, "Unavailable", "order processing not configured")
			return
		}
		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
		if err != nil {
			badRequest(c, "unreadable body")
			return
		}
		if secret == "" || !validSignature(secret, body, c.GetHeader(hmacHeader)) {
			abortError(c, http.StatusUnauthorized, "invalid_signature", "webhook signature mismatch")
			return
		}
		var order domain.Order
		if err := json.Unmarshal(body, &order); err != nil {
			badRequest(c, "invalid order payload")
			return
		}
		report, err := orders.ProcessOrder(c.Request.Context(), order)
		if err != nil {
			writeError(c, err)
			return
		}
		logger.Info().
			Int64("order", order.ID).
			Int("processed", report.Processed).
			Int("failed", report.Failed).
			Bool("note_updated", report.NoteUpdated).
			Msg("order processed")
		c.JSON(http.StatusOK, report)
	}
}

func validSignature(secret string, body []byte, signature string) bool {
	want, err := base64.StdEncoding.DecodeString(signature)
	if err != nil || len(want) == 0 {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(mac.Sum(nil), want)
}
