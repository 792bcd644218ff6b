package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type profileResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ProfileID   string `json:"profileId"`
}

// createProfileHandler issues an anonymous profile and its bearer token.
func createProfileHandler(profiles profileService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, id, err := profiles.Issue(c.Request.Context())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, profileResponse{AccessToken: token, TokenType: "Bearer", ProfileID: id})
	}
}
