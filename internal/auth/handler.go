package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// @Summary      Refresh tokens
// @Description  Exchanges a refresh token for a new access/refresh pair
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body  refreshRequest  true  "Refresh token"
// @Success      200 {object} TokenPair
// @Failure      400 {object} map[string]string
// @Failure      401 {object} map[string]string
// @Router       /auth/refresh [post]
func (s *Service) RefreshHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req refreshRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing refresh token"})
			return
		}

		email, err := s.ParseToken(req.RefreshToken, true)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid refresh token"})
			return
		}

		pair, err := s.IssueTokens(email)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue tokens"})
			return
		}
		c.JSON(http.StatusOK, pair)
	}
}
