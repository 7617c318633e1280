package devserver

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/bookadmin-dev/bookadmin/internal/cli/client"
	"github.com/bookadmin-dev/bookadmin/internal/session"
)

const invalidCredentialsMessage = "Invalid email or password"

// @Summary Login
// @Description Exchanges email and password for a bearer token. Non-admin
// @Description accounts can log in; the console rejects them client-side.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body session.Credentials true "Login request"
// @Success 200 {object} session.LoginPayload
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /api/admin/login [post]
func (s *Server) login(c *gin.Context) {
	var req session.Credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.validator.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user User
	if err := s.db.Where("email = ?", strings.ToLower(req.Email)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": invalidCredentialsMessage})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if err := VerifyPassword(req.Password, user.PasswordHash); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": invalidCredentialsMessage})
		return
	}

	token, err := s.tokens.Generate(user.ID, user.Email, user.Roles)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to generate token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	now := time.Now().UTC()
	if err := s.db.Model(&user).Update("last_login_at", now).Error; err != nil {
		s.logger.Warn().Err(err).Int64("user_id", user.ID).Msg("Failed to record last login")
	}

	s.logger.Info().Int64("user_id", user.ID).Str("email", user.Email).Msg("User logged in")

	c.JSON(http.StatusOK, session.LoginPayload{
		Token:       token,
		ExpiresIn:   int64(s.tokens.TTL().Seconds()),
		UserID:      user.ID,
		DisplayName: user.DisplayName,
		Email:       user.Email,
		Roles:       user.Roles,
	})
}

// @Summary Verify token
// @Tags auth
// @Produce json
// @Success 200 {object} client.VerifyResponse
// @Failure 401 {object} map[string]interface{}
// @Router /api/admin/verify [get]
func (s *Server) verify(c *gin.Context) {
	c.JSON(http.StatusOK, client.VerifyResponse{Valid: true})
}
