package devserver

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/bookadmin-dev/bookadmin/internal/cli/client"
)

// @Summary List users
// @Tags users
// @Produce json
// @Param page query int false "Page (0-based)"
// @Param size query int false "Page size"
// @Param search query string false "Name or email fragment"
// @Param role query string false "Role"
// @Param createdAfter query string false "YYYY-MM-DD"
// @Param createdBefore query string false "YYYY-MM-DD"
// @Success 200 {object} client.UserPage
// @Router /api/admin/users [get]
func (s *Server) listUsers(c *gin.Context) {
	page, size, err := pageParams(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	query := s.db.Model(&User{})
	if search := c.Query("search"); search != "" {
		like := "%" + search + "%"
		query = query.Where("display_name LIKE ? OR email LIKE ?", like, like)
	}
	if role := c.Query("role"); role != "" {
		// roles is stored as a JSON array of strings
		query = query.Where("roles LIKE ?", `%"`+role+`"%`)
	}
	for param, cond := range map[string]string{
		"createdAfter":  "created_at >= ?",
		"createdBefore": "created_at < ?",
	} {
		value := c.Query(param)
		if value == "" {
			continue
		}
		day, err := time.Parse(dateLayout, value)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + param + ", expected YYYY-MM-DD"})
			return
		}
		query = query.Where(cond, day.UTC())
	}

	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to count users")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	var users []User
	if err := query.Order("id").Offset(page * size).Limit(size).Find(&users).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list users")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	pages := totalPages(total, size)
	resp := client.UserPage{
		Content:       make([]client.User, 0, len(users)),
		TotalElements: total,
		TotalPages:    pages,
		Number:        page,
		Size:          size,
		First:         page == 0,
		Last:          page >= pages-1,
	}
	for _, u := range users {
		resp.Content = append(resp.Content, toUserRecord(u, nil))
	}

	c.JSON(http.StatusOK, resp)
}

// findUser loads a user by the :id path parameter, answering the request
// itself when the user cannot be loaded.
func (s *Server) findUser(c *gin.Context) (*User, bool) {
	id, ok := idParam(c)
	if !ok {
		return nil, false
	}

	var user User
	if err := s.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return nil, false
		}
		s.logger.Error().Err(err).Int64("user_id", id).Msg("Failed to get user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return nil, false
	}
	return &user, true
}

// @Summary Get user
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} client.User
// @Failure 404 {object} map[string]interface{}
// @Router /api/admin/users/{id} [get]
func (s *Server) getUser(c *gin.Context) {
	user, ok := s.findUser(c)
	if !ok {
		return
	}

	stats, err := s.userStats(user.ID)
	if err != nil {
		s.logger.Error().Err(err).Int64("user_id", user.ID).Msg("Failed to compute user stats")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, toUserRecord(*user, &stats))
}

// @Summary List a user's comments
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {array} client.Comment
// @Router /api/admin/users/{id}/comments [get]
func (s *Server) listUserComments(c *gin.Context) {
	user, ok := s.findUser(c)
	if !ok {
		return
	}

	var comments []Comment
	if err := s.db.Preload("Book").Where("user_id = ?", user.ID).Order("created_at DESC, id DESC").Find(&comments).Error; err != nil {
		s.logger.Error().Err(err).Int64("user_id", user.ID).Msg("Failed to list comments")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	resp := make([]client.Comment, 0, len(comments))
	for _, cm := range comments {
		resp = append(resp, client.Comment{
			ID:        cm.ID,
			Content:   cm.Content,
			UserID:    cm.UserID,
			BookID:    cm.BookID,
			BookName:  cm.Book.Name,
			CreatedAt: formatTime(cm.CreatedAt),
		})
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Delete comment
// @Tags comments
// @Param id path int true "Comment ID"
// @Success 204
// @Failure 404 {object} map[string]interface{}
// @Router /api/admin/comments/{id} [delete]
func (s *Server) deleteComment(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	result := s.db.Delete(&Comment{}, id)
	if result.Error != nil {
		s.logger.Error().Err(result.Error).Int64("comment_id", id).Msg("Failed to delete comment")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Comment not found"})
		return
	}

	s.logger.Info().Int64("comment_id", id).Msg("Comment deleted")
	c.Status(http.StatusNoContent)
}

// @Summary Update user
// @Description Changes the fields present in the body. Roles, when present,
// @Description replace the current ones.
// @Tags users
// @Accept json
// @Produce json
// @Param id path int true "User ID"
// @Param update body client.UserUpdate true "Fields to change"
// @Success 200 {object} client.User
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /api/admin/users/{id} [put]
func (s *Server) updateUser(c *gin.Context) {
	var req client.UserUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.validator.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.IsZero() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Nothing to update"})
		return
	}

	user, ok := s.findUser(c)
	if !ok {
		return
	}

	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		var count int64
		if err := s.db.Model(&User{}).Where("email = ? AND id <> ?", email, user.ID).Count(&count).Error; err != nil {
			s.logger.Error().Err(err).Msg("Failed to check email")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
		if count > 0 {
			c.JSON(http.StatusConflict, gin.H{"error": "Email already in use"})
			return
		}
		user.Email = email
	}
	if req.DisplayName != nil {
		user.DisplayName = *req.DisplayName
	}
	if req.ProfileImageURL != nil {
		user.ImageURL = *req.ProfileImageURL
	}
	if len(req.Roles) > 0 {
		user.Roles = req.Roles
	}

	if err := s.db.Save(user).Error; err != nil {
		s.logger.Error().Err(err).Int64("user_id", user.ID).Msg("Failed to update user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update user"})
		return
	}

	stats, err := s.userStats(user.ID)
	if err != nil {
		s.logger.Error().Err(err).Int64("user_id", user.ID).Msg("Failed to compute user stats")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	s.logger.Info().Int64("user_id", user.ID).Strs("roles", user.Roles).Msg("User updated")
	c.JSON(http.StatusOK, toUserRecord(*user, &stats))
}

// @Summary Delete user
// @Description Removes the account with its readings and comments. Admins
// @Description cannot delete their own account.
// @Tags users
// @Param id path int true "User ID"
// @Success 204
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/admin/users/{id} [delete]
func (s *Server) deleteUser(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if claims, exists := GetClaims(c); exists {
		if self, err := claims.UserID(); err == nil && self == id {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot delete your own account"})
			return
		}
	}

	var deleted int64
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", id).Delete(&Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&Reading{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&User{}, id)
		deleted = result.RowsAffected
		return result.Error
	})
	if err != nil {
		s.logger.Error().Err(err).Int64("user_id", id).Msg("Failed to delete user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete user"})
		return
	}
	if deleted == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	s.logger.Info().Int64("user_id", id).Msg("User deleted")
	c.Status(http.StatusNoContent)
}
