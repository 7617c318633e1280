package devserver

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/bookadmin-dev/bookadmin/internal/cli/client"
)

// TagRequest is the body of tag creation and rename
type TagRequest struct {
	Name string `json:"name" binding:"required"`
}

func toTag(t Tag) client.Tag {
	return client.Tag{ID: t.ID, Name: t.Name}
}

// @Summary List tags
// @Tags tags
// @Produce json
// @Success 200 {array} client.Tag
// @Router /api/admin/tags [get]
func (s *Server) listTags(c *gin.Context) {
	var tags []Tag
	if err := s.db.Order("name").Find(&tags).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list tags")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	resp := make([]client.Tag, 0, len(tags))
	for _, t := range tags {
		resp = append(resp, toTag(t))
	}
	c.JSON(http.StatusOK, resp)
}

// bindTagName reads and trims the tag name from the body
func bindTagName(c *gin.Context) (string, bool) {
	var req TagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return "", false
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Tag name is required"})
		return "", false
	}
	return name, true
}

func (s *Server) tagNameTaken(name string, exceptID int64) (bool, error) {
	var count int64
	err := s.db.Model(&Tag{}).Where("name = ? AND id <> ?", name, exceptID).Count(&count).Error
	return count > 0, err
}

// @Summary Create tag
// @Tags tags
// @Accept json
// @Produce json
// @Param request body TagRequest true "Tag"
// @Success 201 {object} client.Tag
// @Failure 409 {object} map[string]interface{}
// @Router /api/admin/tags [post]
func (s *Server) createTag(c *gin.Context) {
	name, ok := bindTagName(c)
	if !ok {
		return
	}

	taken, err := s.tagNameTaken(name, 0)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to check tag name")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	if taken {
		c.JSON(http.StatusConflict, gin.H{"error": "Tag already exists"})
		return
	}

	tag := Tag{Name: name}
	if err := s.db.Create(&tag).Error; err != nil {
		s.logger.Error().Err(err).Str("name", name).Msg("Failed to create tag")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create tag"})
		return
	}

	s.logger.Info().Int64("tag_id", tag.ID).Str("name", name).Msg("Tag created")
	c.JSON(http.StatusCreated, toTag(tag))
}

// @Summary Rename tag
// @Tags tags
// @Accept json
// @Produce json
// @Param id path int true "Tag ID"
// @Param request body TagRequest true "Tag"
// @Success 200 {object} client.Tag
// @Failure 404 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /api/admin/tags/{id} [put]
func (s *Server) updateTag(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	name, ok := bindTagName(c)
	if !ok {
		return
	}

	var tag Tag
	if err := s.db.First(&tag, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Tag not found"})
			return
		}
		s.logger.Error().Err(err).Int64("tag_id", id).Msg("Failed to get tag")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	taken, err := s.tagNameTaken(name, id)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to check tag name")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	if taken {
		c.JSON(http.StatusConflict, gin.H{"error": "Tag already exists"})
		return
	}

	if err := s.db.Model(&tag).Update("name", name).Error; err != nil {
		s.logger.Error().Err(err).Int64("tag_id", id).Msg("Failed to rename tag")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update tag"})
		return
	}
	tag.Name = name

	s.logger.Info().Int64("tag_id", id).Str("name", name).Msg("Tag renamed")
	c.JSON(http.StatusOK, toTag(tag))
}

// @Summary Delete tag
// @Description Deletes the tag and detaches it from every book
// @Tags tags
// @Param id path int true "Tag ID"
// @Success 204
// @Failure 404 {object} map[string]interface{}
// @Router /api/admin/tags/{id} [delete]
func (s *Server) deleteTag(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	var deleted int64
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM book_tags WHERE tag_id = ?", id).Error; err != nil {
			return err
		}
		result := tx.Delete(&Tag{}, id)
		deleted = result.RowsAffected
		return result.Error
	})
	if err != nil {
		s.logger.Error().Err(err).Int64("tag_id", id).Msg("Failed to delete tag")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete tag"})
		return
	}
	if deleted == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Tag not found"})
		return
	}

	s.logger.Info().Int64("tag_id", id).Msg("Tag deleted")
	c.Status(http.StatusNoContent)
}
