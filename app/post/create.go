package post

import (
	"errors"
	"net/http"

	"blogapi/internal"
	"blogapi/internal/model"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type postBody struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
}

// Create adds a post owned by the user in the path
func Create(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)
	ownerID := c.Param("userID")

	var data postBody
	if err := c.ShouldBindJSON(&data); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid request body",
			"requestID": requestID,
		})
		return
	}

	var count int64

	err := d.DB.Model(model.User{}).
		Where("id = ?", ownerID).
		Count(&count).
		Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to check if user exists", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	if count == 0 {
		c.JSON(http.StatusNotFound, gin.H{
			"error":     "User not found",
			"requestID": requestID,
		})
		return
	}

	post := model.Post{
		Title:       data.Title,
		Description: data.Description,
		OwnerID:     ownerID,
	}

	if err := d.DB.Create(&post).Error; err != nil {
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			c.JSON(http.StatusNotFound, gin.H{
				"error":     "User not found",
				"requestID": requestID,
			})
			return
		}

		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to create post", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, post)
}
