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

func Update(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	var data postBody
	if err := c.ShouldBindJSON(&data); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid request body",
			"requestID": requestID,
		})
		return
	}

	var post model.Post

	err := d.DB.
		Where("id = ?", c.Param("id")).
		First(&post).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error":     "Post not found",
				"requestID": requestID,
			})
			return
		}

		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to fetch post", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	post.Title = data.Title
	post.Description = data.Description

	if err := d.DB.Save(&post).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to update post", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, post)
}
