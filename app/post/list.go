// Package post contains the CRUD endpoints for blog posts
package post

import (
	"net/http"
	"strconv"

	"blogapi/internal"
	"blogapi/internal/model"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func List(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	skip, _ := strconv.Atoi(c.DefaultQuery("skip", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if skip < 0 || limit <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid paging parameters",
			"requestID": requestID,
		})
		return
	}

	var posts []model.Post

	err := d.DB.
		Offset(skip).
		Limit(limit).
		Find(&posts).
		Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to list posts", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, posts)
}
