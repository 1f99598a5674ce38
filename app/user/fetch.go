package user

import (
	"errors"
	"net/http"
	"strconv"

	"blogapi/internal"
	"blogapi/internal/model"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// List returns users with skip/limit paging
func List(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	skip, _ := strconv.Atoi(c.DefaultQuery("skip", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if skip < 0 || limit <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid paging parameters",
			"requestID": requestID,
		})
		return
	}

	var users []model.User

	err := d.DB.
		Offset(skip).
		Limit(limit).
		Find(&users).
		Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to list users", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, users)
}

func Fetch(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	var user model.User

	err := d.DB.
		Where("id = ?", c.Param("id")).
		First(&user).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
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

		zap.L().Error("Failed to fetch user", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, user)
}
