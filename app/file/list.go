package file

import (
	"net/http"

	"blogapi/internal"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func List(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	files, err := d.Storage.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to list files", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	if files == nil {
		files = []string{}
	}

	c.JSON(http.StatusOK, gin.H{
		"files": files,
	})
}
