// Package file contains the upload/download/list endpoints backed by the
// storage layer
package file

import (
	"net/http"
	"path/filepath"

	"blogapi/internal"
	"blogapi/validators"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func Upload(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "No file part",
			"requestID": requestID,
		})
		return
	}

	code, f, err := validators.UploadValidator(fh)
	if err != nil {
		c.JSON(code, gin.H{
			"error":     err.Error(),
			"requestID": requestID,
		})
		return
	}
	defer f.Close()

	name := filepath.Base(fh.Filename)

	exists, err := d.Storage.Exists(c.Request.Context(), name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to check if file exists", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	if exists {
		c.JSON(http.StatusConflict, gin.H{
			"error":     "File already exists",
			"requestID": requestID,
		})
		return
	}

	if err := d.Storage.Save(c.Request.Context(), name, f); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to store file", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "File uploaded successfully",
	})
}
