package file

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"blogapi/internal"
	"blogapi/internal/storage"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Download serves one or more stored files. A single name streams the file
// directly, two or more get bundled into files.zip on the fly.
// Names are passed comma-separated: ?filenames=a.txt,b.png
func Download(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	filenames := c.Query("filenames")
	if filenames == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "No filenames",
			"requestID": requestID,
		})
		return
	}

	names := strings.Split(filenames, ",")

	// Check everything up front so a missing file can't truncate a zip
	// halfway through
	for _, name := range names {
		exists, err := d.Storage.Exists(c.Request.Context(), name)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":     "Internal server error",
				"requestID": requestID,
			})

			zap.L().Error("Failed to check if file exists", zap.Error(err), zap.String("requestID", requestID))
			return
		}

		if !exists {
			c.JSON(http.StatusNotFound, gin.H{
				"error":     fmt.Sprintf("%s file not found", name),
				"requestID": requestID,
			})
			return
		}
	}

	if len(names) == 1 {
		serveSingle(c, d, names[0], requestID)
		return
	}

	serveZip(c, d, names, requestID)
}

func serveSingle(c *gin.Context, d *internal.Deps, name, requestID string) {
	rc, size, err := d.Storage.Open(c.Request.Context(), name)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error":     fmt.Sprintf("%s file not found", name),
				"requestID": requestID,
			})
			return
		}

		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to open file", zap.Error(err), zap.String("requestID", requestID))
		return
	}
	defer rc.Close()

	c.DataFromReader(http.StatusOK, size, "application/octet-stream", rc, map[string]string{
		"Content-Disposition": fmt.Sprintf(`attachment; filename="%s"`, name),
	})
}

// serveZip streams the bundle straight into the response instead of staging
// a temp archive on disk
func serveZip(c *gin.Context, d *internal.Deps, names []string, requestID string) {
	c.Header("Content-Type", "application/zip")
	c.Header("Content-Disposition", `attachment; filename="files.zip"`)
	c.Status(http.StatusOK)

	zw := zip.NewWriter(c.Writer)
	defer zw.Close()

	for _, name := range names {
		rc, _, err := d.Storage.Open(c.Request.Context(), name)
		if err != nil {
			zap.L().Error("Failed to open file for zipping", zap.Error(err), zap.String("file", name))
			return
		}

		w, err := zw.Create(name)
		if err != nil {
			rc.Close()
			zap.L().Error("Failed to add zip entry", zap.Error(err), zap.String("file", name))
			return
		}

		if _, err := io.Copy(w, rc); err != nil {
			rc.Close()
			zap.L().Error("Failed to write zip entry", zap.Error(err), zap.String("file", name))
			return
		}

		rc.Close()
	}
}
