package validators

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/viper"
)

var (
	ErrNoFile              = errors.New("no file part")
	ErrFileTooLarge        = errors.New("file too large")
	ErrFileNameTooLong     = errors.New("file name is too long")
	ErrFileTypeUnsupported = errors.New("invalid file type")
)

const maxFileNameSize = 255

// Extensions mapped to the content types we expect to sniff out of them.
// Everything else is rejected outright.
var allowedTypes = map[string]string{
	".txt": "text/plain",
	".png": "image/png",
}

// UploadValidator checks a multipart upload against the extension whitelist,
// the configured size limit and the actual file contents. Returns the status
// code to respond with alongside the opened file on success.
func UploadValidator(fh *multipart.FileHeader) (int, multipart.File, error) {
	if fh == nil || fh.Filename == "" {
		return http.StatusBadRequest, nil, ErrNoFile
	}

	if len(fh.Filename) > maxFileNameSize {
		return http.StatusBadRequest, nil, ErrFileNameTooLong
	}

	ext := strings.ToLower(path.Ext(fh.Filename))
	wantType, ok := allowedTypes[ext]
	if !ok {
		return http.StatusBadRequest, nil, ErrFileTypeUnsupported
	}

	maxFileSize := viper.GetInt64("upload.max_size")
	if fh.Size > maxFileSize {
		return http.StatusRequestEntityTooLarge, nil, ErrFileTooLarge
	}

	// The extension check above is easy to spoof, so sniff the actual
	// contents too
	f, err := fh.Open()
	if err != nil {
		return http.StatusInternalServerError, nil, err
	}

	mime, err := mimetype.DetectReader(f)
	if err != nil {
		f.Close()
		return http.StatusInternalServerError, nil, err
	}

	if !mimeMatches(mime, wantType) {
		f.Close()
		return http.StatusBadRequest, nil, ErrFileTypeUnsupported
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		return http.StatusInternalServerError, nil, err
	}

	return 0, f, nil
}

func mimeMatches(m *mimetype.MIME, want string) bool {
	// text/plain detection covers utf variants, so walk the parent chain
	for cur := m; cur != nil; cur = cur.Parent() {
		if cur.Is(want) {
			return true
		}
	}

	// Empty .txt files sniff as application/octet-stream
	return want == "text/plain" && m.Is("application/octet-stream")
}
