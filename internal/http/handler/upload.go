package handler

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"

	"github.com/valisyam/shub/internal/service"
	"go.uber.org/zap"
)

// multipartMemory is the part of a multipart body kept in memory; the rest
// spills to temporary files
const multipartMemory = 8 << 20

// multipartOverhead allows for form fields and boundaries on top of the file
const multipartOverhead = 1 << 20

// readUpload parses a multipart request and returns the file in field.
// It writes the error response itself and returns ok=false on failure.
// The caller closes the returned file.
func readUpload(w http.ResponseWriter, r *http.Request, field string, maxBytes int64) (*service.Upload, multipart.File, bool) {
	if maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes+multipartOverhead)
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondWithError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("File too large: maximum size is %dMB", maxBytes>>20))
			return nil, nil, false
		}
		respondWithError(w, http.StatusBadRequest, "Invalid multipart form")
		return nil, nil, false
	}

	file, header, err := r.FormFile(field)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Invalid file upload: %s field is required", field))
		return nil, nil, false
	}

	return &service.Upload{
		FileName: header.Filename,
		Size:     header.Size,
		Data:     file,
	}, file, true
}

// serveDownload streams a stored file as an attachment
func serveDownload(w http.ResponseWriter, logger *zap.Logger, d *service.Download) {
	defer d.Body.Close()

	contentType := d.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": d.FileName}))

	if _, err := io.Copy(w, d.Body); err != nil {
		logger.Warn("download interrupted", zap.String("file_name", d.FileName), zap.Error(err))
	}
}
