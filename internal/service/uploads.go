package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"

	"github.com/valisyam/shub/internal/domain"
	"github.com/valisyam/shub/internal/storage"
	"go.uber.org/zap"
)

// Upload is a file received from a client. The stored content type comes
// from the file extension, never from the client.
type Upload struct {
	FileName string
	Size     int64
	Data     io.Reader
}

// Download is an opened stored file. The caller closes Body.
type Download struct {
	FileName    string
	ContentType string
	Body        io.ReadCloser
}

// StoredFile describes an object written by Uploader.Store
type StoredFile struct {
	Path        string
	FileName    string
	ContentType string
	Size        int64
	FileType    domain.FileType
}

// Uploader validates client uploads and writes them to storage.
// Every upload path in the portal (files, quote documents, purchase orders,
// supplier invoices, message attachments) goes through it.
type Uploader struct {
	storage  storage.Storage
	maxBytes int64
	logger   *zap.Logger
}

// NewUploader creates an Uploader. maxBytes <= 0 disables the size check.
func NewUploader(store storage.Storage, maxBytes int64, logger *zap.Logger) *Uploader {
	return &Uploader{storage: store, maxBytes: maxBytes, logger: logger}
}

// Store checks the extension against the allowlist and the size limit, then
// writes the data under folder
func (u *Uploader) Store(ctx context.Context, folder string, up *Upload) (*StoredFile, error) {
	name := filepath.Base(strings.TrimSpace(up.FileName))
	if name == "" || name == "." || name == "/" {
		return nil, fmt.Errorf("%w: file name is required", ErrInvalidInput)
	}
	fileType, ok := domain.DetectFileType(name)
	if !ok {
		return nil, ErrFileTypeNotAllowed
	}
	if u.maxBytes > 0 && up.Size > u.maxBytes {
		return nil, ErrFileTooLarge
	}

	contentType := contentTypeFor(name)

	data := up.Data
	if u.maxBytes > 0 {
		data = io.LimitReader(up.Data, u.maxBytes+1)
	}

	path, size, err := u.storage.Upload(ctx, folder, name, contentType, data)
	if err != nil {
		return nil, fmt.Errorf("failed to store file: %w", err)
	}
	if u.maxBytes > 0 && size > u.maxBytes {
		u.Remove(ctx, path)
		return nil, ErrFileTooLarge
	}

	return &StoredFile{
		Path:        path,
		FileName:    name,
		ContentType: contentType,
		Size:        size,
		FileType:    fileType,
	}, nil
}

// Open returns a stored object for download. A missing object maps to ErrFileNotFound.
func (u *Uploader) Open(ctx context.Context, path, fileName, contentType string) (*Download, error) {
	if path == "" {
		return nil, ErrFileNotFound
	}
	body, err := u.storage.Download(ctx, path)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrFileNotFound
		}
		return nil, fmt.Errorf("failed to open stored file: %w", err)
	}
	if contentType == "" {
		contentType = contentTypeFor(fileName)
	}
	return &Download{FileName: fileName, ContentType: contentType, Body: body}, nil
}

// Remove deletes a stored object and only logs failures
func (u *Uploader) Remove(ctx context.Context, path string) {
	if path == "" {
		return
	}
	if err := u.storage.Delete(ctx, path); err != nil {
		u.logger.Warn("failed to delete stored file", zap.String("path", path), zap.Error(err))
	}
}

func contentTypeFor(name string) string {
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(name))); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
