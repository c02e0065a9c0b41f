package handlers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"tableside-order-service/internal/utils"

	"go.uber.org/zap"
)

type fileReadErrorKind string

const (
	fileReadErrMissing     fileReadErrorKind = "missing"
	fileReadErrReadFailed  fileReadErrorKind = "read_failed"
	fileReadErrTooLarge    fileReadErrorKind = "too_large"
	fileReadErrInvalidType fileReadErrorKind = "invalid_type"
)

type fileReadError struct {
	Kind    fileReadErrorKind
	Message string
	Err     error
}

func readFileBytes(r *http.Request, field string, validateType bool, maxBytes int64) ([]byte, string, *string, *fileReadError) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return nil, "", nil, &fileReadError{Kind: fileReadErrMissing, Message: "File is required", Err: err}
	}
	defer file.Close()

	if maxBytes <= 0 {
		maxBytes = 5 * 1024 * 1024
	}
	maxSizeMB := maxBytes / (1024 * 1024)
	if maxSizeMB <= 0 {
		maxSizeMB = 5
	}
	data, readErr := io.ReadAll(io.LimitReader(file, maxBytes+1))
	if readErr != nil {
		return nil, "", nil, &fileReadError{Kind: fileReadErrReadFailed, Message: "Failed to read file", Err: readErr}
	}
	if int64(len(data)) > maxBytes {
		return nil, "", nil, &fileReadError{Kind: fileReadErrTooLarge, Message: fmt.Sprintf("File size must be less than %dMB.", maxSizeMB)}
	}

	ct := strings.TrimSpace(header.Header.Get("Content-Type"))
	if ct == "" {
		ct = utils.DetectContentType(data)
	}
	ctLower := strings.ToLower(ct)
	if validateType && !utils.ValidateImageContentType(ctLower) {
		msg := "Invalid file type. Please upload an image file."
		return nil, ctLower, nil, &fileReadError{Kind: fileReadErrInvalidType, Message: msg}
	}

	var filename *string
	if header.Filename != "" {
		v := header.Filename
		filename = &v
	}

	return data, ctLower, filename, nil
}

// saveUpload writes the file under the local uploads root and, when an object
// store is configured, mirrors the same key to the bucket. The mirror is
// best-effort: a bucket failure is logged and the local file still wins.
func (h *Handler) saveUpload(ctx context.Context, key string, data []byte, contentType string) error {
	if err := h.Uploads.Write(key, data); err != nil {
		return err
	}
	if h.Mirror != nil {
		if _, err := h.Mirror.PutObject(ctx, key, data, contentType); err != nil {
			h.Logger.Warn("object store mirror failed", zap.String("key", key), zap.Error(err))
		}
	}
	return nil
}

func (h *Handler) removeUpload(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := h.Uploads.Remove(key); err != nil {
		h.Logger.Warn("upload remove failed", zap.String("key", key), zap.Error(err))
	}
	if h.Mirror != nil {
		if err := h.Mirror.DeleteKey(ctx, key); err != nil {
			h.Logger.Warn("object store delete failed", zap.String("key", key), zap.Error(err))
		}
	}
}

// uploadURL is the public path a stored key is served from.
func (h *Handler) uploadURL(key string) string {
	base := strings.TrimRight(h.Config.PublicBaseURL, "/")
	return base + path.Join("/uploads/", key)
}
