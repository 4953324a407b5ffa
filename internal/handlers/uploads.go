// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif" // register GIF decoder
	"image/jpeg"
	_ "image/png" // register PNG decoder
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register WebP decoder

	"catalogd/internal/storage"
	"catalogd/internal/web"
)

const (
	// maxUploadSize is the maximum allowed image upload size (5 MB).
	maxUploadSize = 5 << 20

	// thumbMaxWidth is the maximum thumbnail width in pixels.
	thumbMaxWidth = 400

	// thumbQuality is the JPEG quality for generated thumbnails.
	thumbQuality = 80

	// maxImagePixels caps the number of pixels to prevent memory bombs.
	maxImagePixels = 100_000_000
)

// allowedImageTypes defines MIME types accepted for upload.
var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// thumbableTypes are image types that support thumbnail generation.
// GIF is excluded to preserve animation.
var thumbableTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// Uploads handles multipart image uploads to the asset host.
type Uploads struct {
	storage *storage.Client
	folder  string
}

// NewUploads creates the upload handler group. storage may be nil when the
// asset host is unconfigured; uploads then return 503.
func NewUploads(storageClient *storage.Client, folder string) *Uploads {
	return &Uploads{storage: storageClient, folder: folder}
}

// Upload accepts a multipart image (field "image", legacy alias "file"),
// stores it on the asset host under the configured folder, and echoes the
// resulting URL and key. A thumbnail is generated for raster types.
// POST /api/items/upload (alias /api/items/upload-image)
func (h *Uploads) Upload(w http.ResponseWriter, r *http.Request) {
	if h.storage == nil {
		web.RespondError(w, r, &web.Error{
			Status:  http.StatusServiceUnavailable,
			Code:    "storage_unavailable",
			Message: "Image uploads are not configured.",
		})
		return
	}

	// Limit request body to maxUploadSize plus overhead for form fields.
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize+1024)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			web.RespondError(w, r, web.ValidationMsg("File too large. Maximum size is 5 MB."))
			return
		}
		web.RespondError(w, r, web.ValidationMsg("Invalid multipart form data."))
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		file, header, err = r.FormFile("file")
	}
	if err != nil {
		web.RespondError(w, r, web.ValidationError(web.FieldError{
			Field: "image", Message: "An image file is required.",
		}))
		return
	}
	defer file.Close()

	if header.Size > maxUploadSize {
		web.RespondError(w, r, web.ValidationMsg("File too large. Maximum size is 5 MB."))
		return
	}

	// Detect content type by sniffing the first 512 bytes.
	sniffBuf := make([]byte, 512)
	n, err := file.Read(sniffBuf)
	if err != nil && err != io.EOF {
		web.RespondError(w, r, web.Internal(err))
		return
	}
	contentType := http.DetectContentType(sniffBuf[:n])
	if !allowedImageTypes[contentType] {
		web.RespondError(w, r, web.ValidationMsg("File type %q is not allowed.", contentType))
		return
	}

	// Seek back to start after sniffing.
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		web.RespondError(w, r, web.Internal(err))
		return
	}

	fileBytes, err := io.ReadAll(file)
	if err != nil {
		web.RespondError(w, r, web.Internal(err))
		return
	}

	fileID := uuid.New().String()
	key := fmt.Sprintf("%s/%s%s", h.folder, fileID, extensionFromType(contentType))

	ctx := r.Context()
	if err := h.storage.Upload(ctx, key, contentType, bytes.NewReader(fileBytes), int64(len(fileBytes))); err != nil {
		slog.Error("asset upload failed", "error", err, "key", key)
		web.RespondError(w, r, web.Internal(err))
		return
	}

	// Generate and upload a thumbnail for supported image types.
	// Failures here never fail the upload itself.
	var thumbURL string
	if thumbableTypes[contentType] {
		thumbData, err := generateThumbnail(bytes.NewReader(fileBytes), thumbMaxWidth)
		if err != nil {
			slog.Warn("thumbnail generation failed", "error", err, "key", key)
		} else if thumbData != nil {
			thumbKey := fmt.Sprintf("%s/thumbs/%s.jpg", h.folder, fileID)
			if err := h.storage.Upload(ctx, thumbKey, "image/jpeg", bytes.NewReader(thumbData), int64(len(thumbData))); err != nil {
				slog.Warn("thumbnail upload failed", "error", err, "key", thumbKey)
			} else {
				thumbURL = h.storage.FileURL(thumbKey)
			}
		}
	}

	web.RespondMessage(w, http.StatusCreated, "Image uploaded.", map[string]any{
		"url":           h.storage.FileURL(key),
		"key":           key,
		"thumbnail_url": thumbURL,
		"size":          len(fileBytes),
		"type":          contentType,
	})
}

// Remove deletes a previously uploaded asset and its thumbnail. Only keys
// under the configured upload folder are accepted.
// DELETE /api/items/upload
func (h *Uploads) Remove(w http.ResponseWriter, r *http.Request) {
	if h.storage == nil {
		web.RespondError(w, r, &web.Error{
			Status:  http.StatusServiceUnavailable,
			Code:    "storage_unavailable",
			Message: "Image uploads are not configured.",
		})
		return
	}

	var payload struct {
		Key string `json:"key"`
	}
	if err := web.Bind(r, &payload); err != nil {
		web.RespondError(w, r, err)
		return
	}

	key := strings.TrimSpace(payload.Key)
	if key == "" || !strings.HasPrefix(key, h.folder+"/") || strings.Contains(key, "..") {
		web.RespondError(w, r, web.ValidationError(web.FieldError{
			Field: "key", Message: "A valid upload key is required.",
		}))
		return
	}

	ctx := r.Context()
	if err := h.storage.Delete(ctx, key); err != nil {
		slog.Error("asset delete failed", "error", err, "key", key)
		web.RespondError(w, r, web.Internal(err))
		return
	}

	// The thumbnail may not exist (small images, GIFs); ignore failures.
	if thumbKey := thumbKeyFor(h.folder, key); thumbKey != "" {
		if err := h.storage.Delete(ctx, thumbKey); err != nil {
			slog.Warn("thumbnail delete failed", "error", err, "key", thumbKey)
		}
	}

	web.RespondMessage(w, http.StatusOK, "Image deleted.", map[string]any{"key": key})
}

// thumbKeyFor derives the thumbnail key for an uploaded object, or ""
// when the key has no extension to strip.
func thumbKeyFor(folder, key string) string {
	base := strings.TrimPrefix(key, folder+"/")
	dot := strings.LastIndex(base, ".")
	if dot <= 0 {
		return ""
	}
	return fmt.Sprintf("%s/thumbs/%s.jpg", folder, base[:dot])
}

// generateThumbnail creates a JPEG thumbnail from an image, constrained
// to maxWidth while preserving aspect ratio. Returns nil if the image is
// already smaller than maxWidth.
func generateThumbnail(src io.ReadSeeker, maxWidth int) ([]byte, error) {
	// Decode config first to check dimensions without full decode.
	imgCfg, _, err := image.DecodeConfig(src)
	if err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	// Check for image bombs.
	if int64(imgCfg.Width)*int64(imgCfg.Height) > maxImagePixels {
		return nil, fmt.Errorf("image too large: %dx%d exceeds %d pixels", imgCfg.Width, imgCfg.Height, maxImagePixels)
	}

	// Skip thumbnail if image is already small enough.
	if imgCfg.Width <= maxWidth {
		return nil, nil
	}

	// Seek back to start for full decode.
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek: %w", err)
	}

	img, _, err := image.Decode(src)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	// Calculate thumbnail dimensions preserving aspect ratio.
	bounds := img.Bounds()
	ratio := float64(maxWidth) / float64(bounds.Dx())
	newWidth := maxWidth
	newHeight := int(float64(bounds.Dy()) * ratio)

	// Resize using CatmullRom (high quality).
	dst := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: thumbQuality}); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}

	return buf.Bytes(), nil
}

// extensionFromType returns a file extension for known MIME types.
func extensionFromType(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ""
	}
}
