// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif" // register GIF decoder
	"image/jpeg"
	_ "image/png" // register PNG decoder
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register WebP decoder

	"featherpress/internal/editor"
	"featherpress/internal/middleware"
	"featherpress/internal/models"
	"featherpress/internal/storage"
	"featherpress/internal/store"
)

const (
	// maxUploadSize is the maximum allowed request body for uploads (50 MB).
	maxUploadSize = 50 << 20

	// thumbMaxWidth is the maximum thumbnail width in pixels.
	thumbMaxWidth = 400

	// thumbQuality is the JPEG quality for generated thumbnails.
	thumbQuality = 80

	// maxImagePixels caps decoded image size to prevent memory bombs.
	maxImagePixels = 100_000_000
)

// allowedUploadTypes defines MIME types accepted for post attachments.
var allowedUploadTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
	"audio/mpeg": true,
	"audio/ogg":  true,
	"audio/wav":  true,
	"video/mp4":  true,
	"video/webm": true,
	"application/pdf": true,
	"application/zip": true,
	"text/plain":      true,
}

// thumbableTypes are image types that support thumbnail generation.
// GIF is excluded to preserve animation.
var thumbableTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// uploaderIDKey carries the requesting user through the editor's Upload
// call, which has no seat for caller identity in its signature.
type uploaderIDKey struct{}

// WithUploaderID tags a context with the user performing an upload.
func WithUploaderID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, uploaderIDKey{}, id)
}

func uploaderIDFromCtx(ctx context.Context) uuid.UUID {
	id, _ := ctx.Value(uploaderIDKey{}).(uuid.UUID)
	return id
}

// Uploads groups the attachment HTTP handlers. It also implements
// editor.Uploader, so the save sequence and the direct upload endpoint
// share one storage path.
type Uploads struct {
	uploads *store.UploadStore
	storage *storage.Client
}

// NewUploads creates a new Uploads handler group. storageClient may be
// nil if S3 is not configured; uploads then fail with 503.
func NewUploads(uploads *store.UploadStore, storageClient *storage.Client) *Uploads {
	return &Uploads{uploads: uploads, storage: storageClient}
}

// Upload implements editor.Uploader: stores the batch all-or-nothing.
// On any failure, already-stored files from the batch are removed
// best-effort and the error is returned.
func (u *Uploads) Upload(ctx context.Context, files []editor.File) ([]editor.FileRef, error) {
	if u.storage == nil {
		return nil, fmt.Errorf("object storage is not configured")
	}

	stored := make([]*models.PostFile, 0, len(files))
	for _, f := range files {
		pf, err := u.storeOne(ctx, f, uploaderIDFromCtx(ctx))
		if err != nil {
			u.discard(ctx, stored)
			return nil, err
		}
		stored = append(stored, pf)
	}

	refs := make([]editor.FileRef, len(stored))
	for i, pf := range stored {
		refs[i] = editor.FileRef{ID: pf.ID}
	}
	return refs, nil
}

// storeOne uploads a single file to the private bucket, generates a
// thumbnail for images, and records the metadata row.
func (u *Uploads) storeOne(ctx context.Context, f editor.File, uploaderID uuid.UUID) (*models.PostFile, error) {
	if !allowedUploadTypes[f.ContentType] {
		return nil, fmt.Errorf("file type %q is not allowed", f.ContentType)
	}

	data, err := io.ReadAll(io.LimitReader(f.Data, maxUploadSize+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if len(data) > maxUploadSize {
		return nil, fmt.Errorf("file %q exceeds the 50 MB limit", f.Name)
	}

	fileID := uuid.New()
	key := fmt.Sprintf("uploads/%s%s", fileID, extensionFromType(f.ContentType))

	if err := u.storage.Upload(ctx, u.storage.PrivateBucket(), key, f.ContentType, bytes.NewReader(data), int64(len(data))); err != nil {
		return nil, err
	}

	var thumbKey *string
	if thumbableTypes[f.ContentType] {
		thumb, err := generateThumbnail(bytes.NewReader(data), thumbMaxWidth)
		if err != nil {
			slog.Warn("thumbnail generation failed", "file", f.Name, "error", err)
		} else if thumb != nil {
			tk := fmt.Sprintf("thumbs/%s.jpg", fileID)
			if err := u.storage.Upload(ctx, u.storage.PublicBucket(), tk, "image/jpeg", bytes.NewReader(thumb), int64(len(thumb))); err != nil {
				slog.Warn("thumbnail upload failed", "file", f.Name, "error", err)
			} else {
				thumbKey = &tk
			}
		}
	}

	pf, err := u.uploads.Create(&models.PostFile{
		Filename:     key,
		OriginalName: f.Name,
		ContentType:  f.ContentType,
		SizeBytes:    int64(len(data)),
		Bucket:       u.storage.PrivateBucket(),
		S3Key:        key,
		ThumbS3Key:   thumbKey,
		UploaderID:   uploaderID,
	})
	if err != nil {
		// Metadata write failed: remove the orphaned objects.
		u.deleteObjects(ctx, u.storage.PrivateBucket(), key, thumbKey)
		return nil, err
	}
	return pf, nil
}

// discard removes files stored earlier in a failed batch.
func (u *Uploads) discard(ctx context.Context, stored []*models.PostFile) {
	for _, pf := range stored {
		if _, err := u.uploads.Delete(pf.ID); err != nil {
			slog.Warn("batch cleanup: metadata delete failed", "id", pf.ID, "error", err)
		}
		u.deleteObjects(ctx, pf.Bucket, pf.S3Key, pf.ThumbS3Key)
	}
}

func (u *Uploads) deleteObjects(ctx context.Context, bucket, key string, thumbKey *string) {
	if err := u.storage.Delete(ctx, bucket, key); err != nil {
		slog.Warn("object delete failed", "key", key, "error", err)
	}
	if thumbKey != nil {
		if err := u.storage.Delete(ctx, u.storage.PublicBucket(), *thumbKey); err != nil {
			slog.Warn("thumbnail delete failed", "key", *thumbKey, "error", err)
		}
	}
}

// Create handles POST /upload: a multipart batch stored all-or-nothing.
func (u *Uploads) Create(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeError(w, http.StatusBadRequest, "Could not parse the upload.")
		return
	}

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		writeError(w, http.StatusBadRequest, "No files in the upload.")
		return
	}

	files := make([]editor.File, 0, len(headers))
	for _, h := range headers {
		src, err := h.Open()
		if err != nil {
			writeError(w, http.StatusBadRequest, "Could not read an uploaded file.")
			return
		}
		defer src.Close()
		files = append(files, editor.File{
			Name:        h.Filename,
			ContentType: h.Header.Get("Content-Type"),
			Data:        src,
			Size:        h.Size,
		})
	}

	ctx := WithUploaderID(r.Context(), sess.UserID)
	refs, err := u.Upload(ctx, files)
	if err != nil {
		slog.Error("upload batch failed", "error", err, "count", len(files))
		writeError(w, http.StatusBadGateway, "File upload failed. The post was not saved.")
		return
	}

	stored := make([]*models.PostFile, 0, len(refs))
	for _, ref := range refs {
		pf, err := u.uploads.FindByID(ref.ID)
		if err != nil || pf == nil {
			writeError(w, http.StatusInternalServerError, "Upload bookkeeping failed.")
			return
		}
		stored = append(stored, pf)
	}
	writeJSON(w, http.StatusCreated, map[string]any{"files": stored})
}

// Download handles GET /upload/{id}/download: redirects to a presigned
// URL for the private original, so posts can embed a stable path.
func (u *Uploads) Download(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid file ID.")
		return
	}

	pf, err := u.uploads.FindByID(id)
	if err != nil {
		slog.Error("upload lookup failed", "error", err, "id", id)
		writeError(w, http.StatusInternalServerError, "Could not load the file.")
		return
	}
	if pf == nil {
		writeError(w, http.StatusNotFound, "File not found.")
		return
	}

	if u.storage == nil {
		writeError(w, http.StatusServiceUnavailable, "Object storage is not configured.")
		return
	}

	presigned, err := u.storage.PresignedURL(r.Context(), pf.Bucket, pf.S3Key, storage.DownloadExpiry)
	if err != nil {
		slog.Error("presign failed", "error", err, "key", pf.S3Key)
		writeError(w, http.StatusInternalServerError, "Could not produce a download link.")
		return
	}
	http.Redirect(w, r, presigned, http.StatusFound)
}

// Thumbnail handles GET /upload/{id}/thumbnail: redirects to the public
// thumbnail, or falls back to the original download.
func (u *Uploads) Thumbnail(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid file ID.")
		return
	}

	pf, err := u.uploads.FindByID(id)
	if err != nil || pf == nil {
		writeError(w, http.StatusNotFound, "File not found.")
		return
	}
	if pf.ThumbS3Key == nil || u.storage == nil {
		u.Download(w, r)
		return
	}
	http.Redirect(w, r, u.storage.FileURL(*pf.ThumbS3Key), http.StatusFound)
}

// Delete handles DELETE /upload/{id}. Only the uploader or an admin may
// remove a file; the objects go first, then the metadata row.
func (u *Uploads) Delete(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid file ID.")
		return
	}

	pf, err := u.uploads.FindByID(id)
	if err != nil {
		slog.Error("upload lookup failed", "error", err, "id", id)
		writeError(w, http.StatusInternalServerError, "Could not load the file.")
		return
	}
	if pf == nil {
		writeError(w, http.StatusNotFound, "File not found.")
		return
	}
	if pf.UploaderID != sess.UserID && sess.Role != "admin" {
		writeError(w, http.StatusForbidden, "You may only delete your own uploads.")
		return
	}

	if u.storage != nil {
		u.deleteObjects(r.Context(), pf.Bucket, pf.S3Key, pf.ThumbS3Key)
	}
	if _, err := u.uploads.Delete(id); err != nil {
		slog.Error("upload delete failed", "error", err, "id", id)
		writeError(w, http.StatusInternalServerError, "Could not delete the file.")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// generateThumbnail creates a JPEG thumbnail from an image, constrained
// to maxWidth while preserving aspect ratio. Returns nil if the image is
// already smaller than maxWidth.
func generateThumbnail(src io.ReadSeeker, maxWidth int) ([]byte, error) {
	// Decode config first to check dimensions without a full decode.
	imgCfg, _, err := image.DecodeConfig(src)
	if err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if int64(imgCfg.Width)*int64(imgCfg.Height) > maxImagePixels {
		return nil, fmt.Errorf("image too large: %dx%d exceeds %d pixels", imgCfg.Width, imgCfg.Height, maxImagePixels)
	}

	if imgCfg.Width <= maxWidth {
		return nil, nil
	}

	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek: %w", err)
	}

	img, _, err := image.Decode(src)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	ratio := float64(maxWidth) / float64(bounds.Dx())
	newWidth := maxWidth
	newHeight := int(float64(bounds.Dy()) * ratio)

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
	case "audio/mpeg":
		return ".mp3"
	case "audio/ogg":
		return ".ogg"
	case "audio/wav":
		return ".wav"
	case "video/mp4":
		return ".mp4"
	case "video/webm":
		return ".webm"
	case "application/pdf":
		return ".pdf"
	case "application/zip":
		return ".zip"
	case "text/plain":
		return ".txt"
	default:
		return ""
	}
}
