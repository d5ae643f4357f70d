package api

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"portfolio-live/internal/models"
	"portfolio-live/internal/storage"
)

// uploadFormMemory bounds how much of a multipart body is buffered in memory
// before spilling to temp files.
const uploadFormMemory = 4 << 20

var imageExtensions = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
	".svg":  "image/svg+xml",
}

var audioExtensions = map[string]string{
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".ogg":  "audio/ogg",
	".m4a":  "audio/mp4",
	".flac": "audio/flac",
}

// MediaIndex serves GET (listing) and POST (upload) on /api/media.
func (h *Handler) MediaIndex(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, h.Store.ListMediaAssets(models.MediaKindImage))
	case http.MethodPost:
		h.handleUpload(w, r, models.MediaKindImage, imageExtensions)
	default:
		writeError(w, http.StatusMethodNotAllowed, CodeMethodNotAllowed, "method not allowed")
	}
}

// MediaByID serves GET/DELETE /api/media/{id}.
func (h *Handler) MediaByID(w http.ResponseWriter, r *http.Request) {
	h.handleAssetByID(w, r, "/api/media/", models.MediaKindImage)
}

// AudioIndex serves GET (listing) and POST (upload) on /api/audio.
func (h *Handler) AudioIndex(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, h.Store.ListMediaAssets(models.MediaKindAudio))
	case http.MethodPost:
		h.handleUpload(w, r, models.MediaKindAudio, audioExtensions)
	default:
		writeError(w, http.StatusMethodNotAllowed, CodeMethodNotAllowed, "method not allowed")
	}
}

// AudioByID serves GET/DELETE /api/audio/{id}.
func (h *Handler) AudioByID(w http.ResponseWriter, r *http.Request) {
	h.handleAssetByID(w, r, "/api/audio/", models.MediaKindAudio)
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request, kind models.MediaKind, allowed map[string]string) {
	if _, ok := h.requireAdmin(w, r); !ok {
		return
	}
	if err := r.ParseMultipartForm(uploadFormMemory); err != nil {
		if isMaxBytesError(err) {
			writeError(w, http.StatusRequestEntityTooLarge, CodePayloadTooLarge, "upload exceeds the allowed size")
			return
		}
		writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid multipart body")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "file field is required")
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	contentType, ok := allowed[ext]
	if !ok {
		writeError(w, http.StatusBadRequest, CodeBadRequest, fmt.Sprintf("file type %q is not allowed", ext))
		return
	}

	fileName := uuid.NewString() + ext
	size, err := h.saveUpload(file, fileName)
	if err != nil {
		writeError(w, http.StatusInternalServerError, CodeInternalError, "failed to store upload")
		return
	}

	asset, err := h.Store.CreateMediaAsset(storage.CreateMediaAssetParams{
		Kind:         kind,
		FileName:     fileName,
		OriginalName: filepath.Base(header.Filename),
		ContentType:  contentType,
		SizeBytes:    size,
		Alt:          r.FormValue("alt"),
	})
	if err != nil {
		_ = os.Remove(filepath.Join(h.UploadsDir, fileName))
		writeError(w, http.StatusInternalServerError, CodeInternalError, "failed to record upload")
		return
	}

	if h.Processor != nil {
		h.Processor.Enqueue(asset.ID)
	}
	h.publishUpdate(string(kind), map[string]interface{}{"id": asset.ID})
	writeJSON(w, http.StatusCreated, asset)
}

func (h *Handler) saveUpload(file multipart.File, fileName string) (int64, error) {
	if err := os.MkdirAll(h.UploadsDir, 0o755); err != nil {
		return 0, err
	}
	dest, err := os.Create(filepath.Join(h.UploadsDir, fileName))
	if err != nil {
		return 0, err
	}
	defer dest.Close()
	size, err := io.Copy(dest, file)
	if err != nil {
		return 0, err
	}
	return size, dest.Sync()
}

func (h *Handler) handleAssetByID(w http.ResponseWriter, r *http.Request, prefix string, kind models.MediaKind) {
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, prefix), "/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusNotFound, CodeNotFound, "asset not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		asset, ok := h.Store.GetMediaAsset(id)
		if !ok || asset.Kind != kind {
			writeError(w, http.StatusNotFound, CodeNotFound, "asset not found")
			return
		}
		writeJSON(w, http.StatusOK, asset)
	case http.MethodDelete:
		if _, ok := h.requireAdmin(w, r); !ok {
			return
		}
		existing, ok := h.Store.GetMediaAsset(id)
		if !ok || existing.Kind != kind {
			writeError(w, http.StatusNotFound, CodeNotFound, "asset not found")
			return
		}
		asset, err := h.Store.DeleteMediaAsset(id)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				writeError(w, http.StatusNotFound, CodeNotFound, "asset not found")
				return
			}
			writeError(w, http.StatusInternalServerError, CodeInternalError, "failed to delete asset")
			return
		}
		// The record is authoritative; a leftover file on disk is harmless.
		_ = os.Remove(filepath.Join(h.UploadsDir, asset.FileName))
		h.publishUpdate(string(kind), map[string]interface{}{"id": id, "deleted": true})
		writeJSON(w, http.StatusNoContent, nil)
	default:
		writeError(w, http.StatusMethodNotAllowed, CodeMethodNotAllowed, "method not allowed")
	}
}
