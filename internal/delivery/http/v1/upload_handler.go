package v1

import (
	"fmt"
	"glowmart-backend/pkg/logger"
	"glowmart-backend/pkg/storage"
	"glowmart-backend/pkg/utils"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var (
	allowedMimeTypes = map[string]bool{
		"image/jpeg": true,
		"image/jpg":  true,
		"image/png":  true,
		"image/webp": true,
		"image/gif":  true,
	}
	allowedExtensions = map[string]bool{
		".jpg":  true,
		".jpeg": true,
		".png":  true,
		".webp": true,
		".gif":  true,
	}
)

// UploadHandler stores bank transfer receipts. The returned URL goes into
// paymentDetails.paymentProofRef at checkout.
type UploadHandler struct {
	storage       storage.ObjectStore
	maxUploadSize int64
}

// NewUploadHandler accepts a nil store; uploads then answer 503.
func NewUploadHandler(s storage.ObjectStore, maxUploadSizeMB int64) *UploadHandler {
	return &UploadHandler{
		storage:       s,
		maxUploadSize: maxUploadSizeMB << 20,
	}
}

// POST /api/v1/upload/payment-proof
func (h *UploadHandler) UploadPaymentProof(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	if h.storage == nil {
		utils.WriteError(w, http.StatusServiceUnavailable, "File uploads are not configured")
		return
	}
	log := logger.WithContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		log.Warn().Err(err).Msg("Upload: ParseMultipartForm failed")
		utils.WriteError(w, http.StatusBadRequest, "File too large or invalid format")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid file")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !allowedMimeTypes[contentType] {
		utils.WriteError(w, http.StatusBadRequest, "Invalid file type. Allowed: JPEG, PNG, WebP, GIF")
		return
	}
	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedExtensions[ext] {
		utils.WriteError(w, http.StatusBadRequest, "Invalid file extension")
		return
	}

	data, newContentType, err := utils.ProcessImage(file, header.Filename, utils.MaxProofWidth)
	if err != nil {
		log.Warn().Err(err).Str("file", header.Filename).Msg("Upload: image processing failed")
		utils.WriteError(w, http.StatusBadRequest, "Could not read image")
		return
	}

	key := fmt.Sprintf("payment-proofs/%s/%s%s", actor.ID, uuid.NewString(), storage.ExtensionFor(newContentType))
	url, err := h.storage.Put(r.Context(), key, data, newContentType)
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("Upload: store failed")
		utils.WriteError(w, http.StatusInternalServerError, "Failed to upload file")
		return
	}

	log.Info().Str("key", key).Int("bytes", len(data)).Msg("Payment proof uploaded")
	utils.WriteJSON(w, http.StatusCreated, map[string]string{"url": url})
}
