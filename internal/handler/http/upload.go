package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/ReviewsGo/internal/domain"
	"github.com/utafrali/ReviewsGo/internal/service"
	"github.com/utafrali/ReviewsGo/pkg/httputil"
)

// UploadHandler handles multipart image attachment for reviews.
type UploadHandler struct {
	service *service.UploadService
	logger  *slog.Logger
}

// NewUploadHandler creates a new upload HTTP handler.
func NewUploadHandler(svc *service.UploadService, logger *slog.Logger) *UploadHandler {
	return &UploadHandler{
		service: svc,
		logger:  logger,
	}
}

// AttachImages handles POST /api/v1/store/reviews/{id}/images
// (multipart/form-data, field name "images"). Files that fail validation are
// reported as warnings; the accepted ones are attached atomically.
func (h *UploadHandler) AttachImages(w http.ResponseWriter, r *http.Request) {
	reviewID := chi.URLParam(r, "id")
	if reviewID == "" {
		httputil.WriteErrorMessage(w, http.StatusBadRequest, "INVALID_INPUT", "review id is required")
		return
	}

	// Per-file size is enforced downstream; the body cap covers the whole
	// form plus 1MB of field overhead.
	maxSize := int64(domain.MaxUploadFiles)*domain.MaxFileSize + (1 << 20)
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	if err := r.ParseMultipartForm(domain.MaxFileSize); err != nil {
		httputil.WriteErrorMessage(w, http.StatusBadRequest, "INVALID_INPUT", "failed to parse multipart form: "+err.Error())
		return
	}

	if r.MultipartForm == nil || len(r.MultipartForm.File["images"]) == 0 {
		httputil.WriteErrorMessage(w, http.StatusBadRequest, "INVALID_INPUT", "at least one file is required in the images field")
		return
	}

	headers := r.MultipartForm.File["images"]
	files := make([]service.UploadFile, 0, len(headers))
	opened := make([]interface{ Close() error }, 0, len(headers))
	defer func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}()

	// Optional alt texts pair with files by position.
	altTexts := r.MultipartForm.Value["alt_texts"]

	for i, header := range headers {
		file, err := header.Open()
		if err != nil {
			httputil.WriteErrorMessage(w, http.StatusBadRequest, "INVALID_INPUT", "failed to read uploaded file: "+err.Error())
			return
		}
		opened = append(opened, file)

		contentType := header.Header.Get("Content-Type")
		if contentType == "" {
			contentType = "application/octet-stream"
		}

		var altText string
		if i < len(altTexts) {
			altText = altTexts[i]
		}

		files = append(files, service.UploadFile{
			Filename:    header.Filename,
			ContentType: contentType,
			Size:        header.Size,
			AltText:     altText,
			Data:        file,
		})
	}

	result, err := h.service.AttachImages(r.Context(), reviewID, files)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	response := map[string]any{"uploads": result.Uploads}
	if len(result.InvalidFiles) > 0 {
		response["warnings"] = map[string]any{"invalidFiles": result.InvalidFiles}
	}

	httputil.WriteJSON(w, http.StatusOK, response)
}
