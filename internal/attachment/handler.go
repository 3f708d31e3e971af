package attachment

import (
	"errors"
	"net/http"

	"github.com/frahmantamala/issue-tracker/internal"
	"github.com/frahmantamala/issue-tracker/internal/transport"
)

// multipartOverhead covers boundaries and part headers on top of the file.
const multipartOverhead = 1 << 20

type UploadResponse struct {
	AttachmentURL string `json:"attachmentUrl"`
	Name          string `json:"name"`
	Size          int64  `json:"size"`
	ContentType   string `json:"contentType"`
}

type Handler struct {
	*transport.BaseHandler
	Uploader Uploader
	MaxBytes int64
}

// NewHandler accepts a nil uploader; uploads then answer ATTACHMENTS_DISABLED.
func NewHandler(baseHandler *transport.BaseHandler, uploader Uploader, maxBytes int64) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Uploader:    uploader,
		MaxBytes:    maxBytes,
	}
}

func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	if h.Uploader == nil {
		h.HandleServiceError(w, r, internal.ErrAttachmentsDisabled)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.MaxBytes+multipartOverhead)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.HandleServiceError(w, r, internal.ErrAttachmentTooLarge)
			return
		}
		h.HandleServiceError(w, r, internal.NewValidationError("expected a multipart form", internal.ErrCodeValidationFailed))
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		h.HandleServiceError(w, r, internal.NewValidationFieldError("file", "file is required", internal.ErrCodeValidationFailed))
		return
	}
	defer file.Close()

	if header.Size > h.MaxBytes {
		h.HandleServiceError(w, r, internal.ErrAttachmentTooLarge)
		return
	}

	contentType := header.Header.Get("Content-Type")
	url, err := h.Uploader.Upload(r.Context(), header.Filename, contentType, file, header.Size)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, UploadResponse{
		AttachmentURL: url,
		Name:          header.Filename,
		Size:          header.Size,
		ContentType:   contentType,
	})
}
