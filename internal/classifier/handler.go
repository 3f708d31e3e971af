package classifier

import (
	"net/http"
	"time"

	"github.com/frahmantamala/issue-tracker/internal"
	"github.com/frahmantamala/issue-tracker/internal/core/common/validation"
	"github.com/frahmantamala/issue-tracker/internal/transport"
)

type ClassifyRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Validate requires both fields, as the submit form does before analysis.
func (r ClassifyRequest) Validate() error {
	v := validation.NewValidator()
	v.Field("title", r.Title).Required(internal.ErrCodeValidationFailed).MaxLength(200, internal.ErrCodeValidationFailed)
	v.Field("description", r.Description).Required(internal.ErrCodeValidationFailed).MaxLength(5000, internal.ErrCodeValidationFailed)
	if appErr := v.Validate(internal.NewValidationError("title and description are required", internal.ErrCodeValidationFailed)); appErr != nil {
		return appErr
	}
	return nil
}

type ClassifyResponse struct {
	Result
	AIAnalysis string `json:"aiAnalysis"`
}

type Handler struct {
	*transport.BaseHandler
	Classifier Classifier
	Timeout    time.Duration
}

func NewHandler(baseHandler *transport.BaseHandler, c Classifier, timeout time.Duration) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Classifier:  c,
		Timeout:     timeout,
	}
}

// Classify never fails once the request is valid; provider problems come
// back as the fallback result.
func (h *Handler) Classify(w http.ResponseWriter, r *http.Request) {
	var req ClassifyRequest
	if err := h.DecodeJSON(w, r, &req); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	ctx, cancel := internal.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	result := h.Classifier.Classify(ctx, req.Title, req.Description)
	h.WriteJSON(w, http.StatusOK, ClassifyResponse{Result: result, AIAnalysis: FormatAnalysis(result)})
}
