package issue

import (
	"context"
	"net/http"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/issue-tracker/internal"
	"github.com/frahmantamala/issue-tracker/internal/transport"
)

type ServiceAPI interface {
	VisibleIssues() []Issue
	VisibleIssue(id string) (Issue, bool)
	Stats() Stats
	Analytics() (Stats, error)
	AddIssue(ctx context.Context, draft Draft) (string, error)
	UpdateIssueStatus(ctx context.Context, id string, status Status) (bool, error)
	AddComment(ctx context.Context, issueID, text string) (bool, error)
	DeleteIssue(ctx context.Context, id string) (bool, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
	}
}

func (h *Handler) ListIssues(w http.ResponseWriter, r *http.Request) {
	h.WriteJSON(w, http.StatusOK, IssuesResponse{Issues: h.Service.VisibleIssues()})
}

func (h *Handler) CreateIssue(w http.ResponseWriter, r *http.Request) {
	var draft Draft
	if err := h.DecodeJSON(w, r, &draft); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	id, err := h.Service.AddIssue(r.Context(), draft)
	if err = h.TolerateUnpersisted(w, r, err); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	created, _ := h.Service.VisibleIssue(id)
	h.WriteJSON(w, http.StatusCreated, CreateIssueResponse{ID: id, Issue: created})
}

func (h *Handler) GetIssue(w http.ResponseWriter, r *http.Request) {
	found, ok := h.Service.VisibleIssue(chi.URLParam(r, "id"))
	if !ok {
		h.HandleServiceError(w, r, internal.ErrIssueNotFound)
		return
	}
	h.WriteJSON(w, http.StatusOK, found)
}

func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	h.WriteJSON(w, http.StatusOK, h.Service.Stats())
}

func (h *Handler) GetAnalytics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Service.Analytics()
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, stats)
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req UpdateStatusRequest
	if err := h.DecodeJSON(w, r, &req); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	found, err := h.Service.UpdateIssueStatus(r.Context(), id, req.Status)
	if err = h.TolerateUnpersisted(w, r, err); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	if !found {
		h.HandleServiceError(w, r, internal.ErrIssueNotFound)
		return
	}

	updated, _ := h.Service.VisibleIssue(id)
	h.WriteJSON(w, http.StatusOK, updated)
}

// AddComment only accepts comments on issues the caller can see.
func (h *Handler) AddComment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := h.Service.VisibleIssue(id); !ok {
		h.HandleServiceError(w, r, internal.ErrIssueNotFound)
		return
	}

	var req AddCommentRequest
	if err := h.DecodeJSON(w, r, &req); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	found, err := h.Service.AddComment(r.Context(), id, req.Text)
	if err = h.TolerateUnpersisted(w, r, err); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	if !found {
		h.HandleServiceError(w, r, internal.ErrIssueNotFound)
		return
	}

	updated, _ := h.Service.VisibleIssue(id)
	h.WriteJSON(w, http.StatusCreated, updated)
}

func (h *Handler) DeleteIssue(w http.ResponseWriter, r *http.Request) {
	found, err := h.Service.DeleteIssue(r.Context(), chi.URLParam(r, "id"))
	if err = h.TolerateUnpersisted(w, r, err); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	if !found {
		h.HandleServiceError(w, r, internal.ErrIssueNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
