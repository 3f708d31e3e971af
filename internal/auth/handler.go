package auth

import (
	"context"
	"net/http"

	"github.com/frahmantamala/issue-tracker/internal"
	"github.com/frahmantamala/issue-tracker/internal/transport"
	"github.com/frahmantamala/issue-tracker/internal/user"
	"github.com/frahmantamala/issue-tracker/pkg/logger"
)

type ServiceAPI interface {
	Auth() user.AuthState
	Login(ctx context.Context, email string, role user.Role) (user.AuthState, error)
	Register(ctx context.Context, name, email string) (user.AuthState, error)
	Logout(ctx context.Context) error
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, svc ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     svc,
	}
}

func (h *Handler) GetAuth(w http.ResponseWriter, r *http.Request) {
	h.WriteJSON(w, http.StatusOK, h.Service.Auth())
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var dto LoginDTO
	if err := h.DecodeJSON(w, r, &dto); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	if err := dto.Validate(); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	state, err := h.Service.Login(r.Context(), dto.Email, dto.ParsedRole())
	if err = h.TolerateUnpersisted(w, r, err); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, state)
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var dto RegisterDTO
	if err := h.DecodeJSON(w, r, &dto); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	if err := dto.Validate(); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	state, err := h.Service.Register(r.Context(), dto.Name, dto.Email)
	if err = h.TolerateUnpersisted(w, r, err); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, state)
}

// Logout always succeeds, also when nobody is signed in.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	err := h.Service.Logout(r.Context())
	if err = h.TolerateUnpersisted(w, r, err); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RequireSession rejects requests while the store holds no session. The
// bearer token is not inspected.
func (h *Handler) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		state := h.Service.Auth()
		if !state.IsAuthenticated || state.User == nil {
			h.HandleServiceError(w, r, internal.ErrUnauthenticated)
			return
		}

		ctx := logger.With(r.Context(), "user_id", state.User.ID, "role", state.User.Role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
