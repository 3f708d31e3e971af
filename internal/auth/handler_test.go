package auth_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/issue-tracker/internal/auth"
	"github.com/frahmantamala/issue-tracker/internal/storage"
	"github.com/frahmantamala/issue-tracker/internal/store"
	"github.com/frahmantamala/issue-tracker/internal/transport"
	"github.com/frahmantamala/issue-tracker/internal/user"
)

var _ = Describe("Auth Handler Integration", func() {
	var (
		s      *store.Store
		router chi.Router
	)

	BeforeEach(func() {
		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		var err error
		s, err = store.New(context.Background(), storage.NewMemory(), auth.NewRegistryProvider(auth.KnownUsers()), slogger)
		Expect(err).NotTo(HaveOccurred())

		handler := auth.NewHandler(&transport.BaseHandler{Logger: slogger}, s)
		router = chi.NewRouter()
		router.Get("/auth", handler.GetAuth)
		router.Post("/auth/login", handler.Login)
		router.Post("/auth/register", handler.Register)
		router.Post("/auth/logout", handler.Logout)
		router.With(handler.RequireSession).Get("/private", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		})
	})

	do := func(method, path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	decodeState := func(w *httptest.ResponseRecorder) user.AuthState {
		var state user.AuthState
		Expect(json.NewDecoder(w.Body).Decode(&state)).To(Succeed())
		return state
	}

	It("reports a logged-out session with null fields", func() {
		w := do(http.MethodGet, "/auth", "")

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(MatchJSON(`{"user":null,"isAuthenticated":false,"token":null}`))
	})

	It("logs in a known user", func() {
		// When
		w := do(http.MethodPost, "/auth/login", `{"email":"user@example.com","role":"USER"}`)

		// Then
		Expect(w.Code).To(Equal(http.StatusOK))
		state := decodeState(w)
		Expect(state.IsAuthenticated).To(BeTrue())
		Expect(state.User.Name).To(Equal("John Doe"))
		Expect(state.Token).NotTo(BeNil())
		Expect(s.Auth().User.ID).To(Equal("2"))
	})

	It("coerces an unknown role to USER", func() {
		w := do(http.MethodPost, "/auth/login", `{"email":"temp@corp.io","role":"SUPERUSER"}`)

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(decodeState(w).User.Role).To(Equal(user.RoleUser))
	})

	DescribeTable("rejects a bad email",
		func(body string) {
			w := do(http.MethodPost, "/auth/login", body)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
			Expect(s.Auth().IsAuthenticated).To(BeFalse())
		},
		Entry("missing", `{"role":"USER"}`),
		Entry("malformed", `{"email":"not-an-email"}`),
		Entry("no body", ``),
	)

	It("registers with a display name", func() {
		w := do(http.MethodPost, "/auth/register", `{"name":"Casey","email":"casey@corp.io"}`)

		Expect(w.Code).To(Equal(http.StatusCreated))
		state := decodeState(w)
		Expect(state.User.Name).To(Equal("Casey"))
		Expect(state.User.Role).To(Equal(user.RoleUser))
	})

	It("logs out idempotently", func() {
		Expect(do(http.MethodPost, "/auth/login", `{"email":"admin@example.com"}`).Code).To(Equal(http.StatusOK))

		Expect(do(http.MethodPost, "/auth/logout", "").Code).To(Equal(http.StatusNoContent))
		Expect(do(http.MethodPost, "/auth/logout", "").Code).To(Equal(http.StatusNoContent))
		Expect(s.Auth()).To(Equal(user.LoggedOut()))
	})

	It("guards routes behind a session", func() {
		Expect(do(http.MethodGet, "/private", "").Code).To(Equal(http.StatusUnauthorized))

		_, err := s.Login(context.Background(), "user@example.com", user.RoleUser)
		Expect(err).NotTo(HaveOccurred())

		Expect(do(http.MethodGet, "/private", "").Code).To(Equal(http.StatusTeapot))
	})
})
