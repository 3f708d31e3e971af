package issue_test

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
	"github.com/frahmantamala/issue-tracker/internal/issue"
	"github.com/frahmantamala/issue-tracker/internal/storage"
	"github.com/frahmantamala/issue-tracker/internal/store"
	"github.com/frahmantamala/issue-tracker/internal/transport"
	"github.com/frahmantamala/issue-tracker/internal/user"
)

// failingKV accepts reads and rejects every write.
type failingKV struct{ *storage.Memory }

func (failingKV) Set(context.Context, string, string) error { return os.ErrPermission }

var _ = Describe("Issue Handler Integration", func() {
	var (
		s      *store.Store
		router chi.Router
		ctx    context.Context
	)

	newRouter := func(kv storage.KV) {
		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		var err error
		s, err = store.New(ctx, kv, auth.NewRegistryProvider(auth.KnownUsers()), slogger)
		Expect(err).NotTo(HaveOccurred())

		handler := issue.NewHandler(&transport.BaseHandler{Logger: slogger}, s)
		router = chi.NewRouter()
		router.Get("/issues", handler.ListIssues)
		router.Post("/issues", handler.CreateIssue)
		router.Get("/issues/stats", handler.GetStats)
		router.Get("/issues/{id}", handler.GetIssue)
		router.Patch("/issues/{id}/status", handler.UpdateStatus)
		router.Post("/issues/{id}/comments", handler.AddComment)
		router.Delete("/issues/{id}", handler.DeleteIssue)
		router.Get("/admin/analytics", handler.GetAnalytics)
	}

	do := func(method, path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	login := func(email string, role user.Role) {
		_, err := s.Login(ctx, email, role)
		Expect(err).NotTo(HaveOccurred())
	}

	BeforeEach(func() {
		ctx = context.Background()
		newRouter(storage.NewMemory())
	})

	It("creates an issue and returns it with its id", func() {
		// Given
		login("user@example.com", user.RoleUser)

		// When
		w := do(http.MethodPost, "/issues", `{"title":"Printer jam","description":"Tray 2 is stuck","priority":"HIGH","department":"IT"}`)

		// Then
		Expect(w.Code).To(Equal(http.StatusCreated))
		var resp issue.CreateIssueResponse
		Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
		Expect(resp.ID).NotTo(BeEmpty())
		Expect(resp.Issue.ID).To(Equal(resp.ID))
		Expect(resp.Issue.Status).To(Equal(issue.StatusOpen))
		Expect(resp.Issue.SubmittedByName).To(Equal("John Doe"))
		Expect(s.Issues()[0].ID).To(Equal(resp.ID))
	})

	It("rejects an invalid draft with field details", func() {
		login("user@example.com", user.RoleUser)

		w := do(http.MethodPost, "/issues", `{"title":"","description":"d","priority":"URGENT"}`)

		Expect(w.Code).To(Equal(http.StatusBadRequest))
		var resp transport.ErrorResponse
		Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
		Expect(resp.Code).To(Equal("INVALID_DRAFT"))
		Expect(resp.Details).NotTo(BeNil())
		Expect(s.Issues()).To(HaveLen(2))
	})

	It("rejects malformed JSON", func() {
		login("user@example.com", user.RoleUser)

		w := do(http.MethodPost, "/issues", `{"title":`)

		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("rejects anonymous submissions", func() {
		w := do(http.MethodPost, "/issues", `{"title":"t","description":"d"}`)

		Expect(w.Code).To(Equal(http.StatusUnauthorized))
	})

	It("lists only the caller's issues for a USER", func() {
		login("someone@example.com", user.RoleUser)

		w := do(http.MethodGet, "/issues", "")

		Expect(w.Code).To(Equal(http.StatusOK))
		var resp issue.IssuesResponse
		Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
		Expect(resp.Issues).To(BeEmpty())
	})

	It("hides an issue the caller cannot see", func() {
		login("someone@example.com", user.RoleUser)

		Expect(do(http.MethodGet, "/issues/101", "").Code).To(Equal(http.StatusNotFound))
		Expect(do(http.MethodPost, "/issues/101/comments", `{"text":"me too"}`).Code).To(Equal(http.StatusNotFound))

		seed, _ := s.Issue("101")
		Expect(seed.Comments).To(BeEmpty())
	})

	It("returns a visible issue", func() {
		login("user@example.com", user.RoleUser)

		w := do(http.MethodGet, "/issues/101", "")

		Expect(w.Code).To(Equal(http.StatusOK))
		var got issue.Issue
		Expect(json.NewDecoder(w.Body).Decode(&got)).To(Succeed())
		Expect(got.Title).To(Equal("Wi-Fi Connection Dropping"))
	})

	Describe("status updates", func() {
		It("lets a department head resolve an issue", func() {
			login("jane@example.com", user.RoleDepartmentHead)

			w := do(http.MethodPatch, "/issues/101/status", `{"status":"RESOLVED"}`)

			Expect(w.Code).To(Equal(http.StatusOK))
			var got issue.Issue
			Expect(json.NewDecoder(w.Body).Decode(&got)).To(Succeed())
			Expect(got.Status).To(Equal(issue.StatusResolved))
		})

		It("forbids a USER", func() {
			login("user@example.com", user.RoleUser)

			w := do(http.MethodPatch, "/issues/101/status", `{"status":"CLOSED"}`)

			Expect(w.Code).To(Equal(http.StatusForbidden))
			seed, _ := s.Issue("101")
			Expect(seed.Status).To(Equal(issue.StatusOpen))
		})

		It("rejects an unknown status", func() {
			login("admin@example.com", user.RoleAdmin)

			Expect(do(http.MethodPatch, "/issues/101/status", `{"status":"DONE"}`).Code).To(Equal(http.StatusBadRequest))
		})

		It("maps a missing issue to 404", func() {
			login("admin@example.com", user.RoleAdmin)

			Expect(do(http.MethodPatch, "/issues/nope/status", `{"status":"CLOSED"}`).Code).To(Equal(http.StatusNotFound))
		})
	})

	It("appends a comment without touching updatedAt", func() {
		// Given
		login("user@example.com", user.RoleUser)
		before, _ := s.Issue("101")

		// When
		w := do(http.MethodPost, "/issues/101/comments", `{"text":"still happening"}`)

		// Then
		Expect(w.Code).To(Equal(http.StatusCreated))
		var got issue.Issue
		Expect(json.NewDecoder(w.Body).Decode(&got)).To(Succeed())
		Expect(got.Comments).To(HaveLen(1))
		Expect(got.Comments[0].Text).To(Equal("still happening"))
		Expect(got.UpdatedAt).To(BeTemporally("==", before.UpdatedAt))
	})

	It("rejects a blank comment", func() {
		login("user@example.com", user.RoleUser)

		Expect(do(http.MethodPost, "/issues/101/comments", `{"text":"   "}`).Code).To(Equal(http.StatusBadRequest))
	})

	Describe("delete", func() {
		It("removes an issue for an admin", func() {
			login("admin@example.com", user.RoleAdmin)

			Expect(do(http.MethodDelete, "/issues/102", "").Code).To(Equal(http.StatusNoContent))
			_, found := s.Issue("102")
			Expect(found).To(BeFalse())
		})

		It("maps a missing issue to 404 and keeps the collection", func() {
			login("admin@example.com", user.RoleAdmin)

			Expect(do(http.MethodDelete, "/issues/nope", "").Code).To(Equal(http.StatusNotFound))
			Expect(s.Issues()).To(HaveLen(2))
		})
	})

	It("serves stats over the visible set and analytics to admins only", func() {
		login("user@example.com", user.RoleUser)

		w := do(http.MethodGet, "/issues/stats", "")
		Expect(w.Code).To(Equal(http.StatusOK))
		var st issue.Stats
		Expect(json.NewDecoder(w.Body).Decode(&st)).To(Succeed())
		Expect(st.Total).To(Equal(2))
		Expect(st.Open).To(Equal(1))
		Expect(st.InProgress).To(Equal(1))

		Expect(do(http.MethodGet, "/admin/analytics", "").Code).To(Equal(http.StatusForbidden))

		login("admin@example.com", user.RoleAdmin)
		Expect(do(http.MethodGet, "/admin/analytics", "").Code).To(Equal(http.StatusOK))
	})

	It("keeps a change that could not be persisted and flags the response", func() {
		// Given storage that rejects writes
		newRouter(failingKV{storage.NewMemory()})
		_, _ = s.Login(ctx, "admin@example.com", user.RoleAdmin)

		// When
		w := do(http.MethodDelete, "/issues/101", "")

		// Then
		Expect(w.Code).To(Equal(http.StatusNoContent))
		Expect(w.Header().Get(transport.PersistenceWarningHeader)).NotTo(BeEmpty())
		Expect(s.Issues()).To(HaveLen(1))
	})
})
