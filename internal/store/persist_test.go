package store_test

import (
	"context"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/issue-tracker/internal/auth"
	"github.com/frahmantamala/issue-tracker/internal/issue"
	"github.com/frahmantamala/issue-tracker/internal/storage"
	"github.com/frahmantamala/issue-tracker/internal/storage/postgres"
	"github.com/frahmantamala/issue-tracker/internal/store"
	"github.com/frahmantamala/issue-tracker/internal/user"
)

// ctxCheckingKV fails writes whose context is already done, the way the
// SQL and redis drivers do.
type ctxCheckingKV struct {
	*storage.Memory
	mu      sync.Mutex
	writeOK []bool
}

func (k *ctxCheckingKV) Set(ctx context.Context, key, value string) error {
	err := ctx.Err()
	k.mu.Lock()
	k.writeOK = append(k.writeOK, err == nil)
	k.mu.Unlock()
	if err != nil {
		return err
	}
	return k.Memory.Set(ctx, key, value)
}

var _ = Describe("Store persistence under a finished request", func() {
	var cancelled context.Context

	BeforeEach(func() {
		var cancel context.CancelFunc
		cancelled, cancel = context.WithCancel(context.Background())
		cancel()
	})

	It("writes every slot even when the caller's context is cancelled", func() {
		// Given
		kv := &ctxCheckingKV{Memory: storage.NewMemory()}
		s, err := store.New(context.Background(), kv, auth.NewRegistryProvider(auth.KnownUsers()), testLogger())
		Expect(err).NotTo(HaveOccurred())

		// When
		_, err = s.Login(cancelled, "admin@example.com", user.RoleAdmin)
		Expect(err).NotTo(HaveOccurred())
		id, err := s.AddIssue(cancelled, printerJam())
		Expect(err).NotTo(HaveOccurred())
		_, err = s.UpdateIssueStatus(cancelled, id, issue.StatusResolved)
		Expect(err).NotTo(HaveOccurred())

		// Then
		Expect(kv.writeOK).To(HaveLen(3))
		Expect(kv.writeOK).NotTo(ContainElement(false))
	})

	It("survives a restart on the sqlite slot repository", func() {
		// Given
		db, err := postgres.Open(postgres.Options{Driver: "sqlite", DSN: ":memory:", Silent: true})
		Expect(err).NotTo(HaveOccurred())
		Expect(postgres.EnsureSchema(db)).To(Succeed())
		repo := postgres.NewSlotRepository(db)
		DeferCleanup(repo.Close)

		identity := auth.NewRegistryProvider(auth.KnownUsers())
		s, err := store.New(context.Background(), repo, identity, testLogger())
		Expect(err).NotTo(HaveOccurred())
		_, err = s.Login(context.Background(), "user@example.com", user.RoleUser)
		Expect(err).NotTo(HaveOccurred())

		// When the request is gone before the issue is added
		id, err := s.AddIssue(cancelled, printerJam())
		Expect(err).NotTo(HaveOccurred())
		Expect(s.Issues()).To(HaveLen(3))

		// Then a fresh store over the same table sees it
		reopened, err := store.New(context.Background(), repo, identity, testLogger())
		Expect(err).NotTo(HaveOccurred())
		Expect(reopened.Issues()).To(HaveLen(3))
		persisted, found := reopened.Issue(id)
		Expect(found).To(BeTrue())
		Expect(persisted.SubmittedByName).To(Equal("John Doe"))
	})
})
