// Package store owns the session and the issue collection. Every mutation
// runs under one lock: mutate, persist both slots as needed, then publish a
// change event.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/frahmantamala/issue-tracker/internal"
	"github.com/frahmantamala/issue-tracker/internal/auth"
	"github.com/frahmantamala/issue-tracker/internal/core/events"
	"github.com/frahmantamala/issue-tracker/internal/issue"
	"github.com/frahmantamala/issue-tracker/internal/storage"
	"github.com/frahmantamala/issue-tracker/internal/user"
)

const (
	AuthSlot   = "sit_auth"
	IssuesSlot = "sit_issues"
)

// Publisher receives a change event after each mutation. It is called with
// the store lock held and must not block or call back into the store.
type Publisher interface {
	PublishSync(ctx context.Context, event events.Event) error
}

type Store struct {
	mu sync.RWMutex

	kv        storage.KV
	identity  auth.IdentityProvider
	tokens    auth.TokenIssuer
	publisher Publisher
	logger    *slog.Logger
	now       func() time.Time
	newID     func() string

	auth   user.AuthState
	issues []issue.Issue
}

type Option func(*Store)

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithIDGenerator(fn func() string) Option {
	return func(s *Store) { s.newID = fn }
}

func WithPublisher(p Publisher) Option {
	return func(s *Store) { s.publisher = p }
}

func WithTokenIssuer(t auth.TokenIssuer) Option {
	return func(s *Store) { s.tokens = t }
}

// New loads both slots from kv. A missing or undecodable slot falls back to
// its default; a read error is returned.
func New(ctx context.Context, kv storage.KV, identity auth.IdentityProvider, logger *slog.Logger, opts ...Option) (*Store, error) {
	s := &Store{
		kv:       kv,
		identity: identity,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}

	rawAuth, found, err := kv.Get(ctx, AuthSlot)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", AuthSlot, err)
	}
	s.auth = user.LoggedOut()
	if found {
		if decoded, err := decodeAuth(rawAuth); err != nil {
			s.logger.Warn("discarding undecodable slot", "slot", AuthSlot, "error", err)
		} else {
			s.auth = decoded
		}
	}

	rawIssues, found, err := kv.Get(ctx, IssuesSlot)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", IssuesSlot, err)
	}
	s.issues = SeedIssues(s.now())
	if found {
		if decoded, err := decodeIssues(rawIssues); err != nil {
			s.logger.Warn("discarding undecodable slot", "slot", IssuesSlot, "error", err)
		} else {
			s.issues = decoded
		}
	}

	s.logger.Info("store loaded",
		"authenticated", s.auth.IsAuthenticated,
		"issues", len(s.issues))
	return s, nil
}

// ----------------- READS -----------------

func (s *Store) Auth() user.AuthState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.auth.Clone()
}

// Issues returns the full collection, most recent first.
func (s *Store) Issues() []issue.Issue {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return issue.CloneAll(s.issues)
}

func (s *Store) Issue(id string) (issue.Issue, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if idx := s.indexOf(id); idx >= 0 {
		return s.issues[idx].Clone(), true
	}
	return issue.Issue{}, false
}

// VisibleIssues applies the visibility filter for the current user.
func (s *Store) VisibleIssues() []issue.Issue {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return issue.Visible(s.issues, s.auth.User)
}

// VisibleIssue reports an issue only when the current user may see it.
func (s *Store) VisibleIssue(id string) (issue.Issue, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx := s.indexOf(id)
	if idx < 0 || !issue.CanView(s.issues[idx], s.auth.User) {
		return issue.Issue{}, false
	}
	return s.issues[idx].Clone(), true
}

// Stats folds over the visible set.
func (s *Store) Stats() issue.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return issue.Summarize(issue.Visible(s.issues, s.auth.User))
}

// Analytics folds over every issue and is reserved for admins.
func (s *Store) Analytics() (issue.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.auth.User == nil {
		return issue.Stats{}, internal.ErrUnauthenticated
	}
	if !s.auth.User.CanViewAnalytics() {
		return issue.Stats{}, internal.ErrAdminOnly
	}
	return issue.Summarize(s.issues), nil
}

// ----------------- AUTH -----------------

// Login resolves email through the identity provider and replaces the
// session. It only fails when the new session could not be persisted.
func (s *Store) Login(ctx context.Context, email string, role user.Role) (user.AuthState, error) {
	return s.signIn(ctx, email, role, "")
}

// Register signs in as USER. name only applies to users outside the registry.
func (s *Store) Register(ctx context.Context, name, email string) (user.AuthState, error) {
	return s.signIn(ctx, email, user.RoleUser, name)
}

func (s *Store) signIn(ctx context.Context, email string, role user.Role, nameHint string) (user.AuthState, error) {
	if !role.Valid() {
		s.logger.Warn("coercing unknown role", "role", role)
		role = user.RoleUser
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.identity.Resolve(email, role, nameHint)
	s.auth = user.SignedIn(u, s.issueToken(u))

	err := s.persist(ctx, AuthSlot, s.auth)
	s.publish(ctx, events.NewAuthChangedEvent(u.ID, true, s.now()))
	s.logger.Info("signed in", "user_id", u.ID, "role", u.Role)
	return s.auth.Clone(), err
}

func (s *Store) issueToken(u user.User) string {
	if s.tokens == nil {
		return auth.RandomToken()
	}
	token, err := s.tokens.Issue(u)
	if err != nil {
		s.logger.Warn("token issuance failed, using opaque token", "user_id", u.ID, "error", err)
		return auth.RandomToken()
	}
	return token
}

// Logout resets the session. Calling it while logged out still rewrites the slot.
func (s *Store) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := ""
	if s.auth.User != nil {
		prev = s.auth.User.ID
	}
	s.auth = user.LoggedOut()

	err := s.persist(ctx, AuthSlot, s.auth)
	s.publish(ctx, events.NewAuthChangedEvent("", false, s.now()))
	s.logger.Info("signed out", "user_id", prev)
	return err
}

// ----------------- ISSUES -----------------

// AddIssue prepends a new OPEN issue submitted by the current user and
// returns its id.
func (s *Store) AddIssue(ctx context.Context, draft issue.Draft) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.auth.User
	if current == nil {
		s.logger.Warn("rejected issue from anonymous session")
		return "", internal.ErrUnauthenticated
	}

	draft = draft.Normalize()
	if err := draft.Validate(); err != nil {
		s.logger.Warn("rejected invalid draft", "user_id", current.ID, "error", err)
		return "", err
	}

	now := s.now()
	id := s.uniqueID(func(candidate string) bool { return s.indexOf(candidate) >= 0 })
	created := issue.Issue{
		ID:              id,
		Title:           draft.Title,
		Description:     draft.Description,
		Status:          issue.StatusOpen,
		Priority:        draft.Priority,
		Department:      draft.Department,
		SubmittedBy:     current.ID,
		SubmittedByName: current.Name,
		AssignedTo:      draft.AssignedTo,
		CreatedAt:       now,
		UpdatedAt:       now,
		AttachmentURL:   draft.AttachmentURL,
		Comments:        []issue.Comment{},
		AIAnalysis:      draft.AIAnalysis,
	}
	s.issues = append([]issue.Issue{created.Clone()}, s.issues...)

	err := s.persist(ctx, IssuesSlot, s.issues)
	s.publish(ctx, events.NewIssueCreatedEvent(id, current.ID, now))
	s.logger.Info("issue created", "issue_id", id, "user_id", current.ID, "priority", created.Priority, "department", created.Department)
	return id, err
}

// requireManager returns the current user when they may manage issues.
func (s *Store) requireManager(op string) (*user.User, error) {
	current := s.auth.User
	if current == nil {
		s.logger.Warn("rejected anonymous mutation", "op", op)
		return nil, internal.ErrUnauthenticated
	}
	if !current.CanManageIssues() {
		s.logger.Warn("rejected mutation for role", "op", op, "user_id", current.ID, "role", current.Role)
		return nil, internal.ErrForbidden
	}
	return current, nil
}

// UpdateIssueStatus sets status and refreshes updatedAt. An unknown id is a
// no-op reported as found == false.
func (s *Store) UpdateIssueStatus(ctx context.Context, id string, status issue.Status) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.requireManager("update_status")
	if err != nil {
		return false, err
	}
	if err := issue.ValidateStatus(status); err != nil {
		return false, err
	}

	idx := s.indexOf(id)
	if idx < 0 {
		s.logger.Info("status update for unknown issue", "issue_id", id)
		return false, nil
	}

	now := s.now()
	updated := s.issues[idx].Clone()
	from := updated.Status
	updated.Status = status
	updated.UpdatedAt = notBefore(now, updated.CreatedAt)
	s.replaceAt(idx, updated)

	err = s.persist(ctx, IssuesSlot, s.issues)
	s.publish(ctx, events.NewIssueStatusChangedEvent(id, string(from), string(status), now))
	s.logger.Info("issue status changed", "issue_id", id, "user_id", current.ID, "from", from, "to", status)
	return true, err
}

// AddComment appends a comment by the current user. updatedAt is left alone.
func (s *Store) AddComment(ctx context.Context, issueID, text string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.auth.User
	if current == nil {
		s.logger.Warn("rejected anonymous comment", "issue_id", issueID)
		return false, internal.ErrUnauthenticated
	}
	if err := issue.ValidateCommentText(text); err != nil {
		return false, err
	}

	idx := s.indexOf(issueID)
	if idx < 0 {
		s.logger.Info("comment for unknown issue", "issue_id", issueID)
		return false, nil
	}

	updated := s.issues[idx].Clone()
	commentID := s.uniqueID(func(candidate string) bool {
		for _, c := range updated.Comments {
			if c.ID == candidate {
				return true
			}
		}
		return false
	})
	now := s.now()
	updated.Comments = append(updated.Comments, issue.Comment{
		ID:        commentID,
		UserID:    current.ID,
		UserName:  current.Name,
		Text:      text,
		CreatedAt: now,
	})
	s.replaceAt(idx, updated)

	err := s.persist(ctx, IssuesSlot, s.issues)
	s.publish(ctx, events.NewIssueCommentAddedEvent(issueID, commentID, current.ID, now))
	s.logger.Info("comment added", "issue_id", issueID, "comment_id", commentID, "user_id", current.ID)
	return true, err
}

// DeleteIssue removes an issue with its comments. An unknown id is a no-op
// reported as found == false.
func (s *Store) DeleteIssue(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.requireManager("delete")
	if err != nil {
		return false, err
	}

	idx := s.indexOf(id)
	if idx < 0 {
		s.logger.Info("delete for unknown issue", "issue_id", id)
		return false, nil
	}

	next := make([]issue.Issue, 0, len(s.issues)-1)
	next = append(next, s.issues[:idx]...)
	next = append(next, s.issues[idx+1:]...)
	s.issues = next

	err = s.persist(ctx, IssuesSlot, s.issues)
	s.publish(ctx, events.NewIssueDeletedEvent(id, s.now()))
	s.logger.Info("issue deleted", "issue_id", id, "user_id", current.ID)
	return true, err
}

// Reseed replaces the collection with the demonstration issues.
func (s *Store) Reseed(ctx context.Context) error {
	return s.ReplaceIssues(ctx, SeedIssues(s.now()))
}

// ReplaceIssues swaps in a validated collection, keeping its order.
func (s *Store) ReplaceIssues(ctx context.Context, issues []issue.Issue) error {
	if err := ValidateFixtures(issues); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.issues = issue.CloneAll(issues)
	err := s.persist(ctx, IssuesSlot, s.issues)
	s.publish(ctx, events.NewIssuesReplacedEvent(len(s.issues), s.now()))
	s.logger.Info("issues replaced", "count", len(s.issues))
	return err
}

// ----------------- HELPERS -----------------

func (s *Store) indexOf(id string) int {
	for i := range s.issues {
		if s.issues[i].ID == id {
			return i
		}
	}
	return -1
}

// replaceAt swaps in a fresh slice so earlier snapshots never observe the change.
func (s *Store) replaceAt(idx int, updated issue.Issue) {
	next := make([]issue.Issue, len(s.issues))
	copy(next, s.issues)
	next[idx] = updated
	s.issues = next
}

const maxIDAttempts = 8

func (s *Store) uniqueID(taken func(string) bool) string {
	for i := 0; i < maxIDAttempts; i++ {
		id := strings.TrimSpace(s.newID())
		if id != "" && !taken(id) {
			return id
		}
	}
	id := uuid.NewString()
	for taken(id) {
		id = uuid.NewString()
	}
	return id
}

func notBefore(t, floor time.Time) time.Time {
	if t.Before(floor) {
		return floor
	}
	return t
}

// persist writes the slot even when the caller's context is already done;
// the in-memory change has been applied by then.
func (s *Store) persist(ctx context.Context, slot string, v interface{}) error {
	payload, err := encode(v)
	if err == nil {
		writeCtx, cancel := internal.Detached(ctx, internal.SlotWriteTimeout)
		err = s.kv.Set(writeCtx, slot, payload)
		cancel()
	}
	if err != nil {
		s.logger.Warn("failed to persist slot, keeping in-memory state", "slot", slot, "error", err)
		return fmt.Errorf("%w: slot %s: %w", internal.ErrPersistenceFailed, slot, err)
	}
	return nil
}

func (s *Store) publish(ctx context.Context, event events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishSync(ctx, event); err != nil {
		s.logger.Warn("change event not delivered", "event_type", event.EventType(), "error", err)
	}
}
