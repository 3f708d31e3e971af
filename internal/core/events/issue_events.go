package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeAuthChanged        = "auth.changed"
	EventTypeIssueCreated       = "issue.created"
	EventTypeIssueStatusChanged = "issue.status_changed"
	EventTypeIssueCommentAdded  = "issue.comment_added"
	EventTypeIssueDeleted       = "issue.deleted"
	EventTypeIssuesReplaced     = "issues.replaced"
)

func newEvent(eventType string, at time.Time, data map[string]interface{}) *BaseEvent {
	return &BaseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: at,
		Data:      data,
	}
}

// NewAuthChangedEvent carries the user id after the change, empty on logout.
func NewAuthChangedEvent(userID string, authenticated bool, at time.Time) *BaseEvent {
	return newEvent(EventTypeAuthChanged, at, map[string]interface{}{
		"user_id":          userID,
		"is_authenticated": authenticated,
	})
}

func NewIssueCreatedEvent(issueID, submittedBy string, at time.Time) *BaseEvent {
	return newEvent(EventTypeIssueCreated, at, map[string]interface{}{
		"issue_id":     issueID,
		"submitted_by": submittedBy,
	})
}

func NewIssueStatusChangedEvent(issueID, from, to string, at time.Time) *BaseEvent {
	return newEvent(EventTypeIssueStatusChanged, at, map[string]interface{}{
		"issue_id": issueID,
		"from":     from,
		"to":       to,
	})
}

func NewIssueCommentAddedEvent(issueID, commentID, userID string, at time.Time) *BaseEvent {
	return newEvent(EventTypeIssueCommentAdded, at, map[string]interface{}{
		"issue_id":   issueID,
		"comment_id": commentID,
		"user_id":    userID,
	})
}

func NewIssueDeletedEvent(issueID string, at time.Time) *BaseEvent {
	return newEvent(EventTypeIssueDeleted, at, map[string]interface{}{
		"issue_id": issueID,
	})
}

func NewIssuesReplacedEvent(count int, at time.Time) *BaseEvent {
	return newEvent(EventTypeIssuesReplaced, at, map[string]interface{}{
		"count": count,
	})
}
