package issue

import (
	"time"
)

type Status string

const (
	StatusOpen       Status = "OPEN"
	StatusInProgress Status = "IN_PROGRESS"
	StatusResolved   Status = "RESOLVED"
	StatusClosed     Status = "CLOSED"
)

var Statuses = []Status{StatusOpen, StatusInProgress, StatusResolved, StatusClosed}

func (s Status) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

type Priority string

const (
	PriorityLow      Priority = "LOW"
	PriorityMedium   Priority = "MEDIUM"
	PriorityHigh     Priority = "HIGH"
	PriorityCritical Priority = "CRITICAL"
)

var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical}

func (p Priority) Valid() bool {
	for _, v := range Priorities {
		if p == v {
			return true
		}
	}
	return false
}

const DefaultDepartment = "General"

// Departments is the set offered to submitters and to the classifier.
var Departments = []string{"IT", "HR", "Facilities", "Finance", "Legal", DefaultDepartment}

type Comment struct {
	ID        string    `json:"id" yaml:"id"`
	UserID    string    `json:"userId" yaml:"userId"`
	UserName  string    `json:"userName" yaml:"userName"`
	Text      string    `json:"text" yaml:"text"`
	CreatedAt time.Time `json:"createdAt" yaml:"createdAt"`
}

type Issue struct {
	ID              string    `json:"id" yaml:"id"`
	Title           string    `json:"title" yaml:"title"`
	Description     string    `json:"description" yaml:"description"`
	Status          Status    `json:"status" yaml:"status"`
	Priority        Priority  `json:"priority" yaml:"priority"`
	Department      string    `json:"department" yaml:"department"`
	SubmittedBy     string    `json:"submittedBy" yaml:"submittedBy"`
	SubmittedByName string    `json:"submittedByName" yaml:"submittedByName"`
	AssignedTo      *string   `json:"assignedTo,omitempty" yaml:"assignedTo,omitempty"`
	CreatedAt       time.Time `json:"createdAt" yaml:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt" yaml:"updatedAt"`
	AttachmentURL   *string   `json:"attachmentUrl,omitempty" yaml:"attachmentUrl,omitempty"`
	Comments        []Comment `json:"comments" yaml:"comments"`
	AIAnalysis      *string   `json:"aiAnalysis,omitempty" yaml:"aiAnalysis,omitempty"`
}

// Clone returns a deep copy. Comments is never nil on the copy.
func (i Issue) Clone() Issue {
	cp := i
	cp.AssignedTo = cloneString(i.AssignedTo)
	cp.AttachmentURL = cloneString(i.AttachmentURL)
	cp.AIAnalysis = cloneString(i.AIAnalysis)
	cp.Comments = make([]Comment, len(i.Comments))
	copy(cp.Comments, i.Comments)
	return cp
}

func CloneAll(issues []Issue) []Issue {
	out := make([]Issue, len(issues))
	for idx, i := range issues {
		out[idx] = i.Clone()
	}
	return out
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
