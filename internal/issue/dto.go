package issue

import (
	"strings"

	"github.com/frahmantamala/issue-tracker/internal"
	"github.com/frahmantamala/issue-tracker/internal/core/common/validation"
)

const maxCommentLength = 2000

// Draft is the submitter supplied part of a new issue.
type Draft struct {
	Title         string   `json:"title" validate:"required,max=200"`
	Description   string   `json:"description" validate:"required,max=5000"`
	Priority      Priority `json:"priority" validate:"required,oneof=LOW MEDIUM HIGH CRITICAL"`
	Department    string   `json:"department" validate:"required,max=64"`
	AssignedTo    *string  `json:"assignedTo,omitempty"`
	AttachmentURL *string  `json:"attachmentUrl,omitempty" validate:"omitempty,url"`
	AIAnalysis    *string  `json:"aiAnalysis,omitempty"`
}

// Normalize trims text fields and fills the submit form defaults: LOW
// priority and the General department.
func (d Draft) Normalize() Draft {
	d.Title = strings.TrimSpace(d.Title)
	d.Description = strings.TrimSpace(d.Description)
	d.Department = strings.TrimSpace(d.Department)
	if d.Department == "" {
		d.Department = DefaultDepartment
	}
	if d.Priority == "" {
		d.Priority = PriorityLow
	}
	d.Priority = Priority(strings.ToUpper(string(d.Priority)))
	return d
}

// Validate checks a normalized draft.
func (d Draft) Validate() error {
	if appErr := validation.Struct(d, internal.ErrInvalidDraft); appErr != nil {
		return appErr
	}
	return nil
}

func ValidateStatus(s Status) error {
	if !s.Valid() {
		return internal.ErrInvalidStatus
	}
	return nil
}

func ValidateCommentText(text string) error {
	v := validation.NewValidator()
	v.Field("text", text).
		Required(internal.ErrCodeEmptyComment).
		MaxLength(maxCommentLength, internal.ErrCodeValidationFailed)
	if appErr := v.Validate(internal.ErrEmptyComment); appErr != nil {
		return appErr
	}
	return nil
}

type UpdateStatusRequest struct {
	Status Status `json:"status"`
}

type AddCommentRequest struct {
	Text string `json:"text"`
}

type CreateIssueResponse struct {
	ID    string `json:"id"`
	Issue Issue  `json:"issue"`
}

type IssuesResponse struct {
	Issues []Issue `json:"issues"`
}
