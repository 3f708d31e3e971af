package store

import (
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/frahmantamala/issue-tracker/internal"
	"github.com/frahmantamala/issue-tracker/internal/issue"
)

// SeedIssues is the demonstration set used when no issue slot exists.
func SeedIssues(now time.Time) []issue.Issue {
	analysis := "Suggested: Check AP-304 logs."
	return []issue.Issue{
		{
			ID:              "101",
			Title:           "Wi-Fi Connection Dropping",
			Description:     "The wifi on the 3rd floor keeps disconnecting every 10 minutes.",
			Status:          issue.StatusOpen,
			Priority:        issue.PriorityHigh,
			Department:      "IT",
			SubmittedBy:     "2",
			SubmittedByName: "John Doe",
			CreatedAt:       now.Add(-24 * time.Hour),
			UpdatedAt:       now,
			Comments:        []issue.Comment{},
			AIAnalysis:      &analysis,
		},
		{
			ID:              "102",
			Title:           "Leaking Faucet in Kitchen",
			Description:     "The kitchen sink faucet is dripping constantly.",
			Status:          issue.StatusInProgress,
			Priority:        issue.PriorityLow,
			Department:      "Facilities",
			SubmittedBy:     "2",
			SubmittedByName: "John Doe",
			CreatedAt:       now.Add(-48 * time.Hour),
			UpdatedAt:       now,
			Comments:        []issue.Comment{},
		},
	}
}

type fixtureFile struct {
	Issues []issue.Issue `yaml:"issues"`
}

// LoadFixtures reads a YAML document with a top level `issues` list.
func LoadFixtures(r io.Reader) ([]issue.Issue, error) {
	var f fixtureFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, internal.ErrInvalidFixture.WithCause(err)
	}
	for i := range f.Issues {
		if f.Issues[i].Comments == nil {
			f.Issues[i].Comments = []issue.Comment{}
		}
		f.Issues[i].CreatedAt = f.Issues[i].CreatedAt.UTC()
		f.Issues[i].UpdatedAt = f.Issues[i].UpdatedAt.UTC()
		for j := range f.Issues[i].Comments {
			f.Issues[i].Comments[j].CreatedAt = f.Issues[i].Comments[j].CreatedAt.UTC()
		}
	}
	if err := ValidateFixtures(f.Issues); err != nil {
		return nil, err
	}
	return f.Issues, nil
}

// ValidateFixtures checks what the store guarantees for its own issues:
// distinct ids, known enums and createdAt <= updatedAt.
func ValidateFixtures(issues []issue.Issue) error {
	var problems []internal.ValidationError
	add := func(field, format string, args ...interface{}) {
		problems = append(problems, internal.ValidationError{
			Field:   field,
			Message: fmt.Sprintf(format, args...),
			Code:    string(internal.ErrCodeInvalidFixture),
		})
	}

	seen := make(map[string]struct{}, len(issues))
	for idx, i := range issues {
		field := fmt.Sprintf("issues[%d]", idx)
		if strings.TrimSpace(i.ID) == "" {
			add(field+".id", "issue at index %d has no id", idx)
		} else if _, dup := seen[i.ID]; dup {
			add(field+".id", "duplicate issue id %s", i.ID)
		}
		seen[i.ID] = struct{}{}

		if !i.Status.Valid() {
			add(field+".status", "issue %s has unknown status %q", i.ID, i.Status)
		}
		if !i.Priority.Valid() {
			add(field+".priority", "issue %s has unknown priority %q", i.ID, i.Priority)
		}
		if i.UpdatedAt.Before(i.CreatedAt) {
			add(field+".updatedAt", "issue %s was updated before it was created", i.ID)
		}

		commentIDs := make(map[string]struct{}, len(i.Comments))
		for _, c := range i.Comments {
			if _, dup := commentIDs[c.ID]; dup || c.ID == "" {
				add(field+".comments", "issue %s has a missing or duplicate comment id %q", i.ID, c.ID)
			}
			commentIDs[c.ID] = struct{}{}
		}
	}

	if len(problems) > 0 {
		return internal.ErrInvalidFixture.WithDetails(internal.ValidationErrors{Errors: problems})
	}
	return nil
}
