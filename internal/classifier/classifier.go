// Package classifier asks a language model for a priority, a department and
// a short triage note for an issue report. Classification never fails from
// the caller's point of view: any problem yields Fallback().
package classifier

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/frahmantamala/issue-tracker/internal"
	"github.com/frahmantamala/issue-tracker/internal/issue"
)

type Classifier interface {
	Classify(ctx context.Context, title, description string) Result
}

type Result struct {
	Priority        issue.Priority `json:"priority"`
	Department      string         `json:"department"`
	Summary         string         `json:"summary"`
	SuggestedAction string         `json:"suggestedAction"`
}

func Fallback() Result {
	return Result{
		Priority:        issue.PriorityMedium,
		Department:      issue.DefaultDepartment,
		Summary:         "Analysis failed, please review manually.",
		SuggestedAction: "Review manually.",
	}
}

// FormatAnalysis renders r the way it is stored on Issue.AIAnalysis.
func FormatAnalysis(r Result) string {
	return fmt.Sprintf("AI Summary: %s\nSuggested Action: %s", r.Summary, r.SuggestedAction)
}

// Apply copies the classification onto a draft.
func Apply(d issue.Draft, r Result) issue.Draft {
	analysis := FormatAnalysis(r)
	d.Priority = r.Priority
	d.Department = r.Department
	d.AIAnalysis = &analysis
	return d
}

func Prompt(title, description string) string {
	return fmt.Sprintf(`You are an intelligent IT service desk assistant. Analyze the following issue report.

Title: %s
Description: %s

Task:
1. Determine the Priority (LOW, MEDIUM, HIGH, CRITICAL).
2. Categorize into a Department (IT, HR, Facilities, Finance, Legal).
3. Provide a one-sentence technical summary.
4. Suggest a clear first step for resolution.`, title, description)
}

// completer sends one prompt and returns the raw model text.
type completer interface {
	complete(ctx context.Context, prompt string) (string, error)
}

// Service runs a completer and validates what comes back.
type Service struct {
	provider string
	backend  completer
	logger   *slog.Logger
}

func (s *Service) Provider() string {
	return s.provider
}

func (s *Service) Classify(ctx context.Context, title, description string) Result {
	if s.backend == nil {
		return Fallback()
	}

	start := time.Now()
	raw, err := s.backend.complete(ctx, Prompt(title, description))
	if err != nil {
		s.logger.Warn("classification request failed", "provider", s.provider, "duration", time.Since(start).String(), "error", err)
		return Fallback()
	}

	result, err := ParseResult(raw)
	if err != nil {
		s.logger.Warn("classification output rejected", "provider", s.provider, "error", err)
		return Fallback()
	}

	s.logger.Info("issue classified",
		"provider", s.provider,
		"priority", result.Priority,
		"department", result.Department,
		"duration", time.Since(start).String())
	return result
}

// New builds the classifier named by cfg.Provider.
func New(cfg internal.ClassifierConfig, client *http.Client, logger *slog.Logger) (*Service, error) {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	switch strings.ToLower(cfg.Provider) {
	case internal.ClassifierGemini:
		return NewGemini(cfg, client, logger), nil
	case internal.ClassifierOpenAI:
		return NewOpenAI(cfg, client, logger), nil
	case internal.ClassifierNone, "":
		return NewNone(logger), nil
	default:
		return nil, fmt.Errorf("unknown classifier provider %q", cfg.Provider)
	}
}

// NewNone always answers with Fallback().
func NewNone(logger *slog.Logger) *Service {
	return &Service{provider: internal.ClassifierNone, logger: logger}
}
