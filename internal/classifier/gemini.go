package classifier

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/frahmantamala/issue-tracker/internal"
)

const (
	DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	DefaultGeminiModel   = "gemini-3-flash-preview"
)

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

type geminiGenerationConfig struct {
	ResponseMimeType string                 `json:"responseMimeType"`
	ResponseSchema   map[string]interface{} `json:"responseSchema"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

// geminiResponseSchema is the structured output Gemini is asked for. It uses
// the OpenAPI subset accepted by generateContent.
var geminiResponseSchema = map[string]interface{}{
	"type": "OBJECT",
	"properties": map[string]interface{}{
		"priority":        map[string]interface{}{"type": "STRING", "enum": []string{"LOW", "MEDIUM", "HIGH", "CRITICAL"}},
		"department":      map[string]interface{}{"type": "STRING"},
		"summary":         map[string]interface{}{"type": "STRING"},
		"suggestedAction": map[string]interface{}{"type": "STRING"},
	},
	"required": []string{"priority", "department", "summary", "suggestedAction"},
}

type gemini struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

// NewGemini classifies through the Generative Language generateContent API.
func NewGemini(cfg internal.ClassifierConfig, client *http.Client, logger *slog.Logger) *Service {
	g := &gemini{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		client:  client,
	}
	if g.baseURL == "" {
		g.baseURL = DefaultGeminiBaseURL
	}
	if g.model == "" {
		g.model = DefaultGeminiModel
	}
	return &Service{provider: internal.ClassifierGemini, backend: g, logger: logger}
}

func (g *gemini) complete(ctx context.Context, prompt string) (string, error) {
	endpoint := g.baseURL + "/models/" + url.PathEscape(g.model) + ":generateContent"
	body := geminiRequest{
		Contents: []geminiContent{{Role: "user", Parts: []geminiPart{{Text: prompt}}}},
		GenerationConfig: geminiGenerationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   geminiResponseSchema,
		},
	}

	var resp geminiResponse
	if err := postJSON(ctx, g.client, endpoint, map[string]string{"x-goog-api-key": g.apiKey}, body, &resp); err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("no candidates in response")
	}

	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String(), nil
}
