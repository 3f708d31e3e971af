package classifier_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/issue-tracker/internal"
	"github.com/frahmantamala/issue-tracker/internal/classifier"
	"github.com/frahmantamala/issue-tracker/internal/issue"
)

const modelJSON = `{"priority":"CRITICAL","department":"Facilities","summary":"Water leak near servers.","suggestedAction":"Shut the main valve."}`

var _ = Describe("Gemini provider", func() {
	var (
		server   *httptest.Server
		handler  http.HandlerFunc
		captured map[string]interface{}
		path     string
		apiKey   string
	)

	BeforeEach(func() {
		captured = nil
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path = r.URL.Path
			apiKey = r.Header.Get("x-goog-api-key")
			_ = json.NewDecoder(r.Body).Decode(&captured)
			handler(w, r)
		}))
	})

	AfterEach(func() {
		server.Close()
	})

	newGemini := func() *classifier.Service {
		return classifier.NewGemini(internal.ClassifierConfig{BaseURL: server.URL, APIKey: "k-123"}, server.Client(), testLogger())
	}

	It("requests structured JSON and decodes the candidate text", func() {
		// Given
		handler = func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"candidates": []interface{}{
					map[string]interface{}{"content": map[string]interface{}{"parts": []interface{}{map[string]string{"text": modelJSON}}}},
				},
			})
		}

		// When
		r := newGemini().Classify(context.Background(), "Leak", "Water on the floor of the server room")

		// Then
		Expect(r.Priority).To(Equal(issue.PriorityCritical))
		Expect(r.Department).To(Equal("Facilities"))
		Expect(path).To(Equal("/models/" + classifier.DefaultGeminiModel + ":generateContent"))
		Expect(apiKey).To(Equal("k-123"))

		config, ok := captured["generationConfig"].(map[string]interface{})
		Expect(ok).To(BeTrue())
		Expect(config["responseMimeType"]).To(Equal("application/json"))
		Expect(config).To(HaveKey("responseSchema"))
	})

	DescribeTable("falls back on provider problems",
		func(respond http.HandlerFunc) {
			handler = respond
			Expect(newGemini().Classify(context.Background(), "t", "d")).To(Equal(classifier.Fallback()))
		},
		Entry("server error", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})),
		Entry("no candidates", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"candidates":[]}`))
		})),
		Entry("garbage body", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`<html>`))
		})),
		Entry("schema violation", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"{\"priority\":\"SOON\"}"}]}}]}`))
		})),
	)

	It("falls back when the deadline passes", func() {
		handler = func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		}
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		Expect(newGemini().Classify(ctx, "t", "d")).To(Equal(classifier.Fallback()))
	})
})

var _ = Describe("OpenAI provider", func() {
	var (
		server   *httptest.Server
		captured map[string]interface{}
		auth     string
		reply    string
	)

	BeforeEach(func() {
		reply = "```json\n" + modelJSON + "\n```"
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/chat/completions" {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			auth = r.Header.Get("Authorization")
			_ = json.NewDecoder(r.Body).Decode(&captured)
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"choices": []interface{}{map[string]interface{}{"message": map[string]string{"role": "assistant", "content": reply}}},
			})
		}))
	})

	AfterEach(func() {
		server.Close()
	})

	It("posts a chat completion and strips fences from the answer", func() {
		svc := classifier.NewOpenAI(internal.ClassifierConfig{BaseURL: server.URL + "/", APIKey: "sk-test", Model: "local-model"}, server.Client(), testLogger())

		r := svc.Classify(context.Background(), "Leak", "Water")

		Expect(r.Department).To(Equal("Facilities"))
		Expect(auth).To(Equal("Bearer sk-test"))
		Expect(captured["model"]).To(Equal("local-model"))
	})

	It("falls back on empty content", func() {
		reply = ""
		svc := classifier.NewOpenAI(internal.ClassifierConfig{BaseURL: server.URL}, server.Client(), testLogger())

		Expect(svc.Classify(context.Background(), "t", "d")).To(Equal(classifier.Fallback()))
	})
})

var _ = Describe("New", func() {
	It("builds the configured provider", func() {
		for provider, want := range map[string]string{
			"gemini": internal.ClassifierGemini,
			"OpenAI": internal.ClassifierOpenAI,
			"none":   internal.ClassifierNone,
			"":       internal.ClassifierNone,
		} {
			svc, err := classifier.New(internal.ClassifierConfig{Provider: provider, Timeout: time.Second}, nil, testLogger())
			Expect(err).NotTo(HaveOccurred())
			Expect(svc.Provider()).To(Equal(want))
		}
	})

	It("rejects unknown providers", func() {
		_, err := classifier.New(internal.ClassifierConfig{Provider: "oracle"}, nil, testLogger())
		Expect(err).To(HaveOccurred())
	})

	It("answers with the fallback when disabled", func() {
		Expect(classifier.NewNone(testLogger()).Classify(context.Background(), "t", "d")).To(Equal(classifier.Fallback()))
	})
})
