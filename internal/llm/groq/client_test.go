package groq

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/conneroisu/groq-go"

	"slidecraft/pkg/prompts"
)

type choiceMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type groqResponse struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Created int64  `json:"created"`
	Model   string `json:"model"`
	Choices []struct {
		Index        int           `json:"index"`
		Message      choiceMessage `json:"message"`
		FinishReason string        `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

func makeGroqResponse(content string) groqResponse {
	resp := groqResponse{
		ID:      "test-id",
		Object:  "chat.completion",
		Created: 1234567890,
		Model:   "llama-3.3-70b-versatile",
	}
	resp.Choices = []struct {
		Index        int           `json:"index"`
		Message      choiceMessage `json:"message"`
		FinishReason string        `json:"finish_reason"`
	}{
		{Message: choiceMessage{Role: "assistant", Content: content}, FinishReason: "stop"},
	}
	resp.Usage.PromptTokens = 10
	resp.Usage.CompletionTokens = 20
	resp.Usage.TotalTokens = 30
	return resp
}

func mustJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(data)
}

func testPrompts() *prompts.Prompts {
	return &prompts.Prompts{
		System: prompts.SystemPrompts{
			Outline: "You plan presentations as JSON.",
			Title:   "You generate titles.",
		},
		Outline: prompts.OutlinePrompts{
			Generate: "Plan {{.SlideCount}} slides about {{.Topic}}.",
		},
		Title: prompts.TitlePrompts{
			Generate: "Generate a title for: {{.Topic}}",
		},
	}
}

func newTestClient(t *testing.T, serverURL string) *Client {
	t.Helper()
	client, err := groq.NewClient("test-api-key", groq.WithBaseURL(serverURL+"/"))
	if err != nil {
		t.Fatalf("failed to create groq client: %v", err)
	}
	return &Client{
		client:  client,
		models:  []groq.ChatModel{"llama-3.3-70b-versatile"},
		prompts: testPrompts(),
	}
}

const outlineJSON = `{
	"title": "Ocean Conservation",
	"subtitle": "Protecting marine ecosystems",
	"slides": [
		{"title": "Why Oceans Matter", "bullets": ["Oxygen production", "Climate regulation"],
		 "image_query": "coral reef underwater", "keywords": ["ocean", "reef"]},
		{"title": "Threats", "bullets": ["Overfishing", "Plastic pollution"],
		 "image_query": "plastic pollution beach", "keywords": ["pollution"]}
	]
}`

func TestGenerateOutline(t *testing.T) {
	tests := []struct {
		name           string
		responseBody   string
		statusCode     int
		wantErr        bool
		wantErrContain string
		wantTitle      string
		wantSlides     int
	}{
		{
			name:         "plainJSON",
			responseBody: mustJSON(makeGroqResponse(outlineJSON)),
			statusCode:   http.StatusOK,
			wantTitle:    "Ocean Conservation",
			wantSlides:   2,
		},
		{
			name:         "fencedJSON",
			responseBody: mustJSON(makeGroqResponse("```json\n" + outlineJSON + "\n```")),
			statusCode:   http.StatusOK,
			wantTitle:    "Ocean Conservation",
			wantSlides:   2,
		},
		{
			name:         "wrappedOutline",
			responseBody: mustJSON(makeGroqResponse(`{"outline":` + outlineJSON + `}`)),
			statusCode:   http.StatusOK,
			wantTitle:    "Ocean Conservation",
			wantSlides:   2,
		},
		{
			name:           "emptyResponse",
			responseBody:   mustJSON(makeGroqResponse("")),
			statusCode:     http.StatusOK,
			wantErr:        true,
			wantErrContain: "empty response",
		},
		{
			name:           "notJSON",
			responseBody:   mustJSON(makeGroqResponse("sure, here is your outline")),
			statusCode:     http.StatusOK,
			wantErr:        true,
			wantErrContain: "parse response",
		},
		{
			name:           "httpErrorUnauthorized",
			responseBody:   `{"error": {"message": "invalid api key", "type": "authentication_error"}}`,
			statusCode:     http.StatusUnauthorized,
			wantErr:        true,
			wantErrContain: "generate",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.statusCode)
				_, _ = w.Write([]byte(tt.responseBody))
			}))
			defer server.Close()

			client := newTestClient(t, server.URL)
			got, err := client.GenerateOutline(context.Background(), "ocean conservation", 5, "en")

			if tt.wantErr {
				if err == nil {
					t.Fatalf("GenerateOutline() expected error containing %q, got nil", tt.wantErrContain)
				}
				if !strings.Contains(err.Error(), tt.wantErrContain) {
					t.Errorf("GenerateOutline() error = %v, want error containing %q", err, tt.wantErrContain)
				}
				return
			}

			if err != nil {
				t.Fatalf("GenerateOutline() unexpected error: %v", err)
			}
			if got.Title != tt.wantTitle {
				t.Errorf("Title = %q, want %q", got.Title, tt.wantTitle)
			}
			if len(got.Slides) != tt.wantSlides {
				t.Errorf("slides = %d, want %d", len(got.Slides), tt.wantSlides)
			}
		})
	}
}

func TestGenerateOutlineTruncatesExtraSlides(t *testing.T) {
	long := `{"title":"T","slides":[
		{"title":"a"},{"title":"b"},{"title":"c"},{"title":"d"}]}`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(mustJSON(makeGroqResponse(long))))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	got, err := client.GenerateOutline(context.Background(), "topic", 3, "en")
	if err != nil {
		t.Fatalf("GenerateOutline() error = %v", err)
	}
	if len(got.Slides) != 3 {
		t.Errorf("slides = %d, want 3", len(got.Slides))
	}
	if got.Slides[0].ImageQuery != "a" {
		t.Errorf("empty image_query should fall back to slide title, got %q", got.Slides[0].ImageQuery)
	}
}

func TestModelFallback(t *testing.T) {
	var models []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Model string `json:"model"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		models = append(models, req.Model)

		w.Header().Set("Content-Type", "application/json")
		// 400 is not retried by the underlying client, so the fallback
		// kicks in immediately.
		if req.Model == "primary-model" {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error": {"message": "model decommissioned", "type": "invalid_request_error"}}`))
			return
		}
		_, _ = w.Write([]byte(mustJSON(makeGroqResponse(outlineJSON))))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	client.models = []groq.ChatModel{"primary-model", "fallback-model"}

	got, err := client.GenerateOutline(context.Background(), "ocean", 5, "en")
	if err != nil {
		t.Fatalf("GenerateOutline() error = %v", err)
	}
	if got.Title != "Ocean Conservation" {
		t.Errorf("Title = %q", got.Title)
	}
	if len(models) < 2 || models[len(models)-1] != "fallback-model" {
		t.Errorf("models tried = %v, want fallback after primary", models)
	}
}

func TestGenerateTitle(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(mustJSON(makeGroqResponse("\"The Blue Frontier\"\nextra line"))))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	got, err := client.GenerateTitle(context.Background(), "ocean conservation")
	if err != nil {
		t.Fatalf("GenerateTitle() error = %v", err)
	}
	if got != "The Blue Frontier" {
		t.Errorf("GenerateTitle() = %q, want %q", got, "The Blue Frontier")
	}
}

func TestCleanTitle(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"quoted", `"Hello World"`, "Hello World"},
		{"multiline", "First\nSecond", "First"},
		{"whitespace", "  Padded  ", "Padded"},
		{"long", strings.Repeat("x", 150), strings.Repeat("x", 100)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cleanTitle(tt.raw); got != tt.want {
				t.Errorf("cleanTitle(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}
