package groq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/conneroisu/groq-go"

	"slidecraft/internal/llm"
	"slidecraft/pkg/prompts"
)

var _ llm.Client = (*Client)(nil)

type Client struct {
	client  *groq.Client
	models  []groq.ChatModel
	prompts *prompts.Prompts
}

// NewClient builds a Groq-backed LLM client. fallbackModels are tried in
// order when the primary model errors, which on the free tier usually means
// a per-model rate limit.
func NewClient(apiKey, model string, fallbackModels []string, p *prompts.Prompts) (*Client, error) {
	client, err := groq.NewClient(apiKey)
	if err != nil {
		return nil, fmt.Errorf("create groq client: %w", err)
	}

	models := make([]groq.ChatModel, 0, 1+len(fallbackModels))
	models = append(models, groq.ChatModel(model))
	for _, m := range fallbackModels {
		models = append(models, groq.ChatModel(m))
	}

	return &Client{
		client:  client,
		models:  models,
		prompts: p,
	}, nil
}

func (c *Client) GenerateOutline(ctx context.Context, topic string, slideCount int, language string) (*llm.Outline, error) {
	prompt, err := c.prompts.RenderOutline(prompts.OutlineParams{
		Topic:      topic,
		SlideCount: slideCount,
		Language:   language,
	})
	if err != nil {
		return nil, fmt.Errorf("render prompt: %w", err)
	}

	content, err := c.generateJSONContent(ctx, c.prompts.System.Outline, prompt)
	if err != nil {
		return nil, err
	}

	outline, err := parseOutline(content)
	if err != nil {
		slog.Warn("Unparseable outline response", "error", err)
		return nil, err
	}

	return normalizeOutline(outline, slideCount), nil
}

func (c *Client) GenerateTitle(ctx context.Context, topic string) (string, error) {
	prompt, err := c.prompts.RenderTitle(prompts.TitleParams{Topic: topic})
	if err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}

	content, err := c.generate(ctx, c.prompts.System.Title, prompt)
	if err != nil {
		return "", err
	}

	return cleanTitle(content), nil
}

// parseOutline tolerates code fences and an {"outline": {...}} wrapper, both
// of which smaller models emit even in JSON mode.
func parseOutline(content string) (*llm.Outline, error) {
	content = stripFences(content)

	var outline llm.Outline
	if err := json.Unmarshal([]byte(content), &outline); err == nil && len(outline.Slides) > 0 {
		return &outline, nil
	}

	var wrapped struct {
		Outline llm.Outline `json:"outline"`
	}
	if err := json.Unmarshal([]byte(content), &wrapped); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if len(wrapped.Outline.Slides) == 0 {
		return nil, fmt.Errorf("no slides in response")
	}
	return &wrapped.Outline, nil
}

func stripFences(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(strings.TrimSpace(content), "```")
	return strings.TrimSpace(content)
}

func normalizeOutline(outline *llm.Outline, slideCount int) *llm.Outline {
	if len(outline.Slides) > slideCount {
		outline.Slides = outline.Slides[:slideCount]
	}
	for i := range outline.Slides {
		if outline.Slides[i].ImageQuery == "" {
			outline.Slides[i].ImageQuery = outline.Slides[i].Title
		}
	}
	return outline
}

func cleanTitle(raw string) string {
	title := strings.TrimSpace(raw)
	title = strings.Trim(title, "\"'")

	if idx := strings.Index(title, "\n"); idx > 0 {
		title = title[:idx]
	}

	title = strings.TrimSpace(title)

	if len(title) > 100 {
		title = title[:100]
	}

	return title
}

func (c *Client) generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return c.doGenerate(ctx, systemPrompt, userPrompt, false)
}

func (c *Client) generateJSONContent(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return c.doGenerate(ctx, systemPrompt, userPrompt, true)
}

func (c *Client) doGenerate(ctx context.Context, systemPrompt, userPrompt string, jsonMode bool) (string, error) {
	var lastErr error
	for i, model := range c.models {
		if i > 0 {
			slog.Warn("Falling back to next model", "model", model, "error", lastErr)
		}

		content, err := c.complete(ctx, model, systemPrompt, userPrompt, jsonMode)
		if err == nil {
			return content, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			break
		}
	}
	return "", lastErr
}

func (c *Client) complete(ctx context.Context, model groq.ChatModel, systemPrompt, userPrompt string, jsonMode bool) (string, error) {
	req := groq.ChatCompletionRequest{
		Model: model,
		Messages: []groq.ChatCompletionMessage{
			{Role: groq.RoleSystem, Content: systemPrompt},
			{Role: groq.RoleUser, Content: userPrompt},
		},
	}

	if jsonMode {
		req.ResponseFormat = &groq.ChatResponseFormat{Type: "json_object"}
	}

	resp, err := c.client.ChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response")
	}

	content := resp.Choices[0].Message.Content
	if content == "" {
		return "", fmt.Errorf("empty response")
	}

	return content, nil
}
