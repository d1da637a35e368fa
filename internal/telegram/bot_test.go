package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

// apiRecorder fakes the Bot API, recording every method call.
type apiRecorder struct {
	mu       sync.Mutex
	calls    []string
	messages []string
	docs     int
}

func (a *apiRecorder) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		a.mu.Lock()
		defer a.mu.Unlock()

		method := strings.TrimPrefix(r.URL.Path, "/")
		a.calls = append(a.calls, method)

		switch method {
		case "sendMessage", "editMessageText":
			var payload struct {
				Text string `json:"text"`
			}
			_ = json.NewDecoder(r.Body).Decode(&payload)
			a.messages = append(a.messages, payload.Text)
		case "sendDocument":
			a.docs++
			w.Write([]byte(`{"ok":true,"result":{"message_id":99}}`))
			return
		}

		w.Write([]byte(`{"ok":true,"result":{"message_id":1}}`))
	})
}

func (a *apiRecorder) lastMessage() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.messages) == 0 {
		return ""
	}
	return a.messages[len(a.messages)-1]
}

func (a *apiRecorder) documentCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.docs
}

type fakeGenerator struct {
	mu       sync.Mutex
	requests []GenerateRequest
	result   *GenerateResult
	err      error
	history  []HistoryItem
}

func (g *fakeGenerator) Generate(_ context.Context, req GenerateRequest) (*GenerateResult, error) {
	g.mu.Lock()
	g.requests = append(g.requests, req)
	g.mu.Unlock()
	if g.err != nil {
		return nil, g.err
	}
	return g.result, nil
}

func (g *fakeGenerator) History(_ context.Context, _ int64, _ int) ([]HistoryItem, error) {
	return g.history, nil
}

func newTestBot(t *testing.T, gen *fakeGenerator) (*Bot, *apiRecorder) {
	t.Helper()
	recorder := &apiRecorder{}
	server := httptest.NewServer(recorder.handler())
	t.Cleanup(server.Close)

	client := NewClient("test-token", 1)
	client.baseURL = server.URL

	return NewBot(client, gen, BotConfig{}), recorder
}

func textUpdate(id int, chatID int64, text string) Update {
	return Update{
		UpdateID: id,
		Message: &Message{
			MessageID: id,
			From:      &User{ID: chatID, FirstName: "Alice", UserName: "alice"},
			Chat:      &Chat{ID: chatID, Type: "private"},
			Text:      text,
		},
	}
}

func TestStartCommand(t *testing.T) {
	bot, recorder := newTestBot(t, &fakeGenerator{})

	bot.handleUpdate(context.Background(), textUpdate(1, 10, "/start"))

	if got := recorder.lastMessage(); !strings.Contains(got, "Hi Alice") {
		t.Errorf("welcome = %q, want greeting with first name", got)
	}
}

func TestConversationFlow(t *testing.T) {
	dir := t.TempDir()
	docPath := filepath.Join(dir, "deck.pdf")
	if err := os.WriteFile(docPath, []byte("%PDF-fake"), 0o644); err != nil {
		t.Fatal(err)
	}

	gen := &fakeGenerator{result: &GenerateResult{
		Title:        "Ocean Conservation",
		DocumentPath: docPath,
		Duration:     3 * time.Second,
	}}
	bot, recorder := newTestBot(t, gen)
	ctx := context.Background()

	bot.handleUpdate(ctx, textUpdate(1, 10, "/new"))
	if got := recorder.lastMessage(); !strings.Contains(got, "topic") {
		t.Fatalf("after /new got %q, want topic prompt", got)
	}

	bot.handleUpdate(ctx, textUpdate(2, 10, "ocean conservation"))
	if got := recorder.lastMessage(); !strings.Contains(got, "How many slides") {
		t.Fatalf("after topic got %q, want slide count prompt", got)
	}

	bot.handleUpdate(ctx, textUpdate(3, 10, "7"))
	bot.genWg.Wait()

	gen.mu.Lock()
	defer gen.mu.Unlock()
	if len(gen.requests) != 1 {
		t.Fatalf("expected 1 generate request, got %d", len(gen.requests))
	}
	req := gen.requests[0]
	if req.Topic != "ocean conservation" || req.SlideCount != 7 {
		t.Errorf("request = %+v", req)
	}
	if req.UserID != 10 {
		t.Errorf("UserID = %d, want 10", req.UserID)
	}
	if recorder.documentCount() != 1 {
		t.Errorf("documents sent = %d, want 1", recorder.documentCount())
	}
}

func TestBareTopicUsesDefaultSlideCount(t *testing.T) {
	dir := t.TempDir()
	docPath := filepath.Join(dir, "deck.pdf")
	if err := os.WriteFile(docPath, []byte("%PDF-fake"), 0o644); err != nil {
		t.Fatal(err)
	}

	gen := &fakeGenerator{result: &GenerateResult{
		Title:        "Volcanoes",
		DocumentPath: docPath,
		Duration:     time.Second,
	}}
	bot, _ := newTestBot(t, gen)

	bot.handleUpdate(context.Background(), textUpdate(1, 10, "volcanoes"))
	bot.genWg.Wait()

	gen.mu.Lock()
	defer gen.mu.Unlock()
	if len(gen.requests) != 1 {
		t.Fatalf("expected 1 generate request, got %d", len(gen.requests))
	}
	if req := gen.requests[0]; req.Topic != "volcanoes" || req.SlideCount != 7 {
		t.Errorf("request = %+v, want default slide count 7", req)
	}
}

func TestGetUpdatesPollTimeout(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`{"ok":true,"result":[]}`))
	}))
	defer server.Close()

	client := NewClient("test-token", 45)
	client.baseURL = server.URL

	if _, err := client.GetUpdates(5); err != nil {
		t.Fatalf("GetUpdates() error = %v", err)
	}
	if gotQuery != "offset=5&timeout=45" {
		t.Errorf("query = %q, want offset=5&timeout=45", gotQuery)
	}
}

func TestSlideCountValidation(t *testing.T) {
	gen := &fakeGenerator{}
	bot, recorder := newTestBot(t, gen)
	ctx := context.Background()

	bot.handleUpdate(ctx, textUpdate(1, 10, "/new"))
	bot.handleUpdate(ctx, textUpdate(2, 10, "volcanoes"))

	for _, bad := range []string{"2", "99", "lots"} {
		bot.handleUpdate(ctx, textUpdate(3, 10, bad))
		if got := recorder.lastMessage(); !strings.Contains(got, "between 3 and 15") {
			t.Errorf("after %q got %q, want range hint", bad, got)
		}
	}

	if len(gen.requests) != 0 {
		t.Errorf("no generation expected, got %d requests", len(gen.requests))
	}
}

func TestSlideCountCallback(t *testing.T) {
	dir := t.TempDir()
	docPath := filepath.Join(dir, "deck.pdf")
	if err := os.WriteFile(docPath, []byte("%PDF-fake"), 0o644); err != nil {
		t.Fatal(err)
	}

	gen := &fakeGenerator{result: &GenerateResult{Title: "T", DocumentPath: docPath}}
	bot, _ := newTestBot(t, gen)
	ctx := context.Background()

	bot.handleUpdate(ctx, textUpdate(1, 10, "/new"))
	bot.handleUpdate(ctx, textUpdate(2, 10, "volcanoes"))
	bot.handleUpdate(ctx, Update{
		UpdateID: 3,
		CallbackQuery: &CallbackQuery{
			ID:      "cb1",
			From:    &User{ID: 10, FirstName: "Alice"},
			Message: &Message{Chat: &Chat{ID: 10}},
			Data:    "slides:10",
		},
	})
	bot.genWg.Wait()

	gen.mu.Lock()
	defer gen.mu.Unlock()
	if len(gen.requests) != 1 || gen.requests[0].SlideCount != 10 {
		t.Errorf("requests = %+v, want one with 10 slides", gen.requests)
	}
}

func TestCancelResetsFlow(t *testing.T) {
	gen := &fakeGenerator{}
	bot, recorder := newTestBot(t, gen)
	ctx := context.Background()

	bot.handleUpdate(ctx, textUpdate(1, 10, "/new"))
	bot.handleUpdate(ctx, textUpdate(2, 10, "volcanoes"))
	bot.handleUpdate(ctx, textUpdate(3, 10, "/cancel"))

	if got := recorder.lastMessage(); !strings.Contains(got, "Cancelled") {
		t.Errorf("after /cancel got %q", got)
	}

	// The old topic must not leak into the next flow.
	bot.handleUpdate(ctx, textUpdate(4, 10, "7"))
	if len(gen.requests) != 0 {
		t.Errorf("generation started after cancel: %+v", gen.requests)
	}
}

func TestGenerationFailureReported(t *testing.T) {
	gen := &fakeGenerator{err: fmt.Errorf("outline failed")}
	bot, recorder := newTestBot(t, gen)
	ctx := context.Background()

	bot.handleUpdate(ctx, textUpdate(1, 10, "/new"))
	bot.handleUpdate(ctx, textUpdate(2, 10, "volcanoes"))
	bot.handleUpdate(ctx, textUpdate(3, 10, "5"))
	bot.genWg.Wait()

	if got := recorder.lastMessage(); !strings.Contains(got, "Something went wrong") {
		t.Errorf("failure message = %q", got)
	}
	if recorder.documentCount() != 0 {
		t.Errorf("no document expected on failure")
	}
}

func TestHistoryCommand(t *testing.T) {
	gen := &fakeGenerator{history: []HistoryItem{
		{Topic: "oceans", Title: "Ocean Conservation", SlideCount: 7, CreatedAt: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)},
	}}
	bot, recorder := newTestBot(t, gen)

	bot.handleUpdate(context.Background(), textUpdate(1, 10, "/history"))

	got := recorder.lastMessage()
	if !strings.Contains(got, "Ocean Conservation") || !strings.Contains(got, "7 slides") {
		t.Errorf("history = %q", got)
	}
}

func TestHistoryEmpty(t *testing.T) {
	bot, recorder := newTestBot(t, &fakeGenerator{})

	bot.handleUpdate(context.Background(), textUpdate(1, 10, "/history"))

	if got := recorder.lastMessage(); !strings.Contains(got, "No presentations yet") {
		t.Errorf("empty history = %q", got)
	}
}
