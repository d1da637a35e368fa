package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Generator produces a finished deck for a chat request. Progress, when set,
// receives short status lines suitable for an edited Telegram message.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error)
	History(ctx context.Context, userID int64, limit int) ([]HistoryItem, error)
}

type GenerateRequest struct {
	UserID     int64
	UserName   string
	FirstName  string
	Topic      string
	SlideCount int
	Language   string
	Progress   func(text string)
}

type GenerateResult struct {
	Title        string
	DocumentPath string
	Sources      []string
	Duration     time.Duration
}

type HistoryItem struct {
	Topic      string
	Title      string
	SlideCount int
	CreatedAt  time.Time
}

type state int

const (
	stateIdle state = iota
	stateAwaitTopic
	stateAwaitSlideCount
)

type session struct {
	state state
	topic string
}

type BotConfig struct {
	DefaultSlideCount int
	MinSlideCount     int
	MaxSlideCount     int
	Language          string
}

type Bot struct {
	client  *Client
	service Generator
	cfg     BotConfig

	sessionsMu sync.Mutex
	sessions   map[int64]*session

	pollOffset int
	genWg      sync.WaitGroup
}

func NewBot(client *Client, service Generator, cfg BotConfig) *Bot {
	if cfg.DefaultSlideCount == 0 {
		cfg.DefaultSlideCount = 7
	}
	if cfg.MinSlideCount == 0 {
		cfg.MinSlideCount = 3
	}
	if cfg.MaxSlideCount == 0 {
		cfg.MaxSlideCount = 15
	}
	if cfg.Language == "" {
		cfg.Language = "English"
	}

	return &Bot{
		client:   client,
		service:  service,
		cfg:      cfg,
		sessions: make(map[int64]*session),
	}
}

// Run polls for updates until the context is cancelled, then waits for any
// in-flight generations to finish.
func (b *Bot) Run(ctx context.Context) error {
	slog.Info("Telegram bot started, listening for messages...")

	for {
		select {
		case <-ctx.Done():
			b.genWg.Wait()
			return ctx.Err()
		default:
		}

		updates, err := b.client.GetUpdates(b.pollOffset)
		if err != nil {
			slog.Warn("Poll failed", "error", err)
			select {
			case <-ctx.Done():
				b.genWg.Wait()
				return ctx.Err()
			case <-time.After(time.Second):
			}
			continue
		}

		for _, update := range updates {
			b.pollOffset = update.UpdateID + 1
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update Update) {
	if update.CallbackQuery != nil {
		b.handleCallbackQuery(ctx, update.CallbackQuery)
		return
	}

	if update.Message == nil || update.Message.Chat == nil || update.Message.Text == "" {
		return
	}

	text := strings.TrimSpace(update.Message.Text)
	chat := update.Message.Chat
	user := update.Message.From

	if strings.HasPrefix(text, "/") {
		b.handleCommand(ctx, chat, user, text)
		return
	}

	b.handleText(ctx, chat, user, text)
}

func (b *Bot) handleCommand(ctx context.Context, chat *Chat, user *User, text string) {
	switch {
	case strings.HasPrefix(text, "/start"):
		b.setState(chat.ID, stateIdle)
		_ = b.client.SendMessage(chat.ID, welcomeMessage(user))
	case strings.HasPrefix(text, "/new"):
		b.setState(chat.ID, stateAwaitTopic)
		_ = b.client.SendMessage(chat.ID, "What topic should the presentation cover?")
	case strings.HasPrefix(text, "/history"):
		b.handleHistoryCommand(ctx, chat, user)
	case strings.HasPrefix(text, "/cancel"):
		b.setState(chat.ID, stateIdle)
		_ = b.client.SendMessage(chat.ID, "Cancelled. Send /new to start a presentation.")
	case strings.HasPrefix(text, "/help"):
		_ = b.client.SendMessage(chat.ID, helpMessage)
	default:
		_ = b.client.SendMessage(chat.ID, "Unknown command. "+helpMessage)
	}
}

func (b *Bot) handleText(ctx context.Context, chat *Chat, user *User, text string) {
	sess := b.session(chat.ID)

	switch sess.state {
	case stateAwaitTopic:
		if len(text) < 3 {
			_ = b.client.SendMessage(chat.ID, "That topic is too short. Try something more descriptive.")
			return
		}
		sess.topic = text
		sess.state = stateAwaitSlideCount
		prompt := fmt.Sprintf("How many slides? (%d-%d, or pick below)", b.cfg.MinSlideCount, b.cfg.MaxSlideCount)
		_ = b.client.SendMessageWithKeyboard(chat.ID, prompt, NewSlideCountKeyboard())

	case stateAwaitSlideCount:
		count, err := strconv.Atoi(text)
		if err != nil || count < b.cfg.MinSlideCount || count > b.cfg.MaxSlideCount {
			msg := fmt.Sprintf("Please send a number between %d and %d.", b.cfg.MinSlideCount, b.cfg.MaxSlideCount)
			_ = b.client.SendMessage(chat.ID, msg)
			return
		}
		b.startGeneration(ctx, chat, user, sess.topic, count)

	default:
		// A bare message outside any flow is treated as a topic and built
		// with the default slide count; /new is the way to choose a count.
		if len(text) < 3 {
			_ = b.client.SendMessage(chat.ID, "That topic is too short. Try something more descriptive, or send /help.")
			return
		}
		b.startGeneration(ctx, chat, user, text, b.cfg.DefaultSlideCount)
	}
}

func (b *Bot) handleCallbackQuery(ctx context.Context, cb *CallbackQuery) {
	if cb.Message == nil || cb.Message.Chat == nil {
		return
	}
	chat := cb.Message.Chat

	countStr, ok := strings.CutPrefix(cb.Data, "slides:")
	if !ok {
		_ = b.client.AnswerCallbackQuery(cb.ID, "")
		return
	}

	count, err := strconv.Atoi(countStr)
	if err != nil {
		_ = b.client.AnswerCallbackQuery(cb.ID, "")
		return
	}

	sess := b.session(chat.ID)
	if sess.state != stateAwaitSlideCount || sess.topic == "" {
		_ = b.client.AnswerCallbackQuery(cb.ID, "Send /new to start a presentation first.")
		return
	}

	_ = b.client.AnswerCallbackQuery(cb.ID, fmt.Sprintf("%d slides", count))
	b.startGeneration(ctx, chat, cb.From, sess.topic, count)
}

func (b *Bot) handleHistoryCommand(ctx context.Context, chat *Chat, user *User) {
	if user == nil {
		return
	}

	items, err := b.service.History(ctx, user.ID, 10)
	if err != nil {
		slog.Error("History lookup failed", "user_id", user.ID, "error", err)
		_ = b.client.SendMessage(chat.ID, "Could not load your history right now.")
		return
	}
	if len(items) == 0 {
		_ = b.client.SendMessage(chat.ID, "No presentations yet. Send /new to create one!")
		return
	}

	var sb strings.Builder
	sb.WriteString("*Your recent presentations:*\n")
	for _, item := range items {
		title := item.Title
		if title == "" {
			title = item.Topic
		}
		fmt.Fprintf(&sb, "- %s (%d slides, %s)\n", title, item.SlideCount, item.CreatedAt.Format("Jan 2"))
	}
	_ = b.client.SendMessage(chat.ID, sb.String())
}

func (b *Bot) startGeneration(ctx context.Context, chat *Chat, user *User, topic string, slideCount int) {
	b.setState(chat.ID, stateIdle)

	progressID, err := b.client.SendMessageAndGetID(chat.ID, "Working on your presentation...")
	if err != nil {
		slog.Error("Failed to send progress message", "error", err)
	}

	req := GenerateRequest{
		Topic:      topic,
		SlideCount: slideCount,
		Language:   b.cfg.Language,
	}
	if user != nil {
		req.UserID = user.ID
		req.UserName = user.UserName
		req.FirstName = user.FirstName
	}
	if progressID != 0 {
		req.Progress = func(text string) {
			_ = b.client.EditMessageText(chat.ID, progressID, text)
		}
	}

	b.genWg.Add(1)
	go func() {
		defer b.genWg.Done()
		b.generate(ctx, chat.ID, progressID, req)
	}()
}

func (b *Bot) generate(ctx context.Context, chatID int64, progressID int, req GenerateRequest) {
	result, err := b.service.Generate(ctx, req)
	if err != nil {
		slog.Error("Generation failed", "topic", req.Topic, "error", err)
		msg := "Something went wrong while building your presentation. Please try again."
		if progressID != 0 {
			_ = b.client.EditMessageText(chatID, progressID, msg)
		} else {
			_ = b.client.SendMessage(chatID, msg)
		}
		return
	}

	_ = b.client.SendChatAction(chatID, "upload_document")

	caption := fmt.Sprintf("*%s*\n%d slides, ready in %s",
		result.Title, req.SlideCount, result.Duration.Round(time.Second))
	if _, err := b.client.SendDocument(chatID, result.DocumentPath, caption); err != nil {
		slog.Error("Failed to send document", "error", err)
		_ = b.client.SendMessage(chatID, "The deck was built but could not be delivered. Please try again.")
		return
	}

	if progressID != 0 {
		_ = b.client.EditMessageText(chatID, progressID, "Done! Your presentation is ready below.")
	}
}

func (b *Bot) session(chatID int64) *session {
	b.sessionsMu.Lock()
	defer b.sessionsMu.Unlock()

	sess, ok := b.sessions[chatID]
	if !ok {
		sess = &session{}
		b.sessions[chatID] = sess
	}
	return sess
}

func (b *Bot) setState(chatID int64, s state) {
	sess := b.session(chatID)
	b.sessionsMu.Lock()
	sess.state = s
	if s == stateIdle {
		sess.topic = ""
	}
	b.sessionsMu.Unlock()
}

func welcomeMessage(user *User) string {
	name := "there"
	if user != nil && user.FirstName != "" {
		name = user.FirstName
	}
	return fmt.Sprintf(`Hi %s! I turn topics into slide decks.

%s`, name, helpMessage)
}

const helpMessage = `Commands:
/new - Create a presentation (choose the slide count)
/history - Show your recent presentations
/cancel - Abort the current flow
/help - Show this message

Or just send me a topic and I'll build a deck with the default slide count.`
