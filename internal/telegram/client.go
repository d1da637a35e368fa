package telegram

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

const (
	baseURL            = "https://api.telegram.org/bot"
	defaultPollTimeout = 30
)

type Client struct {
	token       string
	httpClient  *http.Client
	baseURL     string
	pollTimeout int
}

// NewClient builds an API client. pollTimeoutSec bounds the getUpdates long
// poll; zero means the default. The HTTP timeout sits above the poll timeout
// so the server, not the transport, ends an idle poll.
func NewClient(token string, pollTimeoutSec int) *Client {
	if pollTimeoutSec <= 0 {
		pollTimeoutSec = defaultPollTimeout
	}
	return &Client{
		token:       token,
		httpClient:  &http.Client{Timeout: time.Duration(pollTimeoutSec+5) * time.Second},
		baseURL:     baseURL + token,
		pollTimeout: pollTimeoutSec,
	}
}

func (c *Client) SendMessage(chatID int64, text string) error {
	payload := map[string]any{
		"chat_id":    chatID,
		"text":       text,
		"parse_mode": "Markdown",
	}
	return c.postJSON("/sendMessage", payload)
}

func (c *Client) SendMessageWithKeyboard(chatID int64, text string, keyboard *InlineKeyboard) error {
	payload := map[string]any{
		"chat_id":      chatID,
		"text":         text,
		"parse_mode":   "Markdown",
		"reply_markup": keyboard,
	}
	return c.postJSON("/sendMessage", payload)
}

// SendChatAction shows the "sending a file..." style indicator while a deck
// is being generated.
func (c *Client) SendChatAction(chatID int64, action string) error {
	payload := map[string]any{
		"chat_id": chatID,
		"action":  action,
	}
	return c.postJSON("/sendChatAction", payload)
}

func (c *Client) EditMessageText(chatID int64, messageID int, text string) error {
	payload := map[string]any{
		"chat_id":    chatID,
		"message_id": messageID,
		"text":       text,
		"parse_mode": "Markdown",
	}
	return c.postJSON("/editMessageText", payload)
}

func (c *Client) AnswerCallbackQuery(callbackID string, text string) error {
	payload := map[string]any{
		"callback_query_id": callbackID,
		"text":              text,
	}
	return c.postJSON("/answerCallbackQuery", payload)
}

// SendDocument uploads the finished deck as a file attachment.
func (c *Client) SendDocument(chatID int64, documentPath string, caption string) (*MessageResponse, error) {
	file, err := os.Open(documentPath)
	if err != nil {
		return nil, fmt.Errorf("open document: %w", err)
	}
	defer func() { _ = file.Close() }()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	_ = writer.WriteField("chat_id", fmt.Sprintf("%d", chatID))
	if caption != "" {
		_ = writer.WriteField("caption", caption)
		_ = writer.WriteField("parse_mode", "Markdown")
	}

	part, err := writer.CreateFormFile("document", filepath.Base(documentPath))
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}

	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("copy document: %w", err)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close writer: %w", err)
	}

	resp, err := c.httpClient.Post(c.baseURL+"/sendDocument", writer.FormDataContentType(), &buf)
	if err != nil {
		return nil, fmt.Errorf("send document: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var result struct {
		Ok          bool            `json:"ok"`
		Result      MessageResponse `json:"result"`
		Description string          `json:"description"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	if !result.Ok {
		return nil, fmt.Errorf("telegram error: %s", result.Description)
	}

	return &result.Result, nil
}

func (c *Client) SendMessageAndGetID(chatID int64, text string) (int, error) {
	payload := map[string]any{
		"chat_id":    chatID,
		"text":       text,
		"parse_mode": "Markdown",
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return 0, err
	}

	resp, err := c.httpClient.Post(c.baseURL+"/sendMessage", "application/json", bytes.NewBuffer(data))
	if err != nil {
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, err
	}

	var result struct {
		Ok     bool            `json:"ok"`
		Result MessageResponse `json:"result"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return 0, err
	}
	if !result.Ok {
		return 0, fmt.Errorf("telegram error: %s", string(body))
	}

	return result.Result.MessageID, nil
}

func (c *Client) GetUpdates(offset int) ([]Update, error) {
	url := fmt.Sprintf("%s/getUpdates?offset=%d&timeout=%d", c.baseURL, offset, c.pollTimeout)

	resp, err := c.httpClient.Get(url)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var result struct {
		Ok     bool     `json:"ok"`
		Result []Update `json:"result"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, err
	}

	return result.Result, nil
}

func (c *Client) postJSON(endpoint string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Post(c.baseURL+endpoint, "application/json", bytes.NewBuffer(data))
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("request failed: %s - %s", resp.Status, string(body))
	}

	return nil
}
