package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"chatrelay/internal/config"
)

type BotClient interface {
	// GetUpdates выполняет long poll getUpdates начиная с offset.
	GetUpdates(ctx context.Context, offset int64, timeoutSec int) ([]Update, error)
	// SendMessage отправляет текстовое сообщение в чат.
	SendMessage(ctx context.Context, chatID int64, text string) error
	// SendMarkdown отправляет сообщение с разметкой Markdown.
	SendMarkdown(ctx context.Context, chatID int64, text string) error
	// SendTyping показывает индикатор набора текста.
	SendTyping(ctx context.Context, chatID int64) error
}

type HTTPBotClient struct {
	token          string
	baseURL        string
	httpClient     *http.Client
	requestTimeout time.Duration
}

// NewClient создаёт клиент Telegram Bot API. Каждый обычный вызов
// ограничивается requestTimeout через контекст; long poll живёт дольше,
// поэтому httpClient должен быть без собственного таймаута.
func NewClient(cfg config.TelegramConfig, httpClient *http.Client, requestTimeout time.Duration) BotClient {
	return &HTTPBotClient{
		token:          cfg.BotToken,
		baseURL:        cfg.APIBaseURL,
		httpClient:     httpClient,
		requestTimeout: requestTimeout,
	}
}

func (c *HTTPBotClient) GetUpdates(ctx context.Context, offset int64, timeoutSec int) ([]Update, error) {
	params := url.Values{}
	params.Set("offset", strconv.FormatInt(offset, 10))
	params.Set("timeout", strconv.Itoa(timeoutSec))
	params.Set("allowed_updates", `["message"]`)

	// Запас поверх серверного таймаута long poll.
	ctx, cancel := context.WithTimeout(ctx, time.Duration(timeoutSec)*time.Second+c.requestTimeout)
	defer cancel()

	reqURL := fmt.Sprintf("%s/bot%s/getUpdates?%s", c.baseURL, c.token, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build telegram request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute telegram request: %w", err)
	}
	defer resp.Body.Close()

	var response apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("decode telegram response: %w", err)
	}
	if !response.Ok {
		return nil, fmt.Errorf("telegram api error")
	}
	return response.Result, nil
}

func (c *HTTPBotClient) SendMessage(ctx context.Context, chatID int64, text string) error {
	return c.send(ctx, sendMessageRequest{ChatID: chatID, Text: text})
}

func (c *HTTPBotClient) SendMarkdown(ctx context.Context, chatID int64, text string) error {
	return c.send(ctx, sendMessageRequest{ChatID: chatID, Text: text, ParseMode: "Markdown"})
}

func (c *HTTPBotClient) send(ctx context.Context, payload sendMessageRequest) error {
	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal telegram request: %w", err)
	}

	reqURL := fmt.Sprintf("%s/bot%s/sendMessage", c.baseURL, c.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute telegram request: %w", err)
	}
	defer resp.Body.Close()

	var response sendResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return fmt.Errorf("decode telegram response: %w", err)
	}
	if !response.Ok {
		return fmt.Errorf("telegram api error")
	}
	return nil
}

func (c *HTTPBotClient) SendTyping(ctx context.Context, chatID int64) error {
	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	payload := sendChatActionRequest{ChatID: chatID, Action: "typing"}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal telegram request: %w", err)
	}

	reqURL := fmt.Sprintf("%s/bot%s/sendChatAction", c.baseURL, c.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute telegram request: %w", err)
	}
	defer resp.Body.Close()

	var response sendResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return fmt.Errorf("decode telegram response: %w", err)
	}
	if !response.Ok {
		return fmt.Errorf("telegram api error")
	}
	return nil
}

type sendMessageRequest struct {
	ChatID    int64  `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode,omitempty"`
}

type sendChatActionRequest struct {
	ChatID int64  `json:"chat_id"`
	Action string `json:"action"`
}
