package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"chatrelay/internal/config"
	"log/slog"
)

// Параметры сэмплирования фиксированы для всех запросов.
const (
	maxTokens        = 1000
	temperature      = 0.7
	presencePenalty  = 0.1
	frequencyPenalty = 0.1
)

// CompletionError единая ошибка неудавшегося completion-запроса.
// Оборачивает исходную причину: сетевую ошибку, неуспешный статус API
// или пустой/битый список choices.
type CompletionError struct {
	cause error
}

func (e *CompletionError) Error() string {
	return fmt.Sprintf("completion failed: %v", e.cause)
}

func (e *CompletionError) Unwrap() error {
	return e.cause
}

type OpenRouterClient struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	retryCount int
	backoff    time.Duration
	logger     *slog.Logger
}

func NewOpenRouterClient(cfg config.OpenRouterConfig, httpClient *http.Client, logger *slog.Logger) *OpenRouterClient {
	return &OpenRouterClient{
		apiKey:     cfg.APIKey,
		baseURL:    cfg.BaseURL,
		model:      cfg.Model,
		httpClient: httpClient,
		retryCount: 2,
		backoff:    500 * time.Millisecond,
		logger:     logger,
	}
}

// Complete выполняет один completion-запрос: системный промпт + история.
// Временные сбои (5xx, 429) повторяются с нарастающей паузой, остальные
// ошибки возвращаются сразу. Любая неудача завёрнута в CompletionError.
func (c *OpenRouterClient) Complete(ctx context.Context, systemPrompt string, history []Message) (string, error) {
	messages := make([]Message, 0, len(history)+1)
	if systemPrompt != "" {
		messages = append(messages, Message{Role: RoleSystem, Content: systemPrompt})
	}
	messages = append(messages, history...)

	requestBody := completionRequest{
		Model:            c.model,
		Messages:         messages,
		MaxTokens:        maxTokens,
		Temperature:      temperature,
		PresencePenalty:  presencePenalty,
		FrequencyPenalty: frequencyPenalty,
	}

	var lastErr error
	for attempt := 0; attempt <= c.retryCount; attempt++ {
		answer, err := c.doRequest(ctx, requestBody)
		if err == nil {
			return answer, nil
		}
		lastErr = err
		if !shouldRetry(err) || attempt == c.retryCount {
			return "", &CompletionError{cause: err}
		}
		if c.logger != nil {
			c.logger.Warn("openrouter retry",
				slog.Int("attempt", attempt+1),
				slog.String("error", err.Error()))
		}

		select {
		case <-ctx.Done():
			return "", &CompletionError{cause: ctx.Err()}
		case <-time.After(c.backoff * time.Duration(attempt+1)):
		}
	}
	return "", &CompletionError{cause: lastErr}
}

func (c *OpenRouterClient) doRequest(ctx context.Context, body completionRequest) (string, error) {
	buf, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s/chat/completions", c.baseURL), bytes.NewReader(buf))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		return "", &transientError{status: resp.StatusCode, body: string(bodyBytes)}
	}

	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var parsed completionResponse
	if err := json.Unmarshal(bodyBytes, &parsed); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", errors.New("empty choices in response")
	}
	answer := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if answer == "" {
		return "", errors.New("empty response from model")
	}
	return answer, nil
}

func shouldRetry(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return false
	}
	var te *transientError
	return errors.As(err, &te)
}

type completionRequest struct {
	Model            string    `json:"model"`
	Messages         []Message `json:"messages"`
	MaxTokens        int       `json:"max_tokens"`
	Temperature      float64   `json:"temperature"`
	PresencePenalty  float64   `json:"presence_penalty"`
	FrequencyPenalty float64   `json:"frequency_penalty"`
}

type completionResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

type transientError struct {
	status int
	body   string
}

func (e *transientError) Error() string {
	return fmt.Sprintf("transient status %d: %s", e.status, e.body)
}
