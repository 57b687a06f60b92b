package llm

import "context"

// Client минимальный публичный интерфейс клиента completion API.
type Client interface {
	// Complete отправляет системный промпт и историю переписки,
	// возвращает текст ответа модели.
	Complete(ctx context.Context, systemPrompt string, history []Message) (string, error)
}
