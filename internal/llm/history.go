package llm

// Роли сообщений в диалоге.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message представляет одно сообщение в переписке.
type Message struct {
	Role    string `json:"role"`    // "system", "user", "assistant"
	Content string `json:"content"` // текст сообщения
}

// HistoryStore интерфейс хранилища историй переписки по пользователям.
// История каждого пользователя — скользящее окно последних maxLen сообщений.
type HistoryStore interface {
	// Append добавляет сообщение в конец истории пользователя.
	// При превышении лимита самые старые сообщения вытесняются целиком.
	Append(userID int64, msg Message)

	// Snapshot возвращает копию текущей истории в хронологическом порядке.
	// Для неизвестного пользователя возвращает пустую историю.
	Snapshot(userID int64) []Message

	// Clear очищает историю пользователя. Возвращает, существовала ли запись.
	Clear(userID int64) bool

	// Len возвращает текущее число сообщений в истории.
	Len(userID int64) int

	// Touch создаёт пустую запись истории, если её ещё нет.
	Touch(userID int64)
}
