package llm

import "sync"

// DefaultMaxHistory число сообщений, сохраняемых на пользователя по умолчанию.
const DefaultMaxHistory = 20

// MemoryHistoryStore потокобезопасное in-memory хранилище историй переписки.
// Хранит не более maxLen последних сообщений на пользователя (FIFO-вытеснение).
type MemoryHistoryStore struct {
	mu        sync.Mutex
	histories map[int64][]Message
	maxLen    int
}

// NewMemoryHistoryStore создаёт хранилище с окном в maxLen сообщений.
// При maxLen <= 0 используется DefaultMaxHistory.
func NewMemoryHistoryStore(maxLen int) *MemoryHistoryStore {
	if maxLen <= 0 {
		maxLen = DefaultMaxHistory
	}
	return &MemoryHistoryStore{
		histories: make(map[int64][]Message),
		maxLen:    maxLen,
	}
}

// Append добавляет сообщение в конец истории пользователя.
// Если длина превышает окно, старые сообщения отбрасываются с начала,
// только целиком.
func (s *MemoryHistoryStore) Append(userID int64, msg Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	history := append(s.histories[userID], msg)
	if len(history) > s.maxLen {
		// Переносим хвост в свежий слайс, чтобы не держать вытесненные
		// сообщения в памяти через общий backing array.
		trimmed := make([]Message, s.maxLen)
		copy(trimmed, history[len(history)-s.maxLen:])
		history = trimmed
	}
	s.histories[userID] = history
}

// Snapshot возвращает копию истории пользователя.
func (s *MemoryHistoryStore) Snapshot(userID int64) []Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	history := s.histories[userID]
	snapshot := make([]Message, len(history))
	copy(snapshot, history)
	return snapshot
}

// Clear удаляет историю пользователя. Возвращает, была ли запись.
// Повторный вызов безопасен.
func (s *MemoryHistoryStore) Clear(userID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, existed := s.histories[userID]
	delete(s.histories, userID)
	return existed
}

// Len возвращает число сообщений в истории пользователя.
func (s *MemoryHistoryStore) Len(userID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.histories[userID])
}

// Touch создаёт пустую запись истории, если её ещё нет.
func (s *MemoryHistoryStore) Touch(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.histories[userID]; !ok {
		s.histories[userID] = []Message{}
	}
}
