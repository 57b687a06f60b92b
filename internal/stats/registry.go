package stats

import (
	"sync"
	"time"
)

// Пока нет ни одного замера, в среднем времени ответа показывается заглушка.
const defaultAvgResponseSec = 2.5

// Registry процессный реестр счётчиков бота.
// Единственное разделяемое состояние между диспетчером и HTTP-обработчиками
// дашборда, поэтому все операции идут под мьютексом.
type Registry struct {
	mu              sync.Mutex
	online          bool
	apiConnected    bool
	startTime       time.Time
	responseCount   int
	activeUsers     map[int64]struct{}
	lastMessageTime *time.Time
	responseSecSum  float64
	responseSamples int
}

// Snapshot согласованный срез состояния реестра на момент чтения.
type Snapshot struct {
	Online             bool
	APIConnected       bool
	StartTime          time.Time
	ResponseCount      int
	ActiveUsers        int
	LastMessageTime    *time.Time
	AverageResponseSec float64
}

// NewRegistry создаёт реестр; startTime фиксируется на весь срок жизни процесса.
func NewRegistry(startTime time.Time) *Registry {
	return &Registry{
		online:       true,
		apiConnected: true,
		startTime:    startTime,
		activeUsers:  make(map[int64]struct{}),
	}
}

// RecordResponse учитывает один успешный ответ пользователю.
func (r *Registry) RecordResponse(userID int64, at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.responseCount++
	r.activeUsers[userID] = struct{}{}
	t := at
	r.lastMessageTime = &t
}

// ObserveResponseTime добавляет замер длительности completion-запроса
// в скользящее среднее.
func (r *Registry) ObserveResponseTime(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.responseSecSum += d.Seconds()
	r.responseSamples++
}

// SetOnline выставляет флаг доступности бота.
func (r *Registry) SetOnline(online bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.online = online
}

// SetAPIConnected выставляет флаг доступности completion API.
func (r *Registry) SetAPIConnected(connected bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.apiConnected = connected
}

// Snapshot возвращает копию текущего состояния.
func (r *Registry) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	avg := defaultAvgResponseSec
	if r.responseSamples > 0 {
		avg = r.responseSecSum / float64(r.responseSamples)
	}

	var last *time.Time
	if r.lastMessageTime != nil {
		t := *r.lastMessageTime
		last = &t
	}

	return Snapshot{
		Online:             r.online,
		APIConnected:       r.apiConnected,
		StartTime:          r.startTime,
		ResponseCount:      r.responseCount,
		ActiveUsers:        len(r.activeUsers),
		LastMessageTime:    last,
		AverageResponseSec: avg,
	}
}
