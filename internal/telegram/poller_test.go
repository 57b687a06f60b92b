package telegram

import (
	"context"
	"sync"
	"testing"
	"time"

	"chatrelay/internal/llm"
	"chatrelay/internal/stats"
	"log/slog"
	"os"
)

// scriptedBot отдаёт заранее заданные пачки апдейтов, затем блокируется
// до отмены контекста. Отправленные сообщения уходят в канал sent.
type scriptedBot struct {
	mu      sync.Mutex
	batches [][]Update
	offsets []int64
	sent    chan string
}

func (s *scriptedBot) GetUpdates(ctx context.Context, offset int64, timeoutSec int) ([]Update, error) {
	s.mu.Lock()
	s.offsets = append(s.offsets, offset)
	var batch []Update
	if len(s.batches) > 0 {
		batch = s.batches[0]
		s.batches = s.batches[1:]
	}
	s.mu.Unlock()

	if batch != nil {
		return batch, nil
	}
	<-ctx.Done()
	return nil, ctx.Err()
}

func (s *scriptedBot) SendMessage(ctx context.Context, chatID int64, text string) error {
	s.sent <- text
	return nil
}

func (s *scriptedBot) SendMarkdown(ctx context.Context, chatID int64, text string) error {
	s.sent <- text
	return nil
}

func (s *scriptedBot) SendTyping(ctx context.Context, chatID int64) error {
	return nil
}

func TestPoller_DispatchesAndAdvancesOffset(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	bot := &scriptedBot{
		batches: [][]Update{{
			{UpdateID: 5, Message: &Message{Text: "hi", Chat: Chat{ID: 1}, From: &User{ID: 1}}},
			{UpdateID: 6, Message: &Message{Text: "hello", Chat: Chat{ID: 2}, From: &User{ID: 2}}},
		}},
		sent: make(chan string, 10),
	}

	dispatcher := NewDispatcher(DispatcherDeps{
		Bot:     bot,
		LLM:     &stubLLM{answer: "ok"},
		History: llm.NewMemoryHistoryStore(20),
		Stats:   stats.NewRegistry(time.Now()),
		Logger:  logger,
	})
	dispatcher.sleep = func(time.Duration) {}

	ctx, cancel := context.WithCancel(context.Background())
	poller := NewPoller(bot, dispatcher, logger)

	done := make(chan struct{})
	go func() {
		poller.Run(ctx)
		close(done)
	}()

	for i := 0; i < 2; i++ {
		select {
		case <-bot.sent:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for reply %d", i+1)
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("poller did not stop on context cancel")
	}

	bot.mu.Lock()
	defer bot.mu.Unlock()
	if len(bot.offsets) < 2 {
		t.Fatalf("expected at least 2 polls, got %d", len(bot.offsets))
	}
	if bot.offsets[0] != 0 {
		t.Fatalf("first poll must start at offset 0, got %d", bot.offsets[0])
	}
	// После пачки с максимальным update_id 6 следующий запрос идёт с 7.
	if bot.offsets[1] != 7 {
		t.Fatalf("expected offset 7 after batch, got %d", bot.offsets[1])
	}
}

func TestPoller_StopsImmediatelyWhenCancelled(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	bot := &scriptedBot{sent: make(chan string, 1)}
	dispatcher := NewDispatcher(DispatcherDeps{
		Bot:     bot,
		LLM:     &stubLLM{},
		History: llm.NewMemoryHistoryStore(20),
		Stats:   stats.NewRegistry(time.Now()),
		Logger:  logger,
	})
	poller := NewPoller(bot, dispatcher, logger)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		poller.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("poller did not exit on cancelled context")
	}
}
