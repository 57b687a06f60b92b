package telegram

import (
	"context"
	"fmt"
	"strings"
	"time"

	"chatrelay/internal/llm"
	"chatrelay/internal/stats"
	"log/slog"
)

// MaxMessageLength лимит Telegram на размер одного сообщения (в символах).
const MaxMessageLength = 4096

// chunkPause пауза между отправками кусков длинного ответа,
// чтобы не упереться в rate limit платформы.
const chunkPause = 100 * time.Millisecond

const systemPrompt = "You are a helpful AI assistant integrated into a Telegram bot. " +
	"Provide clear, concise, and helpful responses. " +
	"You can use emojis when appropriate to make conversations more engaging. " +
	"Keep responses conversational and friendly."

const helpText = "🤖 *AI Assistant Bot Help*\n\n" +
	"*Available Commands:*\n" +
	"/start - Start the bot and get welcome message\n" +
	"/help - Show this help message\n" +
	"/clear - Clear conversation history\n" +
	"/status - Show bot status\n\n" +
	"*How to use:*\n" +
	"Simply send me any message and I'll respond using the AI model!\n\n" +
	"*Features:*\n" +
	"• Maintains conversation context\n" +
	"• Supports long messages\n" +
	"• Error handling and retry logic\n" +
	"• Real-time responses\n\n" +
	"*Note:* The bot remembers your last 20 messages for context."

const fallbackErrorText = "❌ An unexpected error occurred. Please try again later."

type DispatcherDeps struct {
	Bot               BotClient
	LLM               llm.Client
	History           llm.HistoryStore
	Stats             *stats.Registry
	Logger            *slog.Logger
	Model             string
	CompletionTimeout time.Duration
	ChunkDelay        time.Duration
}

// Dispatcher обрабатывает один входящий апдейт от начала до конца:
// история → completion API → история → доставка ответа → счётчики.
type Dispatcher struct {
	bot               BotClient
	llm               llm.Client
	history           llm.HistoryStore
	stats             *stats.Registry
	logger            *slog.Logger
	model             string
	completionTimeout time.Duration
	chunkDelay        time.Duration
	now               func() time.Time
	sleep             func(time.Duration)
}

func NewDispatcher(deps DispatcherDeps) *Dispatcher {
	chunkDelay := deps.ChunkDelay
	if chunkDelay == 0 {
		chunkDelay = chunkPause
	}
	completionTimeout := deps.CompletionTimeout
	if completionTimeout == 0 {
		completionTimeout = 60 * time.Second
	}
	return &Dispatcher{
		bot:               deps.Bot,
		llm:               deps.LLM,
		history:           deps.History,
		stats:             deps.Stats,
		logger:            deps.Logger,
		model:             deps.Model,
		completionTimeout: completionTimeout,
		chunkDelay:        chunkDelay,
		now:               time.Now,
		sleep:             time.Sleep,
	}
}

// HandleUpdate обрабатывает один апдейт. Никогда не роняет процесс:
// паника внутри цикла превращается в общее извинение пользователю.
func (d *Dispatcher) HandleUpdate(ctx context.Context, upd Update) {
	msg := upd.Message
	if msg == nil || msg.From == nil {
		return
	}

	defer func() {
		if rec := recover(); rec != nil {
			d.logger.Error("update handler panic",
				slog.Any("error", rec),
				slog.Int64("user_id", msg.From.ID))
			d.reply(ctx, msg.Chat.ID, fallbackErrorText)
		}
	}()

	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return
	}

	if strings.HasPrefix(text, "/") {
		d.handleCommand(ctx, msg, text)
	} else {
		d.handleText(ctx, msg, text)
	}
}

func (d *Dispatcher) handleCommand(ctx context.Context, msg *Message, text string) {
	cmd := strings.SplitN(text, " ", 2)[0]
	// Команды вида /start@botname приходят из групповых чатов.
	if at := strings.Index(cmd, "@"); at > 0 {
		cmd = cmd[:at]
	}

	switch cmd {
	case "/start":
		d.handleStart(ctx, msg)
	case "/help":
		d.replyMarkdown(ctx, msg.Chat.ID, helpText)
	case "/clear":
		d.handleClear(ctx, msg)
	case "/status":
		d.handleStatus(ctx, msg)
	default:
		d.reply(ctx, msg.Chat.ID, "Unknown command. Use /help to see available commands.")
	}
}

func (d *Dispatcher) handleStart(ctx context.Context, msg *Message) {
	name := msg.From.FirstName
	if name == "" {
		name = "there"
	}
	welcome := fmt.Sprintf("Hello %s! 👋\n\n"+
		"I'm an AI assistant. I can help you with:\n"+
		"• Answering questions\n"+
		"• Creative writing\n"+
		"• Problem solving\n"+
		"• General conversation\n\n"+
		"Just send me a message and I'll respond with AI-generated answers!\n\n"+
		"Use /help to see available commands.", name)

	d.history.Touch(msg.From.ID)
	d.reply(ctx, msg.Chat.ID, welcome)
	d.logger.Info("user started the bot",
		slog.Int64("user_id", msg.From.ID),
		slog.String("username", msg.From.Username))
}

func (d *Dispatcher) handleClear(ctx context.Context, msg *Message) {
	if d.history.Clear(msg.From.ID) {
		d.reply(ctx, msg.Chat.ID, "✅ Conversation history cleared!")
	} else {
		d.reply(ctx, msg.Chat.ID, "📝 No conversation history to clear.")
	}
	d.logger.Info("user cleared conversation history", slog.Int64("user_id", msg.From.ID))
}

func (d *Dispatcher) handleStatus(ctx context.Context, msg *Message) {
	status := fmt.Sprintf("🤖 *Bot Status*\n\n"+
		"✅ Bot is online and operational\n"+
		"💬 Messages in conversation: %d\n"+
		"🧠 Model: %s\n"+
		"⏰ Current time: %s\n",
		d.history.Len(msg.From.ID),
		d.model,
		d.now().Format("2006-01-02 15:04:05"))
	d.replyMarkdown(ctx, msg.Chat.ID, status)
}

// handleText обрабатывает обычное текстовое сообщение: один полный цикл
// запроса к модели. При ошибке completion в истории остаётся только
// сообщение пользователя, ответ ассистента не дописывается.
func (d *Dispatcher) handleText(ctx context.Context, msg *Message, text string) {
	userID := msg.From.ID
	d.logger.Info("message received",
		slog.Int64("user_id", userID),
		slog.Int("length", len(text)))

	if err := d.bot.SendTyping(ctx, msg.Chat.ID); err != nil {
		// Индикатор набора не критичен.
		d.logger.Debug("send typing failed", slog.String("error", err.Error()))
	}

	d.history.Append(userID, llm.Message{Role: llm.RoleUser, Content: text})

	cctx, cancel := context.WithTimeout(ctx, d.completionTimeout)
	started := d.now()
	answer, err := d.llm.Complete(cctx, systemPrompt, d.history.Snapshot(userID))
	cancel()
	if err != nil {
		d.logger.Error("completion failed",
			slog.Int64("user_id", userID),
			slog.String("error", err.Error()))
		d.reply(ctx, msg.Chat.ID,
			"❌ I'm sorry, I encountered an error while processing your message. "+
				"Please try again in a moment.\n\n"+
				"Error details: "+err.Error())
		return
	}
	elapsed := d.now().Sub(started)

	d.history.Append(userID, llm.Message{Role: llm.RoleAssistant, Content: answer})
	d.deliver(ctx, msg.Chat.ID, answer)

	d.stats.ObserveResponseTime(elapsed)
	d.stats.RecordResponse(userID, d.now())
	d.logger.Info("response sent",
		slog.Int64("user_id", userID),
		slog.Duration("elapsed", elapsed))
}

// deliver отправляет текст, разбивая его на куски по MaxMessageLength
// символов с паузой между отправками.
func (d *Dispatcher) deliver(ctx context.Context, chatID int64, text string) {
	for i, chunk := range splitText(text, MaxMessageLength) {
		if i > 0 && d.chunkDelay > 0 {
			d.sleep(d.chunkDelay)
		}
		d.reply(ctx, chatID, chunk)
	}
}

// splitText режет текст на последовательные куски не длиннее max символов.
// Порядок сохраняется, куски не перекрываются; пустой текст даёт один
// пустой кусок. Границы могут попадать в середину слова.
func splitText(text string, max int) []string {
	runes := []rune(text)
	if len(runes) <= max {
		return []string{text}
	}

	chunks := make([]string, 0, (len(runes)+max-1)/max)
	for start := 0; start < len(runes); start += max {
		end := start + max
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}

// reply отправляет сообщение по принципу best effort: ошибка доставки
// логируется и не прерывает обработку.
func (d *Dispatcher) reply(ctx context.Context, chatID int64, text string) {
	if err := d.bot.SendMessage(ctx, chatID, text); err != nil {
		d.logger.Error("send message failed",
			slog.Int64("chat_id", chatID),
			slog.String("error", err.Error()))
	}
}

func (d *Dispatcher) replyMarkdown(ctx context.Context, chatID int64, text string) {
	if err := d.bot.SendMarkdown(ctx, chatID, text); err != nil {
		d.logger.Error("send message failed",
			slog.Int64("chat_id", chatID),
			slog.String("error", err.Error()))
	}
}
