package telegram

import (
	"context"
	"time"

	"log/slog"
)

const (
	defaultPollTimeoutSec = 30
	pollErrorPause        = 3 * time.Second
)

// Poller крутит цикл long poll getUpdates и раздаёт апдейты диспетчеру.
// Каждый апдейт обрабатывается в своей горутине, чтобы сетевой запрос
// к модели для одного пользователя не блокировал остальных.
// Порядок сообщений внутри одного чата обеспечивается самим Telegram:
// бот получает следующий апдейт чата после подтверждения предыдущего offset.
type Poller struct {
	bot            BotClient
	dispatcher     *Dispatcher
	logger         *slog.Logger
	pollTimeoutSec int
}

func NewPoller(bot BotClient, dispatcher *Dispatcher, logger *slog.Logger) *Poller {
	return &Poller{
		bot:            bot,
		dispatcher:     dispatcher,
		logger:         logger,
		pollTimeoutSec: defaultPollTimeoutSec,
	}
}

// Run блокируется до отмены контекста.
func (p *Poller) Run(ctx context.Context) {
	p.logger.Info("poller started")
	var offset int64

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("poller stopped")
			return
		default:
		}

		updates, err := p.bot.GetUpdates(ctx, offset, p.pollTimeoutSec)
		if err != nil {
			if ctx.Err() != nil {
				p.logger.Info("poller stopped")
				return
			}
			p.logger.Error("get updates failed", slog.String("error", err.Error()))
			select {
			case <-ctx.Done():
				p.logger.Info("poller stopped")
				return
			case <-time.After(pollErrorPause):
			}
			continue
		}

		for _, upd := range updates {
			if upd.UpdateID >= offset {
				offset = upd.UpdateID + 1
			}
			go p.dispatcher.HandleUpdate(ctx, upd)
		}
	}
}
