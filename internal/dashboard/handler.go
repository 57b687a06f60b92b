package dashboard

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"chatrelay/internal/httpserver"
	"chatrelay/internal/stats"

	_ "embed"
	"log/slog"
)

//go:embed index.html
var indexPage []byte

// Handler обслуживает HTTP-поверхность дашборда поверх реестра счётчиков.
// Реестр разделяется с диспетчером бота, все чтения идут через Snapshot.
type Handler struct {
	stats  *stats.Registry
	logger *slog.Logger
	now    func() time.Time
}

func NewHandler(registry *stats.Registry, logger *slog.Logger) *Handler {
	return &Handler{
		stats:  registry,
		logger: logger,
		now:    time.Now,
	}
}

// Index отдаёт HTML-страницу дашборда.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(indexPage)
}

type statusResponse struct {
	BotStatus      string `json:"bot_status"`
	APIStatus      string `json:"api_status"`
	ResponseTime   string `json:"response_time"`
	ActiveUsers    int    `json:"active_users"`
	UptimeHours    string `json:"uptime_hours"`
	TotalResponses int    `json:"total_responses"`
	LastMessage    string `json:"last_message"`
	StartTime      string `json:"start_time"`
}

// Status отдаёт срез счётчиков в формате, который рисует страница дашборда.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	snap := h.stats.Snapshot()

	botStatus := "Offline"
	if snap.Online {
		botStatus = "Online"
	}
	apiStatus := "Disconnected"
	if snap.APIConnected {
		apiStatus = "Connected"
	}
	lastMessage := "None"
	if snap.LastMessageTime != nil {
		lastMessage = snap.LastMessageTime.Format("15:04:05")
	}

	httpserver.WriteJSON(w, http.StatusOK, statusResponse{
		BotStatus:      botStatus,
		APIStatus:      apiStatus,
		ResponseTime:   fmt.Sprintf("~%.1fs", snap.AverageResponseSec),
		ActiveUsers:    snap.ActiveUsers,
		UptimeHours:    fmt.Sprintf("%.1fh", h.now().Sub(snap.StartTime).Hours()),
		TotalResponses: snap.ResponseCount,
		LastMessage:    lastMessage,
		StartTime:      snap.StartTime.Format("2006-01-02 15:04:05"),
	})
}

type webhookPayload struct {
	Message *struct {
		From *struct {
			ID int64 `json:"id"`
		} `json:"from"`
	} `json:"message"`
}

// Webhook принимает апдейт в формате Telegram и учитывает его в счётчиках.
// Это побочный канал статистики рядом с основным polling-циклом бота.
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	var payload webhookPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.logger.Error("webhook decode failed", slog.String("error", err.Error()))
		httpserver.WriteJSON(w, http.StatusInternalServerError, map[string]string{
			"error": err.Error(),
		})
		return
	}

	if payload.Message == nil || payload.Message.From == nil {
		httpserver.WriteJSON(w, http.StatusOK, map[string]string{"status": "no_message"})
		return
	}

	userID := payload.Message.From.ID
	h.stats.RecordResponse(userID, h.now())
	h.logger.Info("webhook received message", slog.Int64("user_id", userID))

	httpserver.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Health простой health check для внешних мониторингов.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	snap := h.stats.Snapshot()
	httpserver.WriteJSON(w, http.StatusOK, map[string]any{
		"status":      "healthy",
		"timestamp":   h.now().Format(time.RFC3339),
		"bot_running": snap.Online,
	})
}
