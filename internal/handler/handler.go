package handler

import (
	"context"
	"time"

	"modbot/internal/middleware"
	"modbot/internal/service"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// handlerTimeout caps how long one update may spend in storage calls.
const handlerTimeout = 10 * time.Second

// Handler manages all bot interactions
type Handler struct {
	bot        *tele.Bot
	moderation *service.ModerationService
	policies   *service.PolicyService
	admins     []int64
	logger     *zap.Logger
}

// NewHandler creates a new handler instance
func NewHandler(
	bot *tele.Bot,
	moderation *service.ModerationService,
	policies *service.PolicyService,
	admins []int64,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		bot:        bot,
		moderation: moderation,
		policies:   policies,
		admins:     admins,
		logger:     logger,
	}
}

// RegisterHandlers registers all bot handlers
func (h *Handler) RegisterHandlers() {
	adminOnly := middleware.AdminOnly(h.admins, h.logger)

	// Moderation actions, reply-targeted
	h.bot.Handle("/ban", h.handleBan, adminOnly)
	h.bot.Handle("/unban", h.handleUnban, adminOnly)
	h.bot.Handle("/mute", h.handleMute, adminOnly)
	h.bot.Handle("/unmute", h.handleUnmute, adminOnly)
	h.bot.Handle("/kick", h.handleKick, adminOnly)
	h.bot.Handle("/status", h.handleStatus, adminOnly)

	// Policy management
	h.bot.Handle("/setlimit", h.handleSetLimit, adminOnly)
	h.bot.Handle("/addword", h.handleAddWord, adminOnly)
	h.bot.Handle("/delword", h.handleDelWord, adminOnly)
	h.bot.Handle("/words", h.handleWords, adminOnly)
	h.bot.Handle("/clearwords", h.handleClearWords, adminOnly)

	h.bot.Handle("/help", h.handleHelp)

	// Every other text message goes through the violation scanner
	h.bot.Handle(tele.OnText, h.handleText)
}

// handlerContext returns the context for one update's storage calls.
func handlerContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), handlerTimeout)
}
