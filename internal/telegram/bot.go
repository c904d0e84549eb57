package telegram

import (
	"context"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/khdigital94/hdforms/internal/admin"
	"github.com/khdigital94/hdforms/internal/formatter"
	appmodels "github.com/khdigital94/hdforms/pkg/models"
)

// Console is the part of the admin console the bot acts on
type Console interface {
	MarkRead(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) (int, error)
	Counts(ctx context.Context) (admin.Counts, error)
}

// Bot represents the Telegram bot
type Bot struct {
	bot       *bot.Bot
	console   Console
	formatter *formatter.TelegramFormatter
	chatID    int64
	topicID   int
	logger    *slog.Logger
}

// BotDeps dependencies for creating a bot
type BotDeps struct {
	Token     string
	ChatID    int64
	TopicID   int
	Console   Console
	Formatter *formatter.TelegramFormatter
	Logger    *slog.Logger
	Options   []bot.Option // extra client options, e.g. a custom server URL
}

// NewBot creates a new Telegram bot
func NewBot(deps BotDeps) (*Bot, error) {
	b := &Bot{
		console:   deps.Console,
		formatter: deps.Formatter,
		chatID:    deps.ChatID,
		topicID:   deps.TopicID,
		logger:    deps.Logger.With("component", "telegram_bot"),
	}

	opts := []bot.Option{
		bot.WithDefaultHandler(b.defaultHandler),
	}
	opts = append(opts, deps.Options...)

	tgBot, err := bot.New(deps.Token, opts...)
	if err != nil {
		return nil, err
	}

	b.bot = tgBot
	b.registerHandlers()

	return b, nil
}

// registerHandlers registers command handlers
func (b *Bot) registerHandlers() {
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypePrefix, b.handleStart)
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/help", bot.MatchTypePrefix, b.handleHelp)
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/stats", bot.MatchTypePrefix, b.handleStats)
	b.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, "", bot.MatchTypePrefix, b.handleCallback)
}

// Start starts the bot
func (b *Bot) Start(ctx context.Context) {
	b.logger.Info("starting telegram bot", "chat_id", b.chatID)
	b.bot.Start(ctx)
}

// Alert posts a new submission to the configured chat
func (b *Bot) Alert(ctx context.Context, sub *appmodels.Submission) error {
	text := b.formatter.FormatSubmission(sub)
	keyboard := formatter.BuildSubmissionKeyboard(sub.ID, sub.IsRead())

	msg, err := b.send(ctx, b.chatID, b.topicID, text, keyboard)
	if err != nil {
		return err
	}

	b.logger.Info("submission sent to telegram", "submission_id", sub.ID, "telegram_msg_id", msg.ID)
	return nil
}

// defaultHandler handles unknown messages
func (b *Bot) defaultHandler(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	if update.Message.Text != "" && update.Message.Text[0] == '/' {
		b.logger.Debug("unknown command", "text", update.Message.Text)
	}
}
