package telegram

import (
	"context"
	"errors"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/khdigital94/hdforms/internal/admin"
	"github.com/khdigital94/hdforms/internal/formatter"
	appmodels "github.com/khdigital94/hdforms/pkg/models"
)

// handleStart handles /start command
func (b *Bot) handleStart(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleHelp(ctx, tgBot, update)
}

// handleHelp handles /help command
func (b *Bot) handleHelp(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	msg := update.Message

	text := `<b>HD Forms</b>

Neue Formularanfragen werden in diesen Chat gesendet.

<b>Befehle:</b>
/stats - Anzahl der Anfragen anzeigen

Mit den Buttons unter einer Anfrage kann sie als gelesen markiert oder gelöscht werden.`

	b.reply(ctx, msg, text)
}

// handleStats handles /stats command
func (b *Bot) handleStats(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	msg := update.Message

	if msg.Chat.ID != b.chatID {
		return
	}

	counts, err := b.console.Counts(ctx)
	if err != nil {
		b.logger.Error("failed to count submissions", "error", err)
		b.reply(ctx, msg, "Fehler beim Laden der Statistik")
		return
	}

	b.reply(ctx, msg, b.formatter.FormatStats(counts.Total, counts.Unread, counts.Today))
}

// handleCallback handles inline button callbacks
func (b *Bot) handleCallback(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	callback := update.CallbackQuery
	if callback == nil {
		return
	}

	chatID, msgID, ok := callbackTarget(callback)
	if !ok || chatID != b.chatID {
		b.answerCallback(ctx, callback.ID, "Unbekannter Chat")
		return
	}

	// in groups only administrators may act on submissions
	if chatID < 0 {
		isAdmin, err := b.isUserAdmin(ctx, chatID, callback.From.ID)
		if err != nil {
			b.logger.Error("failed to check admin status", "error", err)
			b.answerCallback(ctx, callback.ID, "Fehler bei der Rechteprüfung")
			return
		}
		if !isAdmin {
			b.answerCallback(ctx, callback.ID, "Nur Administratoren")
			return
		}
	}

	data, err := formatter.DecodeCallback(callback.Data)
	if err != nil {
		b.logger.Error("failed to decode callback", "error", err, "data", callback.Data)
		b.answerCallback(ctx, callback.ID, "Fehler")
		return
	}

	switch data.Action {
	case appmodels.CallbackMarkRead:
		b.handleMarkRead(ctx, callback, chatID, msgID, data)
	case appmodels.CallbackDelete:
		b.handleDelete(ctx, callback, chatID, msgID, data)
	default:
		b.answerCallback(ctx, callback.ID, "Unbekannte Aktion")
	}
}

// handleMarkRead handles mark as read callback
func (b *Bot) handleMarkRead(ctx context.Context, callback *models.CallbackQuery, chatID int64, msgID int, data appmodels.CallbackData) {
	if err := b.console.MarkRead(ctx, data.SubmissionID); err != nil {
		if errors.Is(err, admin.ErrNotFound) {
			b.answerCallback(ctx, callback.ID, "Anfrage nicht gefunden")
			return
		}
		b.logger.Error("failed to mark submission as read", "error", err)
		b.answerCallback(ctx, callback.ID, "Fehler beim Speichern")
		return
	}

	keyboard := formatter.BuildSubmissionKeyboard(data.SubmissionID, true)
	if err := b.editKeyboard(ctx, chatID, msgID, keyboard); err != nil {
		b.logger.Warn("failed to update keyboard", "error", err)
	}

	b.answerCallback(ctx, callback.ID, "Als gelesen markiert")
}

// handleDelete handles delete callback
func (b *Bot) handleDelete(ctx context.Context, callback *models.CallbackQuery, chatID int64, msgID int, data appmodels.CallbackData) {
	removed, err := b.console.Delete(ctx, data.SubmissionID)
	if err != nil && !errors.Is(err, admin.ErrNotFound) {
		b.logger.Error("failed to delete submission", "error", err)
		b.answerCallback(ctx, callback.ID, "Fehler beim Löschen")
		return
	}

	if err := b.deleteMessage(ctx, chatID, msgID); err != nil {
		b.logger.Warn("failed to delete telegram message", "error", err)
	}

	b.logger.Info("submission deleted via telegram", "submission_id", data.SubmissionID, "files", removed)
	b.answerCallback(ctx, callback.ID, "Anfrage gelöscht")
}

// callbackTarget returns the chat and message a callback button belongs to
func callbackTarget(cb *models.CallbackQuery) (int64, int, bool) {
	switch {
	case cb.Message.Message != nil:
		return cb.Message.Message.Chat.ID, cb.Message.Message.ID, true
	case cb.Message.InaccessibleMessage != nil:
		return cb.Message.InaccessibleMessage.Chat.ID, cb.Message.InaccessibleMessage.MessageID, true
	default:
		return 0, 0, false
	}
}
