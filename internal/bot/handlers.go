package bot

import (
	"context"
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"dedup_bot/internal/dedup"
	"dedup_bot/internal/model"
)

func (b *Bot) handleStart(chatID int64) {
	b.reply(chatID, startText)
}

func (b *Bot) handleHelp(chatID int64) {
	b.reply(chatID, helpText)
}

// handleGroupMessage evaluates a regular group message for duplicates and
// acts on the verdict.
func (b *Bot) handleGroupMessage(ctx context.Context, msg *tgbotapi.Message) {
	in, ok := incomingFrom(msg)
	if !ok {
		return
	}

	if in.Kind == model.KindText && hasCommandEntity(msg) && b.cfg.AllowDuplicateCommands {
		return
	}

	verdict, err := b.detector.Evaluate(ctx, in)
	if err != nil {
		// Indeterminate exemption status or a failed store transaction:
		// leave the message unprocessed rather than delete under uncertainty.
		b.log.Error("evaluate message", "chat_id", msg.Chat.ID, "message_id", msg.MessageID, "error", err)
		return
	}

	// A captioned media message is additionally logged under the text kind,
	// so the caption can later match a plain text message and vice versa.
	// Only the media verdict drives the reaction.
	if in.Kind.IsMedia() && in.NormalizedText != nil {
		textIn := in
		textIn.Kind = model.KindText
		textIn.MediaKey = nil
		if _, err := b.detector.Evaluate(ctx, textIn); err != nil {
			b.log.Error("evaluate caption as text", "chat_id", msg.Chat.ID, "message_id", msg.MessageID, "error", err)
		}
	}

	reaction := dedup.React(verdict, b.cfg.AllowRepeatingWarnings)
	if reaction.ShouldWarn {
		b.sendWarning(msg.Chat.ID, reaction.WarningText)
	}
	if reaction.ShouldDelete {
		b.deleteMessage(msg.Chat.ID, msg.MessageID)
	}
}

func (b *Bot) handleExcept(ctx context.Context, msg *tgbotapi.Message) {
	if !b.cfg.IsAdmin(msg.From.ID) {
		return
	}

	target, err := ParseTargetArg(msg.CommandArguments())
	if err != nil {
		b.reply(msg.Chat.ID, "Usage: /except <user id>. Use @getidsbot to get a user id from a message.")
		return
	}

	if err := b.store.AddExemption(ctx, target); err != nil {
		b.log.Error("add exemption", "sender_id", target, "error", err)
		b.reply(msg.Chat.ID, fmt.Sprintf("Failed to add exception: %v", err))
		return
	}
	b.reply(msg.Chat.ID, fmt.Sprintf("Added %s to exceptions", target))
}

func (b *Bot) handleForceDelete(ctx context.Context, msg *tgbotapi.Message) {
	if !b.cfg.IsAdmin(msg.From.ID) {
		return
	}

	target, err := ParseTargetArg(msg.CommandArguments())
	if err != nil {
		b.reply(msg.Chat.ID, "Usage: /delete <message id>.")
		return
	}

	if _, err := b.store.DeleteByPlatformID(ctx, target); err != nil {
		b.log.Error("delete logged message", "message_id", target, "error", err)
		b.reply(msg.Chat.ID, fmt.Sprintf("Failed to delete message %s: %v", target, err))
		return
	}

	if id, err := strconv.Atoi(target); err == nil {
		b.deleteMessage(msg.Chat.ID, id)
	}
	b.reply(msg.Chat.ID, fmt.Sprintf("Message %s has been deleted", target))
}

// sendWarning posts the duplicate warning with the HTML sender mention.
func (b *Bot) sendWarning(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("send warning", "chat_id", chatID, "error", err)
	}
}

// deleteMessage removes a message best-effort; failures are logged only.
func (b *Bot) deleteMessage(chatID int64, messageID int) {
	if _, err := b.api.Request(tgbotapi.NewDeleteMessage(chatID, messageID)); err != nil {
		b.log.Error("delete message", "chat_id", chatID, "message_id", messageID, "error", err)
	}
}

// incomingFrom maps a Telegram message onto a detector input. It returns
// false for content types the detector does not inspect.
func incomingFrom(msg *tgbotapi.Message) (dedup.Incoming, bool) {
	in := dedup.Incoming{
		ChatID:            msg.Chat.ID,
		PlatformMessageID: strconv.Itoa(msg.MessageID),
		SenderID:          strconv.FormatInt(msg.From.ID, 10),
		SenderName:        msg.From.FirstName,
	}

	switch {
	case len(msg.Photo) > 0:
		in.Kind = model.KindPhoto
		in.MediaKey = ptr(msg.Photo[0].FileUniqueID)
		in.NormalizedText = optional(msg.Caption)
	case msg.Video != nil:
		in.Kind = model.KindVideo
		in.MediaKey = ptr(strconv.Itoa(msg.Video.FileSize))
		in.NormalizedText = optional(msg.Caption)
	case msg.Animation != nil:
		in.Kind = model.KindAnimation
		in.MediaKey = ptr(strconv.Itoa(msg.Animation.FileSize))
		in.NormalizedText = optional(msg.Caption)
	case msg.Text != "":
		in.Kind = model.KindText
		in.NormalizedText = ptr(msg.Text)
	default:
		return dedup.Incoming{}, false
	}
	return in, true
}

func hasCommandEntity(msg *tgbotapi.Message) bool {
	for _, e := range msg.Entities {
		if e.Type == "bot_command" {
			return true
		}
	}
	return false
}

func ptr(s string) *string {
	return &s
}

// optional treats an empty Telegram caption as absent.
func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
