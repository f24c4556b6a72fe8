package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"dedup_bot/internal/config"
	"dedup_bot/internal/dedup"
	"dedup_bot/internal/storage"
)

type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetChatAdministrators(config tgbotapi.ChatAdministratorsConfig) ([]tgbotapi.ChatMember, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Bot is the Telegram bot that watches group chats and moderates duplicate
// messages.
type Bot struct {
	api      telegramAPI
	store    storage.Storage
	detector *dedup.Detector
	cfg      *config.Config
	log      *slog.Logger
}

// New creates a Bot with the given Telegram token, storage, and config.
func New(token string, store storage.Storage, cfg *config.Config, log *slog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	return &Bot{
		api:      api,
		store:    store,
		detector: dedup.NewDetector(store, &chatAdminOracle{api: api}, cfg.ResetPeriod, log),
		cfg:      cfg,
		log:      log,
	}, nil
}

// Run starts the bot's long-polling loop, blocking until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update := <-updates:
			if update.Message == nil || update.Message.From == nil {
				continue
			}
			b.handleMessage(ctx, update.Message)
		}
	}
}

// SendMessage sends a text message to the given chat.
func (b *Bot) SendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableWebPagePreview = true
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("send message", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) reply(chatID int64, text string) {
	b.SendMessage(chatID, text)
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if !msg.Chat.IsGroup() && !msg.Chat.IsSuperGroup() {
		if msg.IsCommand() && msg.Command() == "start" {
			b.handleStart(msg.Chat.ID)
			return
		}
		b.reply(msg.Chat.ID, fallbackText)
		return
	}

	switch msg.Command() {
	case "start":
		b.handleStart(msg.Chat.ID)
		return
	case "help":
		b.handleHelp(msg.Chat.ID)
		return
	case "except":
		b.handleExcept(ctx, msg)
		return
	case "delete":
		b.handleForceDelete(ctx, msg)
		return
	}

	b.handleGroupMessage(ctx, msg)
}

// chatAdminOracle resolves the admin set of a chat through the Telegram API.
// The list is fetched per evaluation; a caching implementation can replace
// it behind the same interface.
type chatAdminOracle struct {
	api telegramAPI
}

func (o *chatAdminOracle) GetAdminIDs(_ context.Context, chatID int64) (map[string]struct{}, error) {
	members, err := o.api.GetChatAdministrators(tgbotapi.ChatAdministratorsConfig{
		ChatConfig: tgbotapi.ChatConfig{ChatID: chatID},
	})
	if err != nil {
		return nil, fmt.Errorf("get chat administrators: %w", err)
	}

	ids := make(map[string]struct{}, len(members))
	for _, m := range members {
		if m.User != nil {
			ids[strconv.FormatInt(m.User.ID, 10)] = struct{}{}
		}
	}
	return ids, nil
}
