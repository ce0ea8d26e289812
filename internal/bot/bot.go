package bot

import (
	"context"
	"fmt"
	"sync"

	"github.com/example/translatebot/internal/logger"
	"github.com/example/translatebot/internal/practice"
	"github.com/example/translatebot/pkg/models"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// sender is the part of the Telegram API the handlers talk to
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// UserRepository stores the Telegram profile and reminder preference of users
type UserRepository interface {
	Upsert(ctx context.Context, user *models.User) error
	SetNotifications(ctx context.Context, id int64, enabled bool) error
}

// Bot represents the Telegram bot application
type Bot struct {
	api      *tgbotapi.BotAPI
	sender   sender
	practice *practice.Service
	users    UserRepository
	config   *BotConfig
	log      *logger.Logger

	handlers sync.WaitGroup
}

// New creates a bot and authorizes it against the Telegram API
func New(token string, svc *practice.Service, users UserRepository, config *BotConfig, log *logger.Logger) (*Bot, error) {
	if config == nil {
		config = DefaultConfig()
	}
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("unable to create bot: %w", err)
	}
	api.Debug = config.Debug
	log.Info("authorized on account", "username", api.Self.UserName)

	return &Bot{
		api:      api,
		sender:   api,
		practice: svc,
		users:    users,
		config:   config,
		log:      log.With("component", "bot"),
	}, nil
}

// Start polls for updates until ctx is cancelled or polling is stopped.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = b.config.UpdateTimeout

	updates := b.api.GetUpdatesChan(updateConfig)
	b.log.Info("polling for updates", "timeout", updateConfig.Timeout)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.dispatch(ctx, update)
		}
	}
}

// dispatch handles an update on its own goroutine. The handler context is not
// cancelled with the polling context; Stop waits for in-flight handlers.
func (b *Bot) dispatch(ctx context.Context, update tgbotapi.Update) {
	handlerCtx := context.WithoutCancel(ctx)
	b.handlers.Add(1)
	go func() {
		defer b.handlers.Done()
		b.handleUpdate(handlerCtx, update)
	}()
}

// Stop stops polling and waits for in-flight handlers
func (b *Bot) Stop(ctx context.Context) error {
	if b.api != nil {
		b.api.StopReceivingUpdates()
	}

	done := make(chan struct{})
	go func() {
		b.handlers.Wait()
		close(done)
	}()

	select {
	case <-done:
		b.log.Info("bot stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for handlers: %w", ctx.Err())
	}
}

// handleUpdate handles incoming updates from Telegram
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("panic while handling update", "update_id", update.UpdateID, "panic", r)
		}
	}()

	var err error
	switch {
	case update.Message != nil:
		err = b.handleMessage(ctx, update.Message)
	case update.CallbackQuery != nil:
		err = b.handleCallbackQuery(ctx, update.CallbackQuery)
	default:
		return
	}
	if err != nil {
		b.log.Error("failed to handle update", "update_id", update.UpdateID, "error", err)
	}
}

// SendReminder implements the scheduler.Notifier interface
func (b *Bot) SendReminder(ctx context.Context, userID int64, outstanding []models.SetStatistics) error {
	// Telegram private chat IDs equal user IDs
	msg := tgbotapi.NewMessage(userID, reminderText(outstanding))
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = mainMenuKeyboard(b.practice.ContentSets())
	if _, err := b.sender.Send(msg); err != nil {
		return fmt.Errorf("send reminder to %d: %w", userID, err)
	}
	b.log.Info("reminder sent", "user_id", userID, "content_sets", len(outstanding))
	return nil
}

func (b *Bot) send(chatID int64, text string, markup interface{}) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if markup != nil {
		msg.ReplyMarkup = markup
	}
	if _, err := b.sender.Send(msg); err != nil {
		return fmt.Errorf("send message to %d: %w", chatID, err)
	}
	return nil
}
