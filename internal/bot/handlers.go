package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/example/translatebot/internal/practice"
	"github.com/example/translatebot/pkg/models"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// handleMessage routes commands, menu labels and free text
func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) error {
	if message.From == nil || message.Chat == nil {
		return nil
	}
	if message.IsCommand() {
		return b.handleCommand(ctx, message)
	}

	text := strings.TrimSpace(message.Text)
	switch {
	case strings.HasPrefix(text, labelContentSetPrefix):
		name := strings.TrimSpace(strings.TrimPrefix(text, labelContentSetPrefix))
		return b.handleSwitchContentSet(ctx, message.Chat.ID, message.From.ID, name)
	case text == labelRequestItem:
		return b.handleRequestItem(ctx, message.Chat.ID, message.From.ID)
	case text == labelStatistics:
		return b.handleStatistics(ctx, message.Chat.ID, message.From.ID)
	case text == "":
		// Stickers, photos and the like carry no attempt
		return nil
	default:
		return b.handleAttempt(ctx, message.Chat.ID, message.From.ID)
	}
}

// handleCommand handles bot commands
func (b *Bot) handleCommand(ctx context.Context, message *tgbotapi.Message) error {
	switch message.Command() {
	case "start", "menu":
		return b.handleStart(ctx, message)
	case "help":
		return b.send(message.Chat.ID, textHelp, nil)
	case "stats":
		return b.handleStatistics(ctx, message.Chat.ID, message.From.ID)
	case "notify":
		return b.handleNotify(ctx, message)
	default:
		return b.send(message.Chat.ID, textUnknownCommand, nil)
	}
}

func (b *Bot) handleStart(ctx context.Context, message *tgbotapi.Message) error {
	user := &models.User{
		ID:        message.From.ID,
		Username:  message.From.UserName,
		FirstName: message.From.FirstName,
		LastName:  message.From.LastName,
	}
	if err := b.users.Upsert(ctx, user); err != nil {
		return fmt.Errorf("failed to register user: %w", err)
	}

	name, err := b.practice.Start(ctx, message.From.ID)
	if err != nil {
		return b.replyError(message.Chat.ID, err)
	}
	return b.send(message.Chat.ID, greetingText(name), b.menu())
}

func (b *Bot) handleSwitchContentSet(ctx context.Context, chatID, userID int64, name string) error {
	err := b.practice.SwitchContentSet(ctx, userID, name)
	if errors.Is(err, practice.ErrUnknownContentSet) {
		return b.send(chatID, textUnknownSet, b.menu())
	}
	if err != nil {
		return b.replyError(chatID, err)
	}
	return b.send(chatID, contentSetSelectedText(name), b.menu())
}

func (b *Bot) handleRequestItem(ctx context.Context, chatID, userID int64) error {
	item, err := b.practice.RequestItem(ctx, userID)
	if err != nil {
		return b.replyError(chatID, err)
	}
	if item.Exhausted {
		return b.send(chatID, textExhausted, b.menu())
	}
	return b.send(chatID, itemPromptText(item.Source), b.menu())
}

func (b *Bot) handleAttempt(ctx context.Context, chatID, userID int64) error {
	attempt, err := b.practice.SubmitAttempt(ctx, userID)
	if err != nil {
		return b.replyError(chatID, err)
	}
	if !attempt.Pending {
		// Free text without a pending item is ignored
		return nil
	}
	if err := b.send(chatID, revealText(attempt.Target), nil); err != nil {
		return err
	}
	return b.send(chatID, textAssessQuestion, assessmentKeyboard())
}

func (b *Bot) handleStatistics(ctx context.Context, chatID, userID int64) error {
	stats, err := b.practice.Statistics(ctx, userID)
	if err != nil {
		return b.replyError(chatID, err)
	}
	return b.send(chatID, statisticsText(stats), b.menu())
}

func (b *Bot) handleNotify(ctx context.Context, message *tgbotapi.Message) error {
	var enabled bool
	switch strings.ToLower(strings.TrimSpace(message.CommandArguments())) {
	case "on":
		enabled = true
	case "off":
		enabled = false
	default:
		return b.send(message.Chat.ID, textNotifyUsage, nil)
	}

	err := b.users.SetNotifications(ctx, message.From.ID, enabled)
	if err != nil {
		b.log.Warn("failed to update notifications", "user_id", message.From.ID, "error", err)
		return b.send(message.Chat.ID, textNotifyNeedsStart, nil)
	}
	if enabled {
		return b.send(message.Chat.ID, textNotifyOn, nil)
	}
	return b.send(message.Chat.ID, textNotifyOff, nil)
}

// handleCallbackQuery handles callback queries from inline buttons
func (b *Bot) handleCallbackQuery(ctx context.Context, callback *tgbotapi.CallbackQuery) error {
	if callback.From == nil || callback.Message == nil || callback.Message.Chat == nil {
		return b.answerCallback(callback.ID, "")
	}
	userID := callback.From.ID
	chatID := callback.Message.Chat.ID

	switch callback.Data {
	case callbackMarkCorrect, callbackMarkIncorrect:
		return b.handleAssessment(ctx, callback, chatID, userID)
	case callbackNextItem:
		if err := b.answerCallback(callback.ID, ""); err != nil {
			b.log.Warn("failed to answer callback", "callback_id", callback.ID, "error", err)
		}
		return b.handleRequestItem(ctx, chatID, userID)
	default:
		return b.answerCallback(callback.ID, "")
	}
}

func (b *Bot) handleAssessment(ctx context.Context, callback *tgbotapi.CallbackQuery, chatID, userID int64) error {
	var (
		result practice.AssessmentResult
		err    error
		toast  string
	)
	if callback.Data == callbackMarkCorrect {
		result, err = b.practice.MarkCorrect(ctx, userID)
		toast = textMarkedCorrect
	} else {
		result, err = b.practice.MarkIncorrect(ctx, userID)
		toast = textMarkedIncorrect
	}
	if err != nil {
		_ = b.answerCallback(callback.ID, "")
		return b.replyError(chatID, err)
	}
	if !result.Applied {
		toast = textNothingPending
	}

	edit := tgbotapi.NewEditMessageReplyMarkup(chatID, callback.Message.MessageID, emptyInlineKeyboard())
	if _, err := b.sender.Request(edit); err != nil {
		b.log.Warn("failed to remove assessment buttons", "chat_id", chatID, "error", err)
	}
	if err := b.answerCallback(callback.ID, toast); err != nil {
		return err
	}
	return b.send(chatID, textNextQuestion, nextItemKeyboard())
}

func (b *Bot) answerCallback(id, text string) error {
	if _, err := b.sender.Request(tgbotapi.NewCallback(id, text)); err != nil {
		return fmt.Errorf("answer callback: %w", err)
	}
	return nil
}

// replyError tells the user what went wrong and returns unexpected errors for logging
func (b *Bot) replyError(chatID int64, err error) error {
	if errors.Is(err, practice.ErrNoContent) {
		return b.send(chatID, textNoContent, nil)
	}
	if sendErr := b.send(chatID, textInternalError, nil); sendErr != nil {
		b.log.Warn("failed to report error", "chat_id", chatID, "error", sendErr)
	}
	return err
}

func (b *Bot) menu() tgbotapi.ReplyKeyboardMarkup {
	return mainMenuKeyboard(b.practice.ContentSets())
}
