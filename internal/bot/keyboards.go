package bot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Menu labels double as the commands the bot recognises in plain text
const (
	labelContentSetPrefix = "Словарь: "
	labelRequestItem      = "Выдать текст"
	labelStatistics       = "📊 Статистика"
)

// Constants for callback data
const (
	callbackMarkCorrect   = "mark_correct"
	callbackMarkIncorrect = "mark_incorrect"
	callbackNextItem      = "next_text"
)

// mainMenuKeyboard has one button per content set, then the item and statistics buttons
func mainMenuKeyboard(contentSets []string) tgbotapi.ReplyKeyboardMarkup {
	rows := make([][]tgbotapi.KeyboardButton, 0, len(contentSets)+2)
	for _, name := range contentSets {
		rows = append(rows, tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(labelContentSetPrefix+name)))
	}
	rows = append(rows,
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(labelRequestItem)),
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(labelStatistics)),
	)
	keyboard := tgbotapi.NewReplyKeyboard(rows...)
	keyboard.ResizeKeyboard = true
	return keyboard
}

func assessmentKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("✅ Да", callbackMarkCorrect)),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("❌ Нет", callbackMarkIncorrect)),
	)
}

func nextItemKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("➡️ Отправить следующий текст", callbackNextItem)),
	)
}

func emptyInlineKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.InlineKeyboardMarkup{InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{}}
}
