package bot

import (
	"fmt"
	"strings"

	"github.com/example/translatebot/pkg/models"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	textNoContent        = "❌ Нет доступных словарей для работы. Пожалуйста, добавьте хотя бы один файл со структурами переводов в папку."
	textUnknownSet       = "❌ Такой словарь не найден."
	textExhausted        = "🎉 Вы перевели все доступные тексты!"
	textAssessQuestion   = "Вы смогли перевести текст?"
	textNextQuestion     = "Хотите получить следующий текст?"
	textMarkedCorrect    = "Текст отмечен как выученный."
	textMarkedIncorrect  = "Текст будет показан снова позже."
	textNothingPending   = "Нет текста, ожидающего оценки."
	textInternalError    = "⚠️ Что-то пошло не так. Попробуйте ещё раз позже."
	textNotifyOn         = "🔔 Напоминания включены."
	textNotifyOff        = "🔕 Напоминания выключены."
	textNotifyUsage      = "Используйте: /notify on или /notify off"
	textUnknownCommand   = "Неизвестная команда. Отправьте /help, чтобы увидеть список команд."
	textNotifyNeedsStart = "Сначала отправьте /start."
)

const textHelp = "📖 <b>Справка</b>\n\n" +
	"Я присылаю короткие тексты для перевода. Отправьте свой перевод в чат, " +
	"сравните его с оригинальным и отметьте, получилось ли.\n\n" +
	"🔸 Кнопки меню:\n" +
	"• <b>Словарь: …</b> — выбрать набор текстов\n" +
	"• <b>Выдать текст</b> — получить текст для перевода\n" +
	"• <b>📊 Статистика</b> — прогресс по всем словарям\n\n" +
	"🔸 Команды:\n" +
	"/start — показать меню\n" +
	"/stats — статистика\n" +
	"/notify on|off — включить или выключить напоминания\n" +
	"/help — эта справка"

func escape(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeHTML, s)
}

func greetingText(contentSet string) string {
	return fmt.Sprintf("👋 Привет! Я помогу тебе практиковать перевод. Используй меню ниже.\nТекущий словарь: <b>%s</b>", escape(contentSet))
}

func contentSetSelectedText(contentSet string) string {
	return fmt.Sprintf("✅ Словарь <b>%s</b> выбран!", escape(contentSet))
}

func itemPromptText(source string) string {
	return fmt.Sprintf("<b>Переведите следующий текст:</b>\n\n%s\n\n<i>Отправьте свой перевод в чат</i>", escape(source))
}

func revealText(target string) string {
	return fmt.Sprintf("<b>Оригинальный перевод:</b>\n\n%s", escape(target))
}

func statisticsText(stats []models.SetStatistics) string {
	parts := make([]string, 0, len(stats))
	for _, s := range stats {
		parts = append(parts, fmt.Sprintf("<b>%s</b>:\nПройдено: <b>%d</b>\nОсталось: <b>%d</b>\nВсего: <b>%d</b>",
			escape(s.ContentSet), s.Seen, s.Unseen, s.Total))
	}
	return "📊 <b>Ваша статистика по всем словарям:</b>\n\n" + strings.Join(parts, "\n\n")
}

func reminderText(outstanding []models.SetStatistics) string {
	var b strings.Builder
	b.WriteString("⏰ Пора попрактиковаться! Осталось перевести:\n")
	for _, s := range outstanding {
		fmt.Fprintf(&b, "\n<b>%s</b>: %d из %d", escape(s.ContentSet), s.Unseen, s.Total)
	}
	return b.String()
}
