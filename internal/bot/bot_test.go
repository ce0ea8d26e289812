package bot

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/example/translatebot/internal/content"
	"github.com/example/translatebot/internal/database"
	"github.com/example/translatebot/internal/logger"
	"github.com/example/translatebot/internal/practice"
	"github.com/example/translatebot/pkg/models"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

type recordingSender struct {
	mu       sync.Mutex
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
	sendErr  error
}

func (s *recordingSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sendErr != nil {
		return tgbotapi.Message{}, s.sendErr
	}
	s.sent = append(s.sent, c)
	return tgbotapi.Message{MessageID: len(s.sent)}, nil
}

func (s *recordingSender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (s *recordingSender) messages(t *testing.T) []tgbotapi.MessageConfig {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]tgbotapi.MessageConfig, 0, len(s.sent))
	for _, c := range s.sent {
		msg, ok := c.(tgbotapi.MessageConfig)
		require.True(t, ok, "unexpected chattable %T", c)
		out = append(out, msg)
	}
	return out
}

func (s *recordingSender) last(t *testing.T) tgbotapi.MessageConfig {
	t.Helper()
	msgs := s.messages(t)
	require.NotEmpty(t, msgs)
	return msgs[len(msgs)-1]
}

func (s *recordingSender) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = nil
	s.requests = nil
}

var philosophy = []models.Item{
	{Source: "Know thyself", Target: "Познай самого себя"},
	{Source: "Everything flows", Target: "Всё течёт"},
	{Source: "I think, therefore I am", Target: "Мыслю, следовательно, существую"},
}

type testBot struct {
	*Bot
	sender *recordingSender
	store  *database.MemoryStore
}

func newTestBot(t *testing.T, sets map[string][]models.Item) *testBot {
	t.Helper()
	store := database.NewMemoryStore()
	svc := practice.NewService(content.NewStore(sets, language.English), store, logger.NewNop(),
		practice.WithRand(rand.New(rand.NewSource(3))))
	s := &recordingSender{}
	return &testBot{
		Bot: &Bot{
			sender:   s,
			practice: svc,
			users:    store,
			config:   DefaultConfig(),
			log:      logger.NewNop(),
		},
		sender: s,
		store:  store,
	}
}

const userID = int64(500)

func textUpdate(text string) tgbotapi.Update {
	msg := &tgbotapi.Message{
		MessageID: 1,
		From:      &tgbotapi.User{ID: userID, UserName: "seneca", FirstName: "Lucius"},
		Chat:      &tgbotapi.Chat{ID: userID},
		Text:      text,
	}
	if strings.HasPrefix(text, "/") {
		cmd := strings.SplitN(text, " ", 2)[0]
		msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(cmd)}}
	}
	return tgbotapi.Update{Message: msg}
}

func callbackUpdate(data string) tgbotapi.Update {
	return tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:   "cb-1",
		From: &tgbotapi.User{ID: userID},
		Message: &tgbotapi.Message{
			MessageID: 42,
			Chat:      &tgbotapi.Chat{ID: userID},
		},
		Data: data,
	}}
}

func menuLabels(t *testing.T, markup interface{}) []string {
	t.Helper()
	keyboard, ok := markup.(tgbotapi.ReplyKeyboardMarkup)
	require.True(t, ok, "expected reply keyboard, got %T", markup)
	var labels []string
	for _, row := range keyboard.Keyboard {
		for _, button := range row {
			labels = append(labels, button.Text)
		}
	}
	return labels
}

func inlineData(t *testing.T, markup interface{}) []string {
	t.Helper()
	keyboard, ok := markup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok, "expected inline keyboard, got %T", markup)
	var data []string
	for _, row := range keyboard.InlineKeyboard {
		for _, button := range row {
			require.NotNil(t, button.CallbackData)
			data = append(data, *button.CallbackData)
		}
	}
	return data
}

func TestStart_GreetsWithMenu(t *testing.T) {
	b := newTestBot(t, map[string][]models.Item{"Philosophy": philosophy, "Logic": philosophy[:1]})
	ctx := context.Background()

	b.handleUpdate(ctx, textUpdate("/start"))

	msg := b.sender.last(t)
	assert.Equal(t, userID, msg.ChatID)
	assert.Equal(t, tgbotapi.ModeHTML, msg.ParseMode)
	assert.Contains(t, msg.Text, "Текущий словарь: <b>Logic</b>")
	assert.Equal(t, []string{"Словарь: Logic", "Словарь: Philosophy", "Выдать текст", "📊 Статистика"}, menuLabels(t, msg.ReplyMarkup))

	user, err := b.store.GetByID(ctx, userID)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "seneca", user.Username)

	p, err := b.store.Find(ctx, userID, "Logic")
	require.NoError(t, err)
	assert.NotNil(t, p)
}

func TestStart_NoContent(t *testing.T) {
	b := newTestBot(t, nil)
	b.handleUpdate(context.Background(), textUpdate("/start"))
	assert.Equal(t, textNoContent, b.sender.last(t).Text)
}

func TestFullPracticeRound(t *testing.T) {
	b := newTestBot(t, map[string][]models.Item{"Philosophy": philosophy})
	ctx := context.Background()

	b.handleUpdate(ctx, textUpdate("Выдать текст"))
	prompt := b.sender.last(t)
	require.Contains(t, prompt.Text, "<b>Переведите следующий текст:</b>")

	p, err := b.store.Find(ctx, userID, "Philosophy")
	require.NoError(t, err)
	idx, ok := p.Position.Current()
	require.True(t, ok)
	assert.Contains(t, prompt.Text, philosophy[idx].Source)

	b.sender.reset()
	b.handleUpdate(ctx, textUpdate("my attempt"))
	msgs := b.sender.messages(t)
	require.Len(t, msgs, 2)
	assert.Equal(t, "<b>Оригинальный перевод:</b>\n\n"+philosophy[idx].Target, msgs[0].Text)
	assert.Equal(t, textAssessQuestion, msgs[1].Text)
	assert.Equal(t, []string{callbackMarkCorrect, callbackMarkIncorrect}, inlineData(t, msgs[1].ReplyMarkup))

	b.sender.reset()
	b.handleUpdate(ctx, callbackUpdate(callbackMarkCorrect))
	require.Len(t, b.sender.requests, 2)
	edit, ok := b.sender.requests[0].(tgbotapi.EditMessageReplyMarkupConfig)
	require.True(t, ok)
	assert.Equal(t, 42, edit.MessageID)
	answer, ok := b.sender.requests[1].(tgbotapi.CallbackConfig)
	require.True(t, ok)
	assert.Equal(t, textMarkedCorrect, answer.Text)
	next := b.sender.last(t)
	assert.Equal(t, textNextQuestion, next.Text)
	assert.Equal(t, []string{callbackNextItem}, inlineData(t, next.ReplyMarkup))

	p, err = b.store.Find(ctx, userID, "Philosophy")
	require.NoError(t, err)
	assert.Equal(t, []int{idx}, p.Seen)
	assert.Len(t, p.Unseen, 2)
	assert.True(t, p.Position.IsIdle())

	b.sender.reset()
	b.handleUpdate(ctx, textUpdate("📊 Статистика"))
	assert.Equal(t, "📊 <b>Ваша статистика по всем словарям:</b>\n\n<b>Philosophy</b>:\nПройдено: <b>1</b>\nОсталось: <b>2</b>\nВсего: <b>3</b>",
		b.sender.last(t).Text)
}

func TestFreeTextWhileIdleIsIgnored(t *testing.T) {
	b := newTestBot(t, map[string][]models.Item{"Philosophy": philosophy})
	b.handleUpdate(context.Background(), textUpdate("hello there"))
	assert.Empty(t, b.sender.messages(t))
}

func TestMarkIncorrectOffersNextItem(t *testing.T) {
	b := newTestBot(t, map[string][]models.Item{"Philosophy": philosophy})
	ctx := context.Background()

	b.handleUpdate(ctx, textUpdate("Выдать текст"))
	b.sender.reset()
	b.handleUpdate(ctx, callbackUpdate(callbackMarkIncorrect))

	answer, ok := b.sender.requests[1].(tgbotapi.CallbackConfig)
	require.True(t, ok)
	assert.Equal(t, textMarkedIncorrect, answer.Text)

	p, err := b.store.Find(ctx, userID, "Philosophy")
	require.NoError(t, err)
	assert.Empty(t, p.Seen)
	assert.Len(t, p.Unseen, 3)

	b.sender.reset()
	b.handleUpdate(ctx, callbackUpdate(callbackNextItem))
	assert.Contains(t, b.sender.last(t).Text, "Переведите следующий текст")
}

type brokenProgress struct {
	*database.MemoryStore
}

func (brokenProgress) ContentSetsByRecency(context.Context, int64) ([]string, error) {
	return nil, errors.New("database is locked")
}

func TestNextItemCallbackAnsweredOnFailure(t *testing.T) {
	b := newTestBot(t, map[string][]models.Item{"Philosophy": philosophy})
	b.practice = practice.NewService(content.NewStore(map[string][]models.Item{"Philosophy": philosophy}, language.English),
		brokenProgress{b.store}, logger.NewNop())

	b.handleUpdate(context.Background(), callbackUpdate(callbackNextItem))

	require.Len(t, b.sender.requests, 1)
	answer, ok := b.sender.requests[0].(tgbotapi.CallbackConfig)
	require.True(t, ok)
	assert.Equal(t, "cb-1", answer.CallbackQueryID)
	assert.Equal(t, textInternalError, b.sender.last(t).Text)
}

// usersHonouringContext fails like a real database once ctx is cancelled.
type usersHonouringContext struct {
	*database.MemoryStore
}

func (u usersHonouringContext) Upsert(ctx context.Context, user *models.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return u.MemoryStore.Upsert(ctx, user)
}

func TestDispatchedHandlersSurviveShutdown(t *testing.T) {
	b := newTestBot(t, map[string][]models.Item{"Philosophy": philosophy})
	b.users = usersHonouringContext{b.store}

	pollCtx, cancel := context.WithCancel(context.Background())
	cancel()
	b.dispatch(pollCtx, textUpdate("/start"))

	stopCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	require.NoError(t, b.Stop(stopCtx))

	assert.Equal(t, greetingText("Philosophy"), b.sender.last(t).Text)
	u, err := b.store.GetByID(context.Background(), userID)
	require.NoError(t, err)
	assert.NotNil(t, u)
}

func TestExhaustedSet(t *testing.T) {
	b := newTestBot(t, map[string][]models.Item{"Tiny": philosophy[:1]})
	ctx := context.Background()

	b.handleUpdate(ctx, textUpdate("Выдать текст"))
	b.handleUpdate(ctx, callbackUpdate(callbackMarkCorrect))
	b.sender.reset()

	b.handleUpdate(ctx, callbackUpdate(callbackNextItem))
	assert.Equal(t, textExhausted, b.sender.last(t).Text)
}

func TestSwitchContentSet(t *testing.T) {
	b := newTestBot(t, map[string][]models.Item{"Philosophy": philosophy, "Logic": philosophy[:1]})
	ctx := context.Background()

	b.handleUpdate(ctx, textUpdate("Словарь: Philosophy"))
	assert.Equal(t, "✅ Словарь <b>Philosophy</b> выбран!", b.sender.last(t).Text)

	b.handleUpdate(ctx, textUpdate("Словарь: Ontology"))
	assert.Equal(t, textUnknownSet, b.sender.last(t).Text)

	name, err := b.practice.ActiveContentSet(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "Philosophy", name)
}

func TestContentIsEscaped(t *testing.T) {
	b := newTestBot(t, map[string][]models.Item{"Tags": {{Source: "a <b> tag", Target: "x"}}})
	b.handleUpdate(context.Background(), textUpdate("Выдать текст"))
	assert.Contains(t, b.sender.last(t).Text, "a &lt;b&gt; tag")
}

func TestNotifyCommand(t *testing.T) {
	b := newTestBot(t, map[string][]models.Item{"Philosophy": philosophy})
	ctx := context.Background()

	b.handleUpdate(ctx, textUpdate("/notify off"))
	assert.Equal(t, textNotifyNeedsStart, b.sender.last(t).Text)

	b.handleUpdate(ctx, textUpdate("/start"))
	ids, err := b.store.ListNotifiable(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids, "reminders are opt-in")

	b.handleUpdate(ctx, textUpdate("/notify on"))
	assert.Equal(t, textNotifyOn, b.sender.last(t).Text)
	ids, err = b.store.ListNotifiable(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{userID}, ids)

	b.handleUpdate(ctx, textUpdate("/notify off"))
	assert.Equal(t, textNotifyOff, b.sender.last(t).Text)
	ids, err = b.store.ListNotifiable(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)

	b.handleUpdate(ctx, textUpdate("/notify on"))
	assert.Equal(t, textNotifyOn, b.sender.last(t).Text)

	b.handleUpdate(ctx, textUpdate("/notify maybe"))
	assert.Equal(t, textNotifyUsage, b.sender.last(t).Text)
}

func TestHelpAndUnknownCommands(t *testing.T) {
	b := newTestBot(t, map[string][]models.Item{"Philosophy": philosophy})
	ctx := context.Background()

	b.handleUpdate(ctx, textUpdate("/help"))
	assert.Equal(t, textHelp, b.sender.last(t).Text)

	b.handleUpdate(ctx, textUpdate("/unknown"))
	assert.Equal(t, textUnknownCommand, b.sender.last(t).Text)
}

func TestSendReminder(t *testing.T) {
	b := newTestBot(t, map[string][]models.Item{"Philosophy": philosophy})
	err := b.SendReminder(context.Background(), 77, []models.SetStatistics{{ContentSet: "Philosophy", Seen: 1, Unseen: 2, Total: 3}})
	require.NoError(t, err)

	msg := b.sender.last(t)
	assert.Equal(t, int64(77), msg.ChatID)
	assert.Contains(t, msg.Text, "<b>Philosophy</b>: 2 из 3")

	b.sender.sendErr = errors.New("blocked by user")
	assert.Error(t, b.SendReminder(context.Background(), 77, nil))
}
