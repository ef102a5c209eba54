package bot

import (
	"context"
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plannr/internal/identity"
	"plannr/internal/model"
	"plannr/internal/service"
	"plannr/internal/storage"
)

const testChat int64 = 42

type fakeAPI struct {
	sent []tgbotapi.Chattable
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, nil
}

func (f *fakeAPI) Request(tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeAPI) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return make(chan tgbotapi.Update)
}

func (f *fakeAPI) StopReceivingUpdates() {}

func (f *fakeAPI) GetFileDirectURL(fileID string) (string, error) {
	return "https://files.example/" + fileID, nil
}

func (f *fakeAPI) lastText(t *testing.T) string {
	t.Helper()
	for i := len(f.sent) - 1; i >= 0; i-- {
		if msg, ok := f.sent[i].(tgbotapi.MessageConfig); ok {
			return msg.Text
		}
	}
	t.Fatal("no message sent")
	return ""
}

func (f *fakeAPI) last() tgbotapi.Chattable {
	return f.sent[len(f.sent)-1]
}

type harness struct {
	ctx     context.Context
	api     *fakeAPI
	store   *storage.Store
	planner *service.Planner
	bot     *Bot
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctx := context.Background()
	now := func() time.Time { return time.Date(2024, time.June, 10, 9, 0, 0, 0, time.UTC) }
	store := storage.New(storage.NewMemoryBackend(), 0)
	require.NoError(t, store.Init(ctx))
	planner := service.NewPlanner(store, identity.NewProvider(ctx, store, now), service.Options{Now: now, Location: time.UTC})
	require.NoError(t, planner.Open(ctx))

	api := &fakeAPI{}
	return &harness{
		ctx:     ctx,
		api:     api,
		store:   store,
		planner: planner,
		bot:     newBot(api, planner, service.NewReminderService(planner), store),
	}
}

func (h *harness) say(t *testing.T, text string) string {
	t.Helper()
	msg := &tgbotapi.Message{
		From: &tgbotapi.User{ID: 7, UserName: "tg_ann", FirstName: "Ann"},
		Chat: &tgbotapi.Chat{ID: testChat, Type: "private"},
		Text: text,
	}
	if strings.HasPrefix(text, "/") {
		cmd := strings.SplitN(text, " ", 2)[0]
		msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(cmd)}}
	}
	h.bot.handleUpdate(h.ctx, tgbotapi.Update{Message: msg})
	return h.api.lastText(t)
}

func (h *harness) press(t *testing.T, data string) {
	t.Helper()
	h.bot.handleUpdate(h.ctx, tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb",
		From:    &tgbotapi.User{ID: 7},
		Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: testChat, Type: "private"}},
		Data:    data,
	}})
}

func TestBot_RequiresLogin(t *testing.T) {
	h := newHarness(t)
	assert.Contains(t, h.say(t, "/today"), "Log in first")
	assert.Contains(t, h.say(t, "/help"), "/newtask")
}

func TestBot_StartLogsInAndRemembersChat(t *testing.T) {
	h := newHarness(t)

	text := h.say(t, "/start ann")
	assert.Contains(t, text, "Hi, ann!")
	require.NotNil(t, h.planner.CurrentUser())
	assert.Equal(t, "ann", h.planner.CurrentUser().Username)
	assert.Equal(t, testChat, storage.Load[int64](h.ctx, h.store, storage.KeyBotChat, 0))

	// Without a name the Telegram username is used.
	require.NoError(t, h.planner.Logout(h.ctx))
	h.say(t, "/start")
	assert.Equal(t, "tg_ann", h.planner.CurrentUser().Username)

	assert.Contains(t, h.say(t, "/start demo_user"), "Hi, Demo User!")
	assert.Contains(t, h.say(t, "/logout"), "Logged out")
	assert.Nil(t, h.planner.CurrentUser())
	assert.False(t, h.store.Has(h.ctx, storage.KeyBotChat))
}

func TestBot_AddCompleteFlow(t *testing.T) {
	h := newHarness(t)
	h.say(t, "/start ann")

	text := h.say(t, "/add Gym <3 | work | today | high")
	assert.Contains(t, text, "Task saved")
	assert.Contains(t, text, "Gym &lt;3")
	tasks := h.planner.TasksForToday()
	require.Len(t, tasks, 1)

	text = h.say(t, "/today")
	assert.Contains(t, text, "Gym &lt;3")
	msg, ok := h.api.last().(tgbotapi.MessageConfig)
	require.True(t, ok)
	markup, ok := msg.ReplyMarkup.(*tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	require.Len(t, markup.InlineKeyboard, 1)
	assert.Equal(t, cbCompletePrefix+tasks[0].ID, *markup.InlineKeyboard[0][0].CallbackData)

	h.press(t, cbCompletePrefix+tasks[0].ID)
	user := h.planner.CurrentUser()
	assert.Equal(t, 1, user.TasksCompleted)
	assert.Empty(t, h.planner.TasksForToday())

	assert.Contains(t, h.say(t, "/done "+service.ShortID(tasks[0].ID)), "already completed")
	assert.Contains(t, h.say(t, "/done nope"), "Task not found")
	assert.Contains(t, h.say(t, "/add | Work"), "title is required")
}

func TestBot_DeleteNeedsConfirmation(t *testing.T) {
	h := newHarness(t)
	h.say(t, "/start ann")
	h.say(t, "/add Old | Home | tomorrow")
	task := h.planner.AllTasks()[0]

	assert.Contains(t, h.say(t, "/delete "+task.ID[:6]), "Delete the task")
	assert.Contains(t, h.say(t, "maybe"), "Confirm or cancel")
	assert.Contains(t, h.say(t, btnCancel), "Nothing was deleted")
	assert.Len(t, h.planner.AllTasks(), 1)

	h.press(t, cbDeletePrefix+task.ID)
	assert.Contains(t, h.say(t, btnConfirm), "deleted")
	assert.Empty(t, h.planner.AllTasks())
}

func TestBot_NewTaskConversation(t *testing.T) {
	h := newHarness(t)
	h.say(t, "/start ann")

	assert.Contains(t, h.say(t, "/newtask"), "Step 1")
	assert.Contains(t, h.say(t, "Write report"), "Step 2")
	assert.Contains(t, h.say(t, btnSkip), "Step 3")
	assert.Contains(t, h.say(t, "Chores"), "Pick one of the categories")
	assert.Contains(t, h.say(t, "work"), "Step 4")
	assert.Contains(t, h.say(t, "30/06"), "cannot read date")
	assert.Contains(t, h.say(t, "tomorrow"), "Step 5")
	assert.Contains(t, h.say(t, "medium"), "Task saved")

	all := h.planner.AllTasks()
	require.Len(t, all, 1)
	assert.Equal(t, "Write report", all[0].Title)
	assert.Empty(t, all[0].Description)
	assert.Equal(t, model.CategoryWork, all[0].Category)
	assert.Equal(t, "2024-06-11", all[0].DueDay().String())
	assert.Equal(t, model.ImportanceMedium, all[0].Importance)
	assert.False(t, h.bot.hasConversation(testChat))
}

func TestBot_CancelDialog(t *testing.T) {
	h := newHarness(t)
	h.say(t, "/start ann")
	h.say(t, "/newtask")
	assert.Contains(t, h.say(t, btnCancelDialog), "cancelled")
	assert.False(t, h.bot.hasConversation(testChat))
	assert.Contains(t, h.say(t, "hello"), "did not get that")
}

func TestBot_ScheduleAndWeek(t *testing.T) {
	h := newHarness(t)
	h.say(t, "/start ann")
	h.say(t, "/add Plan | Friends | 2024-06-13")
	task := h.planner.AllTasks()[0]

	week := h.say(t, "/week 4")
	assert.Contains(t, week, "Next 4 day(s)")
	assert.Contains(t, week, "Thu 13 Jun")
	assert.Contains(t, h.say(t, "/week 99"), "between 1 and 31")

	h.press(t, cbSchedulePrefix+task.ID)
	today := h.planner.TasksForToday()
	require.Len(t, today, 1)
	assert.Equal(t, task.ID, today[0].ID)
}

func TestBot_CategoryAndStats(t *testing.T) {
	h := newHarness(t)
	h.say(t, "/start ann")
	h.say(t, "/add A | Family")

	assert.Contains(t, h.say(t, "/category"), "Family — 1 open")
	assert.Contains(t, h.say(t, "/category family"), "A")
	assert.Contains(t, h.say(t, "/category gym"), "Unknown category")
	stats := h.say(t, "/stats")
	assert.Contains(t, stats, "Statistics")
	assert.Contains(t, stats, "Complete 5 more task(s)")
	assert.Contains(t, h.say(t, menuLabelStats), "Statistics")
}

func TestBot_SendDailyReports(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.bot.SendDailyReports(h.ctx))
	assert.Empty(t, h.api.sent)

	h.say(t, "/start ann")
	h.say(t, "/add Report me | Work")
	h.api.sent = nil

	require.NoError(t, h.bot.SendDailyReports(h.ctx))
	require.Len(t, h.api.sent, 1)
	msg := h.api.sent[0].(tgbotapi.MessageConfig)
	assert.Equal(t, testChat, msg.ChatID)
	assert.Contains(t, msg.Text, "Daily report")
	assert.Contains(t, msg.Text, "Report me")
}

func TestBot_ExportImport(t *testing.T) {
	h := newHarness(t)
	h.say(t, "/start ann")
	h.say(t, "/add Keep me | Home")

	h.say(t, "/export")
	doc, ok := h.api.last().(tgbotapi.DocumentConfig)
	require.True(t, ok)
	file, ok := doc.File.(tgbotapi.FileBytes)
	require.True(t, ok)
	assert.Equal(t, "plannr-backup-2024-06-10.json", file.Name)

	other := newHarness(t)
	other.say(t, "/start bob")
	var fetched string
	other.bot.download = func(_ context.Context, url string) ([]byte, error) {
		fetched = url
		return file.Bytes, nil
	}
	upload := func(name string) string {
		other.bot.handleUpdate(other.ctx, tgbotapi.Update{Message: &tgbotapi.Message{
			From:     &tgbotapi.User{ID: 9},
			Chat:     &tgbotapi.Chat{ID: testChat, Type: "private"},
			Document: &tgbotapi.Document{FileID: "f1", FileName: name, FileSize: len(file.Bytes)},
		}})
		return other.api.lastText(t)
	}

	assert.Contains(t, upload("notes.txt"), "Only .json")
	assert.Contains(t, upload("backup.json"), "Data imported successfully!")
	assert.Equal(t, "https://files.example/f1", fetched)
	assert.Equal(t, "ann", other.planner.CurrentUser().Username)
	require.Len(t, other.planner.AllTasks(), 1)
	assert.Equal(t, "Keep me", other.planner.AllTasks()[0].Title)

	other.bot.download = func(context.Context, string) ([]byte, error) { return []byte(`{"tasks":[]}`), nil }
	assert.Contains(t, upload("broken.json"), "Missing version or export date")
}

func TestShortTitle(t *testing.T) {
	assert.Equal(t, "short", shortTitle("  short ", 10))
	assert.Equal(t, "a b", shortTitle("a\n  b", 10))
	assert.Equal(t, "abcd…", shortTitle("abcdefgh", 5))
}
