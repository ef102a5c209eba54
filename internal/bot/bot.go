package bot

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"plannr/internal/service"
	"plannr/internal/storage"
)

// maxBackupSize bounds an uploaded backup file.
const maxBackupSize = 5 << 20

// telegramAPI is the part of *tgbotapi.BotAPI the bot uses.
type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
	GetFileDirectURL(fileID string) (string, error)
}

type conversationStage int

const (
	stageNone conversationStage = iota
	stageTitle
	stageDescription
	stageCategory
	stageDueDate
	stageImportance
)

type conversationState struct {
	stage conversationStage
	input service.TaskInput
}

// Bot is the Telegram front end of a planner. It serves one planner user;
// the chat that logged in last receives the scheduled reports.
type Bot struct {
	api      telegramAPI
	planner  *service.Planner
	reminder *service.ReminderService
	store    *storage.Store
	download func(ctx context.Context, url string) ([]byte, error)

	conversations map[int64]*conversationState
	// confirmations holds the task id awaiting delete confirmation per chat.
	confirmations map[int64]string
	mu            sync.Mutex
}

func New(token string, planner *service.Planner, reminder *service.ReminderService, store *storage.Store) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	log.Printf("[info] bot authorized on account %s", api.Self.UserName)
	return newBot(api, planner, reminder, store), nil
}

func newBot(api telegramAPI, planner *service.Planner, reminder *service.ReminderService, store *storage.Store) *Bot {
	return &Bot{
		api:           api,
		planner:       planner,
		reminder:      reminder,
		store:         store,
		download:      httpDownload,
		conversations: make(map[int64]*conversationState),
		confirmations: make(map[int64]string),
	}
}

// Start begins polling updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	log.Println("[info] start polling updates")

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		b.handleUpdate(ctx, update)
	}

	return ctx.Err()
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		if err := b.handleCallback(ctx, update.CallbackQuery); err != nil {
			log.Printf("handle callback: %v", err)
		}
	case update.Message != nil:
		if update.Message.Chat == nil || !update.Message.Chat.IsPrivate() {
			return
		}
		if err := b.handleMessage(ctx, update.Message); err != nil {
			log.Printf("handle message: %v", err)
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil {
		return nil
	}
	chatID := msg.Chat.ID

	if msg.Document != nil {
		return b.handleDocument(ctx, msg)
	}

	if !msg.IsCommand() && isCancelDialogInput(msg.Text) {
		b.clearConversation(chatID)
		b.clearConfirmation(chatID)
		return b.sendText(chatID, "⏪ Input cancelled.")
	}

	if !msg.IsCommand() {
		if handled, err := b.handleMenuAlias(ctx, msg); handled {
			return err
		}
	}

	if msg.IsCommand() {
		log.Printf("[info] command from %d: /%s %s", msg.From.ID, msg.Command(), msg.CommandArguments())
		return b.handleCommand(ctx, msg)
	}

	if taskID, ok := b.getConfirmation(chatID); ok {
		return b.handleConfirmationResponse(ctx, msg, taskID)
	}

	if b.hasConversation(chatID) {
		log.Printf("[info] conversation step %d from %d", b.getConversation(chatID).stage, msg.From.ID)
		return b.handleConversation(ctx, msg)
	}

	return b.sendText(chatID, "I did not get that. Send /newtask to add a task or /help for the list of commands.")
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	chatID := msg.Chat.ID
	args := strings.TrimSpace(msg.CommandArguments())

	switch msg.Command() {
	case "start":
		return b.handleStart(ctx, msg)
	case "help":
		return b.sendText(chatID, helpText)
	case "cancel":
		b.clearConversation(chatID)
		b.clearConfirmation(chatID)
		return b.sendText(chatID, "⏪ Input cancelled.")
	}

	if b.planner.CurrentUser() == nil {
		return b.sendText(chatID, "👋 Log in first: /start &lt;name&gt;")
	}

	switch msg.Command() {
	case "logout":
		return b.handleLogout(ctx, chatID)
	case "newtask":
		return b.startNewTaskConversation(chatID)
	case "add":
		return b.handleAdd(ctx, chatID, args)
	case "today", "tasks":
		return b.sendToday(chatID)
	case "upcoming":
		return b.sendUpcoming(chatID)
	case "week":
		return b.handleWeek(chatID, args)
	case "category", "categories":
		return b.handleCategory(chatID, args)
	case "done", "complete":
		return b.handleDone(ctx, chatID, args)
	case "delete":
		return b.handleDelete(chatID, args)
	case "schedule":
		return b.handleSchedule(ctx, chatID, args)
	case "stats":
		return b.sendText(chatID, formatStats(b.planner.Stats()))
	case "report":
		return b.sendReport(chatID)
	case "export":
		return b.handleExport(chatID)
	case "import":
		return b.sendText(chatID, "📥 Send the backup file (.json) as a document. It replaces all tasks and the profile.")
	default:
		return b.sendText(chatID, "Unknown command. See /help.")
	}
}

func (b *Bot) handleMenuAlias(ctx context.Context, msg *tgbotapi.Message) (bool, error) {
	if b.planner.CurrentUser() == nil {
		return false, nil
	}
	chatID := msg.Chat.ID
	switch strings.TrimSpace(strings.ToLower(msg.Text)) {
	case strings.ToLower(menuLabelNewTask):
		return true, b.startNewTaskConversation(chatID)
	case strings.ToLower(menuLabelToday):
		return true, b.sendToday(chatID)
	case strings.ToLower(menuLabelWeek):
		return true, b.handleWeek(chatID, "")
	case strings.ToLower(menuLabelStats):
		return true, b.sendText(chatID, formatStats(b.planner.Stats()))
	case strings.ToLower(menuLabelHelp):
		return true, b.sendText(chatID, helpText)
	default:
		return false, nil
	}
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb == nil || cb.From == nil || cb.Message == nil {
		return nil
	}
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		log.Printf("callback ack: %v", err)
	}
	if b.planner.CurrentUser() == nil {
		return nil
	}

	chatID := cb.Message.Chat.ID
	data := cb.Data
	switch {
	case strings.HasPrefix(data, cbCompletePrefix):
		log.Printf("[info] callback complete user=%d task=%s", cb.From.ID, strings.TrimPrefix(data, cbCompletePrefix))
		return b.completeAndRefresh(ctx, chatID, strings.TrimPrefix(data, cbCompletePrefix))
	case strings.HasPrefix(data, cbDeletePrefix):
		log.Printf("[info] callback delete request user=%d task=%s", cb.From.ID, strings.TrimPrefix(data, cbDeletePrefix))
		return b.askDeleteConfirmation(chatID, strings.TrimPrefix(data, cbDeletePrefix))
	case strings.HasPrefix(data, cbSchedulePrefix):
		log.Printf("[info] callback schedule user=%d task=%s", cb.From.ID, strings.TrimPrefix(data, cbSchedulePrefix))
		return b.scheduleAndRefresh(ctx, chatID, strings.TrimPrefix(data, cbSchedulePrefix))
	default:
		return nil
	}
}

// SendDailyReports sends a summary to the chat that logged in last.
func (b *Bot) SendDailyReports(ctx context.Context) error {
	chatID := storage.Load[int64](ctx, b.store, storage.KeyBotChat, 0)
	if chatID == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	text, ok := b.reminder.DailySummary()
	if !ok {
		return nil
	}
	if err := b.sendText(chatID, text); err != nil {
		return fmt.Errorf("send summary to %d: %w", chatID, err)
	}
	return nil
}

func (b *Bot) sendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = mainMenuKeyboard()
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) sendWithReplyMarkup(chatID int64, text string, markup interface{}) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = markup
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) getConfirmation(chatID int64) (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id, ok := b.confirmations[chatID]
	return id, ok
}

func (b *Bot) setConfirmation(chatID int64, taskID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.confirmations[chatID] = taskID
}

func (b *Bot) clearConfirmation(chatID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.confirmations, chatID)
}

func (b *Bot) setConversation(chatID int64, state *conversationState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.conversations[chatID] = state
}

func (b *Bot) getConversation(chatID int64) *conversationState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conversations[chatID]
}

func (b *Bot) hasConversation(chatID int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.conversations[chatID]
	return ok
}

func (b *Bot) clearConversation(chatID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.conversations, chatID)
}

func httpDownload(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download file: status %s", resp.Status)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxBackupSize+1))
}
