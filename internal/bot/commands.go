package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"plannr/internal/model"
	"plannr/internal/service"
	"plannr/internal/storage"
)

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) error {
	chatID := msg.Chat.ID
	name := strings.TrimSpace(msg.CommandArguments())
	current := b.planner.CurrentUser()

	if current == nil || (name != "" && name != current.Username) {
		if name == "" {
			name = msg.From.UserName
		}
		if name == "" {
			name = msg.From.FirstName
		}
		user, err := b.planner.Login(ctx, name, "")
		if err != nil {
			return b.sendText(chatID, fmt.Sprintf("Could not log in: %s", escape(err.Error())))
		}
		log.Printf("[info] login user=%s chat=%d", user.Username, chatID)
		current = user
	}

	if err := b.store.Save(ctx, storage.KeyBotChat, chatID); err != nil {
		log.Printf("[warn] remember chat %d: %v", chatID, err)
	}

	text := fmt.Sprintf(
		"👋 Hi, %s!\n<b>I keep your daily tasks and your streak.</b>\n\n"+
			"🔥 Streak: %d · 🏆 Level %d · ✅ %d done\n\n"+
			"Send /newtask to add a task, /today for today's list or /help for everything else.",
		escape(displayName(current)), current.Streak, current.Achievements, current.TasksCompleted,
	)
	return b.sendText(chatID, text)
}

func (b *Bot) handleLogout(ctx context.Context, chatID int64) error {
	if err := b.planner.Logout(ctx); err != nil {
		return b.sendText(chatID, fmt.Sprintf("Could not log out: %s", escape(err.Error())))
	}
	b.clearConversation(chatID)
	b.clearConfirmation(chatID)
	if err := b.store.Remove(ctx, storage.KeyBotChat); err != nil {
		log.Printf("[warn] forget chat %d: %v", chatID, err)
	}
	return b.sendText(chatID, "👋 Logged out. Send /start &lt;name&gt; to come back.")
}

func (b *Bot) startNewTaskConversation(chatID int64) error {
	log.Printf("[info] start new task conversation chat=%d", chatID)
	b.setConversation(chatID, &conversationState{stage: stageTitle})
	return b.sendWithReplyMarkup(chatID, "🆕 New task.\n<b>Step 1:</b> what should it be called?", cancelKeyboard())
}

func (b *Bot) handleConversation(ctx context.Context, msg *tgbotapi.Message) error {
	chatID := msg.Chat.ID
	state := b.getConversation(chatID)
	if state == nil {
		return nil
	}

	text := strings.TrimSpace(msg.Text)
	switch state.stage {
	case stageTitle:
		if text == "" {
			return b.sendWithReplyMarkup(chatID, "The title cannot be empty.", cancelKeyboard())
		}
		state.input.Title = text
		state.stage = stageDescription
		return b.sendWithReplyMarkup(chatID, "✏️ <b>Step 2:</b> a short description (or Skip).", skipKeyboard())
	case stageDescription:
		if !isSkipInput(text) {
			state.input.Description = text
		}
		state.stage = stageCategory
		return b.sendWithReplyMarkup(chatID, "🏷 <b>Step 3:</b> choose a category.", categoryKeyboard())
	case stageCategory:
		category, ok := model.ParseCategory(text)
		if !ok {
			return b.sendWithReplyMarkup(chatID, "Pick one of the categories on the keyboard.", categoryKeyboard())
		}
		state.input.Category = category
		state.stage = stageDueDate
		return b.sendWithReplyMarkup(chatID, "⏰ <b>Step 4:</b> due date as <code>2024-06-30</code>, today or tomorrow (Skip means today).", skipKeyboard())
	case stageDueDate:
		if !isSkipInput(text) {
			due, err := parseDue(text, b.planner.Today(), b.planner.Now().Location())
			if err != nil {
				return b.sendWithReplyMarkup(chatID, escape(err.Error()), skipKeyboard())
			}
			state.input.DueDate = due
		}
		state.stage = stageImportance
		return b.sendWithReplyMarkup(chatID, "❗ <b>Step 5:</b> how important is it?", importanceKeyboard())
	case stageImportance:
		if !isSkipInput(text) {
			imp, ok := model.ParseImportance(text)
			if !ok || imp == model.ImportanceNone {
				return b.sendWithReplyMarkup(chatID, "Choose low, medium or high (or Skip).", importanceKeyboard())
			}
			state.input.Importance = imp
		}
		b.clearConversation(chatID)
		return b.saveTask(ctx, chatID, state.input)
	default:
		b.clearConversation(chatID)
		return b.sendText(chatID, "The dialog was reset. Try /newtask again.")
	}
}

func (b *Bot) handleAdd(ctx context.Context, chatID int64, args string) error {
	if args == "" {
		return b.sendText(chatID, "Usage: /add Title | Category | YYYY-MM-DD | importance | days\nFor example: <code>/add Gym | Personal | tomorrow | high | mon,wed</code>")
	}
	input, err := parseAddArgs(args, b.planner.Today(), b.planner.Now().Location())
	if err != nil {
		return b.sendText(chatID, fmt.Sprintf("Could not read the task: %s", escape(err.Error())))
	}
	return b.saveTask(ctx, chatID, input)
}

func (b *Bot) saveTask(ctx context.Context, chatID int64, input service.TaskInput) error {
	task, err := b.planner.AddOrUpdate(ctx, input)
	if err != nil {
		return b.sendText(chatID, fmt.Sprintf("Could not save the task: %s", escape(err.Error())))
	}
	log.Printf("[info] task saved id=%s category=%s due=%s", task.ID, task.Category, task.DueDay())
	return b.sendText(chatID, formatSaved(task))
}

func (b *Bot) sendToday(chatID int64) error {
	tasks := b.planner.TasksForToday()
	text := formatTaskList("📋 <b>Today</b>", tasks, b.planner.Today(), "Nothing left for today 🎉")
	return b.sendWithReplyMarkup(chatID, text, markupOrMenu(taskButtons(tasks, false)))
}

func (b *Bot) sendUpcoming(chatID int64) error {
	tasks := b.planner.TasksForUpcoming()
	text := formatTaskList("📆 <b>Upcoming</b>", tasks, b.planner.Today(), "No upcoming tasks.")
	return b.sendWithReplyMarkup(chatID, text, markupOrMenu(taskButtons(tasks, true)))
}

func (b *Bot) handleWeek(chatID int64, args string) error {
	n, err := parseWeekArg(args)
	if err != nil {
		return b.sendText(chatID, escape(err.Error()))
	}
	return b.sendText(chatID, formatWeek(b.planner.TasksForNextNDays(n), b.planner.Today()))
}

func (b *Bot) handleCategory(chatID int64, args string) error {
	if args == "" {
		return b.sendText(chatID, formatCategories(b.planner.Categories()))
	}
	category, ok := model.ParseCategory(args)
	if !ok {
		return b.sendText(chatID, fmt.Sprintf("Unknown category %q.", escape(args)))
	}
	tasks := b.planner.TasksByCategory(category)
	title := fmt.Sprintf("🏷 <b>%s</b>", category)
	text := formatTaskList(title, tasks, b.planner.Today(), "No open tasks in this category.")
	return b.sendWithReplyMarkup(chatID, text, markupOrMenu(taskButtons(tasks, true)))
}

func (b *Bot) handleDone(ctx context.Context, chatID int64, ref string) error {
	if ref == "" {
		return b.sendText(chatID, "Give the task id: /done 1a2b3c")
	}
	task, ok, err := b.resolve(chatID, ref)
	if !ok {
		return err
	}
	return b.complete(ctx, chatID, task)
}

func (b *Bot) completeAndRefresh(ctx context.Context, chatID int64, taskID string) error {
	task, found := b.planner.Find(taskID)
	if !found {
		return b.sendText(chatID, "The task was not found or is already deleted.")
	}
	if err := b.complete(ctx, chatID, task); err != nil {
		return err
	}
	return b.sendToday(chatID)
}

func (b *Bot) complete(ctx context.Context, chatID int64, task model.Task) error {
	done, err := b.planner.Complete(ctx, task.ID)
	if err != nil {
		return b.sendText(chatID, fmt.Sprintf("Could not complete the task: %s", escape(err.Error())))
	}
	if !done {
		return b.sendText(chatID, "The task is already completed.")
	}
	log.Printf("[info] task completed id=%s", task.ID)

	text := fmt.Sprintf("✅ Task «%s» completed.", escape(task.Title))
	if user := b.planner.CurrentUser(); user != nil {
		text += fmt.Sprintf("\n🔥 Streak: %d · 🏆 Level %d · ✅ %d done", user.Streak, user.Achievements, user.TasksCompleted)
	}
	return b.sendText(chatID, text)
}

func (b *Bot) handleDelete(chatID int64, ref string) error {
	if ref == "" {
		return b.sendText(chatID, "Give the task id: /delete 1a2b3c")
	}
	task, ok, err := b.resolve(chatID, ref)
	if !ok {
		return err
	}
	return b.askDeleteConfirmation(chatID, task.ID)
}

func (b *Bot) askDeleteConfirmation(chatID int64, taskID string) error {
	task, found := b.planner.Find(taskID)
	if !found {
		return b.sendText(chatID, "Task not found.")
	}
	b.setConfirmation(chatID, task.ID)
	text := fmt.Sprintf("Delete the task \"%s\" (<code>%s</code>)?", escape(task.Title), service.ShortID(task.ID))
	return b.sendWithReplyMarkup(chatID, text, confirmKeyboard())
}

func (b *Bot) handleConfirmationResponse(ctx context.Context, msg *tgbotapi.Message, taskID string) error {
	chatID := msg.Chat.ID
	switch text := strings.TrimSpace(msg.Text); {
	case isConfirmInput(text):
		b.clearConfirmation(chatID)
		task, found := b.planner.Find(taskID)
		if !found {
			return b.sendText(chatID, "The task was not found or is already deleted.")
		}
		if err := b.planner.Delete(ctx, taskID); err != nil {
			return b.sendText(chatID, fmt.Sprintf("Could not delete the task: %s", escape(err.Error())))
		}
		log.Printf("[info] task deleted id=%s", taskID)
		return b.sendText(chatID, fmt.Sprintf("🗑 Task \"%s\" deleted.", escape(task.Title)))
	case isCancelInput(text):
		b.clearConfirmation(chatID)
		return b.sendText(chatID, "Nothing was deleted.")
	default:
		return b.sendWithReplyMarkup(chatID, "Confirm or cancel the deletion.", confirmKeyboard())
	}
}

func (b *Bot) handleSchedule(ctx context.Context, chatID int64, ref string) error {
	if ref == "" {
		return b.sendText(chatID, "Give the task id: /schedule 1a2b3c")
	}
	task, ok, err := b.resolve(chatID, ref)
	if !ok {
		return err
	}
	return b.schedule(ctx, chatID, task.ID)
}

func (b *Bot) scheduleAndRefresh(ctx context.Context, chatID int64, taskID string) error {
	if err := b.schedule(ctx, chatID, taskID); err != nil {
		return err
	}
	return b.sendToday(chatID)
}

func (b *Bot) schedule(ctx context.Context, chatID int64, taskID string) error {
	task, err := b.planner.ScheduleForToday(ctx, taskID)
	if errors.Is(err, service.ErrTaskNotFound) {
		return b.sendText(chatID, "Task not found.")
	}
	if err != nil {
		return b.sendText(chatID, fmt.Sprintf("Could not schedule the task: %s", escape(err.Error())))
	}
	return b.sendText(chatID, fmt.Sprintf("📌 «%s» is now due today.", escape(task.Title)))
}

func (b *Bot) sendReport(chatID int64) error {
	text, ok := b.reminder.DailySummary()
	if !ok {
		return b.sendText(chatID, "👋 Log in first: /start &lt;name&gt;")
	}
	return b.sendText(chatID, text)
}

func (b *Bot) handleExport(chatID int64) error {
	raw, err := b.planner.ExportJSON()
	if err != nil {
		return b.sendText(chatID, fmt.Sprintf("Could not export: %s", escape(err.Error())))
	}
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{
		Name:  fmt.Sprintf("plannr-backup-%s.json", b.planner.Today()),
		Bytes: raw,
	})
	doc.Caption = fmt.Sprintf("💾 %d task(s) exported.", len(b.planner.AllTasks()))
	_, err = b.api.Send(doc)
	return err
}

func (b *Bot) handleDocument(ctx context.Context, msg *tgbotapi.Message) error {
	chatID := msg.Chat.ID
	if b.planner.CurrentUser() == nil {
		return b.sendText(chatID, "👋 Log in first: /start &lt;name&gt;")
	}
	doc := msg.Document
	if !strings.EqualFold(path.Ext(doc.FileName), ".json") {
		return b.sendText(chatID, "Only .json backup files can be imported.")
	}
	if doc.FileSize > maxBackupSize {
		return b.sendText(chatID, "The file is too large to be a backup.")
	}

	url, err := b.api.GetFileDirectURL(doc.FileID)
	if err != nil {
		return fmt.Errorf("get file url: %w", err)
	}
	raw, err := b.download(ctx, url)
	if err != nil {
		log.Printf("[warn] import download: %v", err)
		return b.sendText(chatID, "Could not download the file. Try again.")
	}

	res := b.planner.Import(ctx, raw)
	if !res.Success {
		return b.sendText(chatID, "❌ "+escape(res.Message))
	}
	return b.sendText(chatID, fmt.Sprintf("✅ %s %d task(s) restored.", escape(res.Message), len(b.planner.AllTasks())))
}

// resolve looks up a task reference, replying to the chat when it cannot.
func (b *Bot) resolve(chatID int64, ref string) (model.Task, bool, error) {
	task, err := b.planner.Resolve(ref)
	switch {
	case err == nil:
		return task, true, nil
	case errors.Is(err, service.ErrAmbiguousRef):
		return model.Task{}, false, b.sendText(chatID, "Several tasks match. Use more characters of the id.")
	default:
		return model.Task{}, false, b.sendText(chatID, "Task not found.")
	}
}

func markupOrMenu(markup *tgbotapi.InlineKeyboardMarkup) interface{} {
	if markup == nil {
		return mainMenuKeyboard()
	}
	return markup
}

func displayName(u *model.User) string {
	if strings.TrimSpace(u.FullName) != "" {
		return u.FullName
	}
	return u.Username
}
