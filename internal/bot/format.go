package bot

import (
	"fmt"
	"html"
	"sort"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"plannr/internal/model"
	"plannr/internal/service"
)

const (
	cbCompletePrefix = "complete:"
	cbDeletePrefix   = "delete:"
	cbSchedulePrefix = "schedule:"
)

const helpText = "ℹ️ <b>Commands</b>\n" +
	"• /start &lt;name&gt; — log in (demo_user has a sample profile)\n" +
	"• /newtask — add a task step by step\n" +
	"• /add Title | Category | YYYY-MM-DD | importance | days — add in one line\n" +
	"• /today — open tasks for today\n" +
	"• /upcoming — open tasks after today\n" +
	"• /week [n] — the next n days, 7 by default\n" +
	"• /category [name] — tasks of a category or open counts\n" +
	"• /done &lt;id&gt; — complete a task\n" +
	"• /delete &lt;id&gt; — delete a task\n" +
	"• /schedule &lt;id&gt; — move a task to today\n" +
	"• /stats — streak, level and statistics\n" +
	"• /report — daily report now\n" +
	"• /export — download a backup\n" +
	"• /import — restore a backup file\n" +
	"• /logout — end the session\n" +
	"• /cancel — cancel the current input\n\n" +
	"Task ids can be shortened to their first characters."

func formatTaskList(title string, tasks []model.Task, today civil.Date, empty string) string {
	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("%s\n", title))
	if len(tasks) == 0 {
		builder.WriteString(empty)
		return builder.String()
	}
	builder.WriteByte('\n')
	for _, task := range tasks {
		builder.WriteString(service.FormatTask(task, today))
	}
	return strings.TrimSpace(builder.String())
}

func formatWeek(days map[civil.Date][]model.Task, today civil.Date) string {
	keys := make([]civil.Date, 0, len(days))
	for d := range days {
		keys = append(keys, d)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Before(keys[j]) })

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("📆 <b>Next %d day(s)</b>\n", len(keys)))
	for _, d := range keys {
		label := d.In(time.UTC).Format("Mon 02 Jan")
		if d == today {
			label += " · today"
		}
		builder.WriteString(fmt.Sprintf("\n<b>%s</b>\n", label))
		if len(days[d]) == 0 {
			builder.WriteString("— free\n")
			continue
		}
		for _, task := range days[d] {
			builder.WriteString(fmt.Sprintf("• %s <i>(%s)</i> <code>%s</code>\n",
				escape(task.Title), task.Category, service.ShortID(task.ID)))
		}
	}
	return strings.TrimSpace(builder.String())
}

func formatCategories(counts []service.CategoryCount) string {
	var builder strings.Builder
	builder.WriteString("📂 <b>Categories</b>\n")
	for _, c := range counts {
		builder.WriteString(fmt.Sprintf("• %s — %d open\n", c.Category, c.Open))
	}
	builder.WriteString("\nUse /category &lt;name&gt; to list a category.")
	return builder.String()
}

func formatStats(st service.Stats) string {
	var b strings.Builder
	b.WriteString("📊 <b>Statistics</b>\n\n")
	b.WriteString(fmt.Sprintf("🔥 Streak: <b>%d</b> day(s)\n", st.Streak))
	b.WriteString(fmt.Sprintf("🏆 Level <b>%d</b> · %d/%d tasks to level %d (%d%%)\n",
		st.Level.Level, st.Level.Completed, st.Level.Next, st.Level.Level+1, st.Level.Percent))
	if st.TotalRewards > 0 {
		rewards := service.UnlockedRewards(st.Level.Level)
		b.WriteString(fmt.Sprintf("🎖 Latest reward: %s\n", escape(rewards[len(rewards)-1].Name)))
	}

	c := st.Completion
	b.WriteString(fmt.Sprintf("\n✅ Completed %d of %d (%d%%), %d in progress\n", c.Completed, c.Total, c.Percent, c.InProgress))

	b.WriteString("\n<b>Last 7 days</b>\n")
	for _, p := range st.Timeline.Points {
		b.WriteString(fmt.Sprintf("%s %s %d\n", p.Day.In(time.UTC).Format("Mon"), strings.Repeat("▇", p.Count), p.Count))
	}
	b.WriteString(fmt.Sprintf("avg %.1f · peak %d\n", st.Timeline.Average, st.Timeline.Peak))
	if st.Weekly.HasMostActive {
		b.WriteString(fmt.Sprintf("Most active day: %s\n", st.Weekly.MostActive))
	}

	p := st.Pattern
	if p.HasEnoughData {
		b.WriteString(fmt.Sprintf("\n<b>%s</b>: morning %d%% · afternoon %d%% · evening %d%% · night %d%%\n",
			p.Type, p.Morning, p.Afternoon, p.Evening, p.Night))
	} else {
		b.WriteString(fmt.Sprintf("\nComplete %d more task(s) to see your productivity pattern.\n", p.DaysRemaining))
	}

	b.WriteString("\n<b>Categories</b>\n")
	for _, share := range st.Categories {
		if share.Count == 0 {
			continue
		}
		b.WriteString(fmt.Sprintf("• %s %d%% (%d)\n", share.Category, share.Percent, share.Count))
	}
	return strings.TrimSpace(b.String())
}

func formatSaved(task model.Task) string {
	var summary strings.Builder
	summary.WriteString("✅ <b>Task saved</b>\n")
	summary.WriteString(fmt.Sprintf("• <b>ID:</b> <code>%s</code>\n", service.ShortID(task.ID)))
	summary.WriteString(fmt.Sprintf("• <b>Title:</b> %s\n", escape(task.Title)))
	if task.Description != "" {
		summary.WriteString(fmt.Sprintf("• <b>Description:</b> %s\n", escape(task.Description)))
	}
	summary.WriteString(fmt.Sprintf("• <b>Category:</b> %s\n", task.Category))
	summary.WriteString(fmt.Sprintf("• <b>Due:</b> %s\n", task.DueDay()))
	if task.Importance != model.ImportanceNone {
		summary.WriteString(fmt.Sprintf("• <b>Importance:</b> %s\n", task.Importance))
	}
	return strings.TrimSpace(summary.String())
}

// taskButtons offers complete and delete for each open task.
func taskButtons(tasks []model.Task, schedule bool) *tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, task := range tasks {
		row := []tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData("✅ "+shortTitle(task.Title, 24), cbCompletePrefix+task.ID),
		}
		if schedule {
			row = append(row, tgbotapi.NewInlineKeyboardButtonData("📌 Today", cbSchedulePrefix+task.ID))
		}
		row = append(row, tgbotapi.NewInlineKeyboardButtonData("🗑", cbDeletePrefix+task.ID))
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil
	}
	markup := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &markup
}

func shortTitle(title string, maxLen int) string {
	clean := strings.Join(strings.Fields(title), " ")
	runes := []rune(clean)
	if len(runes) <= maxLen {
		return clean
	}
	if maxLen <= 1 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-1]) + "…"
}

func escape(s string) string {
	return html.EscapeString(s)
}
