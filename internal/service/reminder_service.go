package service

import (
	"fmt"
	"html"
	"strings"
	"time"

	"cloud.google.com/go/civil"

	"plannr/internal/model"
)

// upcomingInReport caps how many upcoming tasks a report lists.
const upcomingInReport = 5

// ReminderService builds the HTML summaries sent by the bot.
type ReminderService struct {
	planner *Planner
}

func NewReminderService(planner *Planner) *ReminderService {
	return &ReminderService{planner: planner}
}

// DailySummary reports today's open tasks, what comes next and the streak.
// It returns false when nobody is logged in.
func (s *ReminderService) DailySummary() (string, bool) {
	user := s.planner.CurrentUser()
	if user == nil {
		return "", false
	}
	now := s.planner.Now()
	today := civil.DateOf(now)
	return BuildSummary(*user, s.planner.TasksForDay(today), s.planner.TasksForUpcoming(), s.overdue(today), now), true
}

func (s *ReminderService) overdue(today civil.Date) []model.Task {
	var out []model.Task
	for _, t := range s.planner.AllTasks() {
		if !t.Completed && t.DueDay().Before(today) {
			out = append(out, t)
		}
	}
	return out
}

// BuildSummary renders a summary from already selected tasks.
func BuildSummary(user model.User, today, upcoming, overdue []model.Task, now time.Time) string {
	day := civil.DateOf(now)

	var builder strings.Builder
	builder.WriteString("📋 <b>Daily report</b>\n")
	builder.WriteString(fmt.Sprintf("🗓 %s\n\n", now.Format("Mon, 02 Jan 2006")))

	builder.WriteString("🔥 <b>Today</b>\n")
	if len(today) == 0 {
		builder.WriteString("— nothing left for today\n")
	} else {
		for _, task := range today {
			builder.WriteString(FormatTask(task, day))
		}
	}

	if len(overdue) > 0 {
		builder.WriteString("\n⚠️ <b>Overdue</b>\n")
		for _, task := range overdue {
			builder.WriteString(FormatTask(task, day))
		}
	}

	builder.WriteString("\n📆 <b>Upcoming</b>\n")
	if len(upcoming) == 0 {
		builder.WriteString("— no upcoming tasks\n")
	} else {
		for i, task := range upcoming {
			if i == upcomingInReport {
				builder.WriteString(fmt.Sprintf("… and %d more\n", len(upcoming)-upcomingInReport))
				break
			}
			builder.WriteString(FormatTask(task, day))
		}
	}

	builder.WriteString(fmt.Sprintf("\n🔥 Streak: <b>%d</b> day(s) · 🏆 Level <b>%d</b> · ✅ %d done",
		user.Streak, user.Achievements, user.TasksCompleted))
	return builder.String()
}

// FormatTask renders one task line relative to today.
func FormatTask(task model.Task, today civil.Date) string {
	var sb strings.Builder

	due := task.DueDay()
	icon := "🟢"
	switch {
	case task.Completed:
		icon = "✅"
	case due.Before(today):
		icon = "⚠️"
	case due.DaysSince(today) <= 1:
		icon = "⏳"
	}

	sb.WriteString(fmt.Sprintf("%s %s", icon, html.EscapeString(strings.TrimSpace(task.Title))))
	sb.WriteString(fmt.Sprintf(" <i>(%s)</i>", html.EscapeString(string(task.Category))))
	if task.Importance != model.ImportanceNone {
		sb.WriteString(fmt.Sprintf(" · %s", task.Importance))
	}

	switch left := due.DaysSince(today); {
	case task.Completed:
	case left < 0:
		sb.WriteString(fmt.Sprintf("\n   ⏰ due %s · <b>overdue</b>", due))
	case left > 0:
		sb.WriteString(fmt.Sprintf("\n   ⏰ due %s · in %d day(s)", due, left))
	}

	if task.Description != "" {
		sb.WriteString(fmt.Sprintf("\n   📝 %s", html.EscapeString(strings.TrimSpace(task.Description))))
	}
	sb.WriteString(fmt.Sprintf("\n   <code>%s</code>", ShortID(task.ID)))

	sb.WriteByte('\n')
	return sb.String()
}

// ShortID is the id prefix accepted as a task reference.
func ShortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
