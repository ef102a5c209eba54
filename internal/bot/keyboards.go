package bot

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"plannr/internal/model"
)

const (
	btnSkip          = "⏭️ Skip"
	btnConfirm       = "✅ Confirm"
	btnCancel        = "↩️ Cancel"
	btnCancelDialog  = "⏪ Cancel input"
	menuLabelNewTask = "➕ New task"
	menuLabelToday   = "📋 Today"
	menuLabelWeek    = "📆 Week"
	menuLabelStats   = "📊 Stats"
	menuLabelHelp    = "ℹ️ Help"
)

// replyKeyboard lays out one keyboard row per labels slice.
// One-time keyboards hide after a press and return to the main menu.
func replyKeyboard(oneTime bool, rows ...[]string) tgbotapi.ReplyKeyboardMarkup {
	buttons := make([][]tgbotapi.KeyboardButton, 0, len(rows))
	for _, labels := range rows {
		row := make([]tgbotapi.KeyboardButton, 0, len(labels))
		for _, label := range labels {
			row = append(row, tgbotapi.NewKeyboardButton(label))
		}
		buttons = append(buttons, row)
	}
	kb := tgbotapi.NewReplyKeyboard(buttons...)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = oneTime
	return kb
}

func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return replyKeyboard(false,
		[]string{menuLabelNewTask, menuLabelToday},
		[]string{menuLabelWeek, menuLabelStats, menuLabelHelp},
	)
}

func confirmKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return replyKeyboard(true, []string{btnConfirm, btnCancel})
}

func cancelKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return replyKeyboard(true, []string{btnCancelDialog})
}

func skipKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return replyKeyboard(true, []string{btnSkip}, []string{btnCancelDialog})
}

// categoryKeyboard puts the categories three to a row.
func categoryKeyboard() tgbotapi.ReplyKeyboardMarkup {
	var rows [][]string
	for i, c := range model.Categories {
		if i%3 == 0 {
			rows = append(rows, nil)
		}
		rows[len(rows)-1] = append(rows[len(rows)-1], string(c))
	}
	rows = append(rows, []string{btnCancelDialog})
	return replyKeyboard(true, rows...)
}

func importanceKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return replyKeyboard(true,
		[]string{string(model.ImportanceLow), string(model.ImportanceMedium), string(model.ImportanceHigh)},
		[]string{btnSkip, btnCancelDialog},
	)
}

func normalizeInput(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

func isSkipInput(text string) bool {
	switch normalizeInput(text) {
	case "-", "skip", strings.ToLower(btnSkip):
		return true
	}
	return false
}

func isConfirmInput(text string) bool {
	switch normalizeInput(text) {
	case "confirm", "yes", strings.ToLower(btnConfirm):
		return true
	}
	return false
}

func isCancelInput(text string) bool {
	switch normalizeInput(text) {
	case "cancel", "no", strings.ToLower(btnCancel):
		return true
	}
	return false
}

func isCancelDialogInput(text string) bool {
	return normalizeInput(text) == strings.ToLower(btnCancelDialog)
}
