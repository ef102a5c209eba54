package bot

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"

	"plannr/internal/model"
	"plannr/internal/service"
)

const (
	defaultWeekDays = 7
	maxWeekDays     = 31
)

// parseAddArgs reads "Title | Category | YYYY-MM-DD | importance | days".
// Only the title is required; the category defaults to Personal.
func parseAddArgs(raw string, today civil.Date, loc *time.Location) (service.TaskInput, error) {
	parts := strings.Split(raw, "|")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	if len(parts) > 5 {
		return service.TaskInput{}, errors.New("too many fields, expected Title | Category | YYYY-MM-DD | importance | days")
	}

	input := service.TaskInput{Title: parts[0], Category: model.CategoryPersonal}
	if input.Title == "" {
		return service.TaskInput{}, errors.New("the title is required")
	}
	field := func(i int) string {
		if i < len(parts) {
			return parts[i]
		}
		return ""
	}

	if raw := field(1); raw != "" {
		c, ok := model.ParseCategory(raw)
		if !ok {
			return service.TaskInput{}, fmt.Errorf("unknown category %q", raw)
		}
		input.Category = c
	}
	if raw := field(2); raw != "" {
		due, err := parseDue(raw, today, loc)
		if err != nil {
			return service.TaskInput{}, err
		}
		input.DueDate = due
	}
	if raw := field(3); raw != "" {
		imp, ok := model.ParseImportance(raw)
		if !ok {
			return service.TaskInput{}, fmt.Errorf("unknown importance %q, use low, medium or high", raw)
		}
		input.Importance = imp
	}
	if raw := field(4); raw != "" {
		days, err := service.ParseWeekdays(raw)
		if err != nil {
			return service.TaskInput{}, err
		}
		input.Days = days
	}
	return input, nil
}

// parseDue returns midnight of the named day in loc.
func parseDue(raw string, today civil.Date, loc *time.Location) (time.Time, error) {
	d, err := service.ParseDay(raw, today)
	if err != nil {
		return time.Time{}, err
	}
	return d.In(loc), nil
}

func parseWeekArg(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return defaultWeekDays, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > maxWeekDays {
		return 0, fmt.Errorf("the number of days must be between 1 and %d", maxWeekDays)
	}
	return n, nil
}
