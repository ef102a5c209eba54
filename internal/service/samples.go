package service

import (
	"time"

	"plannr/internal/model"
)

type sample struct {
	title       string
	description string
	offset      int
	category    model.Category
	importance  model.Importance
}

var samples = []sample{
	{"Morning workout", "30 minutes of cardio", 0, model.CategoryPersonal, model.ImportanceMedium},
	{"Team standup", "Share progress with the team", 0, model.CategoryWork, model.ImportanceHigh},
	{"Grocery shopping", "Milk, eggs, bread", 1, model.CategoryHome, model.ImportanceLow},
	{"Call mom", "", 2, model.CategoryFamily, model.ImportanceNone},
	{"Dinner with friends", "Book a table for four", 3, model.CategoryFriends, model.ImportanceMedium},
}

func sampleTasks(now time.Time, newID func() string) []model.Task {
	today := startOfDay(now)
	tasks := make([]model.Task, 0, len(samples))
	for _, s := range samples {
		tasks = append(tasks, model.Task{
			ID:          newID(),
			Title:       s.title,
			Description: s.description,
			DueDate:     today.AddDate(0, 0, s.offset),
			Category:    s.category,
			CreatedAt:   now,
			Importance:  s.importance,
		})
	}
	return tasks
}
