package service

import (
	"cloud.google.com/go/civil"

	"plannr/internal/model"
)

// StreakState is what the streak rules look at: the counter and the last day it was touched.
// A zero LastDate means the streak has never been evaluated.
type StreakState struct {
	Streak   int
	LastDate civil.Date
}

// StreakDecision is the outcome of one evaluation.
type StreakDecision struct {
	State         StreakState
	StreakChanged bool
	DateChanged   bool
}

// EvaluateReset applies the missed-day rule. A first evaluation only records today.
func EvaluateReset(state StreakState, today civil.Date) StreakDecision {
	d := StreakDecision{State: state}
	if state.LastDate.IsZero() {
		d.State.LastDate = today
		d.DateChanged = true
		return d
	}
	if state.LastDate.Before(today.AddDays(-1)) {
		d.State.Streak = 0
		d.State.LastDate = today
		d.StreakChanged = state.Streak != 0
		d.DateChanged = true
	}
	return d
}

// EvaluateCompletion grants a streak day once every task due today is completed.
// dueToday must hold all tasks due today, completed or not. Days with nothing due change nothing.
func EvaluateCompletion(state StreakState, dueToday []model.Task, today civil.Date) StreakDecision {
	d := StreakDecision{State: state}
	if len(dueToday) == 0 || state.LastDate == today {
		return d
	}
	for _, t := range dueToday {
		if !t.Completed {
			return d
		}
	}
	d.State.Streak = state.Streak + 1
	d.State.LastDate = today
	d.StreakChanged = true
	d.DateChanged = true
	return d
}
