package service

import (
	"math"

	"plannr/internal/model"
)

// baseThreshold is the completed-task count needed for level 1. Each further level doubles it.
const baseThreshold = 5

// AchievementLevel counts how many of the thresholds 5, 10, 20, 40, ... completed reaches.
func AchievementLevel(completed int) int {
	level := 0
	threshold := baseThreshold
	for completed >= threshold {
		level++
		// No int can reach the next threshold once doubling would overflow.
		if threshold > math.MaxInt/2 {
			break
		}
		threshold *= 2
	}
	return level
}

// LevelThreshold is the completed-task count at which level is reached. Level 0 needs none.
func LevelThreshold(level int) int {
	if level <= 0 {
		return 0
	}
	threshold := baseThreshold
	for i := 1; i < level; i++ {
		if threshold > math.MaxInt/2 {
			return math.MaxInt
		}
		threshold *= 2
	}
	return threshold
}

// CompletionUpdate is the profile change caused by one completed task.
// The streak is left alone; it belongs to the streak evaluator.
func CompletionUpdate(prev model.User) model.ProfileUpdate {
	completed := prev.TasksCompleted
	if completed < math.MaxInt {
		completed++
	}
	level := AchievementLevel(completed)
	return model.ProfileUpdate{
		TasksCompleted: &completed,
		Achievements:   &level,
	}
}

// LevelProgress describes how far a user is between two levels.
type LevelProgress struct {
	Level     int
	Completed int
	Current   int
	Next      int
	Percent   int
}

// ProgressFor measures progress from level towards level+1.
func ProgressFor(level, completed int) LevelProgress {
	next := level
	if next < math.MaxInt {
		next++
	}
	p := LevelProgress{
		Level:     level,
		Completed: completed,
		Current:   LevelThreshold(level),
		Next:      LevelThreshold(next),
	}
	span := p.Next - p.Current
	pct := 0
	if span > 0 {
		pct = roundPercent(completed-p.Current, span)
	}
	p.Percent = max(0, min(100, pct))
	return p
}

// Reward is unlocked when a user reaches Level.
type Reward struct {
	Level       int
	Name        string
	Description string
}

var Rewards = []Reward{
	{1, "Beginner Badge", "You've started your productivity journey"},
	{2, "Focus Master", "Unlock custom focus timers"},
	{3, "Task Tactician", "Unlock advanced task templates"},
	{4, "Streak Keeper", "Bonus points for maintaining streaks"},
	{5, "Productivity Pro", "Unlock detailed analytics"},
	{6, "Time Wizard", "Unlock time prediction features"},
	{7, "Goal Crusher", "Set and track long-term goals"},
	{8, "Habit Hero", "Advanced habit tracking features"},
	{9, "Master Planner", "Unlock priority matrix"},
	{10, "Productivity Legend", "Unlock all premium features"},
}

// UnlockedRewards returns the rewards available at level.
func UnlockedRewards(level int) []Reward {
	var out []Reward
	for _, r := range Rewards {
		if r.Level <= level {
			out = append(out, r)
		}
	}
	return out
}
