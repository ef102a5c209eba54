package service

import (
	"math"
	"sort"
	"time"

	"cloud.google.com/go/civil"

	"plannr/internal/model"
)

// minPatternTasks is how many timed completions the productivity pattern needs.
const minPatternTasks = 5

type CompletionRate struct {
	Total      int
	Completed  int
	InProgress int
	Percent    int
}

// ActivityLevel buckets a day's completions relative to the busiest day.
type ActivityLevel string

const (
	ActivityLow    ActivityLevel = "low"
	ActivityMedium ActivityLevel = "medium"
	ActivityHigh   ActivityLevel = "high"
)

type DayActivity struct {
	Day   time.Weekday
	Count int
	Level ActivityLevel
}

// WeeklyActivity covers completions of the last seven days, Monday first.
type WeeklyActivity struct {
	Days       []DayActivity
	MostActive time.Weekday
	// HasMostActive is false when nothing was completed.
	HasMostActive bool
}

type ProductivityPattern struct {
	HasEnoughData bool
	DaysRemaining int
	Morning       int
	Afternoon     int
	Evening       int
	Night         int
	Type          string
}

type TimelinePoint struct {
	Day   civil.Date
	Count int
}

// Timeline counts completions for each of the last seven days, oldest first.
type Timeline struct {
	Points  []TimelinePoint
	Average float64
	Peak    int
}

type CategoryShare struct {
	Category model.Category
	Count    int
	Percent  int
}

// Stats is the statistics page of a planner.
type Stats struct {
	Completion   CompletionRate
	Weekly       WeeklyActivity
	Pattern      ProductivityPattern
	Timeline     Timeline
	Categories   []CategoryShare
	Level        LevelProgress
	Streak       int
	TotalRewards int
}

// Stats computes statistics over the whole collection at the current time.
func (p *Planner) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()

	tasks := p.tasks.All()
	st := BuildStats(tasks, p.now())
	if user := p.identity.CurrentUser(); user != nil {
		st.Level = ProgressFor(user.Achievements, user.TasksCompleted)
		st.Streak = user.Streak
		st.TotalRewards = len(UnlockedRewards(user.Achievements))
	}
	return st
}

// BuildStats derives the task-only statistics. Times are read in now's location.
func BuildStats(tasks []model.Task, now time.Time) Stats {
	return Stats{
		Completion: completionRate(tasks),
		Weekly:     weeklyActivity(tasks, now),
		Pattern:    productivityPattern(tasks, now.Location()),
		Timeline:   timeline(tasks, now),
		Categories: categoryDistribution(tasks),
		Level:      ProgressFor(0, 0),
	}
}

func completionRate(tasks []model.Task) CompletionRate {
	r := CompletionRate{Total: len(tasks)}
	for _, t := range tasks {
		if t.Completed {
			r.Completed++
		}
	}
	r.InProgress = r.Total - r.Completed
	if r.Total > 0 {
		r.Percent = roundPercent(r.Completed, r.Total)
	}
	return r
}

func weeklyActivity(tasks []model.Task, now time.Time) WeeklyActivity {
	weekAgo := now.AddDate(0, 0, -7)
	counts := make([]int, 7)
	for _, at := range completionTimes(tasks, now.Location()) {
		if at.Before(weekAgo) || at.After(now) {
			continue
		}
		counts[mondayIndex(at.Weekday())]++
	}

	peak := 0
	for _, c := range counts {
		peak = max(peak, c)
	}

	w := WeeklyActivity{Days: make([]DayActivity, 7)}
	best := 0
	for i, c := range counts {
		day := time.Weekday((i + 1) % 7)
		level := ActivityHigh
		switch {
		case peak == 0 || c == 0:
			level = ActivityLow
		case float64(c) < float64(peak)/2:
			level = ActivityMedium
		}
		w.Days[i] = DayActivity{Day: day, Count: c, Level: level}
		if c > best {
			best = c
			w.MostActive = day
			w.HasMostActive = true
		}
	}
	return w
}

func productivityPattern(tasks []model.Task, loc *time.Location) ProductivityPattern {
	times := completionTimes(tasks, loc)
	if len(times) < minPatternTasks {
		return ProductivityPattern{DaysRemaining: minPatternTasks - len(times)}
	}

	var morning, afternoon, evening, night int
	for _, at := range times {
		switch h := at.Hour(); {
		case h >= 5 && h < 12:
			morning++
		case h >= 12 && h < 18:
			afternoon++
		case h >= 18:
			evening++
		default:
			night++
		}
	}

	total := len(times)
	p := ProductivityPattern{
		HasEnoughData: true,
		Morning:       roundPercent(morning, total),
		Afternoon:     roundPercent(afternoon, total),
		Evening:       roundPercent(evening, total),
		Night:         roundPercent(night, total),
	}
	top := max(p.Morning, p.Afternoon, p.Evening, p.Night)
	switch top {
	case p.Morning:
		p.Type = "Early Bird"
	case p.Afternoon:
		p.Type = "Steady Worker"
	case p.Evening:
		p.Type = "Evening Achiever"
	default:
		p.Type = "Night Owl"
	}
	return p
}

func timeline(tasks []model.Task, now time.Time) Timeline {
	today := civil.DateOf(now)
	perDay := map[civil.Date]int{}
	for _, at := range completionTimes(tasks, now.Location()) {
		perDay[civil.DateOf(at)]++
	}

	tl := Timeline{Points: make([]TimelinePoint, 0, 7)}
	total := 0
	for i := 6; i >= 0; i-- {
		day := today.AddDays(-i)
		c := perDay[day]
		tl.Points = append(tl.Points, TimelinePoint{Day: day, Count: c})
		total += c
		tl.Peak = max(tl.Peak, c)
	}
	if total > 0 {
		tl.Average = math.Round(float64(total)/7*10) / 10
	}
	return tl
}

func categoryDistribution(tasks []model.Task) []CategoryShare {
	counts := map[model.Category]int{}
	for _, t := range tasks {
		counts[t.Category]++
	}
	out := make([]CategoryShare, 0, len(model.Categories))
	for _, c := range model.Categories {
		share := CategoryShare{Category: c, Count: counts[c]}
		if len(tasks) > 0 {
			share.Percent = roundPercent(share.Count, len(tasks))
		}
		out = append(out, share)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Percent > out[j].Percent
	})
	return out
}

func completionTimes(tasks []model.Task, loc *time.Location) []time.Time {
	var out []time.Time
	for _, t := range tasks {
		if t.Completed && t.CompletedAt != nil {
			out = append(out, t.CompletedAt.In(loc))
		}
	}
	return out
}

func mondayIndex(d time.Weekday) int {
	return (int(d) + 6) % 7
}

func roundPercent(part, total int) int {
	return int(math.Round(float64(part) * 100 / float64(total)))
}
