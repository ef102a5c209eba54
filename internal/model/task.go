package model

import (
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
)

// Task is either a reusable template or a task scheduled onto a day.
// Both share one shape; only usage tells them apart.
type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	DueDate     time.Time  `json:"dueDate"`
	Category    Category   `json:"category"`
	Completed   bool       `json:"completed"`
	CreatedAt   time.Time  `json:"createdAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	Importance  Importance `json:"importance,omitempty"`
	Days        []int      `json:"days,omitempty"`
}

// DueDay returns the calendar day the task is due on, in the offset the due date carries.
func (t Task) DueDay() civil.Date {
	return civil.DateOf(t.DueDate)
}

// Clone returns a deep copy.
func (t Task) Clone() Task {
	c := t
	if t.CompletedAt != nil {
		at := *t.CompletedAt
		c.CompletedAt = &at
	}
	if t.Days != nil {
		c.Days = append([]int(nil), t.Days...)
	}
	return c
}

// dueDateLayouts are accepted on decode. Backups written by older clients carry bare dates.
var dueDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseDueDate parses a due date in any of the accepted layouts.
func ParseDueDate(raw string) (time.Time, error) {
	for _, layout := range dueDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid due date %q", raw)
}

func (t *Task) UnmarshalJSON(data []byte) error {
	type plain Task
	aux := struct {
		*plain
		DueDate string `json:"dueDate"`
	}{plain: (*plain)(t)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.DueDate == "" {
		t.DueDate = time.Time{}
		return nil
	}
	due, err := ParseDueDate(aux.DueDate)
	if err != nil {
		return err
	}
	t.DueDate = due
	return nil
}
