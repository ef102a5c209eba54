package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"

	"plannr/internal/model"
	"plannr/internal/storage"
)

// TaskInput represents data required to create or re-issue a task.
type TaskInput struct {
	Title       string
	Description string
	// DueDate defaults to today when zero.
	DueDate    time.Time
	Category   model.Category
	Importance model.Importance
	Days       []int
}

// TaskPatch lists the fields to change on an existing task. Nil fields are kept.
// Completion is not patchable; it goes through Complete.
type TaskPatch struct {
	Title       *string
	Description *string
	DueDate     *time.Time
	Category    *model.Category
	Importance  *model.Importance
	Days        *[]int
}

// TaskService owns the task collection and its persisted copy.
// It is not safe for concurrent use; Planner serialises access.
type TaskService struct {
	store *storage.Store
	now   func() time.Time
	newID func() string
	tasks []model.Task
}

func NewTaskService(store *storage.Store, now func() time.Time) *TaskService {
	return &TaskService{store: store, now: now, newID: uuid.NewString}
}

// Load reads the persisted collection. With seed set, a store that never held tasks starts with samples.
func (s *TaskService) Load(ctx context.Context, seed bool) error {
	if seed && !s.store.Has(ctx, storage.KeyTasks) {
		return s.commit(ctx, sampleTasks(s.now(), s.newID))
	}
	s.tasks = storage.Load(ctx, s.store, storage.KeyTasks, []model.Task{})
	return nil
}

// AddOrUpdate creates a task, or updates the task with the same title and category.
// The matched task keeps its id, creation time and completion state.
func (s *TaskService) AddOrUpdate(ctx context.Context, input TaskInput) (model.Task, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return model.Task{}, invalid("title", "must not be empty")
	}
	if err := validateFields(input.Category, input.Importance, input.Days); err != nil {
		return model.Task{}, err
	}

	due := input.DueDate
	if due.IsZero() {
		due = startOfDay(s.now())
	}

	next := cloneTasks(s.tasks)
	idx := s.indexOfPair(title, input.Category)
	if idx >= 0 {
		t := &next[idx]
		t.Title = title
		t.Description = input.Description
		t.DueDate = due
		t.Category = input.Category
		t.Importance = input.Importance
		t.Days = cloneDays(input.Days)
	} else {
		next = append(next, model.Task{
			ID:          s.newID(),
			Title:       title,
			Description: input.Description,
			DueDate:     due,
			Category:    input.Category,
			CreatedAt:   s.now(),
			Importance:  input.Importance,
			Days:        cloneDays(input.Days),
		})
		idx = len(next) - 1
	}

	if err := s.commit(ctx, next); err != nil {
		return model.Task{}, err
	}
	return next[idx].Clone(), nil
}

// Update merges patch into the task with id. Unknown ids are ignored.
func (s *TaskService) Update(ctx context.Context, id string, patch TaskPatch) error {
	idx := s.indexOf(id)
	if idx < 0 {
		return nil
	}

	next := cloneTasks(s.tasks)
	t := &next[idx]
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return invalid("title", "must not be empty")
		}
		t.Title = title
	}
	if patch.Description != nil {
		t.Description = *patch.Description
	}
	if patch.DueDate != nil {
		t.DueDate = *patch.DueDate
	}
	if patch.Category != nil {
		t.Category = *patch.Category
	}
	if patch.Importance != nil {
		t.Importance = *patch.Importance
	}
	if patch.Days != nil {
		t.Days = cloneDays(*patch.Days)
	}
	if err := validateFields(t.Category, t.Importance, t.Days); err != nil {
		return err
	}
	if other := s.indexOfPair(t.Title, t.Category); other >= 0 && other != idx {
		return invalid("title", "a %s task named %q already exists", t.Category, t.Title)
	}

	return s.commit(ctx, next)
}

// Delete removes the task with id. Unknown ids are ignored.
func (s *TaskService) Delete(ctx context.Context, id string) error {
	idx := s.indexOf(id)
	if idx < 0 {
		return nil
	}
	next := make([]model.Task, 0, len(s.tasks)-1)
	for i, t := range s.tasks {
		if i != idx {
			next = append(next, t.Clone())
		}
	}
	return s.commit(ctx, next)
}

// Complete marks the task done. It reports false, changing nothing, when the task
// is unknown or already completed; the first completion time is kept.
func (s *TaskService) Complete(ctx context.Context, id string) (bool, error) {
	idx := s.indexOf(id)
	if idx < 0 || s.tasks[idx].Completed {
		return false, nil
	}
	next := cloneTasks(s.tasks)
	at := s.now()
	next[idx].Completed = true
	next[idx].CompletedAt = &at
	if err := s.commit(ctx, next); err != nil {
		return false, err
	}
	return true, nil
}

// TasksForDay returns open tasks due on day, in insertion order.
func (s *TaskService) TasksForDay(day civil.Date) []model.Task {
	return s.filter(func(t model.Task) bool {
		return !t.Completed && t.DueDay() == day
	})
}

// DueOn returns every task due on day, completed or not.
func (s *TaskService) DueOn(day civil.Date) []model.Task {
	return s.filter(func(t model.Task) bool {
		return t.DueDay() == day
	})
}

// TasksForUpcoming returns open tasks due after today, earliest day first.
func (s *TaskService) TasksForUpcoming(today civil.Date) []model.Task {
	out := s.filter(func(t model.Task) bool {
		return !t.Completed && t.DueDay().After(today)
	})
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DueDay().Before(out[j].DueDay())
	})
	return out
}

// TasksForNextNDays maps each of the n days starting today to the open tasks due that day.
func (s *TaskService) TasksForNextNDays(today civil.Date, n int) map[civil.Date][]model.Task {
	out := make(map[civil.Date][]model.Task, max(n, 0))
	for i := 0; i < n; i++ {
		day := today.AddDays(i)
		out[day] = s.TasksForDay(day)
	}
	return out
}

// TasksByCategory returns open tasks in category.
func (s *TaskService) TasksByCategory(category model.Category) []model.Task {
	return s.filter(func(t model.Task) bool {
		return !t.Completed && t.Category == category
	})
}

// All returns a copy of the whole collection.
func (s *TaskService) All() []model.Task {
	return cloneTasks(s.tasks)
}

// Find returns the task with id.
func (s *TaskService) Find(id string) (model.Task, bool) {
	idx := s.indexOf(id)
	if idx < 0 {
		return model.Task{}, false
	}
	return s.tasks[idx].Clone(), true
}

// Resolve finds a task by full id or by a unique id prefix.
func (s *TaskService) Resolve(ref string) (model.Task, error) {
	ref = strings.ToLower(strings.TrimSpace(ref))
	if ref == "" {
		return model.Task{}, ErrTaskNotFound
	}
	if t, ok := s.Find(ref); ok {
		return t, nil
	}
	var match []int
	for i, t := range s.tasks {
		if strings.HasPrefix(strings.ToLower(t.ID), ref) {
			match = append(match, i)
		}
	}
	switch len(match) {
	case 0:
		return model.Task{}, fmt.Errorf("%w: %s", ErrTaskNotFound, ref)
	case 1:
		return s.tasks[match[0]].Clone(), nil
	default:
		return model.Task{}, fmt.Errorf("%w: %s", ErrAmbiguousRef, ref)
	}
}

// Validate checks a stored task record, as found in a backup.
func Validate(t model.Task) error {
	if strings.TrimSpace(t.ID) == "" {
		return invalid("id", "must not be empty")
	}
	if strings.TrimSpace(t.Title) == "" {
		return invalid("title", "must not be empty")
	}
	return validateFields(t.Category, t.Importance, t.Days)
}

// replace swaps the in-memory collection after it was written elsewhere.
func (s *TaskService) replace(tasks []model.Task) {
	s.tasks = cloneTasks(tasks)
}

func (s *TaskService) commit(ctx context.Context, next []model.Task) error {
	if next == nil {
		next = []model.Task{}
	}
	if err := s.store.Save(ctx, storage.KeyTasks, next); err != nil {
		return fmt.Errorf("save tasks: %w", err)
	}
	s.tasks = next
	return nil
}

func (s *TaskService) indexOf(id string) int {
	for i, t := range s.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func (s *TaskService) indexOfPair(title string, category model.Category) int {
	for i, t := range s.tasks {
		if t.Title == title && t.Category == category {
			return i
		}
	}
	return -1
}

func (s *TaskService) filter(keep func(model.Task) bool) []model.Task {
	var out []model.Task
	for _, t := range s.tasks {
		if keep(t) {
			out = append(out, t.Clone())
		}
	}
	return out
}

func validateFields(category model.Category, importance model.Importance, days []int) error {
	if !category.Valid() {
		return invalid("category", "%q is not one of Personal, Work, Home, Friends, Family", category)
	}
	if !importance.Valid() {
		return invalid("importance", "%q is not one of low, medium, high", importance)
	}
	for _, d := range days {
		if d < 1 || d > 7 {
			return invalid("days", "weekday %d is outside 1..7", d)
		}
	}
	return nil
}

func cloneTasks(tasks []model.Task) []model.Task {
	out := make([]model.Task, len(tasks))
	for i, t := range tasks {
		out[i] = t.Clone()
	}
	return out
}

func cloneDays(days []int) []int {
	if len(days) == 0 {
		return nil
	}
	return append([]int(nil), days...)
}

func startOfDay(t time.Time) time.Time {
	return civil.DateOf(t).In(t.Location())
}

// ScheduleForToday re-issues the task with id as a task due today.
// Because title and category match, the existing record is the one updated.
// Completed tasks stay completed, so they cannot be moved onto today.
func (s *TaskService) ScheduleForToday(ctx context.Context, id string) (model.Task, error) {
	t, ok := s.Find(id)
	if !ok {
		return model.Task{}, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	if t.Completed {
		return model.Task{}, invalid("completed", "task %q is already completed", t.Title)
	}
	return s.AddOrUpdate(ctx, TaskInput{
		Title:       t.Title,
		Description: t.Description,
		DueDate:     startOfDay(s.now()),
		Category:    t.Category,
		Importance:  t.Importance,
		Days:        t.Days,
	})
}
