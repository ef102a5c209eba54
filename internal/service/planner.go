package service

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"cloud.google.com/go/civil"

	"plannr/internal/model"
	"plannr/internal/storage"
)

// Identity is the session side of the identity provider.
type Identity interface {
	Profiles
	Login(ctx context.Context, username, password string) (*model.User, error)
	Register(ctx context.Context, username, password, dob string) (*model.User, error)
	Logout(ctx context.Context) error
	Reload(ctx context.Context)
}

// Options configures a Planner.
type Options struct {
	// Now defaults to time.Now.
	Now func() time.Time
	// Location decides which calendar day "today" is. Defaults to time.Local.
	Location *time.Location
	// SeedSamples fills an empty store with sample tasks on Open.
	SeedSamples bool
}

// Planner is the bookkeeping engine. Every exported method holds one lock,
// so the bot loop and scheduled jobs never interleave.
type Planner struct {
	mu         sync.Mutex
	store      *storage.Store
	identity   Identity
	tasks      *TaskService
	streak     *StreakService
	categories *CategoryService
	now        func() time.Time
	seed       bool
}

func NewPlanner(store *storage.Store, identity Identity, opts Options) *Planner {
	clock := opts.Now
	if clock == nil {
		clock = time.Now
	}
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	now := func() time.Time { return clock().In(loc) }

	tasks := NewTaskService(store, now)
	return &Planner{
		store:      store,
		identity:   identity,
		tasks:      tasks,
		streak:     NewStreakService(store, identity),
		categories: NewCategoryService(tasks),
		now:        now,
		seed:       opts.SeedSamples,
	}
}

// Open loads persisted state and runs the day-boundary checks.
func (p *Planner) Open(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.tasks.Load(ctx, p.seed); err != nil {
		return fmt.Errorf("load tasks: %w", err)
	}
	p.streak.Load(ctx)
	return p.checkAll(ctx)
}

// Today is the current calendar day in the planner's location.
func (p *Planner) Today() civil.Date {
	return civil.DateOf(p.now())
}

// Now is the current time in the planner's location.
func (p *Planner) Now() time.Time {
	return p.now()
}

func (p *Planner) CurrentUser() *model.User {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.identity.CurrentUser()
}

// Login starts a session and re-evaluates the streak for the new user.
func (p *Planner) Login(ctx context.Context, username, password string) (*model.User, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, err := p.identity.Login(ctx, username, password); err != nil {
		return nil, err
	}
	if err := p.checkAll(ctx); err != nil {
		return nil, err
	}
	return p.identity.CurrentUser(), nil
}

// Register creates a profile with a birth date and starts a session.
func (p *Planner) Register(ctx context.Context, username, password, dob string) (*model.User, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, err := p.identity.Register(ctx, username, password, dob); err != nil {
		return nil, err
	}
	if err := p.checkAll(ctx); err != nil {
		return nil, err
	}
	return p.identity.CurrentUser(), nil
}

func (p *Planner) Logout(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.identity.Logout(ctx)
}

func (p *Planner) UpdateProfile(ctx context.Context, update model.ProfileUpdate) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.identity.UpdateProfile(ctx, update)
}

func (p *Planner) AddOrUpdate(ctx context.Context, input TaskInput) (model.Task, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	t, err := p.tasks.AddOrUpdate(ctx, input)
	if err != nil {
		return model.Task{}, err
	}
	return t, p.checkCompletion(ctx)
}

func (p *Planner) Update(ctx context.Context, id string, patch TaskPatch) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.tasks.Update(ctx, id, patch); err != nil {
		return err
	}
	return p.checkCompletion(ctx)
}

func (p *Planner) Delete(ctx context.Context, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.tasks.Delete(ctx, id); err != nil {
		return err
	}
	return p.checkCompletion(ctx)
}

// Complete marks a task done, bumps the profile counters once, then checks the streak.
// It reports whether the task changed.
func (p *Planner) Complete(ctx context.Context, id string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	done, err := p.tasks.Complete(ctx, id)
	if err != nil || !done {
		return false, err
	}
	if user := p.identity.CurrentUser(); user != nil {
		if err := p.identity.UpdateProfile(ctx, CompletionUpdate(*user)); err != nil {
			return true, fmt.Errorf("update completion counters: %w", err)
		}
	}
	return true, p.checkCompletion(ctx)
}

func (p *Planner) ScheduleForToday(ctx context.Context, id string) (model.Task, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	t, err := p.tasks.ScheduleForToday(ctx, id)
	if err != nil {
		return model.Task{}, err
	}
	return t, p.checkCompletion(ctx)
}

func (p *Planner) TasksForDay(day civil.Date) []model.Task {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tasks.TasksForDay(day)
}

func (p *Planner) TasksForToday() []model.Task {
	return p.TasksForDay(p.Today())
}

func (p *Planner) TasksForUpcoming() []model.Task {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tasks.TasksForUpcoming(civil.DateOf(p.now()))
}

func (p *Planner) TasksForNextNDays(n int) map[civil.Date][]model.Task {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tasks.TasksForNextNDays(civil.DateOf(p.now()), n)
}

func (p *Planner) TasksByCategory(category model.Category) []model.Task {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tasks.TasksByCategory(category)
}

func (p *Planner) AllTasks() []model.Task {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tasks.All()
}

func (p *Planner) Find(id string) (model.Task, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tasks.Find(id)
}

func (p *Planner) Resolve(ref string) (model.Task, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tasks.Resolve(ref)
}

func (p *Planner) Categories() []CategoryCount {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.categories.List()
}

// CheckStreakReset runs the missed-day check. The scheduler calls it after midnight.
func (p *Planner) CheckStreakReset(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.streak.CheckReset(ctx, civil.DateOf(p.now()))
}

func (p *Planner) ForceStreak(ctx context.Context, streak int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.streak.Force(ctx, streak, civil.DateOf(p.now()))
}

// LastStreakDate is the last day the streak was evaluated. Zero when unset.
func (p *Planner) LastStreakDate() civil.Date {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.streak.LastDate()
}

// Clear removes every record and starts over logged out.
func (p *Planner) Clear(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear storage: %w", err)
	}
	log.Printf("[info] all stored data cleared")
	p.tasks.replace(nil)
	p.streak.restore(civil.Date{})
	p.identity.Reload(ctx)
	return p.store.Init(ctx)
}

func (p *Planner) StorageUsage(ctx context.Context) (storage.Usage, error) {
	return p.store.Usage(ctx)
}

func (p *Planner) checkAll(ctx context.Context) error {
	if err := p.streak.CheckReset(ctx, civil.DateOf(p.now())); err != nil {
		return err
	}
	return p.checkCompletion(ctx)
}

func (p *Planner) checkCompletion(ctx context.Context) error {
	today := civil.DateOf(p.now())
	return p.streak.CheckCompletion(ctx, p.tasks.DueOn(today), today)
}
