package service

import (
	"context"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/require"

	"plannr/internal/identity"
	"plannr/internal/model"
	"plannr/internal/storage"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) advance(d time.Duration) { c.now = c.now.Add(d) }

type fixture struct {
	ctx      context.Context
	clock    *fakeClock
	backend  *storage.MemoryBackend
	store    *storage.Store
	identity *identity.Provider
	planner  *Planner
}

var june10 = time.Date(2024, time.June, 10, 9, 0, 0, 0, time.UTC)

func newFixture(t *testing.T, quota int64) *fixture {
	t.Helper()
	f := &fixture{
		ctx:     context.Background(),
		clock:   &fakeClock{now: june10},
		backend: storage.NewMemoryBackend(),
	}
	f.store = storage.New(f.backend, quota)
	require.NoError(t, f.store.Init(f.ctx))
	return f
}

// open builds a planner over whatever the store holds.
func (f *fixture) open(t *testing.T) *Planner {
	t.Helper()
	return f.openSeeded(t, false)
}

func (f *fixture) openSeeded(t *testing.T, seed bool) *Planner {
	t.Helper()
	f.identity = identity.NewProvider(f.ctx, f.store, f.clock.Now)
	f.planner = NewPlanner(f.store, f.identity, Options{Now: f.clock.Now, Location: time.UTC, SeedSamples: seed})
	require.NoError(t, f.planner.Open(f.ctx))
	return f.planner
}

// seedUser stores a profile and a last streak date before open.
func (f *fixture) seedUser(t *testing.T, user model.User, last civil.Date) {
	t.Helper()
	require.NoError(t, f.store.Save(f.ctx, storage.KeyUser, user))
	if !last.IsZero() {
		require.NoError(t, f.store.Save(f.ctx, storage.KeyLastStreakDate, last.String()))
	}
}

func (f *fixture) user(t *testing.T) model.User {
	t.Helper()
	u := f.planner.CurrentUser()
	require.NotNil(t, u)
	return *u
}

func (f *fixture) add(t *testing.T, title string, category model.Category, due time.Time) model.Task {
	t.Helper()
	task, err := f.planner.AddOrUpdate(f.ctx, TaskInput{Title: title, Category: category, DueDate: due})
	require.NoError(t, err)
	return task
}

func day(s string) civil.Date {
	d, err := civil.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}
