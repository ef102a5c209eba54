package service

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plannr/internal/model"
)

func TestReminderService_DailySummary(t *testing.T) {
	f := newFixture(t, 0)
	f.seedUser(t, model.User{ID: "u1", Username: "ann", Streak: 3, Achievements: 1, TasksCompleted: 7}, day("2024-06-09"))
	p := f.open(t)
	f.add(t, "Pay <rent>", model.CategoryHome, june10)
	f.add(t, "Old report", model.CategoryWork, june10.AddDate(0, 0, -2))
	f.add(t, "Plan trip", model.CategoryFriends, june10.AddDate(0, 0, 4))

	text, ok := NewReminderService(p).DailySummary()
	require.True(t, ok)
	assert.Contains(t, text, "Mon, 10 Jun 2024")
	assert.Contains(t, text, "⏳ Pay &lt;rent&gt; <i>(Home)</i>")
	assert.Contains(t, text, "⚠️ <b>Overdue</b>")
	assert.Contains(t, text, "due 2024-06-08 · <b>overdue</b>")
	assert.Contains(t, text, "🟢 Plan trip <i>(Friends)</i>")
	assert.Contains(t, text, "in 4 day(s)")
	assert.Contains(t, text, "Streak: <b>3</b>")
}

func TestReminderService_NoUser(t *testing.T) {
	f := newFixture(t, 0)
	_, ok := NewReminderService(f.open(t)).DailySummary()
	assert.False(t, ok)
}

func TestBuildSummary_CapsUpcoming(t *testing.T) {
	var upcoming []model.Task
	for i := 1; i <= upcomingInReport+2; i++ {
		upcoming = append(upcoming, model.Task{ID: "id", Title: "later", Category: model.CategoryWork, DueDate: june10.AddDate(0, 0, i)})
	}
	text := BuildSummary(model.User{}, nil, upcoming, nil, june10)
	assert.Equal(t, upcomingInReport, strings.Count(text, "🟢")+strings.Count(text, "⏳"))
	assert.Contains(t, text, "… and 2 more")
	assert.Contains(t, text, "nothing left for today")
	assert.NotContains(t, text, "Overdue")
}

func TestShortID(t *testing.T) {
	assert.Equal(t, "0c9f17a2", ShortID("0c9f17a2-5d7e-4b3c-9a51-0a8e3c6d7f10"))
	assert.Equal(t, "abc", ShortID("abc"))
}

func TestDailySpec(t *testing.T) {
	spec, err := DailySpec("00:01")
	require.NoError(t, err)
	assert.Equal(t, "0 1 0 * * *", spec)

	spec, err = DailySpec(" 21:30 ")
	require.NoError(t, err)
	assert.Equal(t, "0 30 21 * * *", spec)

	for _, bad := range []string{"", "7", "24:00", "12:60", "aa:bb", "1:2:3"} {
		_, err := DailySpec(bad)
		assert.Error(t, err, bad)
	}
}

func TestSchedulerService_Register(t *testing.T) {
	s := NewSchedulerService(context.Background(), time.UTC)

	_, err := s.ScheduleDaily("streak", "00:01", func(context.Context) error { return nil })
	require.NoError(t, err)
	_, err = s.ScheduleInterval("report", 5*time.Hour, func(context.Context) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, 2, s.Len())

	_, err = s.ScheduleDaily("bad", "25:00", func(context.Context) error { return nil })
	assert.Error(t, err)
	_, err = s.ScheduleInterval("bad", time.Millisecond, func(context.Context) error { return nil })
	assert.Error(t, err)
	assert.Equal(t, 2, s.Len())
}

func TestSchedulerService_RunsJobs(t *testing.T) {
	s := NewSchedulerService(context.Background(), time.UTC)
	var runs atomic.Int32
	_, err := s.ScheduleInterval("tick", time.Second, func(context.Context) error {
		runs.Add(1)
		return errors.New("logged, not fatal")
	})
	require.NoError(t, err)

	s.Start()
	defer s.Stop()
	assert.Eventually(t, func() bool { return runs.Load() > 0 }, 3*time.Second, 50*time.Millisecond)
}
