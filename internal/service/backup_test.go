package service

import (
	"encoding/json"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plannr/internal/model"
	"plannr/internal/storage"
)

func TestExportImportRoundTrip(t *testing.T) {
	src := newFixture(t, 0)
	src.seedUser(t, model.User{ID: "u1", Username: "ann", FullName: "Ann", Streak: 3, WorkweekDays: []int{1, 2}}, day("2024-06-09"))
	p := src.open(t)
	a := src.add(t, "a", model.CategoryWork, june10)
	src.add(t, "b", model.CategoryFamily, june10.AddDate(0, 0, 2))
	_, err := p.Complete(src.ctx, a.ID)
	require.NoError(t, err)

	raw, err := p.ExportJSON()
	require.NoError(t, err)
	var bundle model.Backup
	require.NoError(t, json.Unmarshal(raw, &bundle))
	assert.Equal(t, model.BackupVersion, bundle.Version)
	assert.Equal(t, "2024-06-10T09:00:00Z", bundle.ExportDate)

	dst := newFixture(t, 0)
	dst.clock.advance(48 * time.Hour)
	q := dst.open(t)
	res := q.Import(dst.ctx, raw)
	require.True(t, res.Success, res.Message)
	assert.Equal(t, "Data imported successfully!", res.Message)

	assert.Equal(t, p.AllTasks(), q.AllTasks())
	assert.Equal(t, p.CurrentUser(), q.CurrentUser())
	assert.Equal(t, day("2024-06-12"), q.LastStreakDate())
	assert.Equal(t, "2024-06-12", storage.Load(dst.ctx, dst.store, storage.KeyLastStreakDate, ""))
}

func TestImportWithoutUserKeepsSession(t *testing.T) {
	f := newFixture(t, 0)
	f.seedUser(t, model.User{ID: "u1", Username: "ann"}, day("2024-06-09"))
	p := f.open(t)

	res := p.Import(f.ctx, []byte(`{"version":"1.0","exportDate":"2024-06-01T00:00:00Z","user":null,
		"tasks":[{"id":"t1","title":"Legacy","dueDate":"2024-06-11","category":"Home","completed":false,"createdAt":"2024-06-01T00:00:00Z"}]}`))
	require.True(t, res.Success, res.Message)
	assert.Equal(t, "ann", f.user(t).Username)
	up := p.TasksForUpcoming()
	require.Len(t, up, 1)
	assert.Equal(t, "Legacy", up[0].Title)
}

func TestImportRejections(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"not json", `{oops`, "Failed to import data. The file may be corrupted."},
		{"missing version", `{"exportDate":"x","tasks":[]}`, "Invalid backup file format. Missing version or export date."},
		{"missing export date", `{"version":"1.0","tasks":[]}`, "Invalid backup file format. Missing version or export date."},
		{"tasks not array", `{"version":"1.0","exportDate":"x","tasks":{"id":"1"}}`, "Invalid tasks data in backup file."},
		{"tasks missing", `{"version":"1.0","exportDate":"x"}`, "Invalid tasks data in backup file."},
		{"task without title", `{"version":"1.0","exportDate":"x","tasks":[{"id":"1","title":"","category":"Work"}]}`, "Invalid tasks data in backup file."},
		{"task bad category", `{"version":"1.0","exportDate":"x","tasks":[{"id":"1","title":"a","category":"Gym"}]}`, "Invalid tasks data in backup file."},
		{"task bad date", `{"version":"1.0","exportDate":"x","tasks":[{"id":"1","title":"a","category":"Work","dueDate":"soon"}]}`, "Invalid tasks data in backup file."},
		{"user without name", `{"version":"1.0","exportDate":"x","tasks":[],"user":{"id":"u"}}`, "Failed to import data. The file may be corrupted."},
		{"negative streak", `{"version":"1.0","exportDate":"x","tasks":[],"user":{"username":"bob","streak":-1}}`, "Invalid user data in backup file."},
		{"negative completed", `{"version":"1.0","exportDate":"x","tasks":[],"user":{"username":"bob","tasksCompleted":-5}}`, "Invalid user data in backup file."},
		{"negative level", `{"version":"1.0","exportDate":"x","tasks":[],"user":{"username":"bob","achievements":-1}}`, "Invalid user data in backup file."},
		{"unreachable level", `{"version":"1.0","exportDate":"x","tasks":[],"user":{"username":"bob","achievements":1000}}`, "Invalid user data in backup file."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, 0)
			f.seedUser(t, model.User{ID: "u1", Username: "ann", Streak: 2}, day("2024-06-09"))
			p := f.open(t)
			keep := f.add(t, "keep", model.CategoryWork, june10.AddDate(0, 0, 1))

			res := p.Import(f.ctx, []byte(tt.data))
			assert.False(t, res.Success)
			assert.Equal(t, tt.want, res.Message)

			all := p.AllTasks()
			require.Len(t, all, 1)
			assert.Equal(t, keep.ID, all[0].ID)
			assert.Equal(t, "ann", f.user(t).Username)
			assert.Equal(t, day("2024-06-09"), p.LastStreakDate())
		})
	}
}

func TestImportQuotaLeavesStateUntouched(t *testing.T) {
	f := newFixture(t, 400)
	p := f.open(t)

	tasks := make([]model.Task, 0, 10)
	for i := 0; i < 10; i++ {
		tasks = append(tasks, model.Task{ID: string(rune('a' + i)), Title: "imported task", Category: model.CategoryWork, DueDate: june10})
	}
	raw, err := json.Marshal(model.Backup{Version: "1.0", ExportDate: "2024-06-10T00:00:00Z", Tasks: tasks})
	require.NoError(t, err)

	res := p.Import(f.ctx, raw)
	assert.False(t, res.Success)
	assert.Equal(t, "Failed to import data. Storage limit reached.", res.Message)
	assert.Empty(t, p.AllTasks())
	assert.False(t, f.store.Has(f.ctx, storage.KeyTasks))
}

func TestImportHugeCounterThenComplete(t *testing.T) {
	f := newFixture(t, 0)
	p := f.open(t)

	raw := fmt.Sprintf(`{"version":"1.0","exportDate":"2024-06-10T00:00:00Z","user":{"id":"u1","username":"ann","tasksCompleted":%d},
		"tasks":[{"id":"t1","title":"Last one","dueDate":"2024-06-10","category":"Work","createdAt":"2024-06-01T00:00:00Z"}]}`, math.MaxInt-1)
	res := p.Import(f.ctx, []byte(raw))
	require.True(t, res.Success, res.Message)

	done, err := p.Complete(f.ctx, "t1")
	require.NoError(t, err)
	assert.True(t, done)
	u := f.user(t)
	assert.Equal(t, math.MaxInt, u.TasksCompleted)
	assert.Equal(t, AchievementLevel(math.MaxInt), u.Achievements)
	assert.NotZero(t, p.Stats().Level.Level)
}
