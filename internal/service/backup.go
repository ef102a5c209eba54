package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"cloud.google.com/go/civil"

	"plannr/internal/model"
	"plannr/internal/storage"
)

// ImportResult reports the outcome of Import in user-facing terms.
type ImportResult struct {
	Success bool
	Message string
}

const (
	msgImportOK          = "Data imported successfully!"
	msgImportBadFormat   = "Invalid backup file format. Missing version or export date."
	msgImportBadTasks    = "Invalid tasks data in backup file."
	msgImportCorrupted   = "Failed to import data. The file may be corrupted."
	msgImportBadUser     = "Invalid user data in backup file."
	msgImportStorageFull = "Failed to import data. Storage limit reached."
)

// Export bundles the whole collection and the current profile.
func (p *Planner) Export() model.Backup {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.export()
}

// ExportJSON is Export encoded the way backup files are written.
func (p *Planner) ExportJSON() ([]byte, error) {
	b := p.Export()
	raw, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode backup: %w", err)
	}
	return raw, nil
}

func (p *Planner) export() model.Backup {
	return model.Backup{
		Version:    model.BackupVersion,
		ExportDate: p.now().UTC().Format(time.RFC3339),
		User:       p.identity.CurrentUser(),
		Tasks:      p.tasks.All(),
	}
}

// Import replaces tasks and profile with a backup. Nothing changes unless the result is successful.
func (p *Planner) Import(ctx context.Context, data []byte) ImportResult {
	b, msg := decodeBackup(data)
	if msg != "" {
		log.Printf("[warn] import rejected: %s", msg)
		return ImportResult{Message: msg}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	today := civil.DateOf(p.now())
	values := map[string]any{
		storage.KeyTasks:          b.Tasks,
		storage.KeyLastStreakDate: today.String(),
	}
	if b.User != nil {
		values[storage.KeyUser] = b.User
	}
	if err := p.store.SaveAll(ctx, values); err != nil {
		log.Printf("[warn] import write: %v", err)
		if errors.Is(err, storage.ErrQuotaExceeded) {
			return ImportResult{Message: msgImportStorageFull}
		}
		return ImportResult{Message: msgImportCorrupted}
	}

	p.tasks.replace(b.Tasks)
	p.streak.restore(today)
	if b.User != nil {
		p.identity.Reload(ctx)
	}
	log.Printf("[info] imported %d tasks", len(b.Tasks))
	return ImportResult{Success: true, Message: msgImportOK}
}

// decodeBackup returns the parsed backup or a rejection message.
func decodeBackup(data []byte) (model.Backup, string) {
	var head struct {
		Version    string          `json:"version"`
		ExportDate string          `json:"exportDate"`
		User       json.RawMessage `json:"user"`
		Tasks      json.RawMessage `json:"tasks"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return model.Backup{}, msgImportCorrupted
	}
	if head.Version == "" || head.ExportDate == "" {
		return model.Backup{}, msgImportBadFormat
	}
	if !strings.HasPrefix(strings.TrimSpace(string(head.Tasks)), "[") {
		return model.Backup{}, msgImportBadTasks
	}

	b := model.Backup{Version: head.Version, ExportDate: head.ExportDate}
	if err := json.Unmarshal(head.Tasks, &b.Tasks); err != nil {
		return model.Backup{}, msgImportBadTasks
	}
	for _, t := range b.Tasks {
		if err := Validate(t); err != nil {
			return model.Backup{}, msgImportBadTasks
		}
	}
	if b.Tasks == nil {
		b.Tasks = []model.Task{}
	}

	if u := strings.TrimSpace(string(head.User)); u != "" && u != "null" {
		var user model.User
		if err := json.Unmarshal(head.User, &user); err != nil || strings.TrimSpace(user.Username) == "" {
			return model.Backup{}, msgImportCorrupted
		}
		if !validCounters(user) {
			return model.Backup{}, msgImportBadUser
		}
		b.User = &user
	}
	return b, ""
}

// validCounters rejects negative counters and levels no task count can reach.
func validCounters(u model.User) bool {
	if u.Streak < 0 || u.TasksCompleted < 0 || u.Achievements < 0 {
		return false
	}
	return u.Achievements <= AchievementLevel(math.MaxInt)
}
