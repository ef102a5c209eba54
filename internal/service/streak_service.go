package service

import (
	"context"
	"fmt"
	"log"

	"cloud.google.com/go/civil"

	"plannr/internal/model"
	"plannr/internal/storage"
)

// Profiles is the part of the identity provider the engine writes counters through.
type Profiles interface {
	CurrentUser() *model.User
	UpdateProfile(ctx context.Context, update model.ProfileUpdate) error
}

// StreakService persists the last streak date and pushes streak changes to the profile.
type StreakService struct {
	store    *storage.Store
	profiles Profiles
	last     civil.Date
}

func NewStreakService(store *storage.Store, profiles Profiles) *StreakService {
	return &StreakService{store: store, profiles: profiles}
}

// Load reads the last streak date. Unparseable values count as unset.
func (s *StreakService) Load(ctx context.Context) {
	raw := storage.Load(ctx, s.store, storage.KeyLastStreakDate, "")
	s.last = civil.Date{}
	if raw == "" {
		return
	}
	d, err := civil.ParseDate(raw)
	if err != nil {
		log.Printf("[warn] ignore last streak date %q: %v", raw, err)
		return
	}
	s.last = d
}

// LastDate is the last day the streak was incremented or reset.
func (s *StreakService) LastDate() civil.Date {
	return s.last
}

// CheckReset zeroes the streak when a day was missed.
func (s *StreakService) CheckReset(ctx context.Context, today civil.Date) error {
	user := s.profiles.CurrentUser()
	if user == nil {
		return nil
	}
	d := EvaluateReset(StreakState{Streak: user.Streak, LastDate: s.last}, today)
	if d.StreakChanged {
		log.Printf("[info] streak reset due to missed day last=%s today=%s", s.last, today)
	}
	return s.apply(ctx, d)
}

// CheckCompletion grants today's streak day when all of today's tasks are done.
func (s *StreakService) CheckCompletion(ctx context.Context, dueToday []model.Task, today civil.Date) error {
	user := s.profiles.CurrentUser()
	if user == nil {
		return nil
	}
	d := EvaluateCompletion(StreakState{Streak: user.Streak, LastDate: s.last}, dueToday, today)
	if d.StreakChanged {
		log.Printf("[info] all tasks completed, streak %d -> %d (%d tasks)", user.Streak, d.State.Streak, len(dueToday))
	}
	return s.apply(ctx, d)
}

// Force overrides the streak and marks today as evaluated.
func (s *StreakService) Force(ctx context.Context, streak int, today civil.Date) error {
	if streak < 0 {
		return invalid("streak", "must not be negative")
	}
	user := s.profiles.CurrentUser()
	if user == nil {
		return nil
	}
	log.Printf("[info] streak set manually %d -> %d", user.Streak, streak)
	return s.apply(ctx, StreakDecision{
		State:         StreakState{Streak: streak, LastDate: today},
		StreakChanged: true,
		DateChanged:   true,
	})
}

// restore sets the in-memory date after it was written elsewhere.
func (s *StreakService) restore(d civil.Date) {
	s.last = d
}

func (s *StreakService) apply(ctx context.Context, d StreakDecision) error {
	if d.StreakChanged {
		streak := d.State.Streak
		if err := s.profiles.UpdateProfile(ctx, model.ProfileUpdate{Streak: &streak}); err != nil {
			return fmt.Errorf("update streak: %w", err)
		}
	}
	if d.DateChanged {
		if err := s.store.Save(ctx, storage.KeyLastStreakDate, d.State.LastDate.String()); err != nil {
			return fmt.Errorf("save last streak date: %w", err)
		}
		s.last = d.State.LastDate
	}
	return nil
}
