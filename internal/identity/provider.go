// Package identity holds the mock session: the current user profile and its updates.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"plannr/internal/model"
	"plannr/internal/storage"
)

// DemoUsername logs into a pre-populated profile.
const DemoUsername = "demo_user"

// ErrUsernameRequired is returned by Login and Register for blank usernames.
var ErrUsernameRequired = errors.New("username is required")

var defaultWorkweek = []int{1, 2, 3, 4, 5}

// Provider owns the current user record. There is no real authentication.
type Provider struct {
	store *storage.Store
	now   func() time.Time
	mu    sync.RWMutex
	user  *model.User
}

// NewProvider restores the persisted session, if any.
func NewProvider(ctx context.Context, store *storage.Store, now func() time.Time) *Provider {
	if now == nil {
		now = time.Now
	}
	p := &Provider{store: store, now: now}
	p.Reload(ctx)
	return p
}

// Reload re-reads the stored profile.
func (p *Provider) Reload(ctx context.Context) {
	user := storage.Load[*model.User](ctx, p.store, storage.KeyUser, nil)
	p.mu.Lock()
	p.user = user
	p.mu.Unlock()
}

// CurrentUser returns a copy of the logged-in profile, or nil.
func (p *Provider) CurrentUser() *model.User {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.user == nil {
		return nil
	}
	u := p.user.Clone()
	return &u
}

// Login starts a session. Any password is accepted.
func (p *Provider) Login(ctx context.Context, username, _ string) (*model.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, ErrUsernameRequired
	}
	if username == DemoUsername {
		return p.start(ctx, p.demoUser())
	}
	return p.start(ctx, p.newUser(username, ""))
}

// Register starts a session for a new user with a date of birth.
func (p *Provider) Register(ctx context.Context, username, _ string, dob string) (*model.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, ErrUsernameRequired
	}
	return p.start(ctx, p.newUser(username, strings.TrimSpace(dob)))
}

// Logout ends the session and forgets the profile.
func (p *Provider) Logout(ctx context.Context) error {
	if err := p.store.Remove(ctx, storage.KeyUser); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	p.mu.Lock()
	p.user = nil
	p.mu.Unlock()
	return nil
}

// UpdateProfile merges update into the current profile and persists it.
// Without a logged-in user it does nothing.
func (p *Provider) UpdateProfile(ctx context.Context, update model.ProfileUpdate) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.user == nil {
		return nil
	}
	next := p.user.Clone()
	update.Apply(&next)
	if err := p.store.Save(ctx, storage.KeyUser, next); err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	p.user = &next
	return nil
}

func (p *Provider) start(ctx context.Context, user model.User) (*model.User, error) {
	if err := p.store.Save(ctx, storage.KeyUser, user); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	p.mu.Lock()
	p.user = &user
	p.mu.Unlock()
	out := user.Clone()
	return &out, nil
}

func (p *Provider) newUser(username, dob string) model.User {
	return model.User{
		ID:           uuid.NewString(),
		Username:     username,
		DOB:          dob,
		JoinDate:     p.now(),
		WorkweekDays: append([]int(nil), defaultWorkweek...),
	}
}

func (p *Provider) demoUser() model.User {
	return model.User{
		ID:             "demo123",
		Username:       DemoUsername,
		FullName:       "Demo User",
		Location:       &model.Location{City: "San Francisco", Country: "USA"},
		DOB:            "1990-01-01",
		JoinDate:       p.now(),
		Streak:         5,
		Achievements:   3,
		TasksCompleted: 18,
		WorkweekDays:   append([]int(nil), defaultWorkweek...),
	}
}
