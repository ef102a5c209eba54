package model

import "time"

// Location is the optional home location on a profile.
type Location struct {
	City    string `json:"city"`
	Country string `json:"country"`
}

// User is the profile of the logged-in planner user together with its counters.
type User struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	FullName       string    `json:"fullName,omitempty"`
	Location       *Location `json:"location,omitempty"`
	DOB            string    `json:"dob,omitempty"`
	JoinDate       time.Time `json:"joinDate"`
	Streak         int       `json:"streak"`
	Achievements   int       `json:"achievements"`
	TasksCompleted int       `json:"tasksCompleted"`
	WorkweekDays   []int     `json:"workweekDays"`
}

// Clone returns a deep copy.
func (u User) Clone() User {
	c := u
	if u.Location != nil {
		loc := *u.Location
		c.Location = &loc
	}
	if u.WorkweekDays != nil {
		c.WorkweekDays = append([]int(nil), u.WorkweekDays...)
	}
	return c
}

// ProfileUpdate carries the fields to merge into a profile. Nil fields are left untouched.
type ProfileUpdate struct {
	FullName       *string
	Location       *Location
	DOB            *string
	Streak         *int
	Achievements   *int
	TasksCompleted *int
	WorkweekDays   []int
}

// Apply merges the update into u.
func (p ProfileUpdate) Apply(u *User) {
	if p.FullName != nil {
		u.FullName = *p.FullName
	}
	if p.Location != nil {
		loc := *p.Location
		u.Location = &loc
	}
	if p.DOB != nil {
		u.DOB = *p.DOB
	}
	if p.Streak != nil {
		u.Streak = *p.Streak
	}
	if p.Achievements != nil {
		u.Achievements = *p.Achievements
	}
	if p.TasksCompleted != nil {
		u.TasksCompleted = *p.TasksCompleted
	}
	if p.WorkweekDays != nil {
		u.WorkweekDays = append([]int(nil), p.WorkweekDays...)
	}
}
