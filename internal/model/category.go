package model

import "strings"

// Category groups tasks by area of life. The set is closed.
type Category string

const (
	CategoryPersonal Category = "Personal"
	CategoryWork     Category = "Work"
	CategoryHome     Category = "Home"
	CategoryFriends  Category = "Friends"
	CategoryFamily   Category = "Family"
)

// Categories lists every category in display order.
var Categories = []Category{CategoryPersonal, CategoryWork, CategoryHome, CategoryFriends, CategoryFamily}

// Valid reports whether c belongs to the closed set.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// ParseCategory matches a category name case-insensitively.
func ParseCategory(raw string) (Category, bool) {
	raw = strings.TrimSpace(raw)
	for _, known := range Categories {
		if strings.EqualFold(raw, string(known)) {
			return known, true
		}
	}
	return "", false
}

// Importance is an optional priority marker.
type Importance string

const (
	ImportanceNone   Importance = ""
	ImportanceLow    Importance = "low"
	ImportanceMedium Importance = "medium"
	ImportanceHigh   Importance = "high"
)

// Valid reports whether i is empty or one of low/medium/high.
func (i Importance) Valid() bool {
	switch i {
	case ImportanceNone, ImportanceLow, ImportanceMedium, ImportanceHigh:
		return true
	}
	return false
}

// ParseImportance matches an importance case-insensitively; empty input yields ImportanceNone.
func ParseImportance(raw string) (Importance, bool) {
	imp := Importance(strings.ToLower(strings.TrimSpace(raw)))
	return imp, imp.Valid()
}
