package model

import "time"

// Record is one key-value entry of the local store.
type Record struct {
	Key       string `gorm:"column:name;primaryKey"`
	Value     string
	UpdatedAt time.Time
}
