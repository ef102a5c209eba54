package model

// BackupVersion is written into every exported bundle.
const BackupVersion = "1.0"

// Backup is the export bundle: the full task collection and profile.
type Backup struct {
	Version    string `json:"version"`
	ExportDate string `json:"exportDate"`
	User       *User  `json:"user"`
	Tasks      []Task `json:"tasks"`
}
