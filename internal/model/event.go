package model

import (
	"database/sql"
	"time"
)

// Event levels
const (
	EventLevelInfo    = "info"
	EventLevelWarning = "warning"
	EventLevelError   = "error"
)

// Event categories
const (
	EventCategoryAuth   = "auth"
	EventCategoryPost   = "post"
	EventCategoryTag    = "tag"
	EventCategoryUser   = "user"
	EventCategorySystem = "system"
)

// Event represents a system event log entry.
type Event struct {
	ID        int64
	Level     string
	Category  string
	Message   string
	UserID    sql.NullString
	IPAddress string
	Metadata  string // JSON string
	CreatedAt time.Time
}
