package models

import "time"

type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// ScrapeRun is one scraping session against one credential set. Created
// when the session starts, finished exactly once, never deleted.
type ScrapeRun struct {
	ID             int64      `gorm:"column:id;primaryKey;autoIncrement"`
	PlatformID     int64      `gorm:"column:hotel_pms_platform_id;not null"`
	StartedAt      time.Time  `gorm:"column:started_at;not null"`
	CompletedAt    *time.Time `gorm:"column:completed_at"`
	Status         RunStatus  `gorm:"column:status;type:varchar(20);not null"`
	StartDate      string     `gorm:"column:start_date;type:varchar(10)"`
	EndDate        string     `gorm:"column:end_date;type:varchar(10)"`
	DaysScraped    int        `gorm:"column:days_scraped;not null;default:0"`
	RecordsCreated int        `gorm:"column:records_created;not null;default:0"`
	ErrorMessage   *string    `gorm:"column:error_message;type:text"`

	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (ScrapeRun) TableName() string {
	return "scraping_runs"
}

// RunSummary is what the driver reports after a run: rows attempted vs
// what actually landed.
type RunSummary struct {
	RunID     int64
	Property  string
	Attempted int
	Inserted  int
	Updated   int
	Rejected  int
	Failed    int
}
