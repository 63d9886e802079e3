package models

import "time"

// StoreStats are aggregate counts over the pricing store, printed after a
// session for monitoring.
type StoreStats struct {
	TotalProperties int `db:"total_properties"`
	TotalPlatforms  int `db:"total_platforms"`
	ActivePlatforms int `db:"active_platforms"`
	TotalRuns       int `db:"total_runs"`
	SuccessfulRuns  int `db:"successful_runs"`
	TotalRecords    int `db:"total_records"`

	LastRunAt     *time.Time
	LastRunStatus string
}
