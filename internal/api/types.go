package api

import "encoding/json"

// UserInfo is one entry of the receiver's user listing.
type UserInfo struct {
	Name string `json:"name"`
}

// CommandResponse is the receiver's reply to a control command. Status is
// "success" on acceptance; anything else is a backend-reported failure with
// Message explaining it. State, when present, is the authoritative
// system_state after the command.
type CommandResponse struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	State   json.RawMessage `json:"state"`
}

// Success reports whether the backend accepted the command.
func (r *CommandResponse) Success() bool {
	return r.Status == "success"
}

// UptimeStats mirrors the receiver's uptime_stats object.
type UptimeStats struct {
	TotalMessages int    `json:"total_messages"`
	LastSeen      string `json:"last_seen"`
}

// StatsResponse mirrors GET /stats.
type StatsResponse struct {
	UptimeStats        UptimeStats `json:"uptime_stats"`
	TotalLogEntries    int         `json:"total_log_entries"`
	TotalMessagesToday int         `json:"total_messages_today"`
	DailyFiles         []string    `json:"daily_files"`
}

// InitDataResponse mirrors GET /init-data: the receiver's retained message
// backlog, each element an event envelope.
type InitDataResponse struct {
	Messages []json.RawMessage `json:"messages"`
}

// CleanupResponse mirrors GET /cleanup.
type CleanupResponse struct {
	Error        string  `json:"error"`
	TotalSizeMB  float64 `json:"total_size_mb"`
	MaxSizeMB    float64 `json:"max_size_mb"`
	MaxDays      int     `json:"max_days"`
	FilesDeleted int     `json:"files_deleted"`
	SpaceFreedMB float64 `json:"space_freed_mb"`
	Forced       bool    `json:"forced"`
	ForceCleanup bool    `json:"force_cleanup"`
}

// StorageResponse mirrors GET /storage.
type StorageResponse struct {
	Error            string  `json:"error"`
	DataDirSizeMB    float64 `json:"data_dir_size_mb"`
	DataDirFileCount int     `json:"data_dir_file_count"`
	OldestFile       string  `json:"oldest_file"`
	OldestFileDate   string  `json:"oldest_file_date"`
	DiskFreeMB       float64 `json:"disk_free_mb"`
	DiskTotalMB      float64 `json:"disk_total_mb"`
	DiskUsedPercent  float64 `json:"disk_used_percent"`
	MaxLogSizeMB     float64 `json:"max_log_size_mb"`
	MaxDaysToKeep    int     `json:"max_days_to_keep"`
}
