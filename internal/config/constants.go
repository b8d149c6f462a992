package config

// Default paths for the database and the legacy file-based schedule
const (
	// DefaultDatabasePath is the default path for the main application database
	DefaultDatabasePath = "./feedsync.db"

	// DefaultScheduleDir is where the legacy scheduled_feed file is looked up
	DefaultScheduleDir = "./var"
)
