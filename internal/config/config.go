package config

import (
	"time"

	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		Global
		Database
		PureClarity
		Feeds
		Schedules
		Tasks
	}

	HTTP struct {
		Port int32
		Host string
	}

	Global struct {
		ShutdownTimeoutInSeconds int
	}

	Database struct {
		Path string
	}

	// PureClarity holds credentials for the remote personalization API.
	PureClarity struct {
		AccessKey string
		SecretKey string
		Region    string
	}

	Feeds struct {
		PageSize            int
		BrandFeedEnabled    bool
		BrandParentCategory int
		ExcludeOutOfStock   bool   // drop out-of-stock products from recommenders
		PlaceholderImageURL string // store-configured default image
		SecondaryImageURL   string // secondary fallback when the default is unset
		ScheduleDir         string // directory holding the legacy scheduled_feed file
	}

	Schedules struct {
		NightlyEnabled    bool
		NightlySchedule   string // Cron format: "0 3 * * *" = daily at 03:00
		RequestedSchedule string // Cron format: "* * * * *" = every minute
		ScheduledFileCron string
		DeltaEnabled      bool
		DeltaSchedule     string
	}

	Tasks struct {
		Enabled         bool
		Workers         int
		ReleaseAfter    time.Duration
		CleanupInterval time.Duration
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8188)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 2)
	v.SetDefault("database_path", DefaultDatabasePath)

	// PureClarity defaults
	v.SetDefault("pureclarity_access_key", "")
	v.SetDefault("pureclarity_secret_key", "")
	v.SetDefault("pureclarity_region", "eu-west-1")

	// Feed defaults
	v.SetDefault("feed_page_size", 50)
	v.SetDefault("brand_feed_enabled", false)
	v.SetDefault("brand_parent_category", -1)
	v.SetDefault("feed_exclude_out_of_stock", false)
	v.SetDefault("feed_placeholder_image_url", "")
	v.SetDefault("feed_secondary_image_url", "")
	v.SetDefault("feed_schedule_dir", DefaultScheduleDir)

	// Schedule defaults
	v.SetDefault("nightly_feed_enabled", true)
	v.SetDefault("nightly_feed_schedule", "0 3 * * *") // Daily at 03:00
	v.SetDefault("requested_feed_schedule", "* * * * *")
	v.SetDefault("scheduled_file_schedule", "* * * * *")
	v.SetDefault("delta_feed_enabled", true)
	v.SetDefault("delta_feed_schedule", "0 * * * *") // Hourly

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 1)
	v.SetDefault("task_release_after", "30m")
	v.SetDefault("task_cleanup_interval", "1h")

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		PureClarity: PureClarity{
			AccessKey: v.GetString("PURECLARITY_ACCESS_KEY"),
			SecretKey: v.GetString("PURECLARITY_SECRET_KEY"),
			Region:    v.GetString("PURECLARITY_REGION"),
		},
		Feeds: Feeds{
			PageSize:            v.GetInt("FEED_PAGE_SIZE"),
			BrandFeedEnabled:    v.GetBool("BRAND_FEED_ENABLED"),
			BrandParentCategory: v.GetInt("BRAND_PARENT_CATEGORY"),
			ExcludeOutOfStock:   v.GetBool("FEED_EXCLUDE_OUT_OF_STOCK"),
			PlaceholderImageURL: v.GetString("FEED_PLACEHOLDER_IMAGE_URL"),
			SecondaryImageURL:   v.GetString("FEED_SECONDARY_IMAGE_URL"),
			ScheduleDir:         v.GetString("FEED_SCHEDULE_DIR"),
		},
		Schedules: Schedules{
			NightlyEnabled:    v.GetBool("NIGHTLY_FEED_ENABLED"),
			NightlySchedule:   v.GetString("NIGHTLY_FEED_SCHEDULE"),
			RequestedSchedule: v.GetString("REQUESTED_FEED_SCHEDULE"),
			ScheduledFileCron: v.GetString("SCHEDULED_FILE_SCHEDULE"),
			DeltaEnabled:      v.GetBool("DELTA_FEED_ENABLED"),
			DeltaSchedule:     v.GetString("DELTA_FEED_SCHEDULE"),
		},
		Tasks: Tasks{
			Enabled:         v.GetBool("TASKS_ENABLED"),
			Workers:         v.GetInt("TASK_WORKERS"),
			ReleaseAfter:    v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval: v.GetDuration("TASK_CLEANUP_INTERVAL"),
		},
	}
}
