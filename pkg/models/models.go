package models

import (
	"time"
)

// BucketUsage is one observation of a bucket's utilization. It doubles as
// a row in the mailed summary table.
type BucketUsage struct {
	BucketName  string    `json:"bucket_name"`
	UsageGB     float64   `json:"usage_gb"`
	ObjectCount int64     `json:"object_count"`
	Timestamp   time.Time `json:"timestamp"`
}

// MonthlyBucketAverage represents the average usage for a bucket over a month.
type MonthlyBucketAverage struct {
	BucketName     string  `json:"bucket_name"`
	Year           int     `json:"year"`
	Month          int     `json:"month"`
	AvgUsageGB     float64 `json:"avg_usage_gb"`
	AvgObjectCount float64 `json:"avg_object_count"`
	DataPoints     int     `json:"data_points"`
}

// MailConfig holds the SMTP submission settings for the daily report.
type MailConfig struct {
	Host     string   `yaml:"host"`
	Port     int      `yaml:"port"`
	Nickname string   `yaml:"nickname"`
	Username string   `yaml:"username"`
	Password string   `yaml:"password"`
	From     string   `yaml:"from"`
	To       []string `yaml:"to"`
	Cc       []string `yaml:"cc"`
	Subject  string   `yaml:"subject"`
}

// Config represents the application configuration.
type Config struct {
	// Source selects how bucket stats are collected: "cli" shells out to
	// the admin command, "admin-api" queries the RGW Admin API.
	Source string `yaml:"source"`

	// AdminCommand is the radosgw-admin binary used by the cli source.
	AdminCommand string `yaml:"admin_command"`

	// Admin API credentials, used only when Source is "admin-api".
	S3Endpoint  string `yaml:"s3_endpoint"`
	S3AccessKey string `yaml:"s3_access_key"`
	S3SecretKey string `yaml:"s3_secret_key"`
	S3Region    string `yaml:"s3_region"`

	// DataDir holds the per-bucket ledger files and, during a run, the
	// rendered chart images.
	DataDir string `yaml:"data_dir"`

	// DBPath is the SQLite archive. Empty disables archiving.
	DBPath string `yaml:"db_path"`

	Mail MailConfig `yaml:"mail"`
}
