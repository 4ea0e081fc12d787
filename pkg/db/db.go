// Package db archives every usage observation in SQLite. The flat-file
// ledger only keeps a 30-day window per bucket; the archive retains the
// full history and the monthly averages derived from it.
package db

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/thannaske/rgwreport/pkg/models"
)

// DB represents the archive database connection.
type DB struct {
	*sql.DB
}

// NewDB opens the archive at dbPath, creating the file if needed.
func NewDB(dbPath string) (*DB, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return &DB{db}, nil
}

// InitDB creates the archive tables and indexes.
func (db *DB) InitDB() error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS bucket_usage (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			bucket_name TEXT NOT NULL,
			usage_gb REAL NOT NULL,
			object_count INTEGER NOT NULL,
			timestamp DATETIME NOT NULL
		)
	`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS monthly_averages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			bucket_name TEXT NOT NULL,
			year INTEGER NOT NULL,
			month INTEGER NOT NULL,
			avg_usage_gb REAL NOT NULL,
			avg_object_count REAL NOT NULL,
			data_points INTEGER NOT NULL,
			UNIQUE(bucket_name, year, month)
		)
	`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_bucket_usage_name_time
		ON bucket_usage(bucket_name, timestamp)
	`)
	return err
}

// StoreBucketUsage records one observation in the archive.
func (db *DB) StoreBucketUsage(usage models.BucketUsage) error {
	_, err := db.Exec(`
		INSERT INTO bucket_usage (bucket_name, usage_gb, object_count, timestamp)
		VALUES (?, ?, ?, ?)
	`, usage.BucketName, usage.UsageGB, usage.ObjectCount, usage.Timestamp)
	return err
}

// GetBucketUsage retrieves the observations for one bucket within a time
// range, oldest first.
func (db *DB) GetBucketUsage(bucketName string, startTime, endTime time.Time) ([]models.BucketUsage, error) {
	rows, err := db.Query(`
		SELECT bucket_name, usage_gb, object_count, timestamp
		FROM bucket_usage
		WHERE bucket_name = ? AND timestamp BETWEEN ? AND ?
		ORDER BY timestamp
	`, bucketName, startTime, endTime)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var usages []models.BucketUsage
	for rows.Next() {
		var u models.BucketUsage
		if err := rows.Scan(&u.BucketName, &u.UsageGB, &u.ObjectCount, &u.Timestamp); err != nil {
			return nil, err
		}
		usages = append(usages, u)
	}
	return usages, rows.Err()
}

// CalculateMonthlyAverages computes and upserts the monthly average for
// every bucket observed in the given month.
func (db *DB) CalculateMonthlyAverages(year, month int) error {
	startDate := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	endDate := startDate.AddDate(0, 1, 0).Add(-time.Second)

	bucketRows, err := db.Query(`
		SELECT DISTINCT bucket_name
		FROM bucket_usage
		WHERE timestamp BETWEEN ? AND ?
	`, startDate, endDate)
	if err != nil {
		return err
	}
	defer bucketRows.Close()

	var buckets []string
	for bucketRows.Next() {
		var bucket string
		if err := bucketRows.Scan(&bucket); err != nil {
			return err
		}
		buckets = append(buckets, bucket)
	}
	if err := bucketRows.Err(); err != nil {
		return err
	}

	for _, bucketName := range buckets {
		var avgUsage, avgCount float64
		var dataPoints int
		err := db.QueryRow(`
			SELECT AVG(usage_gb), AVG(object_count), COUNT(*)
			FROM bucket_usage
			WHERE bucket_name = ? AND timestamp BETWEEN ? AND ?
		`, bucketName, startDate, endDate).Scan(&avgUsage, &avgCount, &dataPoints)
		if err != nil {
			return err
		}

		_, err = db.Exec(`
			INSERT INTO monthly_averages
			(bucket_name, year, month, avg_usage_gb, avg_object_count, data_points)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(bucket_name, year, month)
			DO UPDATE SET
				avg_usage_gb = excluded.avg_usage_gb,
				avg_object_count = excluded.avg_object_count,
				data_points = excluded.data_points
		`, bucketName, year, month, avgUsage, avgCount, dataPoints)
		if err != nil {
			return err
		}
	}
	return nil
}

// GetAllMonthlyAverages returns the averages of every bucket for one month.
func (db *DB) GetAllMonthlyAverages(year, month int) ([]models.MonthlyBucketAverage, error) {
	rows, err := db.Query(`
		SELECT bucket_name, year, month, avg_usage_gb, avg_object_count, data_points
		FROM monthly_averages
		WHERE year = ? AND month = ?
		ORDER BY bucket_name
	`, year, month)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var averages []models.MonthlyBucketAverage
	for rows.Next() {
		var avg models.MonthlyBucketAverage
		if err := rows.Scan(
			&avg.BucketName, &avg.Year, &avg.Month,
			&avg.AvgUsageGB, &avg.AvgObjectCount, &avg.DataPoints,
		); err != nil {
			return nil, err
		}
		averages = append(averages, avg)
	}
	return averages, rows.Err()
}

// PruneOldData deletes individual observations from completed months that
// already have monthly averages, keeping the archive size bounded. Data
// from the current month, and from months without averages, is kept.
func (db *DB) PruneOldData() (int64, error) {
	now := time.Now()
	currentMonthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.Query(`
		SELECT DISTINCT year, month
		FROM monthly_averages
		ORDER BY year, month
	`)
	if err != nil {
		return 0, fmt.Errorf("querying monthly averages: %w", err)
	}
	defer rows.Close()

	var completedMonths []time.Time
	for rows.Next() {
		var year, month int
		if err := rows.Scan(&year, &month); err != nil {
			return 0, fmt.Errorf("scanning monthly average row: %w", err)
		}
		monthStart := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
		if monthStart.Before(currentMonthStart) {
			completedMonths = append(completedMonths, monthStart)
		}
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("iterating monthly average rows: %w", err)
	}

	if len(completedMonths) == 0 {
		return 0, nil
	}

	var totalDeleted int64
	for _, monthStart := range completedMonths {
		monthEnd := monthStart.AddDate(0, 1, 0).Add(-time.Second)
		result, err := tx.Exec(`
			DELETE FROM bucket_usage
			WHERE timestamp >= ? AND timestamp <= ?
		`, monthStart, monthEnd)
		if err != nil {
			return 0, fmt.Errorf("deleting data points for %s: %w", monthStart.Format("2006-01"), err)
		}
		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("counting deleted rows: %w", err)
		}
		totalDeleted += rowsAffected
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing transaction: %w", err)
	}
	return totalDeleted, nil
}
