package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/thannaske/rgwreport/pkg/chart"
	"github.com/thannaske/rgwreport/pkg/db"
	"github.com/thannaske/rgwreport/pkg/ledger"
	"github.com/thannaske/rgwreport/pkg/models"
	"github.com/thannaske/rgwreport/pkg/notify"
	"github.com/thannaske/rgwreport/pkg/radosgw"
)

// windowDays is the charted history window, matching the ledger depth.
const windowDays = 30

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Collect bucket usage and mail the daily report",
	Long: `Collect usage statistics for all buckets, update each bucket's rolling
ledger, render per-bucket trend charts, and mail the HTML summary report.
Intended to be run once per day from a scheduler.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		now := time.Now()
		// Day granularity throughout: the ledger, the chart window, and
		// the image names all key on the calendar date.
		today := dayOf(now)
		windowStart := today.AddDate(0, 0, -windowDays)

		source, err := newSource(config)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}

		// Collection failure is fatal: nothing is written, nothing is sent.
		stats, err := source.BucketStats(ctx)
		if err != nil {
			fmt.Printf("Error collecting bucket stats: %v\n", err)
			os.Exit(1)
		}

		if err := os.MkdirAll(config.DataDir, 0o755); err != nil {
			fmt.Printf("Error creating data directory %s: %v\n", config.DataDir, err)
			os.Exit(1)
		}
		store := ledger.NewStore(config.DataDir)

		var archive *db.DB
		if config.DBPath != "" {
			archive, err = db.NewDB(config.DBPath)
			if err != nil {
				fmt.Printf("Error connecting to archive database: %v\n", err)
				os.Exit(1)
			}
			defer archive.Close()

			if err := archive.InitDB(); err != nil {
				fmt.Printf("Error initializing archive database: %v\n", err)
				os.Exit(1)
			}
		}

		var rows []models.BucketUsage
		var images []string
		for _, s := range stats {
			row := s.Report(now)

			// A ledger failure ends this bucket's processing; the run
			// continues with the remaining buckets.
			if err := store.Append(row.BucketName, row.UsageGB, row.ObjectCount, today); err != nil {
				fmt.Printf("Error updating ledger for bucket %s: %v\n", row.BucketName, err)
				continue
			}
			rows = append(rows, row)

			if archive != nil {
				if err := archive.StoreBucketUsage(row); err != nil {
					fmt.Printf("Error archiving usage for bucket %s: %v\n", row.BucketName, err)
				}
			}

			dates, usages, counts, err := store.Read(row.BucketName)
			if err != nil {
				fmt.Printf("Error reading ledger for bucket %s: %v\n", row.BucketName, err)
				continue
			}

			img := filepath.Join(config.DataDir,
				fmt.Sprintf("%s-%s.png", row.BucketName, today.Format(ledger.DateFormat)))
			if err := chart.Render(row.BucketName, dates, usages, counts, windowStart, today, img); err != nil {
				fmt.Printf("Error rendering chart for bucket %s: %v\n", row.BucketName, err)
				continue
			}
			images = append(images, img)
		}

		if archive != nil {
			if err := updateMonthlyAverages(archive, now); err != nil {
				fmt.Printf("Error calculating monthly averages: %v\n", err)
			}
		}

		body := fmt.Sprintf("Usage through %s:\n", today.Format(ledger.DateFormat))
		notifier := notify.NewNotifier(config.Mail)
		if err := notifier.Send(ctx, config.Mail.Subject, body, rows, images); err != nil {
			// Delivery failure is logged, not fatal: the ledgers and the
			// archive are already updated, and cleanup still runs.
			fmt.Printf("Error sending report: %v\n", err)
		}

		// Charts are run-scoped artifacts. Only the files rendered by
		// this run are removed; stray files in the data dir are left
		// alone.
		for _, img := range images {
			if err := os.Remove(img); err != nil {
				fmt.Printf("Error removing chart %s: %v\n", img, err)
			}
		}
	},
}

// dayOf truncates a time to its calendar date, midnight UTC.
func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// updateMonthlyAverages recomputes the running month's averages when the
// run falls on its last day, so `list` and `prune` have aggregates to
// work from.
func updateMonthlyAverages(archive *db.DB, now time.Time) error {
	if now.Day() != daysInMonth(now.Year(), int(now.Month())) {
		return nil
	}
	return archive.CalculateMonthlyAverages(now.Year(), int(now.Month()))
}

// daysInMonth returns the number of days in a month.
func daysInMonth(year, month int) int {
	// The 0th day of the next month is this month's last day.
	t := time.Date(year, time.Month(month+1), 0, 0, 0, 0, 0, time.UTC)
	return t.Day()
}

// newSource builds the configured stats source.
func newSource(cfg models.Config) (radosgw.Source, error) {
	switch cfg.Source {
	case "cli":
		return &radosgw.CLISource{Command: cfg.AdminCommand}, nil
	case "admin-api":
		if cfg.S3Endpoint == "" || cfg.S3AccessKey == "" || cfg.S3SecretKey == "" {
			return nil, fmt.Errorf("missing RGW credentials: provide --endpoint, --access-key, and --secret-key")
		}
		return radosgw.NewAdminAPISource(cfg)
	default:
		return nil, fmt.Errorf("unknown stats source %q", cfg.Source)
	}
}

func init() {
	rootCmd.AddCommand(reportCmd)
}
