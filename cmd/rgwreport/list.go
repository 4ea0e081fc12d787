package main

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/thannaske/rgwreport/pkg/db"
)

var (
	year  int
	month int
)

// formatUsage renders a GB value with a readable unit.
func formatUsage(gb float64) string {
	switch {
	case gb >= 1024:
		return fmt.Sprintf("%.2f TB", gb/1024)
	case gb >= 1:
		return fmt.Sprintf("%.2f GB", gb)
	default:
		return fmt.Sprintf("%.2f MB", gb*1024)
	}
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List monthly bucket usage",
	Long:  `Display monthly average usage statistics for all buckets from the archive.`,
	Run: func(cmd *cobra.Command, args []string) {
		year, month = resolveListPeriod(year, month, time.Now())

		if month < 1 || month > 12 {
			fmt.Println("Error: Month must be between 1 and 12.")
			return
		}

		archive, err := openArchive()
		if err != nil {
			fmt.Printf("Error connecting to archive database: %v\n", err)
			return
		}
		defer archive.Close()

		averages, err := archive.GetAllMonthlyAverages(year, month)
		if err != nil {
			fmt.Printf("Error retrieving monthly averages: %v\n", err)
			return
		}

		if len(averages) == 0 {
			fmt.Printf("No data available for %d-%02d\n", year, month)
			return
		}

		// Largest buckets first
		sort.Slice(averages, func(i, j int) bool {
			return averages[i].AvgUsageGB > averages[j].AvgUsageGB
		})

		fmt.Printf("Monthly Average Usage for %d-%02d\n\n", year, month)
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.TabIndent)
		fmt.Fprintln(w, "Bucket\tUsage\tObjects\tSamples")
		fmt.Fprintln(w, "------\t-----\t-------\t-------")

		for _, avg := range averages {
			fmt.Fprintf(w, "%s\t%s\t%d\t%d\n",
				avg.BucketName,
				formatUsage(avg.AvgUsageGB),
				int(avg.AvgObjectCount),
				avg.DataPoints,
			)
		}
		w.Flush()
	},
}

var historyCmd = &cobra.Command{
	Use:   "history [bucket-name]",
	Short: "Show usage history for a bucket",
	Long:  `Display historical usage observations for a specific bucket from the archive.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		bucketName := args[0]

		archive, err := openArchive()
		if err != nil {
			fmt.Printf("Error connecting to archive database: %v\n", err)
			return
		}
		defer archive.Close()

		// Past year up to the end of the current month
		now := time.Now()
		startTime := time.Date(now.Year()-1, now.Month(), 1, 0, 0, 0, 0, time.UTC)
		endTime := time.Date(now.Year(), now.Month()+1, 0, 23, 59, 59, 0, time.UTC)

		usages, err := archive.GetBucketUsage(bucketName, startTime, endTime)
		if err != nil {
			fmt.Printf("Error retrieving usage history: %v\n", err)
			return
		}

		if len(usages) == 0 {
			fmt.Printf("No usage data available for bucket %s\n", bucketName)
			return
		}

		fmt.Printf("Usage History for Bucket: %s\n\n", bucketName)
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.TabIndent)
		fmt.Fprintln(w, "Date\tUsage\tObjects")
		fmt.Fprintln(w, "----\t-----\t-------")

		for _, usage := range usages {
			fmt.Fprintf(w, "%s\t%s\t%d\n",
				usage.Timestamp.Format("2006-01-02 15:04:05"),
				formatUsage(usage.UsageGB),
				usage.ObjectCount,
			)
		}
		w.Flush()
	},
}

// resolveListPeriod fills in defaults for an unset year or month. The
// default period is the previous calendar month, whether or not the
// other flag was given.
func resolveListPeriod(year, month int, now time.Time) (int, int) {
	prevYear, prevMonth := now.Year(), int(now.Month())-1
	if now.Month() == time.January {
		prevYear, prevMonth = now.Year()-1, 12
	}

	if year == 0 && month == 0 {
		return prevYear, prevMonth
	}
	if year == 0 {
		year = now.Year()
	}
	if month == 0 {
		month = prevMonth
	}
	return year, month
}

// openArchive opens the configured archive database.
func openArchive() (*db.DB, error) {
	if config.DBPath == "" {
		return nil, fmt.Errorf("no archive configured: set db_path or --db")
	}
	return db.NewDB(config.DBPath)
}

func init() {
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(historyCmd)

	listCmd.Flags().IntVar(&year, "year", 0, "Year to query (default: current year)")
	listCmd.Flags().IntVar(&month, "month", 0, "Month to query (1-12, default: previous month)")
}
