package main

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/thannaske/rgwreport/pkg/db"
	"github.com/thannaske/rgwreport/pkg/models"
)

func TestDayOf(t *testing.T) {
	loc := time.FixedZone("UTC+8", 8*60*60)
	now := time.Date(2024, 1, 31, 23, 45, 12, 999, loc)

	got := dayOf(now)

	want := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("dayOf(%v) = %v, want %v", now, got, want)
	}
	if got.Format("2006-01-02") != "2024-01-31" {
		t.Errorf("dayOf date = %s, want 2024-01-31", got.Format("2006-01-02"))
	}
}

func TestDaysInMonth(t *testing.T) {
	tests := []struct {
		year, month, want int
	}{
		{2024, 1, 31},
		{2024, 2, 29}, // leap year
		{2023, 2, 28},
		{2024, 4, 30},
		{2024, 12, 31},
	}

	for _, tt := range tests {
		if got := daysInMonth(tt.year, tt.month); got != tt.want {
			t.Errorf("daysInMonth(%d, %d) = %d, want %d", tt.year, tt.month, got, tt.want)
		}
	}
}

func TestUpdateMonthlyAverages(t *testing.T) {
	archive, err := db.NewDB(filepath.Join(t.TempDir(), "archive.db"))
	if err != nil {
		t.Fatalf("opening archive: %v", err)
	}
	defer archive.Close()
	if err := archive.InitDB(); err != nil {
		t.Fatalf("initializing archive: %v", err)
	}

	for i, usage := range []float64{10, 20} {
		err := archive.StoreBucketUsage(models.BucketUsage{
			BucketName:  "logs",
			UsageGB:     usage,
			ObjectCount: 100,
			Timestamp:   time.Date(2024, 1, 30+i, 8, 0, 0, 0, time.UTC),
		})
		if err != nil {
			t.Fatalf("store %d: %v", i, err)
		}
	}

	// Mid-month runs leave the aggregates alone.
	if err := updateMonthlyAverages(archive, time.Date(2024, 1, 30, 8, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("mid-month update: %v", err)
	}
	averages, err := archive.GetAllMonthlyAverages(2024, 1)
	if err != nil {
		t.Fatalf("get averages: %v", err)
	}
	if len(averages) != 0 {
		t.Fatalf("mid-month run wrote %d averages, want 0", len(averages))
	}

	// A run on the month's last day computes the averages.
	if err := updateMonthlyAverages(archive, time.Date(2024, 1, 31, 8, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("month-end update: %v", err)
	}
	averages, err = archive.GetAllMonthlyAverages(2024, 1)
	if err != nil {
		t.Fatalf("get averages after month end: %v", err)
	}
	if len(averages) != 1 {
		t.Fatalf("month-end run wrote %d averages, want 1", len(averages))
	}
	if avg := averages[0]; avg.BucketName != "logs" || avg.AvgUsageGB != 15 || avg.DataPoints != 2 {
		t.Errorf("average = %+v, want logs/15/2 points", avg)
	}
}
