package chart

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"
)

var (
	testDates  = []string{"2024-01-01", "2024-01-02", "2024-01-03"}
	testUsages = []float64{10, 12.5, 11}
	testCounts = []int64{100, 340, 200}
)

func window(t *testing.T) (time.Time, time.Time) {
	t.Helper()
	start, err := time.Parse(DateFormat, "2023-12-04")
	if err != nil {
		t.Fatal(err)
	}
	end, err := time.Parse(DateFormat, "2024-01-03")
	if err != nil {
		t.Fatal(err)
	}
	return start, end
}

func TestRenderWritesPNG(t *testing.T) {
	start, end := window(t)
	out := filepath.Join(t.TempDir(), "b1-2024-01-03.png")

	if err := Render("b1", testDates, testUsages, testCounts, start, end, out); err != nil {
		t.Fatalf("Render: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("reading chart: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("chart file is empty")
	}
	if !bytes.HasPrefix(data, []byte("\x89PNG")) {
		t.Errorf("chart file does not start with PNG magic, got % x", data[:4])
	}
}

func TestRenderIdempotent(t *testing.T) {
	start, end := window(t)
	dir := t.TempDir()
	first := filepath.Join(dir, "first.png")
	second := filepath.Join(dir, "second.png")

	if err := Render("b1", testDates, testUsages, testCounts, start, end, first); err != nil {
		t.Fatalf("first render: %v", err)
	}
	if err := Render("b1", testDates, testUsages, testCounts, start, end, second); err != nil {
		t.Fatalf("second render: %v", err)
	}

	a, err := os.ReadFile(first)
	if err != nil {
		t.Fatal(err)
	}
	b, err := os.ReadFile(second)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a, b) {
		t.Error("identical inputs produced different chart files")
	}
}

func TestRenderErrors(t *testing.T) {
	start, end := window(t)
	out := filepath.Join(t.TempDir(), "out.png")

	tests := []struct {
		name   string
		dates  []string
		usages []float64
		counts []int64
	}{
		{"unparseable date", []string{"01/02/2024"}, []float64{1}, []int64{1}},
		{"length mismatch", []string{"2024-01-01", "2024-01-02"}, []float64{1}, []int64{1, 2}},
	}

	for _, tt := range tests {
		if err := Render("b1", tt.dates, tt.usages, tt.counts, start, end, out); err == nil {
			t.Errorf("%s: Render() error = nil, want error", tt.name)
		}
	}
}
