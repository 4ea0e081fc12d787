package radosgw

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"
)

func TestReport(t *testing.T) {
	ts := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		stats       Stats
		wantUsageGB float64
		wantObjects int64
	}{
		{
			name:        "empty usage section",
			stats:       Stats{Bucket: "b1"},
			wantUsageGB: 0,
			wantObjects: 0,
		},
		{
			name: "populated usage",
			stats: Stats{
				Bucket: "b2",
				Usage: Usage{RgwMain: &Category{
					SizeKBUtilized: 13107200, // 12.5 GiB in KB
					NumObjects:     340,
				}},
			},
			wantUsageGB: 12.5,
			wantObjects: 340,
		},
	}

	for _, tt := range tests {
		got := tt.stats.Report(ts)
		if got.BucketName != tt.stats.Bucket {
			t.Errorf("%s: bucket = %q, want %q", tt.name, got.BucketName, tt.stats.Bucket)
		}
		if got.UsageGB != tt.wantUsageGB {
			t.Errorf("%s: usage = %v, want %v", tt.name, got.UsageGB, tt.wantUsageGB)
		}
		if got.ObjectCount != tt.wantObjects {
			t.Errorf("%s: objects = %d, want %d", tt.name, got.ObjectCount, tt.wantObjects)
		}
		if !got.Timestamp.Equal(ts) {
			t.Errorf("%s: timestamp = %v, want %v", tt.name, got.Timestamp, ts)
		}
	}
}

const statsJSON = `[
  {
    "bucket": "logs",
    "owner": "admin",
    "usage": {
      "rgw.main": {
        "size_kb": 13631488,
        "size_kb_actual": 13631490,
        "size_kb_utilized": 13107200,
        "num_objects": 340
      }
    }
  },
  {
    "bucket": "empty",
    "owner": "admin",
    "usage": {}
  }
]`

// fakeAdmin writes an executable script that prints the given stdout.
func fakeAdmin(t *testing.T, stdout string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake admin script requires a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "radosgw-admin")
	script := "#!/bin/sh\ncat <<'EOF'\n" + stdout + "\nEOF\n"
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("writing fake admin command: %v", err)
	}
	return path
}

func TestCLISource(t *testing.T) {
	source := &CLISource{Command: fakeAdmin(t, statsJSON)}

	stats, err := source.BucketStats(context.Background())
	if err != nil {
		t.Fatalf("BucketStats: %v", err)
	}
	if len(stats) != 2 {
		t.Fatalf("got %d buckets, want 2", len(stats))
	}

	if stats[0].Bucket != "logs" {
		t.Errorf("bucket = %q, want %q", stats[0].Bucket, "logs")
	}
	if stats[0].Usage.RgwMain == nil {
		t.Fatal("logs: usage section missing")
	}
	if got := stats[0].Usage.RgwMain.SizeKBUtilized; got != 13107200 {
		t.Errorf("size_kb_utilized = %d, want 13107200", got)
	}

	if stats[1].Usage.RgwMain != nil {
		t.Errorf("empty bucket: usage section = %+v, want nil", stats[1].Usage.RgwMain)
	}
	row := stats[1].Report(time.Now())
	if row.BucketName != "empty" || row.UsageGB != 0 || row.ObjectCount != 0 {
		t.Errorf("empty bucket report = %+v, want (empty, 0, 0)", row)
	}
}

func TestCLISourceErrors(t *testing.T) {
	tests := []struct {
		name   string
		source *CLISource
	}{
		{"missing command", &CLISource{Command: filepath.Join(t.TempDir(), "no-such-binary")}},
		{"malformed json", &CLISource{Command: fakeAdmin(t, "this is not json")}},
	}

	for _, tt := range tests {
		if _, err := tt.source.BucketStats(context.Background()); err == nil {
			t.Errorf("%s: BucketStats() error = nil, want error", tt.name)
		}
	}
}
