// Package radosgw collects per-bucket usage statistics from a Ceph RGW
// cluster, either by shelling out to radosgw-admin or by querying the
// RGW Admin API.
package radosgw

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"time"

	"github.com/thannaske/rgwreport/pkg/models"
)

// DefaultAdminCommand is the admin binary invoked by the CLI source.
const DefaultAdminCommand = "radosgw-admin"

// Stats represents the statistics of a bucket as reported by
// `radosgw-admin bucket stats` and the RGW Admin API.
type Stats struct {
	Bucket      string `json:"bucket"`
	OwnerID     string `json:"id"`
	OwnerName   string `json:"owner"`
	Zonegroup   string `json:"zonegroup"`
	PlacementID string `json:"placement_rule"`
	Created     string `json:"creation_time"`
	Usage       Usage  `json:"usage"`
}

// Usage contains the usage section of a bucket stats record. RgwMain is
// nil when the bucket has never held an object.
type Usage struct {
	RgwMain *Category `json:"rgw.main"`
}

// Category holds the counters of one usage category.
type Category struct {
	SizeKB         int64 `json:"size_kb"`
	SizeKBActual   int64 `json:"size_kb_actual"`
	SizeKBUtilized int64 `json:"size_kb_utilized"`
	NumObjects     int64 `json:"num_objects"`
}

// Report converts a stats record into a usage observation. Buckets with
// an empty usage section report zero usage and zero objects.
func (s Stats) Report(ts time.Time) models.BucketUsage {
	u := models.BucketUsage{
		BucketName: s.Bucket,
		Timestamp:  ts,
	}
	if m := s.Usage.RgwMain; m != nil {
		// size_kb_utilized / 1024 / 1024 is a binary GiB, but the ledger
		// and report have always labeled it "GB". Kept for compatibility
		// with existing ledger files.
		u.UsageGB = float64(m.SizeKBUtilized) / 1024 / 1024
		u.ObjectCount = m.NumObjects
	}
	return u
}

// Source yields the stats of every bucket in the cluster.
type Source interface {
	BucketStats(ctx context.Context) ([]Stats, error)
}

// CLISource collects bucket stats by running the cluster admin command
// and parsing its JSON output.
type CLISource struct {
	// Command is the admin binary to run. Defaults to radosgw-admin.
	Command string
}

// BucketStats runs `<command> bucket stats` and parses its output. A
// missing binary, a non-zero exit, or malformed JSON fail the whole
// collection; there is no partial result.
func (s *CLISource) BucketStats(ctx context.Context) ([]Stats, error) {
	command := s.Command
	if command == "" {
		command = DefaultAdminCommand
	}

	out, err := exec.CommandContext(ctx, command, "bucket", "stats").Output()
	if err != nil {
		return nil, fmt.Errorf("running %s bucket stats: %w", command, err)
	}

	var stats []Stats
	if err := json.Unmarshal(out, &stats); err != nil {
		return nil, fmt.Errorf("parsing %s output: %w", command, err)
	}
	return stats, nil
}
