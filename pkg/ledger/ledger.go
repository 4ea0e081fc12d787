// Package ledger persists a rolling per-bucket usage history as flat
// text files, one line per daily observation:
//
//	YYYY-MM-DD:<usage_gb>:<object_count>
//
// Each file keeps at most the 30 most recent observations. The store
// assumes a single writer; runs are expected to be scheduled once per
// day.
package ledger

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// MaxEntries is the number of observations retained per bucket.
const MaxEntries = 30

// DateFormat is the layout of the date field of a ledger line.
const DateFormat = "2006-01-02"

// ErrOutOfOrder is returned when an append's date is not strictly after
// the last recorded entry.
var ErrOutOfOrder = errors.New("ledger: date not after last entry")

// Store reads and writes per-bucket ledger files under a directory.
type Store struct {
	dir string
}

// NewStore returns a store rooted at dir. The directory must exist.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Path returns the ledger file for a bucket.
func (s *Store) Path(bucket string) string {
	return filepath.Join(s.dir, bucket+".txt")
}

// Append records one observation for a bucket. A missing ledger file is
// created with just the new line. Otherwise the oldest lines are dropped
// until at most MaxEntries remain, the kept lines are rewritten, and the
// new line is appended; the file may hold MaxEntries+1 lines immediately
// after an append, and is trimmed back on the next one.
//
// The date must be strictly after the last recorded entry, so a repeated
// same-day run cannot break chronological order.
func (s *Store) Append(bucket string, usageGB float64, objects int64, day time.Time) error {
	path := s.Path(bucket)
	line := day.Format(DateFormat) + ":" +
		strconv.FormatFloat(usageGB, 'f', -1, 64) + ":" +
		strconv.FormatInt(objects, 10) + "\n"

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return os.WriteFile(path, []byte(line), 0o644)
	}
	if err != nil {
		return fmt.Errorf("reading ledger for bucket %s: %w", bucket, err)
	}

	lines := splitLines(string(data))
	if len(lines) > 0 {
		last, err := lastDate(lines[len(lines)-1])
		if err != nil {
			return fmt.Errorf("ledger for bucket %s: %w", bucket, err)
		}
		// Day granularity: ISO dates compare correctly as strings.
		if day.Format(DateFormat) <= last {
			return fmt.Errorf("%w: bucket %s has %s, got %s",
				ErrOutOfOrder, bucket, last, day.Format(DateFormat))
		}
	}

	for len(lines) > MaxEntries {
		lines = lines[1:]
	}

	var b strings.Builder
	for _, l := range lines {
		b.WriteString(l)
		b.WriteByte('\n')
	}
	b.WriteString(line)

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("writing ledger for bucket %s: %w", bucket, err)
	}
	return nil
}

// Read parses a bucket's ledger into three aligned series in file order,
// which is chronological order. Dates stay formatted strings until
// charting. A line without three colon-separated fields, or with a
// non-numeric usage or count, is an error.
func (s *Store) Read(bucket string) (dates []string, usages []float64, counts []int64, err error) {
	data, err := os.ReadFile(s.Path(bucket))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("reading ledger for bucket %s: %w", bucket, err)
	}

	for i, l := range splitLines(string(data)) {
		fields := strings.Split(l, ":")
		if len(fields) != 3 {
			return nil, nil, nil, fmt.Errorf("ledger for bucket %s: malformed line %d: %q", bucket, i+1, l)
		}
		usage, err := strconv.ParseFloat(strings.TrimSpace(fields[1]), 64)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("ledger for bucket %s: line %d: %w", bucket, i+1, err)
		}
		count, err := strconv.ParseInt(strings.TrimSpace(fields[2]), 10, 64)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("ledger for bucket %s: line %d: %w", bucket, i+1, err)
		}
		dates = append(dates, fields[0])
		usages = append(usages, usage)
		counts = append(counts, count)
	}
	return dates, usages, counts, nil
}

func splitLines(data string) []string {
	var lines []string
	for _, l := range strings.Split(data, "\n") {
		if strings.TrimSpace(l) == "" {
			continue
		}
		lines = append(lines, l)
	}
	return lines
}

func lastDate(line string) (string, error) {
	field, _, ok := strings.Cut(line, ":")
	if !ok {
		return "", fmt.Errorf("malformed last line: %q", line)
	}
	if _, err := time.Parse(DateFormat, field); err != nil {
		return "", fmt.Errorf("last line date: %w", err)
	}
	return field, nil
}
