package workload

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"

	"github.com/SA0000000/rwfifo-io/iosched"
)

// blockTraceColumns is the header of a block trace file.
var blockTraceColumns = []string{"id", "arrival_time_us", "direction", "sector", "sectors"}

// ExportBlockTrace writes reqs as a CSV block trace that LoadBlockTrace can replay.
func ExportBlockTrace(path string, reqs []*iosched.Request) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating block trace: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := csv.NewWriter(file)
	if err := writer.Write(blockTraceColumns); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}
	for _, r := range reqs {
		row := []string{
			r.ID,
			strconv.FormatInt(r.ArrivalTime, 10),
			r.Dir.String(),
			strconv.FormatUint(r.Sector, 10),
			strconv.FormatUint(r.Sectors, 10),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("writing CSV row %s: %w", r.ID, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flushing block trace: %w", err)
	}
	return nil
}

// LoadBlockTrace reads a CSV block trace. Rows are returned sorted by
// arrival time (ties by ID); IDs must be unique and sizes positive.
func LoadBlockTrace(path string) ([]*iosched.Request, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening block trace: %w", err)
	}
	defer func() { _ = file.Close() }()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = len(blockTraceColumns)

	// Skip header row
	if _, err := reader.Read(); err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}

	var reqs []*iosched.Request
	seen := make(map[string]bool)
	for line := 2; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading CSV row: %w", err)
		}
		r, err := parseBlockTraceRow(row)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if seen[r.ID] {
			return nil, fmt.Errorf("line %d: duplicate id %q", line, r.ID)
		}
		seen[r.ID] = true
		reqs = append(reqs, r)
	}

	sort.SliceStable(reqs, func(i, j int) bool {
		if reqs[i].ArrivalTime != reqs[j].ArrivalTime {
			return reqs[i].ArrivalTime < reqs[j].ArrivalTime
		}
		return reqs[i].ID < reqs[j].ID
	})
	return reqs, nil
}

func parseBlockTraceRow(row []string) (*iosched.Request, error) {
	if row[0] == "" {
		return nil, fmt.Errorf("empty id")
	}
	arrival, err := strconv.ParseInt(row[1], 10, 64)
	if err != nil || arrival < 0 {
		return nil, fmt.Errorf("invalid arrival_time_us %q", row[1])
	}
	dir, err := iosched.ParseDirection(row[2])
	if err != nil {
		return nil, err
	}
	sector, err := strconv.ParseUint(row[3], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid sector %q", row[3])
	}
	sectors, err := strconv.ParseUint(row[4], 10, 64)
	if err != nil || sectors == 0 {
		return nil, fmt.Errorf("invalid sectors %q", row[4])
	}
	return iosched.NewRequest(row[0], dir, sector, sectors, arrival), nil
}
