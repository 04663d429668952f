package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/SA0000000/rwfifo-io/iosched"
)

var (
	serverURL     string        // Base URL of a running serve instance
	drainInterval time.Duration // Time between dispatch calls
	observePath   string        // File to write observed dispatches to
)

// Client talks to a running serve instance.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the server at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// DispatchResult is the server's view of a dispatched request.
type DispatchResult struct {
	ID        string `json:"id"`
	Direction string `json:"direction"`
	Sector    uint64 `json:"sector"`
	Sectors   uint64 `json:"sectors"`
}

func (c *Client) post(ctx context.Context, path string, body any) (*http.Response, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, fmt.Errorf("encoding %s body: %w", path, err)
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.httpClient.Do(req)
}

// Admit submits r. Any status other than 201 is an error.
func (c *Client) Admit(ctx context.Context, r *iosched.Request) error {
	resp, err := c.post(ctx, "/v1/requests", map[string]any{
		"id":        r.ID,
		"direction": r.Dir.String(),
		"sector":    r.Sector,
		"sectors":   r.Sectors,
	})
	if err != nil {
		return fmt.Errorf("admitting %s: %w", r.ID, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusCreated {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("admitting %s: HTTP %d: %s", r.ID, resp.StatusCode, strings.TrimSpace(string(data)))
	}
	return nil
}

// Dispatch asks the server for the next request. Returns nil when the server has none.
func (c *Client) Dispatch(ctx context.Context) (*DispatchResult, error) {
	resp, err := c.post(ctx, "/v1/dispatch", nil)
	if err != nil {
		return nil, fmt.Errorf("dispatching: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	switch resp.StatusCode {
	case http.StatusNoContent:
		return nil, nil
	case http.StatusOK:
		var out DispatchResult
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return nil, fmt.Errorf("decoding dispatch: %w", err)
		}
		return &out, nil
	default:
		data, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("dispatching: HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
}

// ObservedDispatch captures one dispatch seen from the client side.
type ObservedDispatch struct {
	Seq           int    `json:"seq"`
	RequestID     string `json:"request_id"`
	Direction     string `json:"direction"`
	SendTimeUs    int64  `json:"send_time_us"`
	ReceiveTimeUs int64  `json:"receive_time_us"`
}

// Recorder captures dispatches (goroutine-safe).
type Recorder struct {
	mu      sync.Mutex
	records []ObservedDispatch
}

// RecordDispatch appends one dispatch, numbering it in arrival order.
func (r *Recorder) RecordDispatch(d ObservedDispatch) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d.Seq = len(r.records)
	r.records = append(r.records, d)
}

// Records returns a copy of everything recorded.
func (r *Recorder) Records() []ObservedDispatch {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]ObservedDispatch, len(r.records))
	copy(result, r.records)
	return result
}

// observeWorkload admits reqs at their arrival offsets while a second
// goroutine dispatches every interval, until everything admitted has been
// dispatched.
func observeWorkload(ctx context.Context, c *Client, reqs []*iosched.Request, interval time.Duration, rec *Recorder) error {
	if interval <= 0 {
		return fmt.Errorf("drain interval must be positive, got %v", interval)
	}
	g, ctx := errgroup.WithContext(ctx)
	start := time.Now()
	admitted := make(chan struct{})

	g.Go(func() error {
		defer close(admitted)
		for _, r := range reqs {
			wait := time.Until(start.Add(time.Duration(r.ArrivalTime) * time.Microsecond))
			if wait > 0 {
				select {
				case <-time.After(wait):
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			if err := c.Admit(ctx, r); err != nil {
				return err
			}
		}
		return nil
	})

	g.Go(func() error {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		admitDone := admitted
		done := false
		for {
			select {
			case <-ticker.C:
			case <-admitDone:
				done = true
				admitDone = nil
				continue
			case <-ctx.Done():
				return ctx.Err()
			}
			sent := time.Now()
			d, err := c.Dispatch(ctx)
			if err != nil {
				return err
			}
			if d == nil {
				if done {
					return nil
				}
				continue
			}
			logrus.Debugf("observed dispatch %s (%s)", d.ID, d.Direction)
			rec.RecordDispatch(ObservedDispatch{
				RequestID:     d.ID,
				Direction:     d.Direction,
				SendTimeUs:    sent.Sub(start).Microseconds(),
				ReceiveTimeUs: time.Since(start).Microseconds(),
			})
		}
	})
	return g.Wait()
}

// observeCmd replays a workload against a running serve instance
var observeCmd = &cobra.Command{
	Use:   "observe",
	Short: "Replay a workload against a running server and record its dispatch order",
	Run: func(cmd *cobra.Command, args []string) {
		setLogLevel()
		if drainInterval <= 0 {
			logrus.Fatalf("--drain-interval must be positive, got %v", drainInterval)
		}
		reqs, err := loadWorkload(cmd)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		rec := &Recorder{}
		logrus.Infof("observing %s with %d requests", serverURL, len(reqs))
		if err := observeWorkload(cmd.Context(), NewClient(serverURL), reqs, drainInterval, rec); err != nil {
			logrus.Fatalf("observe failed: %v", err)
		}
		records := rec.Records()
		fmt.Printf("Observed %d dispatches from %s\n", len(records), serverURL)
		if observePath != "" {
			if err := writeJSONFile(observePath, records); err != nil {
				logrus.Fatalf("%v", err)
			}
		}
	},
}

func registerObserveFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")
	cmd.Flags().StringVar(&serverURL, "server", "http://localhost:8080", "Base URL of a running serve instance")
	cmd.Flags().DurationVar(&drainInterval, "drain-interval", time.Millisecond, "Time between dispatch calls")
	cmd.Flags().StringVar(&observePath, "output", "", "Write observed dispatches as JSON to this file")
	registerWorkloadFlags(cmd)
}
