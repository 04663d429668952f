package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/SA0000000/rwfifo-io/iosched"
	"github.com/SA0000000/rwfifo-io/iosched/host"
	"github.com/SA0000000/rwfifo-io/iosched/trace"
	"github.com/SA0000000/rwfifo-io/iosched/workload"
)

var (
	// Elevator flags, shared by run and serve
	logLevel     string // Log verbosity level
	elevatorName string // Elevator to drive: rwfifo or noop
	presetName   string // Built-in device and tunables preset
	configPath   string // Tunables YAML file
	maxReads     int    // Overrides max_reads
	maxWrites    int    // Overrides max_writes
	frontMerges  bool   // Overrides front_merges

	// Workload flags
	workloadPath string  // Workload spec YAML; synthetic two-stream workload when empty
	replayPath   string  // CSV block trace to replay instead of generating
	numRequests  int64   // Number of requests
	rate         float64 // Requests per second, across both directions
	readFraction float64 // Share of reads in the synthetic workload
	seed         int64   // Seed for workload generation

	// Device and output flags
	devicePath  string // Device YAML file
	depth       int    // Overrides device depth
	traceLevel  string // Dispatch trace level: none or dispatch
	tracePath   string // File to write the dispatch trace to
	resultsPath string // File to write metrics JSON to
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "rwfifo-io",
	Short: "Read/write FIFO block I/O scheduler",
}

// runCmd drives a workload through the elevator on a simulated device
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a workload through the elevator and report metrics",
	Run: func(cmd *cobra.Command, args []string) {
		setLogLevel()
		startTime := time.Now()

		m, dt, err := runSimulation(cmd)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		m.Print()
		if dt.Enabled() {
			printTraceSummary(trace.Summarize(dt))
			if tracePath != "" {
				if err := writeJSONFile(tracePath, dt); err != nil {
					logrus.Fatalf("%v", err)
				}
			}
		}
		if resultsPath != "" {
			if err := m.SaveResults(resultsPath); err != nil {
				logrus.Fatalf("%v", err)
			}
		}
		logrus.Infof("Run complete in %v.", time.Since(startTime))
	},
}

func setLogLevel() {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %s", logLevel)
	}
	logrus.SetLevel(level)
}

// runSimulation builds elevator, workload and device from the flags and runs them.
func runSimulation(cmd *cobra.Command) (*host.Metrics, *trace.DispatchTrace, error) {
	if !iosched.IsValidElevator(elevatorName) {
		return nil, nil, fmt.Errorf("unknown elevator %q; valid: %v", elevatorName, validElevatorNames())
	}
	if !trace.IsValidTraceLevel(traceLevel) {
		return nil, nil, fmt.Errorf("unknown trace level %q", traceLevel)
	}
	cfg, err := loadElevatorConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	reqs, err := loadWorkload(cmd)
	if err != nil {
		return nil, nil, err
	}
	dev, err := loadDeviceConfig(cmd)
	if err != nil {
		return nil, nil, err
	}

	logrus.Infof("Starting run: elevator=%s requests=%d max_reads=%d max_writes=%d front_merges=%v depth=%d",
		elevatorName, len(reqs), cfg.MaxReads, cfg.MaxWrites, cfg.FrontMerges, dev.Depth)
	h := host.New(iosched.NewElevator(elevatorName, cfg), host.Config{
		Device:     dev,
		TraceLevel: trace.TraceLevel(traceLevel),
	})
	m := h.Run(reqs)
	return m, h.Trace(), nil
}

// loadElevatorConfig starts from defaults, layers --preset then --config on
// top, then applies the tunable flags the user explicitly set.
func loadElevatorConfig(cmd *cobra.Command) (iosched.Config, error) {
	cfg := iosched.DefaultConfig()
	if presetName != "" {
		p, err := GetPreset(presetName)
		if err != nil {
			return cfg, err
		}
		cfg = p.Scheduler
	}
	if configPath != "" {
		var err error
		if cfg, err = iosched.LoadConfigOnto(cfg, configPath); err != nil {
			return cfg, err
		}
	}
	if cmd.Flags().Changed("max-reads") {
		cfg.MaxReads = maxReads
	}
	if cmd.Flags().Changed("max-writes") {
		cfg.MaxWrites = maxWrites
	}
	if cmd.Flags().Changed("front-merges") {
		cfg.FrontMerges = frontMerges
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid elevator flags: %w", err)
	}
	return cfg, nil
}

// loadWorkload replays --replay, generates requests from --workload, or
// falls back to the synthetic two-stream spec. --seed and --num-requests
// override the file's values when set.
func loadWorkload(cmd *cobra.Command) ([]*iosched.Request, error) {
	if replayPath != "" {
		if workloadPath != "" {
			return nil, fmt.Errorf("--replay and --workload are mutually exclusive")
		}
		reqs, err := workload.LoadBlockTrace(replayPath)
		if err != nil {
			return nil, err
		}
		if cmd.Flags().Changed("num-requests") && numRequests < 0 {
			return nil, fmt.Errorf("--num-requests must be non-negative, got %d", numRequests)
		}
		if cmd.Flags().Changed("num-requests") && int64(len(reqs)) > numRequests {
			reqs = reqs[:numRequests]
		}
		return reqs, nil
	}

	var spec *workload.Spec
	if workloadPath != "" {
		var err error
		if spec, err = workload.LoadSpec(workloadPath); err != nil {
			return nil, err
		}
		if cmd.Flags().Changed("seed") {
			spec.Seed = seed
		}
		if cmd.Flags().Changed("num-requests") {
			spec.NumRequests = numRequests
		}
	} else {
		spec = workload.DefaultSpec(numRequests, rate, readFraction, seed)
	}
	reqs, err := workload.Generate(spec)
	if err != nil {
		return nil, fmt.Errorf("generating workload: %w", err)
	}
	return reqs, nil
}

func loadDeviceConfig(cmd *cobra.Command) (host.DeviceConfig, error) {
	dev := host.DefaultDeviceConfig()
	if presetName != "" {
		p, err := GetPreset(presetName)
		if err != nil {
			return dev, err
		}
		dev = p.Device
	}
	if devicePath != "" {
		var err error
		if dev, err = host.LoadDeviceConfigOnto(dev, devicePath); err != nil {
			return dev, err
		}
	}
	if cmd.Flags().Changed("depth") {
		dev.Depth = depth
	}
	if err := dev.Validate(); err != nil {
		return dev, fmt.Errorf("invalid device flags: %w", err)
	}
	return dev, nil
}

func printTraceSummary(s *trace.TraceSummary) {
	fmt.Println("=== Dispatch Trace Summary ===")
	fmt.Printf("Dispatches           : %d (reads %d, writes %d)\n", s.TotalDispatches, s.ByDirection["read"], s.ByDirection["write"])
	fmt.Printf("Direction Switches   : %d\n", s.DirectionSwitches)
	fmt.Printf("Longest Runs         : reads %d, writes %d\n", s.LongestRun["read"], s.LongestRun["write"])
	fmt.Printf("Runs While Starving  : reads %d (writes waiting), writes %d (reads waiting)\n",
		s.LongestReadRunWritesWaiting, s.LongestWriteRunReadsWaiting)
}

func writeJSONFile(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func validElevatorNames() []string {
	names := make([]string, 0, len(iosched.ValidElevators))
	for name := range iosched.ValidElevators {
		if name != "" {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// registerElevatorFlags binds the flags run and serve share.
func registerElevatorFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")
	cmd.Flags().StringVar(&elevatorName, "elevator", iosched.ElevatorRWFIFO, "Elevator to use (rwfifo, noop)")
	cmd.Flags().StringVar(&presetName, "preset", "", "Built-in device and tunables preset (hdd, ssd, nvme)")
	cmd.Flags().StringVar(&configPath, "config", "", "Tunables YAML file")
	cmd.Flags().IntVar(&maxReads, "max-reads", iosched.DefaultMaxReads, "Reads served before yielding to a waiting write")
	cmd.Flags().IntVar(&maxWrites, "max-writes", iosched.DefaultMaxWrites, "Writes served while reads wait before the read count resets")
	cmd.Flags().BoolVar(&frontMerges, "front-merges", true, "Allow front merges in the host")
}

// registerWorkloadFlags binds the workload source flags. Commands sharing a
// flag variable must share its default, since registration writes it.
func registerWorkloadFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&workloadPath, "workload", "", "Workload spec YAML (default: synthetic read/write streams)")
	cmd.Flags().StringVar(&replayPath, "replay", "", "CSV block trace to replay instead of generating a workload")
	cmd.Flags().Int64Var(&numRequests, "num-requests", 1000, "Number of requests")
	cmd.Flags().Float64Var(&rate, "rate", 2000, "Requests arrival per second")
	cmd.Flags().Float64Var(&readFraction, "read-fraction", 0.7, "Fraction of synthetic requests that are reads")
	cmd.Flags().Int64Var(&seed, "seed", 42, "Seed for workload generation")
}

func registerRunFlags(cmd *cobra.Command) {
	registerElevatorFlags(cmd)
	registerWorkloadFlags(cmd)

	// Device and output
	cmd.Flags().StringVar(&devicePath, "device", "", "Device YAML file")
	cmd.Flags().IntVar(&depth, "depth", 1, "Device queue depth")
	cmd.Flags().StringVar(&traceLevel, "trace", string(trace.TraceLevelNone), "Dispatch trace level (none, dispatch)")
	cmd.Flags().StringVar(&tracePath, "trace-path", "", "Write the dispatch trace as JSON to this file")
	cmd.Flags().StringVar(&resultsPath, "results-path", "", "Write metrics as JSON to this file")
}

// init sets up CLI flags and subcommands
func init() {
	registerRunFlags(runCmd)
	registerServeFlags(serveCmd)
	registerObserveFlags(observeCmd)

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(observeCmd)
}
