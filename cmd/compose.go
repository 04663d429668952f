package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/SA0000000/rwfifo-io/iosched/workload"
)

var (
	composeFromPaths []string // Workload files to merge, in order
	composeOutput    string   // Destination file; stdout when empty
)

// composeCmd merges several workload files into one stream list
var composeCmd = &cobra.Command{
	Use:   "compose",
	Short: "Merge workload files into one",
	Long: "Concatenate the streams of several workload YAML files. The seed comes from the first file, " +
		"request counts add up and the longest horizon wins. Stream IDs must be unique across files.",
	Run: func(cmd *cobra.Command, args []string) {
		setLogLevel()
		merged, err := composeFiles(composeFromPaths)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		out, err := marshalSpec(merged)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		if composeOutput == "" {
			fmt.Print(out)
			return
		}
		if err := os.WriteFile(composeOutput, []byte(out), 0o644); err != nil {
			logrus.Fatalf("writing composed workload: %v", err)
		}
		logrus.Infof("Composed %d streams from %d files into %s", len(merged.Streams), len(composeFromPaths), composeOutput)
	},
}

func composeFiles(paths []string) (*workload.Spec, error) {
	specs := make([]*workload.Spec, 0, len(paths))
	for _, path := range paths {
		s, err := workload.LoadSpec(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		logrus.Debugf("compose: %s has %d streams", path, len(s.Streams))
		specs = append(specs, s)
	}
	return workload.ComposeSpecs(specs)
}

func marshalSpec(spec *workload.Spec) (string, error) {
	data, err := yaml.Marshal(spec)
	if err != nil {
		return "", fmt.Errorf("encoding workload: %w", err)
	}
	return string(data), nil
}

func init() {
	composeCmd.Flags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")
	composeCmd.Flags().StringArrayVar(&composeFromPaths, "from", nil, "Workload YAML to merge (repeatable)")
	composeCmd.Flags().StringVar(&composeOutput, "output", "", "Write the composed workload here instead of stdout")
	_ = composeCmd.MarkFlagRequired("from")

	rootCmd.AddCommand(composeCmd)
}
