package cmd

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/SA0000000/rwfifo-io/iosched/workload"
)

var convertOutput string

// convertCmd materializes a workload spec into a replayable block trace
var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert a workload spec into a CSV block trace",
	Long:  "Generate the requests a workload spec describes and write them as a CSV block trace that run --replay can load.",
	Run: func(cmd *cobra.Command, args []string) {
		setLogLevel()
		reqs, err := loadWorkload(cmd)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		if err := workload.ExportBlockTrace(convertOutput, reqs); err != nil {
			logrus.Fatalf("%v", err)
		}
		fmt.Printf("Wrote %d requests to %s\n", len(reqs), convertOutput)
	},
}

func registerConvertFlags(cmd *cobra.Command) {
	registerWorkloadFlags(cmd)
	cmd.Flags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")
	cmd.Flags().StringVar(&convertOutput, "output", "", "CSV block trace to write")
	_ = cmd.MarkFlagRequired("output")
}

func init() {
	registerConvertFlags(convertCmd)
	rootCmd.AddCommand(convertCmd)
}
