package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ecspanse-go/ecspanse/pkg/ecslog"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "ecsctl",
	Short: "ecsctl runs and inspects an ecspanse scheduler",
	Long: `ecsctl is the application bootstrap/supervision wrapper around an
ecspanse Scheduler: it wires up logging, metrics, graceful shutdown,
and the out-of-core snapshot utility around a bare frame loop. A host
embedding ecspanse as a library writes its own equivalent of this
file, registering its own systems via pkg/ecssetup before calling
Run.`,
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Output logs in JSON format")

	cobra.OnInitialize(initLogging)

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(snapshotCmd)
}

func initLogging() {
	logLevel, _ := rootCmd.PersistentFlags().GetString("log-level")
	logJSON, _ := rootCmd.PersistentFlags().GetBool("log-json")

	ecslog.Init(ecslog.Config{
		Level:      ecslog.Level(logLevel),
		JSONOutput: logJSON,
	})
}
