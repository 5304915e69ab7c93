package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/ecspanse-go/ecspanse/pkg/ecslog"
	"github.com/ecspanse-go/ecspanse/pkg/ecsmetrics"
	"github.com/ecspanse-go/ecspanse/pkg/ecssetup"
	"github.com/ecspanse-go/ecspanse/pkg/ecssnapshot"
	"github.com/ecspanse-go/ecspanse/pkg/ecsstore"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a bare scheduler: frame pacing, metrics, and snapshot load/save around an empty system set",
	Long: `Run boots a Store and Scheduler with no systems registered — a host
embedding ecspanse links its own main package that builds an
ecssetup.Builder with its own systems instead of calling this command
directly. It exists to exercise and demonstrate the bootstrap
concerns: fps pacing, Prometheus metrics, graceful shutdown, and
optional snapshot restore/export.`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().Int("fps", 60, "Target frames per second (0 disables pacing)")
	runCmd.Flags().String("metrics-addr", "127.0.0.1:9090", "Address to serve /metrics (and /debug/inspect under a debug build) on")
	runCmd.Flags().String("restore", "", "Snapshot file to restore into the store before the first frame")
	runCmd.Flags().String("snapshot-out", "", "Snapshot file to export to on shutdown")
}

func runRun(cmd *cobra.Command, _ []string) error {
	fps, _ := cmd.Flags().GetInt("fps")
	metricsAddr, _ := cmd.Flags().GetString("metrics-addr")
	restorePath, _ := cmd.Flags().GetString("restore")
	snapshotOutPath, _ := cmd.Flags().GetString("snapshot-out")

	store := ecsstore.New()

	if restorePath != "" {
		if err := ecssnapshot.Restore(restorePath, store); err != nil {
			return fmt.Errorf("restore %s: %w", restorePath, err)
		}
		ecslog.Info("restored snapshot into store")
	}

	sched := ecssetup.NewBuilder(store).WithFPS(fps).Build()

	reg := prometheus.NewRegistry()
	reg.MustRegister(ecsmetrics.Collectors()...)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	registerDebugRoutes(mux, sched)

	srv := &http.Server{Addr: metricsAddr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			ecslog.Errorf("metrics server error", err)
		}
	}()
	fmt.Printf("Metrics: http://%s/metrics\n", metricsAddr)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go sched.Run(ctx)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
	fmt.Println("\nShutting down...")

	sched.Stop() // blocks until Run's shutdown systems have finished
	_ = srv.Shutdown(context.Background())

	if snapshotOutPath != "" {
		if err := ecssnapshot.Export(snapshotOutPath, store); err != nil {
			return fmt.Errorf("export %s: %w", snapshotOutPath, err)
		}
		ecslog.Info("exported snapshot on shutdown")
	}

	fmt.Println("Shutdown complete")
	return nil
}
