package main

import (
	"context"
	"errors"
	"net/http"
	"syscall"
	"time"

	"github.com/oklog/run"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/cpauliat/my-oci-scripts/schedule"
	"github.com/cpauliat/my-oci-scripts/telemetry"
	"github.com/cpauliat/my-oci-scripts/types"
)

// The schedule and scale tags are hour-granular, so the daemon fires at the
// top of every hour.
const hourlySpec = "0 * * * *"

var daemonMetricsAddr string

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run the schedule and scale passes every hour",
	Long: `Run ocisched as a long-lived daemon.

Every hour on the hour the daemon runs a schedule pass (start/stop of
instances and autonomous databases) followed by a scale pass (VM cluster
OCPUs), with the same tag semantics as the one-shot commands. Prometheus
metrics are served on /metrics. The daemon shuts down cleanly on
SIGINT/SIGTERM.

Without --confirm the daemon only logs what each pass would do.`,
	Example: `  ocisched daemon --profile PROD --confirm
  ocisched daemon --profile PROD --confirm --metrics :9090`,
	RunE: runDaemonCmd,
}

func init() {
	rootCmd.AddCommand(daemonCmd)

	daemonCmd.Flags().StringVar(&daemonMetricsAddr, "metrics", ":9090", "Metrics server listen address")
}

func runDaemonCmd(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	rt, err := setup(ctx)
	if err != nil {
		return err
	}
	defer rt.close()

	promExporter, err := prometheus.New()
	if err != nil {
		return exitf(exitPrecondition, "failed to create prometheus exporter: %v", err)
	}
	otel.SetMeterProvider(sdkmetric.NewMeterProvider(sdkmetric.WithReader(promExporter)))

	metrics, err := telemetry.InitRunMetrics(otel.Meter("ocisched"))
	if err != nil {
		return exitf(exitPrecondition, "failed to init metrics: %v", err)
	}
	rt.metrics = metrics

	log := rt.logger.WithContext(ctx)
	log.Info().
		Str("cron", hourlySpec).
		Str("metrics", daemonMetricsAddr).
		Bool("confirmed", flagConfirm).
		Msg("daemon starting")

	var g run.Group

	// Signal handling.
	g.Add(run.SignalHandler(ctx, syscall.SIGINT, syscall.SIGTERM))

	// Metrics endpoint.
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: daemonMetricsAddr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	g.Add(func() error {
		return srv.ListenAndServe()
	}, func(error) {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	})

	// Hourly passes.
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(hourlySpec, func() { runPasses(ctx, rt) }); err != nil {
		return exitf(exitRunError, "failed to schedule hourly job: %v", err)
	}
	cronDone := make(chan struct{})
	g.Add(func() error {
		scheduler.Start()
		<-cronDone
		return nil
	}, func(error) {
		<-scheduler.Stop().Done()
		close(cronDone)
	})

	err = g.Run()
	var sig run.SignalError
	if errors.As(err, &sig) {
		log.Info().Str("signal", sig.Signal.String()).Msg("daemon stopped")
		return nil
	}
	return err
}

// runPasses runs one schedule pass then one scale pass. Failures inside a
// pass are logged and counted; the daemon keeps running.
func runPasses(ctx context.Context, rt *runtime) {
	log := rt.logger.WithContext(ctx)
	now := time.Now()
	log.Info().Str("hour", types.HourValue(now)).Msg("hourly pass starting")

	if err := schedulePass(ctx, rt, now); err != nil {
		log.Error().Err(err).Msg("schedule pass failed")
	}
	if err := scalePass(ctx, rt, now); err != nil {
		log.Error().Err(err).Msg("scale pass failed")
	}
}

func schedulePass(ctx context.Context, rt *runtime, now time.Time) error {
	resources, clients, err := rt.collect(ctx, types.KindComputeInstance, types.KindAutonomousDatabase)
	if err != nil {
		return err
	}

	decisions := schedule.NewPlanner(rt.cfg.Schedule, now).Plan(resources)
	_, err = rt.execute(ctx, clients, decisions)
	return err
}

func scalePass(ctx context.Context, rt *runtime, now time.Time) error {
	clusters, clients, err := rt.collect(ctx, types.KindVMCluster)
	if err != nil {
		return err
	}

	decisions, skipped := schedule.NewScalePlanner(rt.cfg.Scale, now).Plan(clusters)
	for _, s := range skipped {
		rt.logger.WithContext(ctx).Info().
			Str("cluster", s.Resource.Name).
			Str("reason", s.Reason).
			Msg("cluster skipped")
	}
	_, err = rt.execute(ctx, clients, decisions)
	return err
}
