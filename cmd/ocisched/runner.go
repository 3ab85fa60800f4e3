package main

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/cpauliat/my-oci-scripts/config"
	"github.com/cpauliat/my-oci-scripts/executor"
	"github.com/cpauliat/my-oci-scripts/poller"
	"github.com/cpauliat/my-oci-scripts/providers"
	"github.com/cpauliat/my-oci-scripts/providers/oci"
	"github.com/cpauliat/my-oci-scripts/scanner"
	"github.com/cpauliat/my-oci-scripts/storage"
	"github.com/cpauliat/my-oci-scripts/telemetry"
	"github.com/cpauliat/my-oci-scripts/types"
	"github.com/cpauliat/my-oci-scripts/wal"
)

// runtime bundles everything a subcommand needs: config, provider, audit log,
// observation/checkpoint store and a logger.
type runtime struct {
	cfg      *config.Config
	logger   *telemetry.Logger
	provider *oci.Provider
	audit    *wal.WAL
	store    *storage.Store
	metrics  *telemetry.RunMetrics
}

// setup builds the runtime. Failures here are environment problems (unknown
// profile, unreadable config, unwritable state dir) and exit with code 2.
func setup(ctx context.Context) (*runtime, error) {
	switch {
	case flagDebug:
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case flagQuiet:
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	logger := telemetry.NewConsoleLogger("ocisched", os.Stderr)

	provider, err := oci.New(ctx, oci.Options{
		Profile:           cfg.Profile,
		ConfigFile:        cfg.ConfigFile,
		InstancePrincipal: cfg.InstancePrincipal,
	})
	if err != nil {
		return nil, exitf(exitPrecondition, "failed to create OCI provider: %v", err)
	}

	audit, err := wal.Open(cfg.WALDir)
	if err != nil {
		return nil, exitf(exitPrecondition, "failed to open WAL: %v", err)
	}

	store, err := storage.Open(cfg.StorePath)
	if err != nil {
		_ = audit.Close()
		return nil, exitf(exitPrecondition, "failed to open store: %v", err)
	}

	return &runtime{
		cfg:      cfg,
		logger:   logger,
		provider: provider,
		audit:    audit,
		store:    store,
	}, nil
}

func (rt *runtime) close() {
	_ = rt.store.Close()
	_ = rt.audit.Close()
}

func (rt *runtime) newPoller() *poller.Poller {
	return poller.New(rt.cfg.Polling.Interval, rt.cfg.Polling.MaxWait)
}

// collect enumerates every resource of the given kinds across the scope and
// returns one action client per scanned region. Observations are recorded in
// the store so later runs can diff against what was seen.
func (rt *runtime) collect(ctx context.Context, kinds ...types.ResourceKind) ([]types.Resource, map[string]executor.ActionClient, error) {
	scope, err := scanner.BuildScope(ctx, rt.provider, rt.provider.Region(), rt.cfg.AllRegions)
	if err != nil {
		return nil, nil, err
	}

	log := rt.logger.WithContext(ctx)
	log.Info().
		Int("compartments", len(scope.Compartments)).
		Strs("regions", scope.Regions).
		Msg("scope built")

	clients := make(map[string]executor.ActionClient, len(scope.Regions))
	var resources []types.Resource

	for _, region := range scope.Regions {
		regional := rt.provider.ForRegion(region)
		clients[region] = regional

		var found []types.Resource
		if rt.cfg.UseSearch {
			found, err = scanner.ScanBySearch(ctx, regional, kinds...)
		} else {
			found, err = scanner.New(regional, scope, kinds...).Scan(ctx)
		}
		if err != nil {
			return nil, nil, exitf(exitRunError, "scan of region %s failed: %v", region, err)
		}

		log.Info().Str("region", region).Int("resources", len(found)).Msg("region scanned")
		resources = append(resources, found...)
	}

	if _, err := rt.store.RecordObservationBatch(resources); err != nil {
		log.Warn().Err(err).Msg("failed to record observations")
	}
	if rt.metrics != nil {
		rt.metrics.ResourcesScanned.Add(ctx, int64(len(resources)))
	}

	return resources, clients, nil
}

// execute runs a decision batch through the executor engine and logs the
// summary. Partial failures map to exit code 3.
func (rt *runtime) execute(ctx context.Context, clients map[string]executor.ActionClient, decisions []types.Decision) (*executor.Result, error) {
	engine := executor.NewEngine(clients, rt.audit, rt.logger, rt.metrics, executor.Options{
		Confirm:           flagConfirm,
		ContinueOnFailure: true,
	})

	start := time.Now()
	result, err := engine.Execute(ctx, decisions)
	if err != nil {
		return nil, err
	}
	if rt.metrics != nil {
		rt.metrics.DecisionsMade.Add(ctx, int64(len(decisions)))
		rt.metrics.RunDuration.Record(ctx, time.Since(start).Seconds())
	}

	log := rt.logger.WithContext(ctx)
	log.Info().
		Int("total", result.TotalDecisions).
		Int("planned", result.PlannedCount).
		Int("succeeded", result.SuccessCount).
		Int("failed", result.FailedCount).
		Dur("duration", result.Duration).
		Bool("confirmed", flagConfirm).
		Msg("run complete")

	if !flagConfirm && result.PlannedCount > 0 {
		log.Info().Msg("no action taken; re-run with --confirm to execute")
	}

	return result, nil
}

// awaitExpected polls every successfully executed decision until its resource
// reaches the state the decision expects.
func (rt *runtime) awaitExpected(ctx context.Context, result *executor.Result) error {
	poll := rt.newPoller()

	var targets []poller.Target
	expected := make(map[string]types.LifecycleState)
	for _, dr := range result.Results {
		if dr.Status != executor.StatusSuccess || dr.Decision.ExpectedState == "" {
			continue
		}
		d := dr.Decision
		regional := rt.provider.ForRegion(d.Region)
		targets = append(targets, poller.Target{
			ResourceID: d.ResourceID,
			Describe: func(ctx context.Context) (types.LifecycleState, error) {
				res, err := regional.GetResource(ctx, d.ResourceKind, d.ResourceID)
				if errors.Is(err, providers.ErrNotFound) {
					// Terminated resources disappear from the API.
					return types.StateTerminated, nil
				}
				if err != nil {
					return "", err
				}
				return res.State, nil
			},
		})
		expected[d.ResourceID] = d.ExpectedState
	}
	if len(targets) == 0 {
		return nil
	}

	// One batch per expected state; start/stop batches usually share one.
	grouped := make(map[types.LifecycleState][]poller.Target)
	for _, t := range targets {
		state := expected[t.ResourceID]
		grouped[state] = append(grouped[state], t)
	}

	start := time.Now()
	for state, group := range grouped {
		if err := poll.WaitForAll(ctx, group, state); err != nil {
			if rt.metrics != nil && isTimeout(err) {
				rt.metrics.PollTimeouts.Add(ctx, 1)
			}
			return err
		}
	}
	if rt.metrics != nil {
		rt.metrics.PollDuration.Record(ctx, time.Since(start).Seconds())
	}

	rt.logger.WithContext(ctx).Info().Int("resources", len(targets)).Msg("all resources reached their expected state")
	return nil
}

func isTimeout(err error) bool {
	return errors.Is(err, poller.ErrTimeout)
}
