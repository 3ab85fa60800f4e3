package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/cpauliat/my-oci-scripts/schedule"
	"github.com/cpauliat/my-oci-scripts/types"
	"github.com/cpauliat/my-oci-scripts/wal"
)

var (
	cleanupRetentionDays int
	cleanupWait          bool
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Terminate free-tier compute instances",
	Long: `Terminate every compute instance of the free-tier shape
(VM.Standard.E2.1.Micro unless configured otherwise).

Termination is permanent and deletes the boot volume; nothing happens without
--confirm. Audit log files older than the retention period are pruned on the
way out.`,
	Example: `  ocisched cleanup --profile SANDBOX            # list what would be terminated
  ocisched cleanup --profile SANDBOX --confirm  # actually terminate`,
	RunE: runCleanup,
}

func init() {
	rootCmd.AddCommand(cleanupCmd)

	cleanupCmd.Flags().IntVar(&cleanupRetentionDays, "wal-retention-days", 30, "Remove audit log files older than this many days")
	cleanupCmd.Flags().BoolVar(&cleanupWait, "wait", false, "After --confirm, poll until every instance reaches TERMINATED")
}

func runCleanup(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	rt, err := setup(ctx)
	if err != nil {
		return err
	}
	defer rt.close()

	instances, clients, err := rt.collect(ctx, types.KindComputeInstance)
	if err != nil {
		return err
	}

	planner := schedule.NewFreeTierPlanner(rt.cfg.FreeTierShape, time.Now())
	decisions := planner.Plan(instances)

	rt.logger.WithContext(ctx).Info().
		Str("shape", rt.cfg.FreeTierShape).
		Int("instances", len(instances)).
		Int("matches", len(decisions)).
		Msg("cleanup planned")

	result, err := rt.execute(ctx, clients, decisions)
	if err != nil {
		return err
	}

	if flagConfirm && cleanupWait {
		if err := rt.awaitExpected(ctx, result); err != nil {
			return err
		}
	}

	if err := wal.Cleanup(rt.cfg.WALDir, wal.RetentionConfig{RetentionDays: cleanupRetentionDays}); err != nil {
		rt.logger.WithContext(ctx).Warn().Err(err).Msg("WAL retention cleanup failed")
	}

	if result.PartialFailure {
		return exitf(exitPartialFailure, "%d of %d terminations failed", result.FailedCount, result.TotalDecisions)
	}
	return nil
}
