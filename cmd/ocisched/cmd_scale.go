package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/cpauliat/my-oci-scripts/schedule"
	"github.com/cpauliat/my-oci-scripts/types"
)

var scaleWait bool

var scaleCmd = &cobra.Command{
	Use:   "scale",
	Short: "Scale ExaCC VM cluster OCPUs when their scale tags match the current hour",
	Long: `Scale ExaCC VM clusters up or down based on their defined tags.

A cluster carrying the four osc_exacc tags (scale_up_time, scale_down_time,
scale_up_ocpus, scale_down_ocpus) is scaled to the target OCPU count during
the tagged hour. Clusters that are not AVAILABLE, partially tagged or already
at the target count are reported and skipped.`,
	Example: `  ocisched scale --profile PROD            # print the plan
  ocisched scale --profile PROD --confirm  # actually scale`,
	RunE: runScale,
}

func init() {
	rootCmd.AddCommand(scaleCmd)

	scaleCmd.Flags().BoolVar(&scaleWait, "wait", false, "After --confirm, poll until every cluster is AVAILABLE again")
}

func runScale(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	rt, err := setup(ctx)
	if err != nil {
		return err
	}
	defer rt.close()

	clusters, clients, err := rt.collect(ctx, types.KindVMCluster)
	if err != nil {
		return err
	}

	planner := schedule.NewScalePlanner(rt.cfg.Scale, time.Now())
	decisions, skipped := planner.Plan(clusters)

	log := rt.logger.WithContext(ctx)
	for _, s := range skipped {
		log.Info().
			Str("cluster", s.Resource.Name).
			Str("region", s.Resource.Region).
			Str("reason", s.Reason).
			Msg("cluster skipped")
	}
	log.Info().
		Int("clusters", len(clusters)).
		Int("decisions", len(decisions)).
		Int("skipped", len(skipped)).
		Msg("scale planned")

	result, err := rt.execute(ctx, clients, decisions)
	if err != nil {
		return err
	}

	if flagConfirm && scaleWait {
		if err := rt.awaitExpected(ctx, result); err != nil {
			return err
		}
	}

	if result.PartialFailure {
		return exitf(exitPartialFailure, "%d of %d scale actions failed", result.FailedCount, result.TotalDecisions)
	}
	return nil
}
