package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/cpauliat/my-oci-scripts/schedule"
	"github.com/cpauliat/my-oci-scripts/types"
)

var (
	scheduleAction string
	scheduleWait   bool
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Start or stop resources whose schedule tags match the current hour",
	Long: `Start or stop compute instances and autonomous databases based on their
defined tags.

A resource tagged osc.automatic_startup = "08:00_UTC" is started during the
08:00 UTC hour if it is stopped; osc.automatic_shutdown works the same way for
stopping. The hour is evaluated once per run, so a run crossing an hour
boundary stays consistent.`,
	Example: `  ocisched schedule --profile PROD                  # print the plan
  ocisched schedule --profile PROD --confirm        # actually start/stop
  ocisched schedule --profile PROD --action stop -a # stops only, all regions`,
	RunE: runSchedule,
}

func init() {
	rootCmd.AddCommand(scheduleCmd)

	scheduleCmd.Flags().StringVar(&scheduleAction, "action", "both", "Which actions to plan: start, stop or both")
	scheduleCmd.Flags().BoolVar(&scheduleWait, "wait", false, "After --confirm, poll until every resource reaches its expected state")
}

func runSchedule(cmd *cobra.Command, args []string) error {
	if scheduleAction != "start" && scheduleAction != "stop" && scheduleAction != "both" {
		return exitf(exitRunError, "invalid --action %q: must be start, stop or both", scheduleAction)
	}

	ctx := cmd.Context()
	rt, err := setup(ctx)
	if err != nil {
		return err
	}
	defer rt.close()

	resources, clients, err := rt.collect(ctx, types.KindComputeInstance, types.KindAutonomousDatabase)
	if err != nil {
		return err
	}

	planner := schedule.NewPlanner(rt.cfg.Schedule, time.Now())
	decisions := filterByAction(planner.Plan(resources), scheduleAction)

	rt.logger.WithContext(ctx).Info().
		Str("hour", planner.HourValue()).
		Int("resources", len(resources)).
		Int("decisions", len(decisions)).
		Msg("schedule planned")

	result, err := rt.execute(ctx, clients, decisions)
	if err != nil {
		return err
	}

	if flagConfirm && scheduleWait {
		if err := rt.awaitExpected(ctx, result); err != nil {
			return err
		}
	}

	if result.PartialFailure {
		return exitf(exitPartialFailure, "%d of %d actions failed", result.FailedCount, result.TotalDecisions)
	}
	return nil
}

func filterByAction(decisions []types.Decision, action string) []types.Decision {
	if action == "both" {
		return decisions
	}
	out := decisions[:0]
	for _, d := range decisions {
		if d.Action == action {
			out = append(out, d)
		}
	}
	return out
}
