package main

import (
	"github.com/spf13/cobra"

	"github.com/cpauliat/my-oci-scripts/orchestrator"
)

var (
	rebuildPlanPath string
	rebuildStep     int
)

var rebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Delete and recreate ExaCC VM clusters from a plan file",
	Long: `Run the multi-step VM cluster rebuild workflow described by a plan file:
delete the old cluster (and optionally its network), create and validate the
replacement cluster networks one by one, then create the new clusters and wait
until all of them are AVAILABLE.

Progress is checkpointed per sub-step, so a crashed or interrupted rebuild
resumes where it stopped instead of redoing completed work. Use --step to
force a restart from a specific step.`,
	Example: `  ocisched rebuild --profile PROD --plan rebuild.yaml            # print remaining steps
  ocisched rebuild --profile PROD --plan rebuild.yaml --confirm  # execute / resume
  ocisched rebuild --profile PROD --plan rebuild.yaml --step 2 --confirm`,
	RunE: runRebuild,
}

func init() {
	rootCmd.AddCommand(rebuildCmd)

	rebuildCmd.Flags().StringVar(&rebuildPlanPath, "plan", "", "Path to the rebuild plan YAML file (required)")
	rebuildCmd.Flags().IntVar(&rebuildStep, "step", 0, "Restart from this step (1=delete, 2=networks, 3=clusters); 0 resumes from the checkpoint")
	_ = rebuildCmd.MarkFlagRequired("plan")
}

func runRebuild(cmd *cobra.Command, args []string) error {
	if rebuildStep < 0 || rebuildStep > orchestrator.StepClusters {
		return exitf(exitRunError, "invalid --step %d: must be between 0 and %d", rebuildStep, orchestrator.StepClusters)
	}

	ctx := cmd.Context()
	rt, err := setup(ctx)
	if err != nil {
		return err
	}
	defer rt.close()

	plan, err := orchestrator.LoadPlan(rebuildPlanPath)
	if err != nil {
		return exitf(exitPrecondition, "%v", err)
	}

	ops := rt.provider
	if plan.Region != "" {
		ops = rt.provider.ForRegion(plan.Region)
	}

	rebuilder := orchestrator.NewRebuilder(ops, rt.newPoller(), rt.store, rt.audit, rt.logger, flagConfirm)
	cp, err := rebuilder.Run(ctx, plan, rebuildStep)
	if err != nil {
		return err
	}

	rt.logger.WithContext(ctx).Info().
		Str("plan", plan.Name).
		Str("state", string(cp.State)).
		Msg("rebuild finished")
	return nil
}
