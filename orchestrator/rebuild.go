package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cpauliat/my-oci-scripts/poller"
	"github.com/cpauliat/my-oci-scripts/providers"
	"github.com/cpauliat/my-oci-scripts/telemetry"
	"github.com/cpauliat/my-oci-scripts/types"
	"github.com/cpauliat/my-oci-scripts/wal"
)

// ClusterOps is the slice of the provider the rebuild workflow needs.
type ClusterOps interface {
	GetResource(ctx context.Context, kind types.ResourceKind, id string) (*types.Resource, error)
	GetVMClusterNetwork(ctx context.Context, exaInfraID, networkID string) (*types.Resource, error)
	DeleteVMCluster(ctx context.Context, id string) error
	DeleteVMClusterNetwork(ctx context.Context, exaInfraID, networkID string) error
	CreateVMClusterNetwork(ctx context.Context, spec providers.VMClusterNetworkSpec) (string, error)
	ValidateVMClusterNetwork(ctx context.Context, exaInfraID, networkID string) error
	CreateVMCluster(ctx context.Context, spec providers.VMClusterSpec) (string, error)
}

// CheckpointStore persists workflow progress between invocations.
type CheckpointStore interface {
	SaveCheckpoint(key string, v interface{}) error
	LoadCheckpoint(key string, v interface{}) (bool, error)
}

// Step numbers accepted on the command line for manual resumption.
const (
	StepDelete   = 1
	StepNetworks = 2
	StepClusters = 3
)

// Rebuilder drives one rebuild plan to completion.
type Rebuilder struct {
	ops     ClusterOps
	poll    *poller.Poller
	store   CheckpointStore
	wal     *wal.WAL
	logger  *telemetry.Logger
	confirm bool
}

// NewRebuilder wires a rebuilder. Without confirm the workflow only reports
// the steps it would run.
func NewRebuilder(ops ClusterOps, poll *poller.Poller, store CheckpointStore, auditLog *wal.WAL, logger *telemetry.Logger, confirm bool) *Rebuilder {
	return &Rebuilder{
		ops:     ops,
		poll:    poll,
		store:   store,
		wal:     auditLog,
		logger:  logger,
		confirm: confirm,
	}
}

func checkpointKey(plan *Plan) string {
	return "rebuild/" + plan.Name
}

// Run executes the plan from the given step (0 means resume wherever the
// checkpoint left off). Steps are strictly ordered: the delete completes
// before networks are provisioned, each network is validated before its
// dependent cluster create reads its id.
func (r *Rebuilder) Run(ctx context.Context, plan *Plan, fromStep int) (*Checkpoint, error) {
	plan.fill()

	cp, err := r.loadOrCreate(plan)
	if err != nil {
		return nil, err
	}
	if cp.State == StateComplete {
		r.logger.WithContext(ctx).Info().Str("plan", plan.Name).Msg("rebuild already complete")
		return cp, nil
	}

	if !r.confirm {
		r.report(ctx, plan, cp)
		return cp, nil
	}

	steps := []struct {
		number int
		run    func(context.Context, *Plan, *Checkpoint) error
	}{
		{StepDelete, r.stepDelete},
		{StepNetworks, r.stepNetworks},
		{StepClusters, r.stepClusters},
	}

	for _, step := range steps {
		if fromStep > step.number {
			continue
		}
		if err := step.run(ctx, plan, cp); err != nil {
			cp.State = StateFailed
			cp.LastError = err.Error()
			r.save(ctx, plan, cp)
			return cp, fmt.Errorf("rebuild step %d failed: %w", step.number, err)
		}
	}

	cp.State = StateComplete
	cp.LastError = ""
	r.save(ctx, plan, cp)
	r.logger.WithContext(ctx).Info().Str("plan", plan.Name).Msg("rebuild complete")
	return cp, nil
}

// stepDelete tears down the old cluster and its network, waiting until both
// are gone before anything new is provisioned.
func (r *Rebuilder) stepDelete(ctx context.Context, plan *Plan, cp *Checkpoint) error {
	cp.State = StateDeleting
	r.save(ctx, plan, cp)

	if !cp.ClusterDeleted {
		if err := r.deleteCluster(ctx, plan.Delete.VMClusterID); err != nil {
			return err
		}
		cp.ClusterDeleted = true
		r.save(ctx, plan, cp)
	}

	if plan.Delete.NetworkID != "" && !cp.OldNetworkDeleted {
		if err := r.deleteNetwork(ctx, plan.ExadataInfrastructureID, plan.Delete.NetworkID); err != nil {
			return err
		}
		cp.OldNetworkDeleted = true
		r.save(ctx, plan, cp)
	}

	return nil
}

func (r *Rebuilder) deleteCluster(ctx context.Context, id string) error {
	_, err := r.ops.GetResource(ctx, types.KindVMCluster, id)
	if errors.Is(err, providers.ErrNotFound) {
		return nil // already gone
	}
	if err != nil {
		return err
	}

	if err := r.appendWAL(wal.EntryExecuting, id, "delete vm cluster"); err != nil {
		return err
	}
	if err := r.ops.DeleteVMCluster(ctx, id); err != nil {
		return err
	}

	return r.poll.WaitFor(ctx, id, func(ctx context.Context) (types.LifecycleState, error) {
		res, err := r.ops.GetResource(ctx, types.KindVMCluster, id)
		if errors.Is(err, providers.ErrNotFound) {
			return types.StateTerminated, nil
		}
		if err != nil {
			return "", err
		}
		return res.State, nil
	}, types.StateTerminated)
}

func (r *Rebuilder) deleteNetwork(ctx context.Context, exaInfraID, networkID string) error {
	_, err := r.ops.GetVMClusterNetwork(ctx, exaInfraID, networkID)
	if errors.Is(err, providers.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if err := r.ops.DeleteVMClusterNetwork(ctx, exaInfraID, networkID); err != nil {
		return err
	}

	return r.poll.WaitFor(ctx, networkID, func(ctx context.Context) (types.LifecycleState, error) {
		res, err := r.ops.GetVMClusterNetwork(ctx, exaInfraID, networkID)
		if errors.Is(err, providers.ErrNotFound) {
			return types.StateTerminated, nil
		}
		if err != nil {
			return "", err
		}
		return res.State, nil
	}, types.StateTerminated)
}

// stepNetworks provisions and validates the networks strictly one after the
// other. Ids are checkpointed the moment the create call returns, so a crash
// here never duplicates a network on re-invocation.
func (r *Rebuilder) stepNetworks(ctx context.Context, plan *Plan, cp *Checkpoint) error {
	cp.State = StateNetworksProvisioning
	r.save(ctx, plan, cp)

	for i := range plan.Networks {
		progress := &cp.Networks[i]

		if progress.ID == "" {
			id, err := r.ops.CreateVMClusterNetwork(ctx, plan.Networks[i])
			if err != nil {
				return err
			}
			progress.ID = id
			r.save(ctx, plan, cp)
		}

		if progress.Validated {
			continue
		}

		cp.State = StateNetworksValidating
		r.save(ctx, plan, cp)

		if err := r.validateNetwork(ctx, plan.ExadataInfrastructureID, progress.ID); err != nil {
			return fmt.Errorf("network %s: %w", progress.DisplayName, err)
		}
		progress.Validated = true
		r.save(ctx, plan, cp)
	}

	return nil
}

func (r *Rebuilder) validateNetwork(ctx context.Context, exaInfraID, networkID string) error {
	network, err := r.ops.GetVMClusterNetwork(ctx, exaInfraID, networkID)
	if err != nil {
		return err
	}
	if network.State == types.StateValidated {
		return nil
	}

	// A freshly created network sits in REQUIRES_VALIDATION until validation
	// is submitted.
	if network.State == types.StateRequiresValidation {
		if err := r.ops.ValidateVMClusterNetwork(ctx, exaInfraID, networkID); err != nil {
			return err
		}
	}

	return r.poll.WaitFor(ctx, networkID, func(ctx context.Context) (types.LifecycleState, error) {
		res, err := r.ops.GetVMClusterNetwork(ctx, exaInfraID, networkID)
		if err != nil {
			return "", err
		}
		return res.State, nil
	}, types.StateValidated)
}

// stepClusters submits every cluster create back-to-back, then polls the whole
// set round-robin until all are AVAILABLE.
func (r *Rebuilder) stepClusters(ctx context.Context, plan *Plan, cp *Checkpoint) error {
	cp.State = StateClustersCreating
	r.save(ctx, plan, cp)

	for i := range plan.Clusters {
		progress := &cp.Clusters[i]
		if progress.ID != "" {
			continue
		}

		spec := plan.Clusters[i]
		spec.NetworkID = cp.Networks[i].ID
		if spec.NetworkID == "" {
			return fmt.Errorf("cluster %s: network %s has no id; run the network step first",
				spec.DisplayName, cp.Networks[i].DisplayName)
		}

		id, err := r.ops.CreateVMCluster(ctx, spec)
		if err != nil {
			return err
		}
		progress.ID = id
		r.save(ctx, plan, cp)
	}

	targets := make([]poller.Target, 0, len(cp.Clusters))
	for i := range cp.Clusters {
		if cp.Clusters[i].Available {
			continue
		}
		id := cp.Clusters[i].ID
		targets = append(targets, poller.Target{
			ResourceID: id,
			Describe: func(ctx context.Context) (types.LifecycleState, error) {
				res, err := r.ops.GetResource(ctx, types.KindVMCluster, id)
				if err != nil {
					return "", err
				}
				return res.State, nil
			},
		})
	}

	if err := r.poll.WaitForAll(ctx, targets, types.StateAvailable); err != nil {
		return err
	}

	for i := range cp.Clusters {
		cp.Clusters[i].Available = true
	}
	r.save(ctx, plan, cp)
	return nil
}

func (r *Rebuilder) loadOrCreate(plan *Plan) (*Checkpoint, error) {
	var cp Checkpoint
	found, err := r.store.LoadCheckpoint(checkpointKey(plan), &cp)
	if err != nil {
		return nil, fmt.Errorf("failed to load checkpoint: %w", err)
	}
	if !found {
		return newCheckpoint(plan), nil
	}
	if !cp.matches(plan) {
		return nil, fmt.Errorf("checkpoint for plan %q does not match the plan file; delete the checkpoint or restore the plan", plan.Name)
	}
	return &cp, nil
}

func (r *Rebuilder) save(ctx context.Context, plan *Plan, cp *Checkpoint) {
	cp.UpdatedAt = time.Now()
	if err := r.store.SaveCheckpoint(checkpointKey(plan), cp); err != nil {
		// Progress in memory is still correct; only resumability degrades.
		r.logger.WithContext(ctx).Warn().Err(err).Str("plan", plan.Name).Msg("failed to save checkpoint")
	}
}

func (r *Rebuilder) appendWAL(entryType wal.EntryType, resourceID, note string) error {
	if r.wal == nil {
		return nil
	}
	return r.wal.Append(entryType, resourceID, map[string]string{"note": note})
}

// report prints the remaining work without touching anything.
func (r *Rebuilder) report(ctx context.Context, plan *Plan, cp *Checkpoint) {
	log := r.logger.WithContext(ctx)
	log.Info().Str("plan", plan.Name).Msg("dry-run: re-run with --confirm to execute")

	if !cp.ClusterDeleted {
		log.Info().Str("vm_cluster_id", plan.Delete.VMClusterID).Msg("would delete VM cluster")
	}
	if plan.Delete.NetworkID != "" && !cp.OldNetworkDeleted {
		log.Info().Str("network_id", plan.Delete.NetworkID).Msg("would delete VM cluster network")
	}
	for i := range plan.Networks {
		if cp.Networks[i].ID == "" {
			log.Info().Str("network", plan.Networks[i].DisplayName).Msg("would create and validate network")
		} else if !cp.Networks[i].Validated {
			log.Info().Str("network", plan.Networks[i].DisplayName).Msg("would validate network")
		}
	}
	for i := range plan.Clusters {
		if cp.Clusters[i].ID == "" {
			log.Info().Str("cluster", plan.Clusters[i].DisplayName).Msg("would create VM cluster")
		}
	}
}
