package schedule

import (
	"fmt"
	"strconv"
	"time"

	"github.com/cpauliat/my-oci-scripts/config"
	"github.com/cpauliat/my-oci-scripts/types"
)

// ScalePlanner decides OCPU scale-up/down for ExaCC VM clusters. Clusters must
// carry all four scale tags; partially tagged or busy clusters are skipped.
type ScalePlanner struct {
	tags config.ScaleTags
	hour string
	now  time.Time
}

// SkippedCluster explains why a cluster got no decision. Reported, not fatal.
type SkippedCluster struct {
	Resource types.Resource
	Reason   string
}

// NewScalePlanner builds a scale planner for one run; the hour value is
// computed once here.
func NewScalePlanner(tags config.ScaleTags, now time.Time) *ScalePlanner {
	return &ScalePlanner{tags: tags, hour: types.HourValue(now), now: now}
}

// Plan inspects every VM cluster and produces scale decisions for those whose
// scale-up or scale-down time tag matches the current hour.
func (p *ScalePlanner) Plan(clusters []types.Resource) ([]types.Decision, []SkippedCluster) {
	var decisions []types.Decision
	var skipped []SkippedCluster

	for i := range clusters {
		cluster := &clusters[i]
		decision, skip := p.planOne(cluster)
		if decision != nil {
			decisions = append(decisions, *decision)
		}
		if skip != "" {
			skipped = append(skipped, SkippedCluster{Resource: *cluster, Reason: skip})
		}
	}

	return decisions, skipped
}

func (p *ScalePlanner) planOne(cluster *types.Resource) (*types.Decision, string) {
	if cluster.State != types.StateAvailable {
		return nil, fmt.Sprintf("not AVAILABLE (currently %s)", cluster.State)
	}

	downTime := cluster.Tag(p.tags.Namespace, p.tags.DownTimeKey)
	upTime := cluster.Tag(p.tags.Namespace, p.tags.UpTimeKey)
	downOCPUs := cluster.Tag(p.tags.Namespace, p.tags.DownOCPUsKey)
	upOCPUs := cluster.Tag(p.tags.Namespace, p.tags.UpOCPUsKey)
	if downTime == "" || upTime == "" || downOCPUs == "" || upOCPUs == "" {
		return nil, "some scale tags are missing"
	}

	switch p.hour {
	case downTime:
		return p.scaleDecision(cluster, downOCPUs, "scale-down")
	case upTime:
		return p.scaleDecision(cluster, upOCPUs, "scale-up")
	}
	return nil, ""
}

func (p *ScalePlanner) scaleDecision(cluster *types.Resource, ocpusTag, direction string) (*types.Decision, string) {
	target, err := strconv.Atoi(ocpusTag)
	if err != nil {
		return nil, fmt.Sprintf("%s OCPU tag %q is not a number", direction, ocpusTag)
	}
	if cluster.CPUsEnabled == target {
		return nil, fmt.Sprintf("already at %d OCPUs", target)
	}

	return &types.Decision{
		Action:        types.ActionScale,
		ResourceID:    cluster.ID,
		ResourceKind:  cluster.Kind,
		ResourceName:  cluster.Name,
		Region:        cluster.Region,
		Compartment:   cluster.CompartmentID,
		Reason:        fmt.Sprintf("%s from %d to %d OCPUs at %s", direction, cluster.CPUsEnabled, target, p.hour),
		TargetOCPUs:   target,
		ExpectedState: types.StateAvailable,
		CreatedAt:     p.now,
	}, ""
}
