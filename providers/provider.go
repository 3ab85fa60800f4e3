package providers

import (
	"context"
	"errors"

	"github.com/cpauliat/my-oci-scripts/types"
)

// ErrNotFound reports that a resource does not exist (distinct from a call
// failure; callers must never conflate the two).
var ErrNotFound = errors.New("resource not found")

// CloudProvider is the contract with the cloud control plane for one region.
// Region selection happens at construction time, never by mutating shared
// on-disk configuration.
type CloudProvider interface {
	Name() string
	Region() string

	// Scope discovery
	TenancyID() string
	ListCompartments(ctx context.Context) ([]types.Compartment, error)
	SubscribedRegions(ctx context.Context) ([]string, error)

	// Enumeration and inspection. List calls return zero resources without
	// error when a compartment is genuinely empty.
	ListResources(ctx context.Context, kind types.ResourceKind, compartmentID string) ([]types.Resource, error)
	GetResource(ctx context.Context, kind types.ResourceKind, id string) (*types.Resource, error)

	// State-changing actions. All return immediately; the resource
	// transitions asynchronously.
	StartResource(ctx context.Context, kind types.ResourceKind, id string) error
	StopResource(ctx context.Context, kind types.ResourceKind, id string) error
	ScaleVMCluster(ctx context.Context, id string, ocpus int) error
	TerminateResource(ctx context.Context, kind types.ResourceKind, id string) error
}

// ClusterOperator extends a provider with the VM cluster rebuild operations.
type ClusterOperator interface {
	CloudProvider

	GetVMClusterNetwork(ctx context.Context, exaInfraID, networkID string) (*types.Resource, error)
	DeleteVMCluster(ctx context.Context, id string) error
	DeleteVMClusterNetwork(ctx context.Context, exaInfraID, networkID string) error
	CreateVMClusterNetwork(ctx context.Context, spec VMClusterNetworkSpec) (string, error)
	ValidateVMClusterNetwork(ctx context.Context, exaInfraID, networkID string) error
	CreateVMCluster(ctx context.Context, spec VMClusterSpec) (string, error)
}

// NodeSpec is one database node of a VM cluster network.
type NodeSpec struct {
	Hostname string `yaml:"hostname" json:"hostname"`
	IP       string `yaml:"ip" json:"ip"`
}

// VMNetworkSpec describes the client or backup network of a VM cluster network.
type VMNetworkSpec struct {
	Type    string     `yaml:"type" json:"type"` // client or backup
	VlanID  string     `yaml:"vlan_id" json:"vlan_id"`
	Netmask string     `yaml:"netmask" json:"netmask"`
	Gateway string     `yaml:"gateway" json:"gateway"`
	Domain  string     `yaml:"domain" json:"domain"`
	Nodes   []NodeSpec `yaml:"nodes" json:"nodes"`
}

// VMClusterNetworkSpec describes one VM cluster network to provision.
type VMClusterNetworkSpec struct {
	CompartmentID           string          `yaml:"compartment_id" json:"compartment_id"`
	ExadataInfrastructureID string          `yaml:"exadata_infrastructure_id" json:"exadata_infrastructure_id"`
	DisplayName             string          `yaml:"display_name" json:"display_name"`
	ScanName                string          `yaml:"scan_name" json:"scan_name"`
	ScanPort                int             `yaml:"scan_port" json:"scan_port"`
	ScanIPs                 []string        `yaml:"scan_ips" json:"scan_ips"`
	DNS                     []string        `yaml:"dns" json:"dns"`
	NTP                     []string        `yaml:"ntp" json:"ntp"`
	Networks                []VMNetworkSpec `yaml:"networks" json:"networks"`
}

// VMClusterSpec describes one VM cluster to create on a validated network.
type VMClusterSpec struct {
	CompartmentID           string   `yaml:"compartment_id" json:"compartment_id"`
	ExadataInfrastructureID string   `yaml:"exadata_infrastructure_id" json:"exadata_infrastructure_id"`
	NetworkID               string   `yaml:"network_id,omitempty" json:"network_id,omitempty"`
	DisplayName             string   `yaml:"display_name" json:"display_name"`
	GiVersion               string   `yaml:"gi_version" json:"gi_version"`
	CPUCoreCount            int      `yaml:"cpu_core_count" json:"cpu_core_count"`
	SSHPublicKeys           []string `yaml:"ssh_public_keys" json:"ssh_public_keys"`
}
