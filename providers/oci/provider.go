// Package oci implements the cloud provider contract on top of the OCI Go SDK.
package oci

import (
	"context"
	"fmt"
	"time"

	"github.com/oracle/oci-go-sdk/v65/common"
	"github.com/oracle/oci-go-sdk/v65/common/auth"
	"github.com/oracle/oci-go-sdk/v65/core"
	"github.com/oracle/oci-go-sdk/v65/database"
	"github.com/oracle/oci-go-sdk/v65/identity"
	"github.com/oracle/oci-go-sdk/v65/resourcesearch"

	"github.com/cpauliat/my-oci-scripts/providers"
)

// Options select the credentials and the region of one provider instance.
type Options struct {
	// Profile names an entry in the OCI config file. Ignored when
	// InstancePrincipal is set.
	Profile    string
	ConfigFile string

	// InstancePrincipal authenticates as the compute instance itself.
	InstancePrincipal bool

	// Region overrides the profile/instance region. The override is applied
	// per client, never written back to the config file.
	Region string
}

// Provider implements providers.ClusterOperator for one OCI region.
type Provider struct {
	region    string
	tenancyID string

	identityClient identity.IdentityClient
	computeClient  core.ComputeClient
	databaseClient database.DatabaseClient
	searchClient   resourcesearch.ResourceSearchClient
}

var _ providers.ClusterOperator = (*Provider)(nil)

// New builds a provider from the given options.
func New(ctx context.Context, opts Options) (*Provider, error) {
	configProvider, err := configurationProvider(opts)
	if err != nil {
		return nil, err
	}

	tenancyID, err := configProvider.TenancyOCID()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve tenancy OCID: %w", err)
	}

	p := &Provider{tenancyID: tenancyID}

	p.identityClient, err = identity.NewIdentityClientWithConfigurationProvider(configProvider)
	if err != nil {
		return nil, fmt.Errorf("failed to create identity client: %w", err)
	}

	p.computeClient, err = core.NewComputeClientWithConfigurationProvider(configProvider)
	if err != nil {
		return nil, fmt.Errorf("failed to create compute client: %w", err)
	}

	p.databaseClient, err = database.NewDatabaseClientWithConfigurationProvider(configProvider)
	if err != nil {
		return nil, fmt.Errorf("failed to create database client: %w", err)
	}

	p.searchClient, err = resourcesearch.NewResourceSearchClientWithConfigurationProvider(configProvider)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource search client: %w", err)
	}

	region := opts.Region
	if region == "" {
		region, err = configProvider.Region()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve region: %w", err)
		}
	}
	p.setRegion(region)

	return p, nil
}

// ForRegion returns a copy of the provider with every client pointed at the
// given region. This replaces the source scripts' trick of appending a
// synthetic profile to the shared config file.
func (p *Provider) ForRegion(region string) *Provider {
	clone := *p
	clone.setRegion(region)
	return &clone
}

func (p *Provider) setRegion(region string) {
	p.region = region
	p.identityClient.SetRegion(region)
	p.computeClient.SetRegion(region)
	p.databaseClient.SetRegion(region)
	p.searchClient.SetRegion(region)
}

// Name returns the provider name.
func (p *Provider) Name() string { return "oci" }

// Region returns the region this provider instance talks to.
func (p *Provider) Region() string { return p.region }

// TenancyID returns the tenancy root compartment OCID.
func (p *Provider) TenancyID() string { return p.tenancyID }

func configurationProvider(opts Options) (common.ConfigurationProvider, error) {
	if opts.InstancePrincipal {
		cp, err := auth.InstancePrincipalConfigurationProvider()
		if err != nil {
			return nil, fmt.Errorf("failed to create instance principal config provider: %w", err)
		}
		return cp, nil
	}

	if opts.Profile == "" {
		return nil, fmt.Errorf("profile is required without instance principal auth")
	}
	if opts.ConfigFile != "" {
		return common.CustomProfileConfigProvider(opts.ConfigFile, opts.Profile), nil
	}
	return common.CustomProfileConfigProvider("", opts.Profile), nil
}

// retryMetadata applies the SDK default retry policy. The source scripts added
// this to instance actions after hitting TooManyRequests (HTTP 429).
func retryMetadata() common.RequestMetadata {
	policy := common.DefaultRetryPolicy()
	return common.RequestMetadata{RetryPolicy: &policy}
}

// notFound maps a 404 service error to providers.ErrNotFound so callers can
// tell genuine absence apart from transient call failures.
func notFound(err error) error {
	if serviceErr, ok := common.IsServiceError(err); ok && serviceErr.GetHTTPStatusCode() == 404 {
		return fmt.Errorf("%w: %s", providers.ErrNotFound, serviceErr.GetMessage())
	}
	return err
}

// convertDefinedTags flattens SDK defined tags into plain strings.
func convertDefinedTags(in map[string]map[string]interface{}) map[string]map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]map[string]string, len(in))
	for ns, keys := range in {
		m := make(map[string]string, len(keys))
		for k, v := range keys {
			m[k] = fmt.Sprint(v)
		}
		out[ns] = m
	}
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefInt(i *int) int {
	if i == nil {
		return 0
	}
	return *i
}

func sdkTimeValue(t *common.SDKTime) time.Time {
	if t == nil {
		return time.Time{}
	}
	return t.Time
}
