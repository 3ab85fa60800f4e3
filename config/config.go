package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Default tag names used by the schedule and scale commands. The originals for
// these values live as default tags on the root compartment so that every new
// resource gets them.
const (
	DefaultScheduleNamespace = "osc"
	DefaultStopKey           = "automatic_shutdown"
	DefaultStartKey          = "automatic_startup"

	DefaultScaleNamespace = "osc_exacc"
	DefaultScaleDownTime  = "scale_down_time"
	DefaultScaleUpTime    = "scale_up_time"
	DefaultScaleDownOCPUs = "scale_down_ocpus"
	DefaultScaleUpOCPUs   = "scale_up_ocpus"

	// Shape matched by the free-tier cleanup filter.
	DefaultFreeTierShape = "VM.Standard.E2.1.Micro"
)

// Config is the main configuration.
type Config struct {
	Version string `yaml:"version"`

	// Profile names an entry of the OCI config file. Empty with
	// InstancePrincipal set means the process authenticates as itself.
	Profile           string `yaml:"profile,omitempty"`
	ConfigFile        string `yaml:"config_file,omitempty"`
	InstancePrincipal bool   `yaml:"instance_principal,omitempty"`

	// AllRegions broadens the scope from the profile region to every
	// subscribed region.
	AllRegions bool `yaml:"all_regions,omitempty"`

	// UseSearch enumerates through the resource search service instead of
	// per-compartment list calls.
	UseSearch bool `yaml:"use_search,omitempty"`

	Schedule ScheduleTags `yaml:"schedule,omitempty"`
	Scale    ScaleTags    `yaml:"scale,omitempty"`
	Polling  Polling      `yaml:"polling,omitempty"`

	FreeTierShape string `yaml:"free_tier_shape,omitempty"`

	WALDir    string `yaml:"wal_dir,omitempty"`
	StorePath string `yaml:"store_path,omitempty"`
}

// ScheduleTags names the defined tags driving hourly start/stop.
type ScheduleTags struct {
	Namespace string `yaml:"namespace"`
	StopKey   string `yaml:"stop_key"`
	StartKey  string `yaml:"start_key"`
}

// ScaleTags names the defined tags driving VM cluster OCPU scaling.
type ScaleTags struct {
	Namespace    string `yaml:"namespace"`
	DownTimeKey  string `yaml:"down_time_key"`
	UpTimeKey    string `yaml:"up_time_key"`
	DownOCPUsKey string `yaml:"down_ocpus_key"`
	UpOCPUsKey   string `yaml:"up_ocpus_key"`
}

// Polling bounds the state poller. The source scripts polled every 60s with
// no upper bound; MaxWait makes the wait finite.
type Polling struct {
	Interval time.Duration `yaml:"interval"`
	MaxWait  time.Duration `yaml:"max_wait"`
}

// Default returns a config with every knob at its default value.
func Default() *Config {
	cfg := &Config{Version: "1"}
	cfg.applyDefaults()
	return cfg
}

// Load reads configuration from a YAML file and applies defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path is intentional user input
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Schedule.Namespace == "" {
		c.Schedule.Namespace = DefaultScheduleNamespace
	}
	if c.Schedule.StopKey == "" {
		c.Schedule.StopKey = DefaultStopKey
	}
	if c.Schedule.StartKey == "" {
		c.Schedule.StartKey = DefaultStartKey
	}
	if c.Scale.Namespace == "" {
		c.Scale.Namespace = DefaultScaleNamespace
	}
	if c.Scale.DownTimeKey == "" {
		c.Scale.DownTimeKey = DefaultScaleDownTime
	}
	if c.Scale.UpTimeKey == "" {
		c.Scale.UpTimeKey = DefaultScaleUpTime
	}
	if c.Scale.DownOCPUsKey == "" {
		c.Scale.DownOCPUsKey = DefaultScaleDownOCPUs
	}
	if c.Scale.UpOCPUsKey == "" {
		c.Scale.UpOCPUsKey = DefaultScaleUpOCPUs
	}
	if c.Polling.Interval <= 0 {
		c.Polling.Interval = 60 * time.Second
	}
	if c.Polling.MaxWait <= 0 {
		c.Polling.MaxWait = time.Hour
	}
	if c.FreeTierShape == "" {
		c.FreeTierShape = DefaultFreeTierShape
	}
	if c.WALDir == "" {
		c.WALDir = defaultStateDir("wal")
	}
	if c.StorePath == "" {
		c.StorePath = defaultStateDir("store")
	}
}

// Validate ensures the config is usable.
func (c *Config) Validate() error {
	if c.Profile == "" && !c.InstancePrincipal {
		return fmt.Errorf("either profile or instance_principal is required")
	}
	if c.Profile != "" && c.InstancePrincipal {
		return fmt.Errorf("profile and instance_principal are mutually exclusive")
	}
	if c.Polling.Interval > c.Polling.MaxWait {
		return fmt.Errorf("polling interval %s exceeds max wait %s", c.Polling.Interval, c.Polling.MaxWait)
	}
	return nil
}

func defaultStateDir(sub string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./.ocisched/" + sub
	}
	return home + "/.ocisched/" + sub
}
