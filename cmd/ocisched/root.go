package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cpauliat/my-oci-scripts/config"
)

// Exit codes of every subcommand.
const (
	exitOK             = 0
	exitRunError       = 1
	exitPrecondition   = 2
	exitPartialFailure = 3
)

var (
	version = "0.1.0"

	flagConfigPath        string
	flagProfile           string
	flagOCIConfigFile     string
	flagInstancePrincipal bool
	flagAllRegions        bool
	flagConfirm           bool
	flagQuiet             bool
	flagDebug             bool
	flagSearch            bool

	rootCmd = &cobra.Command{
		Use:   "ocisched",
		Short: "Tag-driven scheduling of OCI resources",
		Long: `ocisched - tag-driven scheduling of OCI resources

ocisched enumerates compute instances, autonomous databases and ExaCC VM
clusters across a tenancy, matches their defined tags against the current
UTC hour, and starts, stops or scales the matches.

Nothing mutates without --confirm: the default run prints the plan only.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

// exitError carries a process exit code through cobra's error return.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func exitf(code int, format string, args ...interface{}) error {
	return &exitError{code: code, err: fmt.Errorf(format, args...)}
}

// Execute runs the root command and maps the error to an exit code.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		var ee *exitError
		if errors.As(err, &ee) {
			return ee.code
		}
		return exitRunError
	}
	return exitOK
}

func init() {
	rootCmd.SetVersionTemplate(`ocisched {{.Version}}
`)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagConfigPath, "config", "", "Path to the ocisched YAML config file")
	pf.StringVar(&flagProfile, "profile", "", "OCI config file profile to authenticate with")
	pf.StringVar(&flagOCIConfigFile, "oci-config", "", "Path to the OCI config file (default ~/.oci/config)")
	pf.BoolVar(&flagInstancePrincipal, "instance-principal", false, "Authenticate as the instance the process runs on")
	pf.BoolVarP(&flagAllRegions, "all-regions", "a", false, "Operate on every subscribed region, not just the profile region")
	pf.BoolVar(&flagConfirm, "confirm", false, "Execute the planned actions instead of only printing them")
	pf.BoolVarP(&flagQuiet, "quiet", "q", false, "Only log warnings and errors")
	pf.BoolVar(&flagDebug, "debug", false, "Enable debug logging")
	pf.BoolVar(&flagSearch, "search", false, "Enumerate via the resource search service instead of per-compartment listing")
}

// loadConfig merges the YAML config (when given) with the command-line flags;
// flags win.
func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if flagConfigPath != "" {
		loaded, err := config.Load(flagConfigPath)
		if err != nil {
			return nil, exitf(exitPrecondition, "%v", err)
		}
		cfg = loaded
	}

	if flagProfile != "" {
		cfg.Profile = flagProfile
	}
	if flagOCIConfigFile != "" {
		cfg.ConfigFile = flagOCIConfigFile
	}
	if flagInstancePrincipal {
		cfg.InstancePrincipal = true
		cfg.Profile = ""
	}
	if flagAllRegions {
		cfg.AllRegions = true
	}
	if flagSearch {
		cfg.UseSearch = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, exitf(exitPrecondition, "invalid configuration: %v", err)
	}
	return cfg, nil
}
