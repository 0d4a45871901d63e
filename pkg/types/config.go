package types

import "github.com/cockroachdb/errors"

// Config holds backend selection and catalog assembly parameters.
type Config struct {
	Backend     string      `json:"backend" yaml:"backend" mapstructure:"backend"`
	DataDir     string      `json:"data_dir" yaml:"data_dir" mapstructure:"data_dir"`
	MergePolicy MergePolicy `json:"merge_policy,omitempty" yaml:"merge_policy,omitempty" mapstructure:"merge_policy"`
}

// Supported backend names.
const (
	BackendSQLite = "sqlite"
)

// Config validation errors.
var (
	ErrBackendEmpty       = errors.New("backend must not be empty")
	ErrBackendUnknown     = errors.New("unknown backend")
	ErrMergePolicyUnknown = errors.New("unknown merge policy")
)

// knownBackends lists the backends that Validate accepts.
var knownBackends = map[string]bool{
	BackendSQLite: true,
}

// Validate checks that the Config is well-formed. An empty merge policy is
// accepted and means MergeOverwrite.
func (c Config) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return errors.Wrapf(ErrBackendUnknown, "%q", c.Backend)
	}
	if c.MergePolicy != "" && !IsValidMergePolicy(c.MergePolicy) {
		return errors.Wrapf(ErrMergePolicyUnknown, "%q", c.MergePolicy)
	}
	return nil
}

// Policy returns the effective merge policy.
func (c Config) Policy() MergePolicy {
	if c.MergePolicy == "" {
		return MergeOverwrite
	}
	return c.MergePolicy
}
