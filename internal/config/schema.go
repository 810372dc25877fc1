package config

import "time"

// Config is the root configuration for one snapshot session.
type Config struct {
	// TargetDir is where model files and the run archive are written.
	TargetDir string `yaml:"target_dir"`
	// BaseName prefixes every persisted bank file name.
	BaseName string `yaml:"base_name"`
	// NodeName is the graph name the snapshot tool itself appears under
	// while observing; it is excluded from the resulting model.
	NodeName string `yaml:"node_name"`
	// SpecInputDir holds the persisted specification banks to reconcile
	// against.
	SpecInputDir string `yaml:"spec_input_dir"`

	Formats FormatConfig `yaml:"formats"`

	// IncludeDebug keeps logging and introspection plumbing in the model.
	IncludeDebug bool `yaml:"include_debug"`
	// DropTransforms excludes the transform distribution channels.
	DropTransforms bool `yaml:"drop_transforms"`
	// NoGuess disables the last-resort tie-break when several processes
	// remain plausible for one node.
	NoGuess bool `yaml:"no_guess"`

	// ParamTimeout bounds the blocking parameter listing call per node.
	ParamTimeout Duration `yaml:"param_timeout"`

	// ArchivePath is the run archive database; empty disables archiving
	// unless the archive format is selected, in which case it defaults to
	// a file under TargetDir.
	ArchivePath string `yaml:"archive_path,omitempty"`

	LogLevel string `yaml:"log_level"`
}

// FormatConfig selects the output formats a run produces. At least one
// must be enabled for a snapshot run to proceed.
type FormatConfig struct {
	YAML    bool `yaml:"yaml"`
	JSON    bool `yaml:"json"`
	Human   bool `yaml:"human"`
	Graph   bool `yaml:"graph"`
	Archive bool `yaml:"archive"`
}

// Any reports whether at least one output format is enabled.
func (f FormatConfig) Any() bool {
	return f.YAML || f.JSON || f.Human || f.Graph || f.Archive
}

// EnableAll switches every output format on.
func (f *FormatConfig) EnableAll() {
	f.YAML = true
	f.JSON = true
	f.Human = true
	f.Graph = true
	f.Archive = true
}

// Duration wraps time.Duration for YAML unmarshaling
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Duration returns the underlying time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}
