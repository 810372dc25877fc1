package domain

import (
	"maps"
	"slices"
)

// Provenance tags recorded on entities, naming the tool that produced
// them.
const (
	// SourceSnapshot marks entities produced by a live snapshot run.
	SourceSnapshot = "ros_snapshot"

	// SourceWorkspace marks specifications produced by a workspace
	// crawl.
	SourceWorkspace = "package_modeler"
)

// Entity is implemented by every record stored in a Bank.
type Entity interface {
	EntityName() string
}

// Meta carries the identity and provenance fields shared by every entity
// kind. Name is the bank key and never changes after creation.
type Meta struct {
	Name    string `yaml:"name" json:"name"`
	Source  string `yaml:"source,omitempty" json:"source,omitempty"`
	Version int    `yaml:"version" json:"version"`
}

// EntityName returns the bank identity key.
func (m *Meta) EntityName() string { return m.Name }

// mergeMeta combines provenance and advances the version counter. The
// surviving version is one past the larger of the two inputs, so any merge
// leaves a visible trace even when every other field was identical.
func (m *Meta) mergeMeta(in Meta) {
	mergeScalar(&m.Source, in.Source)
	if in.Version > m.Version {
		m.Version = in.Version
	}
	m.Version++
}

// mergeScalar fills or overwrites a single-valued field. A zero incoming
// value is ignored; an equal value is a no-op.
func mergeScalar[T comparable](current *T, incoming T) {
	var zero T
	if incoming == zero || incoming == *current {
		return
	}
	*current = incoming
}

// mergeBool latches a flag on. A false incoming value never clears a flag
// that was already set.
func mergeBool(current *bool, incoming bool) {
	if incoming {
		*current = true
	}
}

// mergeList extends a list field. An identical incoming list is a no-op;
// any other non-empty list is appended wholesale, so repeated observations
// accumulate rather than replace.
func mergeList[T comparable](current, incoming []T) []T {
	if len(incoming) == 0 || slices.Equal(current, incoming) {
		return current
	}
	return append(current, incoming...)
}

// mergeTokens unions two token maps; the incoming side wins on key
// conflicts.
func mergeTokens[V comparable](current, incoming map[string]V) map[string]V {
	if len(incoming) == 0 {
		return current
	}
	if current == nil {
		current = make(map[string]V, len(incoming))
	}
	maps.Copy(current, incoming)
	return current
}

// appendAbsent appends v unless it is already present.
func appendAbsent(list []string, v string) []string {
	if slices.Contains(list, v) {
		return list
	}
	return append(list, v)
}
