package domain

// Action represents one observed action, grouped from its underlying
// suffixed topics.
type Action struct {
	Meta `yaml:",inline"`

	ConstructType   string   `yaml:"construct_type,omitempty" json:"construct_type,omitempty"`
	ClientNodeNames []string `yaml:"client_node_names,omitempty" json:"client_node_names,omitempty"`
	ServerNodeNames []string `yaml:"server_node_names,omitempty" json:"server_node_names,omitempty"`
}

// NewAction returns an empty action with the given full name.
func NewAction(name string) *Action {
	return &Action{Meta: Meta{Name: name}}
}

// Merge folds another observation of the same action into a.
func (a *Action) Merge(in *Action) {
	mergeScalar(&a.ConstructType, in.ConstructType)
	a.ClientNodeNames = mergeList(a.ClientNodeNames, in.ClientNodeNames)
	a.ServerNodeNames = mergeList(a.ServerNodeNames, in.ServerNodeNames)
	a.mergeMeta(in.Meta)
}
