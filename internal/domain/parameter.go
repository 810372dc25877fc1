package domain

// Parameter represents one parameter observed on a node. Value holds the
// decoded parameter value as delivered by the live graph.
type Parameter struct {
	Meta `yaml:",inline"`

	ValueType   string `yaml:"value_type,omitempty" json:"value_type,omitempty"`
	Value       any    `yaml:"value,omitempty" json:"value,omitempty"`
	NodeName    string `yaml:"node,omitempty" json:"node,omitempty"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// NewParameter returns an empty parameter with the given full name.
func NewParameter(name string) *Parameter {
	return &Parameter{Meta: Meta{Name: name}}
}

// Merge folds another observation of the same parameter into p.
func (p *Parameter) Merge(in *Parameter) {
	mergeScalar(&p.ValueType, in.ValueType)
	if in.Value != nil {
		p.Value = in.Value
	}
	mergeScalar(&p.NodeName, in.NodeName)
	mergeScalar(&p.Description, in.Description)
	p.mergeMeta(in.Meta)
}
