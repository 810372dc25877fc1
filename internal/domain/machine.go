package domain

// Machine represents one host that nodes were resolved to.
type Machine struct {
	Meta `yaml:",inline"`

	Hostname  string   `yaml:"hostname,omitempty" json:"hostname,omitempty"`
	IPAddress string   `yaml:"ip_address,omitempty" json:"ip_address,omitempty"`
	NodeNames []string `yaml:"node_names,omitempty" json:"node_names,omitempty"`
}

// NewMachine returns an empty machine with the given name.
func NewMachine(name string) *Machine {
	return &Machine{Meta: Meta{Name: name}}
}

// Merge folds another observation of the same machine into m.
func (m *Machine) Merge(in *Machine) {
	mergeScalar(&m.Hostname, in.Hostname)
	mergeScalar(&m.IPAddress, in.IPAddress)
	m.NodeNames = mergeList(m.NodeNames, in.NodeNames)
	m.mergeMeta(in.Meta)
}
