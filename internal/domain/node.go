package domain

// NodeVariant tags the closed set of shapes a deployment node can take.
type NodeVariant string

const (
	// NodeVariantPlain is a node running in its own process.
	NodeVariantPlain NodeVariant = "plain"
	// NodeVariantComponent is a node loaded into a container process.
	NodeVariantComponent NodeVariant = "component"
	// NodeVariantComponentManager is the container node hosting components.
	NodeVariantComponentManager NodeVariant = "component_manager"
)

// Node represents one logical node observed in the computation graph,
// together with the OS process telemetry resolved for it. Telemetry fields
// hold formatted values, or a sentinel string when no process could be
// matched.
type Node struct {
	Meta `yaml:",inline"`

	Variant        NodeVariant `yaml:"variant,omitempty" json:"variant,omitempty"`
	ShortName      string      `yaml:"node,omitempty" json:"node,omitempty"`
	Namespace      string      `yaml:"namespace,omitempty" json:"namespace,omitempty"`
	ExecutableName string      `yaml:"executable_name,omitempty" json:"executable_name,omitempty"`
	ExecutableFile string      `yaml:"executable_file,omitempty" json:"executable_file,omitempty"`
	Cmdline        []string    `yaml:"cmdline,omitempty" json:"cmdline,omitempty"`

	NumThreads    string `yaml:"num_threads,omitempty" json:"num_threads,omitempty"`
	CPUPercent    string `yaml:"cpu_percent,omitempty" json:"cpu_percent,omitempty"`
	MemoryPercent string `yaml:"memory_percent,omitempty" json:"memory_percent,omitempty"`
	MemoryInfo    string `yaml:"memory_info,omitempty" json:"memory_info,omitempty"`

	ActionServers        []string `yaml:"action_servers,omitempty" json:"action_servers,omitempty"`
	ActionClients        []string `yaml:"action_clients,omitempty" json:"action_clients,omitempty"`
	PublishedTopicNames  []string `yaml:"published_topic_names,omitempty" json:"published_topic_names,omitempty"`
	SubscribedTopicNames []string `yaml:"subscribed_topic_names,omitempty" json:"subscribed_topic_names,omitempty"`
	ProvidedServices     []string `yaml:"provided_services,omitempty" json:"provided_services,omitempty"`
	ParameterNames       []string `yaml:"parameter_names,omitempty" json:"parameter_names,omitempty"`

	// ManagerNodeName is set only on the component variant.
	ManagerNodeName string `yaml:"manager_node_name,omitempty" json:"manager_node_name,omitempty"`
	// Components is set only on the component manager variant.
	Components []string `yaml:"components,omitempty" json:"components,omitempty"`
}

// NewNode returns a plain node with the given full name.
func NewNode(name string) *Node {
	return &Node{
		Meta:    Meta{Name: name},
		Variant: NodeVariantPlain,
	}
}

// Merge folds another observation of the same node into n.
func (n *Node) Merge(in *Node) {
	mergeScalar(&n.Variant, in.Variant)
	mergeScalar(&n.ShortName, in.ShortName)
	mergeScalar(&n.Namespace, in.Namespace)
	mergeScalar(&n.ExecutableName, in.ExecutableName)
	mergeScalar(&n.ExecutableFile, in.ExecutableFile)
	n.Cmdline = mergeList(n.Cmdline, in.Cmdline)
	mergeScalar(&n.NumThreads, in.NumThreads)
	mergeScalar(&n.CPUPercent, in.CPUPercent)
	mergeScalar(&n.MemoryPercent, in.MemoryPercent)
	mergeScalar(&n.MemoryInfo, in.MemoryInfo)
	n.ActionServers = mergeList(n.ActionServers, in.ActionServers)
	n.ActionClients = mergeList(n.ActionClients, in.ActionClients)
	n.PublishedTopicNames = mergeList(n.PublishedTopicNames, in.PublishedTopicNames)
	n.SubscribedTopicNames = mergeList(n.SubscribedTopicNames, in.SubscribedTopicNames)
	n.ProvidedServices = mergeList(n.ProvidedServices, in.ProvidedServices)
	n.ParameterNames = mergeList(n.ParameterNames, in.ParameterNames)
	mergeScalar(&n.ManagerNodeName, in.ManagerNodeName)
	n.Components = mergeList(n.Components, in.Components)
	n.mergeMeta(in.Meta)
}
