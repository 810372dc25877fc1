package adapter

import (
	"context"
	"strings"

	"graphsnap/internal/domain"
)

// NodeName identifies one live node by bare name and namespace.
type NodeName struct {
	Name      string `yaml:"name" json:"name"`
	Namespace string `yaml:"namespace" json:"namespace"`
}

// FullName returns the namespace-qualified node name.
func (n NodeName) FullName() string {
	if n.Namespace == "" || n.Namespace == "/" {
		return "/" + strings.TrimPrefix(n.Name, "/")
	}
	return strings.TrimSuffix(n.Namespace, "/") + "/" + strings.TrimPrefix(n.Name, "/")
}

// InterfaceInfo names one interface surface a node exposes, with the types
// declared for it. Multiple types on one name are possible and are
// resolved downstream.
type InterfaceInfo struct {
	Name  string   `yaml:"name" json:"name"`
	Types []string `yaml:"types" json:"types"`
}

// EndpointInfo is the verbose per-endpoint record delivered for a topic.
type EndpointInfo struct {
	NodeName string              `yaml:"node_name" json:"node_name"`
	Kind     domain.EndpointKind `yaml:"endpoint_type" json:"endpoint_type"`
	Type     string              `yaml:"topic_type" json:"topic_type"`
	TypeHash string              `yaml:"topic_type_hash,omitempty" json:"topic_type_hash,omitempty"`
	GID      string              `yaml:"gid,omitempty" json:"gid,omitempty"`
	QoS      domain.QoSProfile   `yaml:"qos_profile" json:"qos_profile"`
}

// ParameterInfo is one parameter observed on a node, with its declared
// type, decoded value, and descriptor text.
type ParameterInfo struct {
	Name        string `yaml:"name" json:"name"`
	Type        string `yaml:"type" json:"type"`
	Value       any    `yaml:"value,omitempty" json:"value,omitempty"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// GraphSource is the live-graph discovery collaborator. Implementations
// talk to the running middleware; the engine only consumes these records.
type GraphSource interface {
	// Nodes returns every node currently visible in the graph.
	Nodes(ctx context.Context) ([]NodeName, error)

	// PublishedTopics returns the topics node publishes.
	PublishedTopics(ctx context.Context, node NodeName) ([]InterfaceInfo, error)

	// SubscribedTopics returns the topics node subscribes to.
	SubscribedTopics(ctx context.Context, node NodeName) ([]InterfaceInfo, error)

	// ProvidedServices returns the services node serves.
	ProvidedServices(ctx context.Context, node NodeName) ([]InterfaceInfo, error)

	// ActionServers returns the actions node serves.
	ActionServers(ctx context.Context, node NodeName) ([]InterfaceInfo, error)

	// ActionClients returns the actions node calls.
	ActionClients(ctx context.Context, node NodeName) ([]InterfaceInfo, error)

	// TopicEndpoints returns the verbose endpoint records for one topic,
	// publishers and subscriptions alike.
	TopicEndpoints(ctx context.Context, topic string) ([]EndpointInfo, error)

	// ContainerNodes returns the subset of nodes that host loadable
	// components.
	ContainerNodes(ctx context.Context, nodes []NodeName) ([]NodeName, error)

	// ComponentsInContainer returns the full node names of the components
	// loaded into container.
	ComponentsInContainer(ctx context.Context, container NodeName) ([]string, error)

	// Parameters lists node's parameters with values and descriptors.
	// The call can block on an unresponsive node; callers bound it with
	// the context.
	Parameters(ctx context.Context, node NodeName) ([]ParameterInfo, error)
}

// ProcessRecord is one OS process classified as belonging to the inspected
// system. Reason names the heuristic that kept it.
type ProcessRecord struct {
	PID           int32    `yaml:"pid" json:"pid"`
	PPID          int32    `yaml:"ppid" json:"ppid"`
	Name          string   `yaml:"name" json:"name"`
	Cmdline       []string `yaml:"cmdline" json:"cmdline"`
	Exe           string   `yaml:"exe,omitempty" json:"exe,omitempty"`
	NumThreads    int32    `yaml:"num_threads" json:"num_threads"`
	MemoryInfo    string   `yaml:"memory_info,omitempty" json:"memory_info,omitempty"`
	MemoryPercent float32  `yaml:"memory_percent" json:"memory_percent"`
	CPUPercent    float64  `yaml:"cpu_percent" json:"cpu_percent"`
	Reason        string   `yaml:"reason" json:"reason"`
}

// ProcessSource is the OS process enumeration collaborator. A snapshot
// returns only graph-like processes; everything else is absent.
type ProcessSource interface {
	Snapshot(ctx context.Context) ([]ProcessRecord, error)
}
