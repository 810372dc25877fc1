package adapter

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Fixture describes a recorded graph for replay. Fixtures back tests and
// offline development runs where no live middleware is available.
type Fixture struct {
	Nodes  []FixtureNode  `yaml:"nodes"`
	Topics []FixtureTopic `yaml:"topics"`
}

// FixtureNode is one node's recorded discovery answers.
type FixtureNode struct {
	Name             string          `yaml:"name"`
	Namespace        string          `yaml:"namespace"`
	PublishedTopics  []InterfaceInfo `yaml:"published_topics,omitempty"`
	SubscribedTopics []InterfaceInfo `yaml:"subscribed_topics,omitempty"`
	ProvidedServices []InterfaceInfo `yaml:"provided_services,omitempty"`
	ActionServers    []InterfaceInfo `yaml:"action_servers,omitempty"`
	ActionClients    []InterfaceInfo `yaml:"action_clients,omitempty"`
	Parameters       []ParameterInfo `yaml:"parameters,omitempty"`

	// Components lists the full node names loaded into this node's
	// container. A non-empty list marks the node as a container.
	Components []string `yaml:"components,omitempty"`

	// ParametersHang simulates a node whose parameter services never
	// answer; Parameters then blocks until the context is cancelled.
	ParametersHang bool `yaml:"parameters_hang,omitempty"`
}

// FixtureTopic is one topic's recorded verbose endpoint records.
type FixtureTopic struct {
	Name      string         `yaml:"name"`
	Endpoints []EndpointInfo `yaml:"endpoints,omitempty"`
}

// StaticSource replays a Fixture through the GraphSource interface.
type StaticSource struct {
	order  []NodeName
	nodes  map[string]FixtureNode
	topics map[string][]EndpointInfo
}

// NewStaticSource indexes a fixture for replay.
func NewStaticSource(f Fixture) *StaticSource {
	s := &StaticSource{
		nodes:  make(map[string]FixtureNode, len(f.Nodes)),
		topics: make(map[string][]EndpointInfo, len(f.Topics)),
	}
	for _, n := range f.Nodes {
		id := NodeName{Name: n.Name, Namespace: n.Namespace}
		s.order = append(s.order, id)
		s.nodes[id.FullName()] = n
	}
	for _, t := range f.Topics {
		s.topics[t.Name] = t.Endpoints
	}
	return s
}

// LoadStaticSource reads a YAML fixture file.
func LoadStaticSource(path string) (*StaticSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture: %w", err)
	}
	return NewStaticSource(f), nil
}

// Nodes returns the fixture nodes in recorded order.
func (s *StaticSource) Nodes(ctx context.Context) ([]NodeName, error) {
	return append([]NodeName{}, s.order...), nil
}

// PublishedTopics returns the recorded publications for node.
func (s *StaticSource) PublishedTopics(ctx context.Context, node NodeName) ([]InterfaceInfo, error) {
	return s.nodes[node.FullName()].PublishedTopics, nil
}

// SubscribedTopics returns the recorded subscriptions for node.
func (s *StaticSource) SubscribedTopics(ctx context.Context, node NodeName) ([]InterfaceInfo, error) {
	return s.nodes[node.FullName()].SubscribedTopics, nil
}

// ProvidedServices returns the recorded services for node.
func (s *StaticSource) ProvidedServices(ctx context.Context, node NodeName) ([]InterfaceInfo, error) {
	return s.nodes[node.FullName()].ProvidedServices, nil
}

// ActionServers returns the recorded action servers for node.
func (s *StaticSource) ActionServers(ctx context.Context, node NodeName) ([]InterfaceInfo, error) {
	return s.nodes[node.FullName()].ActionServers, nil
}

// ActionClients returns the recorded action clients for node.
func (s *StaticSource) ActionClients(ctx context.Context, node NodeName) ([]InterfaceInfo, error) {
	return s.nodes[node.FullName()].ActionClients, nil
}

// TopicEndpoints returns the recorded verbose endpoints for topic.
func (s *StaticSource) TopicEndpoints(ctx context.Context, topic string) ([]EndpointInfo, error) {
	return s.topics[topic], nil
}

// ContainerNodes returns the fixture nodes recorded with components.
func (s *StaticSource) ContainerNodes(ctx context.Context, nodes []NodeName) ([]NodeName, error) {
	var containers []NodeName
	for _, node := range nodes {
		if len(s.nodes[node.FullName()].Components) > 0 {
			containers = append(containers, node)
		}
	}
	return containers, nil
}

// ComponentsInContainer returns the recorded component names for container.
func (s *StaticSource) ComponentsInContainer(ctx context.Context, container NodeName) ([]string, error) {
	return s.nodes[container.FullName()].Components, nil
}

// Parameters returns the recorded parameters for node, or blocks until
// cancellation when the fixture marks the node as hanging.
func (s *StaticSource) Parameters(ctx context.Context, node NodeName) ([]ParameterInfo, error) {
	n := s.nodes[node.FullName()]
	if n.ParametersHang {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return n.Parameters, nil
}
