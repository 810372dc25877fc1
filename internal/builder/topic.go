package builder

import (
	log "github.com/sirupsen/logrus"

	"graphsnap/internal/adapter"
	"graphsnap/internal/domain"
	"graphsnap/internal/filter"
)

// UnknownTopicType is recorded for topics that appear on a node but carry
// no type declaration in the graph.
const UnknownTopicType = "Error: Unknown Topic Name"

// TopicBuilder accumulates the attached nodes and endpoint details
// observed on one topic.
type TopicBuilder struct {
	entityBuilder

	nodes filter.Policy

	constructType string
	published     map[string]struct{}
	subscribed    map[string]struct{}
	endpoints     map[string]domain.TopicEndpoint
	topicHash     string
}

func newTopicBuilder(name string, nodes filter.Policy) *TopicBuilder {
	return &TopicBuilder{
		entityBuilder: newEntityBuilder(name),
		nodes:         nodes,
		published:     make(map[string]struct{}),
		subscribed:    make(map[string]struct{}),
		endpoints:     make(map[string]domain.TopicEndpoint),
	}
}

// ConstructType returns the topic's message type.
func (b *TopicBuilder) ConstructType() string { return b.constructType }

// SetConstructType overrides the topic's message type.
func (b *TopicBuilder) SetConstructType(constructType string) { b.constructType = constructType }

// AddNodeName records a node attached to the topic in the given role.
func (b *TopicBuilder) AddNodeName(nodeName string, role TopicRole) {
	if role == RoleSubscribed {
		b.subscribed[nodeName] = struct{}{}
		return
	}
	b.published[nodeName] = struct{}{}
}

// RecordEndpoint captures the verbose endpoint details one node reported
// for the topic. A later report for the same node replaces the earlier
// one, and the last non-empty type hash wins.
func (b *TopicBuilder) RecordEndpoint(info adapter.EndpointInfo) {
	b.endpoints[info.NodeName] = domain.TopicEndpoint{
		NodeName: info.NodeName,
		Kind:     info.Kind,
		QoS:      info.QoS,
		GID:      info.GID,
	}
	if info.TypeHash != "" {
		b.topicHash = info.TypeHash
	}
}

// PublisherNodeNames returns the publishing nodes that survive the node
// exclusion policy, sorted.
func (b *TopicBuilder) PublisherNodeNames() []string {
	return b.filteredNodeNames(b.published)
}

// SubscriberNodeNames returns the subscribing nodes that survive the node
// exclusion policy, sorted.
func (b *TopicBuilder) SubscriberNodeNames() []string {
	return b.filteredNodeNames(b.subscribed)
}

func (b *TopicBuilder) filteredNodeNames(set map[string]struct{}) []string {
	var names []string
	for _, name := range sortedSet(set) {
		if b.nodes.ShouldFilterOut(name) {
			continue
		}
		names = append(names, name)
	}
	return names
}

// Extract materializes the topic entity from the accumulated state.
func (b *TopicBuilder) Extract() *domain.Topic {
	topic := domain.NewTopic(b.name)
	topic.Source = domain.SourceSnapshot
	topic.ConstructType = b.constructType
	topic.PublisherNodeNames = b.PublisherNodeNames()
	topic.SubscriberNodeNames = b.SubscriberNodeNames()
	topic.TopicHash = b.topicHash
	if len(b.endpoints) > 0 {
		topic.Endpoints = b.endpoints
	}
	return topic
}

// TopicBankBuilder collects the topic builders of one session and owns the
// graph's topic type declarations.
type TopicBankBuilder struct {
	builderMap[*TopicBuilder]

	topicTypes []adapter.InterfaceInfo
	filters    *filter.Set
}

// NewTopicBankBuilder returns an empty topic bank builder over the given
// type declarations.
func NewTopicBankBuilder(topicTypes []adapter.InterfaceInfo, filters *filter.Set) *TopicBankBuilder {
	return &TopicBankBuilder{topicTypes: topicTypes, filters: filters}
}

// Get returns the builder for name, creating one with its declared type
// on first use.
func (bb *TopicBankBuilder) Get(name string) *TopicBuilder {
	return bb.get(name, func(name string) *TopicBuilder {
		tb := newTopicBuilder(name, bb.filters.Nodes)
		tb.constructType = bb.findTopicType(name)
		return tb
	})
}

// findTopicType returns the declared message type for a topic name. A
// topic declared with multiple types keeps the first and logs the
// conflict; a name with no declaration at all gets an error sentinel.
func (bb *TopicBankBuilder) findTopicType(name string) string {
	for _, tt := range bb.topicTypes {
		if tt.Name != name {
			continue
		}
		if len(tt.Types) == 0 {
			return ""
		}
		if len(tt.Types) > 1 {
			log.WithFields(log.Fields{"topic": name, "types": tt.Types}).Warn("topic declared with multiple types")
		}
		return tt.Types[0]
	}
	return UnknownTopicType
}

// Prepare drops topics excluded by the topic name policy.
func (bb *TopicBankBuilder) Prepare() {
	bb.filter(func(name string, _ *TopicBuilder) bool {
		return bb.filters.Topics.ShouldFilterOut(name)
	})
}

// RemoveActionTopicBuilders drops topics that were absorbed into an
// action.
func (bb *TopicBankBuilder) RemoveActionTopicBuilders(topicBuilders []*TopicBuilder) {
	for _, tb := range topicBuilders {
		bb.Remove(tb.Name())
	}
}

// Extract materializes the topic bank from the surviving builders.
func (bb *TopicBankBuilder) Extract() *domain.Bank[*domain.Topic] {
	bank := domain.NewBank(domain.BankTopic, domain.NewTopic)
	bb.Each(func(_ string, tb *TopicBuilder) { bank.Put(tb.Extract()) })
	return bank
}
