package domain

// EndpointKind labels the role a node's endpoint plays on a topic, as
// reported by the live graph.
type EndpointKind string

const (
	EndpointPublisher    EndpointKind = "PUBLISHER"
	EndpointSubscription EndpointKind = "SUBSCRIPTION"
	EndpointClient       EndpointKind = "CLIENT"
	EndpointServer       EndpointKind = "SERVER"
	EndpointUnknown      EndpointKind = "UNKNOWN"
)

// QoSProfile is the quality-of-service snapshot captured for one endpoint.
type QoSProfile struct {
	Durability              string `yaml:"durability,omitempty" json:"durability,omitempty"`
	Deadline                string `yaml:"deadline,omitempty" json:"deadline,omitempty"`
	Liveliness              string `yaml:"liveliness,omitempty" json:"liveliness,omitempty"`
	LivelinessLeaseDuration string `yaml:"liveliness_lease_duration,omitempty" json:"liveliness_lease_duration,omitempty"`
	Reliability             string `yaml:"reliability,omitempty" json:"reliability,omitempty"`
	Lifespan                string `yaml:"lifespan,omitempty" json:"lifespan,omitempty"`
	History                 string `yaml:"history,omitempty" json:"history,omitempty"`
	Depth                   int    `yaml:"depth,omitempty" json:"depth,omitempty"`
}

// TopicEndpoint records one node's verbose endpoint information on a
// topic.
type TopicEndpoint struct {
	NodeName string       `yaml:"node_name" json:"node_name"`
	Kind     EndpointKind `yaml:"endpoint_type" json:"endpoint_type"`
	QoS      QoSProfile   `yaml:"qos_profile" json:"qos_profile"`
	GID      string       `yaml:"gid,omitempty" json:"gid,omitempty"`
}

// Topic represents one observed topic with the nodes attached to it.
type Topic struct {
	Meta `yaml:",inline"`

	ConstructType       string                   `yaml:"construct_type,omitempty" json:"construct_type,omitempty"`
	PublisherNodeNames  []string                 `yaml:"publisher_node_names,omitempty" json:"publisher_node_names,omitempty"`
	SubscriberNodeNames []string                 `yaml:"subscriber_node_names,omitempty" json:"subscriber_node_names,omitempty"`
	TopicHash           string                   `yaml:"topic_hash,omitempty" json:"topic_hash,omitempty"`
	Endpoints           map[string]TopicEndpoint `yaml:"endpoints,omitempty" json:"endpoints,omitempty"`
}

// NewTopic returns an empty topic with the given full name.
func NewTopic(name string) *Topic {
	return &Topic{Meta: Meta{Name: name}}
}

// Merge folds another observation of the same topic into t.
func (t *Topic) Merge(in *Topic) {
	mergeScalar(&t.ConstructType, in.ConstructType)
	t.PublisherNodeNames = mergeList(t.PublisherNodeNames, in.PublisherNodeNames)
	t.SubscriberNodeNames = mergeList(t.SubscriberNodeNames, in.SubscriberNodeNames)
	mergeScalar(&t.TopicHash, in.TopicHash)
	t.Endpoints = mergeTokens(t.Endpoints, in.Endpoints)
	t.mergeMeta(in.Meta)
}
