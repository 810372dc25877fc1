package builder

import (
	"slices"
	"sort"
	"strings"

	log "github.com/sirupsen/logrus"

	"graphsnap/internal/domain"
)

// The topic suffixes that make up one action exchange. Clients publish the
// goal and cancel topics and subscribe to the rest; servers do the
// reverse.
var (
	ClientPublishedTopicSuffixes = []string{"/cancel", "/goal"}
	ServerPublishedTopicSuffixes = []string{"/feedback", "/result", "/status"}
)

// NumTopicSuffixes is the size of the full action topic set.
const NumTopicSuffixes = 5

// coreTopicSuffixToTypeToken maps the suffixes every action must carry to
// the trailing token expected on their topic types.
var coreTopicSuffixToTypeToken = map[string]string{
	"/feedback": "Feedback",
	"/goal":     "Goal",
	"/result":   "Result",
}

// IsActionTopicSuffix reports whether suffix belongs to the action topic
// set.
func IsActionTopicSuffix(suffix string) bool {
	return slices.Contains(ClientPublishedTopicSuffixes, suffix) ||
		slices.Contains(ServerPublishedTopicSuffixes, suffix)
}

// ActionBuilder accumulates one action's participants, either from direct
// graph discovery or from the suffix-matched topics that carry it.
type ActionBuilder struct {
	entityBuilder

	constructType string
	clients       []string
	servers       []string

	topicBuilders   map[string]*TopicBuilder
	suffixToBuilder map[string]*TopicBuilder
}

func newActionBuilder(name string) *ActionBuilder {
	return &ActionBuilder{
		entityBuilder:   newEntityBuilder(name),
		topicBuilders:   make(map[string]*TopicBuilder),
		suffixToBuilder: make(map[string]*TopicBuilder),
	}
}

// SetInfo records the participants and type reported by direct graph
// discovery.
func (b *ActionBuilder) SetInfo(clients, servers, types []string) {
	b.clients = dedupeSorted(clients)
	b.servers = dedupeSorted(servers)
	if len(types) == 0 {
		return
	}
	sorted := dedupeSorted(types)
	if len(sorted) > 1 {
		log.WithFields(log.Fields{"action": b.name, "types": sorted}).Warn("action reported with multiple types")
	}
	b.constructType = sorted[0]
}

// ConstructType returns the action's type.
func (b *ActionBuilder) ConstructType() string { return b.constructType }

// AddTopicBuilder attaches one of the action's underlying topics, indexed
// by both full name and suffix.
func (b *ActionBuilder) AddTopicBuilder(tb *TopicBuilder) {
	b.topicBuilders[tb.Name()] = tb
	b.suffixToBuilder[tb.NameSuffix()] = tb
}

// Topics returns the attached topic builders sorted by name.
func (b *ActionBuilder) Topics() []*TopicBuilder {
	out := make([]*TopicBuilder, 0, len(b.topicBuilders))
	for _, name := range sortedKeys(b.topicBuilders) {
		out = append(out, b.topicBuilders[name])
	}
	return out
}

// Valid reports whether the attached topics plausibly form one action: at
// least three distinct suffixes, all drawn from the action topic set, with
// the goal, result, and feedback topics typed as the action's messages.
func (b *ActionBuilder) Valid() bool {
	found := make(map[string]struct{}, len(b.topicBuilders))
	for _, tb := range b.topicBuilders {
		if !IsActionTopicSuffix(tb.NameSuffix()) {
			log.WithFields(log.Fields{"action": b.name, "topic": tb.Name()}).Debug("unexpected topic suffix for action")
			return false
		}
		found[tb.NameSuffix()] = struct{}{}
	}
	if len(found) < 3 {
		return false
	}
	for suffix, token := range coreTopicSuffixToTypeToken {
		tb, ok := b.suffixToBuilder[suffix]
		if !ok {
			return false
		}
		if !strings.HasSuffix(tb.ConstructType(), "Action"+token) {
			log.WithFields(log.Fields{
				"action": b.name,
				"topic":  tb.Name(),
				"type":   tb.ConstructType(),
			}).Debug("action topic type mismatch")
			return false
		}
	}
	return true
}

// ResolveRolesFromTopics classifies the participating nodes. A node earns
// a role only by appearing on every one of that role's topics across the
// full suffix set; partial participants are logged and dropped.
func (b *ActionBuilder) ResolveRolesFromTopics() {
	b.clients = b.roleNames(ClientPublishedTopicSuffixes, ServerPublishedTopicSuffixes)
	b.servers = b.roleNames(ServerPublishedTopicSuffixes, ClientPublishedTopicSuffixes)
}

func (b *ActionBuilder) roleNames(pubSuffixes, subSuffixes []string) []string {
	counts := make(map[string]int)
	for _, suffix := range pubSuffixes {
		if tb, ok := b.suffixToBuilder[suffix]; ok {
			for _, name := range tb.PublisherNodeNames() {
				counts[name]++
			}
		}
	}
	for _, suffix := range subSuffixes {
		if tb, ok := b.suffixToBuilder[suffix]; ok {
			for _, name := range tb.SubscriberNodeNames() {
				counts[name]++
			}
		}
	}
	var names []string
	for name, count := range counts {
		if count == NumTopicSuffixes {
			names = append(names, name)
			continue
		}
		log.WithFields(log.Fields{
			"action": b.name,
			"node":   name,
			"count":  count,
			"of":     NumTopicSuffixes,
		}).Error("node does not participate in the full action topic set")
	}
	sort.Strings(names)
	return names
}

// deriveConstructType takes the action type from the goal topic, whose
// message type is the action name plus "Goal".
func (b *ActionBuilder) deriveConstructType() {
	if b.constructType != "" {
		return
	}
	if tb, ok := b.suffixToBuilder["/goal"]; ok {
		b.constructType = strings.TrimSuffix(tb.ConstructType(), "Goal")
	}
}

// ClientNodeNames returns the action's client nodes, sorted.
func (b *ActionBuilder) ClientNodeNames() []string { return b.clients }

// ServerNodeNames returns the action's server nodes, sorted.
func (b *ActionBuilder) ServerNodeNames() []string { return b.servers }

// Extract materializes the action entity from the accumulated state.
func (b *ActionBuilder) Extract() *domain.Action {
	action := domain.NewAction(b.name)
	action.Source = domain.SourceSnapshot
	action.ConstructType = b.constructType
	action.ClientNodeNames = b.clients
	action.ServerNodeNames = b.servers
	return action
}

// ActionBankBuilder collects the action builders of one session.
type ActionBankBuilder struct {
	builderMap[*ActionBuilder]
}

// NewActionBankBuilder returns an empty action bank builder.
func NewActionBankBuilder() *ActionBankBuilder {
	return &ActionBankBuilder{}
}

// Get returns the builder for name, creating one on first use.
func (bb *ActionBankBuilder) Get(name string) *ActionBuilder {
	return bb.get(name, newActionBuilder)
}

// Prepare is part of the bank builder surface. Actions carry no exclusion
// policy.
func (bb *ActionBankBuilder) Prepare() {}

// DiscoverFromTopics groups suffix-matched standalone topics into action
// candidates. Each accepted action absorbs its topics out of the topic
// bank and rewrites the participating node builders from plain topic
// attachments to action roles. Actions already known from direct
// discovery are left untouched.
func (bb *ActionBankBuilder) DiscoverFromTopics(topics *TopicBankBuilder, nodes *NodeBankBuilder) {
	grouped := make(map[string][]*TopicBuilder)
	topics.Each(func(_ string, tb *TopicBuilder) {
		if tb.NameBase() == "" || !IsActionTopicSuffix(tb.NameSuffix()) {
			return
		}
		grouped[tb.NameBase()] = append(grouped[tb.NameBase()], tb)
	})

	for _, base := range sortedKeys(grouped) {
		members := grouped[base]
		if len(members) < 3 {
			continue
		}
		if _, exists := bb.Lookup(base); exists {
			continue
		}
		candidate := newActionBuilder(base)
		for _, tb := range members {
			candidate.AddTopicBuilder(tb)
		}
		if !candidate.Valid() {
			log.WithFields(log.Fields{"action": base, "topics": len(members)}).Debug("rejecting action candidate")
			continue
		}
		candidate.deriveConstructType()
		candidate.ResolveRolesFromTopics()
		bb.Put(candidate)
		topics.RemoveActionTopicBuilders(candidate.Topics())
		rewriteNodeTopics(candidate, nodes)
		log.WithFields(log.Fields{"action": base, "type": candidate.ConstructType()}).Debug("grouped topics into action")
	}
}

// rewriteNodeTopics moves each participant's suffixed topics out of its
// plain attachment records and registers the action role instead.
func rewriteNodeTopics(action *ActionBuilder, nodes *NodeBankBuilder) {
	for _, tb := range action.Topics() {
		for _, nodeName := range tb.PublisherNodeNames() {
			if nb, ok := nodes.Lookup(nodeName); ok {
				nb.RemoveTopicName(tb.Name(), RolePublished)
			}
		}
		for _, nodeName := range tb.SubscriberNodeNames() {
			if nb, ok := nodes.Lookup(nodeName); ok {
				nb.RemoveTopicName(tb.Name(), RoleSubscribed)
			}
		}
	}
	for _, client := range action.ClientNodeNames() {
		if nb, ok := nodes.Lookup(client); ok {
			nb.AddActionClient(action.Name())
		}
	}
	for _, server := range action.ServerNodeNames() {
		if nb, ok := nodes.Lookup(server); ok {
			nb.AddActionServer(action.Name())
		}
	}
}

// Extract materializes the action bank from the accumulated builders.
func (bb *ActionBankBuilder) Extract() *domain.Bank[*domain.Action] {
	bank := domain.NewBank(domain.BankAction, domain.NewAction)
	bb.Each(func(_ string, ab *ActionBuilder) { bank.Put(ab.Extract()) })
	return bank
}

func dedupeSorted(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := append([]string{}, in...)
	sort.Strings(out)
	return slices.Compact(out)
}
