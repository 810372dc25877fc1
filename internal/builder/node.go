package builder

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"graphsnap/internal/adapter"
	"graphsnap/internal/domain"
	"graphsnap/internal/filter"
)

// TopicRole distinguishes the two directions a node attaches to a topic.
type TopicRole string

const (
	RolePublished  TopicRole = "published"
	RoleSubscribed TopicRole = "subscribed"
)

// NodeBuilder accumulates everything observed about one logical node: the
// graph interfaces attached to it, the OS process resolved for it, and its
// component relationships.
type NodeBuilder struct {
	entityBuilder

	arena    *ProcessArena
	filters  *filter.Set
	hostname string

	shortName string
	namespace string

	allTopics  map[string]string
	published  map[string]string
	subscribed map[string]string
	topicTypes map[string]string

	serviceTypes map[string]string
	serviceNames []string

	parameterNames []string
	actionClients  map[string]struct{}
	actionServers  map[string]struct{}

	variant     domain.NodeVariant
	managerName string
	components  []string

	noGuess  bool
	proc     *ProcessCandidate
	procDone bool
}

func newNodeBuilder(name string, arena *ProcessArena, filters *filter.Set, hostname string) *NodeBuilder {
	return &NodeBuilder{
		entityBuilder: newEntityBuilder(name),
		arena:         arena,
		filters:       filters,
		hostname:      hostname,
		allTopics:     make(map[string]string),
		published:     make(map[string]string),
		subscribed:    make(map[string]string),
		topicTypes:    make(map[string]string),
		serviceTypes:  make(map[string]string),
		actionClients: make(map[string]struct{}),
		actionServers: make(map[string]struct{}),
		variant:       domain.NodeVariantPlain,
	}
}

// AddInfo records the node's short name and namespace and attempts a first
// conservative pass at process resolution. Ambiguities are left for the
// prepare phase, when every other node has had the same chance to claim
// its process.
func (b *NodeBuilder) AddInfo(node adapter.NodeName) {
	b.shortName = node.Name
	b.namespace = node.Namespace
	log.WithFields(log.Fields{
		"name":      b.name,
		"namespace": b.namespace,
		"node":      b.shortName,
	}).Debug("adding node info")
	if _, ok := b.ResolvePID(b.namespace, b.shortName, false); !ok {
		log.WithField("node", b.name).Debug("no definitive process match on first pass")
	}
}

// Prepare resolves the node's process, guessing among leftover candidates
// if the first pass was ambiguous.
func (b *NodeBuilder) Prepare() {
	log.WithField("node", b.name).Debug("preparing node builder")
	b.ExecutableFile()
}

// ShortName returns the node name without its namespace.
func (b *NodeBuilder) ShortName() string { return b.shortName }

// SetShortName rewrites the node's short name, keeping the builder under
// its original full name. Reconciliation uses this to normalize a node to
// the name its specification carries.
func (b *NodeBuilder) SetShortName(name string) {
	if name == b.shortName {
		return
	}
	log.WithFields(log.Fields{"node": b.name, "from": b.shortName, "to": name}).Info("renaming node")
	b.shortName = name
}

// Namespace returns the node's namespace, "/" for the root.
func (b *NodeBuilder) Namespace() string { return b.namespace }

// Machine returns the hostname of the machine the node was observed on.
func (b *NodeBuilder) Machine() string { return b.hostname }

// AddTopicName attaches a published or subscribed topic to the node.
// Excluded topic names are dropped before they reach the builder state.
func (b *NodeBuilder) AddTopicName(topicName string, role TopicRole, topicType, remap string) {
	if b.filters.Topics.ShouldFilterOut(topicName) {
		return
	}
	b.allTopics[topicName] = remap
	b.roleTopics(role)[topicName] = remap
	b.topicTypes[topicName] = topicType
}

// RemoveTopicName detaches a topic from one role while keeping its record
// in the all-topics view. Action grouping uses this when it absorbs a
// topic into an action.
func (b *NodeBuilder) RemoveTopicName(topicName string, role TopicRole) {
	delete(b.roleTopics(role), topicName)
}

func (b *NodeBuilder) roleTopics(role TopicRole) map[string]string {
	if role == RoleSubscribed {
		return b.subscribed
	}
	return b.published
}

// AddServiceNameAndType attaches a provided service unless its type is
// excluded.
func (b *NodeBuilder) AddServiceNameAndType(serviceName, serviceType string) {
	if b.filters.ServiceTypes.ShouldFilterOut(serviceType) {
		return
	}
	b.serviceTypes[serviceName] = serviceType
}

// AddParameterName records a parameter owned by the node.
func (b *NodeBuilder) AddParameterName(parameterName string) {
	b.parameterNames = append(b.parameterNames, parameterName)
}

// AddActionClient records the node as a client of the named action.
func (b *NodeBuilder) AddActionClient(actionName string) {
	b.actionClients[actionName] = struct{}{}
}

// AddActionServer records the node as a server of the named action.
func (b *NodeBuilder) AddActionServer(actionName string) {
	b.actionServers[actionName] = struct{}{}
}

// MarkComponentManager tags the node as a container hosting components.
func (b *NodeBuilder) MarkComponentManager() {
	b.variant = domain.NodeVariantComponentManager
}

// MarkComponent tags the node as loaded into managerName's container.
func (b *NodeBuilder) MarkComponent(managerName string) {
	b.variant = domain.NodeVariantComponent
	b.managerName = managerName
	log.WithFields(log.Fields{"node": b.name, "manager": managerName}).Info("node is a component")
}

// SetComponents records the component node names hosted by a manager.
func (b *NodeBuilder) SetComponents(components []string) {
	b.components = components
}

// PublishedTopicNames returns the node's published topics, sorted.
func (b *NodeBuilder) PublishedTopicNames() []string { return sortedKeys(b.published) }

// SubscribedTopicNames returns the node's subscribed topics, sorted.
func (b *NodeBuilder) SubscribedTopicNames() []string { return sortedKeys(b.subscribed) }

// AllTopicNames returns every topic ever attached to the node, including
// ones later absorbed into actions, mapped to their remap names.
func (b *NodeBuilder) AllTopicNames() map[string]string { return b.allTopics }

// TopicType returns the recorded type of an attached topic.
func (b *NodeBuilder) TopicType(topicName string) string { return b.topicTypes[topicName] }

// ServiceNamesWithRemap returns the provided service names, frozen in
// sorted order on first call.
func (b *NodeBuilder) ServiceNamesWithRemap() []string {
	if b.serviceNames == nil {
		b.serviceNames = sortedKeys(b.serviceTypes)
	}
	return b.serviceNames
}

// ParameterNames returns the node's parameters in recorded order.
func (b *NodeBuilder) ParameterNames() []string { return b.parameterNames }

// ActionClients returns the actions the node is a client of, sorted.
func (b *NodeBuilder) ActionClients() []string { return sortedSet(b.actionClients) }

// ActionServers returns the actions the node serves, sorted.
func (b *NodeBuilder) ActionServers() []string { return sortedSet(b.actionServers) }

func (b *NodeBuilder) unknownField(key string) string {
	return fmt.Sprintf("Unknown '%s' for '%s'", key, b.name)
}

// ensureProcess runs the guessing resolution pass at most once.
func (b *NodeBuilder) ensureProcess() {
	if b.proc != nil || b.procDone {
		return
	}
	b.procDone = true
	if _, ok := b.ResolvePID(b.namespace, b.shortName, !b.noGuess); !ok {
		log.WithFields(log.Fields{"node": b.name, "namespace": b.namespace}).Debug("no process resolved for node")
	}
}

// ExecutableFile returns the resolved executable path, or a sentinel when
// no process matched the node.
func (b *NodeBuilder) ExecutableFile() string {
	b.ensureProcess()
	if b.proc == nil {
		return b.unknownField("exe")
	}
	return b.proc.Record.Exe
}

// ExecutableName returns the resolved process name, or a sentinel.
func (b *NodeBuilder) ExecutableName() string {
	b.ensureProcess()
	if b.proc == nil {
		return b.unknownField("name")
	}
	return b.proc.Record.Name
}

// Cmdline returns the resolved process command line, or nil when no
// process matched.
func (b *NodeBuilder) Cmdline() []string {
	b.ensureProcess()
	if b.proc == nil {
		return nil
	}
	return b.proc.Record.Cmdline
}

// NumThreads returns the resolved thread count as text, or a sentinel.
func (b *NodeBuilder) NumThreads() string {
	b.ensureProcess()
	if b.proc == nil {
		return b.unknownField("num_threads")
	}
	return strconv.Itoa(int(b.proc.Record.NumThreads))
}

// CPUPercent returns the resolved CPU usage as text, or a sentinel.
func (b *NodeBuilder) CPUPercent() string {
	b.ensureProcess()
	if b.proc == nil {
		return b.unknownField("cpu_percent")
	}
	return strconv.FormatFloat(b.proc.Record.CPUPercent, 'f', -1, 64)
}

// MemoryPercent returns the resolved memory share as text, or a sentinel.
func (b *NodeBuilder) MemoryPercent() string {
	b.ensureProcess()
	if b.proc == nil {
		return b.unknownField("memory_percent")
	}
	return strconv.FormatFloat(float64(b.proc.Record.MemoryPercent), 'f', -1, 32)
}

// MemoryInfo returns the resolved memory summary, or a sentinel.
func (b *NodeBuilder) MemoryInfo() string {
	b.ensureProcess()
	if b.proc == nil {
		return b.unknownField("memory_info")
	}
	return b.proc.Record.MemoryInfo
}

// PID returns the resolved process id, if any.
func (b *NodeBuilder) PID() (int32, bool) {
	b.ensureProcess()
	if b.proc == nil {
		return 0, false
	}
	return b.proc.Record.PID, true
}

// ResolvePID matches the node against the arena and claims at most one
// process for it. The conservative pass (guess false) refuses to pick
// among multiple leftover candidates; the guessing pass takes the one
// with the lowest pid. The chosen candidate is marked assigned so later
// resolutions for other nodes skip it.
func (b *NodeBuilder) ResolvePID(namespace, nodeName string, guess bool) (int32, bool) {
	if b.proc != nil {
		return b.proc.Record.PID, true
	}
	if b.arena == nil || nodeName == "" {
		return 0, false
	}
	nodeParts := strings.Split(nodeName, "_")

	var candidates []*ProcessCandidate
	b.arena.Each(func(c *ProcessCandidate) {
		if len(c.Record.Cmdline) == 0 {
			log.WithField("pid", c.Record.PID).Debug("skipping process without a command line")
			return
		}
		foundNS := namespace == "/"
		foundName := c.Record.Name == nodeName
		if !foundNS || !foundName {
			for _, cmd := range c.Record.Cmdline {
				lastCmd := cmd[strings.LastIndexByte(cmd, '/')+1:]
				if strings.Contains(cmd, "__ns:="+namespace) {
					foundNS = true
				}
				if strings.Contains(lastCmd, nodeName) {
					foundName = true
					continue
				}
				cmdParts := strings.Split(lastCmd, "_")
				if tokenOverlap(nodeParts, lastCmd) && tokenOverlap(cmdParts, nodeName) {
					foundName = true
				}
			}
		}
		if foundNS && foundName {
			candidates = append(candidates, c)
		}
	})

	if len(candidates) == 0 {
		log.WithFields(log.Fields{"node": nodeName, "namespace": namespace}).Warn("no process found for node")
		return 0, false
	}

	chosen := candidates[0]
	if len(candidates) > 1 {
		log.WithFields(log.Fields{"node": nodeName, "candidates": len(candidates)}).Debug("multiple potential processes for node")
		remaining := pruneParents(candidates)
		remaining, ignored := pruneAssigned(remaining)
		switch {
		case len(remaining) == 0:
			log.WithFields(log.Fields{"node": nodeName, "ignored": ignored}).Info("all potential processes already assigned")
			return 0, false
		case len(remaining) > 1:
			if !guess {
				log.WithFields(log.Fields{"node": nodeName, "remaining": len(remaining)}).Info("ambiguous process match deferred")
				return 0, false
			}
			sort.Slice(remaining, func(i, j int) bool {
				return remaining[i].Record.PID < remaining[j].Record.PID
			})
			log.WithFields(log.Fields{"node": nodeName, "pid": remaining[0].Record.PID}).Info("guessing among ambiguous processes")
		}
		chosen = remaining[0]
	}

	label := nodeName
	if namespace != "/" {
		label = namespace + "/" + nodeName
	}
	if chosen.Assigned == "" {
		chosen.Assigned = label
	} else {
		chosen.Assigned += "," + label
	}
	log.WithFields(log.Fields{"node": nodeName, "pid": chosen.Record.PID}).Debug("resolved process for node")
	b.proc = chosen
	return chosen.Record.PID, true
}

// tokenOverlap reports whether at least half of the tokens appear as
// substrings of hay.
func tokenOverlap(tokens []string, hay string) bool {
	matched := 0
	for _, t := range tokens {
		if strings.Contains(hay, t) {
			matched++
		}
	}
	return float64(matched) >= float64(len(tokens))/2
}

// pruneParents drops candidates that are parents of other candidates, so
// spawned processes win over their launchers.
func pruneParents(candidates []*ProcessCandidate) []*ProcessCandidate {
	inSet := make(map[int32]bool, len(candidates))
	for _, c := range candidates {
		inSet[c.Record.PID] = true
	}
	parents := make(map[int32]bool, len(candidates))
	for _, c := range candidates {
		if inSet[c.Record.PPID] {
			parents[c.Record.PPID] = true
		}
	}
	kept := make([]*ProcessCandidate, 0, len(candidates))
	for _, c := range candidates {
		if !parents[c.Record.PID] {
			kept = append(kept, c)
		}
	}
	return kept
}

// pruneAssigned drops candidates already claimed by another node or
// pre-assigned as launcher parents.
func pruneAssigned(candidates []*ProcessCandidate) (kept []*ProcessCandidate, ignored []int32) {
	for _, c := range candidates {
		if c.Assigned != "" {
			ignored = append(ignored, c.Record.PID)
			continue
		}
		kept = append(kept, c)
	}
	return kept, ignored
}

// Extract materializes the node entity from the accumulated state.
func (b *NodeBuilder) Extract() *domain.Node {
	log.WithField("node", b.name).Debug("extracting node")
	node := domain.NewNode(b.name)
	node.Source = domain.SourceSnapshot
	node.Variant = b.variant
	node.ShortName = b.shortName
	node.Namespace = b.namespace
	node.ExecutableName = b.ExecutableName()
	node.ExecutableFile = b.ExecutableFile()
	node.Cmdline = b.Cmdline()
	node.NumThreads = b.NumThreads()
	node.CPUPercent = b.CPUPercent()
	node.MemoryPercent = b.MemoryPercent()
	node.MemoryInfo = b.MemoryInfo()
	node.ActionServers = b.ActionServers()
	node.ActionClients = b.ActionClients()
	node.PublishedTopicNames = b.PublishedTopicNames()
	node.SubscribedTopicNames = b.SubscribedTopicNames()
	node.ProvidedServices = b.ServiceNamesWithRemap()
	node.ParameterNames = b.parameterNames
	switch b.variant {
	case domain.NodeVariantComponent:
		node.ManagerNodeName = b.managerName
	case domain.NodeVariantComponentManager:
		node.Components = b.components
	}
	return node
}

// NodeBankBuilder collects the node builders of one session. Every
// builder shares the session's process arena, filter set, and local
// hostname.
type NodeBankBuilder struct {
	builderMap[*NodeBuilder]

	arena    *ProcessArena
	filters  *filter.Set
	hostname string
	noGuess  bool
}

// NewNodeBankBuilder returns an empty node bank builder. The hostname is
// attributed to every node the session observes.
func NewNodeBankBuilder(arena *ProcessArena, filters *filter.Set, hostname string) *NodeBankBuilder {
	return &NodeBankBuilder{arena: arena, filters: filters, hostname: hostname}
}

// SetNoGuess disables the last-resort tie-break among leftover process
// candidates. Guessing is the default; an ambiguous node then stays
// unresolved instead of claiming the first leftover.
func (bb *NodeBankBuilder) SetNoGuess(on bool) { bb.noGuess = on }

// Get returns the builder for name, creating one on first use.
func (bb *NodeBankBuilder) Get(name string) *NodeBuilder {
	return bb.get(name, func(name string) *NodeBuilder {
		nb := newNodeBuilder(name, bb.arena, bb.filters, bb.hostname)
		nb.noGuess = bb.noGuess
		return nb
	})
}

// Prepare drops excluded nodes, then resolves each survivor's process.
func (bb *NodeBankBuilder) Prepare() {
	bb.filter(func(name string, _ *NodeBuilder) bool {
		return bb.filters.Nodes.ShouldFilterOut(name)
	})
	bb.Each(func(_ string, nb *NodeBuilder) { nb.Prepare() })
}

// Extract materializes the node bank from the surviving builders.
func (bb *NodeBankBuilder) Extract() *domain.Bank[*domain.Node] {
	bank := domain.NewBank(domain.BankNode, domain.NewNode)
	bb.Each(func(_ string, nb *NodeBuilder) { bank.Put(nb.Extract()) })
	return bank
}
