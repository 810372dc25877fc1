package service

import (
	"context"
	"fmt"
	"os"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"graphsnap/internal/adapter"
	"graphsnap/internal/builder"
	"graphsnap/internal/domain"
	"graphsnap/internal/filter"
)

// DefaultParameterTimeout bounds the parameter listing call per node. A
// node whose parameter services never answer otherwise hangs the whole
// snapshot.
const DefaultParameterTimeout = 2 * time.Second

// Options configure one snapshot session.
type Options struct {
	// OwnNodeNames are the snapshot tool's own graph nodes, always
	// excluded from the model they observe.
	OwnNodeNames []string

	// Filter selects the optional exclusion tiers.
	Filter filter.Options

	// Hostname overrides the hostname attributed to observed nodes.
	// Defaults to the local hostname.
	Hostname string

	// HostsPath overrides the hosts file consulted by machine
	// resolution.
	HostsPath string

	// NoGuess disables the last-resort tie-break when several processes
	// remain plausible for one node.
	NoGuess bool

	// ParameterTimeout bounds the parameter listing call per node.
	ParameterTimeout time.Duration
}

// Session drives one snapshot run: collect raw facts from the graph and
// process sources, prepare the builders, reconcile against a
// specification model, and extract the deployment model. A session is
// single use and not safe for concurrent access.
type Session struct {
	id    uuid.UUID
	opts  Options
	graph adapter.GraphSource
	procs adapter.ProcessSource

	filters *filter.Set
	arena   *builder.ProcessArena

	nodes      *builder.NodeBankBuilder
	topics     *builder.TopicBankBuilder
	actions    *builder.ActionBankBuilder
	services   *builder.ServiceBankBuilder
	parameters *builder.ParameterBankBuilder
	machines   *builder.MachineBankBuilder

	prepared bool
}

// NewSession wires a snapshot session over the graph and process sources.
func NewSession(graph adapter.GraphSource, procs adapter.ProcessSource, opts Options) *Session {
	if opts.ParameterTimeout <= 0 {
		opts.ParameterTimeout = DefaultParameterTimeout
	}
	if opts.Hostname == "" {
		if hostname, err := os.Hostname(); err == nil {
			opts.Hostname = hostname
		} else {
			opts.Hostname = "localhost"
		}
	}
	filters := filter.NewSet(opts.Filter, opts.OwnNodeNames...)
	return &Session{
		id:      uuid.New(),
		opts:    opts,
		graph:   graph,
		procs:   procs,
		filters: &filters,
	}
}

// ID returns the session's run identifier.
func (s *Session) ID() uuid.UUID { return s.id }

// Processes returns the process arena examined by this session, for
// reporting which processes were claimed and which were left over.
// Collect must have run.
func (s *Session) Processes() *builder.ProcessArena { return s.arena }

// Run executes the whole pipeline against one specification model and
// returns the deployment model along with the reconciliation result.
func (s *Session) Run(ctx context.Context, specs *domain.Model) (*domain.Model, *ReconcileResult, error) {
	if err := s.Collect(ctx); err != nil {
		return nil, nil, err
	}
	s.Prepare()
	result, err := s.Reconcile(specs)
	if err != nil {
		return nil, nil, err
	}
	model := s.Extract()
	log.WithField("session", s.id).Info("snapshot is complete")
	return model, result, nil
}

// Collect gathers the raw facts of one snapshot: the process arena, the
// per-node interface declarations, component containment, and parameter
// values. Collection only accumulates; filtering and process resolution
// wait for Prepare so every builder sees the complete picture.
func (s *Session) Collect(ctx context.Context) error {
	log.WithField("session", s.id).Debug("getting system information from the graph")

	records, err := s.procs.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("process snapshot: %w", err)
	}
	s.arena = builder.NewProcessArena(records)
	log.WithField("processes", s.arena.Len()).Debug("indexed graph-like processes")

	info, err := s.collectSystemInfo(ctx)
	if err != nil {
		return err
	}

	s.nodes = builder.NewNodeBankBuilder(s.arena, s.filters, s.opts.Hostname)
	s.nodes.SetNoGuess(s.opts.NoGuess)
	s.topics = builder.NewTopicBankBuilder(info.topicTypes(), s.filters)
	s.actions = builder.NewActionBankBuilder()
	s.services = builder.NewServiceBankBuilder(info.serviceTypes(), s.filters)
	s.parameters = builder.NewParameterBankBuilder()
	s.machines = builder.NewMachineBankBuilder(s.opts.HostsPath)

	if err := s.collectNodesWithTopics(ctx, info); err != nil {
		return err
	}
	if err := s.collectComponents(ctx, info); err != nil {
		return err
	}
	s.collectActions(info)
	s.collectServices(info)
	return s.collectParameters(ctx, info.nodes)
}

// Prepare filters the collected builders and runs every per-entity
// preparation: action grouping out of suffixed topics, process
// resolution, and machine assignment. Prepare runs once; later calls are
// no-ops.
func (s *Session) Prepare() {
	if s.prepared {
		return
	}
	s.prepared = true
	log.Info("preparing data banks")
	s.topics.Prepare()
	s.actions.DiscoverFromTopics(s.topics, s.nodes)
	s.actions.Prepare()
	s.services.Prepare()
	s.parameters.Prepare()
	s.nodes.Prepare()
	s.machines.Prepare(s.nodes)
}

// Reconcile matches every surviving node builder against the loaded
// specification model. Collect and Prepare must have run, so that remaps
// compare against post-filter state.
func (s *Session) Reconcile(specs *domain.Model) (*ReconcileResult, error) {
	log.Info("validating model data against specifications")
	r := NewReconciler(specs, s.nodes, s.topics, s.actions, s.services, s.parameters)
	return r.Reconcile()
}

// Extract materializes the deployment model from the prepared builders.
func (s *Session) Extract() *domain.Model {
	log.Debug("extracting deployment model from builders")
	model := domain.NewModel()
	model.Nodes = s.nodes.Extract()
	model.Topics = s.topics.Extract()
	model.Actions = s.actions.Extract()
	model.Services = s.services.Extract()
	model.Parameters = s.parameters.Extract()
	model.Machines = s.machines.Extract()
	return model
}

// VerifySpecifications checks that every specification bank carries at
// least one entry. A snapshot cannot reconcile against an empty model.
func VerifySpecifications(specs *domain.Model) error {
	counts := specs.Stats()
	valid := true
	for _, kind := range domain.SpecificationBankKinds {
		if counts[kind] < 1 {
			log.WithField("bank", kind.OutputName()).Error("specification bank is empty")
			valid = false
		}
	}
	if !valid {
		return fmt.Errorf("specification model is incomplete")
	}
	return nil
}

// systemInfo aggregates the per-node discovery answers by interface name
// before any builder exists, so topic and service types are known when
// their builders are created.
type systemInfo struct {
	nodes    []adapter.NodeName
	actions  map[string]*interfaceUsers
	topics   map[string]*interfaceUsers
	services map[string]*interfaceUsers
}

// interfaceUsers accumulates who provides and who consumes one named
// interface, with every type declared for it.
type interfaceUsers struct {
	providers map[string]struct{}
	consumers map[string]struct{}
	types     map[string]struct{}
}

func newInterfaceUsers() *interfaceUsers {
	return &interfaceUsers{
		providers: make(map[string]struct{}),
		consumers: make(map[string]struct{}),
		types:     make(map[string]struct{}),
	}
}

func (u *interfaceUsers) addProvider(nodeName string, types []string) {
	u.providers[nodeName] = struct{}{}
	u.addTypes(types)
}

func (u *interfaceUsers) addConsumer(nodeName string, types []string) {
	u.consumers[nodeName] = struct{}{}
	u.addTypes(types)
}

func (u *interfaceUsers) addTypes(types []string) {
	for _, t := range types {
		u.types[t] = struct{}{}
	}
}

func (u *interfaceUsers) providerNames() []string { return sortedNames(u.providers) }

func (u *interfaceUsers) consumerNames() []string { return sortedNames(u.consumers) }

func (u *interfaceUsers) typeNames() []string { return sortedNames(u.types) }

func sortedNames(set map[string]struct{}) []string {
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// users returns the accumulator for name, creating it on first use.
func users(m map[string]*interfaceUsers, name string) *interfaceUsers {
	u, ok := m[name]
	if !ok {
		u = newInterfaceUsers()
		m[name] = u
	}
	return u
}

// isActionTopic reports whether the topic belongs to an action already
// discovered directly. The middleware hides action transports under an
// "/_action" segment.
func (si *systemInfo) isActionTopic(topicName string) bool {
	base, _, _ := strings.Cut(topicName, "/_action")
	_, ok := si.actions[base]
	return ok
}

func (si *systemInfo) topicTypes() []adapter.InterfaceInfo { return interfaceTypes(si.topics) }

func (si *systemInfo) serviceTypes() []adapter.InterfaceInfo { return interfaceTypes(si.services) }

func interfaceTypes(m map[string]*interfaceUsers) []adapter.InterfaceInfo {
	infos := make([]adapter.InterfaceInfo, 0, len(m))
	for _, name := range sortedUserKeys(m) {
		infos = append(infos, adapter.InterfaceInfo{Name: name, Types: m[name].typeNames()})
	}
	return infos
}

func sortedUserKeys(m map[string]*interfaceUsers) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// collectSystemInfo walks every node's discovery answers. Actions are
// gathered first so their hidden transport topics can be dropped from the
// standalone topic view as they arrive.
func (s *Session) collectSystemInfo(ctx context.Context) (*systemInfo, error) {
	nodes, err := s.graph.Nodes(ctx)
	if err != nil {
		return nil, fmt.Errorf("list nodes: %w", err)
	}
	info := &systemInfo{
		nodes:    nodes,
		actions:  make(map[string]*interfaceUsers),
		topics:   make(map[string]*interfaceUsers),
		services: make(map[string]*interfaceUsers),
	}

	for _, node := range nodes {
		nodeName := node.FullName()

		servers, err := s.graph.ActionServers(ctx, node)
		if err != nil {
			return nil, fmt.Errorf("action servers of %s: %w", nodeName, err)
		}
		for _, a := range servers {
			users(info.actions, a.Name).addProvider(nodeName, a.Types)
		}
		clients, err := s.graph.ActionClients(ctx, node)
		if err != nil {
			return nil, fmt.Errorf("action clients of %s: %w", nodeName, err)
		}
		for _, a := range clients {
			users(info.actions, a.Name).addConsumer(nodeName, a.Types)
		}

		published, err := s.graph.PublishedTopics(ctx, node)
		if err != nil {
			return nil, fmt.Errorf("published topics of %s: %w", nodeName, err)
		}
		for _, t := range published {
			if info.isActionTopic(t.Name) {
				continue
			}
			users(info.topics, t.Name).addProvider(nodeName, t.Types)
		}
		subscribed, err := s.graph.SubscribedTopics(ctx, node)
		if err != nil {
			return nil, fmt.Errorf("subscribed topics of %s: %w", nodeName, err)
		}
		for _, t := range subscribed {
			if info.isActionTopic(t.Name) {
				continue
			}
			users(info.topics, t.Name).addConsumer(nodeName, t.Types)
		}

		services, err := s.graph.ProvidedServices(ctx, node)
		if err != nil {
			return nil, fmt.Errorf("services of %s: %w", nodeName, err)
		}
		for _, sv := range services {
			users(info.services, sv.Name).addProvider(nodeName, sv.Types)
		}
	}
	return info, nil
}

// collectNodesWithTopics seeds the node builders and attaches every
// standalone topic to its publishers and subscribers, capturing verbose
// endpoint records along the way.
func (s *Session) collectNodesWithTopics(ctx context.Context, info *systemInfo) error {
	log.Debug("creating nodes with topic information")
	for _, node := range info.nodes {
		s.nodes.Get(node.FullName()).AddInfo(node)
	}

	for _, topicName := range sortedUserKeys(info.topics) {
		tb := s.topics.Get(topicName)
		endpoints, err := s.graph.TopicEndpoints(ctx, topicName)
		if err != nil {
			return fmt.Errorf("endpoints of %s: %w", topicName, err)
		}
		for _, ep := range endpoints {
			tb.RecordEndpoint(ep)
		}
		topicUsers := info.topics[topicName]
		for _, nodeName := range topicUsers.providerNames() {
			tb.AddNodeName(nodeName, builder.RolePublished)
			s.nodes.Get(nodeName).AddTopicName(topicName, builder.RolePublished, tb.ConstructType(), "")
		}
		for _, nodeName := range topicUsers.consumerNames() {
			tb.AddNodeName(nodeName, builder.RoleSubscribed)
			s.nodes.Get(nodeName).AddTopicName(topicName, builder.RoleSubscribed, tb.ConstructType(), "")
		}
	}
	return nil
}

// collectComponents marks container nodes as component managers and their
// loaded components as members.
func (s *Session) collectComponents(ctx context.Context, info *systemInfo) error {
	log.Debug("collecting component node information")
	containers, err := s.graph.ContainerNodes(ctx, info.nodes)
	if err != nil {
		return fmt.Errorf("container nodes: %w", err)
	}
	for _, container := range containers {
		managerName := container.FullName()
		components, err := s.graph.ComponentsInContainer(ctx, container)
		if err != nil {
			return fmt.Errorf("components in %s: %w", managerName, err)
		}
		s.nodes.Get(managerName).MarkComponentManager()
		for _, component := range components {
			s.nodes.Get(component).MarkComponent(managerName)
		}
		s.nodes.Get(managerName).SetComponents(components)
	}
	return nil
}

// collectActions records directly discovered actions and their
// participants.
func (s *Session) collectActions(info *systemInfo) {
	log.Debug("collecting action information")
	for _, actionName := range sortedUserKeys(info.actions) {
		actionUsers := info.actions[actionName]
		s.actions.Get(actionName).SetInfo(actionUsers.consumerNames(), actionUsers.providerNames(), actionUsers.typeNames())
		for _, client := range actionUsers.consumerNames() {
			s.nodes.Get(client).AddActionClient(actionName)
		}
		for _, server := range actionUsers.providerNames() {
			s.nodes.Get(server).AddActionServer(actionName)
		}
	}
}

// collectServices records every provided service on both the service and
// node banks.
func (s *Session) collectServices(info *systemInfo) {
	log.Debug("collecting service information")
	for _, serviceName := range sortedUserKeys(info.services) {
		sb := s.services.Get(serviceName)
		for _, provider := range info.services[serviceName].providerNames() {
			sb.AddProviderNodeName(provider)
			s.nodes.Get(provider).AddServiceNameAndType(serviceName, sb.ConstructType())
		}
	}
}

// collectParameters lists and decodes each node's parameters. A node that
// fails or times out is skipped with a warning; parameter discovery is
// best effort.
func (s *Session) collectParameters(ctx context.Context, nodes []adapter.NodeName) error {
	log.Info("collecting parameter information")
	sorted := append([]adapter.NodeName{}, nodes...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].FullName() < sorted[j].FullName() })

	for _, node := range sorted {
		nodeName := node.FullName()
		params, err := s.listParameters(ctx, node)
		if err != nil {
			log.WithFields(log.Fields{"node": nodeName, "error": err}).Warn("parameter listing failed for node")
			continue
		}
		sort.Slice(params, func(i, j int) bool { return params[i].Name < params[j].Name })
		for _, p := range params {
			fullName := path.Join(nodeName, p.Name)
			s.nodes.Get(nodeName).AddParameterName(fullName)
			pb := s.parameters.Get(fullName)
			pb.AddInfo(p.Value, nodeName)
			if p.Description != "" {
				pb.AddDescription(p.Description)
			}
		}
	}
	return nil
}

// listParameters bounds the per-node parameter call with the session's
// parameter timeout.
func (s *Session) listParameters(ctx context.Context, node adapter.NodeName) ([]adapter.ParameterInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.ParameterTimeout)
	defer cancel()
	return s.graph.Parameters(ctx, node)
}
