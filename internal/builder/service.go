package builder

import (
	log "github.com/sirupsen/logrus"

	"graphsnap/internal/adapter"
	"graphsnap/internal/domain"
	"graphsnap/internal/filter"
)

// ServiceBuilder accumulates the providers observed for one service.
type ServiceBuilder struct {
	entityBuilder

	nodes filter.Policy

	constructType string
	providers     map[string]struct{}
}

func newServiceBuilder(name string, nodes filter.Policy) *ServiceBuilder {
	return &ServiceBuilder{
		entityBuilder: newEntityBuilder(name),
		nodes:         nodes,
		providers:     make(map[string]struct{}),
	}
}

// ConstructType returns the service's type.
func (b *ServiceBuilder) ConstructType() string { return b.constructType }

// AddProviderNodeName records a node serving the service.
func (b *ServiceBuilder) AddProviderNodeName(nodeName string) {
	b.providers[nodeName] = struct{}{}
}

// ProviderNodeNames returns the providers that survive the node exclusion
// policy, sorted.
func (b *ServiceBuilder) ProviderNodeNames() []string {
	var names []string
	for _, name := range sortedSet(b.providers) {
		if b.nodes.ShouldFilterOut(name) {
			continue
		}
		names = append(names, name)
	}
	return names
}

// Extract materializes the service entity from the accumulated state.
func (b *ServiceBuilder) Extract() *domain.Service {
	service := domain.NewService(b.name)
	service.Source = domain.SourceSnapshot
	service.ConstructType = b.constructType
	service.ServiceProviderNodeNames = b.ProviderNodeNames()
	return service
}

// ServiceBankBuilder collects the service builders of one session and owns
// the graph's service type declarations.
type ServiceBankBuilder struct {
	builderMap[*ServiceBuilder]

	serviceTypes []adapter.InterfaceInfo
	filters      *filter.Set
}

// NewServiceBankBuilder returns an empty service bank builder over the
// given type declarations.
func NewServiceBankBuilder(serviceTypes []adapter.InterfaceInfo, filters *filter.Set) *ServiceBankBuilder {
	return &ServiceBankBuilder{serviceTypes: serviceTypes, filters: filters}
}

// Get returns the builder for name, creating one with its declared type
// on first use.
func (bb *ServiceBankBuilder) Get(name string) *ServiceBuilder {
	return bb.get(name, func(name string) *ServiceBuilder {
		sb := newServiceBuilder(name, bb.filters.Nodes)
		sb.constructType = bb.findServiceType(name)
		return sb
	})
}

// findServiceType returns the declared type for a service name. Services
// follow the topic rules: multiple declarations keep the first with a
// logged conflict, no declaration leaves the type empty.
func (bb *ServiceBankBuilder) findServiceType(name string) string {
	for _, st := range bb.serviceTypes {
		if st.Name != name {
			continue
		}
		if len(st.Types) == 0 {
			return ""
		}
		if len(st.Types) > 1 {
			log.WithFields(log.Fields{"service": name, "types": st.Types}).Warn("service declared with multiple types")
		}
		return st.Types[0]
	}
	return ""
}

// Prepare drops services whose type the service type policy excludes.
func (bb *ServiceBankBuilder) Prepare() {
	bb.filter(func(_ string, sb *ServiceBuilder) bool {
		return bb.filters.ServiceTypes.ShouldFilterOut(sb.constructType)
	})
}

// Extract materializes the service bank from the surviving builders.
func (bb *ServiceBankBuilder) Extract() *domain.Bank[*domain.Service] {
	bank := domain.NewBank(domain.BankService, domain.NewService)
	bb.Each(func(_ string, sb *ServiceBuilder) { bank.Put(sb.Extract()) })
	return bank
}
