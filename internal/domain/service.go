package domain

// Service represents one observed service and the nodes providing it.
type Service struct {
	Meta `yaml:",inline"`

	ConstructType            string   `yaml:"construct_type,omitempty" json:"construct_type,omitempty"`
	ServiceProviderNodeNames []string `yaml:"service_provider_node_names,omitempty" json:"service_provider_node_names,omitempty"`
}

// NewService returns an empty service with the given full name.
func NewService(name string) *Service {
	return &Service{Meta: Meta{Name: name}}
}

// Merge folds another observation of the same service into s.
func (s *Service) Merge(in *Service) {
	mergeScalar(&s.ConstructType, in.ConstructType)
	s.ServiceProviderNodeNames = mergeList(s.ServiceProviderNodeNames, in.ServiceProviderNodeNames)
	s.mergeMeta(in.Meta)
}
