package domain

// InterfaceKind distinguishes the three interface definition flavors a
// package can ship.
type InterfaceKind string

const (
	InterfaceMessage InterfaceKind = "msg"
	InterfaceService InterfaceKind = "srv"
	InterfaceAction  InterfaceKind = "action"
)

// NodeSpecification records the declared I/O surface of one node
// executable: token-to-type maps per category, learned from a workspace or
// from the first observed deployment. A specification that has been
// confirmed (or learned) against a live deployment is marked validated.
type NodeSpecification struct {
	Meta `yaml:",inline"`

	Package  string      `yaml:"package,omitempty" json:"package,omitempty"`
	FilePath FlexStrings `yaml:"file_path,omitempty" json:"file_path,omitempty"`

	Parameters       map[string]string `yaml:"parameters,omitempty" json:"parameters,omitempty"`
	ActionClients    map[string]string `yaml:"action_clients,omitempty" json:"action_clients,omitempty"`
	ActionServers    map[string]string `yaml:"action_servers,omitempty" json:"action_servers,omitempty"`
	PublishedTopics  map[string]string `yaml:"published_topics,omitempty" json:"published_topics,omitempty"`
	SubscribedTopics map[string]string `yaml:"subscribed_topics,omitempty" json:"subscribed_topics,omitempty"`
	ServicesProvided map[string]string `yaml:"services_provided,omitempty" json:"services_provided,omitempty"`

	Validated bool `yaml:"validated" json:"validated"`
}

// NewNodeSpecification returns an unvalidated specification for name.
func NewNodeSpecification(name string) *NodeSpecification {
	return &NodeSpecification{Meta: Meta{Name: name}}
}

// Merge folds another recording of the same specification into s. Token
// maps are unioned, so evidence from multiple observed instances
// accumulates.
func (s *NodeSpecification) Merge(in *NodeSpecification) {
	mergeScalar(&s.Package, in.Package)
	s.FilePath.Add(in.FilePath...)
	s.Parameters = mergeTokens(s.Parameters, in.Parameters)
	s.ActionClients = mergeTokens(s.ActionClients, in.ActionClients)
	s.ActionServers = mergeTokens(s.ActionServers, in.ActionServers)
	s.PublishedTopics = mergeTokens(s.PublishedTopics, in.PublishedTopics)
	s.SubscribedTopics = mergeTokens(s.SubscribedTopics, in.SubscribedTopics)
	s.ServicesProvided = mergeTokens(s.ServicesProvided, in.ServicesProvided)
	mergeBool(&s.Validated, in.Validated)
	s.mergeMeta(in.Meta)
}

// PackageSpecification records the installed shape of one software
// package.
type PackageSpecification struct {
	Meta `yaml:",inline"`

	Actions          []string `yaml:"actions,omitempty" json:"actions,omitempty"`
	Dependencies     []string `yaml:"dependencies,omitempty" json:"dependencies,omitempty"`
	InstalledVersion string   `yaml:"installed_version,omitempty" json:"installed_version,omitempty"`
	IsMetapackage    bool     `yaml:"is_metapackage" json:"is_metapackage"`
	LaunchFiles      []string `yaml:"launch_files,omitempty" json:"launch_files,omitempty"`
	Messages         []string `yaml:"messages,omitempty" json:"messages,omitempty"`
	Nodes            []string `yaml:"nodes,omitempty" json:"nodes,omitempty"`
	PackageVersion   string   `yaml:"package_version,omitempty" json:"package_version,omitempty"`
	ParameterFiles   []string `yaml:"parameter_files,omitempty" json:"parameter_files,omitempty"`
	Services         []string `yaml:"services,omitempty" json:"services,omitempty"`
	SharePath        string   `yaml:"share_path,omitempty" json:"share_path,omitempty"`
}

// NewPackageSpecification returns an empty package specification.
func NewPackageSpecification(name string) *PackageSpecification {
	return &PackageSpecification{Meta: Meta{Name: name}}
}

// Merge folds another recording of the same package into s.
func (s *PackageSpecification) Merge(in *PackageSpecification) {
	s.Actions = mergeList(s.Actions, in.Actions)
	s.Dependencies = mergeList(s.Dependencies, in.Dependencies)
	mergeScalar(&s.InstalledVersion, in.InstalledVersion)
	mergeBool(&s.IsMetapackage, in.IsMetapackage)
	s.LaunchFiles = mergeList(s.LaunchFiles, in.LaunchFiles)
	s.Messages = mergeList(s.Messages, in.Messages)
	s.Nodes = mergeList(s.Nodes, in.Nodes)
	mergeScalar(&s.PackageVersion, in.PackageVersion)
	s.ParameterFiles = mergeList(s.ParameterFiles, in.ParameterFiles)
	s.Services = mergeList(s.Services, in.Services)
	mergeScalar(&s.SharePath, in.SharePath)
	s.mergeMeta(in.Meta)
}

// TypeSpecification records one interface definition file (message,
// service, or action) found in a package.
type TypeSpecification struct {
	Meta `yaml:",inline"`

	ConstructType InterfaceKind `yaml:"construct_type,omitempty" json:"construct_type,omitempty"`
	FilePath      string        `yaml:"file_path,omitempty" json:"file_path,omitempty"`
	Package       string        `yaml:"package,omitempty" json:"package,omitempty"`
	Definition    string        `yaml:"spec,omitempty" json:"spec,omitempty"`
}

// NewTypeSpecification returns an empty type specification.
func NewTypeSpecification(name string) *TypeSpecification {
	return &TypeSpecification{Meta: Meta{Name: name}}
}

// Merge folds another recording of the same interface definition into s.
func (s *TypeSpecification) Merge(in *TypeSpecification) {
	mergeScalar(&s.ConstructType, in.ConstructType)
	mergeScalar(&s.FilePath, in.FilePath)
	mergeScalar(&s.Package, in.Package)
	mergeScalar(&s.Definition, in.Definition)
	s.mergeMeta(in.Meta)
}
