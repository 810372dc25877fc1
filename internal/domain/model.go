package domain

// BankKind names one of the model's banks. The string value doubles as the
// stem of persisted file names, suffixed with "_bank".
type BankKind string

const (
	BankNode      BankKind = "node"
	BankTopic     BankKind = "topic"
	BankAction    BankKind = "action"
	BankService   BankKind = "service"
	BankParameter BankKind = "parameter"
	BankMachine   BankKind = "machine"

	BankPackageSpecification BankKind = "package_specification"
	BankNodeSpecification    BankKind = "node_specification"
	BankMessageSpecification BankKind = "message_specification"
	BankServiceSpecification BankKind = "service_specification"
	BankActionSpecification  BankKind = "action_specification"
)

// OutputName returns the stem used in persisted bank file names.
func (k BankKind) OutputName() string { return string(k) + "_bank" }

// DeploymentBankKinds lists the banks produced by observing a live
// deployment, in presentation order.
var DeploymentBankKinds = []BankKind{
	BankNode,
	BankTopic,
	BankAction,
	BankService,
	BankParameter,
	BankMachine,
}

// SpecificationBankKinds lists the banks that persist across snapshot
// runs, in presentation order.
var SpecificationBankKinds = []BankKind{
	BankPackageSpecification,
	BankNodeSpecification,
	BankMessageSpecification,
	BankServiceSpecification,
	BankActionSpecification,
}

// AllBankKinds lists every bank kind, deployment banks first.
var AllBankKinds = append(append([]BankKind{}, DeploymentBankKinds...), SpecificationBankKinds...)

// Model aggregates every bank a snapshot run produces or consumes.
type Model struct {
	Nodes      *Bank[*Node]
	Topics     *Bank[*Topic]
	Actions    *Bank[*Action]
	Services   *Bank[*Service]
	Parameters *Bank[*Parameter]
	Machines   *Bank[*Machine]

	PackageSpecifications *Bank[*PackageSpecification]
	NodeSpecifications    *Bank[*NodeSpecification]
	MessageSpecifications *Bank[*TypeSpecification]
	ServiceSpecifications *Bank[*TypeSpecification]
	ActionSpecifications  *Bank[*TypeSpecification]
}

// NewModel returns a model with every bank initialized empty.
func NewModel() *Model {
	return &Model{
		Nodes:      NewBank(BankNode, NewNode),
		Topics:     NewBank(BankTopic, NewTopic),
		Actions:    NewBank(BankAction, NewAction),
		Services:   NewBank(BankService, NewService),
		Parameters: NewBank(BankParameter, NewParameter),
		Machines:   NewBank(BankMachine, NewMachine),

		PackageSpecifications: NewBank(BankPackageSpecification, NewPackageSpecification),
		NodeSpecifications:    NewBank(BankNodeSpecification, NewNodeSpecification),
		MessageSpecifications: NewBank(BankMessageSpecification, NewTypeSpecification),
		ServiceSpecifications: NewBank(BankServiceSpecification, NewTypeSpecification),
		ActionSpecifications:  NewBank(BankActionSpecification, NewTypeSpecification),
	}
}

// Stats returns the number of entities held per bank.
func (m *Model) Stats() map[BankKind]int {
	return map[BankKind]int{
		BankNode:      m.Nodes.Len(),
		BankTopic:     m.Topics.Len(),
		BankAction:    m.Actions.Len(),
		BankService:   m.Services.Len(),
		BankParameter: m.Parameters.Len(),
		BankMachine:   m.Machines.Len(),

		BankPackageSpecification: m.PackageSpecifications.Len(),
		BankNodeSpecification:    m.NodeSpecifications.Len(),
		BankMessageSpecification: m.MessageSpecifications.Len(),
		BankServiceSpecification: m.ServiceSpecifications.Len(),
		BankActionSpecification:  m.ActionSpecifications.Len(),
	}
}

// TypeSpecificationBank returns the type-specification bank matching kind,
// or nil for non-interface kinds.
func (m *Model) TypeSpecificationBank(kind InterfaceKind) *Bank[*TypeSpecification] {
	switch kind {
	case InterfaceMessage:
		return m.MessageSpecifications
	case InterfaceService:
		return m.ServiceSpecifications
	case InterfaceAction:
		return m.ActionSpecifications
	}
	return nil
}
