package builder

import (
	"fmt"
	"reflect"

	"graphsnap/internal/domain"
)

// ParameterBuilder accumulates one parameter's decoded value, owning node,
// and descriptor text.
type ParameterBuilder struct {
	entityBuilder

	value       any
	nodeName    string
	description string
}

func newParameterBuilder(name string) *ParameterBuilder {
	return &ParameterBuilder{entityBuilder: newEntityBuilder(name)}
}

// AddInfo records the parameter's decoded value and owning node.
func (b *ParameterBuilder) AddInfo(value any, nodeName string) {
	b.value = value
	b.nodeName = nodeName
}

// AddDescription records the parameter's descriptor text.
func (b *ParameterBuilder) AddDescription(description string) {
	b.description = description
}

// Value returns the decoded parameter value.
func (b *ParameterBuilder) Value() any { return b.value }

// NodeName returns the node owning the parameter.
func (b *ParameterBuilder) NodeName() string { return b.nodeName }

// Description returns the descriptor text, empty when none was reported.
func (b *ParameterBuilder) Description() string { return b.description }

// ValueType returns the type token of the parameter's value.
func (b *ParameterBuilder) ValueType() string { return valueTypeName(b.value) }

// ConstructType returns the parameter's type token. Parameters are typed
// by their values.
func (b *ParameterBuilder) ConstructType() string { return b.ValueType() }

// valueTypeName returns the type token recorded for a parameter value.
// The tokens match the ones carried by existing specification files, so
// reconciliation can compare observed values against stored expectations.
func valueTypeName(v any) string {
	switch v.(type) {
	case nil:
		return "NoneType"
	case bool:
		return "bool"
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return "int"
	case float32, float64:
		return "float"
	case string:
		return "str"
	}
	switch reflect.TypeOf(v).Kind() {
	case reflect.Slice, reflect.Array:
		return "list"
	case reflect.Map:
		return "dict"
	}
	return fmt.Sprintf("%T", v)
}

// Extract materializes the parameter entity from the accumulated state.
func (b *ParameterBuilder) Extract() *domain.Parameter {
	parameter := domain.NewParameter(b.name)
	parameter.Source = domain.SourceSnapshot
	parameter.ValueType = b.ValueType()
	parameter.Value = b.value
	parameter.NodeName = b.nodeName
	parameter.Description = b.description
	return parameter
}

// ParameterBankBuilder collects the parameter builders of one session.
// Parameters carry no exclusion policy.
type ParameterBankBuilder struct {
	builderMap[*ParameterBuilder]
}

// NewParameterBankBuilder returns an empty parameter bank builder.
func NewParameterBankBuilder() *ParameterBankBuilder {
	return &ParameterBankBuilder{}
}

// Get returns the builder for name, creating one on first use.
func (bb *ParameterBankBuilder) Get(name string) *ParameterBuilder {
	return bb.get(name, newParameterBuilder)
}

// Prepare is part of the bank builder surface.
func (bb *ParameterBankBuilder) Prepare() {}

// Extract materializes the parameter bank from the accumulated builders.
func (bb *ParameterBankBuilder) Extract() *domain.Bank[*domain.Parameter] {
	bank := domain.NewBank(domain.BankParameter, domain.NewParameter)
	bb.Each(func(_ string, pb *ParameterBuilder) { bank.Put(pb.Extract()) })
	return bank
}
