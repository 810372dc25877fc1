// Package domain defines the core entity model for the graphsnap
// computation-graph snapshot system.
//
// This package contains the typed records that represent one observed
// deployment (nodes, topics, actions, services, parameters, machines) and
// the reusable specifications those observations are reconciled against
// (package, node, and interface-type specifications).
//
// # Entities and Banks
//
// Every record carries a Meta header: a name (its identity within a bank),
// a source tag, and a monotonically increasing version. Records of one kind
// live in a Bank, a homogeneous name-keyed container with lazy creation:
// looking up an absent name stores and returns a fresh entity.
//
// # Merge Semantics
//
// Entities accumulate evidence rather than overwrite it. Each kind exposes
// a Merge method built from shared rules: zero-valued incoming fields are
// ignored, identical values are no-ops, lists are extended, token maps are
// unioned, and the version counter advances on every merge. Fields that can
// legitimately be observed with different scalar values across merges are
// declared as FlexStrings, which collect the distinct values.
//
// # Node Variants
//
// A deployment node is exactly one of three shapes: a plain node, a
// component hosted inside a container process, or the component manager
// that hosts components. The shape is a closed tag on Node, not a type
// hierarchy.
//
// # Design Principles
//
// - Explicit per-kind schemas; open-ended maps only where the data is
//   genuinely open-ended (specification token maps)
// - No I/O, no logging, no infrastructure concerns
// - Identity never changes after creation, only field values
package domain
