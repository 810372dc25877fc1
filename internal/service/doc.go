// Package service drives one snapshot run end to end and owns the
// reconciliation of observed deployments against stored specifications.
//
// # Session
//
// A Session executes the snapshot pipeline: collect the live graph and
// process table through the adapter sources, prepare every bank (resolve
// types, group action topics, match processes to nodes), reconcile the
// prepared deployment against a specification model, and extract the
// immutable result. Each phase is exposed separately so callers can
// inspect intermediate state, and Run chains them for the common case.
//
// # Reconciler
//
// The Reconciler maps each observed node to its specification through a
// RemapperBank keyed by executable path, then fuzzy-matches the node's
// observed interface tokens against the specification's declared types.
// Unvalidated specifications are learned from the first observed
// instance instead of checked.
//
// # WorkspaceModeler
//
// The WorkspaceModeler builds a specification model without a running
// system by crawling install prefixes: package manifests, interface
// definition files, launch and parameter files, and node executables.
package service
