// Package builder implements the accumulate-then-extract pipeline that
// turns raw discovery facts into model entities.
//
// # Pipeline
//
// Each entity kind pairs a per-entity builder with a bank builder that
// owns a name-keyed store of them. Looking up an absent name creates a
// fresh builder, so discovery code can attach facts in any order without
// existence checks. A session walks four phases, each exactly once:
//
//   - accumulate: discovery facts are attached to builders as they arrive
//   - filter: excluded entities are dropped wholesale from each bank
//   - prepare: per-entity heuristics run (process resolution for nodes,
//     machine assignment for hosts)
//   - extract: every surviving builder is converted into an immutable
//     domain entity and the banks are assembled
//
// # Process matching
//
// Node builders share a ProcessArena, one snapshot of the graph-like OS
// processes taken at session start. The fuzzy matcher in NodeBuilder
// resolves a logical node name to at most one arena process; assignment
// markers on the arena keep one process from being claimed by two
// unrelated nodes.
package builder
