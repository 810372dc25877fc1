// Package adapter defines the external collaborators a snapshot run
// consumes and their local implementations.
//
// The engine never talks to the middleware or the OS directly; it consumes
// two narrow interfaces defined here.
//
// # GraphSource
//
// GraphSource hands over raw discovery facts from the live computation
// graph: node names, per-node interface listings (topics, services,
// actions), verbose per-topic endpoint records, and per-node parameter
// listings. StaticSource replays a recorded fixture through the same
// interface for tests and offline runs.
//
// # ProcessSource
//
// ProcessSource supplies the OS process records the fuzzy process matcher
// works on. PsutilSource enumerates the local process table and keeps only
// graph-like processes, classified by the heuristics in this package: a
// record is either included with a reason tag naming the heuristic that
// kept it, or entirely absent. Obvious system noise (desktop services,
// shells, editors) is dropped unless the command line is explicitly a
// middleware invocation.
package adapter
