// Package repository defines the archive interface for snapshot history.
//
// The archive keeps a local record of completed snapshot runs: when each
// run started and finished, on which host, whether it updated the
// specification model, and the full set of banks the run produced. The
// actual implementation is in the sqlite subpackage.
//
// # SQLite Implementation
//
// The sqlite implementation stores runs with WAL mode enabled. Bank
// contents are serialized to JSON blobs, one row per bank per run, so a
// past deployment can be reassembled without the original output files.
package repository
