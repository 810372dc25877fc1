package domain

import "time"

// Run records the provenance of one completed snapshot invocation, as
// kept in the archive.
type Run struct {
	ID          string    `yaml:"id" json:"id"`
	Hostname    string    `yaml:"hostname,omitempty" json:"hostname,omitempty"`
	StartedAt   time.Time `yaml:"started_at" json:"started_at"`
	FinishedAt  time.Time `yaml:"finished_at" json:"finished_at"`
	SpecUpdated bool      `yaml:"spec_updated" json:"spec_updated"`
}

// Duration returns the wall time the run took.
func (r Run) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
