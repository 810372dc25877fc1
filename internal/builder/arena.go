package builder

import (
	"strconv"

	"graphsnap/internal/adapter"
)

// ProcessCandidate is one graph-like process inside the arena, together
// with the assignment marker the matcher uses to keep a process from
// serving two unrelated nodes.
type ProcessCandidate struct {
	Record adapter.ProcessRecord

	// Assigned holds the node names resolved to this process, comma
	// joined. Parents of other arena members are pre-assigned their
	// child's pid so launcher shells lose ties against the processes
	// they spawned.
	Assigned string
}

// ProcessArena owns one snapshot of graph-like processes for the duration
// of a session. It is built once and mutated only through assignment
// marking.
type ProcessArena struct {
	byPID map[int32]*ProcessCandidate
	order []int32
}

// NewProcessArena indexes the records and pre-assigns every process whose
// child is also present in the snapshot.
func NewProcessArena(records []adapter.ProcessRecord) *ProcessArena {
	a := &ProcessArena{byPID: make(map[int32]*ProcessCandidate, len(records))}
	for _, rec := range records {
		if _, ok := a.byPID[rec.PID]; ok {
			continue
		}
		a.byPID[rec.PID] = &ProcessCandidate{Record: rec}
		a.order = append(a.order, rec.PID)
	}
	for _, pid := range a.order {
		if parent, ok := a.byPID[a.byPID[pid].Record.PPID]; ok {
			parent.Assigned = strconv.Itoa(int(pid))
		}
	}
	return a
}

// Lookup returns the candidate recorded under pid.
func (a *ProcessArena) Lookup(pid int32) (*ProcessCandidate, bool) {
	c, ok := a.byPID[pid]
	return c, ok
}

// Len returns the number of candidates in the arena.
func (a *ProcessArena) Len() int { return len(a.byPID) }

// Each visits the candidates in snapshot order.
func (a *ProcessArena) Each(fn func(c *ProcessCandidate)) {
	for _, pid := range a.order {
		fn(a.byPID[pid])
	}
}

// Assigned returns the candidates claimed by at least one node or marked
// as a launcher parent, in snapshot order.
func (a *ProcessArena) Assigned() []*ProcessCandidate {
	var out []*ProcessCandidate
	a.Each(func(c *ProcessCandidate) {
		if c.Assigned != "" {
			out = append(out, c)
		}
	})
	return out
}

// Unassigned returns the candidates no node claimed, in snapshot order.
func (a *ProcessArena) Unassigned() []*ProcessCandidate {
	var out []*ProcessCandidate
	a.Each(func(c *ProcessCandidate) {
		if c.Assigned == "" {
			out = append(out, c)
		}
	})
	return out
}
