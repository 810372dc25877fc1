package adapter

import (
	"context"
	"sort"
	"strings"

	"github.com/shirou/gopsutil/v4/process"
	log "github.com/sirupsen/logrus"
)

// PsutilSource enumerates live OS processes and keeps the graph-like ones.
type PsutilSource struct{}

// NewPsutilSource returns a ProcessSource backed by the local process
// table.
func NewPsutilSource() *PsutilSource { return &PsutilSource{} }

// Snapshot classifies every visible process and returns the kept records,
// launch tools first. Processes that vanish or deny access mid-walk are
// skipped.
func (s *PsutilSource) Snapshot(ctx context.Context) ([]ProcessRecord, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, err
	}

	records := make([]ProcessRecord, 0, 16)
	for _, p := range procs {
		record, ok := s.record(ctx, p)
		if !ok {
			continue
		}
		records = append(records, record)
	}

	SortProcessRecords(records)
	log.WithField("count", len(records)).Debug("classified graph-like processes")
	return records, nil
}

func (s *PsutilSource) record(ctx context.Context, p *process.Process) (ProcessRecord, bool) {
	name, err := p.NameWithContext(ctx)
	if err != nil {
		return ProcessRecord{}, false
	}
	cmdline, err := p.CmdlineSliceWithContext(ctx)
	if err != nil {
		cmdline = nil
	}
	cmdline = dropEmpty(cmdline)

	// Exe resolution is unreliable for foreign processes; classification
	// falls back to the command line when it is empty.
	exe, _ := p.ExeWithContext(ctx)

	reason, keep := Classify(name, cmdline, exe)
	if !keep {
		return ProcessRecord{}, false
	}

	record := ProcessRecord{
		PID:     p.Pid,
		Name:    name,
		Cmdline: cmdline,
		Exe:     exe,
		Reason:  reason,
	}
	if ppid, err := p.PpidWithContext(ctx); err == nil {
		record.PPID = ppid
	}
	if threads, err := p.NumThreadsWithContext(ctx); err == nil {
		record.NumThreads = threads
	}
	if mem, err := p.MemoryInfoWithContext(ctx); err == nil && mem != nil {
		record.MemoryInfo = mem.String()
	}
	if pct, err := p.MemoryPercentWithContext(ctx); err == nil {
		record.MemoryPercent = pct
	}
	if pct, err := p.CPUPercentWithContext(ctx); err == nil {
		record.CPUPercent = pct
	}

	log.WithFields(log.Fields{
		"pid":    record.PID,
		"name":   record.Name,
		"reason": record.Reason,
	}).Debug("kept graph-like process")
	return record, true
}

// SortProcessRecords orders records for readability: launch tools first,
// run invocations second, then by name and pid.
func SortProcessRecords(records []ProcessRecord) {
	sort.Slice(records, func(i, j int) bool {
		ri, rj := launchRank(records[i]), launchRank(records[j])
		if ri != rj {
			return ri < rj
		}
		ni, nj := strings.ToLower(records[i].Name), strings.ToLower(records[j].Name)
		if ni != nj {
			return ni < nj
		}
		return records[i].PID < records[j].PID
	})
}

func launchRank(r ProcessRecord) int {
	hay := strings.ToLower(strings.Join(r.Cmdline, " "))
	switch {
	case strings.Contains(hay, "ros2 launch") || strings.Contains(hay, "roslaunch"):
		return 0
	case strings.Contains(hay, "ros2 run") || strings.Contains(hay, "rosrun"):
		return 1
	default:
		return 2
	}
}

func dropEmpty(in []string) []string {
	out := in[:0]
	for _, s := range in {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
