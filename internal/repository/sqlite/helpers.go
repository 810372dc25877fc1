package sqlite

import (
	"database/sql"
	"encoding/json"
	"time"

	"graphsnap/internal/domain"
)

// nullToBool converts sql.NullInt64 to bool (0 = false, non-zero = true)
func nullToBool(ni sql.NullInt64) bool {
	return ni.Valid && ni.Int64 != 0
}

// boolToInt converts bool to the 0/1 form stored in INTEGER columns
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// runRow holds all columns from a runs query for scanning
type runRow struct {
	ID          string
	Hostname    string
	StartedAt   time.Time
	FinishedAt  time.Time
	SpecUpdated sql.NullInt64
}

// scanArgs returns pointers to all fields for sql.Scan()
// MUST match runColumns order exactly:
// id, hostname, started_at, finished_at, spec_updated
func (r *runRow) scanArgs() []any {
	return []any{
		&r.ID,
		&r.Hostname,
		&r.StartedAt,
		&r.FinishedAt,
		&r.SpecUpdated,
	}
}

// toDomain converts the scanned row to a domain.Run
func (r *runRow) toDomain() domain.Run {
	return domain.Run{
		ID:          r.ID,
		Hostname:    r.Hostname,
		StartedAt:   r.StartedAt,
		FinishedAt:  r.FinishedAt,
		SpecUpdated: nullToBool(r.SpecUpdated),
	}
}

// runColumns returns the SELECT column list for run queries
const runColumns = `id, hostname, started_at, finished_at, spec_updated`

// bankSlot adapts one typed bank of a model to the blob operations the
// archive performs.
type bankSlot struct {
	kind      domain.BankKind
	count     func() int
	marshal   func() ([]byte, error)
	unmarshal func(data []byte) error
}

func slotFor[E domain.Entity](b *domain.Bank[E]) bankSlot {
	return bankSlot{
		kind:  b.Kind(),
		count: b.Len,
		marshal: func() ([]byte, error) {
			return json.Marshal(b.Items())
		},
		unmarshal: func(data []byte) error {
			items := make(map[string]E)
			if err := json.Unmarshal(data, &items); err != nil {
				return err
			}
			b.SetItems(items)
			return nil
		},
	}
}

// modelSlots lists every bank of m, deployment banks first.
func modelSlots(m *domain.Model) []bankSlot {
	return []bankSlot{
		slotFor(m.Nodes),
		slotFor(m.Topics),
		slotFor(m.Actions),
		slotFor(m.Services),
		slotFor(m.Parameters),
		slotFor(m.Machines),
		slotFor(m.PackageSpecifications),
		slotFor(m.NodeSpecifications),
		slotFor(m.MessageSpecifications),
		slotFor(m.ServiceSpecifications),
		slotFor(m.ActionSpecifications),
	}
}

// slotByOutputName finds the slot whose bank persists under name.
func slotByOutputName(m *domain.Model, name string) (bankSlot, bool) {
	for _, slot := range modelSlots(m) {
		if slot.kind.OutputName() == name {
			return slot, true
		}
	}
	return bankSlot{}, false
}

// kindFromOutputName inverts domain.BankKind.OutputName.
func kindFromOutputName(name string) (domain.BankKind, bool) {
	for _, kind := range domain.AllBankKinds {
		if kind.OutputName() == name {
			return kind, true
		}
	}
	return "", false
}
