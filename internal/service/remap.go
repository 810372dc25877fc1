package service

import (
	"sort"

	log "github.com/sirupsen/logrus"

	"graphsnap/internal/domain"
)

// RemapperBank inverts bank references, mapping a data value such as an
// executable path back to the specification names that declared it. One
// value can belong to several specifications.
type RemapperBank struct {
	byData map[string][]string
}

// NewRemapperBank returns an empty remapper.
func NewRemapperBank() *RemapperBank {
	return &RemapperBank{byData: make(map[string][]string)}
}

// AddRemap records that dataName belongs to key. Re-adding an existing
// pair is a no-op; a second distinct key extends the entry.
func (r *RemapperBank) AddRemap(dataName, key string) {
	existing := r.byData[dataName]
	for _, k := range existing {
		if k == key {
			return
		}
	}
	if len(existing) > 0 {
		log.WithFields(log.Fields{
			"data":     dataName,
			"key":      key,
			"existing": existing,
		}).Info("data maps to multiple specifications")
	}
	r.byData[dataName] = append(existing, key)
}

// First returns the first key recorded for dataName.
func (r *RemapperBank) First(dataName string) (string, bool) {
	keys := r.byData[dataName]
	if len(keys) == 0 {
		return "", false
	}
	return keys[0], true
}

// Lookup returns every key recorded for dataName.
func (r *RemapperBank) Lookup(dataName string) ([]string, bool) {
	keys, ok := r.byData[dataName]
	return keys, ok
}

// Keys returns the recorded data names in sorted order.
func (r *RemapperBank) Keys() []string {
	keys := make([]string, 0, len(r.byData))
	for k := range r.byData {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of recorded data names.
func (r *RemapperBank) Len() int { return len(r.byData) }

// nodeSpecRemapper indexes every node specification under the executable
// file paths it was recorded for.
func nodeSpecRemapper(specs *domain.Bank[*domain.NodeSpecification]) *RemapperBank {
	remapper := NewRemapperBank()
	for _, name := range specs.Names() {
		spec, _ := specs.Lookup(name)
		for _, filePath := range spec.FilePath {
			remapper.AddRemap(filePath, spec.Name)
		}
	}
	return remapper
}
