package domain

import "sort"

// Bank is a homogeneous name-keyed container of one entity kind. Looking
// up an absent name creates and stores a fresh entity under that name, so
// callers can accumulate evidence without an existence check first.
type Bank[E Entity] struct {
	kind  BankKind
	fresh func(name string) E
	items map[string]E
}

// NewBank returns an empty bank of the given kind. fresh constructs the
// default entity stored on first lookup of a name.
func NewBank[E Entity](kind BankKind, fresh func(name string) E) *Bank[E] {
	return &Bank[E]{
		kind:  kind,
		fresh: fresh,
		items: make(map[string]E),
	}
}

// Kind returns the bank's kind tag.
func (b *Bank[E]) Kind() BankKind { return b.kind }

// Get returns the entity stored under name, creating and storing a fresh
// one if none exists yet.
func (b *Bank[E]) Get(name string) E {
	if e, ok := b.items[name]; ok {
		return e
	}
	e := b.fresh(name)
	b.items[name] = e
	return e
}

// Lookup returns the entity stored under name without creating one.
func (b *Bank[E]) Lookup(name string) (E, bool) {
	e, ok := b.items[name]
	return e, ok
}

// Put stores e under its own name, replacing any previous entry.
func (b *Bank[E]) Put(e E) {
	b.items[e.EntityName()] = e
}

// Remove deletes the entry stored under name, if any.
func (b *Bank[E]) Remove(name string) {
	delete(b.items, name)
}

// Len returns the number of stored entities.
func (b *Bank[E]) Len() int { return len(b.items) }

// Names returns the stored names in sorted order.
func (b *Bank[E]) Names() []string {
	names := make([]string, 0, len(b.items))
	for name := range b.items {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Items exposes the live name-to-entity map. Callers must not replace
// entries with entities of a different name.
func (b *Bank[E]) Items() map[string]E { return b.items }

// SetItems replaces the bank contents wholesale, as when a persisted bank
// is loaded from disk.
func (b *Bank[E]) SetItems(items map[string]E) {
	if items == nil {
		items = make(map[string]E)
	}
	b.items = items
}
