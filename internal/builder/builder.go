package builder

import (
	"sort"
	"strings"
)

// Builder is the common surface of the per-entity accumulation types. A
// builder gathers facts about exactly one named entity and is extracted
// once, at the end of a session, into an immutable record.
type Builder interface {
	Name() string
	NameSuffix() string
	NameBase() string
}

// entityBuilder carries the name tokens shared by every builder kind.
// Names are slash-delimited graph names such as "/turtle1/cmd_vel".
type entityBuilder struct {
	name       string
	nameSuffix string
	nameBase   string
}

func newEntityBuilder(name string) entityBuilder {
	tokens := strings.Split(name, "/")
	return entityBuilder{
		name:       name,
		nameSuffix: "/" + tokens[len(tokens)-1],
		nameBase:   strings.Join(tokens[:len(tokens)-1], "/"),
	}
}

// Name returns the full entity name.
func (b *entityBuilder) Name() string { return b.name }

// NameSuffix returns the trailing name token with its leading slash.
func (b *entityBuilder) NameSuffix() string { return b.nameSuffix }

// NameBase returns everything before the trailing token.
func (b *entityBuilder) NameBase() string { return b.nameBase }

// builderMap is the name-keyed store embedded by the bank builders.
// Lookups through get create builders on demand; the exported surface
// never creates.
type builderMap[B Builder] struct {
	byName map[string]B
}

func (s *builderMap[B]) get(name string, fresh func(string) B) B {
	if s.byName == nil {
		s.byName = make(map[string]B)
	}
	if b, ok := s.byName[name]; ok {
		return b
	}
	b := fresh(name)
	s.byName[name] = b
	return b
}

// Lookup returns the builder stored under name without creating one.
func (s *builderMap[B]) Lookup(name string) (B, bool) {
	b, ok := s.byName[name]
	return b, ok
}

// Put stores b under its own name, replacing any previous builder.
func (s *builderMap[B]) Put(b B) {
	if s.byName == nil {
		s.byName = make(map[string]B)
	}
	s.byName[b.Name()] = b
}

// Remove drops the builder stored under name, if any.
func (s *builderMap[B]) Remove(name string) {
	delete(s.byName, name)
}

// Len returns the number of stored builders.
func (s *builderMap[B]) Len() int { return len(s.byName) }

// Names returns the stored names in sorted order.
func (s *builderMap[B]) Names() []string {
	return sortedKeys(s.byName)
}

// Each visits every stored builder in sorted name order.
func (s *builderMap[B]) Each(fn func(name string, b B)) {
	for _, name := range s.Names() {
		fn(name, s.byName[name])
	}
}

// filter drops every builder the predicate rejects. The store is replaced
// wholesale so an aborted walk cannot leave it half filtered.
func (s *builderMap[B]) filter(drop func(name string, b B) bool) {
	kept := make(map[string]B, len(s.byName))
	for name, b := range s.byName {
		if !drop(name, b) {
			kept[name] = b
		}
	}
	s.byName = kept
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedSet(m map[string]struct{}) []string {
	if len(m) == 0 {
		return nil
	}
	return sortedKeys(m)
}
