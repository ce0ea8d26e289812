package content

import (
	"errors"

	"github.com/example/translatebot/pkg/models"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// ErrNoContent is returned when no content set could be discovered.
var ErrNoContent = errors.New("no content sets available")

// Store holds the content sets loaded at startup. It is never mutated after
// construction and is safe for concurrent use.
type Store struct {
	sets  map[string][]models.Item
	names []string
}

// NewStore builds a store from already loaded sets. Names are ordered with the
// collation rules of lang so the menu order is stable across restarts.
func NewStore(sets map[string][]models.Item, lang language.Tag) *Store {
	s := &Store{sets: make(map[string][]models.Item, len(sets))}
	for name, items := range sets {
		s.sets[name] = append([]models.Item(nil), items...)
		s.names = append(s.names, name)
	}
	collate.New(lang).SortStrings(s.names)
	return s
}

// Names returns content set names in menu order.
func (s *Store) Names() []string {
	return append([]string(nil), s.names...)
}

// Default returns the first content set name, or "" when the store is empty.
func (s *Store) Default() string {
	if len(s.names) == 0 {
		return ""
	}
	return s.names[0]
}

// Empty reports whether no content set is loaded.
func (s *Store) Empty() bool {
	return len(s.names) == 0
}

// Has reports whether a set with this name exists.
func (s *Store) Has(name string) bool {
	_, ok := s.sets[name]
	return ok
}

// Len returns the number of items in a set, 0 for unknown sets.
func (s *Store) Len(name string) int {
	return len(s.sets[name])
}

// Item returns item i of the named set.
func (s *Store) Item(name string, i int) (models.Item, bool) {
	items, ok := s.sets[name]
	if !ok || i < 0 || i >= len(items) {
		return models.Item{}, false
	}
	return items[i], true
}
