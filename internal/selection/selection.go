// Package selection tracks which catalog agents the user has chosen.
package selection

import (
	"errors"
	"fmt"
	"slices"

	"github.com/soyeahso/somc/internal/domain"
)

// ErrUnknownAgent is returned when toggling an id the catalog does not hold.
var ErrUnknownAgent = errors.New("unknown agent")

// Resolver looks up agents by id. *catalog.Catalog satisfies it.
type Resolver interface {
	Lookup(id string) (domain.Agent, bool)
}

// Set is an insertion-ordered set of agent ids bound to a catalog.
// It is not safe for concurrent use; the owning controller serializes access.
type Set struct {
	catalog Resolver
	order   []string
	members map[string]struct{}
}

// New returns an empty Set resolving ids against catalog.
func New(catalog Resolver) *Set {
	return &Set{
		catalog: catalog,
		members: make(map[string]struct{}),
	}
}

// Toggle adds id if absent and removes it if present. It reports whether
// id is selected afterwards. Ids missing from the catalog are rejected and
// leave the set unchanged.
func (s *Set) Toggle(id string) (bool, error) {
	if _, ok := s.members[id]; ok {
		delete(s.members, id)
		s.order = slices.DeleteFunc(s.order, func(v string) bool { return v == id })
		return false, nil
	}
	if _, ok := s.catalog.Lookup(id); !ok {
		return false, fmt.Errorf("%w: %q", ErrUnknownAgent, id)
	}
	s.members[id] = struct{}{}
	s.order = append(s.order, id)
	return true, nil
}

// Contains reports whether id is selected.
func (s *Set) Contains(id string) bool {
	_, ok := s.members[id]
	return ok
}

// Len returns the number of selected agents.
func (s *Set) Len() int {
	return len(s.order)
}

// IDs returns the selected ids in insertion order.
func (s *Set) IDs() []string {
	return slices.Clone(s.order)
}

// Snapshot materializes the selected agents in insertion order. The returned
// slice is a copy; later toggles do not affect it.
func (s *Set) Snapshot() []domain.Agent {
	out := make([]domain.Agent, 0, len(s.order))
	for _, id := range s.order {
		if a, ok := s.catalog.Lookup(id); ok {
			out = append(out, a)
		}
	}
	return out
}
