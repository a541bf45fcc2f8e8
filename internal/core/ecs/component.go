package ecs

// Detacher is a component store the Registry clears when an entity is
// destroyed.
type Detacher interface {
	Detach(id EntityID)
}

// Store holds one component type, by pointer, for the entities that carry
// it. Systems mutate components in place through Lookup.
type Store[T any] struct {
	byID map[EntityID]*T
}

// NewStore returns an empty store presized for sizeHint entities.
func NewStore[T any](sizeHint int) *Store[T] {
	return &Store[T]{byID: make(map[EntityID]*T, sizeHint)}
}

// Attach gives id the component c, replacing any previous one.
func (s *Store[T]) Attach(id EntityID, c *T) { s.byID[id] = c }

func (s *Store[T]) Lookup(id EntityID) (*T, bool) {
	c, ok := s.byID[id]
	return c, ok
}

// Detach drops id's component. Ids without one are ignored.
func (s *Store[T]) Detach(id EntityID) { delete(s.byID, id) }

func (s *Store[T]) Carries(id EntityID) bool {
	_, ok := s.byID[id]
	return ok
}

// Len returns how many entities carry the component.
func (s *Store[T]) Len() int { return len(s.byID) }
