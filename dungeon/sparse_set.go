package dungeon

// SparseSet stores values keyed by thing index with dense iteration.
type SparseSet[T any] struct {
	denseIDs    []int
	denseValues []T
	sparse      []int
}

// Has reports whether id is present.
func (s *SparseSet[T]) Has(id int) bool {
	if s == nil || id < 0 || id >= len(s.sparse) {
		return false
	}
	idx := s.sparse[id]
	return idx >= 0 && idx < len(s.denseIDs) && s.denseIDs[idx] == id
}

// Get returns the value for id.
func (s *SparseSet[T]) Get(id int) (T, bool) {
	var zero T
	if !s.Has(id) {
		return zero, false
	}
	return s.denseValues[s.sparse[id]], true
}

// Set inserts or replaces the value for id.
func (s *SparseSet[T]) Set(id int, v T) {
	if s == nil || id < 0 {
		return
	}
	for id >= len(s.sparse) {
		s.sparse = append(s.sparse, -1)
	}
	if s.Has(id) {
		s.denseValues[s.sparse[id]] = v
		return
	}
	s.denseIDs = append(s.denseIDs, id)
	s.denseValues = append(s.denseValues, v)
	s.sparse[id] = len(s.denseIDs) - 1
}

// Remove deletes id if present.
func (s *SparseSet[T]) Remove(id int) {
	if !s.Has(id) {
		return
	}
	idx := s.sparse[id]
	last := len(s.denseIDs) - 1
	lastID := s.denseIDs[last]

	s.denseIDs[idx] = s.denseIDs[last]
	s.denseValues[idx] = s.denseValues[last]
	s.sparse[lastID] = idx

	var zero T
	s.denseValues[last] = zero
	s.denseIDs = s.denseIDs[:last]
	s.denseValues = s.denseValues[:last]
	s.sparse[id] = -1
}

// Len returns the number of stored values.
func (s *SparseSet[T]) Len() int {
	if s == nil {
		return 0
	}
	return len(s.denseIDs)
}

// Values returns the dense value list. It is invalidated by Set and Remove.
func (s *SparseSet[T]) Values() []T {
	if s == nil {
		return nil
	}
	return s.denseValues
}
