package spread

import "fmt"

type EntryState int

const (
	// Preserved means the entry matches what is (or would be) in the store.
	Preserved EntryState = iota
	// Mutated means the entry must be written back to become durable.
	Mutated
)

func (s EntryState) String() string {
	switch s {
	case Preserved:
		return "Preserved"
	case Mutated:
		return "Mutated"
	default:
		return fmt.Sprintf("EntryState(%d)", int(s))
	}
}

func (s EntryState) IsMutated() bool {
	return s == Mutated
}

// StorageEntry holds an optional decoded value and its dirty state.
// A nil value is a tombstone: the slot is known to hold nothing.
type StorageEntry[T any] struct {
	value *T
	state EntryState
}

func NewEntry[T any](value *T, state EntryState) *StorageEntry[T] {
	return &StorageEntry[T]{value: value, state: state}
}

func (e *StorageEntry[T]) Value() *T {
	return e.value
}

// Put replaces the value and returns the previous one. The state is left
// alone; callers pair Put with ReplaceState.
func (e *StorageEntry[T]) Put(value *T) *T {
	old := e.value
	e.value = value
	return old
}

func (e *StorageEntry[T]) State() EntryState {
	return e.state
}

// ReplaceState sets the state and returns the previous one.
func (e *StorageEntry[T]) ReplaceState(state EntryState) EntryState {
	old := e.state
	e.state = state
	return old
}

func (e *StorageEntry[T]) IsMutated() bool {
	return e.state.IsMutated()
}

func (e *StorageEntry[T]) String() string {
	if e == nil {
		return "<none>"
	}
	if e.value == nil {
		return fmt.Sprintf("Entry{value: <none>, state: %v}", e.state)
	}
	return fmt.Sprintf("Entry{value: %v, state: %v}", *e.value, e.state)
}
