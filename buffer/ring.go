// Package buffer holds the fixed-capacity sample history used by the lidar view.
package buffer

import "fmt"

// InvalidCapacityError is returned when a buffer is created with no slots.
type InvalidCapacityError struct {
	Capacity int
}

func (err InvalidCapacityError) Error() string {
	return fmt.Sprintf("invalid buffer capacity %d; must be at least 1", err.Capacity)
}

// Ring is a circular buffer that always holds exactly Cap() samples.
// Adding a sample overwrites the slot under the write cursor and advances the
// cursor, wrapping silently. A Ring is not safe for concurrent use.
type Ring[T any] struct {
	slots  []T
	cursor int
	added  uint64
}

// New returns a ring of the given capacity with every slot set to zero.
func New[T any](capacity int, zero T) (*Ring[T], error) {
	if capacity < 1 {
		return nil, InvalidCapacityError{Capacity: capacity}
	}

	r := &Ring[T]{slots: make([]T, capacity)}
	for i := range r.slots {
		r.slots[i] = zero
	}
	return r, nil
}

// Add writes sample at the cursor and returns the slot it was written to.
func (r *Ring[T]) Add(sample T) (slot int) {
	slot = r.cursor
	r.slots[slot] = sample
	r.cursor = (r.cursor + 1) % len(r.slots)
	r.added++
	return
}

// Snapshot copies every slot in storage order. Once the buffer has wrapped,
// storage order is not chronological; callers that care must order by the
// samples' own timestamps.
func (r *Ring[T]) Snapshot() []T {
	out := make([]T, len(r.slots))
	copy(out, r.slots)
	return out
}

// At returns the sample stored in slot i.
func (r *Ring[T]) At(i int) T {
	return r.slots[i]
}

// Latest returns the most recently added sample, or false if nothing has
// been added yet.
func (r *Ring[T]) Latest() (sample T, ok bool) {
	if r.added == 0 {
		return sample, false
	}
	i := (r.cursor - 1 + len(r.slots)) % len(r.slots)
	return r.slots[i], true
}

// Cap is the fixed number of slots.
func (r *Ring[T]) Cap() int {
	return len(r.slots)
}

// Len always equals Cap; slots are never empty.
func (r *Ring[T]) Len() int {
	return len(r.slots)
}

// Cursor is the slot the next Add will overwrite.
func (r *Ring[T]) Cursor() int {
	return r.cursor
}

// Added counts every Add since creation, including overwrites.
func (r *Ring[T]) Added() uint64 {
	return r.added
}
