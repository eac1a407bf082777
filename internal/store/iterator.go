package store

// ObjectIterator provides sequential access to listed objects.
//
// Iterators follow these rules:
//   - Order is the store's listing order; nothing is re-sorted
//   - Next() returns false after exhaustion or after Close() is called
//   - Close() is idempotent
//   - Err() may be called after exhaustion or close
type ObjectIterator interface {
	// Next advances to the next object.
	// Returns true if there is a next object, false if exhausted or closed.
	Next() bool

	// Object returns the current object.
	// Only valid after Next() returns true.
	Object() ObjectInfo

	// Err returns any error encountered during iteration.
	Err() error

	// Close releases resources held by the iterator.
	// Safe to call multiple times.
	Close() error
}

// ListingIterator iterates over the objects of one listing page.
type ListingIterator struct {
	objects []ObjectInfo
	index   int
	current ObjectInfo
	err     error
	closed  bool
}

// NewListingIterator creates an iterator over page. The iterator does not
// modify the page's slice.
func NewListingIterator(page ListPage) *ListingIterator {
	return &ListingIterator{
		objects: page.Objects,
		index:   -1, // Start before first element
	}
}

// Next advances to the next object.
func (it *ListingIterator) Next() bool {
	if it.closed {
		return false
	}

	it.index++

	if it.index >= len(it.objects) {
		return false
	}

	it.current = it.objects[it.index]
	return true
}

// Object returns the current object.
func (it *ListingIterator) Object() ObjectInfo {
	return it.current
}

// Err returns any error encountered during iteration.
// A listing page is fully materialized, so this is always nil; the method
// exists for the ObjectIterator contract.
func (it *ListingIterator) Err() error {
	return it.err
}

// Close releases the page and marks the iterator as closed. Idempotent.
func (it *ListingIterator) Close() error {
	it.closed = true
	it.objects = nil
	return nil
}

// Ensure ListingIterator implements ObjectIterator
var _ ObjectIterator = (*ListingIterator)(nil)

// EmptyIterator is an iterator that yields no objects.
type EmptyIterator struct {
	closed bool
}

// NewEmptyIterator creates an iterator that yields no objects.
func NewEmptyIterator() *EmptyIterator {
	return &EmptyIterator{}
}

// Next always returns false.
func (it *EmptyIterator) Next() bool {
	return false
}

// Object returns a zero ObjectInfo.
func (it *EmptyIterator) Object() ObjectInfo {
	return ObjectInfo{}
}

// Err returns nil.
func (it *EmptyIterator) Err() error {
	return nil
}

// Close marks the iterator as closed. Idempotent.
func (it *EmptyIterator) Close() error {
	it.closed = true
	return nil
}

// Ensure EmptyIterator implements ObjectIterator
var _ ObjectIterator = (*EmptyIterator)(nil)

// Iterate returns an iterator over page, or an EmptyIterator when the
// page has no objects.
func Iterate(page ListPage) ObjectIterator {
	if len(page.Objects) == 0 {
		return NewEmptyIterator()
	}
	return NewListingIterator(page)
}
