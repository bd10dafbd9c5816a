package warehouse

// factory implements the factory pattern for warehouse's public constructors.
type factory struct{}

// Factory is the global factory instance for creating warehouse components.
var Factory factory

// NewStorage creates a new, empty World.
func (f factory) NewStorage() Storage {
	return newStorage()
}

// NewQuery creates a new structural filter builder (And/Or/Not over
// Components), for composing with NewCursor's optional filter argument.
func (f factory) NewQuery() Query {
	return newQuery()
}

// NewCursor creates a Cursor driving one query pass over terms (the tupled
// Read/Write/Modified access declarations), optionally narrowed by filter
// (an And/Or/Not tree built from Query, or nil).
func (f factory) NewCursor(terms []Term, filter QueryNode, storage Storage) *Cursor {
	return newCursor(terms, filter, storage)
}

// FactoryNewComponent registers T and returns its AccessibleComponent
// handle. Safe to call repeatedly for the same T.
func FactoryNewComponent[T any]() AccessibleComponent[T] {
	return AccessibleComponent[T]{info: RegisterComponentInfo[T]()}
}

// FactoryNewCache creates a new Cache with the specified capacity.
func FactoryNewCache[T any](cap int) Cache[T] {
	return &SimpleCache[T]{
		itemIndices: make(map[string]int),
		maxCapacity: cap,
	}
}
