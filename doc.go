/*
Package warehouse implements an archetype-based entity-component-system
storage and query engine: entities sharing the same component set are
stored together in column-major archetypes, with per-entity, per-chunk, and
per-archetype epoch stamps that let queries prune work without scanning
every row, and a dynamic borrow table that catches aliasing a static
scheduler failed to rule out.

Core Concepts:

  - Entity: an opaque handle the World maps to an (archetype, row) location.
  - Component: a typed attribute registered once via FactoryNewComponent.
  - Archetype: the storage group for entities sharing an exact component set.
  - Term: a Read(T), Write(T), Modified(T), With(T), or Without(T) access
    declaration; a Cursor's terms tuple together into one query pass.

Basic Usage:

	storage := warehouse.Factory.NewStorage()

	position := warehouse.FactoryNewComponent[Position]()
	velocity := warehouse.FactoryNewComponent[Velocity]()

	entities, _ := storage.NewEntities(100, position, velocity)

	cursor := warehouse.Factory.NewCursor(
		[]warehouse.Term{position.Write(), velocity.Read()}, nil, storage,
	)
	for cursor.Next() {
		pos := position.GetFromCursorMut(cursor)
		vel := velocity.GetFromCursor(cursor)
		pos.X += vel.X
		pos.Y += vel.Y
	}

A Query built from warehouse.Factory.NewQuery() composes structural
And/Or/Not constraints over Components and can be passed as the filter
argument to NewCursor alongside (or instead of) a Term tuple, mirroring
TypeIdSet-level With/Without filtering.
*/
package warehouse
