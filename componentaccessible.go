package warehouse

// AccessibleComponent is the handle returned by FactoryNewComponent[T]. It
// identifies T's registered ComponentInfo and knows how to read or write T
// at a Cursor's current row or an Entity's current location, and how to
// build the Read/Write access terms a query tuples together.
type AccessibleComponent[T any] struct {
	info ComponentInfo
}

var _ Component = AccessibleComponent[int]{}

func (c AccessibleComponent[T]) TypeID() TypeID      { return c.info.TypeID }
func (c AccessibleComponent[T]) Info() ComponentInfo { return c.info }

// Read declares a read-only access term for T.
func (c AccessibleComponent[T]) Read() Term { return readTerm{t: c.info.TypeID} }

// Write declares a read-write access term for T.
func (c AccessibleComponent[T]) Write() Term { return writeTerm{t: c.info.TypeID} }

// GetFromCursor reads T at the cursor's current row without touching epochs.
func (c AccessibleComponent[T]) GetFromCursor(cursor *Cursor) *T {
	return (*T)(cursor.currentArchetype.Get(cursor.current, c.info.TypeID))
}

// GetFromCursorMut reads T at the cursor's current row, stamping the
// column's epoch hierarchy to the pass epoch the Cursor bumped at Initialize.
// The stamp is idempotent within the pass, so it agrees with the stamp a
// Write term's fetch already applied to the same row.
func (c AccessibleComponent[T]) GetFromCursorMut(cursor *Cursor) *T {
	row, epoch := cursor.current, cursor.epoch
	col, ok := cursor.currentArchetype.Column(c.info.TypeID)
	if !ok {
		abort(abortf("get_mut: type %v not present in archetype", c.info.TypeID))
	}
	col.archetypeEpoch = col.archetypeEpoch.BumpAgain(epoch)
	col.setChunkEpoch(row, col.chunkEpochAt(row).BumpAgain(epoch))
	col.entityEpochs[row] = col.entityEpochs[row].BumpAgain(epoch)
	return (*T)(col.elemPtr(row))
}

// GetFromCursorSafe is GetFromCursor guarded by a presence check, for
// optional components in a tuple query.
func (c AccessibleComponent[T]) GetFromCursorSafe(cursor *Cursor) (bool, *T) {
	if !c.CheckCursor(cursor) {
		return false, nil
	}
	return true, c.GetFromCursor(cursor)
}

// CheckCursor reports whether T is present in the cursor's current archetype.
func (c AccessibleComponent[T]) CheckCursor(cursor *Cursor) bool {
	_, ok := cursor.currentArchetype.Column(c.info.TypeID)
	return ok
}

// GetFromEntity reads T at entity's current location without touching
// epochs. Returns NoSuchEntityError if entity has no location on record
// (stale or already despawned), matching the same recoverable error Storage
// returns for this condition elsewhere in the package.
func (c AccessibleComponent[T]) GetFromEntity(entity Entity) (*T, error) {
	arch, row, err := c.locate(entity)
	if err != nil {
		return nil, err
	}
	return (*T)(arch.Get(row, c.info.TypeID)), nil
}

// GetFromEntityMut reads T at entity's current location, stamping the
// column's epoch hierarchy to epoch. Callers must have already advanced the
// World's epoch counter. Returns NoSuchEntityError if entity has no location
// on record.
func (c AccessibleComponent[T]) GetFromEntityMut(entity Entity, epoch EpochID) (*T, error) {
	arch, row, err := c.locate(entity)
	if err != nil {
		return nil, err
	}
	return (*T)(arch.GetMut(row, c.info.TypeID, epoch)), nil
}

func (c AccessibleComponent[T]) locate(entity Entity) (*Archetype, int, error) {
	arch, row, ok := entity.Storage().location(entity.ID())
	if !ok {
		return nil, 0, NoSuchEntityError{Entity: entity.ID()}
	}
	return arch, row, nil
}
