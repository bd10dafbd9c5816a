package warehouse

import "unsafe"

// ArchetypeID identifies an archetype within one World's archetype table.
type ArchetypeID uint32

// Archetype bundles one TypeIdSet with one column per component type and
// one EntityId row vector. Its TypeIdSet is frozen at construction: an
// Archetype is never mutated structurally, only grown, shrunk, and moved
// into/out of by the relocation helpers below.
type Archetype struct {
	id       ArchetypeID
	set      TypeIdSet
	columns  []*column
	entities []EntityId
	borrows  *BorrowTable
}

// newArchetype builds an archetype for exactly the given component infos.
func newArchetype(id ArchetypeID, infos []ComponentInfo) *Archetype {
	ids := make([]TypeID, len(infos))
	for i, info := range infos {
		ids[i] = info.TypeID
	}
	set := NewTypeIdSet(ids...)

	columns := make([]*column, set.UpperBound())
	for _, info := range infos {
		idx, ok := set.IndexOf(info.TypeID)
		if !ok {
			continue
		}
		columns[idx] = newColumn(info)
	}

	return &Archetype{
		id:      id,
		set:     set,
		columns: columns,
		borrows: newBorrowTable(set.UpperBound()),
	}
}

// ID returns this archetype's identifier within its World.
func (a *Archetype) ID() ArchetypeID { return a.id }

// Set returns the frozen component-type set this archetype stores.
func (a *Archetype) Set() TypeIdSet { return a.set }

// Len reports the number of live rows.
func (a *Archetype) Len() int { return len(a.entities) }

// Cap reports the current row capacity, authoritative across every column.
func (a *Archetype) Cap() int { return cap(a.entities) }

// EntityAt returns the entity occupying row i.
func (a *Archetype) EntityAt(row int) EntityId { return a.entities[row] }

// Column returns the column storing t, if this archetype carries it.
func (a *Archetype) Column(t TypeID) (*column, bool) {
	idx, ok := a.set.IndexOf(t)
	if !ok {
		return nil, false
	}
	return a.columns[idx], true
}

// ColumnIndex returns the dense column index for t.
func (a *Archetype) ColumnIndex(t TypeID) (int, bool) {
	return a.set.IndexOf(t)
}

// Borrows returns the per-column borrow table for this archetype.
func (a *Archetype) Borrows() *BorrowTable { return a.borrows }

// ColumnEpoch returns the archetype-level epoch last stamped for t, the
// value a Modified<Q> term consults in skip_archetype.
func (a *Archetype) ColumnEpoch(t TypeID) (EpochID, bool) {
	col, ok := a.Column(t)
	if !ok {
		return Start(), false
	}
	return col.archetypeEpoch, true
}

func growCap(oldCap, needed int) int {
	if oldCap == 0 {
		oldCap = 1
	}
	for oldCap < needed {
		oldCap *= 2
	}
	return oldCap
}

// reserve grows the EntityId vector by amortized doubling when additional
// rows won't fit, then grows every column to match.
func (a *Archetype) reserve(additional int) {
	needed := len(a.entities) + additional
	if needed <= cap(a.entities) {
		return
	}
	oldCap := cap(a.entities)
	newCap := growCap(oldCap, needed)

	newEntities := make([]EntityId, len(a.entities), newCap)
	copy(newEntities, a.entities)
	a.entities = newEntities

	for _, col := range a.columns {
		col.grow(len(a.entities), oldCap, newCap)
	}
}

// Spawn appends a new row holding exactly this archetype's component set,
// read out of values by type, and stamps every column at epoch. It returns
// the new row index.
func (a *Archetype) Spawn(entity EntityId, values map[TypeID]unsafe.Pointer, epoch EpochID) int {
	if len(values) != a.set.Len() {
		abort(abortf("spawn bundle has %d components, archetype wants %d", len(values), a.set.Len()))
	}
	if len(a.entities) == cap(a.entities) {
		a.reserve(1)
	}
	row := len(a.entities)

	for idx, t := range a.set.Indexed() {
		src, ok := values[t]
		if !ok {
			abort(abortf("spawn bundle missing component %v required by archetype", t))
		}
		col := a.columns[idx]
		col.writeRaw(row, src)
		col.stampSpawn(row, epoch)
	}

	a.entities = append(a.entities, entity)
	return row
}

// evictRow swap-removes row after giving dispose a chance to consume (copy
// elsewhere, or drop) each column's value at that row. It returns the
// entity that got swapped into row's place, if any.
func (a *Archetype) evictRow(row int, dispose func(col *column, ptr unsafe.Pointer, entity EntityId)) *EntityId {
	last := len(a.entities) - 1
	entity := a.entities[row]

	for _, col := range a.columns {
		ptr := col.elemPtr(row)
		dispose(col, ptr, entity)

		if row != last {
			movedEpoch := col.entityEpochs[last]
			col.info.copyOne(col.elemPtr(last), ptr)
			col.stampBackfill(row, movedEpoch)
		}
		if Config.Debug() {
			col.entityEpochs[last] = Start()
		}
	}

	var swapped *EntityId
	if row != last {
		moved := a.entities[last]
		swapped = &moved
		a.entities[row] = moved
	}
	a.entities = a.entities[:last]
	return swapped
}

// Despawn drops the value at row in every column with encoder (so
// destructors may enqueue deferred actions) and swap-removes the row.
func (a *Archetype) Despawn(row int, encoder *ActionEncoder) *EntityId {
	return a.evictRow(row, func(col *column, ptr unsafe.Pointer, entity EntityId) {
		col.info.dropOne(ptr, entity, encoder)
	})
}

// Get returns a pointer to the row's value for t; no epoch mutation.
func (a *Archetype) Get(row int, t TypeID) unsafe.Pointer {
	col, ok := a.Column(t)
	if !ok {
		abort(abortf("get: type %v not present in archetype", t))
	}
	return col.elemPtr(row)
}

// GetMut returns a mutable pointer to the row's value for t, stamping the
// column's archetype/chunk/entity epochs to epoch. Callers must have
// already advanced the world epoch so epoch > the column's prior stamp.
func (a *Archetype) GetMut(row int, t TypeID, epoch EpochID) unsafe.Pointer {
	col, ok := a.Column(t)
	if !ok {
		abort(abortf("get_mut: type %v not present in archetype", t))
	}
	col.stampWrite(row, epoch)
	return col.elemPtr(row)
}

// relocateRow is the shared skeleton behind insert_bundle/insert/remove/
// drop_bundle: copy what the destination archetype can hold, dispose of
// what it can't, write any newly introduced components, and swap-remove
// the vacated source row.
func relocateRow(src *Archetype, srcRow int, dst *Archetype, newValues map[TypeID]unsafe.Pointer, epoch EpochID, encoder *ActionEncoder) (dstRow int, swapped *EntityId) {
	dst.reserve(1)
	dstRow = len(dst.entities)

	entity := src.entities[srcRow]

	swapped = src.evictRow(srcRow, func(col *column, ptr unsafe.Pointer, ent EntityId) {
		t := col.info.TypeID
		if idx, ok := dst.set.IndexOf(t); ok {
			dstCol := dst.columns[idx]
			sourceEpoch := col.entityEpochs[srcRow]
			dstCol.writeRaw(dstRow, ptr)
			dstCol.stampRelocated(dstRow, sourceEpoch)
		} else {
			col.info.dropOne(ptr, ent, encoder)
		}
	})

	for t, ptr := range newValues {
		idx, ok := dst.set.IndexOf(t)
		if !ok {
			abort(abortf("insert bundle has component %v not present in destination archetype", t))
		}
		if _, presentInSrc := src.set.IndexOf(t); presentInSrc {
			continue
		}
		dstCol := dst.columns[idx]
		dstCol.writeRaw(dstRow, ptr)
		dstCol.stampInsert(dstRow, epoch)
	}

	dst.entities = append(dst.entities, entity)
	return dstRow, swapped
}
