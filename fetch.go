package warehouse

import "unsafe"

// Fetch is per-query state bound to one archetype. The ordering contract
// for a chunk of ChunkSize rows: SkipChunk is called once; if false,
// VisitChunk is called once the first time an item in the chunk is not
// skipped; SkipItem and GetItem are called for each row in order.
type Fetch interface {
	SkipChunk(chunkIdx int) bool
	VisitChunk(chunkIdx int)
	SkipItem(row int) bool
	GetItem(row int) unsafe.Pointer
}

// readFetch is the Fetch for a Read(T) query: no pruning, no epoch writes.
type readFetch struct {
	col *column
}

func (f readFetch) SkipChunk(int) bool  { return false }
func (f readFetch) VisitChunk(int)      {}
func (f readFetch) SkipItem(int) bool   { return false }
func (f readFetch) GetItem(row int) unsafe.Pointer {
	return f.col.elemPtr(row)
}

// writeFetch is the Fetch for a Write(T) query. VisitChunk bumps the chunk
// epoch once per visited chunk; GetItem bumps the entity (and archetype)
// epoch on every row actually produced.
type writeFetch struct {
	col   *column
	epoch EpochID
}

func (f writeFetch) SkipChunk(int) bool { return false }

func (f writeFetch) VisitChunk(chunkIdx int) {
	f.col.chunkEpochs[chunkIdx] = f.col.chunkEpochs[chunkIdx].BumpAgain(f.epoch)
}

func (f writeFetch) SkipItem(int) bool { return false }

func (f writeFetch) GetItem(row int) unsafe.Pointer {
	f.col.archetypeEpoch = f.col.archetypeEpoch.BumpAgain(f.epoch)
	f.col.entityEpochs[row] = f.col.entityEpochs[row].Bump(f.epoch)
	return f.col.elemPtr(row)
}

// modifiedFetch wraps another Fetch and prunes at every granularity using
// the wrapped type's own epoch arrays, exactly mirroring how edict's
// ModifiedFetchAlt layers "changed since" pruning over a plain write fetch.
type modifiedFetch struct {
	inner      Fetch
	col        *column
	afterEpoch EpochID
}

func (f modifiedFetch) SkipChunk(chunkIdx int) bool {
	return !f.col.chunkEpochs[chunkIdx].After(f.afterEpoch)
}

func (f modifiedFetch) VisitChunk(chunkIdx int) {
	f.inner.VisitChunk(chunkIdx)
}

func (f modifiedFetch) SkipItem(row int) bool {
	return !f.col.entityEpochs[row].After(f.afterEpoch)
}

func (f modifiedFetch) GetItem(row int) unsafe.Pointer {
	return f.inner.GetItem(row)
}

// filterFetch is the Fetch for filters (With/Without): Item is unused, it
// contributes only via SkipChunk/SkipItem, which are always false once
// skip_archetype has already pruned structurally.
type filterFetch struct{}

func (filterFetch) SkipChunk(int) bool         { return false }
func (filterFetch) VisitChunk(int)             {}
func (filterFetch) SkipItem(int) bool          { return false }
func (filterFetch) GetItem(int) unsafe.Pointer { return nil }

// tupleFetch composes N fetches: SkipChunk is OR, VisitChunk visits every
// member once the chunk isn't skipped, SkipItem is OR, GetItem fans out.
type tupleFetch struct {
	members []Fetch
}

func (f tupleFetch) SkipChunk(chunkIdx int) bool {
	for _, m := range f.members {
		if m.SkipChunk(chunkIdx) {
			return true
		}
	}
	return false
}

func (f tupleFetch) VisitChunk(chunkIdx int) {
	for _, m := range f.members {
		m.VisitChunk(chunkIdx)
	}
}

func (f tupleFetch) SkipItem(row int) bool {
	for _, m := range f.members {
		if m.SkipItem(row) {
			return true
		}
	}
	return false
}

func (f tupleFetch) GetItem(row int) unsafe.Pointer {
	// Tuple items are read back out through each member's own
	// AccessibleComponent accessor, not through this pointer; GetItem
	// still runs every member so epoch stamps apply uniformly.
	var last unsafe.Pointer
	for _, m := range f.members {
		last = m.GetItem(row)
	}
	return last
}
