package warehouse

import (
	"reflect"
	"unsafe"
)

// ChunkSize is the row granularity at which intermediate epoch tracking is
// kept. A chunk-epoch check prunes up to ChunkSize row-checks at the cost of
// reading one value.
const ChunkSize = 256

// column is a type-erased, contiguous array holding one component's values
// across all rows of one archetype, plus the epoch hierarchy that lets
// "changed since" queries prune work without scanning every row.
//
// Go has no manual free, so "the archetype owns the allocation" is expressed
// the way github.com/mlange-42/arche's archetype storage does it: the
// backing array lives behind a reflect.Value the column holds a reference
// to, and releasing that reference (on grow or on drop) lets the garbage
// collector reclaim it. The pointer arithmetic and copy semantics otherwise
// match the manual-memory design exactly.
type column struct {
	info ComponentInfo

	buf reflect.Value // backing [cap]T array; zero Value when info.Size == 0
	ptr unsafe.Pointer // base address of buf, or a dangling sentinel for size-0 types
	cap int

	archetypeEpoch EpochID
	chunkEpochs    []EpochID
	entityEpochs   []EpochID
}

var danglingSentinel byte

func newColumn(info ComponentInfo) *column {
	return &column{
		info: info,
		ptr:  unsafe.Pointer(&danglingSentinel),
	}
}

func chunkCount(cap int) int {
	if cap == 0 {
		return 0
	}
	return (cap + ChunkSize - 1) / ChunkSize
}

// grow reallocates the column to new_cap, preserving the first len live
// rows. The archetype-level epoch is untouched; only the two epoch arrays
// are resized, with fresh slots filled with Start().
func (c *column) grow(length, oldCap, newCap int) {
	if c.info.Size > 0 {
		newBuf := reflect.New(reflect.ArrayOf(newCap, c.info.goType)).Elem()
		newPtr := unsafe.Pointer(newBuf.UnsafeAddr())
		if length > 0 {
			c.info.copyN(c.ptr, newPtr, length)
		}
		c.buf = newBuf
		c.ptr = newPtr
	}

	newEntityEpochs := make([]EpochID, newCap)
	copy(newEntityEpochs, c.entityEpochs)
	c.entityEpochs = newEntityEpochs

	newChunkEpochs := make([]EpochID, chunkCount(newCap))
	copy(newChunkEpochs, c.chunkEpochs)
	c.chunkEpochs = newChunkEpochs

	_ = oldCap
	c.cap = newCap
}

// drop runs the type-erased drop-by-count over the first len rows and
// releases the backing allocation. Idempotence is the caller's
// responsibility, mirroring the manual-memory design this type stands in for.
func (c *column) drop(cap, length int) {
	if c.info.Size > 0 {
		c.info.dropByCount(c.ptr, length)
		c.buf = reflect.Value{}
		c.ptr = unsafe.Pointer(&danglingSentinel)
	}
	_ = cap
	c.cap = 0
	c.entityEpochs = nil
	c.chunkEpochs = nil
}

// elemPtr returns the address of row i. For zero-sized types this is a
// dangling sentinel that must never be dereferenced.
func (c *column) elemPtr(i int) unsafe.Pointer {
	if c.info.Size == 0 {
		return unsafe.Pointer(&danglingSentinel)
	}
	return unsafe.Add(c.ptr, uintptr(i)*c.info.Size)
}

// writeRaw memcpy's an uninitialized slot in from src. Used only when dst
// was not previously holding a live value (spawn, relocation into a fresh
// row).
func (c *column) writeRaw(dstIdx int, src unsafe.Pointer) {
	if c.info.Size == 0 {
		return
	}
	c.info.copyOne(src, c.elemPtr(dstIdx))
}

// setOne destructively replaces the value at dstIdx with the value at src.
// The existing value is dropped first (with encoder, so its destructor may
// enqueue deferred actions), then the new value is copied in. Contrast with
// writeRaw, used only when the destination was uninitialized.
func (c *column) setOne(dstIdx int, src unsafe.Pointer, entity EntityId, encoder *ActionEncoder) {
	if c.info.Size == 0 {
		return
	}
	dst := c.elemPtr(dstIdx)
	c.info.dropOne(dst, entity, encoder)
	c.info.copyOne(src, dst)
}

func (c *column) chunkEpochAt(row int) EpochID {
	return c.chunkEpochs[row/ChunkSize]
}

func (c *column) setChunkEpoch(row int, e EpochID) {
	c.chunkEpochs[row/ChunkSize] = e
}

// stampSpawn stamps the epoch hierarchy for a freshly written row: a strict
// bump at entity granularity, and an idempotent bump at chunk/archetype
// granularity so a batch spawn at one epoch collapses to one stamp.
func (c *column) stampSpawn(row int, epoch EpochID) {
	c.entityEpochs[row] = c.entityEpochs[row].Bump(epoch)
	c.setChunkEpoch(row, c.chunkEpochAt(row).BumpAgain(epoch))
	c.archetypeEpoch = c.archetypeEpoch.BumpAgain(epoch)
}

// stampInsert stamps a newly introduced component during a cross-archetype
// insert: a strict bump, since it must be distinguishable from any epoch
// already observed at the destination.
func (c *column) stampInsert(row int, epoch EpochID) {
	c.entityEpochs[row] = c.entityEpochs[row].Bump(epoch)
	c.setChunkEpoch(row, c.chunkEpochAt(row).BumpAgain(epoch))
	c.archetypeEpoch = c.archetypeEpoch.BumpAgain(epoch)
}

// stampRelocated preserves the source row's entity-epoch across a
// cross-archetype move: the destination inherits it via Update (max) rather
// than being stamped with "now", which is what makes "modified since"
// semantics survive archetype changes.
func (c *column) stampRelocated(row int, sourceEpoch EpochID) {
	c.entityEpochs[row] = c.entityEpochs[row].Update(sourceEpoch)
	c.setChunkEpoch(row, c.chunkEpochAt(row).Update(sourceEpoch))
	c.archetypeEpoch = c.archetypeEpoch.Update(sourceEpoch)
}

// stampBackfill runs after a swap-remove copies the last row's bytes into a
// vacated slot: the destination inherits the moved datum's observation
// epoch via Update, which is the invariant that keeps "modified since E"
// queries correct under relocation.
func (c *column) stampBackfill(row int, movedEntityEpoch EpochID) {
	c.entityEpochs[row] = c.entityEpochs[row].Update(movedEntityEpoch)
	c.setChunkEpoch(row, c.chunkEpochAt(row).Update(movedEntityEpoch))
}

// stampWrite is the Get_mut stamp: strict bump at every granularity. Callers
// must have already advanced the world epoch so epoch > archetypeEpoch.
func (c *column) stampWrite(row int, epoch EpochID) {
	c.archetypeEpoch = c.archetypeEpoch.Bump(epoch)
	c.setChunkEpoch(row, c.chunkEpochAt(row).Bump(epoch))
	c.entityEpochs[row] = c.entityEpochs[row].Bump(epoch)
}
