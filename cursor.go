package warehouse

import "iter"

// Cursor is the QueryRef driver of section 4.6: it matches archetypes
// structurally, bumps the World's epoch exactly once per pass if any term
// writes, acquires per-archetype column borrows one archetype at a time
// (never two at once, per the locking discipline in section 5), and
// iterates chunk-by-chunk honoring the Fetch ordering contract.
type Cursor struct {
	terms   []Term
	filter  QueryNode
	storage Storage

	initialized bool
	matched     []*Archetype
	archIdx     int

	currentArchetype *Archetype
	fetch            Fetch
	borrowedCols     []int
	borrowedAccess   []Access

	scan         int
	current      int
	rowsLen      int
	chunkIdx     int
	visitedChunk bool

	epoch EpochID
}

// newCursor builds a Cursor over terms (the query's Read/Write/Modified/
// filter tuple), optionally narrowed by an additional And/Or/Not filter
// tree.
func newCursor(terms []Term, filter QueryNode, storage Storage) *Cursor {
	return &Cursor{terms: terms, filter: filter, storage: storage, chunkIdx: -1}
}

func (c *Cursor) wantsWrite() bool {
	for _, t := range c.terms {
		if t.access() == AccessWrite {
			return true
		}
	}
	return false
}

// Initialize matches archetypes against every term and the optional filter,
// and — if any term writes — advances the World's epoch exactly once for
// this pass.
func (c *Cursor) Initialize() {
	if c.initialized {
		return
	}
	c.storage.AddLock()

	if c.wantsWrite() {
		c.epoch = c.storage.NextEpoch()
	} else {
		c.epoch = c.storage.CurrentEpoch()
	}

	c.matched = c.matched[:0]
	for _, arch := range c.storage.Archetypes() {
		if c.skipArchetype(arch) {
			continue
		}
		c.matched = append(c.matched, arch)
	}

	c.archIdx = -1
	c.initialized = true
	c.advanceArchetype()
}

func (c *Cursor) skipArchetype(arch *Archetype) bool {
	for _, t := range c.terms {
		if t.skipArchetype(arch) {
			return true
		}
	}
	if c.filter != nil && !c.filter.Evaluate(arch) {
		return true
	}
	return false
}

// advanceArchetype releases the current archetype's borrows, if any, then
// acquires the next non-empty matched archetype.
func (c *Cursor) advanceArchetype() {
	c.releaseCurrent()

	c.archIdx++
	for c.archIdx < len(c.matched) {
		arch := c.matched[c.archIdx]
		if arch.Len() == 0 {
			c.archIdx++
			continue
		}
		c.acquire(arch)
		c.currentArchetype = arch
		c.rowsLen = arch.Len()
		c.scan = 0
		c.chunkIdx = -1
		return
	}
	c.currentArchetype = nil
}

func (c *Cursor) acquire(arch *Archetype) {
	fetches := make([]Fetch, len(c.terms))
	cols := make([]int, 0, len(c.terms))
	access := make([]Access, 0, len(c.terms))

	for i, t := range c.terms {
		fetches[i] = t.buildFetch(arch, c.epoch)
		if t.access() == AccessNone {
			continue
		}
		idx, ok := arch.ColumnIndex(t.typeID())
		if !ok {
			continue
		}
		arch.Borrows().Borrow(idx, t.access())
		cols = append(cols, idx)
		access = append(access, t.access())
	}

	c.fetch = tupleFetch{members: fetches}
	c.borrowedCols = cols
	c.borrowedAccess = access
}

func (c *Cursor) releaseCurrent() {
	if c.currentArchetype == nil {
		return
	}
	for i, idx := range c.borrowedCols {
		c.currentArchetype.Borrows().Release(idx, c.borrowedAccess[i])
	}
	c.borrowedCols = nil
	c.borrowedAccess = nil
	c.currentArchetype = nil
}

// Next advances to the next row not pruned by any term's skip_chunk/
// skip_item, returning false once every matched archetype is exhausted. On
// true, Current (and any AccessibleComponent.GetFromCursor*) refers to the
// new row.
func (c *Cursor) Next() bool {
	if !c.initialized {
		c.Initialize()
	}
	for {
		if c.currentArchetype == nil {
			if c.initialized {
				c.Reset()
			}
			return false
		}
		if c.scan >= c.rowsLen {
			c.advanceArchetype()
			continue
		}

		chunk := c.scan / ChunkSize
		if chunk != c.chunkIdx {
			c.chunkIdx = chunk
			c.visitedChunk = false
			if c.fetch.SkipChunk(chunk) {
				c.scan = (chunk + 1) * ChunkSize
				continue
			}
		}

		if c.fetch.SkipItem(c.scan) {
			c.scan++
			continue
		}
		if !c.visitedChunk {
			c.fetch.VisitChunk(chunk)
			c.visitedChunk = true
		}

		c.current = c.scan
		c.fetch.GetItem(c.current)
		c.scan++
		return true
	}
}

// Entities ranges over every row this Cursor's terms and filter match,
// yielding the owning Entity.
func (c *Cursor) Entities() iter.Seq2[int, Entity] {
	return func(yield func(int, Entity) bool) {
		i := 0
		for c.Next() {
			e, err := c.CurrentEntity()
			if err != nil {
				continue
			}
			if !yield(i, e) {
				c.Reset()
				return
			}
			i++
		}
	}
}

// Reset releases any held borrows and the World's cooperative lock, leaving
// the Cursor ready to be reused for a fresh pass via Initialize/Next.
func (c *Cursor) Reset() {
	c.releaseCurrent()
	c.matched = nil
	c.archIdx = 0
	c.scan = 0
	c.current = 0
	c.rowsLen = 0
	c.chunkIdx = -1
	if c.initialized {
		c.storage.RemoveLock()
	}
	c.initialized = false
}

// CurrentEntity returns the entity at the cursor's current row.
func (c *Cursor) CurrentEntity() (Entity, error) {
	if c.currentArchetype == nil {
		return nil, NotSatisfiedError{}
	}
	id := c.currentArchetype.EntityAt(c.current)
	return c.storage.Entity(id)
}

// TotalMatched reports the total row count across every matched archetype,
// then resets the cursor.
func (c *Cursor) TotalMatched() int {
	if !c.initialized {
		c.Initialize()
	}
	total := 0
	for _, arch := range c.matched {
		total += arch.Len()
	}
	c.Reset()
	return total
}
