package warehouse

// EpochID is a monotonic, non-zero world tick stamp. The zero value is the
// sentinel returned by Start: it compares before every epoch a World ever
// hands out, so freshly allocated rows and columns read as "never observed"
// until something actually stamps them.
type EpochID uint64

// Start returns the sentinel epoch that precedes every real epoch.
func Start() EpochID { return EpochID(0) }

// After reports whether e happened strictly after other.
func (e EpochID) After(other EpochID) bool { return e > other }

// Before reports whether e happened strictly before other.
func (e EpochID) Before(other EpochID) bool { return e < other }

// Bump asserts e is strictly before world and advances e to world. Used when
// a write must be distinguishable from every epoch already observed at e.
func (e EpochID) Bump(world EpochID) EpochID {
	if e >= world {
		abort(abortf("epoch overflow: stamp %d is not strictly before world epoch %d", e, world))
	}
	return world
}

// BumpAgain advances e to world only if e hasn't already reached it. Used for
// batch writes (e.g. spawning many rows) that should collapse onto one stamp
// per tick instead of re-asserting strict order for every row.
func (e EpochID) BumpAgain(world EpochID) EpochID {
	if e.Before(world) {
		return world
	}
	return e
}

// Update sets e to the later of e and other. Used when a row relocates and
// the destination slot must inherit whichever of its own or the source's
// epoch is more recent, never letting the stamp move backwards.
func (e EpochID) Update(other EpochID) EpochID {
	if other.After(e) {
		return other
	}
	return e
}

// EpochCounter is the single monotonic counter a World advances once per
// mutating query pass.
type EpochCounter struct {
	current EpochID
}

// Next advances the counter and returns the new epoch. Must be called
// exactly once per query pass that performs mutations.
func (c *EpochCounter) Next() EpochID {
	c.current++
	if c.current == 0 {
		abort(abortf("epoch overflow: counter wrapped past maximum"))
	}
	return c.current
}

// Current returns the most recently issued epoch without advancing.
func (c *EpochCounter) Current() EpochID {
	return c.current
}
