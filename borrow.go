package warehouse

import "sync/atomic"

// Access classifies the kind of use a query makes of a component type.
type Access int

const (
	AccessNone Access = iota
	AccessRead
	AccessWrite
)

// BorrowTable is a runtime read/write lock count per column, one atomic
// counter per column index. Zero means free, a positive count means N
// active readers, and -1 means a single writer holds the column -- the
// interior-mutability cell the design calls for, standing in for edict's
// AtomicCell<ComponentData>.
type BorrowTable struct {
	counts []atomic.Int32
}

func newBorrowTable(columns int) *BorrowTable {
	return &BorrowTable{counts: make([]atomic.Int32, columns)}
}

// TryBorrow attempts to acquire access on the given column index, returning
// false if it would alias an existing incompatible borrow.
func (b *BorrowTable) TryBorrow(column int, access Access) bool {
	switch access {
	case AccessNone:
		return true
	case AccessRead:
		for {
			v := b.counts[column].Load()
			if v < 0 {
				return false
			}
			if b.counts[column].CompareAndSwap(v, v+1) {
				return true
			}
		}
	case AccessWrite:
		return b.counts[column].CompareAndSwap(0, -1)
	default:
		return false
	}
}

// Release undoes a prior successful TryBorrow for the same column/access.
func (b *BorrowTable) Release(column int, access Access) {
	switch access {
	case AccessRead:
		b.counts[column].Add(-1)
	case AccessWrite:
		b.counts[column].Store(0)
	}
}

// Borrow is TryBorrow, but a failure is a contract violation (an
// undetected static conflict) and aborts the process per section 7: there
// is no retry, no backoff, no downgrade.
func (b *BorrowTable) Borrow(column int, access Access) {
	if !b.TryBorrow(column, access) {
		abort(abortf("borrow conflict on column %d: static access-conflict check was not sound", column))
	}
}
