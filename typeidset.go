package warehouse

import (
	"iter"
	"sort"

	"github.com/TheBitDrifter/mask"
)

// TypeIdSet is a dense index over a fixed set of component type identifiers.
// It answers Contains/IndexOf in O(log n) via binary search over a sorted,
// deduplicated slice -- no hashing, no per-lookup allocation -- and doubles
// as the bitmask storage groups by when looking up an archetype for a given
// component signature.
type TypeIdSet struct {
	ids  []TypeID
	bits mask.Mask
}

// NewTypeIdSet builds the minimal injective mapping for the given type
// identifiers into [0, upper_bound). Duplicate ids collapse to one slot.
func NewTypeIdSet(ids ...TypeID) TypeIdSet {
	sorted := append([]TypeID(nil), ids...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	deduped := sorted[:0]
	havePrev := false
	var prev TypeID
	for _, id := range sorted {
		if havePrev && id == prev {
			continue
		}
		deduped = append(deduped, id)
		prev = id
		havePrev = true
	}

	var bits mask.Mask
	for _, id := range deduped {
		bits.Mark(uint32(id))
	}

	return TypeIdSet{ids: deduped, bits: bits}
}

// Contains reports whether t is present in the set.
func (s TypeIdSet) Contains(t TypeID) bool {
	_, ok := s.IndexOf(t)
	return ok
}

// IndexOf returns the dense column index for t, if present.
func (s TypeIdSet) IndexOf(t TypeID) (int, bool) {
	i := sort.Search(len(s.ids), func(i int) bool { return s.ids[i] >= t })
	if i < len(s.ids) && s.ids[i] == t {
		return i, true
	}
	return 0, false
}

// UpperBound is the number of column slots an archetype built from this set
// must allocate.
func (s TypeIdSet) UpperBound() int { return len(s.ids) }

// Len returns the number of present types.
func (s TypeIdSet) Len() int { return len(s.ids) }

// Indexed iterates (index, type) pairs in ascending type-id order.
func (s TypeIdSet) Indexed() iter.Seq2[int, TypeID] {
	return func(yield func(int, TypeID) bool) {
		for i, t := range s.ids {
			if !yield(i, t) {
				return
			}
		}
	}
}

// Mask returns the bitmask backing this set, used as the map key for
// archetype lookup by component signature.
func (s TypeIdSet) Mask() mask.Mask { return s.bits }

// ContainsAll reports whether every type in other is also in s.
func (s TypeIdSet) ContainsAll(other mask.Mask) bool {
	return s.bits.ContainsAll(other)
}

// ContainsAny reports whether s and other share at least one type.
func (s TypeIdSet) ContainsAny(other mask.Mask) bool {
	return s.bits.ContainsAny(other)
}

// ContainsNone reports whether s and other share no types.
func (s TypeIdSet) ContainsNone(other mask.Mask) bool {
	return s.bits.ContainsNone(other)
}
