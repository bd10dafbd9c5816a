package warehouse

import (
	"reflect"
	"sync"
	"unsafe"
)

// TypeID is a dense, process-local identifier for a component type. It is
// assigned once per Go type the first time RegisterComponentInfo[T] sees it
// and never reused, mirroring how the table package's FactoryNewElementType
// hands out row indices in the teacher library.
type TypeID uint32

// Dropper is implemented by component types that need to enqueue deferred
// work (via ActionEncoder) when an instance is overwritten or dropped. Most
// components don't need this and can ignore it entirely.
type Dropper interface {
	OnDrop(entity EntityId, encoder *ActionEncoder)
}

// ComponentInfo is the external collaborator the core calls to manipulate
// type-erased rows: a layout plus a small function-pointer table
// (drop-by-count, drop-one, copy, copy-one), exactly the shape section 6 of
// the design calls out.
type ComponentInfo struct {
	TypeID    TypeID
	Size      uintptr
	Align     uintptr
	DebugName string

	goType reflect.Type

	dropByCount func(ptr unsafe.Pointer, n int)
	dropOne     func(ptr unsafe.Pointer, entity EntityId, encoder *ActionEncoder)
	copyN       func(src, dst unsafe.Pointer, n int)
	copyOne     func(src, dst unsafe.Pointer)
	zeroOf      func() unsafe.Pointer
}

// zero returns a fresh zero-valued T, used to spawn rows that were not given
// an explicit initial value. Zero-sized types return the dangling sentinel.
func (info ComponentInfo) zero() unsafe.Pointer {
	if info.Size == 0 {
		return unsafe.Pointer(&danglingSentinel)
	}
	return info.zeroOf()
}

var (
	registryMu     sync.Mutex
	typeToID       = make(map[reflect.Type]TypeID)
	registeredInfo = make(map[TypeID]ComponentInfo)
	nextTypeID     TypeID
)

// RegisterComponentInfo returns the ComponentInfo for T, registering it the
// first time T is seen. Safe to call repeatedly; later calls are a cheap map
// lookup.
func RegisterComponentInfo[T any]() ComponentInfo {
	var zero T
	goType := reflect.TypeOf(zero)

	registryMu.Lock()
	defer registryMu.Unlock()

	if id, ok := typeToID[goType]; ok {
		return registeredInfo[id]
	}

	id := nextTypeID
	nextTypeID++

	info := ComponentInfo{
		TypeID:    id,
		Size:      unsafe.Sizeof(zero),
		Align:     uintptr(goType.Align()),
		DebugName: goType.String(),
		goType:    goType,
		dropByCount: func(ptr unsafe.Pointer, n int) {
			if n == 0 {
				return
			}
			slice := unsafe.Slice((*T)(ptr), n)
			var blank T
			for i := range slice {
				slice[i] = blank
			}
		},
		dropOne: func(ptr unsafe.Pointer, entity EntityId, encoder *ActionEncoder) {
			p := (*T)(ptr)
			if d, ok := any(p).(Dropper); ok {
				d.OnDrop(entity, encoder)
			}
			var blank T
			*p = blank
		},
		copyN: func(src, dst unsafe.Pointer, n int) {
			if n == 0 {
				return
			}
			copy(unsafe.Slice((*T)(dst), n), unsafe.Slice((*T)(src), n))
		},
		copyOne: func(src, dst unsafe.Pointer) {
			*(*T)(dst) = *(*T)(src)
		},
		zeroOf: func() unsafe.Pointer {
			return unsafe.Pointer(new(T))
		},
	}

	typeToID[goType] = id
	registeredInfo[id] = info
	return info
}

// TypeIDOf returns the TypeID for T without forcing a fresh ComponentInfo
// build; it panics if T was never registered.
func TypeIDOf[T any]() TypeID {
	var zero T
	goType := reflect.TypeOf(zero)

	registryMu.Lock()
	defer registryMu.Unlock()

	id, ok := typeToID[goType]
	if !ok {
		abort(abortf("component type %v was never registered", goType))
	}
	return id
}
