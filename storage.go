package warehouse

import (
	"fmt"
	"reflect"
	"unsafe"

	"github.com/TheBitDrifter/mask"
)

// Storage is the World of section 6: it owns the archetype table, the
// EntityId -> (archetype, row) directory, and the EpochCounter, and is the
// only thing allowed to invoke the core's structural operations. Everything
// else in this package is a collaborator the World drives.
type Storage interface {
	Entity(id EntityId) (Entity, error)
	NewEntities(n int, components ...Component) ([]Entity, error)
	EnqueueNewEntities(n int, components ...Component) error
	DestroyEntities(entities ...Entity) error
	EnqueueDestroyEntities(entities ...Entity) error

	AddComponent(e Entity, c Component) error
	AddComponentWithValue(e Entity, c Component, value any) error
	RemoveComponent(e Entity, c Component) error

	Locked() bool
	AddLock()
	RemoveLock()

	Archetypes() []*Archetype
	Enqueue(op EntityOperation)

	NextEpoch() EpochID
	CurrentEpoch() EpochID

	location(id EntityId) (*Archetype, int, bool)
}

type entityLocation struct {
	archetype *Archetype
	row       int
}

// storage is the sole implementation of Storage.
type storage struct {
	byID       map[EntityId]*entity
	nextID     EntityId
	archetypes []*Archetype
	byMask     map[mask.Mask]*Archetype
	locations  map[EntityId]entityLocation
	epochs     EpochCounter
	lockDepth  int
	queue      EntityOperationsQueue
	enc        ActionEncoder
}

var _ Storage = (*storage)(nil)

// newStorage builds an empty World. Archetypes are created lazily, the
// first time a component signature is seen.
func newStorage() Storage {
	return &storage{
		byID:      make(map[EntityId]*entity),
		byMask:    make(map[mask.Mask]*Archetype),
		locations: make(map[EntityId]entityLocation),
		queue:     &entityOperationsQueue{},
	}
}

func maskFor(components []Component) mask.Mask {
	var m mask.Mask
	for _, c := range components {
		m.Mark(uint32(c.TypeID()))
	}
	return m
}

// archetypeFor returns the archetype housing exactly this component set,
// creating it the first time this signature is seen.
func (s *storage) archetypeFor(components []Component) *Archetype {
	m := maskFor(components)
	if a, ok := s.byMask[m]; ok {
		return a
	}
	infos := make([]ComponentInfo, len(components))
	for i, c := range components {
		infos[i] = c.Info()
	}
	a := newArchetype(ArchetypeID(len(s.archetypes)+1), infos)
	s.archetypes = append(s.archetypes, a)
	s.byMask[m] = a
	return a
}

func (s *storage) Entity(id EntityId) (Entity, error) {
	e, ok := s.byID[id]
	if !ok {
		return nil, NoSuchEntityError{Entity: id}
	}
	return e, nil
}

// NewEntities spawns n entities sharing exactly the given component set, each
// initialized to its zero value, and advances the epoch counter once for the
// whole batch (matching stampSpawn's bump-again batching).
func (s *storage) NewEntities(n int, components ...Component) ([]Entity, error) {
	if s.Locked() {
		return nil, LockedStorageError{}
	}
	arch := s.archetypeFor(components)
	epoch := s.epochs.Next()

	values := make(map[TypeID]unsafe.Pointer, len(components))
	for _, c := range components {
		values[c.TypeID()] = c.Info().zero()
	}

	out := make([]Entity, n)
	for i := 0; i < n; i++ {
		s.nextID++
		id := s.nextID
		row := arch.Spawn(id, values, epoch)
		s.locations[id] = entityLocation{archetype: arch, row: row}
		en := &entity{id: id, sto: s, components: append([]Component(nil), components...)}
		s.byID[id] = en
		out[i] = en
	}
	return out, nil
}

// EnqueueNewEntities spawns immediately, or queues the spawn for when the
// World next unlocks.
func (s *storage) EnqueueNewEntities(n int, components ...Component) error {
	if !s.Locked() {
		_, err := s.NewEntities(n, components...)
		return err
	}
	s.queue.Enqueue(NewEntityOperation{count: n, components: components})
	return nil
}

// DestroyEntities despawns each entity's row, swap-removing within its
// archetype and relocating the directory entry for whatever entity got
// swapped into the vacated row.
func (s *storage) DestroyEntities(entities ...Entity) error {
	if s.Locked() {
		return LockedStorageError{}
	}
	for _, e := range entities {
		if e == nil {
			continue
		}
		en, ok := e.(*entity)
		if !ok {
			continue
		}
		loc, ok := s.locations[en.id]
		if !ok {
			continue
		}
		swapped := loc.archetype.Despawn(loc.row, &s.enc)
		delete(s.locations, en.id)
		delete(s.byID, en.id)
		if swapped != nil {
			s.locations[*swapped] = entityLocation{archetype: loc.archetype, row: loc.row}
		}
		if en.relationships.onDestroy != nil {
			en.relationships.onDestroy(en)
		}
	}
	return s.drainEncoder()
}

// EnqueueDestroyEntities destroys immediately, or queues the destroy.
func (s *storage) EnqueueDestroyEntities(entities ...Entity) error {
	if !s.Locked() {
		return s.DestroyEntities(entities...)
	}
	for _, e := range entities {
		s.queue.Enqueue(DestroyEntityOperation{entity: e})
	}
	return nil
}

// AddComponent relocates e to the archetype for its current component set
// plus c, with c zero-valued.
func (s *storage) AddComponent(e Entity, c Component) error {
	return s.insertComponent(e, c, nil)
}

// AddComponentWithValue is AddComponent, with c initialized to value instead
// of its zero value.
func (s *storage) AddComponentWithValue(e Entity, c Component, value any) error {
	return s.insertComponent(e, c, &value)
}

func (s *storage) insertComponent(e Entity, c Component, value *any) error {
	if s.Locked() {
		return LockedStorageError{}
	}
	en, ok := e.(*entity)
	if !ok {
		return fmt.Errorf("entity %v is not owned by this storage", e.ID())
	}
	for _, existing := range en.components {
		if existing.TypeID() == c.TypeID() {
			return nil
		}
	}
	loc, ok := s.locations[en.id]
	if !ok {
		return NoSuchEntityError{Entity: en.id}
	}

	newComponents := append(append([]Component(nil), en.components...), c)
	dst := s.archetypeFor(newComponents)
	epoch := s.epochs.Next()

	var ptr unsafe.Pointer
	if value != nil {
		ptr = newValuePtr(c.Info(), *value)
	} else {
		ptr = c.Info().zero()
	}
	newValues := map[TypeID]unsafe.Pointer{c.TypeID(): ptr}

	dstRow, swapped := relocateRow(loc.archetype, loc.row, dst, newValues, epoch, &s.enc)
	s.locations[en.id] = entityLocation{archetype: dst, row: dstRow}
	if swapped != nil {
		s.locations[*swapped] = entityLocation{archetype: loc.archetype, row: loc.row}
	}
	en.components = newComponents
	return s.drainEncoder()
}

// RemoveComponent relocates e to the archetype for its current component set
// minus c, dropping c's value.
func (s *storage) RemoveComponent(e Entity, c Component) error {
	if s.Locked() {
		return LockedStorageError{}
	}
	en, ok := e.(*entity)
	if !ok {
		return fmt.Errorf("entity %v is not owned by this storage", e.ID())
	}
	found := false
	newComponents := make([]Component, 0, len(en.components))
	for _, existing := range en.components {
		if existing.TypeID() == c.TypeID() {
			found = true
			continue
		}
		newComponents = append(newComponents, existing)
	}
	if !found {
		return nil
	}
	loc, ok := s.locations[en.id]
	if !ok {
		return NoSuchEntityError{Entity: en.id}
	}

	dst := s.archetypeFor(newComponents)
	epoch := s.epochs.Next()

	dstRow, swapped := relocateRow(loc.archetype, loc.row, dst, nil, epoch, &s.enc)
	s.locations[en.id] = entityLocation{archetype: dst, row: dstRow}
	if swapped != nil {
		s.locations[*swapped] = entityLocation{archetype: loc.archetype, row: loc.row}
	}
	en.components = newComponents
	return s.drainEncoder()
}

func (s *storage) drainEncoder() error {
	return s.enc.Drain(s)
}

// Locked reports whether a Cursor pass currently holds the World's
// cooperative lock. The teacher library used a mask.Mask256 of independent
// lock bits (it ran several systems concurrently against disjoint archetype
// subsets); section 5's concurrency model is single-threaded cooperative
// within one World, so a single reentrant depth counter is sufficient here.
func (s *storage) Locked() bool { return s.lockDepth > 0 }

func (s *storage) AddLock() { s.lockDepth++ }

// RemoveLock releases one level of the cooperative lock. Once fully
// unlocked, queued structural operations are drained and applied in order.
func (s *storage) RemoveLock() {
	if s.lockDepth > 0 {
		s.lockDepth--
	}
	if s.lockDepth == 0 {
		if err := s.queue.ProcessAll(s); err != nil {
			abort(abortf("error processing queued operations: %v", err))
		}
	}
}

func (s *storage) Archetypes() []*Archetype { return s.archetypes }

func (s *storage) Enqueue(op EntityOperation) { s.queue.Enqueue(op) }

func (s *storage) NextEpoch() EpochID    { return s.epochs.Next() }
func (s *storage) CurrentEpoch() EpochID { return s.epochs.Current() }

func (s *storage) location(id EntityId) (*Archetype, int, bool) {
	loc, ok := s.locations[id]
	return loc.archetype, loc.row, ok
}

// newValuePtr heap-allocates a copy of value, asserting it has the Go type
// registered for info. Used only by AddComponentWithValue, the one path
// where a caller hands the core a typed value through an any.
func newValuePtr(info ComponentInfo, value any) unsafe.Pointer {
	rv := reflect.ValueOf(value)
	if rv.Type() != info.goType {
		abort(abortf("invalid value type %v for component %s", rv.Type(), info.DebugName))
	}
	ptr := reflect.New(info.goType)
	ptr.Elem().Set(rv)
	return ptr.UnsafePointer()
}
