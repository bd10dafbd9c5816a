package warehouse

import (
	"fmt"
	"sort"
	"strings"
)

// EntityId is an opaque, process-local handle the World maps to an
// (archetype, row) location. Equality and hashing only; the core never
// inspects its bits. Generation/reuse tracking is a Non-goal of the core, so
// this World hands out monotonically increasing ids and never recycles one.
type EntityId uint32

// EntityDestroyCallback is invoked when the entity it was registered against
// (via SetParent/SetDestroyCallback) is destroyed.
type EntityDestroyCallback func(Entity)

// Entity is the ergonomic facade over an EntityId: it remembers which
// components it currently carries so AddComponent/RemoveComponent can
// compute the destination archetype without consulting the World's schema
// registry directly.
type Entity interface {
	ID() EntityId
	Valid() bool
	Storage() Storage
	SetStorage(Storage)

	SetParent(parent Entity, callback EntityDestroyCallback) error
	Parent() Entity
	SetDestroyCallback(EntityDestroyCallback) error

	AddComponent(Component) error
	AddComponentWithValue(Component, any) error
	RemoveComponent(Component) error

	EnqueueAddComponent(Component) error
	EnqueueAddComponentWithValue(Component, any) error
	EnqueueRemoveComponent(Component) error

	Components() []Component
	ComponentsAsString() string
}

type relationships struct {
	parent    Entity
	onDestroy EntityDestroyCallback
}

// entity is the sole implementation of Entity.
type entity struct {
	id            EntityId
	sto           Storage
	components    []Component
	relationships relationships
}

var _ Entity = &entity{}

func (e *entity) ID() EntityId { return e.id }

// Valid reports whether the World still has a location on record for this
// entity (false once despawned).
func (e *entity) Valid() bool {
	_, _, ok := e.sto.location(e.id)
	return ok
}

func (e *entity) Storage() Storage     { return e.sto }
func (e *entity) SetStorage(s Storage) { e.sto = s }

// SetParent establishes a parent/child relationship; an entity may have at
// most one parent.
func (e *entity) SetParent(parent Entity, callback EntityDestroyCallback) error {
	if e.relationships.parent != nil {
		return EntityRelationError{child: e, parent: e.relationships.parent}
	}
	e.relationships.parent = parent
	return parent.SetDestroyCallback(callback)
}

// Parent returns the parent entity, or nil if none was set or the parent has
// since been destroyed.
func (e *entity) Parent() Entity {
	if e.relationships.parent != nil && e.relationships.parent.Valid() {
		return e.relationships.parent
	}
	return nil
}

func (e *entity) SetDestroyCallback(callback EntityDestroyCallback) error {
	e.relationships.onDestroy = callback
	return nil
}

func (e *entity) AddComponent(c Component) error {
	return e.sto.AddComponent(e, c)
}

func (e *entity) AddComponentWithValue(c Component, value any) error {
	return e.sto.AddComponentWithValue(e, c, value)
}

func (e *entity) RemoveComponent(c Component) error {
	return e.sto.RemoveComponent(e, c)
}

func (e *entity) EnqueueAddComponent(c Component) error {
	if !e.sto.Locked() {
		return e.AddComponent(c)
	}
	e.sto.Enqueue(AddComponentOperation{entity: e, component: c, storage: e.sto})
	return nil
}

func (e *entity) EnqueueAddComponentWithValue(c Component, value any) error {
	if !e.sto.Locked() {
		return e.AddComponentWithValue(c, value)
	}
	e.sto.Enqueue(AddComponentOperation{entity: e, component: c, value: value, storage: e.sto})
	return nil
}

func (e *entity) EnqueueRemoveComponent(c Component) error {
	if !e.sto.Locked() {
		return e.RemoveComponent(c)
	}
	e.sto.Enqueue(RemoveComponentOperation{entity: e, component: c, storage: e.sto})
	return nil
}

func (e *entity) Components() []Component { return e.components }

// ComponentsAsString renders a sorted, human-readable component list, handy
// in test failure messages and debug logging.
func (e *entity) ComponentsAsString() string {
	if len(e.components) == 0 {
		return "[]"
	}
	names := make([]string, len(e.components))
	for i, c := range e.components {
		name := c.Info().DebugName
		if idx := strings.LastIndexByte(name, '.'); idx >= 0 {
			name = name[idx+1:]
		}
		names[i] = name
	}
	sort.Strings(names)
	return "[" + strings.Join(names, ", ") + "]"
}

func (e *entity) String() string {
	return fmt.Sprintf("Entity(%d)", e.id)
}
