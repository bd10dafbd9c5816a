package warehouse

import (
	"fmt"

	"github.com/TheBitDrifter/bark"
)

// NoSuchEntityError is returned when the external entity directory has no
// location on record for the given EntityId.
type NoSuchEntityError struct {
	Entity EntityId
}

func (e NoSuchEntityError) Error() string {
	return fmt.Sprintf("no such entity: %v", e.Entity)
}

// NotSatisfiedError is returned when an entity exists but the archetype,
// chunk, or row it occupies is filtered out by the query in question.
type NotSatisfiedError struct {
	Entity EntityId
}

func (e NotSatisfiedError) Error() string {
	return fmt.Sprintf("entity %v does not satisfy query", e.Entity)
}

// LockedStorageError is returned when a structural mutation is attempted
// while the World is mid-iteration.
type LockedStorageError struct{}

func (e LockedStorageError) Error() string {
	return "storage is currently locked"
}

// EntityRelationError is returned when SetParent is called on an entity that
// already has a parent.
type EntityRelationError struct {
	child, parent Entity
}

func (e EntityRelationError) Error() string {
	return fmt.Sprintf("child (%v) already has parent %v", e.child, e.parent)
}

// ComponentExistsError describes a component add that would duplicate a type
// already present on the entity. Storage's AddComponent does not return it:
// adding a type the entity already carries is a no-op that returns nil.
type ComponentExistsError struct {
	TypeID TypeID
}

func (e ComponentExistsError) Error() string {
	return fmt.Sprintf("component already exists on entity: type %v", e.TypeID)
}

// ComponentNotFoundError describes a component remove/read that targets a
// type the entity's archetype does not carry. Storage's RemoveComponent does
// not return it: removing a type the entity lacks is a no-op that returns nil.
type ComponentNotFoundError struct {
	TypeID TypeID
}

func (e ComponentNotFoundError) Error() string {
	return fmt.Sprintf("component does not exist on entity: type %v", e.TypeID)
}

// abort reports a contract violation. Every condition in section 7 of the
// design other than NoSuchEntity/NotSatisfied is a programmer error: there is
// no retry, no backoff, no downgrade. abort always panics.
func abort(err error) {
	panic(bark.AddTrace(err))
}

// abortf is abort with fmt.Errorf formatting.
func abortf(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}
