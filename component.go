package warehouse

// Component identifies one registered, typed attribute that can be attached
// to entities. AccessibleComponent[T] is the only implementation; the
// interface lets archetypes, entities, and queries hold heterogeneous
// component lists without naming concrete types.
type Component interface {
	TypeID() TypeID
	Info() ComponentInfo
}
