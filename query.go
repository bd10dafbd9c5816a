// Package warehouse provides an archetype-based ECS storage and query engine.
package warehouse

import (
	"fmt"

	"github.com/TheBitDrifter/bark"
	"github.com/TheBitDrifter/mask"
)

// QueryNode is a node in a structural filter tree: it answers only whether
// an archetype's shape satisfies it, never produces data. And/Or/Not nodes
// compose component lists and child nodes; With<T> and Without<T> are Terms,
// not QueryNodes.
type QueryNode interface {
	Evaluate(archetype *Archetype) bool
}

// Query is the composable filter-tree builder, kept in the same And/Or/Not
// shape as the rest of this package's structural queries.
type Query interface {
	QueryNode
	And(items ...interface{}) QueryNode
	Or(items ...interface{}) QueryNode
	Not(items ...interface{}) QueryNode
}

// QueryOperation defines the logical operations for query nodes
type QueryOperation int

const (
	OpAnd QueryOperation = iota
	OpOr
	OpNot
)

// compositeNode implements a compound query with child nodes
type compositeNode struct {
	op         QueryOperation
	children   []QueryNode
	components []Component
}

// leafNode implements a simple query with no child nodes
type leafNode struct {
	components []Component
}

// query implements the Query interface
type query struct {
	root QueryNode
}

// newQuery creates a new empty query
func newQuery() Query {
	return &query{}
}

func newCompositeNode(op QueryOperation, components []Component) *compositeNode {
	return &compositeNode{op: op, children: make([]QueryNode, 0), components: components}
}

func newLeafNode(components []Component) *leafNode {
	return &leafNode{components: components}
}

func nodeMaskOf(components []Component) mask.Mask {
	var m mask.Mask
	for _, c := range components {
		m.Mark(uint32(c.TypeID()))
	}
	return m
}

// Evaluate implements the QueryNode interface for composite nodes
func (n *compositeNode) Evaluate(archetype *Archetype) bool {
	nodeMask := nodeMaskOf(n.components)
	archeMask := archetype.Set().Mask()

	switch n.op {
	case OpAnd:
		if !archeMask.ContainsAll(nodeMask) {
			return false
		}
		for _, child := range n.children {
			if !child.Evaluate(archetype) {
				return false
			}
		}
		return true
	case OpOr:
		if archeMask.ContainsAny(nodeMask) {
			return true
		}
		for _, child := range n.children {
			if child.Evaluate(archetype) {
				return true
			}
		}
		return false
	case OpNot:
		if len(n.children) == 0 {
			return archeMask.ContainsNone(nodeMask)
		}
		if len(n.components) > 0 && !archeMask.ContainsNone(nodeMask) {
			return false
		}
		for _, child := range n.children {
			if child.Evaluate(archetype) {
				return false
			}
		}
		return true
	}
	return false
}

// Evaluate implements the QueryNode interface for leaf nodes
func (n *leafNode) Evaluate(archetype *Archetype) bool {
	nodeMask := nodeMaskOf(n.components)
	return archetype.Set().Mask().ContainsAll(nodeMask)
}

// And creates a new AND operation node with the provided items
func (q *query) And(items ...interface{}) QueryNode {
	components, children := q.processItems(items...)
	node := newCompositeNode(OpAnd, components)
	node.children = children
	if q.root == nil {
		q.root = node
	}
	return node
}

// Or creates a new OR operation node with the provided items
func (q *query) Or(items ...interface{}) QueryNode {
	components, children := q.processItems(items...)
	node := newCompositeNode(OpOr, components)
	node.children = children
	if q.root == nil {
		q.root = node
	}
	return node
}

// Not creates a new NOT operation node with the provided items
func (q *query) Not(items ...interface{}) QueryNode {
	components, children := q.processItems(items...)
	node := newCompositeNode(OpNot, components)
	node.children = children
	if q.root == nil {
		q.root = node
	}
	return node
}

func (q *query) validateQueryItems(items ...interface{}) error {
	for _, item := range items {
		switch item.(type) {
		case Component, []Component, QueryNode, Query:
			continue
		default:
			return fmt.Errorf("invalid query item type: %T. Only Component, []Component, or QueryNode are allowed", item)
		}
	}
	return nil
}

func (q *query) processItems(items ...interface{}) ([]Component, []QueryNode) {
	if err := q.validateQueryItems(items...); err != nil {
		panic(bark.AddTrace(err))
	}
	components := make([]Component, 0)
	children := make([]QueryNode, 0)
	for _, item := range items {
		switch v := item.(type) {
		case Component:
			components = append(components, v)
		case []Component:
			components = append(components, v...)
		case QueryNode:
			children = append(children, v)
		}
	}
	return components, children
}

// Evaluate implements the QueryNode interface for the query type
func (q *query) Evaluate(archetype *Archetype) bool {
	if q.root == nil {
		return false
	}
	return q.root.Evaluate(archetype)
}

// Term is a single query capability bound to a component type: the access
// it takes (Read/Write), whether it structurally requires or excludes that
// type, and how to build per-archetype Fetch state for it. Read/Write terms
// are what QueryRef uses to acquire column borrows and to classify
// conflicts between systems.
type Term interface {
	typeID() TypeID
	access() Access
	skipArchetype(a *Archetype) bool
	buildFetch(a *Archetype, worldEpoch EpochID) Fetch
}

type readTerm struct{ t TypeID }

func (r readTerm) typeID() TypeID { return r.t }
func (r readTerm) access() Access { return AccessRead }
func (r readTerm) skipArchetype(a *Archetype) bool {
	_, ok := a.Column(r.t)
	return !ok
}
func (r readTerm) buildFetch(a *Archetype, _ EpochID) Fetch {
	col, _ := a.Column(r.t)
	return readFetch{col: col}
}

type writeTerm struct{ t TypeID }

func (w writeTerm) typeID() TypeID { return w.t }
func (w writeTerm) access() Access { return AccessWrite }
func (w writeTerm) skipArchetype(a *Archetype) bool {
	_, ok := a.Column(w.t)
	return !ok
}
func (w writeTerm) buildFetch(a *Archetype, epoch EpochID) Fetch {
	col, _ := a.Column(w.t)
	return writeFetch{col: col, epoch: epoch}
}

// modifiedTerm wraps another term, adding the "changed since after_epoch"
// baseline. The baseline is fixed when Modified builds the term; the Cursor
// does not refresh it between passes.
type modifiedTerm struct {
	inner      Term
	afterEpoch EpochID
}

// Modified wraps a Read or Write term so it only yields rows stamped after
// the given baseline epoch. Callers capture a baseline with Storage's
// CurrentEpoch between passes to ask "what changed since I last looked".
func Modified(inner Term, after EpochID) Term {
	return &modifiedTerm{inner: inner, afterEpoch: after}
}

func (m *modifiedTerm) typeID() TypeID { return m.inner.typeID() }
func (m *modifiedTerm) access() Access { return m.inner.access() }

func (m *modifiedTerm) skipArchetype(a *Archetype) bool {
	if m.inner.skipArchetype(a) {
		return true
	}
	epoch, ok := a.ColumnEpoch(m.inner.typeID())
	return !ok || !epoch.After(m.afterEpoch)
}

func (m *modifiedTerm) buildFetch(a *Archetype, worldEpoch EpochID) Fetch {
	col, _ := a.Column(m.inner.typeID())
	return modifiedFetch{
		inner:      m.inner.buildFetch(a, worldEpoch),
		col:        col,
		afterEpoch: m.afterEpoch,
	}
}

// With requires the archetype to contain every given component's type.
func With(components ...Component) Term {
	return filterTerm{types: typeIDsOf(components), want: true}
}

// Without requires the archetype to contain none of the given components'
// types.
func Without(components ...Component) Term {
	return filterTerm{types: typeIDsOf(components), want: false}
}

func typeIDsOf(components []Component) []TypeID {
	ids := make([]TypeID, len(components))
	for i, c := range components {
		ids[i] = c.TypeID()
	}
	return ids
}

// filterTerm is a Term whose Item is (): it contributes only to
// skip_archetype, taking no column access and producing no fetch state.
type filterTerm struct {
	types []TypeID
	want  bool
}

func (f filterTerm) typeID() TypeID { return 0 }
func (f filterTerm) access() Access { return AccessNone }

func (f filterTerm) skipArchetype(a *Archetype) bool {
	for _, t := range f.types {
		_, present := a.Column(t)
		if present != f.want {
			return true
		}
	}
	return false
}

func (f filterTerm) buildFetch(*Archetype, EpochID) Fetch {
	return filterFetch{}
}

// AccessConflict reports whether two terms cannot safely run concurrently:
// for some type T, one has Write(T) and the other has Read(T) or Write(T).
func AccessConflict(a, b Term) bool {
	if a.typeID() != b.typeID() {
		return false
	}
	if a.access() == AccessNone || b.access() == AccessNone {
		return false
	}
	return a.access() == AccessWrite || b.access() == AccessWrite
}
