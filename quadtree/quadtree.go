// Package quadtree provides a capacity-budgeted, depth-limited quadtree.
//
// A Tree holds at most a fixed number of elements in total, tracked by a single
// free-space counter owned by the tree. Leaves hold a fixed number of slots and
// split into four children when full. Nodes never merge back.
//
// Element semantics are supplied through a Policy: how to locate an element, how to
// dispose of a rejected one, and hooks fired when slots change. The zero value of E
// marks an empty slot and can never be inserted.
package quadtree

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/spatial/r2"
)

// MaxDepth is the deepest a leaf may be before a split is refused.
const MaxDepth = 80

var (
	// ErrNilElement is returned when inserting the zero element.
	ErrNilElement = errors.New("quadtree: nil element")

	// ErrDepthLimit is returned when a full leaf at MaxDepth would need to split.
	// The tree is left consistent but the input is degenerate; callers should stop.
	ErrDepthLimit = errors.New("quadtree: depth limit exceeded")
)

// Policy customizes a Tree for one element type.
// Position is required; the remaining hooks are optional.
type Policy[E comparable, L any] struct {
	// Position returns the location used to place e.
	Position func(e E) r2.Vec

	// Destroy disposes of an element the tree refused to store.
	Destroy func(e E)

	// NewLeaf builds the payload for a freshly created leaf.
	NewLeaf func(n *Node[E, L]) L

	// Added fires after e is stored in slot of leaf n.
	Added func(n *Node[E, L], slot int, e E)

	// Removed fires after e leaves slot of leaf n.
	Removed func(n *Node[E, L], slot int, e E)
}

// Tree is the root context shared by every node: the free-space budget, the
// per-leaf slot count and the policy.
type Tree[E comparable, L any] struct {
	root     *Node[E, L]
	policy   Policy[E, L]
	capacity int
	perNode  int
	free     int
}

// New creates a tree covering bounds that stores at most capacity elements with
// perNode slots per leaf.
func New[E comparable, L any](bounds r2.Box, capacity, perNode int, policy Policy[E, L]) *Tree[E, L] {
	if perNode < 1 {
		perNode = 1
	}
	if capacity < 0 {
		capacity = 0
	}
	t := &Tree[E, L]{
		policy:   policy,
		capacity: capacity,
		perNode:  perNode,
		free:     capacity,
	}
	t.root = t.newNode(bounds, 0)
	return t
}

// Root returns the current root node. The root is replaced by ExpandToContain.
func (t *Tree[E, L]) Root() *Node[E, L] { return t.root }

// FreeSpace returns how many more elements the tree accepts.
func (t *Tree[E, L]) FreeSpace() int { return t.free }

// Capacity returns the total element budget.
func (t *Tree[E, L]) Capacity() int { return t.capacity }

// Len returns the number of stored elements.
func (t *Tree[E, L]) Len() int { return t.capacity - t.free }

// Add inserts e. It returns false without error when e was rejected because the
// budget is exhausted or its position is not finite; rejected elements are passed
// to Policy.Destroy.
func (t *Tree[E, L]) Add(e E) (bool, error) {
	var zero E
	if e == zero {
		return false, ErrNilElement
	}
	p := t.policy.Position(e)
	if !Finite(p) || t.free <= 0 {
		t.destroy(e)
		return false, nil
	}
	if !Contains(t.root.Rect, p) {
		if err := t.ExpandToContain(p); err != nil {
			t.destroy(e)
			return false, err
		}
	}
	if err := t.root.add(e, p); err != nil {
		t.destroy(e)
		return false, err
	}
	return true, nil
}

// ExpandToContain doubles the root extent around its center until it contains p,
// then rehomes every stored element into the new layout.
func (t *Tree[E, L]) ExpandToContain(p r2.Vec) error {
	if !Finite(p) {
		return fmt.Errorf("quadtree: cannot expand to non-finite point (%g, %g)", p.X, p.Y)
	}
	rect := t.root.Rect
	if Contains(rect, p) {
		return nil
	}
	for !Contains(rect, p) {
		c := Center(rect)
		half := r2.Sub(rect.Max, rect.Min)
		if half.X <= 0 || half.Y <= 0 {
			half = r2.Vec{X: 1, Y: 1}
		}
		rect = r2.Box{Min: r2.Sub(c, half), Max: r2.Add(c, half)}
	}

	var elems []E
	t.Leaves(func(n *Node[E, L]) {
		elems = n.drain(elems)
	})
	t.root = t.newNode(rect, 0)
	return t.readd(elems)
}

// UpdateElements moves every element that has left its leaf's margin to the leaf
// that now contains it.
func (t *Tree[E, L]) UpdateElements() error {
	var moved []E
	t.Leaves(func(n *Node[E, L]) {
		moved = n.collectStrays(moved)
	})
	return t.readd(moved)
}

// Leaves calls fn for every leaf, depth first.
func (t *Tree[E, L]) Leaves(fn func(n *Node[E, L])) {
	t.root.leaves(fn)
}

func (t *Tree[E, L]) readd(elems []E) error {
	for _, e := range elems {
		if _, err := t.Add(e); err != nil {
			return err
		}
	}
	return nil
}

func (t *Tree[E, L]) destroy(e E) {
	if t.policy.Destroy != nil {
		t.policy.Destroy(e)
	}
}

func (t *Tree[E, L]) newNode(rect r2.Box, depth int) *Node[E, L] {
	n := &Node[E, L]{
		Rect:     rect,
		Margin:   Inflate(rect, marginRatio),
		Depth:    depth,
		elements: make([]E, t.perNode),
		tree:     t,
	}
	if t.policy.NewLeaf != nil {
		n.Leaf = t.policy.NewLeaf(n)
	}
	return n
}
