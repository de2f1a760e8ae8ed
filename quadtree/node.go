package quadtree

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r2"
)

// Node is a rectangular region holding either element slots (a leaf) or exactly
// four children, never both.
type Node[E comparable, L any] struct {
	Rect   r2.Box
	Margin r2.Box
	Depth  int

	// Leaf is the policy payload. It is meaningful only while the node is a leaf.
	Leaf L

	elements []E
	children *[4]*Node[E, L]
	count    int
	cursor   int
	tree     *Tree[E, L]
}

// IsLeaf reports whether the node stores elements directly.
func (n *Node[E, L]) IsLeaf() bool { return n.children == nil }

// Child returns quadrant i (0..3) of an internal node, or nil for a leaf.
func (n *Node[E, L]) Child(i int) *Node[E, L] {
	if n.children == nil {
		return nil
	}
	return n.children[i]
}

// Count returns the number of occupied slots.
func (n *Node[E, L]) Count() int { return n.count }

// Slots returns the number of slots in a leaf, or zero for an internal node.
func (n *Node[E, L]) Slots() int { return len(n.elements) }

// At returns the element in slot, or the zero element if the slot is empty.
func (n *Node[E, L]) At(slot int) E { return n.elements[slot] }

// RemoveAt empties slot and credits one unit back to the tree's free space.
// It returns the element that was there.
func (n *Node[E, L]) RemoveAt(slot int) E {
	var zero E
	e := n.elements[slot]
	if e == zero {
		return zero
	}
	n.elements[slot] = zero
	n.count--
	n.tree.free++
	if n.tree.policy.Removed != nil {
		n.tree.policy.Removed(n, slot, e)
	}
	return e
}

// UpdateElements re-inserts, from the root, every element of this leaf whose
// position has left the margin.
func (n *Node[E, L]) UpdateElements() error {
	if !n.IsLeaf() {
		return nil
	}
	return n.tree.readd(n.collectStrays(nil))
}

func (n *Node[E, L]) add(e E, p r2.Vec) error {
	for n.children != nil {
		n = n.children[quadrant(Center(n.Rect), p)]
	}
	if n.count == len(n.elements) {
		if n.Depth >= MaxDepth {
			return fmt.Errorf("%w: leaf at depth %d holds %d elements near (%g, %g)",
				ErrDepthLimit, n.Depth, n.count, p.X, p.Y)
		}
		if err := n.split(); err != nil {
			return err
		}
		return n.add(e, p)
	}
	n.addAt(n.freeSlot(), e)
	return nil
}

func (n *Node[E, L]) addAt(slot int, e E) {
	n.elements[slot] = e
	n.count++
	n.tree.free--
	if n.tree.policy.Added != nil {
		n.tree.policy.Added(n, slot, e)
	}
}

// freeSlot scans forward from the cursor, wrapping once.
func (n *Node[E, L]) freeSlot() int {
	var zero E
	size := len(n.elements)
	for i := 0; i < size; i++ {
		s := (n.cursor + i) % size
		if n.elements[s] == zero {
			n.cursor = (s + 1) % size
			return s
		}
	}
	panic(fmt.Sprintf("quadtree: leaf reports %d/%d elements but has no free slot", n.count, size))
}

func (n *Node[E, L]) split() error {
	elems := n.drain(make([]E, 0, n.count))

	t := n.tree
	var kids [4]*Node[E, L]
	for i, r := range quarters(n.Rect) {
		kids[i] = t.newNode(r, n.Depth+1)
	}
	var zeroLeaf L
	n.elements = nil
	n.Leaf = zeroLeaf
	n.cursor = 0
	n.children = &kids

	for _, e := range elems {
		if err := n.add(e, t.policy.Position(e)); err != nil {
			return err
		}
	}
	return nil
}

// drain empties every slot of a leaf, appending the elements to dst.
func (n *Node[E, L]) drain(dst []E) []E {
	var zero E
	for i, e := range n.elements {
		if e != zero {
			n.RemoveAt(i)
			dst = append(dst, e)
		}
	}
	return dst
}

// collectStrays removes the elements whose position is outside the margin and
// appends them to dst.
func (n *Node[E, L]) collectStrays(dst []E) []E {
	var zero E
	for i, e := range n.elements {
		if e == zero {
			continue
		}
		if !Contains(n.Margin, n.tree.policy.Position(e)) {
			n.RemoveAt(i)
			dst = append(dst, e)
		}
	}
	return dst
}

func (n *Node[E, L]) leaves(fn func(n *Node[E, L])) {
	if n.children == nil {
		fn(n)
		return
	}
	for _, c := range n.children {
		c.leaves(fn)
	}
}
