package quadtree

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"
)

// points is a tiny element store: element id -> position. Id 0 is the nil element.
type points struct {
	pos       map[int]r2.Vec
	destroyed []int
	added     int
	removed   int
}

func newPoints() *points {
	return &points{pos: make(map[int]r2.Vec)}
}

func (p *points) policy() Policy[int, struct{}] {
	return Policy[int, struct{}]{
		Position: func(e int) r2.Vec { return p.pos[e] },
		Destroy:  func(e int) { p.destroyed = append(p.destroyed, e) },
		Added:    func(*Node[int, struct{}], int, int) { p.added++ },
		Removed:  func(*Node[int, struct{}], int, int) { p.removed++ },
	}
}

func box(x0, y0, x1, y1 float64) r2.Box {
	return r2.Box{Min: r2.Vec{X: x0, Y: y0}, Max: r2.Vec{X: x1, Y: y1}}
}

func stored(t *Tree[int, struct{}]) map[int]*Node[int, struct{}] {
	out := make(map[int]*Node[int, struct{}])
	t.Leaves(func(n *Node[int, struct{}]) {
		for i := 0; i < n.Slots(); i++ {
			if e := n.At(i); e != 0 {
				out[e] = n
			}
		}
	})
	return out
}

func checkBudget(t *testing.T, tree *Tree[int, struct{}]) {
	t.Helper()
	live := 0
	tree.Leaves(func(n *Node[int, struct{}]) {
		c := 0
		for i := 0; i < n.Slots(); i++ {
			if n.At(i) != 0 {
				c++
			}
		}
		if c != n.Count() {
			t.Fatalf("leaf count %d does not match occupied slots %d", n.Count(), c)
		}
		live += c
	})
	if live+tree.FreeSpace() != tree.Capacity() {
		t.Fatalf("budget broken: live %d + free %d != capacity %d", live, tree.FreeSpace(), tree.Capacity())
	}
}

func TestAddNilElement(t *testing.T) {
	p := newPoints()
	tree := New(box(0, 0, 100, 100), 10, 4, p.policy())

	ok, err := tree.Add(0)
	if ok || !errors.Is(err, ErrNilElement) {
		t.Errorf("Add(0) = (%v, %v), want (false, ErrNilElement)", ok, err)
	}
}

func TestAddRejectsNonFinite(t *testing.T) {
	tests := []struct {
		name string
		pos  r2.Vec
	}{
		{"nan x", r2.Vec{X: math.NaN(), Y: 1}},
		{"nan y", r2.Vec{X: 1, Y: math.NaN()}},
		{"inf", r2.Vec{X: math.Inf(1), Y: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newPoints()
			tree := New(box(0, 0, 100, 100), 10, 4, p.policy())
			p.pos[1] = tt.pos

			ok, err := tree.Add(1)
			if ok || err != nil {
				t.Fatalf("Add = (%v, %v), want (false, nil)", ok, err)
			}
			if len(p.destroyed) != 1 || p.destroyed[0] != 1 {
				t.Errorf("expected element 1 destroyed, got %v", p.destroyed)
			}
			if tree.FreeSpace() != 10 {
				t.Errorf("free space = %d, want 10", tree.FreeSpace())
			}
		})
	}
}

func TestAddCapacityExhausted(t *testing.T) {
	p := newPoints()
	tree := New(box(0, 0, 100, 100), 3, 2, p.policy())

	for i := 1; i <= 3; i++ {
		p.pos[i] = r2.Vec{X: float64(i * 20), Y: float64(i * 20)}
		if ok, err := tree.Add(i); !ok || err != nil {
			t.Fatalf("Add(%d) = (%v, %v)", i, ok, err)
		}
	}
	p.pos[4] = r2.Vec{X: 50, Y: 50}
	ok, err := tree.Add(4)
	if ok || err != nil {
		t.Fatalf("Add over budget = (%v, %v), want (false, nil)", ok, err)
	}
	if len(p.destroyed) != 1 || p.destroyed[0] != 4 {
		t.Errorf("expected element 4 destroyed, got %v", p.destroyed)
	}
	checkBudget(t, tree)
}

func TestBudgetInvariant(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	p := newPoints()
	tree := New(box(-50, -50, 50, 50), 200, 8, p.policy())

	next := 1
	for step := 0; step < 2000; step++ {
		if rng.Float64() < 0.6 {
			p.pos[next] = r2.Vec{X: rng.Float64()*300 - 150, Y: rng.Float64()*300 - 150}
			if _, err := tree.Add(next); err != nil {
				t.Fatalf("Add: %v", err)
			}
			next++
		} else {
			tree.Leaves(func(n *Node[int, struct{}]) {
				for i := 0; i < n.Slots(); i++ {
					if n.At(i) != 0 && rng.Float64() < 0.05 {
						n.RemoveAt(i)
					}
				}
			})
		}
		checkBudget(t, tree)
	}
}

func TestSplitPlacesElementsInContainingLeaf(t *testing.T) {
	p := newPoints()
	tree := New(box(0, 0, 100, 100), 100, 2, p.policy())

	coords := []r2.Vec{{X: 10, Y: 10}, {X: 90, Y: 10}, {X: 10, Y: 90}, {X: 90, Y: 90}, {X: 60, Y: 40}}
	for i, c := range coords {
		p.pos[i+1] = c
		if ok, err := tree.Add(i + 1); !ok || err != nil {
			t.Fatalf("Add(%d) = (%v, %v)", i+1, ok, err)
		}
	}

	if tree.Root().IsLeaf() {
		t.Fatal("root should have split")
	}
	for e, n := range stored(tree) {
		if !Contains(n.Rect, p.pos[e]) {
			t.Errorf("element %d at %v stored in leaf %v", e, p.pos[e], n.Rect)
		}
	}
	if p.added-p.removed != len(coords) {
		t.Errorf("hook balance = %d, want %d", p.added-p.removed, len(coords))
	}
	checkBudget(t, tree)
}

func TestMarginRehoming(t *testing.T) {
	p := newPoints()
	tree := New(box(0, 0, 100, 100), 100, 2, p.policy())

	coords := []r2.Vec{{X: 10, Y: 10}, {X: 20, Y: 20}, {X: 80, Y: 80}, {X: 90, Y: 90}}
	for i, c := range coords {
		p.pos[i+1] = c
		if _, err := tree.Add(i + 1); err != nil {
			t.Fatal(err)
		}
	}

	before := stored(tree)[1]

	// A move that stays inside the margin keeps the element in place.
	p.pos[1] = r2.Vec{X: before.Rect.Max.X + 0.01, Y: 10}
	if err := tree.UpdateElements(); err != nil {
		t.Fatal(err)
	}
	if stored(tree)[1] != before {
		t.Error("element inside margin should not be rehomed")
	}

	// Far outside the margin, still inside the root.
	p.pos[1] = r2.Vec{X: 85, Y: 15}
	if err := tree.UpdateElements(); err != nil {
		t.Fatal(err)
	}
	after, ok := stored(tree)[1]
	if !ok {
		t.Fatal("element not reachable after rehoming")
	}
	if !Contains(after.Rect, p.pos[1]) {
		t.Errorf("element at %v rehomed to leaf %v", p.pos[1], after.Rect)
	}
	checkBudget(t, tree)
}

func TestNodeUpdateElements(t *testing.T) {
	p := newPoints()
	tree := New(box(0, 0, 100, 100), 100, 4, p.policy())
	p.pos[1] = r2.Vec{X: 10, Y: 10}
	if _, err := tree.Add(1); err != nil {
		t.Fatal(err)
	}

	p.pos[1] = r2.Vec{X: 150, Y: 10}
	if err := tree.Root().UpdateElements(); err != nil {
		t.Fatal(err)
	}
	if !Contains(tree.Root().Rect, p.pos[1]) {
		t.Errorf("root %v should have grown to contain %v", tree.Root().Rect, p.pos[1])
	}
	if _, ok := stored(tree)[1]; !ok {
		t.Error("element lost after root expansion")
	}
	checkBudget(t, tree)
}

func TestExpandToContain(t *testing.T) {
	p := newPoints()
	tree := New(box(-10, -10, 10, 10), 50, 2, p.policy())

	for i := 1; i <= 6; i++ {
		p.pos[i] = r2.Vec{X: float64(i) - 3, Y: float64(i%3) - 1}
		if _, err := tree.Add(i); err != nil {
			t.Fatal(err)
		}
	}

	p.pos[7] = r2.Vec{X: 75, Y: -33}
	ok, err := tree.Add(7)
	if !ok || err != nil {
		t.Fatalf("Add outside root = (%v, %v)", ok, err)
	}

	root := tree.Root().Rect
	if !Contains(root, p.pos[7]) {
		t.Fatalf("root %v does not contain %v", root, p.pos[7])
	}
	// Doubling around the origin keeps the root square and centered.
	if c := Center(root); math.Abs(c.X) > 1e-9 || math.Abs(c.Y) > 1e-9 {
		t.Errorf("root center moved to %v", c)
	}

	all := stored(tree)
	if len(all) != 7 {
		t.Fatalf("expected 7 reachable elements, got %d", len(all))
	}
	for e, n := range all {
		if !Contains(n.Rect, p.pos[e]) {
			t.Errorf("element %d at %v in leaf %v", e, p.pos[e], n.Rect)
		}
	}
	checkBudget(t, tree)
}

func TestDepthLimitIsFatal(t *testing.T) {
	const perNode = 4
	p := newPoints()
	tree := New(box(0, 0, 64, 64), 100, perNode, p.policy())

	for i := 1; i <= perNode; i++ {
		p.pos[i] = r2.Vec{X: 17, Y: 17}
		if _, err := tree.Add(i); err != nil {
			t.Fatalf("Add(%d): %v", i, err)
		}
	}

	p.pos[perNode+1] = r2.Vec{X: 17, Y: 17}
	ok, err := tree.Add(perNode + 1)
	if ok || !errors.Is(err, ErrDepthLimit) {
		t.Fatalf("Add coincident = (%v, %v), want ErrDepthLimit", ok, err)
	}

	maxDepth := 0
	tree.Leaves(func(n *Node[int, struct{}]) {
		if n.Depth > maxDepth {
			maxDepth = n.Depth
		}
	})
	if maxDepth != MaxDepth {
		t.Errorf("deepest leaf = %d, want %d", maxDepth, MaxDepth)
	}
	if len(stored(tree)) != perNode {
		t.Errorf("expected %d stored elements, got %d", perNode, len(stored(tree)))
	}
	checkBudget(t, tree)
}

func TestFreeSlotWrapsFromCursor(t *testing.T) {
	p := newPoints()
	tree := New(box(0, 0, 10, 10), 10, 3, p.policy())
	for i := 1; i <= 3; i++ {
		p.pos[i] = r2.Vec{X: 1, Y: float64(i)}
		if _, err := tree.Add(i); err != nil {
			t.Fatal(err)
		}
	}
	root := tree.Root()
	root.RemoveAt(0)

	p.pos[4] = r2.Vec{X: 2, Y: 2}
	if _, err := tree.Add(4); err != nil {
		t.Fatal(err)
	}
	if !root.IsLeaf() {
		t.Fatal("root should not split while a slot is free")
	}
	if root.At(0) != 4 {
		t.Errorf("slot 0 = %d, want 4", root.At(0))
	}
}
