package sim

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/swell/quadtree"
	"github.com/pthm-cable/swell/wave"
)

// CornersPerSlot is the number of records written per particle slot, one per
// corner of the quad a renderer draws for it.
const CornersPerSlot = 4

// Record is the renderer-facing snapshot of one particle. A NaN X marks an
// empty slot.
type Record struct {
	X, Z      float32
	Amplitude float32
	// DirX, DirZ are the travel direction scaled by the wavelength 2π/frequency.
	DirX, DirZ float32
	Shoaling   float32
	Speed      float32
}

// Empty reports whether the record marks an unused slot.
func (r Record) Empty() bool { return math.IsNaN(float64(r.X)) }

var emptyRecord = Record{X: float32(math.NaN())}

type (
	tree = quadtree.Tree[wave.Ref, *leaf]
	node = quadtree.Node[wave.Ref, *leaf]
)

// leaf is the per-leaf payload: the groups with a particle stored here, the
// render records and the hidden scan cursor.
type leaf struct {
	groups     []*wave.Group
	records    []Record
	scanCursor int
}

func newLeaf(slots int) *leaf {
	lf := &leaf{records: make([]Record, slots*CornersPerSlot)}
	for i := range lf.records {
		lf.records[i] = emptyRecord
	}
	return lf
}

// register adds g to the registry unless present, reusing a dropped entry.
func (lf *leaf) register(g *wave.Group) {
	hole := -1
	for i, h := range lf.groups {
		if h == g {
			return
		}
		if h == nil && hole < 0 {
			hole = i
		}
	}
	if hole >= 0 {
		lf.groups[hole] = g
		return
	}
	lf.groups = append(lf.groups, g)
}

func (lf *leaf) drop(i int) { lf.groups[i] = nil }

func (lf *leaf) write(slot int, p *wave.Particle) {
	pos, dir := p.Position(), p.Direction()
	wavelength := 2 * math.Pi / p.Frequency()
	rec := Record{
		X:         float32(pos.X),
		Z:         float32(pos.Y),
		Amplitude: float32(p.Amplitude() * p.Fade()),
		DirX:      float32(dir.X * wavelength),
		DirZ:      float32(dir.Y * wavelength),
		Shoaling:  float32(p.Shoaling()),
		Speed:     float32(p.Speed()),
	}
	base := slot * CornersPerSlot
	for c := 0; c < CornersPerSlot; c++ {
		lf.records[base+c] = rec
	}
}

func (lf *leaf) clear(slot int) {
	base := slot * CornersPerSlot
	for c := 0; c < CornersPerSlot; c++ {
		lf.records[base+c] = emptyRecord
	}
}

// updateNode walks the tree depth first and runs the scheduler on every leaf
// that stores particles. The pass stops if the root is replaced underneath it.
func (s *Simulation) updateNode(n *node) error {
	if s.tree.Root() != s.passRoot {
		return nil
	}
	if !n.IsLeaf() {
		for i := 0; i < 4; i++ {
			if err := s.updateNode(n.Child(i)); err != nil {
				return err
			}
		}
		return nil
	}
	if n.Count() == 0 {
		return nil
	}

	visible := s.visible(n.Rect)
	if err := s.updateGroups(n, visible); err != nil {
		return err
	}
	// A subdivision may have split this leaf or rebuilt the root; the new
	// leaves are scanned next tick.
	if !n.IsLeaf() || s.tree.Root() != s.passRoot {
		return nil
	}
	s.scan(n, visible)
	return nil
}

// updateGroups runs cheap updates on every due group and at most one costly
// update per leaf per tick. Subdivision is only allowed in visible leaves.
func (s *Simulation) updateGroups(n *node, visible bool) error {
	lf := n.Leaf
	sc := s.params.Schedule
	stress := s.stress.Value()
	cheap, costly := sc.HiddenCheapDelay*stress, sc.HiddenCostlyDelay*stress
	if visible {
		cheap, costly = sc.VisibleCheapDelay*stress, sc.VisibleCostlyDelay*stress
	}
	inMargin := func(p r2.Vec) bool { return quadtree.Contains(n.Margin, p) }

	costlyDone := false
	// Registering groups during subdivision may grow the slice.
	for i := 0; i < len(lf.groups); i++ {
		g := lf.groups[i]
		if g == nil {
			continue
		}
		if !g.Alive() {
			lf.drop(i)
			continue
		}
		if !costlyDone && s.time-g.LastCostlyUpdate() >= costly {
			if !g.AnyInside(inMargin) {
				lf.drop(i)
				continue
			}
			costlyDone = true
			var idx wave.Index
			if visible {
				idx = s.tree
			}
			made, err := g.CostlyUpdate(idx, s.time)
			s.stats.Subdivisions += made
			if err != nil {
				return err
			}
			if !g.Alive() {
				lf.drop(i)
				continue
			}
		}
		if s.time-g.LastUpdate() >= cheap {
			g.Update(s.time)
		}
	}
	return nil
}

// scan examines the leaf's slots: every slot when visible, otherwise a
// round-robin window. Dead particles are recycled, strays are queued for
// reinsertion and live ones refresh their render records.
func (s *Simulation) scan(n *node, visible bool) {
	lf := n.Leaf
	slots := n.Slots()
	start, count := 0, slots
	if !visible {
		count = min(s.params.Schedule.HiddenScanSlots, slots)
		start = lf.scanCursor
		lf.scanCursor = (start + count) % slots
	}

	for k := 0; k < count; k++ {
		slot := (start + k) % slots
		r := n.At(slot)
		if r == 0 {
			continue
		}
		p := s.arena.Get(r)
		switch {
		case !p.Alive():
			n.RemoveAt(slot)
			s.arena.Release(r)
			s.stats.Destroyed++
		case !quadtree.Contains(n.Margin, p.Position()):
			n.RemoveAt(slot)
			s.relocate = append(s.relocate, r)
			s.stats.Relocated++
		default:
			lf.write(slot, p)
		}
	}
}

func (s *Simulation) visible(rect r2.Box) bool {
	for _, o := range s.rects {
		if quadtree.Overlaps(rect, o) {
			return true
		}
	}
	return false
}
