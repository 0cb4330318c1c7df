package geometry

import (
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/clip"
	"github.com/paulmach/orb/planar"
)

// Assemble nests a set of non-crossing closed rings into polygons. A ring inside an even
// number of other rings is an outer ring, and one inside an odd number is a hole of the
// smallest ring containing it. Outer rings are wound counter-clockwise and holes clockwise.
// The result is an orb.Polygon when there is a single outer ring, an orb.MultiPolygon when
// there are several, and nil when there are none.
func Assemble(rings []orb.Ring) orb.Geometry {
	type candidate struct {
		ring   orb.Ring
		area   float64
		parent int
		depth  int
	}

	cs := make([]*candidate, 0, len(rings))
	for _, r := range rings {
		r = cleanRing(r)
		if len(r) < 4 {
			continue
		}
		cs = append(cs, &candidate{ring: r, area: planar.Area(r), parent: -1})
	}
	sort.SliceStable(cs, func(i, j int) bool { return cs[i].area > cs[j].area })

	for i, c := range cs {
		for j := i - 1; j >= 0; j-- {
			if ringInside(c.ring, cs[j].ring) {
				c.parent = j
				c.depth = cs[j].depth + 1
				break
			}
		}
	}

	var polygons orb.MultiPolygon
	index := make(map[int]int)
	for i, c := range cs {
		if c.depth%2 == 0 {
			index[i] = len(polygons)
			polygons = append(polygons, orb.Polygon{orient(c.ring, orb.CCW)})
		}
	}
	for _, c := range cs {
		if c.depth%2 == 1 {
			p := index[c.parent]
			polygons[p] = append(polygons[p], orient(c.ring, orb.CW))
		}
	}

	switch len(polygons) {
	case 0:
		return nil
	case 1:
		return polygons[0]
	}
	return polygons
}

// ringInside reports whether every vertex of inner lies inside or on outer
func ringInside(inner, outer orb.Ring) bool {
	if !outer.Bound().Contains(inner.Bound().Min) || !outer.Bound().Contains(inner.Bound().Max) {
		return false
	}
	for _, p := range inner {
		if !planar.RingContains(outer, p) {
			return false
		}
	}
	return true
}

func orient(r orb.Ring, o orb.Orientation) orb.Ring {
	if r.Orientation() != o {
		res := make(orb.Ring, len(r))
		copy(res, r)
		res.Reverse()
		return res
	}
	return r
}

// Clip returns the parts of g inside the bound. Polygonal input that lies entirely outside gives nil.
func Clip(g orb.Geometry, bound orb.Bound) orb.Geometry {
	if g == nil {
		return nil
	}
	res := clip.Geometry(bound, g)
	if res == nil || (IsPolygonal(res) && len(Polygons(res)) == 0) {
		return nil
	}
	return RemoveDegenerateRings(res)
}
