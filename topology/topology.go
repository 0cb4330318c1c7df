// Package topology adapts the ctessum/geom polygon engine to orb geometries. It provides
// the boolean union used to dissolve regions, a buffer(0) style repair and a
// topology preserving simplification.
package topology

import (
	"fmt"

	"github.com/ONSdigital/dp-map-dataset/geometry"
	"github.com/ONSdigital/go-ns/log"
	"github.com/ctessum/geom"
	"github.com/paulmach/orb"
)

// Union dissolves the polygonal geometries into one, removing shared boundaries.
// Every polygon of every member is a separate operand, so touching parts of one
// MultiPolygon merge too. Members that are not polygonal are ignored. If the engine
// fails the polygons are returned side by side as a MultiPolygon.
func Union(gs ...orb.Geometry) orb.Geometry {
	operands := operandsOf(gs...)
	if len(operands) == 0 {
		return nil
	}

	res, err := union(operands)
	if err != nil {
		log.Error(err, log.Data{"operands": len(operands)})
		var mp orb.MultiPolygon
		for _, g := range gs {
			mp = append(mp, geometry.Polygons(g)...)
		}
		return mp
	}
	return fromGeom(res)
}

// Repair rebuilds g from the union of its own polygons, which resolves self intersections
// and overlapping parts in the way a zero width buffer does. A result with an area below
// minArea, or a geometry that is not polygonal, gives nil. If the engine fails g is
// returned unchanged.
func Repair(g orb.Geometry, minArea float64) orb.Geometry {
	if !geometry.IsPolygonal(g) {
		return nil
	}
	operands := operandsOf(g)
	if len(operands) == 0 {
		return nil
	}

	res, err := union(operands)
	if err != nil {
		log.Error(err, nil)
		return g
	}
	repaired := fromGeom(res)
	if repaired == nil || geometry.Area(repaired) < minArea {
		return nil
	}
	return repaired
}

func operandsOf(gs ...orb.Geometry) []geom.Polygon {
	var operands []geom.Polygon
	for _, g := range gs {
		for _, p := range geometry.Polygons(g) {
			if gp := toGeom(p); len(gp) > 0 {
				operands = append(operands, gp)
			}
		}
	}
	return operands
}

// union folds the operands together. A single operand is unioned with itself.
func union(operands []geom.Polygon) (geom.Polygon, error) {
	return safely("union", func() geom.Polygon {
		acc := operands[0]
		if len(operands) == 1 {
			return acc.Union(acc).(geom.Polygon)
		}
		for _, p := range operands[1:] {
			acc = acc.Union(p).(geom.Polygon)
		}
		return acc
	})
}

// Simplify reduces the vertices of g with the given tolerance while keeping rings from
// crossing one another or themselves. A non-positive tolerance returns g unchanged.
func Simplify(g orb.Geometry, tolerance float64) orb.Geometry {
	if tolerance <= 0 || !geometry.IsPolygonal(g) {
		return g
	}
	p := toGeom(g)
	if len(p) == 0 {
		return g
	}

	res, err := safely("simplify", func() geom.Polygon {
		s, ok := p.Simplify(tolerance).(geom.Polygon)
		if !ok {
			return p
		}
		return s
	})
	if err != nil {
		log.Error(err, log.Data{"tolerance": tolerance})
		return g
	}
	if simplified := fromGeom(res); simplified != nil {
		return simplified
	}
	return g
}

// safely runs an engine operation, turning a panic inside the engine into an error
func safely(op string, f func() geom.Polygon) (res geom.Polygon, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("polygon %s failed: %v", op, r)
		}
	}()
	return f(), nil
}

// toGeom flattens the rings of every polygon in g into one engine polygon
func toGeom(g orb.Geometry) geom.Polygon {
	var res geom.Polygon
	for _, p := range geometry.Polygons(g) {
		for _, r := range p {
			if len(r) < 4 {
				continue
			}
			path := make(geom.Path, len(r))
			for i, pt := range r {
				path[i] = geom.Point{X: pt[0], Y: pt[1]}
			}
			res = append(res, path)
		}
	}
	return res
}

func fromGeom(p geom.Polygon) orb.Geometry {
	rings := make([]orb.Ring, 0, len(p))
	for _, path := range p {
		r := make(orb.Ring, len(path))
		for i, pt := range path {
			r[i] = orb.Point{pt.X, pt.Y}
		}
		rings = append(rings, r)
	}
	return geometry.Assemble(rings)
}
