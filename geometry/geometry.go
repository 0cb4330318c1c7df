// Package geometry holds the coordinate level operations on the orb geometry variants:
// conversion to and from geojson, per-point transforms, the antimeridian shift,
// quantization, clipping and reassembly of loose rings into polygons.
package geometry

import (
	"fmt"

	"github.com/ONSdigital/dp-map-dataset/models"
	"github.com/ONSdigital/go-ns/log"
	"github.com/paulmach/go.geojson"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// PointFunc accepts a point and returns a transformed copy.
type PointFunc func(orb.Point) orb.Point

// Apply returns a copy of g with f applied to every vertex, keeping the nesting of g.
// Unsupported geometry types are returned unmodified.
func Apply(g orb.Geometry, f PointFunc) orb.Geometry {
	switch v := g.(type) {
	case orb.Point:
		return f(v)
	case orb.MultiPoint:
		return orb.MultiPoint(applyPoints(v, f))
	case orb.LineString:
		return orb.LineString(applyPoints(v, f))
	case orb.Ring:
		return applyRing(v, f)
	case orb.MultiLineString:
		res := make(orb.MultiLineString, len(v))
		for i, ls := range v {
			res[i] = orb.LineString(applyPoints(ls, f))
		}
		return res
	case orb.Polygon:
		return applyPolygon(v, f)
	case orb.MultiPolygon:
		res := make(orb.MultiPolygon, len(v))
		for i, p := range v {
			res[i] = applyPolygon(p, f)
		}
		return res
	case orb.Collection:
		res := make(orb.Collection, len(v))
		for i, c := range v {
			res[i] = Apply(c, f)
		}
		return res
	}
	log.Debug("geometry passed through unmodified", log.Data{"type": fmt.Sprintf("%T", g)})
	return g
}

func applyPoints(ps []orb.Point, f PointFunc) []orb.Point {
	res := make([]orb.Point, len(ps))
	for i, p := range ps {
		res[i] = f(p)
	}
	return res
}

func applyRing(r orb.Ring, f PointFunc) orb.Ring {
	return orb.Ring(applyPoints(r, f))
}

func applyPolygon(p orb.Polygon, f PointFunc) orb.Polygon {
	res := make(orb.Polygon, len(p))
	for i, r := range p {
		res[i] = applyRing(r, f)
	}
	return res
}

// Polygons returns the polygons of a Polygon or MultiPolygon, or of the polygonal members of a Collection
func Polygons(g orb.Geometry) []orb.Polygon {
	switch v := g.(type) {
	case orb.Polygon:
		return []orb.Polygon{v}
	case orb.MultiPolygon:
		return []orb.Polygon(v)
	case orb.Collection:
		var res []orb.Polygon
		for _, c := range v {
			res = append(res, Polygons(c)...)
		}
		return res
	}
	return nil
}

// IsPolygonal reports whether g is a Polygon or MultiPolygon
func IsPolygonal(g orb.Geometry) bool {
	switch g.(type) {
	case orb.Polygon, orb.MultiPolygon:
		return true
	}
	return false
}

// Area returns the planar area of the polygonal parts of g
func Area(g orb.Geometry) float64 {
	area := 0.0
	for _, p := range Polygons(g) {
		area += planar.Area(p)
	}
	return area
}

// FromGeoJSON converts a geojson geometry into the equivalent orb geometry.
func FromGeoJSON(g *geojson.Geometry) (orb.Geometry, error) {
	if g == nil {
		return nil, nil
	}
	switch {
	case g.IsPoint():
		return toPoint(g.Point), nil
	case g.IsMultiPoint():
		return orb.MultiPoint(toPoints(g.MultiPoint)), nil
	case g.IsLineString():
		return orb.LineString(toPoints(g.LineString)), nil
	case g.IsMultiLineString():
		res := make(orb.MultiLineString, len(g.MultiLineString))
		for i, ls := range g.MultiLineString {
			res[i] = orb.LineString(toPoints(ls))
		}
		return res, nil
	case g.IsPolygon():
		return toPolygon(g.Polygon), nil
	case g.IsMultiPolygon():
		res := make(orb.MultiPolygon, len(g.MultiPolygon))
		for i, p := range g.MultiPolygon {
			res[i] = toPolygon(p)
		}
		return res, nil
	case g.IsCollection():
		res := make(orb.Collection, 0, len(g.Geometries))
		for _, c := range g.Geometries {
			o, err := FromGeoJSON(c)
			if err != nil {
				return nil, err
			}
			res = append(res, o)
		}
		return res, nil
	}
	return nil, fmt.Errorf("%w: %q", models.ErrUnsupportedGeometry, g.Type)
}

func toPoint(p []float64) orb.Point {
	if len(p) < 2 {
		return orb.Point{}
	}
	return orb.Point{p[0], p[1]}
}

func toPoints(ps [][]float64) []orb.Point {
	res := make([]orb.Point, len(ps))
	for i, p := range ps {
		res[i] = toPoint(p)
	}
	return res
}

func toPolygon(rings [][][]float64) orb.Polygon {
	res := make(orb.Polygon, len(rings))
	for i, r := range rings {
		res[i] = orb.Ring(toPoints(r))
	}
	return res
}

// ToGeoJSON converts an orb geometry into a geojson geometry. A nil geometry converts to nil.
func ToGeoJSON(g orb.Geometry) *geojson.Geometry {
	switch v := g.(type) {
	case orb.Point:
		return geojson.NewPointGeometry(fromPoint(v))
	case orb.MultiPoint:
		return geojson.NewMultiPointGeometry(fromPoints(v)...)
	case orb.LineString:
		return geojson.NewLineStringGeometry(fromPoints(v))
	case orb.Ring:
		return geojson.NewLineStringGeometry(fromPoints(v))
	case orb.MultiLineString:
		lines := make([][][]float64, len(v))
		for i, ls := range v {
			lines[i] = fromPoints(ls)
		}
		return geojson.NewMultiLineStringGeometry(lines...)
	case orb.Polygon:
		return geojson.NewPolygonGeometry(fromPolygon(v))
	case orb.MultiPolygon:
		polygons := make([][][][]float64, len(v))
		for i, p := range v {
			polygons[i] = fromPolygon(p)
		}
		return geojson.NewMultiPolygonGeometry(polygons...)
	case orb.Collection:
		geometries := make([]*geojson.Geometry, 0, len(v))
		for _, c := range v {
			if gj := ToGeoJSON(c); gj != nil {
				geometries = append(geometries, gj)
			}
		}
		return geojson.NewCollectionGeometry(geometries...)
	}
	return nil
}

func fromPoint(p orb.Point) []float64 {
	return []float64{p[0], p[1]}
}

func fromPoints(ps []orb.Point) [][]float64 {
	res := make([][]float64, len(ps))
	for i, p := range ps {
		res[i] = fromPoint(p)
	}
	return res
}

func fromPolygon(p orb.Polygon) [][][]float64 {
	res := make([][][]float64, len(p))
	for i, r := range p {
		res[i] = fromPoints(r)
	}
	return res
}
