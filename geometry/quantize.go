package geometry

import (
	"math"

	"github.com/paulmach/orb"
)

// Quantize snaps every coordinate of g to a multiple of 10^digits, rounding half to even.
// digits may be negative, e.g. -2 keeps two decimal places.
func Quantize(g orb.Geometry, digits int) orb.Geometry {
	if g == nil {
		return nil
	}
	factor := math.Pow(10, float64(digits))
	return Apply(g, func(p orb.Point) orb.Point {
		return orb.Point{QuantizeValue(p[0], factor), QuantizeValue(p[1], factor)}
	})
}

// QuantizeValue rounds v to the nearest multiple of factor
func QuantizeValue(v, factor float64) float64 {
	return math.RoundToEven(v/factor) * factor
}

// RemoveDegenerateRings drops consecutive duplicate vertices and then any ring with
// fewer than 4 coordinates. A polygon whose outer ring is dropped is dropped with its holes.
// The result is nil when nothing survives.
func RemoveDegenerateRings(g orb.Geometry) orb.Geometry {
	switch v := g.(type) {
	case orb.Polygon:
		if p := cleanPolygon(v); p != nil {
			return p
		}
		return nil
	case orb.MultiPolygon:
		var res orb.MultiPolygon
		for _, p := range v {
			if c := cleanPolygon(p); c != nil {
				res = append(res, c)
			}
		}
		if len(res) == 0 {
			return nil
		}
		return res
	}
	return g
}

func cleanPolygon(p orb.Polygon) orb.Polygon {
	var res orb.Polygon
	for i, r := range p {
		c := cleanRing(r)
		if len(c) < 4 {
			if i == 0 {
				return nil
			}
			continue
		}
		res = append(res, c)
	}
	return res
}

func cleanRing(r orb.Ring) orb.Ring {
	res := make(orb.Ring, 0, len(r)+1)
	for i, p := range r {
		if i > 0 && p.Equal(res[len(res)-1]) {
			continue
		}
		res = append(res, p)
	}
	if len(res) > 0 && !res[0].Equal(res[len(res)-1]) {
		res = append(res, res[0])
	}
	return res
}
