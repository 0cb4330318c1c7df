package geometry

import "github.com/paulmach/orb"

// ShiftAntimeridian adds 360 to every negative longitude in g so that a country
// drawn across the antimeridian becomes one contiguous shape in the eastern
// hemisphere. Latitudes and the nesting of g are unchanged, and applying it twice
// gives the same result as applying it once.
func ShiftAntimeridian(g orb.Geometry) orb.Geometry {
	if g == nil {
		return nil
	}
	return Apply(g, shiftPoint)
}

func shiftPoint(p orb.Point) orb.Point {
	if p[0] < 0 {
		return orb.Point{p[0] + 360, p[1]}
	}
	return p
}
