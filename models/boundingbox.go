package models

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
)

// BoundingBox is an inclusive longitude/latitude box in degrees
type BoundingBox struct {
	MinLon float64
	MinLat float64
	MaxLon float64
	MaxLat float64
}

// WorldBoundingBox covers every valid coordinate
var WorldBoundingBox = BoundingBox{MinLon: -180, MinLat: -90, MaxLon: 180, MaxLat: 90}

// Decode parses "minLon,minLat,maxLon,maxLat". It lets envconfig and the command line flags populate a box.
func (b *BoundingBox) Decode(value string) error {
	value = strings.TrimSpace(value)
	if len(value) == 0 {
		*b = BoundingBox{}
		return nil
	}
	parts := strings.Split(value, ",")
	if len(parts) != 4 {
		return fmt.Errorf("bounding box %q must have 4 comma separated values, found %d", value, len(parts))
	}
	var vs [4]float64
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return fmt.Errorf("bounding box %q: %w", value, err)
		}
		vs[i] = v
	}
	*b = BoundingBox{MinLon: vs[0], MinLat: vs[1], MaxLon: vs[2], MaxLat: vs[3]}
	return nil
}

// IsZero reports whether the box is unset
func (b BoundingBox) IsZero() bool {
	return b == BoundingBox{}
}

// Valid reports whether the box has ordered edges inside the valid coordinate range
func (b BoundingBox) Valid() bool {
	return b.MinLon <= b.MaxLon && b.MinLat <= b.MaxLat &&
		b.MinLon >= -180 && b.MaxLon <= 180 && b.MinLat >= -90 && b.MaxLat <= 90
}

// Contains reports whether the point lies inside the box or on its edge
func (b BoundingBox) Contains(lon, lat float64) bool {
	return lon >= b.MinLon && lon <= b.MaxLon && lat >= b.MinLat && lat <= b.MaxLat
}

// Bound returns the box as an orb.Bound
func (b BoundingBox) Bound() orb.Bound {
	return orb.Bound{Min: orb.Point{b.MinLon, b.MinLat}, Max: orb.Point{b.MaxLon, b.MaxLat}}
}

func (b BoundingBox) String() string {
	if b.IsZero() {
		return ""
	}
	return fmt.Sprintf("%g,%g,%g,%g", b.MinLon, b.MinLat, b.MaxLon, b.MaxLat)
}

// Set and Type allow a BoundingBox to be used as a command line flag value
func (b *BoundingBox) Set(value string) error {
	return b.Decode(value)
}

func (b *BoundingBox) Type() string {
	return "bbox"
}
