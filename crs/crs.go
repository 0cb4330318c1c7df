// Package crs provides the named coordinate transforms shared by the polygon and city pipelines.
package crs

import (
	"fmt"
	"math"
	"strings"

	"github.com/ONSdigital/dp-map-dataset/geometry"
	"github.com/ONSdigital/dp-map-dataset/models"
	"github.com/ctessum/geom/proj"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
)

// Names of the supported coordinate reference systems. Any proj4 definition starting with "+proj=" is also accepted.
const (
	WGS84           = "EPSG:4326"
	WebMercator     = "EPSG:3857"
	BritishGrid     = "EPSG:27700"
	Equirectangular = "EQUIRECTANGULAR"
)

// EarthRadius is the WGS84 semi-major axis in metres, used by the spherical projections
const EarthRadius = 6378137.0

// maxMercatorLatitude is the latitude at which web mercator becomes square
const maxMercatorLatitude = 85.0511287798066

const (
	wgs84Proj4       = "+proj=longlat +datum=WGS84 +no_defs"
	britishGridProj4 = "+proj=tmerc +lat_0=49 +lon_0=-2 +k=0.9996012717 +x_0=400000 +y_0=-100000 +ellps=airy +towgs84=446.448,-125.157,542.06,0.15,0.247,0.842,-20.489 +units=m +no_defs"
)

type projectFunc func(lon, lat float64) (float64, float64, error)

// Transform converts longitude/latitude in degrees into the target coordinate system.
// A Transform holds no mutable state and may be shared between goroutines.
type Transform struct {
	name           string
	longitudeScale float64
	project        projectFunc
}

// New returns the transform with the given name. longitudeScale multiplies every longitude before
// it is projected; zero is treated as 1.
func New(name string, longitudeScale float64) (*Transform, error) {
	if longitudeScale == 0 {
		longitudeScale = 1
	}
	t := &Transform{name: name, longitudeScale: longitudeScale}

	switch strings.ToUpper(strings.TrimSpace(name)) {
	case WGS84:
		t.project = identity
	case WebMercator:
		t.project = webMercator
	case Equirectangular:
		t.project = equirectangular
	case BritishGrid:
		f, err := fromProj4(britishGridProj4)
		if err != nil {
			return nil, err
		}
		t.project = f
	default:
		if !strings.HasPrefix(strings.TrimSpace(name), "+proj=") {
			return nil, fmt.Errorf("%w: %q", models.ErrUnknownCRS, name)
		}
		f, err := fromProj4(name)
		if err != nil {
			return nil, err
		}
		t.project = f
	}
	return t, nil
}

// Name returns the name the transform was created with
func (t *Transform) Name() string {
	return t.name
}

// Project converts a single longitude/latitude pair
func (t *Transform) Project(lon, lat float64) (float64, float64, error) {
	x, y, err := t.project(lon*t.longitudeScale, lat)
	if err != nil {
		return 0, 0, fmt.Errorf("projecting %v,%v to %s: %w", lon, lat, t.name, err)
	}
	if math.IsNaN(x) || math.IsNaN(y) || math.IsInf(x, 0) || math.IsInf(y, 0) {
		return 0, 0, fmt.Errorf("projecting %v,%v to %s: result is not finite", lon, lat, t.name)
	}
	return x, y, nil
}

// Geometry projects every vertex of g. The first projection error is returned.
func (t *Transform) Geometry(g orb.Geometry) (orb.Geometry, error) {
	var err error
	res := geometry.Apply(g, func(p orb.Point) orb.Point {
		if err != nil {
			return p
		}
		x, y, e := t.Project(p[0], p[1])
		if e != nil {
			err = e
			return p
		}
		return orb.Point{x, y}
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func identity(lon, lat float64) (float64, float64, error) {
	return lon, lat, nil
}

func webMercator(lon, lat float64) (float64, float64, error) {
	lat = math.Max(-maxMercatorLatitude, math.Min(maxMercatorLatitude, lat))
	p := project.WGS84.ToMercator(orb.Point{lon, lat})
	return p[0], p[1], nil
}

func equirectangular(lon, lat float64) (float64, float64, error) {
	return EarthRadius * lon * math.Pi / 180, EarthRadius * lat * math.Pi / 180, nil
}

func fromProj4(definition string) (projectFunc, error) {
	src, err := proj.Parse(wgs84Proj4)
	if err != nil {
		return nil, fmt.Errorf("parsing %q: %w", wgs84Proj4, err)
	}
	dst, err := proj.Parse(definition)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing %q: %v", models.ErrUnknownCRS, definition, err)
	}
	transformer, err := src.NewTransform(dst)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", models.ErrUnknownCRS, definition, err)
	}
	return projectFunc(transformer), nil
}
