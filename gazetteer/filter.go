package gazetteer

import (
	"github.com/ONSdigital/dp-map-dataset/models"
	"github.com/ONSdigital/dp-map-dataset/regions"
	"github.com/golang/geo/r1"
	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
)

// Reasons a place is rejected, used as keys of Extraction.Rejected
const (
	RejectFeatureClass = "feature_class"
	RejectFeatureCode  = "feature_code"
	RejectPopulation   = "population"
	RejectCountry      = "country"
	RejectBoundingBox  = "bounding_box"
	RejectDuplicate    = "duplicate"
	RejectDecluttered  = "decluttered"
)

// filter holds the conjunction of conditions a place must meet
type filter struct {
	featureClass string
	featureCodes map[string]bool
	threshold    int64
	table        *regions.Table
	included     map[string]bool
	excluded     map[string]bool
	rect         s2.Rect
}

func newFilter(o *Options) *filter {
	return &filter{
		featureClass: o.FeatureClass,
		featureCodes: toSet(o.FeatureCodes),
		threshold:    o.PopulationThreshold,
		table:        o.Table,
		included:     toSet(o.IncludedCountryCodes),
		excluded:     toSet(o.ExcludedCountryCodes),
		rect:         rectFromBox(o.BoundingBox),
	}
}

// reject returns the reason the place fails the filter, or an empty string when it passes
func (f *filter) reject(p Place) string {
	if p.FeatureClass != f.featureClass {
		return RejectFeatureClass
	}
	if !f.featureCodes[p.FeatureCode] {
		return RejectFeatureCode
	}
	if p.Population <= f.threshold {
		return RejectPopulation
	}
	if f.table != nil {
		if _, ok := f.table.ByAlpha2(p.CountryCode); !ok {
			return RejectCountry
		}
	}
	if len(f.included) > 0 && !f.included[p.CountryCode] {
		return RejectCountry
	}
	if f.excluded[p.CountryCode] {
		return RejectCountry
	}
	if !f.rect.ContainsLatLng(s2.LatLngFromDegrees(p.Latitude, p.Longitude)) {
		return RejectBoundingBox
	}
	return ""
}

// regionID looks up the place's region, if a table is configured
func (f *filter) regionID(p Place) *int {
	if f.table == nil {
		return nil
	}
	if id, ok := f.table.ByAlpha2(p.CountryCode); ok {
		return models.IntPtr(id)
	}
	return nil
}

// rectFromBox builds the s2 rectangle for an inclusive degree box. The longitude interval
// is built from its endpoints so that boxes wider than 180 degrees are not inverted.
func rectFromBox(b models.BoundingBox) s2.Rect {
	if b.IsZero() {
		b = models.WorldBoundingBox
	}
	return s2.Rect{
		Lat: r1.Interval{Lo: radians(b.MinLat), Hi: radians(b.MaxLat)},
		Lng: s1.IntervalFromEndpoints(radians(b.MinLon), radians(b.MaxLon)),
	}
}

// radians converts the same way s2.LatLngFromDegrees does, so edge points compare equal
func radians(deg float64) float64 {
	return (s1.Angle(deg) * s1.Degree).Radians()
}

func toSet(values []string) map[string]bool {
	m := make(map[string]bool, len(values))
	for _, v := range values {
		m[v] = true
	}
	return m
}
