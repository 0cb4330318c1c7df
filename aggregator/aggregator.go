// Package aggregator joins country polygons to their region ids and dissolves each
// region into a single geometry.
package aggregator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ONSdigital/dp-map-dataset/geometry"
	"github.com/ONSdigital/dp-map-dataset/models"
	"github.com/ONSdigital/dp-map-dataset/regions"
	"github.com/ONSdigital/dp-map-dataset/topology"
	"github.com/ONSdigital/go-ns/log"
	"github.com/paulmach/orb"
)

// Lookup finds the region id of a feature
type Lookup func(f models.PolygonFeature) (int, bool)

// ByAlpha3 looks features up by their alpha-3 country code
func ByAlpha3(t *regions.Table) Lookup {
	return func(f models.PolygonFeature) (int, bool) {
		return t.ByAlpha3(f.CountryCode)
	}
}

// ByAlpha2 looks features up by their alpha-2 country code
func ByAlpha2(t *regions.Table) Lookup {
	return func(f models.PolygonFeature) (int, bool) {
		return t.ByAlpha2(f.CountryCode2)
	}
}

// Result contains the dissolved regions, sorted by region id, and the country codes
// that had no region id with the number of features dropped for each.
type Result struct {
	Regions  []models.RegionFeature
	Unmapped map[string]int
}

// Join returns copies of the features that have a region id, with RegionID set.
// Features without one are dropped and counted by country code.
func Join(features []models.PolygonFeature, lookup Lookup) ([]models.PolygonFeature, map[string]int) {
	joined := make([]models.PolygonFeature, 0, len(features))
	unmapped := make(map[string]int)
	for _, f := range features {
		id, ok := lookup(f)
		if !ok {
			unmapped[f.CountryCode]++
			continue
		}
		f.RegionID = models.IntPtr(id)
		joined = append(joined, f)
	}
	return joined, unmapped
}

// Aggregate joins the features to their regions, groups them by region id and unions each group.
// Every region id held by a joined feature appears exactly once in the result.
func Aggregate(features []models.PolygonFeature, lookup Lookup, names func(int) string) *Result {
	joined, unmapped := Join(features, lookup)
	if len(unmapped) > 0 {
		log.Info("warning: features without a region id were dropped", log.Data{"unmapped": unmappedSummary(unmapped)})
	}

	groups := make(map[int][]models.PolygonFeature)
	for _, f := range joined {
		groups[*f.RegionID] = append(groups[*f.RegionID], f)
	}

	ids := make([]int, 0, len(groups))
	for id := range groups {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	res := &Result{Unmapped: unmapped, Regions: make([]models.RegionFeature, 0, len(ids))}
	for _, id := range ids {
		res.Regions = append(res.Regions, dissolve(id, groups[id], names))
	}
	return res
}

func dissolve(id int, members []models.PolygonFeature, names func(int) string) models.RegionFeature {
	region := models.RegionFeature{
		RegionID:       id,
		Representative: Representative(members),
		Members:        len(members),
	}
	if names != nil {
		region.Name = names(id)
	}

	parts := make([]orb.Geometry, 0, len(members))
	for _, m := range members {
		if m.Geometry != nil {
			parts = append(parts, m.Geometry)
		}
	}
	region.Geometry = topology.Union(parts...)
	return region
}

// Representative returns the alpha-3 code of the member with the largest area.
// Equal areas are settled by the lowest code, so the choice never depends on input order.
func Representative(members []models.PolygonFeature) string {
	best := ""
	bestArea := -1.0
	for _, m := range members {
		area := geometry.Area(m.Geometry)
		if area > bestArea || (area == bestArea && m.CountryCode < best) {
			best = m.CountryCode
			bestArea = area
		}
	}
	return best
}

func unmappedSummary(unmapped map[string]int) string {
	codes := make([]string, 0, len(unmapped))
	for code, n := range unmapped {
		codes = append(codes, fmt.Sprintf("%s:%d", code, n))
	}
	sort.Strings(codes)
	return strings.Join(codes, ", ")
}
