package aggregator

import (
	"strings"

	"github.com/ONSdigital/dp-map-dataset/geometry"
	"github.com/ONSdigital/dp-map-dataset/models"
	"github.com/ONSdigital/dp-map-dataset/topology"
	"github.com/ONSdigital/go-ns/log"
)

// FixAntimeridian shifts the negative longitudes of every feature whose alpha-3 code is
// flagged, then unions the feature's parts so that pieces cut at the antimeridian join up.
// Other features are returned unchanged.
func FixAntimeridian(features []models.PolygonFeature, flagged []string) []models.PolygonFeature {
	set := make(map[string]bool, len(flagged))
	for _, code := range flagged {
		set[strings.ToUpper(code)] = true
	}

	res := make([]models.PolygonFeature, len(features))
	for i, f := range features {
		if set[f.CountryCode] && f.Geometry != nil {
			shifted := geometry.ShiftAntimeridian(f.Geometry)
			if geometry.IsPolygonal(shifted) {
				if merged := topology.Union(shifted); merged != nil {
					shifted = merged
				}
			}
			log.Debug("shifted across the antimeridian", log.Data{"country": f.CountryCode, "parts": len(geometry.Polygons(shifted))})
			f.Geometry = shifted
		}
		res[i] = f
	}
	return res
}
