// Package artifact reads the boundary layer and reads and writes the dataset files:
// region GeoJSON, TopoJSON and CBOR, city CBOR and the run manifest.
package artifact

import (
	"fmt"
	"io/ioutil"
	"strings"

	"github.com/ONSdigital/dp-map-dataset/geometry"
	"github.com/ONSdigital/dp-map-dataset/models"
	"github.com/ONSdigital/dp-map-dataset/regions"
	"github.com/ONSdigital/go-ns/log"
	"github.com/paulmach/go.geojson"
)

// Properties names the boundary layer properties copied into each PolygonFeature
type Properties struct {
	CountryCode  string
	CountryCode2 string
	Subregion    string
	Name         string
}

// DefaultProperties match the Natural Earth admin 0 countries layer
var DefaultProperties = Properties{CountryCode: "ADM0_A3", CountryCode2: "ISO_A2", Subregion: "SUBREGION", Name: "NAME"}

// ReadBoundaries reads a country boundary layer from a GeoJSON FeatureCollection file
func ReadBoundaries(path string, props Properties) ([]models.PolygonFeature, error) {
	b, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading boundaries: %w", err)
	}
	features, err := ParseBoundaries(b, props)
	if err != nil {
		return nil, fmt.Errorf("reading boundaries %s: %w", path, err)
	}
	return features, nil
}

// ParseBoundaries converts a GeoJSON FeatureCollection into polygon features.
// Features without a polygonal geometry are skipped. A missing or "-99" alpha-2 code is
// derived from the alpha-3 code.
func ParseBoundaries(data []byte, props Properties) ([]models.PolygonFeature, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, err
	}

	features := make([]models.PolygonFeature, 0, len(fc.Features))
	skipped := 0
	for i, f := range fc.Features {
		g, err := geometry.FromGeoJSON(f.Geometry)
		if err != nil || !geometry.IsPolygonal(g) {
			skipped++
			log.Debug("skipping boundary feature without a polygon", log.Data{"index": i, "error": fmt.Sprint(err)})
			continue
		}

		code := strings.ToUpper(property(f, props.CountryCode))
		code2 := strings.ToUpper(property(f, props.CountryCode2))
		if len(code2) == 0 || code2 == "-99" {
			code2 = regions.Alpha2(code)
		}

		features = append(features, models.PolygonFeature{
			CountryCode:  code,
			CountryCode2: code2,
			Subregion:    property(f, props.Subregion),
			Name:         property(f, props.Name),
			Geometry:     g,
		})
	}

	if skipped > 0 {
		log.Info(fmt.Sprintf("warning: %d boundary features had no polygon and were skipped", skipped), nil)
	}
	return features, nil
}

// property returns a string property, or an empty string when it is missing or not text
func property(f *geojson.Feature, key string) string {
	if len(key) == 0 {
		return ""
	}
	s, err := f.PropertyString(key)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}
