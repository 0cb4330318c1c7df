package pipeline

import (
	"fmt"
	"strings"
	"time"

	"github.com/ONSdigital/dp-map-dataset/aggregator"
	"github.com/ONSdigital/dp-map-dataset/artifact"
	"github.com/ONSdigital/dp-map-dataset/config"
	"github.com/ONSdigital/dp-map-dataset/geometry"
	"github.com/ONSdigital/dp-map-dataset/metrics"
	"github.com/ONSdigital/dp-map-dataset/models"
	"github.com/ONSdigital/dp-map-dataset/topology"
	"github.com/ONSdigital/go-ns/log"
	"github.com/paulmach/orb"
)

// PolygonResult describes a region build
type PolygonResult struct {
	Regions  []models.RegionFeature
	Unmapped map[string]int
	Dropped  []int // region ids whose geometry fell below the minimum area
	Files    []string
}

// Polygons reads the boundary layer, builds one geometry per region and writes the region artifacts and manifest
func (p *Pipeline) Polygons() (*PolygonResult, error) {
	defer metrics.TrackTime(time.Now(), "polygons")

	if p.table == nil {
		return nil, ErrNoRegionCodes
	}

	features, err := artifact.ReadBoundaries(p.cfg.BoundariesFile, artifact.Properties{
		CountryCode:  p.cfg.CountryCodeProperty,
		CountryCode2: p.cfg.CountryCode2Property,
		Subregion:    p.cfg.SubregionProperty,
		Name:         artifact.DefaultProperties.Name,
	})
	if err != nil {
		return nil, err
	}
	metrics.FeaturesTotal.WithLabelValues(metrics.Read).Add(float64(len(features)))

	res, err := p.BuildRegions(features)
	if err != nil {
		return nil, err
	}

	if err := p.writeRegions(res); err != nil {
		return nil, err
	}
	return res, nil
}

// BuildRegions runs the polygon stages over features already read from a boundary layer:
// filter, clip, antimeridian repair, aggregation, then per region projection, simplification,
// repair, quantization and removal of degenerate rings.
func (p *Pipeline) BuildRegions(features []models.PolygonFeature) (*PolygonResult, error) {
	features = p.filterFeatures(features)
	features = p.clipFeatures(features)
	features = aggregator.FixAntimeridian(features, p.cfg.AntimeridianCountries)

	lookup := aggregator.ByAlpha3(p.table)
	if p.cfg.RegionJoinKey == config.JoinAlpha2 {
		lookup = aggregator.ByAlpha2(p.table)
	}
	aggregated := aggregator.Aggregate(features, lookup, p.table.Name)
	for _, n := range aggregated.Unmapped {
		metrics.FeaturesTotal.WithLabelValues(metrics.Unmapped).Add(float64(n))
	}

	res := &PolygonResult{Regions: aggregated.Regions, Unmapped: aggregated.Unmapped}
	for i := range res.Regions {
		r := &res.Regions[i]
		g, err := p.finishRegion(r)
		if err != nil {
			return nil, fmt.Errorf("region %d: %w", r.RegionID, err)
		}
		if g == nil && r.Geometry != nil {
			res.Dropped = append(res.Dropped, r.RegionID)
			log.Debug("region dropped below the minimum area", log.Data{"region_id": r.RegionID, "min_area": p.cfg.MinArea})
		}
		r.Geometry = g
	}
	metrics.LogTime()

	if countGeometries(res.Regions) == 0 {
		log.Info("warning: no geometries remain", log.Data{"regions": len(res.Regions)})
	}
	return res, nil
}

// finishRegion projects a dissolved region into output space and prepares it for writing.
// A nil result means nothing of the region survived.
func (p *Pipeline) finishRegion(r *models.RegionFeature) (g orb.Geometry, err error) {
	if r.Geometry == nil {
		return nil, nil
	}

	start := time.Now()
	g, err = p.transform.Geometry(r.Geometry)
	if err != nil {
		return nil, err
	}
	metrics.RecordTime(start, "project")

	start = time.Now()
	g = topology.Simplify(g, p.cfg.SimplifyTolerance)
	metrics.RecordTime(start, "simplify")

	start = time.Now()
	g = topology.Repair(g, p.cfg.MinArea)
	metrics.RecordTime(start, "repair")
	if g == nil {
		return nil, nil
	}

	// snapping can carry a vertex across a neighbouring edge, so repair the snapped
	// rings and snap the new intersection points
	g = geometry.Quantize(g, p.cfg.PrecisionDigits)
	if g = topology.Repair(g, p.cfg.MinArea); g == nil {
		return nil, nil
	}
	g = geometry.Quantize(g, p.cfg.PrecisionDigits)
	return geometry.RemoveDegenerateRings(g), nil
}

// filterFeatures applies the include and exclude country lists and the excluded subregions.
// A country list entry matches either code of a feature.
func (p *Pipeline) filterFeatures(features []models.PolygonFeature) []models.PolygonFeature {
	included := codeSet(p.cfg.IncludedCountryCodes)
	excluded := codeSet(p.cfg.ExcludedCountryCodes)
	subregions := make(map[string]bool, len(p.cfg.ExcludedSubregions))
	for _, s := range p.cfg.ExcludedSubregions {
		subregions[strings.ToLower(strings.TrimSpace(s))] = true
	}

	kept := make([]models.PolygonFeature, 0, len(features))
	for _, f := range features {
		matches := func(set map[string]bool) bool {
			return set[f.CountryCode] || set[f.CountryCode2]
		}
		if (len(included) > 0 && !matches(included)) || matches(excluded) || subregions[strings.ToLower(f.Subregion)] {
			continue
		}
		kept = append(kept, f)
	}

	if dropped := len(features) - len(kept); dropped > 0 {
		metrics.FeaturesTotal.WithLabelValues(metrics.Dropped).Add(float64(dropped))
		log.Debug("boundary features filtered out", log.Data{"dropped": dropped, "kept": len(kept)})
	}
	return kept
}

// clipFeatures cuts every feature to the polygon clip box, when one is configured.
// Features entirely outside the box are dropped.
func (p *Pipeline) clipFeatures(features []models.PolygonFeature) []models.PolygonFeature {
	if p.cfg.PolygonClipBox.IsZero() {
		return features
	}

	bound := p.cfg.PolygonClipBox.Bound()
	kept := make([]models.PolygonFeature, 0, len(features))
	for _, f := range features {
		f.Geometry = geometry.Clip(f.Geometry, bound)
		if f.Geometry == nil {
			continue
		}
		kept = append(kept, f)
	}

	if dropped := len(features) - len(kept); dropped > 0 {
		metrics.FeaturesTotal.WithLabelValues(metrics.Dropped).Add(float64(dropped))
		log.Debug("boundary features outside the clip box", log.Data{"dropped": dropped, "box": p.cfg.PolygonClipBox.String()})
	}
	return kept
}

func (p *Pipeline) writeRegions(res *PolygonResult) error {
	defer metrics.TrackTime(time.Now(), "write regions")

	if err := artifact.WriteRegionsGeoJSON(p.outputPath(RegionsGeoJSONFile), res.Regions); err != nil {
		return err
	}
	res.Files = append(res.Files, RegionsGeoJSONFile)

	if p.cfg.WriteTopoJSON {
		if err := artifact.WriteRegionsTopoJSON(p.outputPath(RegionsTopoJSONFile), res.Regions); err != nil {
			return err
		}
		res.Files = append(res.Files, RegionsTopoJSONFile)
	}
	if p.cfg.WriteRegionsCBOR {
		if err := artifact.WriteRegionsCBOR(p.outputPath(RegionsCBORFile), res.Regions); err != nil {
			return err
		}
		res.Files = append(res.Files, RegionsCBORFile)
	}
	metrics.RegionsWrittenTotal.Add(float64(len(res.Regions)))

	log.Info("regions written", log.Data{
		"regions":  len(res.Regions),
		"dropped":  res.Dropped,
		"unmapped": len(res.Unmapped),
		"files":    res.Files,
	})

	return p.updateManifest(func(m *models.Manifest) {
		m.Regions = len(res.Regions)
		m.DroppedRegions = res.Dropped
		m.Unmapped = res.Unmapped
		m.Files = append(m.Files, res.Files...)
	})
}

func countGeometries(regions []models.RegionFeature) int {
	n := 0
	for _, r := range regions {
		if r.Geometry != nil {
			n++
		}
	}
	return n
}
