package pipeline

import (
	"time"

	"github.com/ONSdigital/dp-map-dataset/artifact"
	"github.com/ONSdigital/dp-map-dataset/gazetteer"
	"github.com/ONSdigital/dp-map-dataset/metrics"
	"github.com/ONSdigital/dp-map-dataset/models"
	"github.com/ONSdigital/go-ns/log"
)

// CityResult describes a city build
type CityResult struct {
	*gazetteer.Extraction
	Files []string
}

// Extractor creates a gazetteer extractor configured from the pipeline's config
func (p *Pipeline) Extractor() (*gazetteer.Extractor, error) {
	opts := []gazetteer.Option{
		gazetteer.WithPopulationThreshold(p.cfg.PopulationThreshold),
		gazetteer.WithCountries(alpha2Codes(p.cfg.IncludedCountryCodes), alpha2Codes(p.cfg.ExcludedCountryCodes)),
		gazetteer.WithBoundingBox(p.cfg.BoundingBox),
		gazetteer.WithTransform(p.transform, p.cfg.PointDivisor),
		gazetteer.WithAntimeridian(alpha2Codes(p.cfg.AntimeridianCountries)),
	}
	if len(p.cfg.FeatureCodes) > 0 {
		opts = append(opts, gazetteer.WithFeatureCodes(p.cfg.FeatureCodes))
	}
	if p.table != nil {
		opts = append(opts, gazetteer.WithRegionTable(p.table))
	}
	if p.cfg.DedupeGeohashPrecision > 0 {
		opts = append(opts, gazetteer.WithDedupe(p.cfg.DedupeGeohashPrecision))
	}
	if p.cfg.DeclutterRadius > 0 {
		opts = append(opts, gazetteer.WithDeclutter(p.cfg.DeclutterRadius, p.cfg.DeclutterMinPopulation))
	}
	return gazetteer.New(opts...)
}

// Cities extracts the cities from the gazetteer, writes them as CBOR and updates the manifest
func (p *Pipeline) Cities() (*CityResult, error) {
	defer metrics.TrackTime(time.Now(), "cities")

	e, err := p.Extractor()
	if err != nil {
		return nil, err
	}

	extracted, err := e.ExtractFile(p.cfg.GazetteerFile)
	if err != nil {
		return nil, err
	}
	res := &CityResult{Extraction: extracted}

	rejected := 0
	for _, n := range res.Rejected {
		rejected += n
	}
	metrics.GazetteerLinesTotal.WithLabelValues(metrics.Read).Add(float64(res.Lines))
	metrics.GazetteerLinesTotal.WithLabelValues(metrics.Skipped).Add(float64(len(res.Skipped)))
	metrics.GazetteerLinesTotal.WithLabelValues(metrics.Rejected).Add(float64(rejected))
	metrics.GazetteerLinesTotal.WithLabelValues(metrics.Kept).Add(float64(len(res.Cities)))

	if len(res.Cities) == 0 {
		log.Info("warning: no cities remain", log.Data{"lines": res.Lines, "rejected": res.Rejected})
	}

	if err := artifact.WriteCities(p.outputPath(CitiesFile), res.Cities); err != nil {
		return nil, err
	}
	res.Files = []string{CitiesFile}
	metrics.CitiesWrittenTotal.Add(float64(len(res.Cities)))

	log.Info("cities written", log.Data{
		"cities":   len(res.Cities),
		"skipped":  len(res.Skipped),
		"rejected": res.Rejected,
		"lines":    res.Lines,
	})

	err = p.updateManifest(func(m *models.Manifest) {
		m.Cities = len(res.Cities)
		m.Skipped = len(res.Skipped)
		m.Files = append(m.Files, res.Files...)
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}
