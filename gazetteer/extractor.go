// Package gazetteer streams a GeoNames dump and extracts the populated places that
// are labelled on the map, projected with the same transform as the region polygons.
package gazetteer

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/ONSdigital/dp-map-dataset/crs"
	"github.com/ONSdigital/dp-map-dataset/geometry"
	"github.com/ONSdigital/dp-map-dataset/models"
	"github.com/ONSdigital/dp-map-dataset/regions"
	"github.com/ONSdigital/go-ns/log"
	"github.com/paulmach/orb"
)

// maxLineLength allows for the long alternate name field of the largest cities
const maxLineLength = 4 * 1024 * 1024

// DefaultFeatureCodes are the GeoNames codes of populated places kept by default
var DefaultFeatureCodes = []string{"PPLA", "PPLA2", "PPLA3", "PPLA4", "PPLL", "PPLC", "PPLS", "PPL"}

// Options contains the settings of an Extractor
type Options struct {
	FeatureClass           string
	FeatureCodes           []string
	PopulationThreshold    int64
	Table                  *regions.Table // when set, the country must be in the table
	IncludedCountryCodes   []string       // alpha-2; empty means every country
	ExcludedCountryCodes   []string       // alpha-2
	BoundingBox            models.BoundingBox
	Transform              *crs.Transform
	PointDivisor           float64
	DedupeGeohashPrecision int
	DeclutterRadius        float64
	DeclutterMinPopulation int64
	AntimeridianCountries  []string // alpha-2; negative longitudes are shifted by 360 before projection
}

// Option is a functional option for configuring an Extractor.
type Option func(*Options)

// WithFeatureCodes sets the GeoNames feature codes that are kept
func WithFeatureCodes(codes []string) Option {
	return func(o *Options) {
		o.FeatureCodes = codes
	}
}

// WithPopulationThreshold keeps only places with a population strictly greater than n
func WithPopulationThreshold(n int64) Option {
	return func(o *Options) {
		o.PopulationThreshold = n
	}
}

// WithRegionTable keeps only places whose country is in the table, and records their region id
func WithRegionTable(t *regions.Table) Option {
	return func(o *Options) {
		o.Table = t
	}
}

// WithCountries sets the included and excluded alpha-2 country codes
func WithCountries(included, excluded []string) Option {
	return func(o *Options) {
		o.IncludedCountryCodes = upper(included)
		o.ExcludedCountryCodes = upper(excluded)
	}
}

// WithBoundingBox keeps only places inside the box, edges included
func WithBoundingBox(b models.BoundingBox) Option {
	return func(o *Options) {
		o.BoundingBox = b
	}
}

// WithTransform sets the projection and the divisor applied to projected coordinates
func WithTransform(t *crs.Transform, divisor float64) Option {
	return func(o *Options) {
		o.Transform = t
		o.PointDivisor = divisor
	}
}

// WithAntimeridian shifts the negative longitudes of places in the given alpha-2 countries by 360
// degrees before projection, matching the shift applied to the same countries' polygons
func WithAntimeridian(countries []string) Option {
	return func(o *Options) {
		o.AntimeridianCountries = upper(countries)
	}
}

// WithDedupe drops places sharing a name and a geohash cell of the given precision with a larger place
func WithDedupe(precision int) Option {
	return func(o *Options) {
		o.DedupeGeohashPrecision = precision
	}
}

// WithDeclutter keeps only places of at least minPopulation that are further than radius,
// in output units, from every larger place kept.
func WithDeclutter(radius float64, minPopulation int64) Option {
	return func(o *Options) {
		o.DeclutterRadius = radius
		o.DeclutterMinPopulation = minPopulation
	}
}

func defaultOptions() *Options {
	return &Options{
		FeatureClass:        "P",
		FeatureCodes:        DefaultFeatureCodes,
		PopulationThreshold: 500,
		BoundingBox:         models.WorldBoundingBox,
		PointDivisor:        1,
	}
}

// Extractor filters and projects the places of a gazetteer
type Extractor struct {
	options      *Options
	filter       *filter
	antimeridian map[string]bool
}

// Extraction is the outcome of an extraction: the kept cities sorted by population, largest
// first, and the lines that could not be used.
type Extraction struct {
	Cities   []models.CityRecord
	Skipped  []models.Skip
	Rejected map[string]int
	Lines    int
}

// New creates an Extractor. Without a transform, coordinates are kept in degrees.
func New(opts ...Option) (*Extractor, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	if o.Transform == nil {
		t, err := crs.New(crs.WGS84, 1)
		if err != nil {
			return nil, err
		}
		o.Transform = t
	}
	if o.PointDivisor == 0 {
		return nil, fmt.Errorf("point divisor must not be zero")
	}
	return &Extractor{options: o, filter: newFilter(o), antimeridian: toSet(o.AntimeridianCountries)}, nil
}

// candidate is a kept place along with the position used for deduplication
type candidate struct {
	record models.CityRecord
	lat    float64
	lon    float64
}

// Extract reads the gazetteer line by line. Malformed lines are recorded as skips and
// reading continues; only a failure of the reader itself is returned as an error.
func (e *Extractor) Extract(r io.Reader) (*Extraction, error) {
	res := &Extraction{Rejected: make(map[string]int)}
	var kept []candidate
	if err := e.scan(r, res, &kept); err != nil {
		return nil, err
	}
	return e.finish(res, kept), nil
}

func (e *Extractor) scan(r io.Reader, res *Extraction, kept *[]candidate) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineLength)
	scanner.Split(bufio.ScanLines)

	for scanner.Scan() {
		res.Lines++
		line := scanner.Text()
		if len(strings.TrimSpace(line)) == 0 {
			continue
		}

		p, err := ParseLine(line)
		if err != nil {
			e.skip(res, line, err.Error())
			continue
		}

		if reason := e.filter.reject(p); len(reason) > 0 {
			res.Rejected[reason]++
			continue
		}

		x, y, err := e.options.Transform.Project(e.longitude(p), p.Latitude)
		if err != nil {
			e.skip(res, line, err.Error())
			continue
		}

		*kept = append(*kept, candidate{
			record: models.CityRecord{
				Name:       p.Name,
				X:          x / e.options.PointDivisor,
				Y:          y / e.options.PointDivisor,
				Population: p.Population,
				RegionID:   e.filter.regionID(p),
			},
			lat: p.Latitude,
			lon: p.Longitude,
		})
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading gazetteer at line %d: %w", res.Lines+1, err)
	}
	return nil
}

// longitude returns the place's longitude in the same range as its country's polygons
func (e *Extractor) longitude(p Place) float64 {
	if !e.antimeridian[p.CountryCode] {
		return p.Longitude
	}
	shifted := geometry.ShiftAntimeridian(orb.Point{p.Longitude, p.Latitude}).(orb.Point)
	return shifted.X()
}

func (e *Extractor) skip(res *Extraction, line string, reason string) {
	s := models.Skip{Line: res.Lines, Reason: reason, Raw: line}
	res.Skipped = append(res.Skipped, s)
	log.Info("skipping malformed gazetteer line", log.Data{"line": s.Line, "reason": s.Reason, "raw": s.Raw})
}

// finish sorts the kept places by population, largest first and stable for ties, then thins them
func (e *Extractor) finish(res *Extraction, kept []candidate) *Extraction {
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].record.Population > kept[j].record.Population
	})

	if e.options.DedupeGeohashPrecision > 0 {
		var n int
		kept, n = dedupe(kept, e.options.DedupeGeohashPrecision)
		res.Rejected[RejectDuplicate] += n
	}
	if e.options.DeclutterRadius > 0 {
		var n int
		kept, n = declutter(kept, e.options.DeclutterRadius, e.options.DeclutterMinPopulation)
		res.Rejected[RejectDecluttered] += n
	}

	res.Cities = make([]models.CityRecord, len(kept))
	for i, c := range kept {
		res.Cities[i] = c.record
	}

	log.Debug("gazetteer extracted", log.Data{
		"lines":    res.Lines,
		"kept":     len(res.Cities),
		"skipped":  len(res.Skipped),
		"rejected": res.Rejected,
	})
	return res
}

func upper(codes []string) []string {
	res := make([]string, 0, len(codes))
	for _, c := range codes {
		if c = strings.ToUpper(strings.TrimSpace(c)); len(c) > 0 {
			res = append(res, c)
		}
	}
	return res
}
