// Package pipeline runs the two dataset builds, regions from the boundary layer and cities
// from the gazetteer, with the parameters of one Config.
package pipeline

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/ONSdigital/dp-map-dataset/artifact"
	"github.com/ONSdigital/dp-map-dataset/config"
	"github.com/ONSdigital/dp-map-dataset/crs"
	"github.com/ONSdigital/dp-map-dataset/models"
	"github.com/ONSdigital/dp-map-dataset/regions"
	"github.com/ONSdigital/go-ns/log"
)

// Output file names, written to Config.OutputDir
const (
	RegionsGeoJSONFile  = "regions.geojson"
	RegionsTopoJSONFile = "regions.topojson"
	RegionsCBORFile     = "regions.cbor"
	CitiesFile          = "cities.cbor"
)

// ErrNoRegionCodes is returned when the polygon build has no region code table
var ErrNoRegionCodes = errors.New("a region codes file is required to build regions")

// Pipeline holds the read-only values shared by both builds
type Pipeline struct {
	cfg       *config.Config
	transform *crs.Transform
	table     *regions.Table

	manifestMu sync.Mutex
}

// New creates the coordinate transform and loads the region code table named by the config.
// Without a region codes file the table is nil, which only the city build accepts.
func New(cfg *config.Config) (*Pipeline, error) {
	transform, err := crs.New(cfg.TargetCRS, cfg.LongitudeScale)
	if err != nil {
		return nil, err
	}

	var table *regions.Table
	if len(cfg.RegionCodesFile) > 0 {
		table, err = regions.LoadFile(cfg.RegionCodesFile, regions.Columns{
			Alpha3:     cfg.Alpha3Column,
			Alpha2:     cfg.Alpha2Column,
			RegionID:   cfg.RegionIDColumn,
			RegionName: cfg.RegionNameColumn,
		})
		if err != nil {
			return nil, err
		}
	}

	return NewWithTable(cfg, transform, table), nil
}

// NewWithTable creates a Pipeline from values that are already loaded
func NewWithTable(cfg *config.Config, transform *crs.Transform, table *regions.Table) *Pipeline {
	return &Pipeline{cfg: cfg, transform: transform, table: table}
}

// All runs the region and city builds concurrently and returns the first error of either
func (p *Pipeline) All() error {
	var wg sync.WaitGroup
	var polygonErr, cityErr error

	wg.Add(2)
	go func() {
		defer wg.Done()
		_, polygonErr = p.Polygons()
	}()
	go func() {
		defer wg.Done()
		_, cityErr = p.Cities()
	}()
	wg.Wait()

	if polygonErr != nil {
		return polygonErr
	}
	return cityErr
}

func (p *Pipeline) outputPath(name string) string {
	return filepath.Join(p.cfg.OutputDir, name)
}

// updateManifest reads the manifest left by an earlier run, if any, applies update and writes it back.
// The parameters of this run always replace the earlier ones.
func (p *Pipeline) updateManifest(update func(m *models.Manifest)) error {
	p.manifestMu.Lock()
	defer p.manifestMu.Unlock()

	path := p.outputPath(artifact.ManifestFile)
	m, err := artifact.ReadManifest(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Info("warning: replacing unreadable manifest", log.Data{"path": path, "error": err.Error()})
		}
		m = &models.Manifest{}
	}

	m.TargetCRS = p.transform.Name()
	m.LongitudeScale = p.cfg.LongitudeScale
	m.PrecisionDigits = p.cfg.PrecisionDigits
	m.SimplifyTolerance = p.cfg.SimplifyTolerance
	m.MinArea = p.cfg.MinArea
	m.PointDivisor = p.cfg.PointDivisor
	update(m)
	m.Files = uniqueSorted(m.Files)

	if err := artifact.WriteManifest(path, m); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	return nil
}

func uniqueSorted(names []string) []string {
	set := make(map[string]bool, len(names))
	res := make([]string, 0, len(names))
	for _, n := range names {
		if !set[n] {
			set[n] = true
			res = append(res, n)
		}
	}
	sort.Strings(res)
	return res
}

// codeSet upper-cases a list of country codes
func codeSet(codes []string) map[string]bool {
	set := make(map[string]bool, len(codes))
	for _, c := range codes {
		if c = strings.ToUpper(strings.TrimSpace(c)); len(c) > 0 {
			set[c] = true
		}
	}
	return set
}

// alpha2Codes converts any alpha-3 codes in the list to alpha-2, the form used by the gazetteer.
// Codes that cannot be converted are kept as given so they still fail to match.
func alpha2Codes(codes []string) []string {
	res := make([]string, 0, len(codes))
	for c := range codeSet(codes) {
		if len(c) == 3 {
			if a2 := regions.Alpha2(c); len(a2) > 0 {
				c = a2
			}
		}
		res = append(res, c)
	}
	sort.Strings(res)
	return res
}
