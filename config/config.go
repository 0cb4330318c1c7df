package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ONSdigital/dp-map-dataset/models"
	"github.com/ONSdigital/go-ns/log"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Join keys accepted by RegionJoinKey
const (
	JoinAlpha3 = "alpha3"
	JoinAlpha2 = "alpha2"
)

// Config is the configuration for a dataset build
type Config struct {
	BoundariesFile  string `envconfig:"BOUNDARIES_FILE"`
	RegionCodesFile string `envconfig:"REGION_CODES_FILE"`
	GazetteerFile   string `envconfig:"GAZETTEER_FILE"`
	OutputDir       string `envconfig:"OUTPUT_DIR"`

	TargetCRS         string  `envconfig:"TARGET_CRS"`
	LongitudeScale    float64 `envconfig:"LONGITUDE_SCALE"`
	SimplifyTolerance float64 `envconfig:"SIMPLIFY_TOLERANCE"`
	PrecisionDigits   int     `envconfig:"PRECISION_DIGITS"`
	MinArea           float64 `envconfig:"MIN_AREA"`

	PopulationThreshold   int64              `envconfig:"POPULATION_THRESHOLD"`
	ExcludedCountryCodes  []string           `envconfig:"EXCLUDED_COUNTRY_CODES"`
	IncludedCountryCodes  []string           `envconfig:"INCLUDED_COUNTRY_CODES"`
	ExcludedSubregions    []string           `envconfig:"EXCLUDED_SUBREGIONS"`
	AntimeridianCountries []string           `envconfig:"ANTIMERIDIAN_COUNTRIES"`
	BoundingBox           models.BoundingBox `envconfig:"BOUNDING_BOX"`
	PolygonClipBox        models.BoundingBox `envconfig:"POLYGON_CLIP_BOX"` // zero value disables clipping
	PointDivisor          float64            `envconfig:"POINT_DIVISOR"`
	FeatureCodes          []string           `envconfig:"FEATURE_CODES"`
	RegionJoinKey         string             `envconfig:"REGION_JOIN_KEY"`

	CountryCodeProperty  string `envconfig:"COUNTRY_CODE_PROPERTY"`
	CountryCode2Property string `envconfig:"COUNTRY_CODE2_PROPERTY"`
	SubregionProperty    string `envconfig:"SUBREGION_PROPERTY"`
	Alpha3Column         string `envconfig:"ALPHA3_COLUMN"`
	Alpha2Column         string `envconfig:"ALPHA2_COLUMN"`
	RegionIDColumn       string `envconfig:"REGION_ID_COLUMN"`
	RegionNameColumn     string `envconfig:"REGION_NAME_COLUMN"`

	WriteTopoJSON          bool    `envconfig:"WRITE_TOPOJSON"`
	WriteRegionsCBOR       bool    `envconfig:"WRITE_REGIONS_CBOR"`
	DedupeGeohashPrecision int     `envconfig:"DEDUPE_GEOHASH_PRECISION"`
	DeclutterRadius        float64 `envconfig:"DECLUTTER_RADIUS"`
	DeclutterMinPopulation int64   `envconfig:"DECLUTTER_MIN_POPULATION"`

	MetricsTextfile   string   `envconfig:"METRICS_TEXTFILE"`
	PreviewWidth      float64  `envconfig:"PREVIEW_WIDTH"`
	SVG2PNGExecutable string   `envconfig:"SVG2PNG_EXECUTABLE"`
	SVG2PNGArguments  []string `envconfig:"SVG2PNG_ARGUMENTS"`
}

var cfg *Config

// Get configures the application and returns the configuration.
// A .env file in the working directory, if present, is loaded into the environment first.
func Get() (*Config, error) {
	if cfg != nil {
		return cfg, nil
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	cfg = Default()

	return cfg, envconfig.Process("", cfg)
}

// Default returns a Config populated with the default values, without reading the environment.
func Default() *Config {
	return &Config{
		OutputDir:             "output",
		TargetCRS:             "EPSG:3857",
		LongitudeScale:        1,
		SimplifyTolerance:     1000,
		PrecisionDigits:       2,
		MinArea:               1e6,
		PopulationThreshold:   500,
		AntimeridianCountries: []string{"RUS"},
		BoundingBox:           models.WorldBoundingBox,
		PointDivisor:          1000,
		FeatureCodes:          []string{"PPLA", "PPLA2", "PPLA3", "PPLA4", "PPLL", "PPLC", "PPLS", "PPL"},
		RegionJoinKey:         JoinAlpha3,
		CountryCodeProperty:   "ADM0_A3",
		CountryCode2Property:  "ISO_A2",
		SubregionProperty:     "SUBREGION",
		Alpha3Column:          "alpha-3",
		Alpha2Column:          "alpha-2",
		RegionIDColumn:        "sub-region-code",
		RegionNameColumn:      "sub-region",
		PreviewWidth:          1000,
		SVG2PNGArguments:      []string{"-f", "png", "-o", "<PNG>", "<SVG>"},
	}
}

// Validate checks the values that cannot be checked by envconfig alone
func (cfg *Config) Validate() error {
	var problems []string

	if cfg.PointDivisor == 0 {
		problems = append(problems, "POINT_DIVISOR must not be zero")
	}
	if cfg.LongitudeScale == 0 {
		problems = append(problems, "LONGITUDE_SCALE must not be zero")
	}
	if cfg.SimplifyTolerance < 0 {
		problems = append(problems, "SIMPLIFY_TOLERANCE must not be negative")
	}
	if cfg.MinArea < 0 {
		problems = append(problems, "MIN_AREA must not be negative")
	}
	if cfg.RegionJoinKey != JoinAlpha3 && cfg.RegionJoinKey != JoinAlpha2 {
		problems = append(problems, fmt.Sprintf("REGION_JOIN_KEY must be %q or %q, got %q", JoinAlpha3, JoinAlpha2, cfg.RegionJoinKey))
	}
	if !cfg.BoundingBox.Valid() {
		problems = append(problems, fmt.Sprintf("BOUNDING_BOX is not a valid box: %v", cfg.BoundingBox))
	}
	if !cfg.PolygonClipBox.IsZero() && !cfg.PolygonClipBox.Valid() {
		problems = append(problems, fmt.Sprintf("POLYGON_CLIP_BOX is not a valid box: %v", cfg.PolygonClipBox))
	}

	if problems != nil {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Log writes all config properties to log.Debug
func (cfg *Config) Log() {
	log.Debug("Configuration", log.Data{
		"BoundariesFile":         cfg.BoundariesFile,
		"RegionCodesFile":        cfg.RegionCodesFile,
		"GazetteerFile":          cfg.GazetteerFile,
		"OutputDir":              cfg.OutputDir,
		"TargetCRS":              cfg.TargetCRS,
		"LongitudeScale":         cfg.LongitudeScale,
		"SimplifyTolerance":      cfg.SimplifyTolerance,
		"PrecisionDigits":        cfg.PrecisionDigits,
		"MinArea":                cfg.MinArea,
		"PopulationThreshold":    cfg.PopulationThreshold,
		"ExcludedCountryCodes":   cfg.ExcludedCountryCodes,
		"IncludedCountryCodes":   cfg.IncludedCountryCodes,
		"ExcludedSubregions":     cfg.ExcludedSubregions,
		"AntimeridianCountries":  cfg.AntimeridianCountries,
		"BoundingBox":            cfg.BoundingBox.String(),
		"PolygonClipBox":         cfg.PolygonClipBox.String(),
		"PointDivisor":           cfg.PointDivisor,
		"FeatureCodes":           cfg.FeatureCodes,
		"RegionJoinKey":          cfg.RegionJoinKey,
		"WriteTopoJSON":          cfg.WriteTopoJSON,
		"WriteRegionsCBOR":       cfg.WriteRegionsCBOR,
		"DedupeGeohashPrecision": cfg.DedupeGeohashPrecision,
		"DeclutterRadius":        cfg.DeclutterRadius,
		"DeclutterMinPopulation": cfg.DeclutterMinPopulation,
		"MetricsTextfile":        cfg.MetricsTextfile,
		"SVG2PNGExecutable":      cfg.SVG2PNGExecutable,
	})
}
