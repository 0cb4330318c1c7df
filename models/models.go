package models

import (
	"errors"
	"fmt"
	"io"
	"io/ioutil"

	"github.com/ONSdigital/go-ns/log"
	"github.com/json-iterator/go"
	"github.com/paulmach/orb"
)

// A list of errors returned from package
var (
	ErrNoFeatures          = errors.New("no features remain")
	ErrUnsupportedGeometry = errors.New("unsupported geometry type")
	ErrUnknownCRS          = errors.New("unknown coordinate reference system")
	ErrMissingColumn       = errors.New("missing column")
	ErrorReadingManifest   = errors.New("failed to read manifest")
)

// PolygonFeature is one country from the boundary layer
type PolygonFeature struct {
	CountryCode  string // ISO 3166-1 alpha-3
	CountryCode2 string // ISO 3166-1 alpha-2
	Subregion    string
	Name         string
	Geometry     orb.Geometry // orb.Polygon or orb.MultiPolygon
	RegionID     *int         // nil until joined to the region code table
}

// RegionFeature is the dissolved geometry of every country sharing a region id.
// Geometry is nil when the region was dropped by the minimum area repair.
type RegionFeature struct {
	RegionID       int
	Name           string
	Geometry       orb.Geometry
	Representative string // alpha-3 code of the largest member
	Members        int
}

// CityRecord is a populated place in output space
type CityRecord struct {
	Name       string
	X          float64
	Y          float64
	Population int64
	RegionID   *int
}

// Skip records a gazetteer line that could not be used
type Skip struct {
	Line   int
	Reason string
	Raw    string
}

func (s Skip) String() string {
	return fmt.Sprintf("line %d: %s", s.Line, s.Reason)
}

// IntPtr returns a pointer to a copy of i
func IntPtr(i int) *int {
	return &i
}

// Manifest describes the artifacts written by a run, and the parameters needed to interpret their coordinates
type Manifest struct {
	TargetCRS         string         `json:"target_crs"`
	LongitudeScale    float64        `json:"longitude_scale"`
	PrecisionDigits   int            `json:"precision_digits"`
	SimplifyTolerance float64        `json:"simplify_tolerance"`
	MinArea           float64        `json:"min_area"`
	PointDivisor      float64        `json:"point_divisor"`
	Regions           int            `json:"regions,omitempty"`
	DroppedRegions    []int          `json:"dropped_regions,omitempty"`
	Cities            int            `json:"cities,omitempty"`
	Skipped           int            `json:"skipped,omitempty"`
	Unmapped          map[string]int `json:"unmapped,omitempty"`
	Files             []string       `json:"files,omitempty"`
}

// CreateManifest reads a Manifest from a reader
func CreateManifest(reader io.Reader) (*Manifest, error) {
	bytes, err := ioutil.ReadAll(reader)
	if err != nil {
		log.Error(err, nil)
		return nil, ErrorReadingManifest
	}

	var manifest Manifest
	err = jsoniter.Unmarshal(bytes, &manifest)
	if err != nil {
		log.Error(err, log.Data{"manifest": string(bytes)})
		return nil, err
	}

	return &manifest, nil
}

// ValidateManifest checks the content of the manifest
func (m *Manifest) ValidateManifest() error {
	var missingFields []string

	if len(m.TargetCRS) == 0 {
		missingFields = append(missingFields, "target_crs")
	}
	if m.PointDivisor == 0 {
		missingFields = append(missingFields, "point_divisor")
	}

	if missingFields != nil {
		return fmt.Errorf("Missing mandatory field(s): %v", missingFields)
	}
	return nil
}
