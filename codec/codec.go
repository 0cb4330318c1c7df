// Package codec encodes city points and region polygons as CBOR arrays of arrays.
//
// A city is written as [name, x, y, population] with a fifth region id element when the
// city has one. Coordinates are always written as 64 bit floats so that decoding gives
// back exactly the values that were encoded.
package codec

import (
	"errors"
	"fmt"
	"io"
	"io/ioutil"

	"github.com/ONSdigital/dp-map-dataset/geometry"
	"github.com/ONSdigital/dp-map-dataset/models"
	"github.com/fxamacker/cbor/v2"
	"github.com/paulmach/orb"
)

// ErrInvalidRecord is returned when a decoded record does not have the expected shape
var ErrInvalidRecord = errors.New("invalid cbor record")

var encMode = mustEncMode()

func mustEncMode() cbor.EncMode {
	em, err := cbor.EncOptions{
		ShortestFloat: cbor.ShortestFloatNone,
		NaNConvert:    cbor.NaNConvertNone,
		InfConvert:    cbor.InfConvertNone,
	}.EncMode()
	if err != nil {
		panic(err)
	}
	return em
}

// MarshalCities encodes the cities, in order, as a CBOR array
func MarshalCities(cities []models.CityRecord) ([]byte, error) {
	records := make([]interface{}, 0, len(cities))
	for _, c := range cities {
		record := []interface{}{c.Name, c.X, c.Y, c.Population}
		if c.RegionID != nil {
			record = append(record, *c.RegionID)
		}
		records = append(records, record)
	}
	return encMode.Marshal(records)
}

// EncodeCities writes the cities to w
func EncodeCities(w io.Writer, cities []models.CityRecord) error {
	b, err := MarshalCities(cities)
	if err != nil {
		return fmt.Errorf("encoding cities: %w", err)
	}
	_, err = w.Write(b)
	return err
}

// UnmarshalCities decodes cities encoded by MarshalCities
func UnmarshalCities(data []byte) ([]models.CityRecord, error) {
	var records [][]interface{}
	if err := cbor.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decoding cities: %w", err)
	}

	cities := make([]models.CityRecord, 0, len(records))
	for i, r := range records {
		if len(r) != 4 && len(r) != 5 {
			return nil, fmt.Errorf("%w: city %d has %d elements", ErrInvalidRecord, i, len(r))
		}
		name, ok := r[0].(string)
		if !ok {
			return nil, fmt.Errorf("%w: city %d name is %T", ErrInvalidRecord, i, r[0])
		}
		x, err := toFloat(r[1])
		if err != nil {
			return nil, fmt.Errorf("%w: city %d x: %v", ErrInvalidRecord, i, err)
		}
		y, err := toFloat(r[2])
		if err != nil {
			return nil, fmt.Errorf("%w: city %d y: %v", ErrInvalidRecord, i, err)
		}
		pop, err := toInt(r[3])
		if err != nil {
			return nil, fmt.Errorf("%w: city %d population: %v", ErrInvalidRecord, i, err)
		}
		city := models.CityRecord{Name: name, X: x, Y: y, Population: pop}
		if len(r) == 5 {
			id, err := toInt(r[4])
			if err != nil {
				return nil, fmt.Errorf("%w: city %d region id: %v", ErrInvalidRecord, i, err)
			}
			city.RegionID = models.IntPtr(int(id))
		}
		cities = append(cities, city)
	}
	return cities, nil
}

// DecodeCities reads cities from r
func DecodeCities(r io.Reader) ([]models.CityRecord, error) {
	b, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading cities: %w", err)
	}
	return UnmarshalCities(b)
}

// MarshalRegions encodes each region as [region_id, polygons], where polygons is an array of
// polygons, each an array of rings of [x, y] pairs. Regions without a geometry have no polygons.
func MarshalRegions(regions []models.RegionFeature) ([]byte, error) {
	records := make([]interface{}, 0, len(regions))
	for _, r := range regions {
		polygons := make([]interface{}, 0)
		for _, p := range geometry.Polygons(r.Geometry) {
			rings := make([]interface{}, 0, len(p))
			for _, ring := range p {
				points := make([]interface{}, 0, len(ring))
				for _, pt := range ring {
					points = append(points, []float64{pt[0], pt[1]})
				}
				rings = append(rings, points)
			}
			polygons = append(polygons, rings)
		}
		records = append(records, []interface{}{r.RegionID, polygons})
	}
	return encMode.Marshal(records)
}

// EncodeRegions writes the regions to w
func EncodeRegions(w io.Writer, regions []models.RegionFeature) error {
	b, err := MarshalRegions(regions)
	if err != nil {
		return fmt.Errorf("encoding regions: %w", err)
	}
	_, err = w.Write(b)
	return err
}

type regionRecord struct {
	_        struct{} `cbor:",toarray"`
	RegionID int
	Polygons [][][][2]float64
}

// UnmarshalRegions decodes regions encoded by MarshalRegions. Each region's geometry is
// an orb.MultiPolygon, or nil when it has no polygons.
func UnmarshalRegions(data []byte) ([]models.RegionFeature, error) {
	var records []regionRecord
	if err := cbor.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decoding regions: %w", err)
	}

	regions := make([]models.RegionFeature, 0, len(records))
	for _, r := range records {
		region := models.RegionFeature{RegionID: r.RegionID}
		if len(r.Polygons) > 0 {
			mp := make(orb.MultiPolygon, len(r.Polygons))
			for i, p := range r.Polygons {
				mp[i] = make(orb.Polygon, len(p))
				for j, ring := range p {
					mp[i][j] = make(orb.Ring, len(ring))
					for k, pt := range ring {
						mp[i][j][k] = orb.Point(pt)
					}
				}
			}
			region.Geometry = mp
		}
		regions = append(regions, region)
	}
	return regions, nil
}

func toFloat(v interface{}) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	case int64:
		return float64(n), nil
	}
	return 0, fmt.Errorf("expected a number, got %T", v)
}

func toInt(v interface{}) (int64, error) {
	switch n := v.(type) {
	case uint64:
		return int64(n), nil
	case int64:
		return n, nil
	case float64:
		if n == float64(int64(n)) {
			return int64(n), nil
		}
	}
	return 0, fmt.Errorf("expected an integer, got %T", v)
}
