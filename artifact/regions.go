package artifact

import (
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/ONSdigital/dp-map-dataset/codec"
	"github.com/ONSdigital/dp-map-dataset/geometry"
	"github.com/ONSdigital/dp-map-dataset/models"
	"github.com/json-iterator/go"
	"github.com/paulmach/go.geojson"
	"github.com/rubenv/topojson"
)

// RegionIDProperty is the only property written for each region
const RegionIDProperty = "region_id"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// RegionsFeatureCollection builds one feature per region, in the given order. A region
// without a geometry is written with a null geometry so that every region id is present.
func RegionsFeatureCollection(regions []models.RegionFeature) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, r := range regions {
		f := geojson.NewFeature(geometry.ToGeoJSON(r.Geometry))
		f.SetProperty(RegionIDProperty, r.RegionID)
		fc.AddFeature(f)
	}
	return fc
}

// WriteRegionsGeoJSON writes the regions as a GeoJSON FeatureCollection
func WriteRegionsGeoJSON(path string, regions []models.RegionFeature) error {
	b, err := json.Marshal(RegionsFeatureCollection(regions))
	if err != nil {
		return fmt.Errorf("encoding regions geojson: %w", err)
	}
	return writeFile(path, b)
}

// ReadRegionsGeoJSON reads regions written by WriteRegionsGeoJSON
func ReadRegionsGeoJSON(path string) ([]models.RegionFeature, error) {
	b, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading regions: %w", err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(b)
	if err != nil {
		return nil, fmt.Errorf("decoding regions %s: %w", path, err)
	}

	regions := make([]models.RegionFeature, 0, len(fc.Features))
	for i, f := range fc.Features {
		id, err := f.PropertyFloat64(RegionIDProperty)
		if err != nil {
			return nil, fmt.Errorf("%w: feature %d has no %s", models.ErrMissingColumn, i, RegionIDProperty)
		}
		g, err := geometry.FromGeoJSON(f.Geometry)
		if err != nil {
			return nil, fmt.Errorf("decoding region %v: %w", id, err)
		}
		regions = append(regions, models.RegionFeature{RegionID: int(id), Geometry: g})
	}
	return regions, nil
}

// RegionsTopology builds a TopoJSON topology of the regions that have a geometry.
// Each object is keyed by its region id.
func RegionsTopology(regions []models.RegionFeature) *topojson.Topology {
	fc := geojson.NewFeatureCollection()
	for _, r := range regions {
		if r.Geometry == nil {
			continue
		}
		f := geojson.NewFeature(geometry.ToGeoJSON(r.Geometry))
		f.SetProperty(RegionIDProperty, strconv.Itoa(r.RegionID))
		fc.AddFeature(f)
	}
	return topojson.NewTopology(fc, &topojson.TopologyOptions{
		PreQuantize:  1e6,
		PostQuantize: 1e6,
		IDProperty:   RegionIDProperty,
	})
}

// WriteRegionsTopoJSON writes the regions as a TopoJSON topology
func WriteRegionsTopoJSON(path string, regions []models.RegionFeature) error {
	b, err := json.Marshal(RegionsTopology(regions))
	if err != nil {
		return fmt.Errorf("encoding regions topojson: %w", err)
	}
	return writeFile(path, b)
}

// TopologyIDs returns the sorted ids of the objects in a topology, taken from the idProperty where present
func TopologyIDs(topology *topojson.Topology, idProperty string) []string {
	o := []*topojson.Geometry{}
	for _, v := range topology.Objects {
		o = append(o, v)
	}
	m := getGeographyIDs(o, idProperty)
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// getGeographyIDs extracts the id from each geometry, using the given idProperty first, or the ID if no such property found
func getGeographyIDs(topologyObjects []*topojson.Geometry, idProperty string) map[string]bool {
	m := make(map[string]bool)
	for _, o := range topologyObjects {
		if o.Type == geojson.GeometryCollection {
			for k := range getGeographyIDs(o.Geometries, idProperty) {
				m[k] = true
			}
			continue
		}
		id, isString := o.Properties[idProperty].(string)
		if isString && len(id) > 0 {
			m[id] = true
		} else {
			m[o.ID] = true
		}
	}
	return m
}

// ReadTopoJSON reads a topology file
func ReadTopoJSON(path string) (*topojson.Topology, error) {
	b, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading topology: %w", err)
	}
	var t topojson.Topology
	if err := json.Unmarshal(b, &t); err != nil {
		return nil, fmt.Errorf("decoding topology %s: %w", path, err)
	}
	return &t, nil
}

// WriteRegionsCBOR writes the region polygons as CBOR
func WriteRegionsCBOR(path string, regions []models.RegionFeature) error {
	b, err := codec.MarshalRegions(regions)
	if err != nil {
		return err
	}
	return writeFile(path, b)
}

// writeFile writes to a temporary file beside path and renames it into place, creating the directory if needed
func writeFile(path string, b []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	tmp, err := ioutil.TempFile(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
