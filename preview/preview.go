// Package preview draws the artifacts of a build as an svg map of regions and cities,
// and wraps it in an html page with a summary of the run. A png can be made with an
// external converter.
package preview

import (
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/ONSdigital/dp-map-dataset/artifact"
	"github.com/ONSdigital/dp-map-dataset/models"
	"github.com/ONSdigital/go-ns/log"
)

// Output file names, written beside the artifacts
const (
	SVGFile  = "preview.svg"
	HTMLFile = "preview.html"
	PNGFile  = "preview.png"
)

// Options for a preview
type Options struct {
	Width        float64
	Padding      Padding
	RegionsFile  string
	CitiesFile   string
	PNGConverter PNGConverter // optional
}

// Result lists the files written
type Result struct {
	Files []string
}

// Build reads the manifest and artifacts in dir and writes the preview files beside them.
// Artifacts that the manifest does not list are left out of the drawing.
func Build(dir string, opts Options) (*Result, error) {
	m, err := artifact.ReadManifest(filepath.Join(dir, artifact.ManifestFile))
	if err != nil {
		return nil, err
	}

	svg := NewSVG(opts.Padding)
	svg.SetAttribute("class", "map_preview")

	if listed(m, opts.RegionsFile) {
		regions, err := artifact.ReadRegionsGeoJSON(filepath.Join(dir, opts.RegionsFile))
		if err != nil {
			return nil, err
		}
		svg.AppendRegions(regions)
	}
	if listed(m, opts.CitiesFile) {
		cities, err := artifact.ReadCities(filepath.Join(dir, opts.CitiesFile))
		if err != nil {
			return nil, err
		}
		svg.AppendCities(OutputUnits(cities, m.PointDivisor))
	}

	width := opts.Width
	if width <= 0 {
		width = 1000
	}
	svgString := svg.Draw(width, svg.HeightForWidth(width))

	res := &Result{}
	if err := write(dir, SVGFile, []byte(svgString), res); err != nil {
		return nil, err
	}

	var png []byte
	if opts.PNGConverter != nil {
		png, err = opts.PNGConverter.Convert([]byte(svgString))
		if err != nil {
			return nil, fmt.Errorf("converting preview to png: %w", err)
		}
		if err := write(dir, PNGFile, png, res); err != nil {
			return nil, err
		}
	}

	if err := write(dir, HTMLFile, RenderHTML(m, svgString, png), res); err != nil {
		return nil, err
	}

	log.Info("preview written", log.Data{"dir": dir, "files": res.Files})
	return res, nil
}

// OutputUnits multiplies city coordinates by the point divisor so they share the units of the regions
func OutputUnits(cities []models.CityRecord, divisor float64) []models.CityRecord {
	if divisor == 0 {
		divisor = 1
	}
	res := make([]models.CityRecord, len(cities))
	for i, c := range cities {
		c.X *= divisor
		c.Y *= divisor
		res[i] = c
	}
	return res
}

func listed(m *models.Manifest, name string) bool {
	if len(name) == 0 {
		return false
	}
	for _, f := range m.Files {
		if f == name {
			return true
		}
	}
	return false
}

func write(dir, name string, b []byte, res *Result) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	if err := ioutil.WriteFile(filepath.Join(dir, name), b, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	res.Files = append(res.Files, name)
	return nil
}
