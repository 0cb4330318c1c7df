package preview

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/ONSdigital/dp-map-dataset/geometry"
	"github.com/ONSdigital/dp-map-dataset/models"
	"github.com/paulmach/orb"
	"golang.org/x/net/html"
)

const newline = "\n"

// scaleFunc accepts x,y coordinates in output space and returns svg coordinates
type scaleFunc func(float64, float64) (float64, float64)

// Padding around the drawing, in svg units
type Padding struct{ Top, Right, Bottom, Left float64 }

// SVG draws regions and cities that share one coordinate space.
// Use NewSVG to create one, then append regions and cities before calling Draw.
type SVG struct {
	padding    Padding
	attributes map[string]string
	regions    []models.RegionFeature
	cities     []models.CityRecord
}

// NewSVG returns an empty SVG with the given padding
func NewSVG(padding Padding) *SVG {
	return &SVG{padding: padding, attributes: make(map[string]string)}
}

// SetAttribute adds the key value pair as an attribute of the svg root element
func (svg *SVG) SetAttribute(k, v string) {
	svg.attributes[k] = v
}

// AppendRegions adds regions to the drawing. Regions without a geometry are ignored.
func (svg *SVG) AppendRegions(regions []models.RegionFeature) {
	for _, r := range regions {
		if r.Geometry != nil {
			svg.regions = append(svg.regions, r)
		}
	}
}

// AppendCities adds cities to the drawing. Their coordinates must be in the same units as the regions.
func (svg *SVG) AppendCities(cities []models.CityRecord) {
	svg.cities = append(svg.cities, cities...)
}

// Draw renders the svg, scaling every coordinate to fit into width and height
func (svg *SVG) Draw(width, height float64) string {
	sf := makeScaleFunc(width, height, svg.padding, svg.bound())

	content := bytes.NewBufferString("")
	if len(svg.regions) > 0 {
		fmt.Fprintf(content, `%s<g class="regions">`, newline)
		for _, r := range svg.regions {
			attributes := makeAttributes(map[string]string{"class": "region", "id": fmt.Sprintf("region-%d", r.RegionID)})
			drawRegion(sf, content, r.Geometry, attributes, regionTitle(r))
		}
		fmt.Fprintf(content, `%s</g>`, newline)
	}
	if len(svg.cities) > 0 {
		fmt.Fprintf(content, `%s<g class="cities">`, newline)
		for _, c := range svg.cities {
			drawCity(sf, content, c)
		}
		fmt.Fprintf(content, `%s</g>`, newline)
	}

	attributes := makeAttributes(svg.attributes)
	return fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%g" height="%g"%s>%s%s</svg>`, width, height, attributes, content, newline)
}

// HeightForWidth returns the height that keeps the aspect ratio of the drawing at the given width
func (svg *SVG) HeightForWidth(width float64) float64 {
	b := svg.bound()
	if b.Max.X() == b.Min.X() {
		return width
	}
	ratio := (b.Max.Y() - b.Min.Y()) / (b.Max.X() - b.Min.X())
	return math.Floor((width * ratio) + .5)
}

func (svg *SVG) bound() orb.Bound {
	var b orb.Bound
	first := true
	extend := func(other orb.Bound) {
		if first {
			b, first = other, false
			return
		}
		b = b.Union(other)
	}
	for _, r := range svg.regions {
		extend(r.Geometry.Bound())
	}
	for _, c := range svg.cities {
		extend(orb.Point{c.X, c.Y}.Bound())
	}
	return b
}

func regionTitle(r models.RegionFeature) string {
	if len(r.Name) > 0 {
		return fmt.Sprintf("%d %s", r.RegionID, r.Name)
	}
	return fmt.Sprintf("%d", r.RegionID)
}

func drawRegion(sf scaleFunc, w io.Writer, g orb.Geometry, attributes string, title string) {
	polygons := geometry.Polygons(g)
	if len(polygons) == 1 {
		drawPolygon(sf, w, polygons[0], attributes, title)
		return
	}
	fmt.Fprintf(w, `%s<g%s>`, newline, attributes)
	if len(title) > 0 {
		fmt.Fprintf(w, `%s<title>%s</title>`, newline, html.EscapeString(title))
	}
	for _, p := range polygons {
		drawPolygon(sf, w, p, "", "")
	}
	fmt.Fprintf(w, `%s</g>`, newline)
}

// drawPolygon writes one path with a subpath per ring, filled even-odd so holes show through
func drawPolygon(sf scaleFunc, w io.Writer, p orb.Polygon, attributes string, title string) {
	subPaths := make([]string, 0, len(p))
	for _, ring := range p {
		coords := make([]string, 0, len(ring))
		for _, pt := range ring {
			x, y := sf(pt[0], pt[1])
			coords = append(coords, fmt.Sprintf("%f %f", x, y))
		}
		subPaths = append(subPaths, "M"+strings.Join(coords, ",")+" Z")
	}
	fmt.Fprintf(w, `%s<path fill-rule="evenodd" d="%s"%s%s`, newline, strings.Join(subPaths, " "), attributes, endTag("path", title))
}

func drawCity(sf scaleFunc, w io.Writer, c models.CityRecord) {
	x, y := sf(c.X, c.Y)
	fmt.Fprintf(w, `%s<circle class="city" cx="%f" cy="%f" r="%g"%s`, newline, x, y, cityRadius(c.Population), endTag("circle", c.Name))
}

// cityRadius grows with the order of magnitude of the population, never below 1
func cityRadius(population int64) float64 {
	if population < 10000 {
		return 1
	}
	return math.Floor(math.Log10(float64(population))) - 3
}

// endTag creates an end tag string, "/>" if title is empty, "><title>title</title></tag>" otherwise.
func endTag(tag string, title string) string {
	if len(title) > 0 {
		return fmt.Sprintf("><title>%s</title></%s>", html.EscapeString(title), tag)
	}
	return "/>"
}

// makeAttributes converts the given map into a string with each key="value" pair in sorted order
func makeAttributes(as map[string]string) string {
	keys := make([]string, 0, len(as))
	for k := range as {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	res := bytes.NewBufferString("")
	for _, k := range keys {
		fmt.Fprintf(res, ` %s="%s"`, k, html.EscapeString(as[k]))
	}
	return res.String()
}

// makeScaleFunc creates a function that scales a pair of coordinates to fit within the width and height.
// The y axis is flipped, as output space has north up and svg has y down.
func makeScaleFunc(width, height float64, padding Padding, b orb.Bound) scaleFunc {
	w := width - padding.Left - padding.Right
	h := height - padding.Top - padding.Bottom

	res := math.Max((b.Max.X()-b.Min.X())/w, (b.Max.Y()-b.Min.Y())/h)
	if res == 0 || math.IsNaN(res) {
		return func(x, y float64) (float64, float64) { return padding.Left + w/2, padding.Top + h/2 }
	}

	return func(x, y float64) (float64, float64) {
		return (x-b.Min.X())/res + padding.Left, (b.Max.Y()-y)/res + padding.Top
	}
}
