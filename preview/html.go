package preview

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"sort"
	"strings"

	"github.com/ONSdigital/dp-map-dataset/models"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const svgReplacementText = "[SVG Here]"

const pageStyle = `
.region { fill: #d9e4ef; stroke: #206095; stroke-width: 0.5; }
.region:hover { fill: #a8bcd1; }
.city { fill: #f39431; fill-opacity: 0.8; }
dt { font-weight: bold; }
`

// RenderHTML returns an html page with the manifest summary and the map. When png is not empty the
// map is included as an image, otherwise the svg is written inline.
func RenderHTML(m *models.Manifest, svg string, png []byte) []byte {
	page := renderPage(m)
	mapContent := svg
	if len(png) > 0 {
		mapContent = fmt.Sprintf(`<img alt="Map preview" src="data:image/png;base64,%s" />`, base64.StdEncoding.EncodeToString(png))
	}
	return []byte(strings.Replace(page, svgReplacementText, mapContent, 1))
}

// renderPage builds the page with placeholder text where the map goes
func renderPage(m *models.Manifest) string {
	head := createNode("head", atom.Head,
		createNode("meta", atom.Meta, attr("charset", "utf-8")),
		createNode("title", atom.Title, "Map dataset preview"),
		createNode("style", atom.Style, pageStyle))

	figure := createNode("figure", atom.Figure,
		attr("class", "figure"),
		"\n",
		createNode("figcaption", atom.Figcaption, attr("class", "map__caption"), caption(m)),
		"\n",
		createNode("div", atom.Div, attr("class", "map"), svgReplacementText),
		"\n",
		createNode("footer", atom.Footer, attr("class", "figure__footer"), summary(m)),
		"\n")

	doc := createNode("html", atom.Html, head, createNode("body", atom.Body, figure))

	var buf bytes.Buffer
	buf.WriteString("<!DOCTYPE html>\n")
	html.Render(&buf, doc)
	buf.WriteString("\n")
	return buf.String()
}

func caption(m *models.Manifest) string {
	return fmt.Sprintf("%d regions and %d cities in %s", m.Regions, m.Cities, m.TargetCRS)
}

// summary lists the parameters of the run that wrote the artifacts
func summary(m *models.Manifest) *html.Node {
	dl := createNode("dl", atom.Dl, "\n")
	add := func(term string, value interface{}) {
		dl.AppendChild(createNode("dt", atom.Dt, term))
		dl.AppendChild(createNode("dd", atom.Dd, fmt.Sprint(value)))
		dl.AppendChild(text("\n"))
	}
	add("Coordinate system", m.TargetCRS)
	add("Longitude scale", m.LongitudeScale)
	add("Simplify tolerance", m.SimplifyTolerance)
	add("Precision digits", m.PrecisionDigits)
	add("Minimum area", m.MinArea)
	add("Point divisor", m.PointDivisor)
	add("Regions", m.Regions)
	if len(m.DroppedRegions) > 0 {
		add("Dropped regions", m.DroppedRegions)
	}
	add("Cities", m.Cities)
	add("Skipped gazetteer lines", m.Skipped)
	if len(m.Unmapped) > 0 {
		codes := make([]string, 0, len(m.Unmapped))
		for code, n := range m.Unmapped {
			codes = append(codes, fmt.Sprintf("%s (%d)", code, n))
		}
		sort.Strings(codes)
		add("Countries without a region", strings.Join(codes, ", "))
	}
	add("Files", strings.Join(m.Files, ", "))
	return dl
}

// createNode creates an html Node and sets attributes or adds child nodes according to the type of each value
func createNode(data string, dataAtom atom.Atom, values ...interface{}) *html.Node {
	node := &html.Node{
		Type:     html.ElementNode,
		Data:     data,
		DataAtom: dataAtom,
	}
	for _, value := range values {
		switch v := value.(type) {
		case html.Attribute:
			node.Attr = append(node.Attr, v)
		case *html.Node:
			node.AppendChild(v)
		case string:
			node.AppendChild(text(v))
		}
	}
	return node
}

func attr(key string, val string) html.Attribute {
	return html.Attribute{Key: key, Val: val}
}

func text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}
