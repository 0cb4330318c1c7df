// Package metrics counts what a build run read, dropped and wrote, and times its stages.
// The counters can be written to a node exporter textfile at the end of a run.
package metrics

import (
	"fmt"

	"github.com/ONSdigital/go-ns/log"
	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels
const (
	Read     = "read"
	Kept     = "kept"
	Skipped  = "skipped"
	Rejected = "rejected"
	Unmapped = "unmapped"
	Dropped  = "dropped"
)

var (
	// Registry holds every collector in this package. It does not include the default process collectors.
	Registry = prometheus.NewRegistry()

	GazetteerLinesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mapdataset_gazetteer_lines_total",
		Help: "Gazetteer lines by outcome",
	}, []string{"outcome"})
	FeaturesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mapdataset_boundary_features_total",
		Help: "Boundary layer features by outcome",
	}, []string{"outcome"})
	RegionsWrittenTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mapdataset_regions_written_total",
		Help: "Region features written to the polygon artifact",
	})
	CitiesWrittenTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mapdataset_cities_written_total",
		Help: "City records written to the point artifact",
	})
	StageSeconds = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mapdataset_stage_seconds_total",
		Help: "Time spent in each stage",
	}, []string{"stage"})
)

func init() {
	Registry.MustRegister(GazetteerLinesTotal)
	Registry.MustRegister(FeaturesTotal)
	Registry.MustRegister(RegionsWrittenTotal)
	Registry.MustRegister(CitiesWrittenTotal)
	Registry.MustRegister(StageSeconds)
}

// WriteTextfile writes the current value of every counter to path in the text exposition format.
// An empty path writes nothing.
func WriteTextfile(path string) error {
	if len(path) == 0 {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, Registry); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	log.Debug("metrics written", log.Data{"path": path})
	return nil
}
