package metrics

import (
	"sort"
	"sync"
	"time"

	"github.com/ONSdigital/go-ns/log"
)

// TrackTime logs the time taken by a stage. Usage - as the first line in a function: defer metrics.TrackTime(time.Now(), "stageName")
func TrackTime(start time.Time, name string) {
	elapsed := time.Since(start)
	log.Debug("stage complete", log.Data{"stage": name, "elapsed_ms": elapsed.Round(time.Millisecond).Milliseconds()})
	StageSeconds.WithLabelValues(name).Add(elapsed.Seconds())
}

var (
	mu            sync.Mutex
	elapsedMap    = make(map[string]time.Duration)
	invocationMap = make(map[string]int64)
)

// RecordTime accumulates the time taken by a step that runs many times, such as a per-region projection.
// The totals are logged and reset by LogTime.
func RecordTime(start time.Time, name string) {
	elapsed := time.Since(start)
	mu.Lock()
	defer mu.Unlock()
	elapsedMap[name] += elapsed
	invocationMap[name]++
}

// LogTime logs the accumulated times recorded by RecordTime, in name order, and resets them
func LogTime() {
	mu.Lock()
	defer mu.Unlock()

	names := make([]string, 0, len(invocationMap))
	for name := range invocationMap {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		elapsed := elapsedMap[name]
		log.Debug("accumulated time", log.Data{"step": name, "elapsed_ms": elapsed.Milliseconds(), "invocations": invocationMap[name]})
		StageSeconds.WithLabelValues(name).Add(elapsed.Seconds())
	}
	elapsedMap = make(map[string]time.Duration)
	invocationMap = make(map[string]int64)
}

// recorded returns the number of invocations recorded for name since the last LogTime
func recorded(name string) int64 {
	mu.Lock()
	defer mu.Unlock()
	return invocationMap[name]
}
