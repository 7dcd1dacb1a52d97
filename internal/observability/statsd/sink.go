package statsd

import (
	"sync"
	"time"
)

// Discard is a Sink that drops every metric.
var Discard Sink = discardSink{}

type discardSink struct{}

func (discardSink) Count(string, int64, map[string]string)          {}
func (discardSink) Gauge(string, float64, map[string]string)        {}
func (discardSink) Timing(string, time.Duration, map[string]string) {}

// Sample is one metric captured by Recorder.
type Sample struct {
	Kind  string // "count", "gauge" or "timing"
	Name  string
	Value float64
	Tags  map[string]string
}

// Recorder is an in-memory Sink for tests and local inspection.
type Recorder struct {
	mu      sync.Mutex
	samples []Sample
}

var _ Sink = (*Recorder)(nil)

func (r *Recorder) Count(name string, value int64, tags map[string]string) {
	r.add(Sample{Kind: "count", Name: name, Value: float64(value), Tags: cloneTags(tags)})
}

func (r *Recorder) Gauge(name string, value float64, tags map[string]string) {
	r.add(Sample{Kind: "gauge", Name: name, Value: value, Tags: cloneTags(tags)})
}

func (r *Recorder) Timing(name string, value time.Duration, tags map[string]string) {
	r.add(Sample{Kind: "timing", Name: name, Value: float64(value) / float64(time.Millisecond), Tags: cloneTags(tags)})
}

func (r *Recorder) add(s Sample) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.samples = append(r.samples, s)
}

// Samples returns a copy of everything recorded so far.
func (r *Recorder) Samples() []Sample {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Sample(nil), r.samples...)
}

// Total sums the count samples named name whose tags include every pair in match.
func (r *Recorder) Total(name string, match map[string]string) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	var total int64
	for _, s := range r.samples {
		if s.Kind != "count" || s.Name != name || !tagsMatch(s.Tags, match) {
			continue
		}
		total += int64(s.Value)
	}
	return total
}

func tagsMatch(tags, match map[string]string) bool {
	for k, v := range match {
		if tags[k] != v {
			return false
		}
	}
	return true
}

// LastGauge returns the most recent gauge value recorded under name.
func (r *Recorder) LastGauge(name string) (float64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.samples) - 1; i >= 0; i-- {
		if s := r.samples[i]; s.Kind == "gauge" && s.Name == name {
			return s.Value, true
		}
	}
	return 0, false
}
