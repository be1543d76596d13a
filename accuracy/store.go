// Package accuracy provides the pluggable historical-accuracy store consumed
// by the confidence evaluator's historical factor. The factor's contract is
// deliberately thin: a store returns an accuracy level 0-100 for a topic, or
// reports that it has nothing recorded, in which case the evaluator falls
// back to a neutral default.
package accuracy

import (
	"sync"

	"github.com/replylabs/chorus/internal/statistics"
)

// DefaultAccuracy is the neutral value the evaluator assumes when no store is
// configured or the store has no data for the topic.
const DefaultAccuracy = 75

// Store reports historical answer accuracy for a topic as an integer 0-100.
// The second return is false when the store has no data for the topic.
type Store interface {
	HistoricalAccuracy(topic string) (int, bool)
}

// StaticStore always reports the same accuracy, regardless of topic.
type StaticStore struct {
	value int
}

// Static returns a store that reports v for every topic.
func Static(v int) *StaticStore {
	return &StaticStore{value: v}
}

func (s *StaticStore) HistoricalAccuracy(string) (int, bool) {
	return s.value, true
}

// Recorder is an in-memory store that accumulates per-topic correctness
// outcomes and reports their mean. Safe for concurrent use.
type Recorder struct {
	mu      sync.Mutex
	samples map[string][]float64
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		samples: make(map[string][]float64),
	}
}

// Record adds one observed outcome for a topic.
func (r *Recorder) Record(topic string, correct bool) {
	v := 0.0
	if correct {
		v = 1.0
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.samples[topic] = append(r.samples[topic], v)
}

// HistoricalAccuracy reports the mean recorded accuracy for the topic scaled
// to 0-100, or false when nothing has been recorded for it.
func (r *Recorder) HistoricalAccuracy(topic string) (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	samples, ok := r.samples[topic]
	if !ok || len(samples) == 0 {
		return 0, false
	}

	return int(statistics.Mean(samples)*100.0 + 0.5), true
}

// Interval returns a bootstrap confidence interval over the recorded
// outcomes for a topic, for callers that want uncertainty alongside the
// point estimate. Returns false when nothing has been recorded.
func (r *Recorder) Interval(topic string, confidenceLevel float64) (statistics.Interval, bool) {
	r.mu.Lock()
	samples, ok := r.samples[topic]
	copied := make([]float64, len(samples))
	copy(copied, samples)
	r.mu.Unlock()

	if !ok || len(copied) == 0 {
		return statistics.Interval{}, false
	}

	return statistics.BootstrapInterval(copied, confidenceLevel), true
}
