package confidence

import (
	"github.com/KasumiMercury/primind-scan-reminder/internal/domain"
	"github.com/KasumiMercury/primind-scan-reminder/internal/service/clock"
)

const (
	// BucketMinutes is the width of the time-of-day slots samples are grouped into.
	BucketMinutes = 30

	DefaultMinSamples = 7
	DefaultThreshold  = 0.5
)

type Sample struct {
	Hour   int
	Minute int
}

// SamplesFromEvents extracts the wall-clock part of each scan event.
func SamplesFromEvents(events []domain.ScanEvent) []Sample {
	samples := make([]Sample, 0, len(events))
	for _, e := range events {
		samples = append(samples, Sample{Hour: e.Hour, Minute: e.Minute})
	}
	return samples
}

// Result is the most likely bucket and whether the evidence supports it.
// Time is empty when there were too few samples.
type Result struct {
	Time       string
	Confidence domain.Confidence
	Score      float64
	Samples    int
}

type Scorer struct {
	minSamples int
	threshold  float64
}

func NewScorer(minSamples int, threshold float64) *Scorer {
	if minSamples <= 0 {
		minSamples = DefaultMinSamples
	}
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Scorer{
		minSamples: minSamples,
		threshold:  threshold,
	}
}

// Score picks the 30 minute bucket holding the most samples. Ties go to the
// bucket that first reached the winning count in input order.
func (s *Scorer) Score(samples []Sample) Result {
	if len(samples) < s.minSamples {
		return Result{Confidence: domain.ConfidenceLow, Samples: len(samples)}
	}

	counts := make(map[int]int, len(samples))
	order := make([]int, 0, len(samples))
	for _, sample := range samples {
		bucket := BucketOf(sample)
		if _, seen := counts[bucket]; !seen {
			order = append(order, bucket)
		}
		counts[bucket]++
	}

	best, bestCount := 0, 0
	for _, bucket := range order {
		if counts[bucket] > bestCount {
			best = bucket
			bestCount = counts[bucket]
		}
	}

	score := float64(bestCount) / float64(len(samples))
	label := domain.ConfidenceLow
	if score >= s.threshold {
		label = domain.ConfidenceHigh
	}

	return Result{
		Time:       clock.FormatTimeOfDay(best),
		Confidence: label,
		Score:      score,
		Samples:    len(samples),
	}
}

// BucketOf floors a sample to the start of its bucket, in minutes since midnight.
func BucketOf(sample Sample) int {
	return sample.Hour*60 + (sample.Minute/BucketMinutes)*BucketMinutes
}
