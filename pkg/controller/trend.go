package controller

import "github.com/rmoralis/cloudbatch/pkg/models"

// ThroughputTrend classifies the shape of recent throughput
type ThroughputTrend string

const (
	ThroughputIncreasing ThroughputTrend = "increasing"
	ThroughputDecreasing ThroughputTrend = "decreasing"
	ThroughputPlateauing ThroughputTrend = "plateauing"
)

// ErrorTrend classifies the direction of the error rate
type ErrorTrend string

const (
	ErrorsIncreasing ErrorTrend = "increasing"
	ErrorsDecreasing ErrorTrend = "decreasing"
)

// TrendAnalysis is advisory output; it never gates adjustments directly
type TrendAnalysis struct {
	Throughput ThroughputTrend `json:"throughput"`
	Errors     ErrorTrend      `json:"errors"`
	Confidence float64         `json:"confidence"`
}

// confidenceTable maps (errorTrend, throughputTrend) to a confidence score.
// Falling errors with rising throughput is the clearest signal; rising errors
// against a plateau is the murkiest.
var confidenceTable = map[ErrorTrend]map[ThroughputTrend]float64{
	ErrorsDecreasing: {
		ThroughputIncreasing: 0.9,
		ThroughputPlateauing: 0.8,
		ThroughputDecreasing: 0.7,
	},
	ErrorsIncreasing: {
		ThroughputIncreasing: 0.7,
		ThroughputPlateauing: 0.6,
		ThroughputDecreasing: 0.75,
	},
}

// AnalyzeTrend compares the latest sample against the window's first sample
// and its observed maximum. Throughput within [0.8, 1.05] of the max while
// still above the first sample reads as a plateau.
func (c *Controller) AnalyzeTrend() TrendAnalysis {
	if len(c.history) < 2 {
		return TrendAnalysis{
			Throughput: ThroughputPlateauing,
			Errors:     ErrorsDecreasing,
			Confidence: 0.6,
		}
	}

	first := c.history[0]
	last := c.history[len(c.history)-1]

	// Compare the newest sample against the peak of the preceding window;
	// including the sample itself would cap the ratio at 1.0
	maxThroughput := first.Throughput
	for _, s := range c.history[:len(c.history)-1] {
		if s.Throughput > maxThroughput {
			maxThroughput = s.Throughput
		}
	}

	var tt ThroughputTrend
	ratio := 0.0
	if maxThroughput > 0 {
		ratio = last.Throughput / maxThroughput
	}
	switch {
	case ratio >= 0.8 && ratio <= 1.05 && last.Throughput > first.Throughput:
		tt = ThroughputPlateauing
	case last.Throughput > first.Throughput:
		tt = ThroughputIncreasing
	default:
		tt = ThroughputDecreasing
	}

	et := ErrorsDecreasing
	if last.ErrorRate > first.ErrorRate {
		et = ErrorsIncreasing
	}

	return TrendAnalysis{
		Throughput: tt,
		Errors:     et,
		Confidence: confidenceTable[et][tt],
	}
}

// optimalErrorCeiling caps how error-prone a sample may be and still count as
// an operating point candidate
const optimalErrorCeiling = 0.15

// OptimalPoint searches the retained window for the best observed operating
// point: highest throughput among acceptably clean samples, or the cleanest
// sample when nothing qualifies. Returns false with an empty window.
func (c *Controller) OptimalPoint() (models.PerformanceSample, bool) {
	if len(c.history) == 0 {
		return models.PerformanceSample{}, false
	}

	var best *models.PerformanceSample
	for i := range c.history {
		s := &c.history[i]
		if s.ErrorRate > optimalErrorCeiling {
			continue
		}
		if best == nil || s.Throughput > best.Throughput {
			best = s
		}
	}
	if best != nil {
		return *best, true
	}

	// Nothing under the ceiling: fall back to the least error-prone sample
	fallback := &c.history[0]
	for i := range c.history {
		if c.history[i].ErrorRate < fallback.ErrorRate {
			fallback = &c.history[i]
		}
	}
	return *fallback, true
}
