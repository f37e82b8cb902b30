package retriever

// Confidence grades how trustworthy the nearest retrieved match is. The
// gateway refuses to generate an answer below Medium.
type Confidence string

const (
	ConfidenceHigh   Confidence = "High"
	ConfidenceMedium Confidence = "Medium"
	ConfidenceLow    Confidence = "Low"
	ConfidenceNone   Confidence = "None"
)

// Thresholds holds the distance cutoffs for High and Medium confidence.
// The defaults are tuned against squared-L2 distances from
// text-embedding-3-small; a different model or metric needs recalibration.
type Thresholds struct {
	High   float64
	Medium float64
}

var DefaultThresholds = Thresholds{High: 0.9, Medium: 1.1}

// Classify maps a distance list to a confidence level. Only the single best
// (minimum) distance counts: a lone excellent match is sufficient evidence
// even when the remaining results are poor.
func Classify(distances []float64, t Thresholds) Confidence {
	if len(distances) == 0 {
		return ConfidenceNone
	}
	best := distances[0]
	for _, d := range distances[1:] {
		if d < best {
			best = d
		}
	}
	switch {
	case best <= t.High:
		return ConfidenceHigh
	case best <= t.Medium:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}
