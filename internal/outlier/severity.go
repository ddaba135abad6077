package outlier

import "math"

// Skewness classes, following the usual rule of thumb:
// |s| < 0.5 symmetric, |s| < 1 moderate, otherwise high.
const (
	SkewSymmetric = "SYMMETRIC"
	SkewModerate  = "MODERATE"
	SkewHigh      = "HIGH"
	SkewUndefined = "UNDEFINED"
)

// SeverityForSkew classifies a skewness entry.
func SeverityForSkew(s Skew) string {
	if !s.Defined {
		return SkewUndefined
	}
	switch a := math.Abs(s.Value); {
	case a < 0.5:
		return SkewSymmetric
	case a < 1:
		return SkewModerate
	default:
		return SkewHigh
	}
}

// MessageForSkew returns a concise description of a skewness entry.
func MessageForSkew(s Skew) string {
	switch SeverityForSkew(s) {
	case SkewUndefined:
		return "undefined (too few values or zero variance)"
	case SkewSymmetric:
		return "approximately symmetric"
	}
	side := "right"
	if s.Value < 0 {
		side = "left"
	}
	if SeverityForSkew(s) == SkewModerate {
		return "moderately " + side + "-skewed"
	}
	return "highly " + side + "-skewed"
}
