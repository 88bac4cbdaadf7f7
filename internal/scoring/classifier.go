package scoring

import (
	"math"

	"github.com/mikey/msg-spam-filter/internal/core"
)

const (
	reasonPhishing   = "Contains suspicious phishing patterns"
	reasonSpam       = "Contains multiple spam indicators"
	reasonSuspicious = "Contains some suspicious elements"
	reasonSafe       = "No suspicious patterns detected"
)

// Classify turns scores into a verdict. Phishing wins only when strictly
// greater than spam. Identical inputs always produce identical results.
func Classify(scores core.Scores, t Thresholds) core.DetectionResult {
	maxScore := scores.Max()

	switch {
	case maxScore >= t.Flag:
		category, reason := core.CategorySpam, reasonSpam
		if scores.Phishing > scores.Spam {
			category, reason = core.CategoryPhishing, reasonPhishing
		}
		return core.DetectionResult{
			IsFlagged:  true,
			Category:   category,
			Confidence: math.Min(maxScore, t.MaxConfidence),
			Reason:     reason,
		}
	case maxScore >= t.Suspicious:
		return core.DetectionResult{
			IsFlagged:  false,
			Category:   core.CategorySuspicious,
			Confidence: maxScore,
			Reason:     reasonSuspicious,
		}
	default:
		return core.DetectionResult{
			IsFlagged:  false,
			Category:   core.CategorySafe,
			Confidence: 1 - maxScore,
			Reason:     reasonSafe,
		}
	}
}
