// Package urgency defines the urgency scoring contract used by the parser and
// a coefficient-driven scorer whose weights come entirely from configuration.
package urgency

import (
	"time"

	"github.com/starford/todoseq/internal/models"
)

// Coefficients maps feature names to weights.
type Coefficients map[string]float64

// Feature names understood by Linear.
const (
	FeaturePriorityHigh = "priority.high"
	FeaturePriorityMed  = "priority.med"
	FeaturePriorityLow  = "priority.low"
	FeatureScheduled    = "scheduled"
	FeatureDeadline     = "deadline"
	FeatureTags         = "tags"
	FeatureDailyNote    = "daily_note"
	FeatureActive       = "active"
)

// Features lists every feature name Linear understands.
var Features = []string{
	FeaturePriorityHigh, FeaturePriorityMed, FeaturePriorityLow,
	FeatureScheduled, FeatureDeadline, FeatureTags, FeatureDailyNote, FeatureActive,
}

// Scorer computes an urgency value for an incomplete task. ok is false when
// no score applies.
type Scorer interface {
	Score(task models.Task, coeffs Coefficients, ctx models.FileContext) (score float64, ok bool)
}

// ScorerFunc adapts a function to Scorer.
type ScorerFunc func(models.Task, Coefficients, models.FileContext) (float64, bool)

// Score implements Scorer.
func (f ScorerFunc) Score(t models.Task, c Coefficients, ctx models.FileContext) (float64, bool) {
	return f(t, c, ctx)
}

// Linear sums coefficient * feature over the configured coefficients. Date
// features are 1 when the date is at or before Now and 0 otherwise. With no
// coefficients it never scores.
type Linear struct {
	Now func() time.Time
}

var _ Scorer = Linear{}

// Score implements Scorer.
func (l Linear) Score(t models.Task, coeffs Coefficients, ctx models.FileContext) (float64, bool) {
	if len(coeffs) == 0 {
		return 0, false
	}
	now := time.Now
	if l.Now != nil {
		now = l.Now
	}
	features := map[string]float64{
		FeatureActive: 1,
		FeatureTags:   float64(len(t.Tags)),
	}
	switch t.Priority {
	case models.PriorityHigh:
		features[FeaturePriorityHigh] = 1
	case models.PriorityMed:
		features[FeaturePriorityMed] = 1
	case models.PriorityLow:
		features[FeaturePriorityLow] = 1
	}
	features[FeatureScheduled] = due(t.ScheduledDate, now())
	features[FeatureDeadline] = due(t.DeadlineDate, now())
	if ctx.IsDailyNote {
		features[FeatureDailyNote] = 1
	}

	var score float64
	for name, weight := range coeffs {
		score += weight * features[name]
	}
	return score, true
}

func due(d *time.Time, now time.Time) float64 {
	if d == nil || d.After(now) {
		return 0
	}
	return 1
}
