package analysis

// Band is the colour bucket a dashboard card is drawn in.
type Band string

const (
	BandGood Band = "good"
	BandFair Band = "fair"
	BandPoor Band = "poor"
)

// ScoreBand buckets a score where higher is better.
func ScoreBand(v float64) Band {
	switch {
	case v >= 80:
		return BandGood
	case v >= 60:
		return BandFair
	default:
		return BandPoor
	}
}

// RiskBand buckets a score where lower is better.
func RiskBand(v float64) Band {
	switch {
	case v <= 30:
		return BandGood
	case v <= 60:
		return BandFair
	default:
		return BandPoor
	}
}

// Card is one gauge on the dashboard.
type Card struct {
	Key   string  `json:"key"`
	Label string  `json:"label"`
	Value float64 `json:"value"`
	Band  Band    `json:"band"`
	Count int     `json:"count,omitempty"`
}

// Dashboard is the summary a client renders next to the full result.
type Dashboard struct {
	Cards        []Card `json:"cards"`
	ReadingLevel string `json:"reading_level"`
	HighFlags    int    `json:"high_severity_flags"`
}

// BuildDashboard derives the dashboard cards from a result.
func BuildDashboard(r Result) Dashboard {
	high := 0
	for _, f := range r.Sensitivity.Flags {
		if f.Severity == SeverityHigh {
			high++
		}
	}
	return Dashboard{
		Cards: []Card{
			{Key: "overall", Label: "Overall Communication Score", Value: r.OverallScore, Band: ScoreBand(r.OverallScore)},
			{Key: "clarity", Label: "Clarity & Readability", Value: r.ClarityReadability.Score, Band: ScoreBand(r.ClarityReadability.Score), Count: len(r.ClarityReadability.Notes)},
			{Key: "confidence", Label: "Confidence", Value: r.Confidence.Score, Band: ScoreBand(r.Confidence.Score), Count: len(r.Confidence.HedgingPhrases)},
			{Key: "sensitivity", Label: "Sensitivity Risk", Value: r.Sensitivity.RiskScore, Band: RiskBand(r.Sensitivity.RiskScore), Count: len(r.Sensitivity.Flags)},
			// shown as precision, banded on the underlying ambiguity
			{Key: "precision", Label: "Precision", Value: 100 - r.AmbiguityPrecision.AmbiguityScore, Band: RiskBand(r.AmbiguityPrecision.AmbiguityScore), Count: len(r.AmbiguityPrecision.AmbiguousPhrases)},
			{Key: "politeness", Label: "Satisfaction & Politeness", Value: r.SatisfactionPoliteness.Score, Band: ScoreBand(r.SatisfactionPoliteness.Score), Count: len(r.SatisfactionPoliteness.Drivers)},
		},
		ReadingLevel: r.ClarityReadability.ReadingLevel,
		HighFlags:    high,
	}
}
