package analysis

import "time"

// Severity of a sensitivity flag.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Result is one communication-quality assessment as returned by the model.
// Scores are 0-100 and kept exactly as received.
type Result struct {
	OverallScore           float64                `json:"overall_score"`
	ToneEmotion            ToneEmotion            `json:"tone_emotion"`
	ClarityReadability     ClarityReadability     `json:"clarity_readability"`
	Confidence             Confidence             `json:"confidence"`
	Sensitivity            Sensitivity            `json:"sensitivity"`
	AmbiguityPrecision     AmbiguityPrecision     `json:"ambiguity_precision"`
	SatisfactionPoliteness SatisfactionPoliteness `json:"satisfaction_politeness"`
	SentimentDistribution  SentimentDistribution  `json:"sentiment_distribution"`
}

// ToneEmotion axes are independent; they need not sum to 100.
type ToneEmotion struct {
	Formal     float64 `json:"formal"`
	Informal   float64 `json:"informal"`
	Positive   float64 `json:"positive"`
	Negative   float64 `json:"negative"`
	Neutral    float64 `json:"neutral"`
	Empathetic float64 `json:"empathetic"`
}

type ClarityReadability struct {
	Score        float64  `json:"score"`
	ReadingLevel string   `json:"reading_level"`
	Notes        []string `json:"notes"`
}

type Confidence struct {
	Score           float64  `json:"score"`
	HedgingPhrases  []string `json:"hedging_phrases"`
	DecisivePhrases []string `json:"decisive_phrases"`
}

type Sensitivity struct {
	RiskScore float64 `json:"risk_score"`
	Flags     []Flag  `json:"flags"`
}

// Flag is a passage of the source text the model considers sensitive.
type Flag struct {
	Text     string   `json:"text"`
	Reason   string   `json:"reason"`
	Severity Severity `json:"severity"`
}

// AmbiguityPrecision: a higher AmbiguityScore means more ambiguous text.
type AmbiguityPrecision struct {
	AmbiguityScore   float64           `json:"ambiguity_score"`
	AmbiguousPhrases []AmbiguousPhrase `json:"ambiguous_phrases"`
}

type AmbiguousPhrase struct {
	Phrase     string `json:"phrase"`
	Suggestion string `json:"suggestion"`
}

type SatisfactionPoliteness struct {
	Score   float64  `json:"score"`
	Drivers []string `json:"drivers"`
}

// SentimentDistribution shares nominally sum to about 100; nothing enforces it.
type SentimentDistribution struct {
	Positive float64 `json:"positive"`
	Neutral  float64 `json:"neutral"`
	Negative float64 `json:"negative"`
}

// Report wraps a Result for the caller. Nothing about it is stored.
type Report struct {
	ID         string    `json:"id"`
	AnalyzedAt time.Time `json:"analyzed_at"`
	Characters int       `json:"characters"`
	Result     Result    `json:"result"`
}
