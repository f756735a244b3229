package analysis

import (
	"encoding/json"
	"strings"
)

// outputShape is the reply layout the model is asked to follow.
const outputShape = `{
  "overall_score": <number 0-100>,
  "tone_emotion": {
    "formal": <number 0-100>,
    "informal": <number 0-100>,
    "positive": <number 0-100>,
    "negative": <number 0-100>,
    "neutral": <number 0-100>,
    "empathetic": <number 0-100>
  },
  "clarity_readability": {
    "score": <number 0-100>,
    "reading_level": "<string like 'College Level', 'High School', etc>",
    "notes": ["<array of string insights>"]
  },
  "confidence": {
    "score": <number 0-100>,
    "hedging_phrases": ["<array of hedging phrases found>"],
    "decisive_phrases": ["<array of decisive phrases found>"]
  },
  "sensitivity": {
    "risk_score": <number 0-100>,
    "flags": [{"text": "<flagged phrase>", "reason": "<why flagged>", "severity": "low|medium|high"}]
  },
  "ambiguity_precision": {
    "ambiguity_score": <number 0-100 where higher is more ambiguous>,
    "ambiguous_phrases": [{"phrase": "<ambiguous text>", "suggestion": "<clearer alternative>"}]
  },
  "satisfaction_politeness": {
    "score": <number 0-100>,
    "drivers": ["<array of politeness indicators>"]
  },
  "sentiment_distribution": {
    "positive": <number 0-100>,
    "neutral": <number 0-100>,
    "negative": <number 0-100>
  }
}`

// CommunicationPrompt builds the single user message for one analysis. The
// caller's text is appended verbatim.
func CommunicationPrompt(text string) string {
	var b strings.Builder
	b.WriteString("Analyze the following text for communication effectiveness and return ONLY a JSON object with the exact structure below. ")
	b.WriteString("Output a single JSON object only: no markdown, no code fences, no commentary. ")
	b.WriteString("All scores should be normalized to 0-100 scale. ")
	b.WriteString("Severity must be one of low, medium, high. Include every field; use empty arrays when nothing applies.\n\n")
	b.WriteString(outputShape)
	b.WriteString("\n\nText to analyze:\n")
	b.WriteString(text)
	return b.String()
}

func score() map[string]any {
	return map[string]any{"type": "number", "minimum": 0, "maximum": 100}
}

func stringList() map[string]any {
	return map[string]any{"type": "array", "items": map[string]any{"type": "string"}}
}

func object(props map[string]any) map[string]any {
	required := make([]string, 0, len(props))
	for k := range props {
		required = append(required, k)
	}
	return map[string]any{
		"type":                 "object",
		"properties":           props,
		"required":             required,
		"additionalProperties": false,
	}
}

// CommunicationSchema is the JSON Schema every reply must satisfy. Every
// object is closed and every field is required.
func CommunicationSchema() map[string]any {
	s := object(map[string]any{
		"overall_score": score(),
		"tone_emotion": object(map[string]any{
			"formal":     score(),
			"informal":   score(),
			"positive":   score(),
			"negative":   score(),
			"neutral":    score(),
			"empathetic": score(),
		}),
		"clarity_readability": object(map[string]any{
			"score":         score(),
			"reading_level": map[string]any{"type": "string"},
			"notes":         stringList(),
		}),
		"confidence": object(map[string]any{
			"score":            score(),
			"hedging_phrases":  stringList(),
			"decisive_phrases": stringList(),
		}),
		"sensitivity": object(map[string]any{
			"risk_score": score(),
			"flags": map[string]any{
				"type": "array",
				"items": object(map[string]any{
					"text":     map[string]any{"type": "string"},
					"reason":   map[string]any{"type": "string"},
					"severity": map[string]any{"type": "string", "enum": []string{"low", "medium", "high"}},
				}),
			},
		}),
		"ambiguity_precision": object(map[string]any{
			"ambiguity_score": score(),
			"ambiguous_phrases": map[string]any{
				"type": "array",
				"items": object(map[string]any{
					"phrase":     map[string]any{"type": "string"},
					"suggestion": map[string]any{"type": "string"},
				}),
			},
		}),
		"satisfaction_politeness": object(map[string]any{
			"score":   score(),
			"drivers": stringList(),
		}),
		"sentiment_distribution": object(map[string]any{
			"positive": score(),
			"neutral":  score(),
			"negative": score(),
		}),
	})
	s["$schema"] = "https://json-schema.org/draft/2020-12/schema"
	return s
}

// SchemaJSON marshals CommunicationSchema.
func SchemaJSON() ([]byte, error) {
	return json.Marshal(CommunicationSchema())
}
