package llm

import (
	"fmt"
	"regexp"
	"strconv"
)

// Judge prompts shared by the networked backends. The mock backend scores
// lexically and never uses these.
const entailmentPromptTemplate = `Please rate how well the PREMISE (a reasoning step) supports the HYPOTHESIS (a final answer) on a scale from 0.0 to 1.0, where 0.0 means 'no support' and 1.0 means 'fully supports'. Only output a single floating point number between 0.0 and 1.0.

PREMISE: %s
HYPOTHESIS: %s

Score:`

const obfuscationPromptTemplate = `Rate how evasive or obfuscatory the TEXT is on a scale 0.0 (clear, precise) to 1.0 (heavily evasive). Output only a floating point number.

TEXT: %s

Score:`

var scorePattern = regexp.MustCompile(`\d+\.?\d*`)

// extractScore pulls the first numeric token out of a judge reply and clamps
// it to [0,1]. Returns the fallback when the reply contains no number at all,
// so a chatty model never produces an out-of-range score.
func extractScore(reply string, fallback float64) float64 {
	match := scorePattern.FindString(reply)
	if match == "" {
		return fallback
	}
	score, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return fallback
	}
	return clamp01(score)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func entailmentPrompt(premise, hypothesis string) string {
	return fmt.Sprintf(entailmentPromptTemplate, premise, hypothesis)
}

func obfuscationPrompt(text string) string {
	return fmt.Sprintf(obfuscationPromptTemplate, text)
}
