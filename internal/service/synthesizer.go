package service

import (
	"fmt"
	"strings"

	"github.com/cloo-solutions/chapterkit/internal/lexical"
)

// Fixed key point templates. The token list is filled in from the context.
const (
	keyPointDefine     = "Start with a clear definition of the concept."
	keyPointExplainFmt = "Explain key points: %s."
	keyPointLength     = "Include a textbook-style explanation in 3–5 lines."
	keyPointConclude   = "Conclude with one simple real-life/example-based line."
)

// Synthesizer turns a prompt and its context snippets into a templated
// model answer.
type Synthesizer struct {
	frequentTokens    int
	keyPointTokens    int
	maxKeyPoints      int
	fallbackKeyPoints []string
}

// NewSynthesizer creates a Synthesizer from rules.
func NewSynthesizer(rules Rules) *Synthesizer {
	return &Synthesizer{
		frequentTokens:    rules.FrequentTokens,
		keyPointTokens:    rules.KeyPointTokens,
		maxKeyPoints:      rules.MaxKeyPoints,
		fallbackKeyPoints: rules.FallbackKeyPoints,
	}
}

// KeyPoints returns the answer outline for the given snippets.
func (s *Synthesizer) KeyPoints(snippets []string) []string {
	if len(snippets) == 0 {
		return append([]string(nil), s.fallbackKeyPoints...)
	}

	var tokens []string
	for _, snippet := range snippets {
		tokens = append(tokens, lexical.Tokenize(snippet)...)
	}
	common := lexical.TopTokens(tokens, s.frequentTokens)
	if len(common) == 0 {
		return []string{}
	}

	top := common
	if len(top) > s.keyPointTokens {
		top = top[:s.keyPointTokens]
	}

	points := []string{
		keyPointDefine,
		fmt.Sprintf(keyPointExplainFmt, strings.Join(top, ", ")),
		keyPointLength,
		keyPointConclude,
	}
	if len(points) > s.maxKeyPoints {
		points = points[:s.maxKeyPoints]
	}
	return points
}

// Synthesize returns the model answer and key points for prompt. The model
// answer is the trimmed prompt, a blank line, then one "- " bullet per key
// point.
func (s *Synthesizer) Synthesize(prompt string, snippets []string) (string, []string) {
	points := s.KeyPoints(snippets)
	return ModelAnswer(prompt, points), points
}

// ModelAnswer renders a prompt and its key points as a model answer.
func ModelAnswer(prompt string, points []string) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(prompt))
	b.WriteString("\n\n")
	for i, p := range points {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("- ")
		b.WriteString(p)
	}
	return b.String()
}
