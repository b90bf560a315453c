package service

import (
	"strings"

	"github.com/cloo-solutions/chapterkit/internal/domain"
	"github.com/cloo-solutions/chapterkit/internal/lexical"
)

// ContextSelector picks the chapter text blocks that share the most
// vocabulary with a prompt.
type ContextSelector struct {
	limit int
}

// NewContextSelector creates a selector returning at most limit snippets.
func NewContextSelector(limit int) *ContextSelector {
	return &ContextSelector{limit: limit}
}

// Select scores every concept block and then every test block against the
// prompt and returns the best limit blocks. Blocks with no shared token are
// never returned; ties keep concept-before-test source order.
func (s *ContextSelector) Select(prompt string, concepts []domain.Concept, tests []domain.TestItem) []domain.ContextSnippet {
	candidates := make([]string, 0, len(concepts)+len(tests))
	for _, c := range concepts {
		candidates = append(candidates, ConceptBlock(c))
	}
	for _, t := range tests {
		candidates = append(candidates, TestBlock(t))
	}

	ranked := lexical.Rank(prompt, candidates)
	if len(ranked) > s.limit {
		ranked = ranked[:s.limit]
	}

	snippets := make([]domain.ContextSnippet, len(ranked))
	for i, r := range ranked {
		snippets[i] = domain.ContextSnippet{Score: r.Score, Text: r.Text}
	}
	return snippets
}

// ConceptBlock joins a concept's title, content and non-empty key points.
func ConceptBlock(c domain.Concept) string {
	points := make([]string, 0, len(c.KeyPoints))
	for _, kp := range c.KeyPoints {
		if kp.Text != "" {
			points = append(points, kp.Text)
		}
	}
	return c.Title.String() + " " + c.Content.String() + " " + strings.Join(points, " ")
}

// TestBlock joins a test item's question and explanation.
func TestBlock(t domain.TestItem) string {
	return t.Question.String() + " " + t.Explanation.String()
}

// SnippetTexts returns the text of each snippet, in order.
func SnippetTexts(snippets []domain.ContextSnippet) []string {
	out := make([]string, len(snippets))
	for i, s := range snippets {
		out[i] = s.Text
	}
	return out
}
