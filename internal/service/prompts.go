package service

import (
	"strings"
	"unicode/utf8"

	"github.com/cloo-solutions/chapterkit/internal/domain"
)

// PromptDeriver builds the list of long-answer prompts for a chapter.
type PromptDeriver struct {
	openEndedTypes       map[string]struct{}
	minSubQuestionLength int
	maxExercisePrompts   int
	testMarkers          []string
	testFallbackCount    int
	maxTestPrompts       int
}

// NewPromptDeriver creates a PromptDeriver from rules.
func NewPromptDeriver(rules Rules) *PromptDeriver {
	types := make(map[string]struct{}, len(rules.OpenEndedTypes))
	for _, t := range rules.OpenEndedTypes {
		types[strings.ToLower(t)] = struct{}{}
	}
	markers := make([]string, len(rules.TestMarkers))
	for i, m := range rules.TestMarkers {
		markers[i] = strings.ToLower(m)
	}
	return &PromptDeriver{
		openEndedTypes:       types,
		minSubQuestionLength: rules.MinSubQuestionLength,
		maxExercisePrompts:   rules.MaxExercisePrompts,
		testMarkers:          markers,
		testFallbackCount:    rules.TestFallbackCount,
		maxTestPrompts:       rules.MaxTestPrompts,
	}
}

// Derive returns the exercise prompts when there are any, the test prompts
// otherwise.
func (d *PromptDeriver) Derive(ch *domain.Chapter) []string {
	if prompts := d.FromExercise(ch.Exercise); len(prompts) > 0 {
		return prompts
	}
	return d.FromTest(ch.Test)
}

// FromExercise collects open-ended exercise questions and every sub-question
// long enough to stand alone, in document order.
func (d *PromptDeriver) FromExercise(ex *domain.TextbookExercise) []string {
	if ex == nil {
		return nil
	}

	var out []string
	for _, q := range ex.Questions {
		text := q.Question.Trimmed()
		if _, ok := d.openEndedTypes[strings.ToLower(q.Type.String())]; ok && text != "" {
			out = append(out, text)
		}
		for _, sq := range q.SubQuestions {
			s := sq.Trimmed()
			if utf8.RuneCountInString(s) > d.minSubQuestionLength {
				out = append(out, s)
			}
		}
	}
	return dedupPrompts(out, d.maxExercisePrompts)
}

// FromTest collects test questions that read as open-ended. When none do,
// the first few non-empty questions are used instead.
func (d *PromptDeriver) FromTest(tests []domain.TestItem) []string {
	var out []string
	for _, t := range tests {
		text := t.Question.Trimmed()
		if text != "" && d.hasMarker(text) {
			out = append(out, text)
		}
	}

	if len(out) == 0 {
		for _, t := range tests {
			if len(out) == d.testFallbackCount {
				break
			}
			if text := t.Question.Trimmed(); text != "" {
				out = append(out, text)
			}
		}
	}
	return dedupPrompts(out, d.maxTestPrompts)
}

func (d *PromptDeriver) hasMarker(text string) bool {
	lower := strings.ToLower(text)
	for _, m := range d.testMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

// dedupPrompts drops empty and case-insensitive duplicate prompts, keeping the
// first occurrence, and caps the result at max.
func dedupPrompts(prompts []string, max int) []string {
	seen := make(map[string]struct{}, len(prompts))
	var out []string
	for _, p := range prompts {
		if p == "" {
			continue
		}
		key := strings.ToLower(p)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, p)
		if len(out) == max {
			break
		}
	}
	return out
}
