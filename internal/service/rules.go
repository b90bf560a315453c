package service

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/cloo-solutions/chapterkit/internal/domain"
	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Rules holds the heuristic tables and caps the passes run with.
type Rules struct {
	// Prompt derivation
	OpenEndedTypes       []string `yaml:"open_ended_types"`
	MinSubQuestionLength int      `yaml:"min_sub_question_length"`
	MaxExercisePrompts   int      `yaml:"max_exercise_prompts"`
	TestMarkers          []string `yaml:"test_markers"`
	TestFallbackCount    int      `yaml:"test_fallback_count"`
	MaxTestPrompts       int      `yaml:"max_test_prompts"`

	// Context selection and synthesis
	ContextLimit      int      `yaml:"context_limit"`
	FrequentTokens    int      `yaml:"frequent_tokens"`
	KeyPointTokens    int      `yaml:"key_point_tokens"`
	MaxKeyPoints      int      `yaml:"max_key_points"`
	FallbackKeyPoints []string `yaml:"fallback_key_points"`

	// Document scaffolding
	LongAnswerInstructions string `yaml:"long_answer_instructions"`
	QACardInstructions     string `yaml:"qa_card_instructions"`

	// Flashcards and audit
	MaxQACards          int `yaml:"max_qa_cards"`
	AuditTop            int `yaml:"audit_top"`
	AuditMinModelAnswer int `yaml:"audit_min_model_answer"`
}

// DefaultRules returns the built-in rule set.
func DefaultRules() Rules {
	return Rules{
		OpenEndedTypes:       []string{"short_answer", "give_reasons"},
		MinSubQuestionLength: 12,
		MaxExercisePrompts:   8,
		TestMarkers:          []string{"why", "explain", "what", "how", "give reason", "describe"},
		TestFallbackCount:    5,
		MaxTestPrompts:       6,

		ContextLimit:   3,
		FrequentTokens: 12,
		KeyPointTokens: 4,
		MaxKeyPoints:   domain.MaxKeyPoints,
		FallbackKeyPoints: []string{
			"Define the concept in textbook terms.",
			"Explain with key characteristics.",
			"Add one relevant example.",
		},

		LongAnswerInstructions: "Textbook-style long answer practice",
		QACardInstructions:     "Memorize these exam-style answers to maximize scoring in textbook-focused assessments.",

		MaxQACards:          20,
		AuditTop:            10,
		AuditMinModelAnswer: 50,
	}
}

// Validate rejects rule sets the passes cannot run with.
func (r Rules) Validate() error {
	var errs []error
	positive := func(name string, v int) {
		if v <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %d", name, v))
		}
	}

	positive("max_exercise_prompts", r.MaxExercisePrompts)
	positive("max_test_prompts", r.MaxTestPrompts)
	positive("test_fallback_count", r.TestFallbackCount)
	positive("context_limit", r.ContextLimit)
	positive("frequent_tokens", r.FrequentTokens)
	positive("key_point_tokens", r.KeyPointTokens)
	positive("max_key_points", r.MaxKeyPoints)
	positive("max_qa_cards", r.MaxQACards)
	positive("audit_top", r.AuditTop)

	if r.MinSubQuestionLength < 0 {
		errs = append(errs, fmt.Errorf("min_sub_question_length cannot be negative, got %d", r.MinSubQuestionLength))
	}
	if r.AuditMinModelAnswer < 0 {
		errs = append(errs, fmt.Errorf("audit_min_model_answer cannot be negative, got %d", r.AuditMinModelAnswer))
	}
	if r.MaxKeyPoints > domain.MaxKeyPoints {
		errs = append(errs, fmt.Errorf("max_key_points cannot exceed %d, got %d", domain.MaxKeyPoints, r.MaxKeyPoints))
	}
	if r.KeyPointTokens > r.FrequentTokens {
		errs = append(errs, fmt.Errorf("key_point_tokens (%d) cannot exceed frequent_tokens (%d)", r.KeyPointTokens, r.FrequentTokens))
	}
	if len(r.FallbackKeyPoints) > r.MaxKeyPoints {
		errs = append(errs, fmt.Errorf("fallback_key_points has %d entries, max_key_points is %d", len(r.FallbackKeyPoints), r.MaxKeyPoints))
	}

	if len(errs) > 0 {
		return domain.NewDomainErrorWithCause(domain.ErrCodeValidation, domain.ErrInvalidRules.Message, errors.Join(errs...))
	}
	return nil
}

// LoadRules reads a YAML rules file over DefaultRules. Keys absent from the
// file keep their default; unknown keys are rejected. An empty path returns
// the defaults.
func LoadRules(path string) (Rules, error) {
	rules := DefaultRules()
	if path == "" {
		return rules, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, eris.Wrapf(err, "rules: read %s", path)
	}
	return ParseRules(data)
}

// ParseRules decodes YAML rules over DefaultRules and validates the result.
func ParseRules(data []byte) (Rules, error) {
	rules := DefaultRules()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&rules); err != nil && !errors.Is(err, io.EOF) {
		return Rules{}, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, domain.ErrInvalidRules.Message, err)
	}

	if err := rules.Validate(); err != nil {
		return Rules{}, err
	}
	return rules, nil
}
