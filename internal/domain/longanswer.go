package domain

import "fmt"

// MaxKeyPoints caps the key points of a synthesized long answer.
const MaxKeyPoints = 4

// Marks awarded per long answer position.
const (
	ShortMarks = 3
	LongMarks  = 5

	// ShortMarkPositions is the number of leading positions worth ShortMarks.
	ShortMarkPositions = 3
)

// LongAnswer is a practice long-answer question with its synthesized model answer.
type LongAnswer struct {
	ID          string   `json:"id"`
	Question    string   `json:"question"`
	ModelAnswer string   `json:"modelAnswer"`
	KeyPoints   []string `json:"keyPoints"`
	Marks       int      `json:"marks"`
}

// ContextSnippet is a scored candidate text block selected as context for a prompt.
type ContextSnippet struct {
	Score int
	Text  string
}

// LongAnswerID returns the identifier for the 1-based position n.
func LongAnswerID(n int) string {
	return fmt.Sprintf("la%d", n)
}

// MarksFor returns the marks for the 1-based position n.
func MarksFor(n int) int {
	if n <= ShortMarkPositions {
		return ShortMarks
	}
	return LongMarks
}

// NewLongAnswer creates a LongAnswer at the 1-based position n.
func NewLongAnswer(n int, question, modelAnswer string, keyPoints []string) LongAnswer {
	if keyPoints == nil {
		keyPoints = []string{}
	}
	return LongAnswer{
		ID:          LongAnswerID(n),
		Question:    question,
		ModelAnswer: modelAnswer,
		KeyPoints:   keyPoints,
		Marks:       MarksFor(n),
	}
}

// ValidateLongAnswer checks the shape invariants of a synthesized long answer.
func ValidateLongAnswer(la LongAnswer) error {
	if la.ID == "" {
		return fmt.Errorf("long answer ID is required")
	}
	if la.Question == "" {
		return fmt.Errorf("long answer %s: Question is required", la.ID)
	}
	if la.ModelAnswer == "" {
		return fmt.Errorf("long answer %s: ModelAnswer is required", la.ID)
	}
	if len(la.KeyPoints) > MaxKeyPoints {
		return fmt.Errorf("long answer %s: at most %d KeyPoints allowed, got %d", la.ID, MaxKeyPoints, len(la.KeyPoints))
	}
	return nil
}
