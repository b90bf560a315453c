package domain

// QACardSource marks cards derived from chapter test explanations.
const QACardSource = "chapter_test_explanation"

// QACard is a memorization flashcard built from a test question and its explanation.
type QACard struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Source   string `json:"source"`
}

// NewQACard creates a card sourced from a chapter test item.
func NewQACard(question, answer string) QACard {
	return QACard{
		Question: question,
		Answer:   answer,
		Source:   QACardSource,
	}
}
