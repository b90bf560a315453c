package service

import (
	"context"

	"github.com/cloo-solutions/chapterkit/internal/domain"
	"github.com/cloo-solutions/chapterkit/internal/jobs"
)

const qaScaffoldSource = "derived_from_test"

// QACardPass backfills textbookExercise.qaCards with memorization cards built
// from the chapter test explanations. Existing non-empty card lists are kept.
type QACardPass struct {
	rules Rules
}

// NewQACardPass creates a QACardPass with explicit rules.
func NewQACardPass(rules Rules) *QACardPass {
	return &QACardPass{rules: rules}
}

// Name implements jobs.Pass.
func (p *QACardPass) Name() string {
	return domain.PassQACards
}

// Cards returns one card per test item with both a question and an
// explanation, capped at MaxQACards.
func (p *QACardPass) Cards(tests []domain.TestItem) []domain.QACard {
	var cards []domain.QACard
	for _, t := range tests {
		if len(cards) == p.rules.MaxQACards {
			break
		}
		if t.Question.Trimmed() == "" || t.Explanation.Trimmed() == "" {
			continue
		}
		cards = append(cards, domain.NewQACard(t.Question.String(), t.Explanation.String()))
	}
	return cards
}

// Apply implements jobs.Pass.
func (p *QACardPass) Apply(ctx context.Context, ch *domain.Chapter) (jobs.Outcome, error) {
	cards := p.Cards(ch.Test)
	if len(cards) == 0 {
		return jobs.Outcome{}, nil
	}

	if n, isList := ch.Exercise.StoredQACards(); isList && n > 0 {
		return jobs.Outcome{}, nil
	}

	data, err := p.render(ch, cards)
	if err != nil {
		return jobs.Outcome{}, err
	}
	return jobs.Outcome{Changed: true, Data: data}, nil
}

func (p *QACardPass) render(ch *domain.Chapter, cards []domain.QACard) ([]byte, error) {
	if ch.HasExercise() {
		return setExerciseField(ch.Raw, "qaCards", cards)
	}

	instructions, err := stringField("instructions", p.rules.QACardInstructions)
	if err != nil {
		return nil, err
	}
	source, err := stringField("source", qaScaffoldSource)
	if err != nil {
		return nil, err
	}
	list, err := encodeJSON(cards)
	if err != nil {
		return nil, err
	}
	return setExercise(ch.Raw,
		chapterTitleField(ch.Raw, "chapterName"),
		instructions,
		field{key: "questions", raw: []byte(`[]`)},
		source,
		field{key: "qaCards", raw: list},
	)
}
