package service

import (
	"context"

	"github.com/cloo-solutions/chapterkit/internal/domain"
	"github.com/cloo-solutions/chapterkit/internal/jobs"
	"github.com/cloo-solutions/chapterkit/internal/telemetry"
	"go.uber.org/zap"
)

// LongAnswerPlan is the computed long-answer state of one chapter.
type LongAnswerPlan struct {
	Prompts     []string
	LongAnswers []domain.LongAnswer

	// StoredCount is the length of the stored list; StoredIsList is false
	// when the field is absent or not an array.
	StoredCount  int
	StoredIsList bool

	NeedsWrite       bool
	ScaffoldExercise bool
}

// LongAnswerPass fills textbookExercise.longAnswers with synthesized
// practice questions.
type LongAnswerPass struct {
	rules       Rules
	deriver     *PromptDeriver
	selector    *ContextSelector
	synthesizer *Synthesizer
}

// NewLongAnswerPass creates a LongAnswerPass with DefaultRules.
func NewLongAnswerPass() *LongAnswerPass {
	return NewLongAnswerPassWithRules(DefaultRules())
}

// NewLongAnswerPassWithRules creates a LongAnswerPass with explicit rules.
func NewLongAnswerPassWithRules(rules Rules) *LongAnswerPass {
	return &LongAnswerPass{
		rules:       rules,
		deriver:     NewPromptDeriver(rules),
		selector:    NewContextSelector(rules.ContextLimit),
		synthesizer: NewSynthesizer(rules),
	}
}

// Name implements jobs.Pass.
func (p *LongAnswerPass) Name() string {
	return domain.PassLongAnswers
}

// Plan derives the prompts of ch, synthesizes one long answer per prompt and
// decides whether the stored list must be replaced. A stored list whose
// length matches the prompt count is left alone even if its content differs.
func (p *LongAnswerPass) Plan(ch *domain.Chapter) LongAnswerPlan {
	plan := LongAnswerPlan{
		Prompts:          p.deriver.Derive(ch),
		ScaffoldExercise: !ch.HasExercise(),
	}
	plan.StoredCount, plan.StoredIsList = ch.Exercise.StoredLongAnswers()

	if len(plan.Prompts) == 0 {
		return plan
	}

	plan.LongAnswers = make([]domain.LongAnswer, len(plan.Prompts))
	for i, prompt := range plan.Prompts {
		snippets := p.selector.Select(prompt, ch.Concepts, ch.Test)
		model, points := p.synthesizer.Synthesize(prompt, SnippetTexts(snippets))
		plan.LongAnswers[i] = domain.NewLongAnswer(i+1, prompt, model, points)
	}

	plan.NeedsWrite = !plan.StoredIsList || plan.StoredCount != len(plan.LongAnswers)
	return plan
}

// Apply implements jobs.Pass. Only textbookExercise.longAnswers changes; a
// chapter without a textbookExercise object gets a scaffold holding the list.
func (p *LongAnswerPass) Apply(ctx context.Context, ch *domain.Chapter) (jobs.Outcome, error) {
	_, span := telemetry.StartSpan(ctx, "longanswers.apply", telemetry.SpanAttributes{
		Pass:    p.Name(),
		Chapter: ch.Key,
	})
	defer span.End()

	plan := p.Plan(ch)
	if !plan.NeedsWrite {
		return jobs.Outcome{}, nil
	}

	if plan.StoredIsList && plan.StoredCount > len(plan.LongAnswers) {
		zap.L().Warn("regeneration shrinks stored long answers",
			zap.String("pass", p.Name()),
			zap.String("chapter", ch.Key),
			zap.Int("stored", plan.StoredCount),
			zap.Int("generated", len(plan.LongAnswers)),
		)
	}

	data, err := p.render(ch, plan)
	if err != nil {
		span.SetError(err)
		return jobs.Outcome{}, err
	}
	return jobs.Outcome{Changed: true, Data: data}, nil
}

func (p *LongAnswerPass) render(ch *domain.Chapter, plan LongAnswerPlan) ([]byte, error) {
	if !plan.ScaffoldExercise {
		return setExerciseField(ch.Raw, "longAnswers", plan.LongAnswers)
	}

	instructions, err := stringField("instructions", p.rules.LongAnswerInstructions)
	if err != nil {
		return nil, err
	}
	list, err := encodeJSON(plan.LongAnswers)
	if err != nil {
		return nil, err
	}
	return setExercise(ch.Raw,
		chapterTitleField(ch.Raw, "chapterName"),
		instructions,
		field{key: "longAnswers", raw: list},
	)
}
