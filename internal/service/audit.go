package service

import (
	"context"
	"sort"
	"sync"
	"unicode/utf8"

	"github.com/cloo-solutions/chapterkit/internal/domain"
	"github.com/cloo-solutions/chapterkit/internal/jobs"
	"github.com/tidwall/gjson"
)

// Risk weights of the long-answer audit.
const (
	riskMissingKeyPoints = 2
	riskShortAnswer      = 1
)

// RiskEntry is one chapter flagged by the audit.
type RiskEntry struct {
	Chapter string `json:"chapter"`
	Score   int    `json:"score"`
}

// AuditReport is the corpus-wide result of an audit run.
type AuditReport struct {
	Scanned  int         `json:"scanned"`
	Flagged  int         `json:"flagged"`
	TopRisks []RiskEntry `json:"topRisks"`
}

// AuditPass scores stored long answers for missing key points and thin model
// answers. It never modifies a chapter.
type AuditPass struct {
	top       int
	minAnswer int

	mu      sync.Mutex
	scanned int
	flagged []RiskEntry
}

// NewAuditPass creates an AuditPass with explicit rules.
func NewAuditPass(rules Rules) *AuditPass {
	return &AuditPass{
		top:       rules.AuditTop,
		minAnswer: rules.AuditMinModelAnswer,
	}
}

// Name implements jobs.Pass.
func (p *AuditPass) Name() string {
	return domain.PassAudit
}

// Score returns the risk score of the long answers stored in doc.
func (p *AuditPass) Score(doc []byte) int {
	answers := gjson.GetBytes(doc, exercisePath+".longAnswers")
	if !answers.IsArray() {
		return 0
	}

	score := 0
	answers.ForEach(func(_, la gjson.Result) bool {
		if !truthy(la.Get("keyPoints")) {
			score += riskMissingKeyPoints
		}
		if utf8.RuneCountInString(la.Get("modelAnswer").String()) < p.minAnswer {
			score += riskShortAnswer
		}
		return true
	})
	return score
}

// Apply implements jobs.Pass.
func (p *AuditPass) Apply(ctx context.Context, ch *domain.Chapter) (jobs.Outcome, error) {
	score := p.Score(ch.Raw)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.scanned++
	if score > 0 {
		p.flagged = append(p.flagged, RiskEntry{Chapter: ch.Key, Score: score})
	}
	return jobs.Outcome{}, nil
}

// Begin implements jobs.Summarizer.
func (p *AuditPass) Begin() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.scanned = 0
	p.flagged = nil
}

// Summary implements jobs.Summarizer. Chapters are ordered by descending
// score; equal scores keep corpus order.
func (p *AuditPass) Summary() any {
	p.mu.Lock()
	defer p.mu.Unlock()

	ranked := append([]RiskEntry(nil), p.flagged...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	if len(ranked) > p.top {
		ranked = ranked[:p.top]
	}
	if ranked == nil {
		ranked = []RiskEntry{}
	}

	return &AuditReport{
		Scanned:  p.scanned,
		Flagged:  len(p.flagged),
		TopRisks: ranked,
	}
}

// truthy mirrors JSON truthiness: absent, null, false, 0, "" and empty
// containers are false.
func truthy(v gjson.Result) bool {
	switch v.Type {
	case gjson.Null:
		return false
	case gjson.False:
		return false
	case gjson.Number:
		return v.Num != 0
	case gjson.String:
		return v.Str != ""
	case gjson.JSON:
		if v.IsArray() {
			return len(v.Array()) > 0
		}
		return len(v.Map()) > 0
	default:
		return true
	}
}
