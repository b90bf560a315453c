package lexical

import "sort"

// Score is the number of distinct tokens shared by query and candidate.
func Score(query, candidate Set) int {
	small, large := query, candidate
	if len(small) > len(large) {
		small, large = large, small
	}
	n := 0
	for tok := range small {
		if large.Contains(tok) {
			n++
		}
	}
	return n
}

// Scored is a candidate text with its overlap score and source position.
type Scored struct {
	Index int
	Score int
	Text  string
}

// Rank scores every candidate against query, drops candidates with no
// overlap and orders the rest by descending score. Candidates with equal
// scores keep their source order.
func Rank(query string, candidates []string) []Scored {
	q := TokenSet(query)
	if len(q) == 0 {
		return nil
	}

	var scored []Scored
	for i, text := range candidates {
		s := Score(q, TokenSet(text))
		if s > 0 {
			scored = append(scored, Scored{Index: i, Score: s, Text: text})
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	return scored
}

// TokenCount is a token with its number of occurrences.
type TokenCount struct {
	Token string
	Count int
}

// RankFrequencies counts tokens and orders them most common first. Tokens
// with equal counts keep the order of their first occurrence.
func RankFrequencies(tokens []string) []TokenCount {
	index := make(map[string]int, len(tokens))
	var counts []TokenCount
	for _, tok := range tokens {
		if i, ok := index[tok]; ok {
			counts[i].Count++
			continue
		}
		index[tok] = len(counts)
		counts = append(counts, TokenCount{Token: tok, Count: 1})
	}

	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].Count > counts[j].Count
	})
	return counts
}

// TopTokens returns up to n tokens of tokens, most common first.
func TopTokens(tokens []string, n int) []string {
	ranked := RankFrequencies(tokens)
	if n >= 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	out := make([]string, len(ranked))
	for i, tc := range ranked {
		out[i] = tc.Token
	}
	return out
}
