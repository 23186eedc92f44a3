package search

import (
	"math"
	"sort"
	"strings"
	"unicode"
)

// Suggestion is a topic match with relevance scoring
type Suggestion struct {
	Topic    string
	Category string
	Score    float64
	Matches  []Match
}

// Match represents where text was found
type Match struct {
	Field  string // "topic", "category"
	Text   string
	Weight float64
}

// Engine filters the catalog in memory without an index.
type Engine struct {
	topics []Topic
}

func NewEngine(catalog *Catalog) *Engine {
	return &Engine{topics: catalog.Topics()}
}

// Suggest returns topics containing the query, best matches first. An empty
// query lists the catalog alphabetically.
func (e *Engine) Suggest(query string, limit int) ([]*Suggestion, error) {
	if limit <= 0 {
		limit = len(e.topics)
	}

	query = strings.TrimSpace(query)
	if query == "" {
		out := make([]*Suggestion, 0, limit)
		for _, t := range e.topics {
			if len(out) == limit {
				break
			}
			out = append(out, &Suggestion{Topic: t.Name, Category: firstCategory(t)})
		}
		return out, nil
	}

	terms := tokenize(query)
	lowerQuery := strings.ToLower(query)

	var results []*Suggestion
	for _, t := range e.topics {
		if s := e.scoreTopic(t, lowerQuery, terms); s != nil {
			results = append(results, s)
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (e *Engine) scoreTopic(t Topic, lowerQuery string, terms []string) *Suggestion {
	var matches []Match
	var total float64

	lowerName := strings.ToLower(t.Name)
	if strings.Contains(lowerName, lowerQuery) {
		weight := 2.0
		if strings.HasPrefix(lowerName, lowerQuery) {
			weight = 3.0
		}
		if lowerName == lowerQuery {
			weight = 5.0
		}
		matches = append(matches, Match{Field: "topic", Text: t.Name, Weight: weight})
		total += weight
	}
	if score := scoreField(t.Name, terms, 1.0); score > 0 && total > 0 {
		total += score
	}

	// Category hits only rank topics that already matched by name.
	if total > 0 {
		for _, c := range t.Categories {
			if score := scoreField(c, terms, 0.25); score > 0 {
				matches = append(matches, Match{Field: "category", Text: c, Weight: score})
				total += score
			}
		}
	}

	if total == 0 {
		return nil
	}
	return &Suggestion{Topic: t.Name, Category: firstCategory(t), Score: total, Matches: matches}
}

func (e *Engine) DocCount() (int, error) {
	return len(e.topics), nil
}

// scoreField calculates relevance score for a field
func scoreField(text string, terms []string, weight float64) float64 {
	if text == "" || len(terms) == 0 {
		return 0
	}

	words := tokenize(text)
	if len(words) == 0 {
		return 0
	}

	var score float64
	matchedTerms := 0
	for _, term := range terms {
		for _, word := range words {
			switch {
			case word == term:
				score += 1.5
				matchedTerms++
			case strings.HasPrefix(word, term):
				score += 1.0
				matchedTerms++
			case strings.Contains(word, term):
				score += 0.5
				matchedTerms++
			}
		}
	}

	// Boost score if multiple terms match
	if len(terms) > 1 && matchedTerms > 1 {
		score *= 1.0 + float64(matchedTerms)/float64(len(terms))
	}

	tf := float64(matchedTerms) / float64(len(words))
	score *= 1.0 + math.Log(1.0+tf)

	return score * weight
}

// tokenize breaks text into lowercase searchable terms
func tokenize(text string) []string {
	var terms []string
	current := strings.Builder{}

	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			current.WriteRune(unicode.ToLower(r))
		} else if current.Len() > 0 {
			if term := current.String(); len(term) > 1 { // Skip single chars
				terms = append(terms, term)
			}
			current.Reset()
		}
	}

	if current.Len() > 1 {
		terms = append(terms, current.String())
	}

	return terms
}

func firstCategory(t Topic) string {
	if len(t.Categories) == 0 {
		return ""
	}
	return t.Categories[0]
}
