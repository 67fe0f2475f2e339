package memory

import (
	"sort"
	"strings"
	"unicode"
)

// SearchNodes returns the subgraph matching a keyword query: every
// entity whose name or observations share a token with the query, plus
// all relations touching a matched entity.
func (s *Store) SearchNodes(query string) Graph {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := s.scoredMatches(query)

	names := make(map[string]bool, len(matched))
	entities := make([]Entity, 0, len(matched))
	for _, m := range matched {
		names[m.entity.Name] = true
		entities = append(entities, cloneEntity(m.entity))
	}

	var relations []Relation
	for _, r := range s.graph.Relations {
		if names[r.From] || names[r.To] {
			relations = append(relations, r)
		}
	}
	return Graph{Entities: entities, Relations: relations}
}

// Recall returns the best-matching entities for a query, at most limit.
// An empty query recalls nothing.
func (s *Store) Recall(query string, limit int) []Entity {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := s.scoredMatches(query)
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	out := make([]Entity, 0, len(matched))
	for _, m := range matched {
		out = append(out, cloneEntity(m.entity))
	}
	return out
}

type match struct {
	entity Entity
	score  int
	order  int
}

// scoredMatches ranks entities by how many query tokens appear in their
// name or observations, best first. Graph order breaks ties so results
// are stable. Must run with at least the read lock held.
func (s *Store) scoredMatches(query string) []match {
	queryTokens := tokenize(query)
	if len(queryTokens) == 0 {
		return nil
	}

	var matches []match
	for i, e := range s.graph.Entities {
		tokens := entityTokens(e)
		score := 0
		for _, qt := range queryTokens {
			if tokens[qt] {
				score++
			}
		}
		if score > 0 {
			matches = append(matches, match{entity: e, score: score, order: i})
		}
	}
	sort.Slice(matches, func(a, b int) bool {
		if matches[a].score != matches[b].score {
			return matches[a].score > matches[b].score
		}
		return matches[a].order < matches[b].order
	})
	return matches
}

func entityTokens(e Entity) map[string]bool {
	tokens := make(map[string]bool)
	for _, t := range tokenize(e.Name) {
		tokens[t] = true
	}
	for _, t := range tokenize(e.Type) {
		tokens[t] = true
	}
	for _, o := range e.Observations {
		for _, t := range tokenize(o) {
			tokens[t] = true
		}
	}
	return tokens
}

// tokenize lowercases and splits on anything that is not a letter or
// digit.
func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
