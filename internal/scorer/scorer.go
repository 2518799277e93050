// Package scorer ranks catalog files against a query and its analysis.
package scorer

import (
	"sort"
	"strings"

	"github.com/zanon-alive/taktchat-sub003/internal/models"
)

// MinScore is the default relevance cutoff below which a file is dropped.
const MinScore = 0.2

// DefaultTopK bounds how many ranked files the pipeline forwards.
const DefaultTopK = 3

// Score computes the relevance of one file for a query. The result is always
// within [0, 1].
func Score(file models.FileItem, query string, analysis *models.Analysis) float64 {
	q := strings.ToLower(query)
	name := strings.ToLower(file.Name)
	keywords := strings.ToLower(file.Keywords)
	description := strings.ToLower(file.Description)
	haystack := keywords + " " + description + " " + name

	score := 0.0

	if name != "" && (strings.Contains(q, name) || strings.Contains(name, q)) {
		score += 0.8
	}

	for _, entity := range analysis.Entities {
		if e := strings.ToLower(entity); e != "" && strings.Contains(haystack, e) {
			score += 0.3
		}
	}

	for _, category := range analysis.SuggestedFileTypes {
		if c := strings.ToLower(category); c != "" && strings.Contains(haystack, c) {
			score += 0.4
		}
	}

	score += intentBoost(analysis.Intent, keywords)
	score *= analysis.Confidence

	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return score
}

func intentBoost(intent models.Intent, keywords string) float64 {
	switch intent {
	case models.IntentQuestion:
		if containsAny(keywords, "manual", "faq", "tutorial") {
			return 0.3
		}
	case models.IntentSupport:
		if containsAny(keywords, "manual", "faq", "suporte", "support") {
			return 0.4
		}
	case models.IntentPurchase:
		if containsAny(keywords, "catalog", "catálogo", "catalogo", "product", "produto") {
			return 0.4
		}
	case models.IntentComplaint:
		if containsAny(keywords, "suporte", "support", "garantia", "contato") {
			return 0.2
		}
	default:
		return 0.1
	}
	return 0
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// Rank filters files below minScore and orders the rest by descending
// relevance. Pass a negative minScore to use the default cutoff.
func Rank(files []models.FileItem, query string, analysis *models.Analysis, minScore float64) []models.FileItem {
	if minScore < 0 {
		minScore = MinScore
	}

	type scored struct {
		file  models.FileItem
		score float64
	}

	kept := make([]scored, 0, len(files))
	for _, f := range files {
		if s := Score(f, query, analysis); s > minScore {
			kept = append(kept, scored{file: f, score: s})
		}
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].score > kept[j].score
	})

	out := make([]models.FileItem, 0, len(kept))
	for _, k := range kept {
		out = append(out, k.file)
	}
	return out
}

// TopK truncates a ranked list to at most k entries.
func TopK(files []models.FileItem, k int) []models.FileItem {
	if k <= 0 {
		k = DefaultTopK
	}
	if len(files) > k {
		return files[:k]
	}
	return files
}
