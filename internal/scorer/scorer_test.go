package scorer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zanon-alive/taktchat-sub003/internal/models"
)

func analysisFixture() *models.Analysis {
	return &models.Analysis{
		Intent:             models.IntentRequest,
		Confidence:         0.6,
		Entities:           []string{"manual", "instalação"},
		SuggestedFileTypes: []string{"manual"},
		Sentiment:          models.SentimentNeutral,
	}
}

func TestScoreBounds(t *testing.T) {
	files := []models.FileItem{
		{Name: "Manual de Instalação", Keywords: "manual, instalação, setup", Description: "Guia completo"},
		{Name: "Catálogo 2026", Keywords: "catalogo, produtos, preços"},
		{Name: "", Keywords: "", Description: ""},
	}
	analyses := []*models.Analysis{
		analysisFixture(),
		{Intent: models.IntentOther, Confidence: 1.0},
		{Intent: models.IntentPurchase, Confidence: 0.0},
	}

	for _, f := range files {
		for _, a := range analyses {
			s := Score(f, "preciso do manual de instalação", a)
			assert.GreaterOrEqual(t, s, 0.0)
			assert.LessOrEqual(t, s, 1.0)
		}
	}
}

func TestScoreZeroConfidenceZeroesEverything(t *testing.T) {
	file := models.FileItem{Name: "manual", Keywords: "manual"}
	analysis := analysisFixture()
	analysis.Confidence = 0

	assert.Equal(t, 0.0, Score(file, "manual", analysis))
}

func TestScoreNameSubstringBoost(t *testing.T) {
	analysis := &models.Analysis{Intent: models.IntentOther, Confidence: 1.0}

	with := Score(models.FileItem{Name: "manual"}, "preciso do manual", analysis)
	without := Score(models.FileItem{Name: "catálogo"}, "preciso do manual", analysis)
	assert.Greater(t, with, without)
}

func TestRankSortedDescendingAboveCutoff(t *testing.T) {
	files := []models.FileItem{
		{ID: "weak", Name: "Contrato", Keywords: "juridico"},
		{ID: "strong", Name: "Manual de Instalação", Keywords: "manual, instalação, setup", Description: "manual"},
		{ID: "medium", Name: "FAQ", Keywords: "manual, faq"},
	}
	analysis := analysisFixture()

	ranked := Rank(files, "preciso do manual de instalação", analysis, -1)
	require.NotEmpty(t, ranked)

	var prev = 2.0
	for _, f := range ranked {
		s := Score(f, "preciso do manual de instalação", analysis)
		assert.Greater(t, s, MinScore)
		assert.LessOrEqual(t, s, prev)
		prev = s
	}
	assert.Equal(t, "strong", ranked[0].ID)

	for _, f := range ranked {
		assert.NotEqual(t, "weak", f.ID)
	}
}

func TestRankEmptyWhenNothingRelevant(t *testing.T) {
	files := []models.FileItem{
		{ID: "a", Name: "Contrato Social", Keywords: "juridico, contrato"},
	}
	analysis := &models.Analysis{Intent: models.IntentOther, Confidence: 0.1}

	assert.Empty(t, Rank(files, "qualquer coisa", analysis, -1))
}

func TestTopK(t *testing.T) {
	files := make([]models.FileItem, 5)
	assert.Len(t, TopK(files, 3), 3)
	assert.Len(t, TopK(files, 0), DefaultTopK)
	assert.Len(t, TopK(files[:2], 3), 2)
}
