package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zanon-alive/taktchat-sub003/internal/models"
)

func queueFixture() models.RoutingQueue {
	return models.RoutingQueue{
		ID:                 "queue-1",
		TenantID:           "tenant-1",
		AutoSendStrategy:   models.StrategyOnEnter,
		MaxFilesPerSession: 5,
		CollectionID:       "col-1",
	}
}

func sessionFixture() models.ConversationSession {
	return models.ConversationSession{ID: "sess-1", TenantID: "tenant-1", QueueID: "queue-1"}
}

func fileFixture(id, keywords string) models.FileItem {
	return models.FileItem{ID: id, CollectionID: "col-1", Name: id, Keywords: keywords, Active: true}
}

func TestEvaluateOnEnterWithoutTemplate(t *testing.T) {
	in := Input{
		Queue:       queueFixture(),
		Trigger:     models.TriggerOnEnter,
		Session:     sessionFixture(),
		ActiveFiles: 1,
		Candidates:  []models.FileItem{fileFixture("f1", "manual")},
	}

	decision := Evaluate(in)
	assert.True(t, decision.ShouldSend)
	assert.False(t, decision.ConfirmationNeeded)
	assert.Len(t, decision.Files, 1)
}

func TestEvaluateOnEnterWithTemplate(t *testing.T) {
	queue := queueFixture()
	queue.ConfirmationTemplate = "Posso te enviar {files}?"

	in := Input{
		Queue:       queue,
		Trigger:     models.TriggerOnEnter,
		Session:     sessionFixture(),
		ActiveFiles: 1,
		Candidates:  []models.FileItem{fileFixture("f1", "manual")},
	}

	decision := Evaluate(in)
	assert.False(t, decision.ShouldSend)
	assert.True(t, decision.ConfirmationNeeded)
}

func TestEvaluateDisabledQueue(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*models.RoutingQueue)
	}{
		{"strategy none", func(q *models.RoutingQueue) { q.AutoSendStrategy = models.StrategyNone }},
		{"no collection", func(q *models.RoutingQueue) { q.CollectionID = "" }},
		{"empty strategy", func(q *models.RoutingQueue) { q.AutoSendStrategy = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			queue := queueFixture()
			tt.mutate(&queue)

			decision := Evaluate(Input{
				Queue:       queue,
				Trigger:     models.TriggerOnEnter,
				Session:     sessionFixture(),
				ActiveFiles: 1,
				Candidates:  []models.FileItem{fileFixture("f1", "manual")},
			})
			assert.False(t, decision.ShouldSend)
			assert.False(t, decision.ConfirmationNeeded)
			assert.Empty(t, decision.Files)
		})
	}
}

func TestEvaluateTriggerMismatch(t *testing.T) {
	in := Input{
		Queue:       queueFixture(), // on_enter
		Trigger:     models.TriggerOnRequest,
		Session:     sessionFixture(),
		ActiveFiles: 1,
		Candidates:  []models.FileItem{fileFixture("f1", "manual")},
	}

	decision := Evaluate(in)
	assert.False(t, decision.ShouldSend)
	assert.Equal(t, "trigger does not match queue strategy", decision.Reason)
}

func TestEvaluateNoActiveFiles(t *testing.T) {
	in := Input{
		Queue:       queueFixture(),
		Trigger:     models.TriggerOnEnter,
		Session:     sessionFixture(),
		ActiveFiles: 0,
	}

	decision := Evaluate(in)
	assert.False(t, decision.ShouldSend)
	assert.Equal(t, "no active files in collection", decision.Reason)
}

func TestEvaluateSessionLimit(t *testing.T) {
	in := Input{
		Queue:             queueFixture(),
		Trigger:           models.TriggerOnEnter,
		Session:           sessionFixture(),
		ActiveFiles:       1,
		Candidates:        []models.FileItem{fileFixture("f1", "manual")},
		FilesSentInWindow: 5,
	}

	decision := Evaluate(in)
	assert.False(t, decision.ShouldSend)
	assert.Equal(t, "session limit exceeded", decision.Reason)
}

func TestEvaluateOnRequestKeywordFilter(t *testing.T) {
	queue := queueFixture()
	queue.AutoSendStrategy = models.StrategyOnRequest

	manual := fileFixture("manual", "instalação, instalar, setup")
	catalog := fileFixture("catalog", "catálogo, preços")

	in := Input{
		Queue:       queue,
		Trigger:     models.TriggerOnRequest,
		Session:     sessionFixture(),
		MessageBody: "preciso do manual de instalação",
		ActiveFiles: 2,
		Candidates:  []models.FileItem{manual, catalog},
	}

	decision := Evaluate(in)
	require.True(t, decision.ShouldSend)
	require.Len(t, decision.Files, 1)
	assert.Equal(t, "manual", decision.Files[0].ID)
}

func TestEvaluateOnRequestNoKeywordMatch(t *testing.T) {
	queue := queueFixture()
	queue.AutoSendStrategy = models.StrategyOnRequest

	in := Input{
		Queue:       queue,
		Trigger:     models.TriggerOnRequest,
		Session:     sessionFixture(),
		MessageBody: "assunto totalmente diferente",
		ActiveFiles: 1,
		Candidates:  []models.FileItem{fileFixture("f1", "manual, setup")},
	}

	decision := Evaluate(in)
	assert.False(t, decision.ShouldSend)
	assert.Equal(t, "no files match the request", decision.Reason)
}

func TestEvaluateManualSkipsConfirmation(t *testing.T) {
	queue := queueFixture()
	queue.AutoSendStrategy = models.StrategyManual
	queue.ConfirmationTemplate = "Posso enviar?"

	in := Input{
		Queue:       queue,
		Trigger:     models.TriggerManual,
		Session:     sessionFixture(),
		ActiveFiles: 1,
		Candidates:  []models.FileItem{fileFixture("f1", "manual")},
	}

	decision := Evaluate(in)
	assert.True(t, decision.ShouldSend)
	assert.False(t, decision.ConfirmationNeeded)
}

func TestEvaluateDeterministic(t *testing.T) {
	queue := queueFixture()
	queue.AutoSendStrategy = models.StrategyOnRequest

	in := Input{
		Queue:       queue,
		Trigger:     models.TriggerOnRequest,
		Session:     sessionFixture(),
		MessageBody: "quero o manual",
		ActiveFiles: 2,
		Candidates: []models.FileItem{
			fileFixture("a", "manual"),
			fileFixture("b", "catálogo"),
		},
	}

	first := Evaluate(in)
	second := Evaluate(in)
	assert.Equal(t, first, second)

	// Inputs are untouched by evaluation.
	assert.Equal(t, models.StrategyOnRequest, in.Queue.AutoSendStrategy)
	assert.Len(t, in.Candidates, 2)
}
