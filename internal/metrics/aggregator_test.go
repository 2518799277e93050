package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/zanon-alive/taktchat-sub003/internal/models"
)

type fakeHistory struct {
	tickets map[string][]models.TicketHistory
	queues  []string
	calls   int
}

func (f *fakeHistory) QueryTickets(_ context.Context, queueID string, _ models.MetricsPeriod) ([]models.TicketHistory, error) {
	f.calls++
	return f.tickets[queueID], nil
}

func (f *fakeHistory) QueueIDs(_ context.Context, _ string) ([]string, error) {
	return f.queues, nil
}

type fakeEvents struct {
	events []models.SendEvent
}

func (f *fakeEvents) RecordSend(_ context.Context, event models.SendEvent) error {
	f.events = append(f.events, event)
	return nil
}

func (f *fakeEvents) QuerySendEvents(_ context.Context, _ string, _ models.MetricsPeriod) ([]models.SendEvent, error) {
	return f.events, nil
}

func periodFixture() models.MetricsPeriod {
	return models.MetricsPeriod{
		Start: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC),
	}
}

func botMsg(body string, at time.Time) models.HistoryMessage {
	return models.HistoryMessage{Body: body, FromContact: false, SentAt: at}
}

func contactMsg(body string, at time.Time) models.HistoryMessage {
	return models.HistoryMessage{Body: body, FromContact: true, SentAt: at}
}

func TestQueueMetricsEmptyPeriod(t *testing.T) {
	agg := NewAggregator(&fakeHistory{}, &fakeEvents{}, zap.NewNop())

	m, err := agg.QueueMetrics(context.Background(), "queue-1", periodFixture())
	require.NoError(t, err)
	assert.Equal(t, 0, m.TicketCount)
	assert.Equal(t, 0.0, m.AcceptanceRate)
	assert.Equal(t, 0.0, m.AvgFilesPerSession)
}

func TestQueueMetricsCountsOffersAndReplies(t *testing.T) {
	base := time.Date(2026, 8, 10, 14, 0, 0, 0, time.UTC)
	hist := &fakeHistory{tickets: map[string][]models.TicketHistory{
		"queue-1": {
			{
				ID: "t1", QueueID: "queue-1", OpenedAt: base,
				Messages: []models.HistoryMessage{
					botMsg("Posso te enviar o manual?", base),
					contactMsg("sim", base.Add(time.Minute)),
					botMsg("📎 Manual.pdf", base.Add(2*time.Minute)),
				},
			},
			{
				ID: "t2", QueueID: "queue-1", OpenedAt: base,
				Messages: []models.HistoryMessage{
					botMsg("Deseja receber o catálogo?", base),
					contactMsg("não", base.Add(time.Minute)),
				},
			},
			{
				ID: "t3", QueueID: "queue-1", OpenedAt: base,
				Messages: []models.HistoryMessage{
					botMsg("Posso enviar o guia?", base),
					// Reply outside the 5-minute window does not count.
					contactMsg("sim", base.Add(10*time.Minute)),
				},
			},
		},
	}}

	agg := NewAggregator(hist, &fakeEvents{}, zap.NewNop())
	m, err := agg.QueueMetrics(context.Background(), "queue-1", periodFixture())
	require.NoError(t, err)

	assert.Equal(t, 3, m.TicketCount)
	assert.Equal(t, 3, m.FilesOffered)
	assert.Equal(t, 1, m.FilesAccepted)
	assert.Equal(t, 1, m.FilesRejected)
	assert.Equal(t, 1, m.TotalFilesInSession)
	assert.InDelta(t, 33.33, m.AcceptanceRate, 0.1)
	assert.InDelta(t, 0.33, m.AvgFilesPerSession, 0.1)
}

func TestFileMetricsFromRealEvents(t *testing.T) {
	events := &fakeEvents{events: []models.SendEvent{
		{FileID: "f1", Success: true, Duration: 100 * time.Millisecond},
		{FileID: "f1", Success: false, Duration: 300 * time.Millisecond},
		{FileID: "f2", Success: true, Duration: 50 * time.Millisecond},
	}}

	agg := NewAggregator(&fakeHistory{}, events, zap.NewNop())
	fm, err := agg.FileMetrics(context.Background(), "queue-1", periodFixture(),
		map[string][]string{"f1": {"manual", "setup"}})
	require.NoError(t, err)
	require.Len(t, fm, 2)

	assert.Equal(t, "f1", fm[0].FileID)
	assert.Equal(t, 2, fm[0].TimesSent)
	assert.Equal(t, 50.0, fm[0].SuccessRate)
	assert.Equal(t, 200*time.Millisecond, fm[0].AvgResponseTime)
	assert.Equal(t, []string{"manual", "setup"}, fm[0].TopKeywords)

	assert.Equal(t, "f2", fm[1].FileID)
	assert.Equal(t, 100.0, fm[1].SuccessRate)
}

func TestOverallMetricsRollup(t *testing.T) {
	base := time.Date(2026, 8, 10, 14, 0, 0, 0, time.UTC)
	accepted := []models.HistoryMessage{
		botMsg("Posso te enviar o manual?", base),
		contactMsg("sim", base.Add(time.Minute)),
	}
	rejected := []models.HistoryMessage{
		botMsg("Posso te enviar o manual?", base),
		contactMsg("não", base.Add(time.Minute)),
	}

	hist := &fakeHistory{
		queues: []string{"q-good", "q-bad"},
		tickets: map[string][]models.TicketHistory{
			"q-good": {{ID: "t1", QueueID: "q-good", OpenedAt: base, Messages: accepted}},
			"q-bad":  {{ID: "t2", QueueID: "q-bad", OpenedAt: base, Messages: rejected}},
		},
	}

	agg := NewAggregator(hist, &fakeEvents{}, zap.NewNop())
	overall, err := agg.OverallMetrics(context.Background(), "tenant-1", periodFixture())
	require.NoError(t, err)

	assert.Equal(t, 2, overall.FilesOffered)
	assert.Equal(t, 1, overall.FilesAccepted)
	assert.Equal(t, 1, overall.FilesRejected)
	assert.Equal(t, 50.0, overall.AcceptanceRate)
	assert.Equal(t, "q-good", overall.BestQueueID)
	assert.Contains(t, overall.PeakHours, 14)
	assert.NotEmpty(t, overall.Recommendations)
}

func TestOverallMetricsReadsEachQueueOnce(t *testing.T) {
	hist := &fakeHistory{queues: []string{"q1", "q2", "q3"}}
	agg := NewAggregator(hist, &fakeEvents{}, zap.NewNop())

	_, err := agg.OverallMetrics(context.Background(), "tenant-1", periodFixture())
	require.NoError(t, err)
	assert.Equal(t, 3, hist.calls)
}

func TestOverallMetricsNoQueues(t *testing.T) {
	agg := NewAggregator(&fakeHistory{}, &fakeEvents{}, zap.NewNop())

	overall, err := agg.OverallMetrics(context.Background(), "tenant-1", periodFixture())
	require.NoError(t, err)
	assert.Zero(t, overall.FilesOffered)
	assert.Equal(t, 0.0, overall.AcceptanceRate)
	assert.Empty(t, overall.BestQueueID)
}
