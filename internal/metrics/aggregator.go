// Package metrics computes acceptance and engagement aggregates from stored
// conversation history and send events. It never mutates source data and
// never runs in the message hot path.
package metrics

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/zanon-alive/taktchat-sub003/internal/confirm"
	"github.com/zanon-alive/taktchat-sub003/internal/history"
	"github.com/zanon-alive/taktchat-sub003/internal/models"
)

// responseWindow bounds how long after an offer a contact reply still counts
// as an answer to it.
const responseWindow = 5 * time.Minute

// offerPatterns match the canned phrasing the engine uses when proposing
// files, in bot-authored messages.
var offerPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)posso\s+(te\s+)?enviar`),
	regexp.MustCompile(`(?i)gostaria\s+de\s+receber`),
	regexp.MustCompile(`(?i)deseja\s+receber`),
	regexp.MustCompile(`(?i)tenho\s+materia(l|is)\s+sobre`),
	regexp.MustCompile(`(?i)would\s+you\s+like\s+to\s+receive`),
}

// sentMarkers flag a bot message that actually carried a file.
var sentMarkers = []string{"📎", "📄", "segue o arquivo", "arquivo enviado"}

type Aggregator struct {
	history history.MessageHistory
	events  history.SendEvents
	logger  *zap.Logger
}

func NewAggregator(hist history.MessageHistory, events history.SendEvents, logger *zap.Logger) *Aggregator {
	return &Aggregator{
		history: hist,
		events:  events,
		logger:  logger,
	}
}

// QueueMetrics scans one queue's tickets inside the period.
func (a *Aggregator) QueueMetrics(ctx context.Context, queueID string, period models.MetricsPeriod) (*models.QueueMetrics, error) {
	tickets, err := a.history.QueryTickets(ctx, queueID, period)
	if err != nil {
		return nil, fmt.Errorf("failed to load tickets for queue %s: %w", queueID, err)
	}
	return a.buildQueueMetrics(queueID, tickets), nil
}

func (a *Aggregator) buildQueueMetrics(queueID string, tickets []models.TicketHistory) *models.QueueMetrics {
	m := &models.QueueMetrics{
		QueueID:     queueID,
		TicketCount: len(tickets),
	}

	for _, ticket := range tickets {
		a.scanTicket(ticket, m)
	}

	if m.FilesOffered > 0 {
		m.AcceptanceRate = float64(m.FilesAccepted) / float64(m.FilesOffered) * 100
	}
	if m.TicketCount > 0 {
		m.AvgFilesPerSession = float64(m.TotalFilesInSession) / float64(m.TicketCount)
	}
	return m
}

func (a *Aggregator) scanTicket(ticket models.TicketHistory, m *models.QueueMetrics) {
	msgs := ticket.Messages
	for i, msg := range msgs {
		if msg.FromContact {
			continue
		}

		if isSentMarker(msg.Body) {
			m.TotalFilesInSession++
		}

		if !isOffer(msg.Body) {
			continue
		}
		m.FilesOffered++

		reply, ok := nextContactReply(msgs, i, msg.SentAt)
		if !ok {
			continue
		}
		if confirm.IsAccept(reply.Body) {
			m.FilesAccepted++
		} else if confirm.IsReject(reply.Body) {
			m.FilesRejected++
		}
	}
}

func nextContactReply(msgs []models.HistoryMessage, after int, offerAt time.Time) (models.HistoryMessage, bool) {
	for _, msg := range msgs[after+1:] {
		if !msg.FromContact {
			continue
		}
		if msg.SentAt.Sub(offerAt) > responseWindow {
			return models.HistoryMessage{}, false
		}
		return msg, true
	}
	return models.HistoryMessage{}, false
}

func isOffer(body string) bool {
	for _, re := range offerPatterns {
		if re.MatchString(body) {
			return true
		}
	}
	return false
}

func isSentMarker(body string) bool {
	lowered := strings.ToLower(body)
	for _, marker := range sentMarkers {
		if strings.Contains(lowered, marker) {
			return true
		}
	}
	return false
}

// FileMetrics derives per-file counters from recorded send events, keyed by
// file id. Keywords are supplied by the caller from the catalog.
func (a *Aggregator) FileMetrics(ctx context.Context, queueID string, period models.MetricsPeriod, keywords map[string][]string) ([]models.FileMetrics, error) {
	events, err := a.events.QuerySendEvents(ctx, queueID, period)
	if err != nil {
		return nil, fmt.Errorf("failed to load send events for queue %s: %w", queueID, err)
	}

	type fileAgg struct {
		sent      int
		succeeded int
		total     time.Duration
	}
	byFile := make(map[string]*fileAgg)
	var order []string

	for _, ev := range events {
		agg, ok := byFile[ev.FileID]
		if !ok {
			agg = &fileAgg{}
			byFile[ev.FileID] = agg
			order = append(order, ev.FileID)
		}
		agg.sent++
		agg.total += ev.Duration
		if ev.Success {
			agg.succeeded++
		}
	}

	out := make([]models.FileMetrics, 0, len(order))
	for _, fileID := range order {
		agg := byFile[fileID]
		fm := models.FileMetrics{
			FileID:      fileID,
			TimesSent:   agg.sent,
			TopKeywords: keywords[fileID],
		}
		if agg.sent > 0 {
			fm.SuccessRate = float64(agg.succeeded) / float64(agg.sent) * 100
			fm.AvgResponseTime = agg.total / time.Duration(agg.sent)
		}
		out = append(out, fm)
	}
	return out, nil
}

// OverallMetrics rolls every queue of the tenant into one report.
func (a *Aggregator) OverallMetrics(ctx context.Context, tenantID string, period models.MetricsPeriod) (*models.OverallMetrics, error) {
	queueIDs, err := a.history.QueueIDs(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list queues: %w", err)
	}

	overall := &models.OverallMetrics{Period: period}
	hourCounts := make(map[int]int)
	bestRate := -1.0

	for _, queueID := range queueIDs {
		// One history read per queue feeds both the metrics scan and the
		// activity-hour histogram.
		tickets, err := a.history.QueryTickets(ctx, queueID, period)
		if err != nil {
			return nil, fmt.Errorf("failed to load tickets for queue %s: %w", queueID, err)
		}

		qm := a.buildQueueMetrics(queueID, tickets)
		overall.Queues = append(overall.Queues, *qm)
		overall.FilesOffered += qm.FilesOffered
		overall.FilesAccepted += qm.FilesAccepted
		overall.FilesRejected += qm.FilesRejected

		if qm.FilesOffered > 0 && qm.AcceptanceRate > bestRate {
			bestRate = qm.AcceptanceRate
			overall.BestQueueID = qm.QueueID
		}

		countActivityHours(tickets, hourCounts)
	}

	if overall.FilesOffered > 0 {
		overall.AcceptanceRate = float64(overall.FilesAccepted) / float64(overall.FilesOffered) * 100
	}
	overall.PeakHours = peakHours(hourCounts, 3)
	overall.Recommendations = a.recommendations(overall)
	return overall, nil
}

func countActivityHours(tickets []models.TicketHistory, hourCounts map[int]int) {
	for _, ticket := range tickets {
		for _, msg := range ticket.Messages {
			if msg.FromContact {
				hourCounts[msg.SentAt.Hour()]++
			}
		}
	}
}

func peakHours(counts map[int]int, top int) []int {
	hours := make([]int, 0, len(counts))
	for h := range counts {
		hours = append(hours, h)
	}
	sort.Slice(hours, func(i, j int) bool {
		if counts[hours[i]] != counts[hours[j]] {
			return counts[hours[i]] > counts[hours[j]]
		}
		return hours[i] < hours[j]
	})
	if len(hours) > top {
		hours = hours[:top]
	}
	return hours
}

func (a *Aggregator) recommendations(overall *models.OverallMetrics) []string {
	var recs []string

	if overall.FilesOffered > 0 {
		if overall.AcceptanceRate < 50 {
			recs = append(recs, "Acceptance below 50%: review file relevance and confirmation wording.")
		} else if overall.AcceptanceRate > 80 {
			recs = append(recs, "Acceptance above 80%: consider enabling auto-send without confirmation.")
		}
	}

	for _, qm := range overall.Queues {
		if qm.FilesOffered > 0 && qm.AcceptanceRate < 40 {
			recs = append(recs, fmt.Sprintf("Queue %s accepts under 40%% of offers: revisit its collection.", qm.QueueID))
		}
		if qm.AvgFilesPerSession > 3 {
			recs = append(recs, fmt.Sprintf("Queue %s averages over 3 files per session: check the session limit.", qm.QueueID))
		}
	}

	if len(overall.PeakHours) > 0 {
		recs = append(recs, fmt.Sprintf("Peak contact activity around %02d:00; align campaign sends with it.", overall.PeakHours[0]))
	}
	return recs
}
