package models

import "time"

// MetricsPeriod bounds a reporting window.
type MetricsPeriod struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// QueueMetrics aggregates offer/accept activity for one queue over a period.
type QueueMetrics struct {
	QueueID             string  `json:"queue_id"`
	TicketCount         int     `json:"ticket_count"`
	FilesOffered        int     `json:"files_offered"`
	FilesAccepted       int     `json:"files_accepted"`
	FilesRejected       int     `json:"files_rejected"`
	TotalFilesInSession int     `json:"total_files_in_session"`
	AcceptanceRate      float64 `json:"acceptance_rate"`
	AvgFilesPerSession  float64 `json:"avg_files_per_session"`
}

// FileMetrics is derived from recorded send events, never fabricated.
type FileMetrics struct {
	FileID          string        `json:"file_id"`
	TimesSent       int           `json:"times_sent"`
	SuccessRate     float64       `json:"success_rate"`
	AvgResponseTime time.Duration `json:"avg_response_time"`
	TopKeywords     []string      `json:"top_keywords"`
}

// OverallMetrics is the tenant-wide rollup.
type OverallMetrics struct {
	Period          MetricsPeriod  `json:"period"`
	Queues          []QueueMetrics `json:"queues"`
	FilesOffered    int            `json:"files_offered"`
	FilesAccepted   int            `json:"files_accepted"`
	FilesRejected   int            `json:"files_rejected"`
	AcceptanceRate  float64        `json:"acceptance_rate"`
	BestQueueID     string         `json:"best_queue_id,omitempty"`
	PeakHours       []int          `json:"peak_hours"`
	Recommendations []string       `json:"recommendations"`
}

// TicketHistory is one historical conversation with its messages, as returned
// by the message-history store for metrics computation.
type TicketHistory struct {
	ID       string           `json:"id"`
	QueueID  string           `json:"queue_id"`
	OpenedAt time.Time        `json:"opened_at"`
	Messages []HistoryMessage `json:"messages"`
}

// HistoryMessage is a single stored message. FromContact distinguishes the
// end user's replies from bot-authored output.
type HistoryMessage struct {
	Body        string    `json:"body"`
	FromContact bool      `json:"from_contact"`
	SentAt      time.Time `json:"sent_at"`
}

// SendEvent records one attempted file dispatch for instrumentation.
type SendEvent struct {
	FileID    string        `json:"file_id"`
	SessionID string        `json:"session_id"`
	QueueID   string        `json:"queue_id"`
	Success   bool          `json:"success"`
	Duration  time.Duration `json:"duration"`
	SentAt    time.Time     `json:"sent_at"`
}
