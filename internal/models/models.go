package models

import "time"

// AutoSendStrategy controls when a routing queue offers files on its own.
type AutoSendStrategy string

const (
	StrategyNone      AutoSendStrategy = "none"
	StrategyOnEnter   AutoSendStrategy = "on_enter"
	StrategyOnRequest AutoSendStrategy = "on_request"
	StrategyManual    AutoSendStrategy = "manual"
)

// Trigger is the event category that caused an evaluation.
type Trigger string

const (
	TriggerOnEnter   Trigger = "on_enter"
	TriggerOnRequest Trigger = "on_request"
	TriggerManual    Trigger = "manual"
)

// FileCollection is a tenant-scoped, optionally time-windowed set of sendable files.
// Collections are managed by the admin workflow; this engine only reads them.
type FileCollection struct {
	ID         string     `json:"id"`
	TenantID   string     `json:"tenant_id"`
	Name       string     `json:"name"`
	Active     bool       `json:"active"`
	ValidFrom  *time.Time `json:"valid_from,omitempty"`
	ValidUntil *time.Time `json:"valid_until,omitempty"`
}

// ValidAt reports whether the collection is usable at the given instant.
// Unset bounds do not constrain the window.
func (c FileCollection) ValidAt(now time.Time) bool {
	if !c.Active {
		return false
	}
	if c.ValidFrom != nil && now.Before(*c.ValidFrom) {
		return false
	}
	if c.ValidUntil != nil && now.After(*c.ValidUntil) {
		return false
	}
	return true
}

// FileItem is a single sendable entry of a collection. Keywords is the raw
// comma-separated tag string as entered by the operator.
type FileItem struct {
	ID           string `json:"id"`
	CollectionID string `json:"collection_id"`
	Name         string `json:"name"`
	Path         string `json:"path"`
	Keywords     string `json:"keywords"`
	Description  string `json:"description"`
	Active       bool   `json:"active"`
}

// RoutingQueue carries the auto-send configuration for one queue.
type RoutingQueue struct {
	ID                   string           `json:"id"`
	TenantID             string           `json:"tenant_id"`
	AutoSendStrategy     AutoSendStrategy `json:"auto_send_strategy"`
	ConfirmationTemplate string           `json:"confirmation_template,omitempty"`
	MaxFilesPerSession   int              `json:"max_files_per_session"`
	CollectionID         string           `json:"collection_id,omitempty"`
}

// ConversationSession is the ticket-equivalent the engine acts on. ChatID is
// the transport-level address of the contact.
type ConversationSession struct {
	ID        string `json:"id"`
	TenantID  string `json:"tenant_id"`
	ContactID string `json:"contact_id"`
	QueueID   string `json:"queue_id"`
	ChatID    int64  `json:"chat_id"`
	Closed    bool   `json:"closed"`
}

// Intent is the fixed classification enum.
type Intent string

const (
	IntentQuestion  Intent = "question"
	IntentRequest   Intent = "request"
	IntentComplaint Intent = "complaint"
	IntentPraise    Intent = "praise"
	IntentPurchase  Intent = "purchase"
	IntentSupport   Intent = "support"
	IntentOther     Intent = "other"
)

// Sentiment of an inbound message.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
)

// Analysis is the structured result of classifying one inbound message.
// It is produced fresh per message and never persisted.
type Analysis struct {
	Intent             Intent    `json:"intent"`
	Confidence         float64   `json:"confidence"`
	Entities           []string  `json:"entities"`
	Sentiment          Sentiment `json:"sentiment"`
	SuggestedFileTypes []string  `json:"suggested_file_types"`
	ContextualResponse string    `json:"contextual_response"`
}

// Decision is the output of one auto-send policy evaluation.
type Decision struct {
	ShouldSend         bool       `json:"should_send"`
	Files              []FileItem `json:"files"`
	ConfirmationNeeded bool       `json:"confirmation_needed"`
	Reason             string     `json:"reason"`
}
