// Package policy implements the auto-send decision function. Evaluate is
// pure: it reads already-fetched queue, collection and session state and
// never touches I/O, so the same inputs always yield the same Decision.
package policy

import (
	"strings"

	"github.com/zanon-alive/taktchat-sub003/internal/models"
)

// Input carries everything one evaluation needs, fetched by the caller.
type Input struct {
	Queue       models.RoutingQueue
	Trigger     models.Trigger
	Session     models.ConversationSession
	MessageBody string
	// ActiveFiles is how many active files the queue's currently valid
	// collection holds, regardless of ranking.
	ActiveFiles int
	// Candidates are the files under consideration: the ranked list when the
	// trigger came from a text query, otherwise all active files.
	Candidates []models.FileItem
	// FilesSentInWindow is the session's rolling file counter, read from the
	// shared store before evaluation.
	FilesSentInWindow int
}

// Evaluate runs the sequential checks and short-circuits on the first one
// that fails, reporting why in Decision.Reason.
func Evaluate(in Input) models.Decision {
	queue := in.Queue

	if queue.CollectionID == "" || queue.AutoSendStrategy == models.StrategyNone || queue.AutoSendStrategy == "" {
		return models.Decision{Reason: "auto-send disabled for queue"}
	}

	if string(queue.AutoSendStrategy) != string(in.Trigger) {
		return models.Decision{Reason: "trigger does not match queue strategy"}
	}

	if in.ActiveFiles == 0 {
		return models.Decision{Reason: "no active files in collection"}
	}

	if queue.MaxFilesPerSession > 0 && in.FilesSentInWindow >= queue.MaxFilesPerSession {
		return models.Decision{Reason: "session limit exceeded"}
	}

	files := in.Candidates
	if in.Trigger == models.TriggerOnRequest {
		files = matchRequested(in.Candidates, in.MessageBody)
		if len(files) == 0 {
			return models.Decision{Reason: "no files match the request"}
		}
	}

	confirmationNeeded := queue.ConfirmationTemplate != "" && in.Trigger != models.TriggerManual

	return models.Decision{
		ShouldSend:         !confirmationNeeded,
		Files:              files,
		ConfirmationNeeded: confirmationNeeded,
		Reason:             "auto-send criteria met",
	}
}

// matchRequested keeps files whose keyword string contains any token of the
// lowered message body.
func matchRequested(candidates []models.FileItem, body string) []models.FileItem {
	tokens := strings.Fields(strings.ToLower(body))
	if len(tokens) == 0 {
		return nil
	}

	var matched []models.FileItem
	for _, file := range candidates {
		keywords := strings.ToLower(file.Keywords)
		for _, token := range tokens {
			if strings.Contains(keywords, token) {
				matched = append(matched, file)
				break
			}
		}
	}
	return matched
}
