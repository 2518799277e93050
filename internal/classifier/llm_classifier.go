package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/zanon-alive/taktchat-sub003/internal/models"
)

const systemInstruction = `You are an intent classifier for a customer-service chat.
Analyze the user message and return ONLY a JSON object with this exact structure:
{
    "intent": "question|request|complaint|praise|purchase|support|other",
    "confidence": 0.0,
    "entities": ["entity1", "entity2"],
    "sentiment": "positive|negative|neutral",
    "suggestedFileTypes": ["type1", "type2"],
    "contextualResponse": "short reply in the user's language"
}
Do not include any text outside the JSON object.`

// CompletionClient is the minimal LLM surface the classifier needs. A missing
// credential is modeled as a nil client, which is a normal condition.
type CompletionClient interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// OpenAIClient implements CompletionClient over the chat completions API.
type OpenAIClient struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
}

func NewOpenAIClient(apiKey, model string, maxTokens int, temperature float64) *OpenAIClient {
	return &OpenAIClient{
		client:      openai.NewClient(apiKey),
		model:       model,
		maxTokens:   maxTokens,
		temperature: float32(temperature),
	}
}

func (c *OpenAIClient) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	})
	if err != nil {
		return "", err
	}
	return firstChoice(resp)
}

// firstChoice guards against an empty choice list, which the API allows;
// the caller absorbs the error like any other completion failure.
func firstChoice(resp openai.ChatCompletionResponse) (string, error) {
	if len(resp.Choices) == 0 {
		return "", errors.New("completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

type llmAnalysis struct {
	Intent             string   `json:"intent"`
	Confidence         float64  `json:"confidence"`
	Entities           []string `json:"entities"`
	Sentiment          string   `json:"sentiment"`
	SuggestedFileTypes []string `json:"suggestedFileTypes"`
	ContextualResponse string   `json:"contextualResponse"`
}

// LLMClassifier tries the completion API first and degrades to the pattern
// tables on any failure. The caller always gets a usable Analysis; LLM
// trouble is a diagnostic log line, never an error.
type LLMClassifier struct {
	llm      CompletionClient
	fallback *PatternClassifier
	timeout  time.Duration
	logger   *zap.Logger
}

func NewLLMClassifier(llm CompletionClient, timeout time.Duration, logger *zap.Logger) *LLMClassifier {
	return &LLMClassifier{
		llm:      llm,
		fallback: NewPatternClassifier(),
		timeout:  timeout,
		logger:   logger,
	}
}

func (c *LLMClassifier) Classify(ctx context.Context, query string) *models.Analysis {
	if c.llm == nil {
		return c.fallback.Classify(ctx, query)
	}

	analysis, err := c.classifyLLM(ctx, query)
	if err != nil {
		c.logger.Debug("llm classification failed, using pattern fallback",
			zap.Error(err))
		return c.fallback.Classify(ctx, query)
	}
	return analysis
}

func (c *LLMClassifier) classifyLLM(ctx context.Context, query string) (*models.Analysis, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	raw, err := c.llm.Complete(ctx, systemInstruction, query)
	if err != nil {
		return nil, err
	}

	var parsed llmAnalysis
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &parsed); err != nil {
		return nil, err
	}

	return c.normalize(parsed), nil
}

// normalize clamps whatever the model returned into the fixed enums so a
// creative completion cannot leak unknown values downstream.
func (c *LLMClassifier) normalize(parsed llmAnalysis) *models.Analysis {
	intent := models.Intent(strings.ToLower(parsed.Intent))
	switch intent {
	case models.IntentQuestion, models.IntentRequest, models.IntentComplaint,
		models.IntentPraise, models.IntentPurchase, models.IntentSupport:
	default:
		intent = models.IntentOther
	}

	sentiment := models.Sentiment(strings.ToLower(parsed.Sentiment))
	switch sentiment {
	case models.SentimentPositive, models.SentimentNegative:
	default:
		sentiment = models.SentimentNeutral
	}

	confidence := parsed.Confidence
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}

	types := parsed.SuggestedFileTypes
	if len(types) == 0 {
		types = suggestedTypes[intent]
	}

	return &models.Analysis{
		Intent:             intent,
		Confidence:         confidence,
		Entities:           parsed.Entities,
		Sentiment:          sentiment,
		SuggestedFileTypes: types,
		ContextualResponse: parsed.ContextualResponse,
	}
}
