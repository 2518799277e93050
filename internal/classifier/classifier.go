package classifier

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/zanon-alive/taktchat-sub003/internal/models"
)

// Classifier turns free text into a best-effort Analysis. Implementations
// never return an error: a failed primary path degrades to the deterministic
// tables, not to the caller.
type Classifier interface {
	Classify(ctx context.Context, query string) *models.Analysis
}

type intentPatterns struct {
	intent   models.Intent
	patterns []*regexp.Regexp
}

// Priority table: first family with any hit wins. Portuguese first, the
// customer base is Brazilian; English forms kept for mixed conversations.
var intentTable = []intentPatterns{
	{models.IntentQuestion, compileAll(
		`\?`,
		`^(como|qual|quais|quando|onde|quem|por\s*qu[eê]|o\s*que)\b`,
		`^(what|how|when|where|which|why|who)\b`,
		`\bd[úu]vida\b`,
	)},
	{models.IntentRequest, compileAll(
		`\b(preciso|necessito|quero|gostaria|poderia|pode\s+me)\b`,
		`\b(me\s+(envia|envie|manda|mande))\b`,
		`\b(i\s+need|please\s+send|could\s+you)\b`,
	)},
	{models.IntentComplaint, compileAll(
		`\b(reclama[çc][ãa]o|problema|defeito|quebrado|n[ãa]o\s+funciona|insatisfeito)\b`,
		`\b(p[ée]ssimo|horr[íi]vel|absurdo|demora|atraso)\b`,
		`\b(complaint|broken|not\s+working|terrible)\b`,
	)},
	{models.IntentPraise, compileAll(
		`\b(obrigad[oa]|parab[ée]ns|excelente|maravilhos[oa]|adorei|amei)\b`,
		`\b(thank\s*you|thanks|great|awesome|perfect)\b`,
	)},
	{models.IntentPurchase, compileAll(
		`\b(comprar|compra|pre[çc]o|valor|or[çc]amento|pagamento|pagar|parcel)\w*`,
		`\b(buy|price|purchase|payment|order)\b`,
	)},
	{models.IntentSupport, compileAll(
		`\b(ajuda|suporte|socorro|instalar|instala[çc][ãa]o|configurar|erro)\b`,
		`\b(help|support|install|configure|error)\b`,
	)},
}

var positiveWords = []string{
	"obrigado", "obrigada", "ótimo", "otimo", "excelente", "bom", "boa",
	"adorei", "amei", "perfeito", "maravilhoso", "thanks", "great", "good",
}

var negativeWords = []string{
	"péssimo", "pessimo", "ruim", "horrível", "horrivel", "problema",
	"defeito", "absurdo", "insatisfeito", "bad", "terrible", "awful",
}

var stopWords = map[string]struct{}{
	"para": {}, "pela": {}, "pelo": {}, "essa": {}, "esse": {}, "esta": {},
	"este": {}, "isso": {}, "mais": {}, "menos": {}, "muito": {}, "como": {},
	"quando": {}, "onde": {}, "preciso": {}, "quero": {}, "gostaria": {},
	"poderia": {}, "pode": {}, "favor": {}, "that": {}, "this": {},
	"with": {}, "from": {}, "what": {}, "need": {}, "please": {},
}

var suggestedTypes = map[models.Intent][]string{
	models.IntentQuestion:  {"manual", "faq", "tutorial"},
	models.IntentSupport:   {"manual", "faq", "tutorial"},
	models.IntentPurchase:  {"catalog", "pricing", "products"},
	models.IntentComplaint: {"support", "contact", "warranty"},
}

var responseTemplates = map[models.Intent]string{
	models.IntentQuestion:  "Entendi sua dúvida%s. Vou verificar os materiais que podem ajudar.",
	models.IntentRequest:   "Certo%s! Deixa eu ver o que tenho disponível para te enviar.",
	models.IntentComplaint: "Sinto muito pelo ocorrido%s. Vou encaminhar os materiais de suporte.",
	models.IntentPraise:    "Que bom saber disso%s! Ficamos felizes em ajudar.",
	models.IntentPurchase:  "Ótimo%s! Vou separar o catálogo e as condições para você.",
	models.IntentSupport:   "Pode deixar%s, vou buscar o material de suporte adequado.",
	models.IntentOther:     "Recebi sua mensagem%s. Um momento enquanto verifico.",
}

func compileAll(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(exprs))
	for _, e := range exprs {
		out = append(out, regexp.MustCompile(e))
	}
	return out
}

// PatternClassifier is the deterministic fallback: fixed regex families for
// intent, word lists for sentiment, positional token extraction for entities.
type PatternClassifier struct{}

func NewPatternClassifier() *PatternClassifier {
	return &PatternClassifier{}
}

func (c *PatternClassifier) Classify(_ context.Context, query string) *models.Analysis {
	lowered := strings.ToLower(query)

	intent, confidence := matchIntent(lowered)
	entities := extractEntities(query)

	return &models.Analysis{
		Intent:             intent,
		Confidence:         confidence,
		Entities:           entities,
		Sentiment:          matchSentiment(lowered),
		SuggestedFileTypes: suggestedTypes[intent],
		ContextualResponse: buildResponse(intent, entities),
	}
}

func matchIntent(lowered string) (models.Intent, float64) {
	for _, family := range intentTable {
		matches := 0
		for _, re := range family.patterns {
			if re.MatchString(lowered) {
				matches++
			}
		}
		if matches > 0 {
			confidence := float64(matches) * 0.2
			if confidence > 0.7 {
				confidence = 0.7
			}
			return family.intent, confidence
		}
	}
	return models.IntentOther, 0.3
}

// Positive wins over negative when both lists hit; the order is fixed.
func matchSentiment(lowered string) models.Sentiment {
	for _, w := range positiveWords {
		if strings.Contains(lowered, w) {
			return models.SentimentPositive
		}
	}
	for _, w := range negativeWords {
		if strings.Contains(lowered, w) {
			return models.SentimentNegative
		}
	}
	return models.SentimentNeutral
}

func extractEntities(query string) []string {
	var entities []string
	for _, token := range strings.Fields(query) {
		if len(entities) == 3 {
			break
		}
		cleaned := strings.Trim(strings.ToLower(token), ".,!?;:\"'()")
		if len(cleaned) <= 3 {
			continue
		}
		if _, stop := stopWords[cleaned]; stop {
			continue
		}
		entities = append(entities, cleaned)
	}
	return entities
}

func buildResponse(intent models.Intent, entities []string) string {
	tmpl, ok := responseTemplates[intent]
	if !ok {
		tmpl = responseTemplates[models.IntentOther]
	}
	subject := ""
	if len(entities) > 0 {
		subject = " sobre " + strings.Join(entities, ", ")
	}
	return fmt.Sprintf(tmpl, subject)
}
