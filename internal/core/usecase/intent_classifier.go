package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/trananhduc/event-assistant/internal/core/domain"
	"github.com/trananhduc/event-assistant/internal/core/ports"
	"github.com/trananhduc/event-assistant/internal/observability/metrics"
)

const (
	intentThreshold     = 0.80
	ticketInfoThreshold = 0.75
	weatherThreshold    = 0.60
	toolThreshold       = 0.80
	confirmThreshold    = 0.75

	weatherRejectLabel = "<0.6"
	toolRejectLabel    = "<0.8"

	payloadKindField  = "kind"
	payloadTypeField  = "type"
	payloadLabelField = "label"

	// Payload kind values seeded into the shared collection.
	KindIntent  = "intent"
	KindWeather = "weather"
	KindTool    = "tool"
	KindConfirm = "confirm"
)

// ticketIntentPhrases is the curated vocabulary embedded once at startup
// for the in-process ticket-info similarity check.
var ticketIntentPhrases = []string{
	"giá vé sự kiện này bao nhiêu",
	"còn vé cho sự kiện không",
	"mua vé sự kiện ở đâu",
	"cho tôi xem các loại vé",
	"vé vip giá bao nhiêu tiền",
	"tôi muốn đặt vé tham dự",
	"thông tin vé của sự kiện",
}

// ticketKeywords is the last-resort substring fallback when embeddings are
// unavailable.
var ticketKeywords = []string{"vé", "giá vé", "mua vé", "loại vé", "ticket"}

var (
	strongConfirmTokens = []string{"đồng ý", "xác nhận", "chắc chắn", "có"}
	weakConfirmTokens   = []string{"ok", "oke", "ừ", "dạ", "vâng", "tiếp tục", "yes"}
	strongCancelTokens  = []string{"không", "hủy", "huỷ", "thôi"}
	weakCancelTokens    = []string{"dừng", "khỏi", "để sau", "no"}
)

// IntentClassifier resolves utterances to coarse labels via nearest
// neighbors in the vector index. Uncertainty is a normal outcome; every
// failure path degrades to UNKNOWN or a sentinel label.
type IntentClassifier struct {
	embedder ports.Embedder
	index    ports.VectorIndex
	examples []domain.IntentExample
	metrics  *metrics.AgentMetrics
	service  string
}

func NewIntentClassifier(
	embedder ports.Embedder,
	index ports.VectorIndex,
	examples []domain.IntentExample,
	agentMetrics *metrics.AgentMetrics,
	service string,
) *IntentClassifier {
	return &IntentClassifier{
		embedder: embedder,
		index:    index,
		examples: examples,
		metrics:  agentMetrics,
		service:  service,
	}
}

// BuildTicketIntentExamples embeds the curated ticket-info phrases. Called
// once at bootstrap; the returned slice is read-only afterwards.
func BuildTicketIntentExamples(ctx context.Context, embedder ports.Embedder) ([]domain.IntentExample, error) {
	vectors, err := embedder.Embed(ctx, ticketIntentPhrases)
	if err != nil {
		return nil, fmt.Errorf("embed ticket intent examples: %w", err)
	}
	if len(vectors) != len(ticketIntentPhrases) {
		return nil, fmt.Errorf("embed ticket intent examples: got %d vectors for %d phrases", len(vectors), len(ticketIntentPhrases))
	}
	examples := make([]domain.IntentExample, 0, len(ticketIntentPhrases))
	for i, phrase := range ticketIntentPhrases {
		examples = append(examples, domain.IntentExample{Text: phrase, Vector: vectors[i]})
	}
	return examples, nil
}

func (c *IntentClassifier) ClassifyIntent(ctx context.Context, text string) domain.Intent {
	vector, err := c.embedder.EmbedQuery(ctx, text)
	if err != nil || len(vector) == 0 {
		slog.Warn("intent_embed_failed", "error", err)
		if matchesTicketKeywords(text) {
			c.metrics.RecordClassifierDecision(c.service, KindIntent, string(domain.IntentTicketInfo))
			return domain.IntentTicketInfo
		}
		c.metrics.RecordClassifierDecision(c.service, KindIntent, string(domain.IntentUnknown))
		return domain.IntentUnknown
	}

	if c.isTicketInfoQuery(text, vector) {
		c.metrics.RecordClassifierDecision(c.service, KindIntent, string(domain.IntentTicketInfo))
		return domain.IntentTicketInfo
	}

	hits, err := c.search(ctx, vector, 3, KindIntent)
	if err != nil || len(hits) == 0 {
		c.metrics.RecordClassifierDecision(c.service, KindIntent, string(domain.IntentUnknown))
		return domain.IntentUnknown
	}

	top := hits[0]
	if top.Score <= intentThreshold {
		c.metrics.RecordClassifierDecision(c.service, KindIntent, string(domain.IntentUnknown))
		return domain.IntentUnknown
	}

	intent := mapIntentLabel(payloadString(top.Payload, payloadTypeField))
	c.metrics.RecordClassifierDecision(c.service, KindIntent, string(intent))
	return intent
}

// isTicketInfoQuery runs ahead of the general search: the example set is
// curated and high precision. It never fails; an empty example set falls
// back to keyword matching.
func (c *IntentClassifier) isTicketInfoQuery(text string, vector []float32) bool {
	if len(c.examples) == 0 {
		return matchesTicketKeywords(text)
	}
	best := 0.0
	for _, example := range c.examples {
		if sim := cosineSimilarity(vector, example.Vector); sim > best {
			best = sim
		}
	}
	return best > ticketInfoThreshold
}

func (c *IntentClassifier) ClassifyWeather(ctx context.Context, text string) string {
	label := c.classifyByLabel(ctx, text, KindWeather, weatherThreshold, weatherRejectLabel)
	c.metrics.RecordClassifierDecision(c.service, KindWeather, label)
	return label
}

func (c *IntentClassifier) ClassifyToolEvent(ctx context.Context, text string) string {
	label := c.classifyByLabel(ctx, text, KindTool, toolThreshold, toolRejectLabel)
	c.metrics.RecordClassifierDecision(c.service, KindTool, label)
	return label
}

func (c *IntentClassifier) classifyByLabel(ctx context.Context, text, kind string, threshold float64, rejectLabel string) string {
	vector, err := c.embedder.EmbedQuery(ctx, text)
	if err != nil || len(vector) == 0 {
		return rejectLabel
	}
	hits, err := c.search(ctx, vector, 1, kind)
	if err != nil || len(hits) == 0 {
		return rejectLabel
	}
	if hits[0].Score <= threshold {
		return rejectLabel
	}
	label := payloadString(hits[0].Payload, payloadLabelField)
	if label == "" {
		return rejectLabel
	}
	return label
}

func (c *IntentClassifier) ClassifyConfirmIntent(ctx context.Context, text string) domain.ConfirmIntent {
	vector, err := c.embedder.EmbedQuery(ctx, text)
	if err == nil && len(vector) > 0 {
		hits, searchErr := c.search(ctx, vector, 1, KindConfirm)
		if searchErr == nil && len(hits) > 0 && hits[0].Score > confirmThreshold {
			switch domain.ConfirmIntent(payloadString(hits[0].Payload, payloadLabelField)) {
			case domain.ConfirmIntentConfirm:
				c.metrics.RecordClassifierDecision(c.service, KindConfirm, string(domain.ConfirmIntentConfirm))
				return domain.ConfirmIntentConfirm
			case domain.ConfirmIntentCancel:
				c.metrics.RecordClassifierDecision(c.service, KindConfirm, string(domain.ConfirmIntentCancel))
				return domain.ConfirmIntentCancel
			}
		}
	}

	result := matchConfirmTokens(text)
	c.metrics.RecordClassifierDecision(c.service, KindConfirm, string(result))
	return result
}

// matchConfirmTokens is the two-tier fallback: strong tokens for both
// directions are checked before weak, context-dependent ones.
func matchConfirmTokens(text string) domain.ConfirmIntent {
	lowered := strings.ToLower(text)
	for _, token := range strongCancelTokens {
		if strings.Contains(lowered, token) {
			return domain.ConfirmIntentCancel
		}
	}
	for _, token := range strongConfirmTokens {
		if strings.Contains(lowered, token) {
			return domain.ConfirmIntentConfirm
		}
	}
	for _, token := range weakCancelTokens {
		if strings.Contains(lowered, token) {
			return domain.ConfirmIntentCancel
		}
	}
	for _, token := range weakConfirmTokens {
		if strings.Contains(lowered, token) {
			return domain.ConfirmIntentConfirm
		}
	}
	return domain.ConfirmIntentUnknown
}

func (c *IntentClassifier) search(ctx context.Context, vector []float32, limit int, kind string) ([]domain.VectorHit, error) {
	filter := &domain.VectorFilter{
		Match: []domain.FieldMatch{{Key: payloadKindField, Value: kind}},
	}
	return c.index.Search(ctx, vector, limit, filter)
}

func mapIntentLabel(label string) domain.Intent {
	switch domain.Intent(label) {
	case domain.IntentFreeTime, domain.IntentScheduleSummary, domain.IntentTicketInfo:
		return domain.Intent(label)
	default:
		return domain.IntentUnknown
	}
}

func matchesTicketKeywords(text string) bool {
	lowered := strings.ToLower(text)
	for _, keyword := range ticketKeywords {
		if strings.Contains(lowered, keyword) {
			return true
		}
	}
	return false
}

func payloadString(payload map[string]any, key string) string {
	if payload == nil {
		return ""
	}
	value, ok := payload[key]
	if !ok || value == nil {
		return ""
	}
	str, ok := value.(string)
	if !ok {
		return fmt.Sprint(value)
	}
	return str
}

// cosineSimilarity returns dot(a,b)/(|a||b|). A length mismatch or zero
// norm means "no similarity", not an error.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
