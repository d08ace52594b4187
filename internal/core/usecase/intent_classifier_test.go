package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/trananhduc/event-assistant/internal/core/domain"
)

func newClassifier(embedder *fakeEmbedder, index *fakeVectorIndex, examples []domain.IntentExample) *IntentClassifier {
	return NewIntentClassifier(embedder, index, examples, nil, "test")
}

func TestClassifyIntentThresholdBoundary(t *testing.T) {
	embedder := &fakeEmbedder{queryVec: []float32{1, 0}}
	index := &fakeVectorIndex{hits: []domain.VectorHit{
		{ID: "1", Score: 0.80, Payload: map[string]any{"type": "FREE_TIME"}},
	}}
	classifier := newClassifier(embedder, index, nil)

	if got := classifier.ClassifyIntent(context.Background(), "mai tôi rảnh lúc nào"); got != domain.IntentUnknown {
		t.Fatalf("score 0.80 => %s, want UNKNOWN", got)
	}

	index.hits[0].Score = 0.801
	if got := classifier.ClassifyIntent(context.Background(), "mai tôi rảnh lúc nào"); got != domain.IntentFreeTime {
		t.Fatalf("score 0.801 => %s, want FREE_TIME", got)
	}
}

func TestClassifyIntentFiltersByKind(t *testing.T) {
	embedder := &fakeEmbedder{queryVec: []float32{1, 0}}
	index := &fakeVectorIndex{}
	classifier := newClassifier(embedder, index, nil)

	classifier.ClassifyIntent(context.Background(), "lịch tuần này")

	if index.lastFilter == nil || len(index.lastFilter.Match) != 1 {
		t.Fatalf("filter = %+v", index.lastFilter)
	}
	match := index.lastFilter.Match[0]
	if match.Key != "kind" || match.Value != KindIntent {
		t.Fatalf("match = %+v", match)
	}
}

func TestClassifyIntentUnknownLabelRejected(t *testing.T) {
	embedder := &fakeEmbedder{queryVec: []float32{1, 0}}
	index := &fakeVectorIndex{hits: []domain.VectorHit{
		{ID: "1", Score: 0.95, Payload: map[string]any{"type": "SOMETHING_ELSE"}},
	}}
	classifier := newClassifier(embedder, index, nil)

	if got := classifier.ClassifyIntent(context.Background(), "xyz"); got != domain.IntentUnknown {
		t.Fatalf("unknown label => %s, want UNKNOWN", got)
	}
}

func TestTicketInfoCheckRunsBeforeSearch(t *testing.T) {
	embedder := &fakeEmbedder{queryVec: []float32{1, 0}}
	index := &fakeVectorIndex{}
	examples := []domain.IntentExample{{Text: "giá vé bao nhiêu", Vector: []float32{1, 0}}}
	classifier := newClassifier(embedder, index, examples)

	if got := classifier.ClassifyIntent(context.Background(), "giá vé sự kiện này"); got != domain.IntentTicketInfo {
		t.Fatalf("got %s, want TICKET_INFO", got)
	}
	if index.searchCalls != 0 {
		t.Fatalf("vector search ran despite ticket-info short circuit")
	}
}

func TestTicketInfoBelowThresholdFallsThrough(t *testing.T) {
	embedder := &fakeEmbedder{queryVec: []float32{1, 0}}
	index := &fakeVectorIndex{}
	// Orthogonal example: similarity 0.
	examples := []domain.IntentExample{{Text: "giá vé bao nhiêu", Vector: []float32{0, 1}}}
	classifier := newClassifier(embedder, index, examples)

	if got := classifier.ClassifyIntent(context.Background(), "hôm nay trời đẹp"); got != domain.IntentUnknown {
		t.Fatalf("got %s, want UNKNOWN", got)
	}
	if index.searchCalls != 1 {
		t.Fatalf("vector search did not run")
	}
}

func TestEmbedFailureFallsBackToKeywords(t *testing.T) {
	embedder := &fakeEmbedder{err: errors.New("embedding service down")}
	classifier := newClassifier(embedder, &fakeVectorIndex{}, nil)

	if got := classifier.ClassifyIntent(context.Background(), "giá vé bao nhiêu tiền"); got != domain.IntentTicketInfo {
		t.Fatalf("got %s, want TICKET_INFO via keyword fallback", got)
	}
	if got := classifier.ClassifyIntent(context.Background(), "thời tiết mai thế nào"); got != domain.IntentUnknown {
		t.Fatalf("got %s, want UNKNOWN", got)
	}
}

func TestClassifyWeatherSentinel(t *testing.T) {
	embedder := &fakeEmbedder{queryVec: []float32{1, 0}}
	index := &fakeVectorIndex{hits: []domain.VectorHit{
		{ID: "1", Score: 0.60, Payload: map[string]any{"label": "outdoor"}},
	}}
	classifier := newClassifier(embedder, index, nil)

	if got := classifier.ClassifyWeather(context.Background(), "giải chạy"); got != "<0.6" {
		t.Fatalf("score 0.60 => %q, want sentinel", got)
	}

	index.hits[0].Score = 0.61
	if got := classifier.ClassifyWeather(context.Background(), "giải chạy"); got != "outdoor" {
		t.Fatalf("score 0.61 => %q, want outdoor", got)
	}
}

func TestClassifyToolEventSentinel(t *testing.T) {
	embedder := &fakeEmbedder{queryVec: []float32{1, 0}}
	index := &fakeVectorIndex{hits: []domain.VectorHit{
		{ID: "1", Score: 0.80, Payload: map[string]any{"label": "ADD_EVENT"}},
	}}
	classifier := newClassifier(embedder, index, nil)

	if got := classifier.ClassifyToolEvent(context.Background(), "tạo sự kiện"); got != "<0.8" {
		t.Fatalf("score 0.80 => %q, want sentinel", got)
	}

	index.hits[0].Score = 0.81
	if got := classifier.ClassifyToolEvent(context.Background(), "tạo sự kiện"); got != "ADD_EVENT" {
		t.Fatalf("score 0.81 => %q, want ADD_EVENT", got)
	}
}

func TestClassifyConfirmIntentVectorFirst(t *testing.T) {
	embedder := &fakeEmbedder{queryVec: []float32{1, 0}}
	index := &fakeVectorIndex{hits: []domain.VectorHit{
		{ID: "1", Score: 0.9, Payload: map[string]any{"label": "CONFIRM"}},
	}}
	classifier := newClassifier(embedder, index, nil)

	if got := classifier.ClassifyConfirmIntent(context.Background(), "chốt luôn nhé"); got != domain.ConfirmIntentConfirm {
		t.Fatalf("got %s, want CONFIRM", got)
	}
}

func TestClassifyConfirmIntentTokenFallback(t *testing.T) {
	embedder := &fakeEmbedder{err: errors.New("down")}
	classifier := newClassifier(embedder, &fakeVectorIndex{}, nil)

	cases := []struct {
		text string
		want domain.ConfirmIntent
	}{
		{"chắc chắn rồi", domain.ConfirmIntentConfirm},
		{"không nhé", domain.ConfirmIntentCancel},
		{"để sau đi", domain.ConfirmIntentCancel},
		{"ok bạn", domain.ConfirmIntentConfirm},
		{"hmm", domain.ConfirmIntentUnknown},
	}
	for _, tc := range cases {
		if got := classifier.ClassifyConfirmIntent(context.Background(), tc.text); got != tc.want {
			t.Fatalf("ClassifyConfirmIntent(%q) = %s, want %s", tc.text, got, tc.want)
		}
	}
}

func TestCosineSimilarityEdgeCases(t *testing.T) {
	if got := cosineSimilarity([]float32{1, 2}, []float32{1, 2, 3}); got != 0 {
		t.Fatalf("length mismatch => %f, want 0", got)
	}
	if got := cosineSimilarity([]float32{0, 0}, []float32{1, 2}); got != 0 {
		t.Fatalf("zero norm => %f, want 0", got)
	}
	if got := cosineSimilarity([]float32{1, 0}, []float32{1, 0}); got < 0.999 {
		t.Fatalf("identical vectors => %f, want ~1", got)
	}
}

func TestBuildTicketIntentExamples(t *testing.T) {
	embedder := &fakeEmbedder{queryVec: []float32{0.5, 0.5}}
	examples, err := BuildTicketIntentExamples(context.Background(), embedder)
	if err != nil {
		t.Fatalf("BuildTicketIntentExamples() error = %v", err)
	}
	if len(examples) != len(ticketIntentPhrases) {
		t.Fatalf("examples = %d, want %d", len(examples), len(ticketIntentPhrases))
	}
	for _, example := range examples {
		if example.Text == "" || len(example.Vector) == 0 {
			t.Fatalf("incomplete example: %+v", example)
		}
	}
}
