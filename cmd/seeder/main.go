package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/trananhduc/event-assistant/internal/config"
	"github.com/trananhduc/event-assistant/internal/core/domain"
	"github.com/trananhduc/event-assistant/internal/core/usecase"
	"github.com/trananhduc/event-assistant/internal/infrastructure/llm/gemini"
	"github.com/trananhduc/event-assistant/internal/infrastructure/resilience"
	"github.com/trananhduc/event-assistant/internal/infrastructure/vector/qdrant"
	"github.com/trananhduc/event-assistant/internal/observability/logging"
)

type seedGroup struct {
	kind       string
	labelField string
	label      string
	phrases    []string
}

// Curated Vietnamese utterances per classifier decision. The label field
// is "type" for intents and "label" for the weather, tool and confirm
// kinds, matching what the classifier reads back at search time.
var seedGroups = []seedGroup{
	{usecase.KindIntent, "type", string(domain.IntentFreeTime), []string{
		"hôm nay tôi có rảnh không",
		"tôi còn trống lịch lúc nào",
		"chiều nay tôi có bận gì không",
		"khi nào tôi rảnh",
	}},
	{usecase.KindIntent, "type", string(domain.IntentScheduleSummary), []string{
		"tuần này tôi có những sự kiện nào",
		"tóm tắt lịch của tôi",
		"liệt kê các sự kiện sắp tới",
		"lịch trình tuần sau của tôi ra sao",
	}},
	{usecase.KindIntent, "type", string(domain.IntentTicketInfo), []string{
		"giá vé sự kiện này bao nhiêu",
		"còn loại vé nào không",
		"tôi muốn mua vé",
		"vé VIP còn không",
	}},
	{usecase.KindWeather, "label", "outdoor", []string{
		"chạy bộ ngoài trời",
		"dã ngoại công viên",
		"lễ hội âm nhạc ngoài trời",
		"cắm trại cuối tuần",
		"đá bóng sân cỏ",
	}},
	{usecase.KindWeather, "label", "indoor", []string{
		"họp nhóm trong văn phòng",
		"hội thảo tại khách sạn",
		"xem phim ở rạp",
		"workshop trong hội trường",
	}},
	{usecase.KindTool, "label", "ADD_EVENT", []string{
		"tạo sự kiện mới giúp tôi",
		"thêm lịch họp vào ngày mai",
		"đặt lịch sự kiện âm nhạc",
	}},
	{usecase.KindTool, "label", "UPDATE_EVENT", []string{
		"đổi giờ sự kiện sang ba giờ chiều",
		"cập nhật mô tả sự kiện",
		"dời sự kiện sang tuần sau",
	}},
	{usecase.KindTool, "label", "DELETE_EVENT", []string{
		"xoá sự kiện họp nhóm",
		"huỷ sự kiện ngày mai",
		"bỏ lịch hẹn này đi",
	}},
	{usecase.KindConfirm, "label", string(domain.ConfirmIntentConfirm), []string{
		"đồng ý, tạo đi",
		"xác nhận giúp tôi",
		"ừ cứ tiếp tục",
		"chắc chắn rồi",
	}},
	{usecase.KindConfirm, "label", string(domain.ConfirmIntentCancel), []string{
		"thôi không cần nữa",
		"huỷ đi",
		"để sau hẵng tính",
		"không, dừng lại",
	}},
}

func main() {
	cfg := config.Load()
	slog.SetDefault(logging.NewJSONLogger("seeder", cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	executor := resilience.NewExecutor(resilience.Config{
		RetryMaxAttempts:    cfg.RetryMaxAttempts,
		RetryInitialBackoff: cfg.RetryInitialBackoff,
		RetryMaxBackoff:     cfg.RetryMaxBackoff,
		RetryLinear:         cfg.RetryLinear,

		BreakerEnabled:      cfg.BreakerEnabled,
		BreakerMinRequests:  uint32(cfg.BreakerMinRequests),
		BreakerFailureRatio: cfg.BreakerFailureRatio,
		BreakerOpenTimeout:  cfg.BreakerOpenTimeout,
	})

	geminiClient := gemini.New(cfg.GeminiBaseURL, cfg.GeminiAPIKey, cfg.GeminiGenModel, cfg.GeminiEmbedModel, executor)
	embedder := gemini.NewEmbedder(geminiClient)
	vectorDB := qdrant.New(cfg.QdrantURL, cfg.QdrantAPIKey, cfg.QdrantCollection, cfg.QdrantVectorSize)

	if err := vectorDB.EnsureCollection(ctx); err != nil {
		log.Fatalf("ensure collection: %v", err)
	}
	if err := vectorDB.EnsurePayloadIndex(ctx, "kind"); err != nil {
		log.Fatalf("ensure payload index: %v", err)
	}

	total := 0
	for _, group := range seedGroups {
		vectors, err := embedder.Embed(ctx, group.phrases)
		if err != nil {
			log.Fatalf("embed %s/%s examples: %v", group.kind, group.label, err)
		}
		if len(vectors) != len(group.phrases) {
			log.Fatalf("embed %s/%s examples: got %d vectors for %d phrases", group.kind, group.label, len(vectors), len(group.phrases))
		}

		points := make([]domain.VectorPoint, 0, len(group.phrases))
		for i, phrase := range group.phrases {
			points = append(points, domain.VectorPoint{
				ID:     uuid.NewString(),
				Vector: vectors[i],
				Payload: map[string]any{
					"kind":           group.kind,
					group.labelField: group.label,
					"text":           phrase,
				},
			})
		}
		if err := vectorDB.UpsertBatch(ctx, points); err != nil {
			log.Fatalf("upsert %s/%s examples: %v", group.kind, group.label, err)
		}
		total += len(points)
		slog.Info("seeded_examples", "kind", group.kind, "label", group.label, "count", len(points))
	}

	log.Printf("seeded %d example points into %s", total, cfg.QdrantCollection)
}
