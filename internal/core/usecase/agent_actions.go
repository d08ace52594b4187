package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/trananhduc/event-assistant/internal/core/domain"
)

const outdoorLabel = "outdoor"

// eventTimeLayouts is the ordered list of accepted datetime formats; the
// first one that parses wins.
var eventTimeLayouts = []string{
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"02/01/2006 15:04",
	"02-01-2006 15:04",
}

func parseEventTime(raw string) (time.Time, error) {
	trimmed := strings.TrimSpace(raw)
	for _, layout := range eventTimeLayouts {
		if parsed, err := time.Parse(layout, trimmed); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized datetime %q", raw)
}

// executeActions runs extracted actions strictly in array order. A failing
// collaborator aborts only its own action; a newly created pending weather
// confirmation halts the rest of the batch (one confirmation at a time).
func (uc *ChatAgentUseCase) executeActions(ctx context.Context, sessionKey string, actions []domain.Action) ([]string, bool) {
	lines := make([]string, 0, len(actions))
	refresh := false

	for _, action := range actions {
		line, changed, halt, err := uc.executeAction(ctx, sessionKey, action)
		if err != nil {
			slog.Warn("action_failed", "tool", action.ToolName, "error", err)
			uc.metrics.RecordAction(uc.service, action.ToolName, "error")
			lines = append(lines, fmt.Sprintf("Đã xảy ra lỗi khi thực hiện %s, vui lòng thử lại.", action.ToolName))
			continue
		}
		if changed {
			uc.metrics.RecordAction(uc.service, action.ToolName, "ok")
		} else {
			uc.metrics.RecordAction(uc.service, action.ToolName, "rejected")
		}
		if line != "" {
			lines = append(lines, line)
		}
		refresh = refresh || changed
		if halt {
			break
		}
	}
	return lines, refresh
}

func (uc *ChatAgentUseCase) executeAction(ctx context.Context, sessionKey string, action domain.Action) (line string, changed, halt bool, err error) {
	switch action.ToolName {
	case domain.ToolAddEvent:
		return uc.executeAddEvent(ctx, sessionKey, action.Args)
	case domain.ToolUpdateEvent:
		line, changed, err = uc.executeUpdateEvent(ctx, action.Args)
		return line, changed, false, err
	case domain.ToolDeleteEvent:
		line, changed, err = uc.executeDeleteEvent(ctx, action.Args)
		return line, changed, false, err
	default:
		return fmt.Sprintf("Tôi không hỗ trợ hành động %s.", action.ToolName), false, false, nil
	}
}

func (uc *ChatAgentUseCase) executeAddEvent(ctx context.Context, sessionKey string, args map[string]any) (string, bool, bool, error) {
	title := stringArg(args, "title")
	startRaw := stringArg(args, "start_time")
	endRaw := stringArg(args, "end_time")
	if title == "" || startRaw == "" || endRaw == "" {
		return "Thiếu thông tin bắt buộc (tên, thời gian bắt đầu và kết thúc) nên tôi chưa tạo được sự kiện.", false, false, nil
	}

	start, err := parseEventTime(startRaw)
	if err != nil {
		return "", false, false, fmt.Errorf("parse start_time: %w", err)
	}
	end, err := parseEventTime(endRaw)
	if err != nil {
		return "", false, false, fmt.Errorf("parse end_time: %w", err)
	}

	event := &domain.Event{
		Title:       title,
		Description: stringArg(args, "description"),
		StartTime:   start,
		EndTime:     end,
		Type:        domain.EventTypeOthers,
		Status:      domain.EventStatusDraft,
		ImageURL:    stringArg(args, "image_url"),
		Benefits:    stringArg(args, "benefits"),
	}
	if parentID, ok := int64Arg(args, "parent_event_id"); ok && parentID > 0 {
		event.ParentEventID = &parentID
	}

	if placeName := stringArg(args, "place"); placeName != "" {
		place, err := uc.places.FindByName(ctx, placeName)
		if err != nil {
			if errors.Is(err, domain.ErrPlaceNotFound) {
				return fmt.Sprintf("Không tìm thấy địa điểm \"%s\" nên tôi chưa tạo sự kiện.", placeName), false, false, nil
			}
			return "", false, false, err
		}

		conflicts, err := uc.events.ListConflicting(ctx, place.ID, start, end)
		if err != nil {
			return "", false, false, err
		}
		if len(conflicts) > 0 {
			return fmt.Sprintf("Khung giờ này trùng với sự kiện \"%s\" tại %s, vui lòng chọn thời gian khác.", conflicts[0].Title, place.Name), false, false, nil
		}
		event.Places = []domain.Place{*place}
	}

	if uc.intents.ClassifyWeather(ctx, title) == outdoorLabel {
		note, err := uc.weather.AdverseNote(ctx, start)
		if err != nil {
			slog.Warn("weather_lookup_failed", "error", err)
			uc.metrics.RecordWeatherCheck(uc.service, "error")
			note = ""
		} else if note != "" {
			uc.metrics.RecordWeatherCheck(uc.service, "adverse")
		} else {
			uc.metrics.RecordWeatherCheck(uc.service, "clear")
		}
		if note != "" {
			uc.sessions.SetPendingEvent(sessionKey, &domain.PendingEvent{
				Event:       event,
				WeatherNote: note,
				CreatedAt:   uc.now(),
			})
			uc.metrics.PendingEventStored(1)
			return fmt.Sprintf("Dự báo thời tiết lúc %s: %s. Bạn vẫn muốn tạo sự kiện \"%s\" chứ? (có/không)",
				start.Format("15:04 02/01/2006"), note, title), false, true, nil
		}
	}

	if err := uc.events.Create(ctx, event); err != nil {
		return "", false, false, err
	}
	uc.publishEventChange(ctx, domain.EventChangeCreated, event)
	return fmt.Sprintf("Đã tạo sự kiện \"%s\".", title), true, false, nil
}

func (uc *ChatAgentUseCase) executeUpdateEvent(ctx context.Context, args map[string]any) (string, bool, error) {
	event, err := uc.resolveEvent(ctx, args, "original_title")
	if err != nil {
		if errors.Is(err, domain.ErrEventNotFound) {
			return "Không tìm thấy sự kiện cần cập nhật.", false, nil
		}
		return "", false, err
	}

	notes := make([]string, 0, 2)

	if title, ok := stringArgOK(args, "title"); ok && strings.TrimSpace(title) != "" {
		event.Title = strings.TrimSpace(title)
	}
	if description, ok := stringArgOK(args, "description"); ok {
		event.Description = description
	}
	if startRaw, ok := stringArgOK(args, "start_time"); ok {
		start, err := parseEventTime(startRaw)
		if err != nil {
			return "", false, fmt.Errorf("parse start_time: %w", err)
		}
		event.StartTime = start
	}
	if endRaw, ok := stringArgOK(args, "end_time"); ok {
		end, err := parseEventTime(endRaw)
		if err != nil {
			return "", false, fmt.Errorf("parse end_time: %w", err)
		}
		event.EndTime = end
	}
	if imageURL, ok := stringArgOK(args, "image_url"); ok {
		event.ImageURL = imageURL
	}
	if benefits, ok := stringArgOK(args, "benefits"); ok {
		event.Benefits = benefits
	}
	if statusRaw, ok := stringArgOK(args, "status"); ok {
		if status, valid := domain.ParseEventStatus(statusRaw); valid {
			event.Status = status
		} else {
			notes = append(notes, fmt.Sprintf("Trạng thái \"%s\" không hợp lệ nên tôi giữ nguyên trạng thái cũ.", statusRaw))
		}
	}
	if parentID, ok := int64Arg(args, "parent_event_id"); ok && parentID > 0 {
		event.ParentEventID = &parentID
	}
	if placeName, ok := stringArgOK(args, "place"); ok && strings.TrimSpace(placeName) != "" {
		place, err := uc.places.FindByName(ctx, placeName)
		if err != nil {
			if !errors.Is(err, domain.ErrPlaceNotFound) {
				return "", false, err
			}
			notes = append(notes, fmt.Sprintf("Không tìm thấy địa điểm \"%s\" nên tôi giữ nguyên địa điểm cũ.", placeName))
		} else {
			event.Places = []domain.Place{*place}
		}
	}

	if err := uc.events.Update(ctx, event); err != nil {
		if errors.Is(err, domain.ErrEventNotFound) {
			return "Không tìm thấy sự kiện cần cập nhật.", false, nil
		}
		return "", false, err
	}
	uc.publishEventChange(ctx, domain.EventChangeUpdated, event)

	line := fmt.Sprintf("Đã cập nhật sự kiện \"%s\".", event.Title)
	if len(notes) > 0 {
		line = line + " " + strings.Join(notes, " ")
	}
	return line, true, nil
}

func (uc *ChatAgentUseCase) executeDeleteEvent(ctx context.Context, args map[string]any) (string, bool, error) {
	event, err := uc.resolveEvent(ctx, args, "title")
	if err != nil {
		if errors.Is(err, domain.ErrEventNotFound) {
			return "Xin lỗi, không tìm thấy sự kiện để xoá.", false, nil
		}
		return "", false, err
	}

	if err := uc.events.Delete(ctx, event.ID); err != nil {
		if errors.Is(err, domain.ErrEventNotFound) {
			return "Xin lỗi, không tìm thấy sự kiện để xoá.", false, nil
		}
		return "", false, err
	}
	uc.publishEventChange(ctx, domain.EventChangeDeleted, event)
	return fmt.Sprintf("Đã xoá sự kiện \"%s\".", event.Title), true, nil
}

// resolveEvent looks the target up by event_id first, then by the given
// title key. Title ties resolve to the lowest id (store contract).
func (uc *ChatAgentUseCase) resolveEvent(ctx context.Context, args map[string]any, titleKey string) (*domain.Event, error) {
	if id, ok := int64Arg(args, "event_id"); ok && id > 0 {
		return uc.events.GetByID(ctx, id)
	}
	if title := stringArg(args, titleKey); title != "" {
		return uc.events.FindByTitle(ctx, title)
	}
	return nil, domain.ErrEventNotFound
}

func stringArg(args map[string]any, key string) string {
	value, _ := stringArgOK(args, key)
	return value
}

func stringArgOK(args map[string]any, key string) (string, bool) {
	if args == nil {
		return "", false
	}
	value, ok := args[key]
	if !ok || value == nil {
		return "", false
	}
	switch typed := value.(type) {
	case string:
		return strings.TrimSpace(typed), true
	default:
		return strings.TrimSpace(fmt.Sprint(typed)), true
	}
}

func int64Arg(args map[string]any, key string) (int64, bool) {
	if args == nil {
		return 0, false
	}
	value, ok := args[key]
	if !ok || value == nil {
		return 0, false
	}
	switch typed := value.(type) {
	case float64:
		return int64(typed), true
	case int:
		return int64(typed), true
	case int64:
		return typed, true
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(typed), 10, 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}
