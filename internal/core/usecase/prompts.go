package usecase

import (
	"fmt"
	"strings"
	"time"

	"github.com/trananhduc/event-assistant/internal/core/domain"
)

// BuildSystemPrompt synthesizes the session's system message from the
// current date and the event-type vocabulary. Built once per session.
func BuildSystemPrompt(now time.Time) string {
	types := make([]string, 0, len(domain.EventTypes))
	for _, t := range domain.EventTypes {
		types = append(types, string(t))
	}

	return fmt.Sprintf(`Bạn là trợ lý quản lý sự kiện. Hôm nay là %s.

Khi người dùng yêu cầu tạo, cập nhật hoặc xoá sự kiện, hãy trả lời bằng một
mảng JSON các hành động theo đúng định dạng sau, kèm một câu xác nhận ngắn:
[{"toolName": "ADD_EVENT", "args": {"title": "...", "start_time": "yyyy-MM-ddTHH:mm", "end_time": "yyyy-MM-ddTHH:mm", "description": "...", "place": "...", "image_url": "...", "benefits": "...", "parent_event_id": 0}}]
Các toolName hợp lệ: ADD_EVENT, UPDATE_EVENT, DELETE_EVENT.
Với UPDATE_EVENT dùng "event_id" hoặc "original_title" để chỉ sự kiện cần sửa và chỉ kèm các trường thay đổi.
Với DELETE_EVENT dùng "event_id" hoặc "title".
Loại sự kiện hợp lệ: %s.

Nếu người dùng chỉ trò chuyện hoặc hỏi thông tin, trả lời tự nhiên bằng tiếng Việt, không kèm JSON.`,
		now.Format("02/01/2006"), strings.Join(types, ", "))
}

const (
	replyGenerateFailed  = "Xin lỗi, hiện tại tôi chưa thể xử lý yêu cầu của bạn. Bạn thử lại sau nhé."
	replyNotUnderstood   = "Xin lỗi, tôi chưa hiểu yêu cầu của bạn. Bạn có thể nói rõ hơn không?"
	replyTicketInfoHint  = "Bạn muốn hỏi về vé sự kiện? Hãy cho tôi biết tên sự kiện, tôi sẽ giúp bạn xem các loại vé và đặt mua."
	replyPendingReprompt = "Bạn có muốn tiếp tục tạo sự kiện này không? Trả lời \"có\" để tạo hoặc \"không\" để huỷ."
)
