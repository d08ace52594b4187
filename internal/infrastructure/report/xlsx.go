package report

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/trananhduc/event-assistant/internal/core/domain"
)

const ordersSheet = "Orders"

// OrdersWorkbook renders an event's orders as a spreadsheet for the
// organizer. Caller owns closing the returned file.
func OrdersWorkbook(event *domain.Event, orders []domain.Order) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", ordersSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	headers := []string{"Mã đơn", "Người đặt", "Email", "Điện thoại", "Đơn vị", "Ghi chú", "Tổng tiền", "Trạng thái", "Thời gian đặt"}
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, fmt.Errorf("header cell: %w", err)
		}
		if err := f.SetCellValue(ordersSheet, cell, h); err != nil {
			return nil, fmt.Errorf("write header: %w", err)
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	if err == nil {
		_ = f.SetCellStyle(ordersSheet, "A1", "I1", headerStyle)
	}

	for i, order := range orders {
		row := i + 2
		values := []any{
			order.ID,
			order.Participant.Name,
			order.Participant.Email,
			order.Participant.Phone,
			order.Participant.Organization,
			order.Participant.Notes,
			order.TotalPrice,
			string(order.Status),
			order.CreatedAt.Format(time.RFC3339),
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return nil, fmt.Errorf("order cell: %w", err)
			}
			if err := f.SetCellValue(ordersSheet, cell, v); err != nil {
				return nil, fmt.Errorf("write order row: %w", err)
			}
		}
	}

	if event != nil {
		title := fmt.Sprintf("Đơn hàng - %s", event.Title)
		if err := f.SetDocProps(&excelize.DocProperties{Title: title}); err != nil {
			return nil, fmt.Errorf("set doc props: %w", err)
		}
	}
	return f, nil
}
