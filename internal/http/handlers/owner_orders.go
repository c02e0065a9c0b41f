package handlers

import (
	"net/http"
	"time"

	"tableside-order-service/internal/order"
	"tableside-order-service/pkg/response"

	"go.uber.org/zap"
)

type tempReceiptGroup struct {
	TempReceiptID   int64       `json:"temp_receipt_id"`
	TempReceiptCode string      `json:"temp_receipt_code"`
	TableNumber     string      `json:"table_number"`
	TempReceiptTime time.Time   `json:"temp_receipt_time"`
	TotalPrice      float64     `json:"total_price"`
	Orders          []orderView `json:"orders"`
}

// OwnerTempReceipts is the owner's live board: today's table sessions with
// their orders and items grouped under each temp receipt.
func (h *Handler) OwnerTempReceipts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	dayStart := h.todayStart()

	rows, err := h.DB.Query(ctx, `
		select temp_receipt_id, temp_receipt_code, table_number, temp_receipt_time
		from temp_receipts
		where temp_receipt_time >= $1
		order by temp_receipt_time desc
	`, dayStart)
	if err != nil {
		h.Logger.Error("failed to list temp receipts", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to retrieve receipts")
		return
	}
	defer rows.Close()

	groups := make([]tempReceiptGroup, 0)
	index := make(map[string]int)
	for rows.Next() {
		var g tempReceiptGroup
		if err := rows.Scan(&g.TempReceiptID, &g.TempReceiptCode, &g.TableNumber, &g.TempReceiptTime); err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to retrieve receipts")
			return
		}
		g.Orders = make([]orderView, 0)
		index[g.TempReceiptCode] = len(groups)
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to retrieve receipts")
		return
	}

	orders, err := h.fetchOrders(ctx, " where order_time >= $1 order by order_id", dayStart)
	if err != nil {
		h.Logger.Error("failed to list today's orders", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to retrieve receipts")
		return
	}
	if err := h.attachItems(ctx, orders); err != nil {
		h.Logger.Error("failed to load order items", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to retrieve receipts")
		return
	}

	for _, o := range orders {
		i, ok := index[o.OrderCode]
		if !ok {
			continue
		}
		groups[i].Orders = append(groups[i].Orders, o)
		if o.Status != order.StatusCancelled {
			groups[i].TotalPrice = round2(groups[i].TotalPrice + o.TotalPrice)
		}
	}

	response.JSON(w, http.StatusOK, groups)
}
