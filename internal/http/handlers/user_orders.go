package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"tableside-order-service/internal/order"
	"tableside-order-service/pkg/response"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type createOrderPayload struct {
	TableNumber string            `json:"table_number"`
	OrderCode   string            `json:"order_code"`
	Items       []order.ItemInput `json:"items"`
}

// sweepStaleOrders is the retention policy: before every insert, rows dated
// before restaurant-local midnight are dropped. Best-effort; a sweep failure
// never blocks the new order.
func (h *Handler) sweepStaleOrders(ctx context.Context) {
	dayStart := h.todayStart()

	if _, err := h.DB.Exec(ctx, `
		delete from order_items
		where order_id in (select order_id from orders where order_time < $1)
	`, dayStart); err != nil {
		h.Logger.Warn("stale order item sweep failed", zap.Error(err))
		return
	}
	if _, err := h.DB.Exec(ctx, `delete from orders where order_time < $1`, dayStart); err != nil {
		h.Logger.Warn("stale order sweep failed", zap.Error(err))
	}
	if _, err := h.DB.Exec(ctx, `delete from temp_receipts where temp_receipt_time < $1`, dayStart); err != nil {
		h.Logger.Warn("stale temp receipt sweep failed", zap.Error(err))
	}
}

// UserOrderCreate places a cart: upserts the session's temp receipt, inserts
// the order with its items, and notifies the dashboards. The insert sequence
// runs in one transaction.
func (h *Handler) UserOrderCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var payload createOrderPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	tableNumber := strings.TrimSpace(payload.TableNumber)
	if tableNumber == "" {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Table number is required")
		return
	}
	if len(payload.Items) == 0 {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Order must contain at least one item")
		return
	}
	for _, item := range payload.Items {
		if item.MenuID <= 0 {
			response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Each item needs a menu reference")
			return
		}
		if item.Price < 0 {
			response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Item price cannot be negative")
			return
		}
	}

	var tableExists bool
	if err := h.DB.QueryRow(ctx, "select exists(select 1 from tables where table_number = $1)", tableNumber).Scan(&tableExists); err != nil || !tableExists {
		response.Error(w, http.StatusNotFound, "TABLE_NOT_FOUND", "Table not found")
		return
	}

	orderCode := strings.TrimSpace(payload.OrderCode)
	if orderCode == "" {
		orderCode = uuid.NewString()
	}

	h.sweepStaleOrders(ctx)

	totalPrice := order.TotalPrice(payload.Items)

	tx, err := h.DB.Begin(ctx)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create order")
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// One temp receipt per order_code for the running bill; reuse it when the
	// same session orders again.
	var tempReceiptID int64
	err = tx.QueryRow(ctx, `
		insert into temp_receipts (temp_receipt_code, table_number, temp_receipt_time)
		values ($1, $2, now())
		on conflict (temp_receipt_code) do update set table_number = excluded.table_number
		returning temp_receipt_id
	`, orderCode, tableNumber).Scan(&tempReceiptID)
	if err != nil {
		h.Logger.Error("failed to upsert temp receipt", zap.String("order_code", orderCode), zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create order")
		return
	}

	var orderID int64
	err = tx.QueryRow(ctx, `
		insert into orders (order_code, table_number, status, status_pay, total_price, order_time)
		values ($1, $2, $3, $4, $5, now())
		returning order_id
	`, orderCode, tableNumber, order.StatusPending, order.PayUncash, totalPrice).Scan(&orderID)
	if err != nil {
		h.Logger.Error("failed to insert order", zap.String("order_code", orderCode), zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create order")
		return
	}

	for _, item := range payload.Items {
		qty := item.Quantity
		if qty <= 0 {
			qty = 1
		}
		var note, special *string
		if s := strings.TrimSpace(item.Note); s != "" {
			note = &s
		}
		if s := strings.TrimSpace(item.SpecialRequest); s != "" {
			special = &s
		}
		if _, err := tx.Exec(ctx, `
			insert into order_items (order_id, menu_id, quantity, price, note, special_request)
			values ($1, $2, $3, $4, $5, $6)
		`, orderID, item.MenuID, qty, item.Price, note, special); err != nil {
			h.Logger.Error("failed to insert order item",
				zap.Int64("order_id", orderID), zap.Int64("menu_id", item.MenuID), zap.Error(err))
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create order")
			return
		}
	}

	if err := tx.Commit(ctx); err != nil {
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create order")
		return
	}

	h.Notifier.Emit("new_order", map[string]any{
		"orderId":      orderID,
		"order_code":   orderCode,
		"table_number": tableNumber,
		"total_price":  totalPrice,
	})
	if count, err := h.todayOrderCount(ctx); err == nil {
		h.Notifier.Emit("orderCountUpdated", map[string]any{"count": count})
	}
	h.publishOrderEvent(ctx, "order.created", orderID, orderCode, map[string]any{
		"table_number": tableNumber,
		"total_price":  totalPrice,
	})

	response.JSON(w, http.StatusCreated, map[string]any{
		"orderId":       orderID,
		"tempReceiptId": tempReceiptID,
		"order_code":    orderCode,
		"total_price":   totalPrice,
	})
}
