package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"tableside-order-service/internal/order"
	"tableside-order-service/pkg/response"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"go.uber.org/zap"
)

type statusPayload struct {
	Status string `json:"status"`
}

// OrderDetail returns one order with its items; shared by the staff and owner
// route groups.
func (h *Handler) OrderDetail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orderID, err := readPathInt64(r, "orderId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid order id")
		return
	}

	o, err := scanOrderRow(h.DB.QueryRow(ctx, orderSelect+" where order_id = $1", orderID))
	if err != nil {
		response.Error(w, http.StatusNotFound, "ORDER_NOT_FOUND", "Order not found")
		return
	}

	orders := []orderView{o}
	if err := h.attachItems(ctx, orders); err != nil {
		h.Logger.Error("failed to load order items", zap.Int64("order_id", orderID), zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to retrieve order")
		return
	}

	response.JSON(w, http.StatusOK, orders[0])
}

// UpdateOrderStatus moves a single order through the lifecycle. The whole
// path, including the completed-order archival, runs in one transaction.
func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orderID, err := readPathInt64(r, "orderId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid order id")
		return
	}

	var payload statusPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	next := strings.TrimSpace(payload.Status)
	if !order.ValidStatus(next) {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Unknown order status")
		return
	}

	tx, err := h.DB.Begin(ctx)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update order status")
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var (
		current   string
		statusPay string
		slip      pgtype.Text
		orderCode string
	)
	err = tx.QueryRow(ctx, `
		select status, status_pay, payment_slip, order_code
		from orders
		where order_id = $1
		for update
	`, orderID).Scan(&current, &statusPay, &slip, &orderCode)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.Error(w, http.StatusNotFound, "ORDER_NOT_FOUND", "Order not found")
			return
		}
		h.Logger.Error("failed to load order for status update", zap.Int64("order_id", orderID), zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update order status")
		return
	}

	if !order.IsValidTransition(current, next) {
		response.Error(w, http.StatusConflict, "INVALID_TRANSITION", "Order cannot move from "+current+" to "+next)
		return
	}
	if next == order.StatusCompleted {
		if err := order.CompletionAllowed(statusPay, textPtr(slip)); err != nil {
			response.Error(w, http.StatusConflict, "PAYMENT_REQUIRED", err.Error())
			return
		}
	}

	if _, err := tx.Exec(ctx, "update orders set status = $2 where order_id = $1", orderID, next); err != nil {
		h.Logger.Error("failed to update order status", zap.Int64("order_id", orderID), zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update order status")
		return
	}

	if next == order.StatusCompleted {
		if _, _, err := order.Archive(ctx, tx, orderID); err != nil {
			h.Logger.Error("failed to archive completed order", zap.Int64("order_id", orderID), zap.Error(err))
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update order status")
			return
		}
	}

	if err := tx.Commit(ctx); err != nil {
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update order status")
		return
	}

	h.Notifier.Emit("order_status_updated", map[string]any{
		"orderId":    orderID,
		"order_code": orderCode,
		"status":     next,
	})
	h.emitOrderStats(ctx, "")
	h.publishOrderEvent(ctx, "order.status.updated", orderID, orderCode, map[string]any{"status": next})

	response.JSON(w, http.StatusOK, map[string]any{
		"orderId": orderID,
		"status":  next,
	})
}

// CompleteAllOrders closes out a table session: every live order under the
// order_code is completed and archived in one transaction. Unlike the
// single-order path this is a checkout action, so intermediate kitchen states
// are skipped, but the payment gate still holds for every order.
func (h *Handler) CompleteAllOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orderCode := strings.TrimSpace(readPathString(r, "orderCode"))
	if orderCode == "" {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Order code is required")
		return
	}

	tx, err := h.DB.Begin(ctx)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to complete orders")
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rows, err := tx.Query(ctx, `
		select order_id, status, status_pay, payment_slip
		from orders
		where order_code = $1
		order by order_id
		for update
	`, orderCode)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to complete orders")
		return
	}

	type liveOrder struct {
		ID        int64
		StatusPay string
		Slip      *string
	}
	live := make([]liveOrder, 0)
	found := false
	for rows.Next() {
		var (
			id        int64
			status    string
			statusPay string
			slip      pgtype.Text
		)
		if err := rows.Scan(&id, &status, &statusPay, &slip); err != nil {
			rows.Close()
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to complete orders")
			return
		}
		found = true
		if order.IsTerminal(status) {
			continue
		}
		live = append(live, liveOrder{ID: id, StatusPay: statusPay, Slip: textPtr(slip)})
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to complete orders")
		return
	}

	if !found {
		response.Error(w, http.StatusNotFound, "ORDER_NOT_FOUND", "No orders found for this code")
		return
	}

	completed := make([]int64, 0, len(live))
	for _, lo := range live {
		if err := order.CompletionAllowed(lo.StatusPay, lo.Slip); err != nil {
			response.Error(w, http.StatusConflict, "PAYMENT_REQUIRED", err.Error())
			return
		}
		if _, err := tx.Exec(ctx, "update orders set status = $2 where order_id = $1", lo.ID, order.StatusCompleted); err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to complete orders")
			return
		}
		if _, _, err := order.Archive(ctx, tx, lo.ID); err != nil {
			h.Logger.Error("failed to archive order in batch completion",
				zap.Int64("order_id", lo.ID), zap.String("order_code", orderCode), zap.Error(err))
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to complete orders")
			return
		}
		completed = append(completed, lo.ID)
	}

	// The session's temp receipt is spent once everything is archived.
	if _, err := tx.Exec(ctx, "delete from temp_receipts where temp_receipt_code = $1", orderCode); err != nil {
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to complete orders")
		return
	}

	if err := tx.Commit(ctx); err != nil {
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to complete orders")
		return
	}

	h.Notifier.EmitToRoom(orderCode, "temp_receipt_updated", map[string]any{
		"order_code": orderCode,
		"status":     order.StatusCompleted,
	})
	for _, id := range completed {
		h.Notifier.EmitToRoom(orderCode, "order_status_updated", map[string]any{
			"orderId":    id,
			"order_code": orderCode,
			"status":     order.StatusCompleted,
		})
	}
	h.emitOrderStats(ctx, orderCode)
	h.publishOrderEvent(ctx, "order.status.updated", 0, orderCode, map[string]any{
		"status":          order.StatusCompleted,
		"completedOrders": completed,
	})

	response.JSON(w, http.StatusOK, map[string]any{
		"order_code":      orderCode,
		"completedOrders": completed,
	})
}
