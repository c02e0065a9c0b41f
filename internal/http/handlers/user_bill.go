package handlers

import (
	"errors"
	"net/http"
	"strings"

	"tableside-order-service/internal/order"
	"tableside-order-service/pkg/response"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// UserOrderListByCode assembles the running bill for one table session.
func (h *Handler) UserOrderListByCode(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orderCode := strings.TrimSpace(readPathString(r, "orderCode"))
	if orderCode == "" {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Order code is required")
		return
	}

	orders, err := h.fetchOrders(ctx, " where order_code = $1 order by order_id", orderCode)
	if err != nil {
		h.Logger.Error("failed to load bill", zap.String("order_code", orderCode), zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to retrieve orders")
		return
	}
	if len(orders) == 0 {
		response.Error(w, http.StatusNotFound, "ORDER_NOT_FOUND", "No orders found for this code")
		return
	}
	if err := h.attachItems(ctx, orders); err != nil {
		h.Logger.Error("failed to load bill items", zap.String("order_code", orderCode), zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to retrieve orders")
		return
	}

	var billTotal float64
	for _, o := range orders {
		if o.Status != order.StatusCancelled {
			billTotal = round2(billTotal + o.TotalPrice)
		}
	}

	response.JSON(w, http.StatusOK, map[string]any{
		"order_code":  orderCode,
		"orders":      orders,
		"total_price": billTotal,
	})
}

// UserCancelOrder cancels an order while it is still pending. Anything the
// kitchen has picked up stays.
func (h *Handler) UserCancelOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orderID, err := readPathInt64(r, "orderId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid order id")
		return
	}

	tx, err := h.DB.Begin(ctx)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to cancel order")
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var (
		current   string
		orderCode string
	)
	err = tx.QueryRow(ctx,
		"select status, order_code from orders where order_id = $1 for update", orderID,
	).Scan(&current, &orderCode)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.Error(w, http.StatusNotFound, "ORDER_NOT_FOUND", "Order not found")
			return
		}
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to cancel order")
		return
	}

	if !order.CanCancel(current) {
		response.Error(w, http.StatusConflict, "CANNOT_CANCEL", "Order can only be cancelled while pending")
		return
	}

	if _, err := tx.Exec(ctx, "update orders set status = $2 where order_id = $1", orderID, order.StatusCancelled); err != nil {
		h.Logger.Error("failed to cancel order", zap.Int64("order_id", orderID), zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to cancel order")
		return
	}
	if err := tx.Commit(ctx); err != nil {
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to cancel order")
		return
	}

	h.Notifier.Emit("order_status_updated", map[string]any{
		"orderId":    orderID,
		"order_code": orderCode,
		"status":     order.StatusCancelled,
	})
	h.emitOrderStats(ctx, "")
	h.publishOrderEvent(ctx, "order.status.updated", orderID, orderCode, map[string]any{"status": order.StatusCancelled})

	response.JSON(w, http.StatusOK, map[string]any{
		"orderId": orderID,
		"status":  order.StatusCancelled,
	})
}

// readPaymentForm reads the multipart payment fields. transfer_money requires
// a slip image; cash must not carry one.
func (h *Handler) readPaymentForm(w http.ResponseWriter, r *http.Request) (string, *string, bool) {
	statusPay := strings.TrimSpace(r.FormValue("status_pay"))
	if statusPay != order.PayCash && statusPay != order.PayTransfer {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "status_pay must be cash or transfer_money")
		return "", nil, false
	}

	if statusPay == order.PayCash {
		return statusPay, nil, true
	}

	data, _, _, ferr := readFileBytes(r, "payment_slip", true, h.Config.MaxFileSizeBytes)
	if ferr != nil {
		if ferr.Kind == fileReadErrMissing {
			response.Error(w, http.StatusBadRequest, "SLIP_REQUIRED", "Transfer payment requires a slip image")
		} else {
			response.Error(w, http.StatusBadRequest, "INVALID_FILE", ferr.Message)
		}
		return "", nil, false
	}

	key := "bill/" + uploadFilename("slip", "jpg")
	if err := h.saveUpload(r.Context(), key, data, "image/jpeg"); err != nil {
		h.Logger.Error("failed to store payment slip", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to store payment slip")
		return "", nil, false
	}
	return statusPay, &key, true
}

// UserPayOrder records the payment method (and slip, for transfers) on one
// order.
func (h *Handler) UserPayOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orderID, err := readPathInt64(r, "orderId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid order id")
		return
	}

	var (
		current   string
		orderCode string
	)
	if err := h.DB.QueryRow(ctx,
		"select status, order_code from orders where order_id = $1", orderID,
	).Scan(&current, &orderCode); err != nil {
		response.Error(w, http.StatusNotFound, "ORDER_NOT_FOUND", "Order not found")
		return
	}
	if current == order.StatusCancelled {
		response.Error(w, http.StatusConflict, "ORDER_CANCELLED", "Cancelled orders cannot be paid")
		return
	}

	statusPay, slipKey, ok := h.readPaymentForm(w, r)
	if !ok {
		return
	}

	if _, err := h.DB.Exec(ctx,
		"update orders set status_pay = $2, payment_slip = $3 where order_id = $1",
		orderID, statusPay, slipKey,
	); err != nil {
		h.Logger.Error("failed to record payment", zap.Int64("order_id", orderID), zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to record payment")
		return
	}

	h.Notifier.EmitToRoom(orderCode, "order_payment_updated", map[string]any{
		"orderId":    orderID,
		"order_code": orderCode,
		"status_pay": statusPay,
	})
	h.publishOrderEvent(ctx, "order.payment.updated", orderID, orderCode, map[string]any{"status_pay": statusPay})

	resp := map[string]any{
		"orderId":    orderID,
		"status_pay": statusPay,
	}
	if slipKey != nil {
		resp["payment_slip"] = h.uploadURL(*slipKey)
	}
	response.JSON(w, http.StatusOK, resp)
}

// UserPayAllOrders settles every unpaid, non-cancelled order under the
// session's order_code with one payment method. Orders already paid keep
// their original method and slip.
func (h *Handler) UserPayAllOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orderCode := strings.TrimSpace(readPathString(r, "orderCode"))
	if orderCode == "" {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Order code is required")
		return
	}

	var exists bool
	if err := h.DB.QueryRow(ctx,
		"select exists(select 1 from orders where order_code = $1)", orderCode,
	).Scan(&exists); err != nil || !exists {
		response.Error(w, http.StatusNotFound, "ORDER_NOT_FOUND", "No orders found for this code")
		return
	}

	statusPay, slipKey, ok := h.readPaymentForm(w, r)
	if !ok {
		return
	}

	rows, err := h.DB.Query(ctx, `
		update orders
		set status_pay = $2, payment_slip = $3
		where order_code = $1 and status_pay = $4 and status <> $5
		returning order_id
	`, orderCode, statusPay, slipKey, order.PayUncash, order.StatusCancelled)
	if err != nil {
		h.Logger.Error("failed to record batch payment", zap.String("order_code", orderCode), zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to record payment")
		return
	}
	defer rows.Close()

	paid := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to record payment")
			return
		}
		paid = append(paid, id)
	}

	h.Notifier.EmitToRoom(orderCode, "order_payment_updated", map[string]any{
		"order_code": orderCode,
		"status_pay": statusPay,
		"paidOrders": paid,
	})
	h.publishOrderEvent(ctx, "order.payment.updated", 0, orderCode, map[string]any{
		"status_pay": statusPay,
		"paidOrders": paid,
	})

	resp := map[string]any{
		"order_code": orderCode,
		"status_pay": statusPay,
		"paidOrders": paid,
	}
	if slipKey != nil {
		resp["payment_slip"] = h.uploadURL(*slipKey)
	}
	response.JSON(w, http.StatusOK, resp)
}
