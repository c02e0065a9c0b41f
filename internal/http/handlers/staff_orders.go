package handlers

import (
	"net/http"

	"tableside-order-service/pkg/response"

	"go.uber.org/zap"
)

// StaffOrdersToday lists every order placed since restaurant-local midnight,
// newest first, with items for the kitchen board.
func (h *Handler) StaffOrdersToday(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	orders, err := h.fetchOrders(ctx, " where order_time >= $1 order by order_id desc", h.todayStart())
	if err != nil {
		h.Logger.Error("failed to list today's orders", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to retrieve orders")
		return
	}
	if err := h.attachItems(ctx, orders); err != nil {
		h.Logger.Error("failed to load order items", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to retrieve orders")
		return
	}

	response.JSON(w, http.StatusOK, orders)
}

func (h *Handler) StaffOrderCount(w http.ResponseWriter, r *http.Request) {
	count, err := h.todayOrderCount(r.Context())
	if err != nil {
		h.Logger.Error("failed to count today's orders", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to count orders")
		return
	}
	response.JSON(w, http.StatusOK, map[string]any{"count": count})
}

func (h *Handler) TodayRevenue(w http.ResponseWriter, r *http.Request) {
	revenue, err := h.todayRevenue(r.Context())
	if err != nil {
		h.Logger.Error("failed to compute today's revenue", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to compute revenue")
		return
	}
	response.JSON(w, http.StatusOK, revenue)
}
