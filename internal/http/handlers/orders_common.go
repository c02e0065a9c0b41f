package handlers

import (
	"context"
	"time"

	"tableside-order-service/internal/queue"
	"tableside-order-service/internal/utils"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"go.uber.org/zap"
)

type orderItemView struct {
	ItemID         int64   `json:"item_id"`
	MenuID         int64   `json:"menu_id"`
	MenuName       string  `json:"menu_name"`
	Quantity       int32   `json:"quantity"`
	Price          float64 `json:"price"`
	Note           *string `json:"note"`
	SpecialRequest *string `json:"special_request"`
}

type orderView struct {
	OrderID     int64           `json:"order_id"`
	OrderCode   string          `json:"order_code"`
	TableNumber string          `json:"table_number"`
	Status      string          `json:"status"`
	StatusPay   string          `json:"status_pay"`
	TotalPrice  float64         `json:"total_price"`
	PaymentSlip *string         `json:"payment_slip"`
	OrderTime   time.Time       `json:"order_time"`
	Items       []orderItemView `json:"items,omitempty"`
}

type revenueView struct {
	TotalRevenue float64 `json:"totalRevenue"`
	TotalOrders  int64   `json:"totalOrders"`
	Date         string  `json:"date"`
}

const orderSelect = `
	select order_id, order_code, table_number, status, status_pay, total_price, payment_slip, order_time
	from orders
`

func scanOrderRow(row pgx.Row) (orderView, error) {
	var (
		o     orderView
		total pgtype.Numeric
		slip  pgtype.Text
	)
	err := row.Scan(&o.OrderID, &o.OrderCode, &o.TableNumber, &o.Status, &o.StatusPay, &total, &slip, &o.OrderTime)
	if err != nil {
		return orderView{}, err
	}
	o.TotalPrice = numericFloat(total)
	o.PaymentSlip = textPtr(slip)
	return o, nil
}

func (h *Handler) fetchOrders(ctx context.Context, where string, args ...any) ([]orderView, error) {
	rows, err := h.DB.Query(ctx, orderSelect+where, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := make([]orderView, 0)
	for rows.Next() {
		o, err := scanOrderRow(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// attachItems loads the item rows for every order in the slice with one query.
func (h *Handler) attachItems(ctx context.Context, orders []orderView) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(orders))
	index := make(map[int64]int, len(orders))
	for i := range orders {
		orders[i].Items = make([]orderItemView, 0)
		ids = append(ids, orders[i].OrderID)
		index[orders[i].OrderID] = i
	}

	rows, err := h.DB.Query(ctx, `
		select oi.order_id, oi.item_id, oi.menu_id, m.menu_name, oi.quantity, oi.price, oi.note, oi.special_request
		from order_items oi
		join menu m on m.menu_id = oi.menu_id
		where oi.order_id = any($1)
		order by oi.item_id
	`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			orderID int64
			item    orderItemView
			price   pgtype.Numeric
			note    pgtype.Text
			special pgtype.Text
		)
		if err := rows.Scan(&orderID, &item.ItemID, &item.MenuID, &item.MenuName, &item.Quantity, &price, &note, &special); err != nil {
			return err
		}
		item.Price = numericFloat(price)
		item.Note = textPtr(note)
		item.SpecialRequest = textPtr(special)
		if i, ok := index[orderID]; ok {
			orders[i].Items = append(orders[i].Items, item)
		}
	}
	return rows.Err()
}

// todayRevenue sums completed orders since restaurant-local midnight. The
// returned date is formatted for the dashboard (Thai Buddhist calendar).
func (h *Handler) todayRevenue(ctx context.Context) (revenueView, error) {
	var (
		total  pgtype.Numeric
		orders int64
	)
	err := h.DB.QueryRow(ctx, `
		select coalesce(sum(total_price), 0), count(*)
		from orders
		where status = 'completed' and order_time >= $1
	`, h.todayStart()).Scan(&total, &orders)
	if err != nil {
		return revenueView{}, err
	}

	return revenueView{
		TotalRevenue: round2(numericFloat(total)),
		TotalOrders:  orders,
		Date:         utils.FormatThaiDate(h.Config.RestaurantTimezone, time.Now()),
	}, nil
}

func (h *Handler) todayOrderCount(ctx context.Context) (int64, error) {
	var count int64
	err := h.DB.QueryRow(ctx, `select count(*) from orders where order_time >= $1`, h.todayStart()).Scan(&count)
	return count, err
}

// emitOrderStats pushes the recomputed revenue and order count. An empty room
// broadcasts globally, otherwise the emit is scoped to the order_code room.
func (h *Handler) emitOrderStats(ctx context.Context, room string) {
	if revenue, err := h.todayRevenue(ctx); err == nil {
		if room == "" {
			h.Notifier.Emit("today_revenue_updated", revenue)
		} else {
			h.Notifier.EmitToRoom(room, "today_revenue_updated", revenue)
		}
	}
	if count, err := h.todayOrderCount(ctx); err == nil {
		data := map[string]any{"count": count}
		if room == "" {
			h.Notifier.Emit("orderCountUpdated", data)
		} else {
			h.Notifier.EmitToRoom(room, "orderCountUpdated", data)
		}
	}
}

// publishOrderEvent hands the mutation to the event exchange. Publishing is
// fire-and-forget; the REST caller never waits on the broker.
func (h *Handler) publishOrderEvent(ctx context.Context, routingKey string, orderID int64, orderCode string, extra map[string]any) {
	if h.Queue == nil {
		return
	}
	payload := map[string]any{
		"type":      routingKey,
		"orderId":   orderID,
		"orderCode": orderCode,
	}
	for k, v := range extra {
		payload[k] = v
	}
	if err := h.Queue.PublishJSON(ctx, queue.EventsExchange, routingKey, payload); err != nil {
		h.Logger.Warn("failed to publish order event",
			zap.String("routing_key", routingKey),
			zap.Int64("order_id", orderID),
			zap.Error(err))
	}
}
