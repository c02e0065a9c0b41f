package order

import (
	"context"
	"errors"
	"math"
	"strings"

	"github.com/jackc/pgx/v5"
)

// Order statuses. Transitions are monotonic except for the cancelled escape;
// completed and cancelled are terminal.
const (
	StatusPending   = "pending"
	StatusPreparing = "preparing"
	StatusReady     = "ready"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// Payment statuses.
const (
	PayUncash   = "uncash"
	PayCash     = "cash"
	PayTransfer = "transfer_money"
)

var allowedTransitions = map[string][]string{
	StatusPending:   {StatusPreparing, StatusCancelled},
	StatusPreparing: {StatusReady, StatusCancelled},
	StatusReady:     {StatusCompleted},
	StatusCompleted: {},
	StatusCancelled: {},
}

var (
	ErrUnknownStatus = errors.New("unknown order status")
	ErrNotPaid       = errors.New("order must be paid before completion")
	ErrMissingSlip   = errors.New("transfer payment requires an uploaded slip")
)

func ValidStatus(status string) bool {
	_, ok := allowedTransitions[status]
	return ok
}

func ValidPaymentStatus(statusPay string) bool {
	switch statusPay {
	case PayUncash, PayCash, PayTransfer:
		return true
	}
	return false
}

func IsTerminal(status string) bool {
	return status == StatusCompleted || status == StatusCancelled
}

func IsValidTransition(current, next string) bool {
	if current == next {
		return false
	}
	allowed, ok := allowedTransitions[current]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == next {
			return true
		}
	}
	return false
}

// CanCancel: cancellation is only open while the kitchen has not started.
func CanCancel(current string) bool {
	return current == StatusPending
}

// CompletionAllowed is the server-side payment gate for moving to completed:
// the order must be paid, and transfer payments must carry a slip.
func CompletionAllowed(statusPay string, paymentSlip *string) error {
	switch statusPay {
	case PayCash:
		return nil
	case PayTransfer:
		if paymentSlip == nil || strings.TrimSpace(*paymentSlip) == "" {
			return ErrMissingSlip
		}
		return nil
	case PayUncash:
		return ErrNotPaid
	default:
		return ErrUnknownStatus
	}
}

type ItemInput struct {
	MenuID         int64   `json:"menu_id"`
	Quantity       int32   `json:"quantity"`
	Price          float64 `json:"price"`
	Note           string  `json:"note"`
	SpecialRequest string  `json:"special_request"`
}

// TotalPrice sums client-supplied price x quantity. The stored total is
// denormalized from the request; it is not re-derived from the menu table.
func TotalPrice(items []ItemInput) float64 {
	var total float64
	for _, item := range items {
		qty := item.Quantity
		if qty <= 0 {
			qty = 1
		}
		total = round2(total + round2(item.Price*float64(qty)))
	}
	return total
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}

// Archive copies a completed order into pending_orders/pending_order_items and
// inserts the receipts row. The receipt insert is idempotent: receipt_code is
// unique and conflicts are ignored, so two concurrent completions of the same
// order_code cannot yield two receipts. Must run inside the caller's
// transaction together with the status update.
func Archive(ctx context.Context, tx pgx.Tx, orderID int64) (pendingOrderID int64, receiptCreated bool, err error) {
	var orderCode string
	err = tx.QueryRow(ctx, `
		insert into pending_orders (order_code, table_number, order_time, status, total_price, status_pay, payment_slip)
		select order_code, table_number, order_time, $2, total_price, status_pay, payment_slip
		from orders
		where order_id = $1
		returning pending_order_id, order_code
	`, orderID, StatusCompleted).Scan(&pendingOrderID, &orderCode)
	if err != nil {
		return 0, false, err
	}

	if _, err = tx.Exec(ctx, `
		insert into pending_order_items (pending_order_id, menu_id, quantity, price, note, special_request)
		select $1, menu_id, quantity, price, note, special_request
		from order_items
		where order_id = $2
	`, pendingOrderID, orderID); err != nil {
		return 0, false, err
	}

	tag, err := tx.Exec(ctx, `
		insert into receipts (receipt_code, receipt_order_id)
		values ($1, $2)
		on conflict (receipt_code) do nothing
	`, orderCode, pendingOrderID)
	if err != nil {
		return 0, false, err
	}

	return pendingOrderID, tag.RowsAffected() > 0, nil
}
