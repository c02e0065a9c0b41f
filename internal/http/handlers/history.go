package handlers

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"tableside-order-service/pkg/response"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/phpdave11/gofpdf"
	"go.uber.org/zap"
)

type archivedItemView struct {
	ItemID         int64   `json:"item_id"`
	MenuID         int64   `json:"menu_id"`
	MenuName       string  `json:"menu_name"`
	Quantity       int32   `json:"quantity"`
	Price          float64 `json:"price"`
	Note           *string `json:"note"`
	SpecialRequest *string `json:"special_request"`
}

type archivedOrderView struct {
	PendingOrderID int64              `json:"pending_order_id"`
	OrderCode      string             `json:"order_code"`
	TableNumber    string             `json:"table_number"`
	OrderTime      time.Time          `json:"order_time"`
	Status         string             `json:"status"`
	StatusPay      string             `json:"status_pay"`
	TotalPrice     float64            `json:"total_price"`
	PaymentSlip    *string            `json:"payment_slip"`
	Items          []archivedItemView `json:"items"`
}

type saleView struct {
	ReceiptID   int64               `json:"receipt_id"`
	ReceiptCode string              `json:"receipt_code"`
	ReceiptTime time.Time           `json:"receipt_time"`
	TableNumber string              `json:"table_number"`
	TotalPrice  float64             `json:"total_price"`
	Orders      []archivedOrderView `json:"orders"`
}

func (h *Handler) fetchArchivedOrders(ctx context.Context, where string, args ...any) ([]archivedOrderView, error) {
	rows, err := h.DB.Query(ctx, `
		select pending_order_id, order_code, table_number, order_time, status, status_pay, total_price, payment_slip
		from pending_orders
	`+where, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := make([]archivedOrderView, 0)
	for rows.Next() {
		var (
			o     archivedOrderView
			total pgtype.Numeric
			slip  pgtype.Text
		)
		if err := rows.Scan(&o.PendingOrderID, &o.OrderCode, &o.TableNumber, &o.OrderTime, &o.Status, &o.StatusPay, &total, &slip); err != nil {
			return nil, err
		}
		o.TotalPrice = numericFloat(total)
		o.PaymentSlip = textPtr(slip)
		o.Items = make([]archivedItemView, 0)
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(orders) == 0 {
		return orders, nil
	}

	ids := make([]int64, 0, len(orders))
	index := make(map[int64]int, len(orders))
	for i := range orders {
		ids = append(ids, orders[i].PendingOrderID)
		index[orders[i].PendingOrderID] = i
	}

	itemRows, err := h.DB.Query(ctx, `
		select poi.pending_order_id, poi.pending_item_id, poi.menu_id, m.menu_name, poi.quantity, poi.price, poi.note, poi.special_request
		from pending_order_items poi
		join menu m on m.menu_id = poi.menu_id
		where poi.pending_order_id = any($1)
		order by poi.pending_item_id
	`, ids)
	if err != nil {
		return nil, err
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var (
			pendingOrderID int64
			item           archivedItemView
			price          pgtype.Numeric
			note           pgtype.Text
			special        pgtype.Text
		)
		if err := itemRows.Scan(&pendingOrderID, &item.ItemID, &item.MenuID, &item.MenuName, &item.Quantity, &price, &note, &special); err != nil {
			return nil, err
		}
		item.Price = numericFloat(price)
		item.Note = textPtr(note)
		item.SpecialRequest = textPtr(special)
		if i, ok := index[pendingOrderID]; ok {
			orders[i].Items = append(orders[i].Items, item)
		}
	}
	return orders, itemRows.Err()
}

// OwnerOrderHistory lists every archived order, newest first.
func (h *Handler) OwnerOrderHistory(w http.ResponseWriter, r *http.Request) {
	orders, err := h.fetchArchivedOrders(r.Context(), " order by order_time desc, pending_order_id desc")
	if err != nil {
		h.Logger.Error("failed to load order history", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to retrieve order history")
		return
	}
	response.JSON(w, http.StatusOK, orders)
}

// OwnerOrderSales is the sales report: receipts with their archived orders and
// a per-receipt total.
func (h *Handler) OwnerOrderSales(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	rows, err := h.DB.Query(ctx, `
		select receipt_id, receipt_code, receipt_time
		from receipts
		order by receipt_time desc, receipt_id desc
	`)
	if err != nil {
		h.Logger.Error("failed to list receipts", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to retrieve sales")
		return
	}
	defer rows.Close()

	sales := make([]saleView, 0)
	index := make(map[string]int)
	for rows.Next() {
		var s saleView
		if err := rows.Scan(&s.ReceiptID, &s.ReceiptCode, &s.ReceiptTime); err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to retrieve sales")
			return
		}
		s.Orders = make([]archivedOrderView, 0)
		index[s.ReceiptCode] = len(sales)
		sales = append(sales, s)
	}
	if err := rows.Err(); err != nil {
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to retrieve sales")
		return
	}

	orders, err := h.fetchArchivedOrders(ctx, " order by pending_order_id")
	if err != nil {
		h.Logger.Error("failed to load archived orders", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to retrieve sales")
		return
	}

	for _, o := range orders {
		i, ok := index[o.OrderCode]
		if !ok {
			continue
		}
		sales[i].Orders = append(sales[i].Orders, o)
		sales[i].TableNumber = o.TableNumber
		sales[i].TotalPrice = round2(sales[i].TotalPrice + o.TotalPrice)
	}

	response.JSON(w, http.StatusOK, sales)
}

// OwnerReceiptPDF renders one checkout session's receipt as a PDF.
func (h *Handler) OwnerReceiptPDF(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	receiptCode := strings.TrimSpace(readPathString(r, "receiptCode"))
	if receiptCode == "" {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Receipt code is required")
		return
	}

	var receiptTime time.Time
	if err := h.DB.QueryRow(ctx,
		"select receipt_time from receipts where receipt_code = $1", receiptCode,
	).Scan(&receiptTime); err != nil {
		response.Error(w, http.StatusNotFound, "RECEIPT_NOT_FOUND", "Receipt not found")
		return
	}

	orders, err := h.fetchArchivedOrders(ctx, " where order_code = $1 order by pending_order_id", receiptCode)
	if err != nil || len(orders) == 0 {
		response.Error(w, http.StatusNotFound, "RECEIPT_NOT_FOUND", "Receipt not found")
		return
	}

	buf, err := renderReceiptPDF(receiptCode, receiptTime, orders)
	if err != nil {
		h.Logger.Error("failed to render receipt pdf", zap.String("receipt_code", receiptCode), zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to generate receipt")
		return
	}

	filename := fmt.Sprintf("receipt_%s.pdf", sanitizeFilename(receiptCode))
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=\"%s\"", filename))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

var filenameUnsafe = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

func sanitizeFilename(value string) string {
	return strings.Trim(filenameUnsafe.ReplaceAllString(value, "_"), "_")
}

func renderReceiptPDF(receiptCode string, receiptTime time.Time, orders []archivedOrderView) (*bytes.Buffer, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(12, 12, 12)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 8, "Receipt", "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 5, receiptCode, "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 5, receiptTime.Format("2006-01-02 15:04"), "", 1, "C", false, 0, "")
	if len(orders) > 0 {
		pdf.CellFormat(0, 5, fmt.Sprintf("Table %s", orders[0].TableNumber), "", 1, "C", false, 0, "")
	}

	var total float64
	for _, o := range orders {
		pdf.Ln(3)
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(0, 6, fmt.Sprintf("Order #%d", o.PendingOrderID), "B", 1, "L", false, 0, "")
		pdf.SetFont("Arial", "", 9)
		for _, item := range o.Items {
			pdf.CellFormat(130, 5, fmt.Sprintf("%dx %s", item.Quantity, item.MenuName), "", 0, "L", false, 0, "")
			pdf.CellFormat(0, 5, fmt.Sprintf("%.2f", item.Price*float64(item.Quantity)), "", 1, "R", false, 0, "")
			if item.Note != nil && *item.Note != "" {
				pdf.MultiCell(0, 4, fmt.Sprintf("Note: %s", *item.Note), "", "L", false)
			}
		}
		pdf.CellFormat(130, 5, fmt.Sprintf("Paid by %s", o.StatusPay), "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 5, fmt.Sprintf("%.2f", o.TotalPrice), "", 1, "R", false, 0, "")
		total += o.TotalPrice
	}

	pdf.Ln(3)
	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(130, 6, "Total", "T", 0, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("%.2f", total), "T", 1, "R", false, 0, "")

	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, err
	}
	return &out, nil
}
